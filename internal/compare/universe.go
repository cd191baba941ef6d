package compare

import (
	"sort"

	"schemasync/internal/domain"
)

// Universe is the union of all objects across sources and, per object, the
// union of sub-objects over the sources that contain it. Both are sorted.
type Universe struct {
	Objects    []string
	SubObjects map[string][]string
	Sources    []string
}

// BuildUniverse computes the universe of a set of normalized schema sources.
func BuildUniverse(sources []*domain.SchemaSource) *Universe {
	u := &Universe{SubObjects: make(map[string][]string)}

	objects := make(map[string]bool)
	for _, s := range sources {
		u.Sources = append(u.Sources, s.Name)
		for name := range s.Tables {
			objects[name] = true
		}
	}
	sort.Strings(u.Sources)

	for obj := range objects {
		u.Objects = append(u.Objects, obj)

		cols := make(map[string]bool)
		for _, s := range sources {
			t, ok := s.Tables[obj]
			if !ok {
				continue
			}
			for c := range t.Columns {
				cols[c] = true
			}
		}
		u.SubObjects[obj] = sortedNames(cols)
	}
	sort.Strings(u.Objects)

	return u
}

// Len returns the number of objects.
func (u *Universe) Len() int { return len(u.Objects) }

// holders returns the sources containing object, in source-name order.
func holders(sources []*domain.SchemaSource, object string) []*domain.SchemaSource {
	var out []*domain.SchemaSource
	for _, s := range sources {
		if s.HasTable(object) {
			out = append(out, s)
		}
	}
	return out
}
