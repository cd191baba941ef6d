package compare

import "schemasync/internal/domain"

// existence returns the status of every named source and whether the
// statuses are mixed.
func existence(names []string, has func(string) bool) (map[string]string, bool) {
	status := make(map[string]string, len(names))
	exists, missing := 0, 0
	for _, n := range names {
		if has(n) {
			status[n] = domain.StatusExists
			exists++
		} else {
			status[n] = domain.StatusMissing
			missing++
		}
	}
	return status, exists > 0 && missing > 0
}

// FindObjectDifferences emits an Object Missing record for every universe
// object that is absent from at least one source.
func FindObjectDifferences(u *Universe, sources []*domain.SchemaSource) []domain.DifferenceRecord {
	byName := indexSources(sources)

	var out []domain.DifferenceRecord
	for _, obj := range u.Objects {
		status, mixed := existence(u.Sources, func(n string) bool {
			return byName[n].HasTable(obj)
		})
		if !mixed {
			continue
		}
		out = append(out, domain.DifferenceRecord{
			ObjectID: obj,
			Type:     domain.DiffObjectMissing,
			Values:   status,
		})
	}
	return out
}

// FindSubObjectDifferences emits a Sub-object Missing record for every column
// whose presence differs among the sources holding its table. Sources without
// the table are marked N/A. Tables held by fewer than two sources are skipped.
func FindSubObjectDifferences(u *Universe, sources []*domain.SchemaSource) []domain.DifferenceRecord {
	var out []domain.DifferenceRecord
	for _, obj := range u.Objects {
		hs := holders(sources, obj)
		if len(hs) < 2 {
			continue
		}
		names := make([]string, len(hs))
		byName := make(map[string]*domain.Table, len(hs))
		for i, s := range hs {
			names[i] = s.Name
			byName[s.Name] = s.Tables[obj]
		}

		for _, col := range u.SubObjects[obj] {
			status, mixed := existence(names, func(n string) bool {
				_, ok := byName[n].Columns[col]
				return ok
			})
			if !mixed {
				continue
			}
			fillNotApplicable(status, u.Sources)
			out = append(out, domain.DifferenceRecord{
				ObjectID:    obj,
				SubObjectID: col,
				Type:        domain.DiffSubObjectMissing,
				Values:      status,
			})
		}
	}
	return out
}

func indexSources(sources []*domain.SchemaSource) map[string]*domain.SchemaSource {
	m := make(map[string]*domain.SchemaSource, len(sources))
	for _, s := range sources {
		m[s.Name] = s
	}
	return m
}

// fillNotApplicable marks every source absent from values as N/A.
func fillNotApplicable(values map[string]string, sources []string) {
	for _, s := range sources {
		if _, ok := values[s]; !ok {
			values[s] = domain.StatusNotApplicable
		}
	}
}
