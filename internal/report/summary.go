package report

import (
	"sort"

	"schemasync/internal/domain"
)

// Summary counts the records of a difference table.
type Summary struct {
	Total    int            `json:"total"`
	Missing  int            `json:"missing"`
	Values   int            `json:"values"`
	ByType   map[string]int `json:"by_type"`
	ByObject map[string]int `json:"by_object"`
}

// Summarize counts records per difference type and per object. It reads the
// table only.
func Summarize(t *domain.DifferenceTable) Summary {
	s := Summary{ByType: map[string]int{}, ByObject: map[string]int{}}
	if t == nil {
		return s
	}
	for _, r := range t.Records {
		s.Total++
		if domain.IsMissingType(r.Type) {
			s.Missing++
		} else {
			s.Values++
		}
		s.ByType[r.Type]++
		s.ByObject[r.ObjectID]++
	}
	return s
}

// TypeCount is one difference type and its record count.
type TypeCount struct {
	Type  string
	Count int
}

// SortedTypes returns the per-type counts ordered by descending count, then
// by type name.
func (s Summary) SortedTypes() []TypeCount {
	out := make([]TypeCount, 0, len(s.ByType))
	for t, n := range s.ByType {
		out = append(out, TypeCount{t, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}
