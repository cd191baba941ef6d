package compare

import (
	"fmt"
	"sort"
	"strings"

	"schemasync/internal/domain"
)

// BuildKeyedSet indexes a normalized frame by the record set's composite key. Rows
// with an empty key part are skipped; for duplicate keys the first row wins.
// Null field values become the empty string.
func BuildKeyedSet(source string, f *domain.Frame, spec domain.KeyedSpec) (*domain.KeyedSet, domain.Diagnostics) {
	var diags domain.Diagnostics
	set := &domain.KeyedSet{Source: source, Entries: make(map[string]domain.KeyedEntry)}

	keyIdx := make([]int, len(spec.Keys))
	for i, k := range spec.Keys {
		keyIdx[i] = f.Index(k)
	}
	fieldIdx := make([]int, len(spec.Fields))
	for i, fld := range spec.Fields {
		fieldIdx[i] = f.Index(fld)
	}

	parts := make([]string, len(spec.Keys))
	for rowNum, row := range f.Rows {
		blank := false
		for i, idx := range keyIdx {
			parts[i] = domain.Identifier(cell(row, idx))
			if parts[i] == "" {
				blank = true
			}
		}
		if blank {
			diags = append(diags, domain.Diagnostic{
				Severity: domain.SeverityWarning,
				Source:   source,
				Object:   spec.RecordSet,
				Message:  fmt.Sprintf("row %d has an empty key, skipped", rowNum+1),
			})
			continue
		}

		key, id := domain.CompositeKey(parts)
		if _, dup := set.Entries[key]; dup {
			diags = append(diags, domain.Diagnostic{
				Severity:  domain.SeverityDebug,
				Source:    source,
				Object:    spec.RecordSet,
				SubObject: id,
				Message:   "duplicate key, first row kept",
			})
			continue
		}

		values := make(map[string]string, len(spec.Fields))
		for i, fld := range spec.Fields {
			values[fld] = domain.RawString(cell(row, fieldIdx[i]))
		}
		set.Entries[key] = domain.KeyedEntry{Identifier: id, Values: values}
	}
	return set, diags
}

// CompareKeyed runs the keyed-value comparison for one record set. It emits
// Entry Missing when an entry's existence differs across sets and, in an
// independent pass, a "<Field> Mismatch" per field whose values disagree
// among the sets holding the entry. Both can fire for the same entry. The
// status map covers exactly the given sets.
func CompareKeyed(spec domain.KeyedSpec, sets []*domain.KeyedSet) ([]domain.DifferenceRecord, domain.Diagnostics) {
	sets = append([]*domain.KeyedSet(nil), sets...)
	sort.Slice(sets, func(i, j int) bool { return sets[i].Source < sets[j].Source })

	names := make([]string, len(sets))
	byName := make(map[string]*domain.KeyedSet, len(sets))
	universe := make(map[string]string) // key -> identifier
	for i, s := range sets {
		names[i] = s.Source
		byName[s.Source] = s
		for k, e := range s.Entries {
			universe[k] = e.Identifier
		}
	}
	keys := sortedNames(universe)

	var (
		out      []domain.DifferenceRecord
		diags    domain.Diagnostics
		missing  int
		mismatch int
	)
	for _, key := range keys {
		id := universe[key]
		status, mixed := existence(names, func(n string) bool {
			_, ok := byName[n].Entries[key]
			return ok
		})
		if mixed {
			missing++
			out = append(out, domain.DifferenceRecord{
				ObjectID:    spec.RecordSet,
				SubObjectID: id,
				Type:        domain.DiffEntryMissing,
				Values:      status,
			})
		}

		var holders []string
		for _, n := range names {
			if status[n] == domain.StatusExists {
				holders = append(holders, n)
			}
		}
		if len(holders) < 2 {
			continue
		}

		for _, field := range spec.Fields {
			groups := groupValues(holders, func(n string) string {
				return byName[n].Entries[key].Values[field]
			})
			if len(groups) < 2 {
				continue
			}
			mismatch++
			values := make(map[string]string, len(names))
			for _, n := range names {
				if status[n] == domain.StatusExists {
					values[n] = byName[n].Entries[key].Values[field]
				} else {
					values[n] = status[n]
				}
			}
			out = append(out, domain.DifferenceRecord{
				ObjectID:    spec.RecordSet,
				SubObjectID: id,
				Type:        domain.FieldMismatch(field),
				Values:      values,
			})
			diags = append(diags, domain.Diagnostic{
				Severity:  domain.SeverityDebug,
				Object:    spec.RecordSet,
				SubObject: id,
				Message:   fmt.Sprintf("value mismatch (%s): %s", field, FormatValueGroups(groups)),
			})
		}
	}

	diags.Add(domain.SeverityInfo, "", fmt.Sprintf("%s comparison: %d entries, %d missing, %d value mismatches",
		spec.RecordSet, len(keys), missing, mismatch))
	return out, diags
}

// ValueGroup is a set of sources sharing one comparison value.
type ValueGroup struct {
	Value   string
	Sources []string
}

// groupValues groups sources by value, ordered by first appearance.
func groupValues(sources []string, valueOf func(string) string) []ValueGroup {
	var groups []ValueGroup
	index := make(map[string]int)
	for _, s := range sources {
		v := valueOf(s)
		i, ok := index[v]
		if !ok {
			i = len(groups)
			index[v] = i
			groups = append(groups, ValueGroup{Value: v})
		}
		groups[i].Sources = append(groups[i].Sources, s)
	}
	return groups
}

// FormatValueGroups renders groups as "'A' in [S1, S2] vs '<empty>' in [S3]".
func FormatValueGroups(groups []ValueGroup) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		v := "'<empty>'"
		if g.Value != "" {
			v = "'" + g.Value + "'"
		}
		parts = append(parts, fmt.Sprintf("%s in [%s]", v, strings.Join(g.Sources, ", ")))
	}
	return strings.Join(parts, " vs ")
}
