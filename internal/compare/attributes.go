package compare

import "schemasync/internal/domain"

// FindAttributeDifferences compares the fixed attribute set of every column
// held by at least two sources. An attribute is compared only when at least
// one source's frame carried it; a source lacking the attribute column
// contributes NULL. Values are compared exactly after canonicalization.
func FindAttributeDifferences(u *Universe, sources []*domain.SchemaSource) []domain.DifferenceRecord {
	attrs := presentAttributes(sources)

	var out []domain.DifferenceRecord
	for _, obj := range u.Objects {
		for _, col := range u.SubObjects[obj] {
			type holder struct {
				name   string
				column *domain.Column
			}
			var hs []holder
			for _, s := range sources {
				if c := s.Column(obj, col); c != nil {
					hs = append(hs, holder{s.Name, c})
				}
			}
			if len(hs) < 2 {
				continue
			}

			for _, attr := range attrs {
				distinct := make(map[domain.Value]bool, 2)
				values := make(map[string]string, len(u.Sources))
				for _, h := range hs {
					v := h.column.Values[attr] // zero Value is the NULL sentinel
					distinct[v] = true
					values[h.name] = v.String()
				}
				if len(distinct) < 2 {
					continue
				}
				fillNotApplicable(values, u.Sources)
				out = append(out, domain.DifferenceRecord{
					ObjectID:    obj,
					SubObjectID: col,
					Type:        domain.AttributeDifference(attr),
					Values:      values,
				})
			}
		}
	}
	return out
}

// presentAttributes returns the attributes carried by at least one source,
// in the fixed attribute order.
func presentAttributes(sources []*domain.SchemaSource) []string {
	var out []string
	for _, attr := range domain.SchemaAttributes {
		for _, s := range sources {
			if s.Attributes[attr] {
				out = append(out, attr)
				break
			}
		}
	}
	return out
}
