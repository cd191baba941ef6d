package compare

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// TableFilter restricts schema comparison to a subset of tables. Include and
// Exclude hold shell glob patterns matched case-insensitively; Regex, when
// set, must also match. An empty filter keeps every table.
type TableFilter struct {
	Include []string
	Exclude []string
	Regex   *regexp.Regexp
}

// NewTableFilter validates the patterns and compiles the regex.
func NewTableFilter(include, exclude []string, expr string) (TableFilter, error) {
	f := TableFilter{}
	for _, p := range include {
		if _, err := path.Match(strings.ToUpper(p), ""); err != nil {
			return TableFilter{}, fmt.Errorf("include pattern %q: %w", p, err)
		}
		f.Include = append(f.Include, strings.ToUpper(p))
	}
	for _, p := range exclude {
		if _, err := path.Match(strings.ToUpper(p), ""); err != nil {
			return TableFilter{}, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		f.Exclude = append(f.Exclude, strings.ToUpper(p))
	}
	if expr != "" {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return TableFilter{}, fmt.Errorf("table regex %q: %w", expr, err)
		}
		f.Regex = re
	}
	return f, nil
}

// Keep reports whether the normalized table name passes the filter.
func (f TableFilter) Keep(table string) bool {
	if len(f.Include) > 0 && !matchAny(f.Include, table) {
		return false
	}
	if matchAny(f.Exclude, table) {
		return false
	}
	if f.Regex != nil && !f.Regex.MatchString(table) {
		return false
	}
	return true
}

// IsZero reports whether the filter keeps everything.
func (f TableFilter) IsZero() bool {
	return len(f.Include) == 0 && len(f.Exclude) == 0 && f.Regex == nil
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}
