// Package formula extracts subroutine references from event formula text.
//
// The scanner recognizes exactly four call shapes and nothing else of the
// formula grammar:
//
//	GOSUB NAME
//	Subroutine("name"
//	BackgroundSubroutine("name"
//	PostSubroutine("name"
//
// Keywords match case-insensitively. A match whose first character directly
// follows an apostrophe (the formula comment marker) is skipped. Only that one
// preceding character is inspected: a call later on a line that starts with a
// comment is still reported, and an apostrophe used for any other purpose
// directly before a call hides it.
//
// Every keyword must also start at a word boundary, so a keyword embedded in
// a longer identifier is not a call: "XGOSUB FOO" and CallSubroutine("X")
// yield nothing. Plain substring matching would report FOO and X for them.
package formula

import (
	"sort"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"schemasync/internal/domain"
)

// Form identifies which call shape produced a reference.
type Form string

// Recognized call forms.
const (
	FormGosub                Form = "GOSUB"
	FormSubroutine           Form = "Subroutine"
	FormBackgroundSubroutine Form = "BackgroundSubroutine"
	FormPostSubroutine       Form = "PostSubroutine"
)

// CallSeparator joins reference names into the CALLS_LIST comparison value.
const CallSeparator = ", "

// matchTimeout bounds a single scan over very large CLOB values.
const matchTimeout = 5 * time.Second

type pattern struct {
	form Form
	re   *regexp2.Regexp
}

// quoted is the shared tail of the three function-call forms.
const quoted = `\s*\(\s*["']([^"']+)["']`

// patterns is evaluated in order; the comment look-behind is part of every
// expression so exclusion happens before a match is accepted.
var patterns = []pattern{
	{FormGosub, compile(`(?<!')\bGOSUB\s+([A-Z_][A-Z0-9_]*)`)},
	{FormSubroutine, compile(`(?<!')\bSubroutine` + quoted)},
	{FormBackgroundSubroutine, compile(`(?<!')\bBackgroundSubroutine` + quoted)},
	{FormPostSubroutine, compile(`(?<!')\bPostSubroutine` + quoted)},
}

func compile(expr string) *regexp2.Regexp {
	re := regexp2.MustCompile(expr, regexp2.IgnoreCase|regexp2.Multiline)
	re.MatchTimeout = matchTimeout
	return re
}

// Reference is one accepted call site.
type Reference struct {
	Form   Form   `json:"form"`
	Name   string `json:"name"`
	Offset int    `json:"offset"` // rune offset of the call keyword
	Line   int    `json:"line"`   // 1-based
}

// Scan returns every accepted call site in text, ordered by offset. Duplicate
// names are kept.
func Scan(text string) []Reference {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)

	var refs []Reference
	for _, p := range patterns {
		m, err := p.re.FindStringMatch(text)
		for err == nil && m != nil {
			g := m.GroupByNumber(1)
			if name := strings.TrimSpace(g.String()); name != "" {
				refs = append(refs, Reference{
					Form:   p.form,
					Name:   name,
					Offset: m.Index,
					Line:   lineOf(runes, m.Index),
				})
			}
			m, err = p.re.FindNextMatch(m)
		}
	}

	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Offset < refs[j].Offset })
	return refs
}

// Extract returns the distinct referenced names in text, sorted. Text without
// any recognized call yields an empty, non-nil slice.
func Extract(text string) []string {
	seen := make(map[string]bool)
	names := []string{}
	for _, r := range Scan(text) {
		if seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

// ExtractValue is Extract over a driver value; null and non-text values
// yield an empty slice.
func ExtractValue(v any) []string {
	val := domain.ValueOf(v)
	if !val.Valid {
		return []string{}
	}
	return Extract(val.Text)
}

// Join renders names as the canonical CALLS_LIST value.
func Join(names []string) string {
	return strings.Join(names, CallSeparator)
}

func lineOf(runes []rune, offset int) int {
	line := 1
	for i := 0; i < offset && i < len(runes); i++ {
		if runes[i] == '\n' {
			line++
		}
	}
	return line
}
