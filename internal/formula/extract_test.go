package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_CommentedCallExcluded(t *testing.T) {
	got := Extract("GOSUB FOO\n'GOSUB BAR\nSubroutine(\"BAZ\")")
	assert.Equal(t, []string{"BAZ", "FOO"}, got)
}

func TestExtract_AllForms(t *testing.T) {
	text := `
IF X THEN GOSUB CALC_TOTAL
Subroutine("Notify")
BackgroundSubroutine( 'RECALC' )
PostSubroutine("Audit_Log")
`
	got := Extract(text)
	assert.Equal(t, []string{"Audit_Log", "CALC_TOTAL", "Notify", "RECALC"}, got)
}

func TestExtract_CaseInsensitiveKeywords(t *testing.T) {
	got := Extract(`gosub lower_name
subroutine("A")
BACKGROUNDSUBROUTINE("B")
postSubroutine("C")`)
	assert.Equal(t, []string{"A", "B", "C", "lower_name"}, got)
}

func TestExtract_Deduplicates(t *testing.T) {
	got := Extract("GOSUB FOO\nGOSUB FOO\nSubroutine(\"FOO\")")
	assert.Equal(t, []string{"FOO"}, got)
}

func TestExtract_EmptyInputs(t *testing.T) {
	for _, in := range []string{"", "   ", "X = 1 + 2", "GOSUB", "Subroutine(NAME)"} {
		got := Extract(in)
		require.NotNil(t, got, "input %q", in)
		assert.Empty(t, got, "input %q", in)
	}
}

func TestExtract_CommentedFunctionForms(t *testing.T) {
	got := Extract(`'Subroutine("A")
'BackgroundSubroutine("B")
'PostSubroutine("C")
PostSubroutine("D")`)
	assert.Equal(t, []string{"D"}, got)
}

func TestExtract_OnlyPrecedingCharacterIsInspected(t *testing.T) {
	// The apostrophe starts a comment, but the call is not directly after it.
	got := Extract("' GOSUB HIDDEN_BY_SPACE")
	assert.Equal(t, []string{"HIDDEN_BY_SPACE"}, got)

	// A live call after a comment marker elsewhere on the line is kept.
	got = Extract(`X = 'a' : GOSUB LIVE`)
	assert.Equal(t, []string{"LIVE"}, got)
}

func TestExtract_GosubNeedsWordBoundary(t *testing.T) {
	assert.Empty(t, Extract("XGOSUB FOO"))
	assert.Empty(t, Extract("XGOSUB FOO\nCallSubroutine(\"X\")"))
	assert.Empty(t, Extract(`PrePostSubroutine("Y")`))
	assert.Equal(t, []string{"FOO"}, Extract("(GOSUB FOO)"))
}

func TestScan_ReportsFormAndLine(t *testing.T) {
	refs := Scan("A = 1\nGOSUB FIRST\nPostSubroutine(\"SECOND\")")
	require.Len(t, refs, 2)
	assert.Equal(t, FormGosub, refs[0].Form)
	assert.Equal(t, "FIRST", refs[0].Name)
	assert.Equal(t, 2, refs[0].Line)
	assert.Equal(t, FormPostSubroutine, refs[1].Form)
	assert.Equal(t, 3, refs[1].Line)
}

func TestExtractValue(t *testing.T) {
	assert.Empty(t, ExtractValue(nil))
	assert.Equal(t, []string{"X"}, ExtractValue([]byte("GOSUB X")))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "", Join(nil))
	assert.Equal(t, "BAR, FOO", Join([]string{"BAR", "FOO"}))
}
