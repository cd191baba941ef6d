package compare

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemasync/internal/domain"
)

func eventInputs(events map[string]*domain.Frame) map[string]domain.EventFrames {
	out := make(map[string]domain.EventFrames, len(events))
	for name, f := range events {
		out[name] = domain.EventFrames{
			domain.RecordEvents:         f,
			domain.RecordTestEvents:     eventFrame(),
			domain.RecordDatabaseEvents: dbEventFrame(),
		}
	}
	return out
}

func TestProcessFormulas(t *testing.T) {
	f := upperColumns(eventFrame(
		[3]any{"TPL", "E1", `GOSUB BAR : Subroutine("Foo")`},
		[3]any{"TPL", "E2", nil},
	))
	out := ProcessFormulas(f)

	assert.Equal(t, []string{"TEMPLATE", "EVENT", "CALLS_LIST", "CALLS_COUNT"}, out.Columns)
	assert.Equal(t, "BAR, Foo", out.Value(0, "CALLS_LIST"))
	assert.Equal(t, 2, out.Value(0, "CALLS_COUNT"))
	assert.Equal(t, "", out.Value(1, "CALLS_LIST"))
	assert.Equal(t, 0, out.Value(1, "CALLS_COUNT"))

	// input untouched
	assert.Equal(t, []string{"TEMPLATE", "EVENT", "FORMULA"}, f.Columns)
}

func TestProcessFormulas_NoFormulaColumn(t *testing.T) {
	f := upperColumns(dbEventFrame([3]any{"T", "E", "S"}))
	assert.Same(t, f, ProcessFormulas(f))
}

func TestNormalizeEventFrame_MissingKeys(t *testing.T) {
	f := domain.NewFrame("template", "formula")
	f.Append("TPL", "GOSUB X")

	_, err := NormalizeEventFrame("A", f, domain.EventSpecs[0])
	var invalid *domain.ValidationError
	require.True(t, errors.As(err, &invalid))
	assert.Contains(t, err.Error(), "EVENT")

	_, err = NormalizeEventFrame("A", nil, domain.EventSpecs[0])
	var unavailable *domain.SourceUnavailableError
	assert.True(t, errors.As(err, &unavailable))
}

func TestCompareEvents_CallsListMismatch(t *testing.T) {
	res, err := CompareEvents(eventInputs(map[string]*domain.Frame{
		"A": eventFrame([3]any{"TPL", "EVT", `GOSUB FOO`}),
		"B": eventFrame([3]any{"TPL", "EVT", `GOSUB FOO : Subroutine("BAR")`}),
	}))
	require.NoError(t, err)

	table := res.Table
	require.Len(t, table.Records, 1)
	r := table.Records[0]
	assert.Equal(t, "events", r.ObjectID)
	assert.Equal(t, "TPL.EVT", r.SubObjectID)
	assert.Equal(t, "Calls_List Mismatch", r.Type)
	assert.Equal(t, map[string]string{"A": "FOO", "B": "BAR, FOO"}, r.Values)
	assert.Nil(t, findRecord(table, "events", "TPL.EVT", domain.DiffEntryMissing))
	assert.Equal(t, []string{"table_type", "identifier", "difference_type", "A", "B"}, table.Header())
}

func TestCompareEvents_MissingAndMismatchTogether(t *testing.T) {
	res, err := CompareEvents(eventInputs(map[string]*domain.Frame{
		"A": eventFrame([3]any{"TPL", "EVT", `GOSUB FOO`}),
		"B": eventFrame([3]any{"TPL", "EVT", `GOSUB BAR`}),
		"C": eventFrame(),
	}))
	require.NoError(t, err)

	missing := findRecord(res.Table, "events", "TPL.EVT", domain.DiffEntryMissing)
	require.NotNil(t, missing)
	assert.Equal(t, map[string]string{"A": "EXISTS", "B": "EXISTS", "C": "MISSING"}, missing.Values)

	mismatch := findRecord(res.Table, "events", "TPL.EVT", "Calls_List Mismatch")
	require.NotNil(t, mismatch)
	assert.Equal(t, map[string]string{"A": "FOO", "B": "BAR", "C": "MISSING"}, mismatch.Values)
}

func TestCompareEvents_EmptyAndNullFieldsAreEqual(t *testing.T) {
	res, err := CompareEvents(eventInputs(map[string]*domain.Frame{
		"A": eventFrame([3]any{"TPL", "EVT", nil}),
		"B": eventFrame([3]any{"TPL", "EVT", "x = 1"}),
	}))
	require.NoError(t, err)
	assert.False(t, res.Table.HasDifferences())
}

func TestCompareEvents_DatabaseEvents(t *testing.T) {
	inputs := map[string]domain.EventFrames{
		"A": {
			domain.RecordEvents:         eventFrame(),
			domain.RecordTestEvents:     eventFrame(),
			domain.RecordDatabaseEvents: dbEventFrame([3]any{"orders", "on_insert", "SUB_A"}),
		},
		"B": {
			domain.RecordEvents:         eventFrame(),
			domain.RecordTestEvents:     eventFrame(),
			domain.RecordDatabaseEvents: dbEventFrame([3]any{"ORDERS", "ON_INSERT", "SUB_B"}),
		},
	}
	res, err := CompareEvents(inputs)
	require.NoError(t, err)
	require.Len(t, res.Table.Records, 1)
	r := res.Table.Records[0]
	assert.Equal(t, "database_events", r.ObjectID)
	assert.Equal(t, "ORDERS.ON_INSERT", r.SubObjectID)
	assert.Equal(t, "Sub_Name Mismatch", r.Type)
	assert.Equal(t, map[string]string{"A": "SUB_A", "B": "SUB_B"}, r.Values)
}

func TestCompareEvents_DatabaseEventsKeepTriggerColumns(t *testing.T) {
	inputs := map[string]domain.EventFrames{
		"A": {domain.RecordDatabaseEvents: dbEventFrame([3]any{"ORDERS", "ON_INSERT", "SUB_A"})},
		"B": {domain.RecordDatabaseEvents: dbEventFrame([3]any{"ORDERS", "ON_INSERT", "SUB_A"})},
	}
	inputs["B"][domain.RecordDatabaseEvents].Rows[0][4] = "PRIORITY"

	res, err := CompareEvents(inputs)
	require.NoError(t, err)
	assert.False(t, res.Table.HasDifferences(), "only SUB_NAME is compared")

	f := res.Sources["B"][domain.RecordDatabaseEvents]
	require.NotNil(t, f)
	assert.Len(t, f.Columns, len(domain.DatabaseEventColumns))
	assert.Equal(t, "PRIORITY", f.Value(0, "FIELD_NAME_1"))
	assert.Equal(t, "OPEN", f.Value(0, "CHANGED_FROM_1"))
}

func TestCompareEvents_FailedRecordSetIsNotApplicable(t *testing.T) {
	inputs := eventInputs(map[string]*domain.Frame{
		"A": eventFrame([3]any{"TPL", "E1", ""}),
		"B": eventFrame([3]any{"TPL", "E1", ""}),
		"C": eventFrame(),
	})
	inputs["C"][domain.RecordEvents] = nil
	inputs["A"][domain.RecordTestEvents] = eventFrame([3]any{"TPL", "T1", ""})

	res, err := CompareEvents(inputs)
	require.NoError(t, err)

	assert.Empty(t, findEventRecords(res.Table, "events"), "C is absent from events, A and B agree")
	missing := findRecord(res.Table, "test_events", "TPL.T1", domain.DiffEntryMissing)
	require.NotNil(t, missing)
	assert.Equal(t, map[string]string{"A": "EXISTS", "B": "MISSING", "C": "MISSING"}, missing.Values)

	var warned bool
	for _, d := range res.Diagnostics {
		if d.Source == "C" && d.Object == "events" && d.Severity == domain.SeverityWarning {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestCompareEvents_FailedRecordSetRendersNotApplicable(t *testing.T) {
	inputs := eventInputs(map[string]*domain.Frame{
		"A": eventFrame([3]any{"TPL", "E1", ""}),
		"B": eventFrame([3]any{"TPL", "E2", ""}),
		"C": eventFrame(),
	})
	inputs["C"][domain.RecordEvents] = nil

	res, err := CompareEvents(inputs)
	require.NoError(t, err)

	rec := findRecord(res.Table, "events", "TPL.E1", domain.DiffEntryMissing)
	require.NotNil(t, rec)
	assert.Equal(t, map[string]string{"A": "EXISTS", "B": "MISSING", "C": domain.StatusNotApplicable}, rec.Values)

	header := res.Table.Header()
	require.Equal(t, "C", header[len(header)-1])
	for _, row := range res.Table.Rows() {
		assert.Equal(t, domain.StatusNotApplicable, row[len(row)-1], row)
	}
}

func TestCompareEvents_AbsentSourceRendersNotApplicable(t *testing.T) {
	inputs := eventInputs(map[string]*domain.Frame{
		"A": eventFrame([3]any{"TPL", "E1", "GOSUB X"}),
		"B": eventFrame([3]any{"TPL", "E1", "GOSUB Y"}),
		"C": eventFrame(),
	})
	inputs["C"][domain.RecordEvents] = nil

	res, err := CompareEvents(inputs)
	require.NoError(t, err)
	r := findRecord(res.Table, "events", "TPL.E1", "Calls_List Mismatch")
	require.NotNil(t, r)
	assert.Equal(t, domain.StatusNotApplicable, r.Values["C"])
}

func TestCompareEvents_InsufficientSources(t *testing.T) {
	inputs := eventInputs(map[string]*domain.Frame{"A": eventFrame()})
	inputs["B"] = domain.EventFrames{
		domain.RecordEvents:         nil,
		domain.RecordTestEvents:     nil,
		domain.RecordDatabaseEvents: nil,
	}
	res, err := CompareEvents(inputs)

	var insufficient *domain.InsufficientSourcesError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 1, insufficient.Usable)
	assert.Equal(t, []string{"B"}, insufficient.Excluded)
	assert.Nil(t, res.Table)
}

func TestCompareKeyed_DuplicateKeyFirstWins(t *testing.T) {
	spec := domain.EventSpecs[0]
	a, diags := BuildKeyedSet("A", ProcessFormulas(upperColumns(eventFrame(
		[3]any{"TPL", "E", "GOSUB ONE"},
		[3]any{"tpl", "e", "GOSUB TWO"},
	))), spec)
	require.Len(t, diags, 1)
	assert.Equal(t, domain.SeverityDebug, diags[0].Severity)

	b, _ := BuildKeyedSet("B", ProcessFormulas(upperColumns(eventFrame(
		[3]any{"TPL", "E", "GOSUB ONE"},
	))), spec)

	records, _ := CompareKeyed(spec, []*domain.KeyedSet{b, a})
	assert.Empty(t, records)
}

func TestCompareKeyed_BlankKeySkipped(t *testing.T) {
	set, diags := BuildKeyedSet("A", ProcessFormulas(upperColumns(eventFrame(
		[3]any{"TPL", nil, "GOSUB ONE"},
		[3]any{"TPL", "E", "GOSUB ONE"},
	))), domain.EventSpecs[0])
	assert.Len(t, set.Entries, 1)
	require.Len(t, diags, 1)
	assert.Equal(t, domain.SeverityWarning, diags[0].Severity)
}

func TestFormatValueGroups(t *testing.T) {
	groups := groupValues([]string{"A", "B", "C"}, func(s string) string {
		if s == "C" {
			return ""
		}
		return "X"
	})
	assert.Equal(t, "'X' in [A, B] vs '<empty>' in [C]", FormatValueGroups(groups))
}

func findEventRecords(t *domain.DifferenceTable, recordSet string) []domain.DifferenceRecord {
	var out []domain.DifferenceRecord
	for _, r := range t.Records {
		if r.ObjectID == recordSet {
			out = append(out, r)
		}
	}
	return out
}
