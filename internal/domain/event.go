package domain

import "strings"

// Event record set names.
const (
	RecordEvents         = "events"
	RecordTestEvents     = "test_events"
	RecordDatabaseEvents = "database_events"
)

// Event-shape column names, in canonical (upper) case.
const (
	ColTemplate   = "TEMPLATE"
	ColEvent      = "EVENT"
	ColFormula    = "FORMULA"
	ColCallsList  = "CALLS_LIST"
	ColCallsCount = "CALLS_COUNT"
	ColEventName  = "EVENT_NAME"
	ColSubName    = "SUB_NAME"
)

// DatabaseEventColumns is the full database_events row collected from each
// source. Only SUB_NAME is compared; the rest is carried into the reports.
var DatabaseEventColumns = []string{
	"table_name", "event_name", "sub_name", "or_fields",
	"field_name_1", "has_value_1", "changed_from_1", "changed_to_1",
	"field_name_2", "has_value_2", "changed_from_2", "changed_to_2",
}

// EventFrames holds one source's event record sets keyed by record set name.
// A nil frame marks a record set whose collection failed.
type EventFrames map[string]*Frame

// KeyedSpec describes how one record set is compared: the identity key
// columns and the designated comparison fields.
type KeyedSpec struct {
	RecordSet string
	Keys      []string
	Fields    []string
}

// EventSpecs lists the record sets compared for events, in report order.
var EventSpecs = []KeyedSpec{
	{RecordSet: RecordEvents, Keys: []string{ColTemplate, ColEvent}, Fields: []string{ColCallsList}},
	{RecordSet: RecordTestEvents, Keys: []string{ColTemplate, ColEvent}, Fields: []string{ColCallsList}},
	{RecordSet: RecordDatabaseEvents, Keys: []string{ColTableName, ColEventName}, Fields: []string{ColSubName}},
}

// keySep joins composite key parts internally; it cannot appear in identifiers.
const keySep = "\x1f"

// KeyedEntry is one keyed row: its display identifier and the raw string
// value of every comparison field.
type KeyedEntry struct {
	Identifier string
	Values     map[string]string
}

// KeyedSet is one source's entries for a record set, keyed by composite key.
type KeyedSet struct {
	Source  string
	Entries map[string]KeyedEntry
}

// CompositeKey joins key parts into an internal map key and a display
// identifier ("TPL.EVT").
func CompositeKey(parts []string) (key, identifier string) {
	return strings.Join(parts, keySep), strings.Join(parts, ".")
}
