package domain

import "context"

// SourceCollector reads comparison inputs from configured sources. A source
// that cannot be read is left out of the result and reported as a
// diagnostic. Implemented by collect.Collector.
type SourceCollector interface {
	CollectSchemas(ctx context.Context, sources []SourceConfig) (map[string]*Frame, Diagnostics)
	CollectEvents(ctx context.Context, sources []SourceConfig) (map[string]EventFrames, Diagnostics)
}
