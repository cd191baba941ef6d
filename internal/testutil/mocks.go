// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase.
package testutil

import (
	"context"

	"schemasync/internal/domain"
)

// === Source Collector Mock ===

// MockCollector implements domain.SourceCollector for testing.
type MockCollector struct {
	CollectSchemasFn func(ctx context.Context, sources []domain.SourceConfig) (map[string]*domain.Frame, domain.Diagnostics)
	CollectEventsFn  func(ctx context.Context, sources []domain.SourceConfig) (map[string]domain.EventFrames, domain.Diagnostics)
}

// CollectSchemas implements the interface method for testing.
func (m *MockCollector) CollectSchemas(ctx context.Context, sources []domain.SourceConfig) (map[string]*domain.Frame, domain.Diagnostics) {
	if m.CollectSchemasFn != nil {
		return m.CollectSchemasFn(ctx, sources)
	}
	panic("unexpected call to MockCollector.CollectSchemas")
}

// CollectEvents implements the interface method for testing.
func (m *MockCollector) CollectEvents(ctx context.Context, sources []domain.SourceConfig) (map[string]domain.EventFrames, domain.Diagnostics) {
	if m.CollectEventsFn != nil {
		return m.CollectEventsFn(ctx, sources)
	}
	panic("unexpected call to MockCollector.CollectEvents")
}

// === Run Repository Mock ===

// MockRunRepo implements domain.RunRepository for testing. Saved runs are
// collected for assertions.
type MockRunRepo struct {
	SaveFn func(ctx context.Context, run *domain.Run, table *domain.DifferenceTable) error
	ListFn func(ctx context.Context, kind string, limit int) ([]domain.Run, error)
	GetFn  func(ctx context.Context, id string) (*domain.Run, *domain.DifferenceTable, error)
	Saved  []*domain.Run
}

// Save implements the interface method for testing.
func (m *MockRunRepo) Save(ctx context.Context, run *domain.Run, table *domain.DifferenceTable) error {
	if m.SaveFn != nil {
		if err := m.SaveFn(ctx, run, table); err != nil {
			return err
		}
	}
	m.Saved = append(m.Saved, run)
	return nil
}

// List implements the interface method for testing.
func (m *MockRunRepo) List(ctx context.Context, kind string, limit int) ([]domain.Run, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, kind, limit)
	}
	panic("unexpected call to MockRunRepo.List")
}

// Get implements the interface method for testing.
func (m *MockRunRepo) Get(ctx context.Context, id string) (*domain.Run, *domain.DifferenceTable, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	panic("unexpected call to MockRunRepo.Get")
}

// LastRun returns the last saved run, or nil if none.
func (m *MockRunRepo) LastRun() *domain.Run {
	if len(m.Saved) == 0 {
		return nil
	}
	return m.Saved[len(m.Saved)-1]
}

// === Report Publisher Mock ===

// MockPublisher records published files.
type MockPublisher struct {
	PublishFn func(ctx context.Context, runID string, files []string) ([]string, error)
	Files     []string
}

// Publish records files and returns fake object URIs unless PublishFn is set.
func (m *MockPublisher) Publish(ctx context.Context, runID string, files []string) ([]string, error) {
	m.Files = append(m.Files, files...)
	if m.PublishFn != nil {
		return m.PublishFn(ctx, runID, files)
	}
	uris := make([]string, len(files))
	for i := range files {
		uris[i] = "s3://test/" + runID
	}
	return uris, nil
}
