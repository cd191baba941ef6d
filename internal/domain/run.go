package domain

import (
	"context"
	"time"
)

// RunStatus is the outcome of an archived comparison run.
type RunStatus string

// Run statuses.
const (
	RunStatusClean       RunStatus = "clean"
	RunStatusDifferences RunStatus = "differences"
	RunStatusFailed      RunStatus = "failed"
)

// Run is one archived comparison.
type Run struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Status      RunStatus `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Sources     []string  `json:"sources"`
	Differences int       `json:"differences"`
	Error       string    `json:"error,omitempty"`
	Reports     []string  `json:"reports,omitempty"`
}

// StatusFor derives the run status from a comparison outcome.
func StatusFor(table *DifferenceTable, err error) RunStatus {
	switch {
	case err != nil:
		return RunStatusFailed
	case table.HasDifferences():
		return RunStatusDifferences
	default:
		return RunStatusClean
	}
}

// RunRepository persists comparison runs and their difference tables.
type RunRepository interface {
	Save(ctx context.Context, run *Run, table *DifferenceTable) error
	List(ctx context.Context, kind string, limit int) ([]Run, error)
	Get(ctx context.Context, id string) (*Run, *DifferenceTable, error)
}
