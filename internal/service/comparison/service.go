// Package comparison runs schema and event comparisons end to end: collect,
// compare, write reports, publish, and archive.
package comparison

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"schemasync/internal/compare"
	"schemasync/internal/domain"
	"schemasync/internal/report"
)

// ReportPublisher uploads written report files. Implemented by
// report.Publisher.
type ReportPublisher interface {
	Publish(ctx context.Context, runID string, files []string) ([]string, error)
}

// Request describes one comparison run.
type Request struct {
	Kind    report.Kind
	Sources []domain.SourceConfig
	Filter  compare.TableFilter

	// Formats lists report file formats to write into OutputDir. Empty
	// writes nothing.
	Formats   []string
	OutputDir string
	BaseName  string
	Separator rune
}

// Outcome is the result of a run.
type Outcome struct {
	Run    *domain.Run
	Report *report.Report
}

// Service orchestrates comparison runs.
type Service struct {
	collector domain.SourceCollector
	runs      domain.RunRepository
	publisher ReportPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a Service. runs may be nil to disable archiving.
func NewService(collector domain.SourceCollector, runs domain.RunRepository, logger *slog.Logger) *Service {
	return &Service{
		collector: collector,
		runs:      runs,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetPublisher enables uploading written report files.
func (s *Service) SetPublisher(p ReportPublisher) {
	s.publisher = p
}

// Run collects from every source in req, compares, and writes the requested
// reports. The returned Outcome is non-nil even on error so callers can show
// diagnostics; its Report has a nil Table when the comparison did not run.
func (s *Service) Run(ctx context.Context, req Request) (*Outcome, error) {
	run := &domain.Run{
		ID:        domain.NewID(),
		Kind:      string(req.Kind),
		StartedAt: s.now(),
	}
	for _, src := range req.Sources {
		run.Sources = append(run.Sources, src.Name)
	}
	logger := s.logger.With("run_id", run.ID, "kind", run.Kind)
	logger.Info("comparison started", "sources", run.Sources)

	r, err := s.compare(ctx, req)
	r.RunID = run.ID
	r.Diagnostics.Log(ctx, logger)

	if err == nil && len(req.Formats) > 0 {
		run.Reports, err = s.export(ctx, run.ID, r, req)
	}

	run.FinishedAt = s.now()
	run.Status = domain.StatusFor(r.Table, err)
	run.Differences = r.Table.Len()
	if err != nil {
		run.Error = err.Error()
		logger.Error("comparison failed", "error", err)
	} else {
		logger.Info("comparison finished",
			"differences", r.Table.Len(),
			"duration", run.FinishedAt.Sub(run.StartedAt),
		)
	}

	if s.runs != nil {
		if saveErr := s.runs.Save(ctx, run, r.Table); saveErr != nil {
			logger.Warn("archive run failed", "error", saveErr)
		}
	}
	return &Outcome{Run: run, Report: r}, err
}

func (s *Service) compare(ctx context.Context, req Request) (*report.Report, error) {
	switch req.Kind {
	case report.KindSchema:
		frames, diags := s.collector.CollectSchemas(ctx, req.Sources)
		res, err := compare.CompareSchemas(frames, compare.SchemaOptions{Filter: req.Filter})
		res.Diagnostics = append(diags, res.Diagnostics...)
		return report.NewSchemaReport(res), err
	case report.KindEvents:
		frames, diags := s.collector.CollectEvents(ctx, req.Sources)
		res, err := compare.CompareEvents(frames)
		res.Diagnostics = append(diags, res.Diagnostics...)
		return report.NewEventsReport(res), err
	default:
		return &report.Report{Kind: req.Kind, GeneratedAt: s.now()}, domain.ErrValidation("unknown comparison kind %q", req.Kind)
	}
}

func (s *Service) export(ctx context.Context, runID string, r *report.Report, req Request) ([]string, error) {
	paths, err := report.WriteFiles(req.OutputDir, req.BaseName, r, req.Formats, req.Separator)
	if err != nil {
		return paths, fmt.Errorf("write reports: %w", err)
	}
	s.logger.Info("reports written", "run_id", runID, "files", paths)
	if s.publisher == nil {
		return paths, nil
	}

	uris, err := s.publisher.Publish(ctx, runID, paths)
	if err != nil {
		return paths, fmt.Errorf("publish reports: %w", err)
	}
	return append(paths, uris...), nil
}

// History returns archived runs, most recent first.
func (s *Service) History(ctx context.Context, kind string, limit int) ([]domain.Run, error) {
	if s.runs == nil {
		return nil, domain.ErrValidation("run archive is not enabled")
	}
	return s.runs.List(ctx, kind, limit)
}

// Lookup returns one archived run and its difference table.
func (s *Service) Lookup(ctx context.Context, id string) (*domain.Run, *report.Report, error) {
	if s.runs == nil {
		return nil, nil, domain.ErrValidation("run archive is not enabled")
	}
	run, table, err := s.runs.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return run, &report.Report{
		Kind:        report.Kind(run.Kind),
		RunID:       run.ID,
		GeneratedAt: run.FinishedAt,
		Table:       table,
	}, nil
}
