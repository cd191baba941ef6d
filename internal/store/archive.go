package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"schemasync/internal/domain"
)

var _ domain.RunRepository = (*Archive)(nil)

// Archive implements domain.RunRepository on SQLite.
type Archive struct {
	db *sql.DB
}

// NewArchive wraps an open, migrated database.
func NewArchive(db *sql.DB) *Archive {
	return &Archive{db: db}
}

// OpenArchive opens the archive file at path and applies migrations. The
// caller closes the returned database.
func OpenArchive(path string) (*Archive, *sql.DB, error) {
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return NewArchive(db), db, nil
}

const timeLayout = time.RFC3339Nano

// Save stores a run and, when non-nil, its difference table in one
// transaction. A missing run ID is generated.
func (a *Archive) Save(ctx context.Context, run *domain.Run, table *domain.DifferenceTable) error {
	if run.ID == "" {
		run.ID = domain.NewID()
	}
	var (
		cols     domain.Columns
		compared []string
	)
	if table != nil {
		cols, compared = table.Columns, table.Sources
		run.Differences = table.Len()
		if len(run.Sources) == 0 {
			run.Sources = table.Sources
		}
	}

	sources, err := json.Marshal(nonNil(run.Sources))
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}
	reports, err := json.Marshal(nonNil(run.Reports))
	if err != nil {
		return fmt.Errorf("marshal reports: %w", err)
	}
	comparedJSON, err := json.Marshal(nonNil(compared))
	if err != nil {
		return fmt.Errorf("marshal compared sources: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, kind, status, started_at, finished_at, sources, object_column, sub_object_column,
		 type_column, difference_count, error, reports, compared_sources)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, string(run.Status),
		run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout),
		string(sources), cols.Object, cols.SubObject, cols.Type,
		run.Differences, run.Error, string(reports), string(comparedJSON))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if table != nil {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_differences
			(run_id, seq, object_id, sub_object_id, difference_type, source_values)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare differences: %w", err)
		}
		defer stmt.Close() //nolint:errcheck

		for i, r := range table.Records {
			values, err := json.Marshal(r.Values)
			if err != nil {
				return fmt.Errorf("marshal values: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, run.ID, i, r.ObjectID, r.SubObjectID, r.Type, string(values)); err != nil {
				return fmt.Errorf("insert difference %d: %w", i, err)
			}
		}
	}
	return tx.Commit()
}

// List returns the most recent runs first. kind filters by comparison kind
// when non-empty; limit <= 0 means 20.
func (a *Archive) List(ctx context.Context, kind string, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.db.QueryContext(ctx, `SELECT id, kind, status, started_at, finished_at, sources,
		difference_count, error, reports
		FROM runs
		WHERE (? = '' OR kind = ?)
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, kind, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Run
	for rows.Next() {
		run, _, err := scanRun(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

// Get returns a run and its archived difference table. The table header
// lists the sources that were actually compared, which can be fewer than the
// run's requested sources.
func (a *Archive) Get(ctx context.Context, id string) (*domain.Run, *domain.DifferenceTable, error) {
	row := a.db.QueryRowContext(ctx, `SELECT id, kind, status, started_at, finished_at, sources,
		difference_count, error, reports, object_column, sub_object_column, type_column,
		compared_sources
		FROM runs WHERE id = ?`, id)
	run, hdr, err := scanRun(row, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.ErrNotFound("run %q not found", id)
		}
		return nil, nil, err
	}

	table := domain.NewDifferenceTable(hdr.Columns, hdr.Sources)
	rows, err := a.db.QueryContext(ctx, `SELECT object_id, sub_object_id, difference_type, source_values
		FROM run_differences WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var (
			rec    domain.DifferenceRecord
			values string
		)
		if err := rows.Scan(&rec.ObjectID, &rec.SubObjectID, &rec.Type, &values); err != nil {
			return nil, nil, err
		}
		if err := json.Unmarshal([]byte(values), &rec.Values); err != nil {
			return nil, nil, fmt.Errorf("decode values: %w", err)
		}
		table.Add(rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return run, table, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// header is the archived difference table header.
type header struct {
	Columns domain.Columns
	Sources []string
}

// scanRun reads the common run columns. withHeader also reads the table
// header fields that only Get selects.
func scanRun(s scanner, withHeader bool) (*domain.Run, *header, error) {
	var (
		run                       domain.Run
		hdr                       header
		status, started, finished string
		sources, reports          string
		compared                  string
	)
	dest := []any{&run.ID, &run.Kind, &status, &started, &finished, &sources, &run.Differences, &run.Error, &reports}
	if withHeader {
		dest = append(dest, &hdr.Columns.Object, &hdr.Columns.SubObject, &hdr.Columns.Type, &compared)
	}
	if err := s.Scan(dest...); err != nil {
		return nil, nil, err
	}

	run.Status = domain.RunStatus(status)
	var err error
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, nil, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, nil, fmt.Errorf("parse finished_at: %w", err)
	}
	if err := json.Unmarshal([]byte(sources), &run.Sources); err != nil {
		return nil, nil, fmt.Errorf("decode sources: %w", err)
	}
	if err := json.Unmarshal([]byte(reports), &run.Reports); err != nil {
		return nil, nil, fmt.Errorf("decode reports: %w", err)
	}
	if withHeader {
		if err := json.Unmarshal([]byte(compared), &hdr.Sources); err != nil {
			return nil, nil, fmt.Errorf("decode compared sources: %w", err)
		}
	}
	return &run, &hdr, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
