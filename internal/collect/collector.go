package collect

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"schemasync/internal/domain"
)

// Collector reads frames from many sources concurrently. A failing source
// never fails the whole collection; it is reported as a diagnostic.
type Collector struct {
	timeout     time.Duration
	parallelism int
	logger      *slog.Logger
	open        func(driverName, dsn string) (*sql.DB, error)
}

// New creates a Collector. timeout bounds the work for a single source and
// parallelism bounds how many sources are read at once.
func New(timeout time.Duration, parallelism int, logger *slog.Logger) *Collector {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Collector{
		timeout:     timeout,
		parallelism: parallelism,
		logger:      logger,
		open:        sql.Open,
	}
}

// CollectSchemas reads the schema frame of every source. Sources that cannot
// be read are omitted from the result and reported as diagnostics.
func (c *Collector) CollectSchemas(ctx context.Context, sources []domain.SourceConfig) (map[string]*domain.Frame, domain.Diagnostics) {
	var (
		mu     sync.Mutex
		frames = make(map[string]*domain.Frame, len(sources))
		diags  domain.Diagnostics
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i := range sources {
		src := sources[i]
		g.Go(func() error {
			start := time.Now()
			var frame *domain.Frame
			err := c.withSource(gctx, src, func(ctx context.Context, d Dialect, db *sql.DB) error {
				q, args, err := d.SchemaQuery(src)
				if err != nil {
					return err
				}
				frame, err = query(ctx, db, q, args)
				return err
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Warn("schema collection failed", "source", src.Name, "error", err)
				diags.AddErr(domain.SeverityError, src.Name, domain.ErrSourceUnavailable(src.Name, "%v", err))
				return nil // don't fail all sources
			}
			c.logger.Info("schema collected", "source", src.Name, "rows", frame.Len(), "duration", time.Since(start))
			frames[src.Name] = frame
			return nil
		})
	}
	_ = g.Wait()

	return frames, diags
}

// CollectEvents reads the three event record sets of every source. A source
// that cannot be reached is omitted; a single record set that fails is kept
// as a nil frame so the comparison marks it not applicable.
func (c *Collector) CollectEvents(ctx context.Context, sources []domain.SourceConfig) (map[string]domain.EventFrames, domain.Diagnostics) {
	var (
		mu     sync.Mutex
		result = make(map[string]domain.EventFrames, len(sources))
		diags  domain.Diagnostics
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i := range sources {
		src := sources[i]
		g.Go(func() error {
			frames := make(domain.EventFrames, len(domain.EventSpecs))
			var local domain.Diagnostics

			err := c.withSource(gctx, src, func(ctx context.Context, d Dialect, db *sql.DB) error {
				for _, spec := range domain.EventSpecs {
					f, err := eventFrame(ctx, d, db, src, spec.RecordSet)
					if err != nil {
						c.logger.Warn("event query failed", "source", src.Name, "record_set", spec.RecordSet, "error", err)
						local = append(local, domain.Diagnostic{
							Severity: domain.SeverityWarning,
							Source:   src.Name,
							Object:   spec.RecordSet,
							Message:  err.Error(),
							Err:      err,
						})
						frames[spec.RecordSet] = nil
						continue
					}
					frames[spec.RecordSet] = f
				}
				return nil
			})

			mu.Lock()
			defer mu.Unlock()
			diags = append(diags, local...)
			if err != nil {
				c.logger.Warn("event collection failed", "source", src.Name, "error", err)
				diags.AddErr(domain.SeverityError, src.Name, domain.ErrSourceUnavailable(src.Name, "%v", err))
				return nil // don't fail all sources
			}
			result[src.Name] = frames
			return nil
		})
	}
	_ = g.Wait()

	return result, diags
}

// Ping opens the source and verifies it answers.
func (c *Collector) Ping(ctx context.Context, src domain.SourceConfig) error {
	return c.withSource(ctx, src, func(context.Context, Dialect, *sql.DB) error { return nil })
}

// withSource opens src, bounds the work by the per-source timeout, and
// always closes the pool.
func (c *Collector) withSource(ctx context.Context, src domain.SourceConfig, fn func(context.Context, Dialect, *sql.DB) error) error {
	d, err := DialectFor(src.Driver)
	if err != nil {
		return err
	}
	dsn, err := d.DSN(src)
	if err != nil {
		return err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	db, err := c.open(d.DriverName(), dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", src.Driver, err)
	}
	defer db.Close() //nolint:errcheck
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect %s: %w", src.Driver, err)
	}
	return fn(ctx, d, db)
}

func eventFrame(ctx context.Context, d Dialect, db *sql.DB, src domain.SourceConfig, recordSet string) (*domain.Frame, error) {
	q, args, err := d.EventQuery(src, recordSet)
	if err != nil {
		return nil, err
	}
	return query(ctx, db, q, args)
}

func query(ctx context.Context, db *sql.DB, q string, args []any) (*domain.Frame, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck
	return ScanFrame(rows)
}
