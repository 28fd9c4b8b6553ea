// Package loader writes warehouse rows idempotently. Fact rows land in a
// per-invocation staging table and are merged into the destination on
// their natural key, so replaying a window never duplicates data.
package loader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/goforsam/toast-api/internal/etl/types"
	"github.com/goforsam/toast-api/pkg/config"
	pkgerrors "github.com/goforsam/toast-api/pkg/errors"
	"github.com/goforsam/toast-api/pkg/logger"
)

// Warehouse is the slice of the BigQuery client the loader needs.
type Warehouse interface {
	EnsureTable(ctx context.Context, table string, meta *bigquery.TableMetadata) error
	CreateTable(ctx context.Context, table string, meta *bigquery.TableMetadata) error
	DeleteTable(ctx context.Context, table string) error
	InsertRows(ctx context.Context, table string, rows []any) error
	Exec(ctx context.Context, sql string) (int64, error)
	QualifiedTable(table string) string
}

// LoadResult reports what one load actually changed.
type LoadResult struct {
	Inserted          int64
	DuplicatesSkipped int64
}

type Loader struct {
	wh   Warehouse
	cfg  config.BigQueryConfig
	logg *logger.Logger

	newID func() string
	now   func() time.Time
}

func New(wh Warehouse, cfg config.BigQueryConfig, logg *logger.Logger) *Loader {
	return &Loader{
		wh:   wh,
		cfg:  cfg,
		logg: logg,
		newID: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
		now: time.Now,
	}
}

// Load merges rows into the destination fact table, inserting only rows
// whose natural key is not already present. The staging table is dropped
// on every exit path.
func (l *Loader) Load(ctx context.Context, spec types.TableSpec, rows []any) (LoadResult, error) {
	if len(rows) == 0 {
		return LoadResult{}, nil
	}
	if len(spec.DedupKeys) == 0 {
		return LoadResult{}, pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("table %s has no dedup keys", spec.Name))
	}

	if err := l.wh.EnsureTable(ctx, spec.Name, spec.Metadata()); err != nil {
		return LoadResult{}, pkgerrors.Wrap(pkgerrors.CodeLoad, err,
			fmt.Sprintf("ensuring destination %s", spec.Name))
	}

	staging, err := l.createStaging(ctx, spec)
	if err != nil {
		return LoadResult{}, err
	}
	defer l.dropStaging(ctx, staging)

	if err := l.insertBatches(ctx, staging, rows); err != nil {
		return LoadResult{}, err
	}

	inserted, err := l.wh.Exec(ctx, l.mergeSQL(spec, staging))
	if err != nil {
		return LoadResult{}, pkgerrors.Wrap(pkgerrors.CodeLoad, err,
			fmt.Sprintf("merging into %s", spec.Name))
	}

	result := LoadResult{
		Inserted:          inserted,
		DuplicatesSkipped: int64(len(rows)) - inserted,
	}
	if l.logg != nil {
		loc := l.logg.WithFields(ctx, map[string]any{
			"table":              spec.Name,
			"inserted":           result.Inserted,
			"duplicates_skipped": result.DuplicatesSkipped,
		})
		l.logg.Info(loc, "fact load merged")
	}
	return result, nil
}

// ReplaceAll rebuilds a dimension table from scratch via staging, so a
// half-written refresh never leaves the destination truncated.
func (l *Loader) ReplaceAll(ctx context.Context, spec types.TableSpec, rows []any) (LoadResult, error) {
	if len(rows) == 0 {
		return LoadResult{}, nil
	}

	staging, err := l.createStaging(ctx, spec)
	if err != nil {
		return LoadResult{}, err
	}
	defer l.dropStaging(ctx, staging)

	if err := l.insertBatches(ctx, staging, rows); err != nil {
		return LoadResult{}, err
	}

	sql := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM %s",
		l.wh.QualifiedTable(spec.Name), l.wh.QualifiedTable(staging))
	if _, err := l.wh.Exec(ctx, sql); err != nil {
		return LoadResult{}, pkgerrors.Wrap(pkgerrors.CodeLoad, err,
			fmt.Sprintf("replacing %s", spec.Name))
	}

	if l.logg != nil {
		loc := l.logg.WithFields(ctx, map[string]any{
			"table": spec.Name,
			"rows":  len(rows),
		})
		l.logg.Info(loc, "dimension table replaced")
	}
	return LoadResult{Inserted: int64(len(rows))}, nil
}

func (l *Loader) createStaging(ctx context.Context, spec types.TableSpec) (string, error) {
	staging := fmt.Sprintf("%s_staging_%s", spec.Name, l.newID())
	meta := &bigquery.TableMetadata{
		Schema:         spec.Schema,
		ExpirationTime: l.now().Add(l.cfg.StagingExpiry),
	}
	if err := l.wh.CreateTable(ctx, staging, meta); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeLoad, err,
			fmt.Sprintf("creating staging table for %s", spec.Name))
	}
	return staging, nil
}

func (l *Loader) dropStaging(ctx context.Context, staging string) {
	// Expiry on the table is the backstop if this drop fails.
	if err := l.wh.DeleteTable(ctx, staging); err != nil && l.logg != nil {
		l.logg.Warn(l.logg.WithField(ctx, "table", staging), "failed to drop staging table")
	}
}

func (l *Loader) insertBatches(ctx context.Context, staging string, rows []any) error {
	batchSize := l.cfg.InsertBatchSize
	if batchSize <= 0 {
		batchSize = len(rows)
	}
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := l.wh.InsertRows(ctx, staging, rows[start:end]); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeLoad, err,
				fmt.Sprintf("inserting batch into %s", staging))
		}
	}
	return nil
}

func (l *Loader) mergeSQL(spec types.TableSpec, staging string) string {
	conditions := make([]string, 0, len(spec.DedupKeys))
	for _, key := range spec.DedupKeys {
		conditions = append(conditions, fmt.Sprintf("T.%s = S.%s", key, key))
	}
	return fmt.Sprintf(
		"MERGE %s T USING %s S ON %s WHEN NOT MATCHED THEN INSERT ROW",
		l.wh.QualifiedTable(spec.Name),
		l.wh.QualifiedTable(staging),
		strings.Join(conditions, " AND "),
	)
}
