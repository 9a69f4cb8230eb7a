package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tinytelemetry/logiq/internal/model"
	"github.com/tinytelemetry/logiq/internal/observability"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("duckdb: engine is closed")

// Config configures an Engine.
type Config struct {
	// BaseDir is the root of the hive-partitioned Parquet tree.
	BaseDir string
	// QueryTimeout bounds each Execute call. Zero means no timeout.
	QueryTimeout time.Duration
	Logger       *slog.Logger
}

// Engine owns one in-memory DuckDB session with the logs view registered on it.
// It is safe for concurrent use; statements are serialized on the session.
type Engine struct {
	db           *sql.DB
	mu           sync.Mutex
	baseDir      string
	resolved     bool  // false while no files matched at registration
	resolveErr   error // DuckDB diagnostic from the last failed resolution
	closed       bool
	queryTimeout time.Duration
	logger       *slog.Logger
}

// NewEngine opens an in-memory DuckDB session and registers the logs view
// over cfg.BaseDir (model.DefaultBaseDir when empty).
func NewEngine(ctx context.Context, cfg Config) (*Engine, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// One connection is the session: views and settings live on it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Engine{
		db:           db,
		queryTimeout: cfg.QueryTimeout,
		logger:       logger,
	}

	if _, err := db.ExecContext(ctx, "PRAGMA enable_object_cache"); err != nil {
		// Older and newer DuckDB releases differ on this pragma; caching is optional.
		logger.Warn("object cache not enabled", slog.String("error", err.Error()))
	}

	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = model.DefaultBaseDir
	}
	if err := e.RegisterLogView(ctx, baseDir); err != nil {
		_ = db.Close()
		return nil, err
	}
	return e, nil
}

// BaseDir returns the directory the logs view currently points at.
func (e *Engine) BaseDir() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.baseDir
}

// RegisterLogView (re)defines the logs view as the union of every Parquet file
// under baseDir, with hive partition columns and a filename column. Any prior
// definition is replaced.
//
// File existence is not validated here. When nothing matches yet the view is
// left undefined, resolution is retried before every Execute, and queries that
// touch logs fail with DuckDB's resolution diagnostic.
func (e *Engine) RegisterLogView(ctx context.Context, baseDir string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	e.baseDir = baseDir
	err := e.registerLocked(ctx)
	observability.ObserveViewRegistration(registrationOutcome(e.resolved, err))
	if err == nil && !e.resolved {
		e.logger.Warn("logs view not resolvable yet",
			slog.String("base_dir", e.baseDir),
			slog.String("error", e.resolveErr.Error()),
		)
	}
	return err
}

func registrationOutcome(resolved bool, err error) string {
	switch {
	case err != nil:
		return "error"
	case resolved:
		return "resolved"
	}
	return "unresolved"
}

func (e *Engine) registerLocked(ctx context.Context) error {
	glob := logGlob(e.baseDir)
	viewSQL := fmt.Sprintf(
		`CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet(%s, hive_partitioning = true, filename = true)`,
		quoteIdent(model.DefaultViewName), quoteString(glob),
	)

	_, err := e.db.ExecContext(ctx, viewSQL)
	if err == nil {
		e.resolved = true
		e.resolveErr = nil
		e.logger.Info("registered parquet directory as logs view",
			slog.String("base_dir", e.baseDir),
			slog.String("glob", glob),
		)
		return nil
	}
	if classify(err) != KindResolution {
		return fmt.Errorf("register log view: %w", err)
	}

	// Drop any previous definition so the old directory is no longer visible.
	// A table the operator created under the same name is left alone.
	e.dropStaleView(ctx)
	e.resolved = false
	e.resolveErr = err
	return nil
}

func (e *Engine) dropStaleView(ctx context.Context) {
	var views int
	err := e.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM duckdb_views() WHERE view_name = ? AND NOT internal`,
		model.DefaultViewName,
	).Scan(&views)
	if err != nil {
		e.logger.Warn("look up stale log view", slog.String("error", err.Error()))
		return
	}
	if views == 0 {
		return
	}
	dropSQL := fmt.Sprintf(`DROP VIEW IF EXISTS %s`, quoteIdent(model.DefaultViewName))
	if _, err := e.db.ExecContext(ctx, dropSQL); err != nil {
		e.logger.Warn("drop stale log view", slog.String("error", err.Error()))
	}
}

// retryRegistrationLocked re-attempts an unresolved view before a statement.
// Failures are logged and never block the statement; e.g. an operator table
// named logs makes CREATE OR REPLACE VIEW fail until it is dropped.
func (e *Engine) retryRegistrationLocked(ctx context.Context) {
	if err := e.registerLocked(ctx); err != nil {
		e.logger.Debug("logs view retry failed", slog.String("error", err.Error()))
	}
}

// Execute runs sql on the session and materializes the full result.
// Failures are returned as *QueryError and leave the session usable.
func (e *Engine) Execute(ctx context.Context, sqlText string) (model.Table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return model.Table{}, ErrClosed
	}

	start := time.Now()
	table, err := e.executeLocked(ctx, sqlText)
	elapsed := time.Since(start)

	if err != nil {
		var qerr *QueryError
		kind := KindQuery
		if errors.As(err, &qerr) {
			kind = qerr.Kind
		}
		observability.ObserveQuery(string(kind), elapsed, 0)
		e.logger.Warn("query failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
			slog.Duration("duration", elapsed),
		)
		return model.Table{}, err
	}

	observability.ObserveQuery("ok", elapsed, table.Len())
	e.logger.Debug("query executed",
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)),
		slog.Duration("duration", elapsed),
	)
	return table, nil
}

func (e *Engine) executeLocked(ctx context.Context, sqlText string) (model.Table, error) {
	query := stripTrailingSemicolons(sqlText)
	if query == "" {
		return model.Table{}, &QueryError{Kind: KindQuery, SQL: sqlText, Err: errors.New("sql is required")}
	}

	if e.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.queryTimeout)
		defer cancel()
	}

	if !e.resolved {
		e.retryRegistrationLocked(ctx)
	}

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		if !e.resolved && e.resolveErr != nil && referencesMissingView(err) {
			return model.Table{}, &QueryError{Kind: KindResolution, SQL: query, Err: e.resolveErr}
		}
		return model.Table{}, newQueryError(query, err)
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return model.Table{}, newQueryError(query, fmt.Errorf("query columns: %w", err))
	}
	columns := make([]model.Column, len(columnTypes))
	typeNames := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		typeNames[i] = ct.DatabaseTypeName()
		columns[i] = model.Column{Name: ct.Name(), Type: typeNames[i]}
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return model.Table{}, newQueryError(query, fmt.Errorf("scan row: %w", err))
		}
		resultRows = append(resultRows, normalizeValues(values, typeNames))
	}
	if err := rows.Err(); err != nil {
		return model.Table{}, newQueryError(query, err)
	}

	return model.Table{Columns: columns, Rows: resultRows}, nil
}

// Schema describes the logs view (PRAGMA table_info).
func (e *Engine) Schema(ctx context.Context) (model.Table, error) {
	return e.Execute(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteString(model.DefaultViewName)))
}

// Columns returns the column names of the logs view.
func (e *Engine) Columns(ctx context.Context) ([]string, error) {
	table, err := e.Execute(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", quoteIdent(model.DefaultViewName)))
	if err != nil {
		return nil, err
	}
	return table.ColumnNames(), nil
}

// Close releases the DuckDB session. It is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.logger.Info("duckdb session closed")
	return e.db.Close()
}

func logGlob(baseDir string) string {
	return filepath.Join(baseDir, "**", "*.parquet")
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
