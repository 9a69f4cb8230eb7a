package model

import "context"

// QueryExecutor runs arbitrary SQL against the logs relation.
type QueryExecutor interface {
	Execute(ctx context.Context, sql string) (Table, error)
}

// SchemaQuerier provides schema introspection of the logs relation.
type SchemaQuerier interface {
	Schema(ctx context.Context) (Table, error)
	Columns(ctx context.Context) ([]string, error)
}

// LogReader is the unified read contract for read surfaces (HTTP and TUI).
type LogReader interface {
	QueryExecutor
	SchemaQuerier
	BaseDir() string
}
