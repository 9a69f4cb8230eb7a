package duckdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tinytelemetry/logiq/internal/model"
)

// ErrorKind distinguishes why a statement failed.
type ErrorKind string

const (
	// KindQuery covers malformed SQL, unknown columns/relations and type errors.
	KindQuery ErrorKind = "query"
	// KindResolution means the Parquet file set could not be resolved or read.
	KindResolution ErrorKind = "resolution"
	// KindCanceled means the context was canceled or the query timed out.
	KindCanceled ErrorKind = "canceled"
)

// QueryError is the failure result of Execute. Its message is DuckDB's
// diagnostic text.
type QueryError struct {
	Kind ErrorKind
	SQL  string
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func newQueryError(sqlText string, err error) *QueryError {
	return &QueryError{Kind: classify(err), SQL: sqlText, Err: err}
}

// resolutionMarkers are DuckDB diagnostics raised while expanding or opening
// the Parquet file set.
var resolutionMarkers = []string{
	"No files found that match the pattern",
	"IO Error",
	"Invalid Input Error: No magic bytes found",
	"too small to be a Parquet file",
}

func classify(err error) ErrorKind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	msg := err.Error()
	if strings.Contains(msg, "INTERRUPT Error") {
		return KindCanceled
	}
	for _, marker := range resolutionMarkers {
		if strings.Contains(msg, marker) {
			return KindResolution
		}
	}
	return KindQuery
}

func referencesMissingView(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Catalog Error") &&
		strings.Contains(msg, "with name "+model.DefaultViewName+" does not exist")
}
