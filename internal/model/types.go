package model

import (
	"strings"
	"time"
)

// Column describes one result column as reported by the engine.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"` // database type name, e.g. VARCHAR, TIMESTAMP, BIGINT
}

// Table is a fully materialized query result.
// Rows are ordered and each row has exactly len(Columns) values.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ColumnIndex returns the position of the named column, or -1.
// Matching is case-insensitive, mirroring DuckDB identifier resolution.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has the named column.
func (t Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnNames returns the column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Severity is the derived urgency class of a log line.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityError    Severity = "ERROR"
	SeverityWarn     Severity = "WARN"
	SeverityInfo     Severity = "INFO"
	SeverityDebug    Severity = "DEBUG"
)

// Severities lists every severity in priority order, most urgent first.
var Severities = []Severity{
	SeverityCritical,
	SeverityError,
	SeverityWarn,
	SeverityInfo,
	SeverityDebug,
}

func (s Severity) String() string { return string(s) }

// Rank returns the priority position of s (0 = most urgent), or -1 for
// values outside the closed set.
func (s Severity) Rank() int {
	for i, sev := range Severities {
		if sev == s {
			return i
		}
	}
	return -1
}

// QuickFilter is a named preset that replaces the date-range query.
type QuickFilter string

const (
	QuickFilterNone       QuickFilter = ""
	QuickFilterLastLogs   QuickFilter = "last_logs"
	QuickFilterLastErrors QuickFilter = "last_errors"
)

// ParseQuickFilter maps user input to a QuickFilter. Unknown values are rejected.
func ParseQuickFilter(value string) (QuickFilter, bool) {
	switch QuickFilter(value) {
	case QuickFilterNone, QuickFilterLastLogs, QuickFilterLastErrors:
		return QuickFilter(value), true
	case "none":
		return QuickFilterNone, true
	}
	return QuickFilterNone, false
}

// FilterState is the dashboard filter input used to build a default query.
type FilterState struct {
	QuickFilter QuickFilter
	Start       time.Time // inclusive date bound; zero = DefaultStartDate
	End         time.Time // inclusive date bound; zero = DefaultEndDate
	Limit       int       // row count for quick filters; <= 0 = DefaultQuickLimit

	// HasSeverityColumn is set when the logs relation carries its own
	// severity column, letting the error filter use it directly.
	HasSeverityColumn bool
}
