package dashboard

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tinytelemetry/logiq/internal/logparse"
	"github.com/tinytelemetry/logiq/internal/model"
)

const (
	columnTimestamp = "timestamp"
	columnContent   = "content"
	columnSeverity  = "severity"
	columnFilePath  = "file_path"
	columnFilename  = "filename"
)

// timestampLayouts are tried in order when a timestamp column holds text.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	model.DateLayout,
}

// Enrich prepares a query result for the dashboard. It returns a new table:
//   - text timestamps are parsed (unparseable text becomes nil) and integer
//     timestamps are read as Unix epochs,
//   - a severity column is derived from content when the result has none;
//     level names in an existing one are canonicalized and other values kept,
//   - for the last-errors quick filter only ERROR rows are kept, newest
//     first, capped at the filter limit.
//
// Steps whose input columns are missing are skipped.
func Enrich(table model.Table, filter model.FilterState) model.Table {
	out := model.Table{
		Columns: append([]model.Column(nil), table.Columns...),
		Rows:    make([][]any, len(table.Rows)),
	}
	for i, row := range table.Rows {
		out.Rows[i] = append([]any(nil), row...)
	}

	if idx := out.ColumnIndex(columnTimestamp); idx >= 0 {
		for _, row := range out.Rows {
			row[idx] = coerceTimestamp(row[idx])
		}
	}

	contentIdx := out.ColumnIndex(columnContent)
	if sevIdx := out.ColumnIndex(columnSeverity); sevIdx >= 0 {
		for _, row := range out.Rows {
			if row[sevIdx] == nil {
				continue
			}
			if sev, ok := logparse.ParseSeverity(textValue(row[sevIdx])); ok {
				row[sevIdx] = string(sev)
			}
		}
	} else if contentIdx >= 0 {
		out.Columns = append(out.Columns, model.Column{Name: columnSeverity, Type: "VARCHAR"})
		for i, row := range out.Rows {
			out.Rows[i] = append(row, string(logparse.Classify(textValue(row[contentIdx]))))
		}
	}

	if filter.QuickFilter == model.QuickFilterLastErrors {
		out = keepSeverity(out, model.SeverityError, filter.Limit)
	}
	return out
}

// keepSeverity filters rows to one severity, sorted newest first and capped.
func keepSeverity(table model.Table, sev model.Severity, limit int) model.Table {
	sevIdx := table.ColumnIndex(columnSeverity)
	if sevIdx < 0 {
		return table
	}
	if limit <= 0 {
		limit = model.DefaultQuickLimit
	}

	kept := make([][]any, 0, len(table.Rows))
	for _, row := range table.Rows {
		if row[sevIdx] == string(sev) {
			kept = append(kept, row)
		}
	}

	if tsIdx := table.ColumnIndex(columnTimestamp); tsIdx >= 0 {
		sort.SliceStable(kept, func(i, j int) bool {
			ti, iok := kept[i][tsIdx].(time.Time)
			tj, jok := kept[j][tsIdx].(time.Time)
			if iok != jok {
				return iok // rows without a timestamp sort last
			}
			return iok && ti.After(tj)
		})
	}
	if len(kept) > limit {
		kept = kept[:limit]
	}
	table.Rows = kept
	return table
}

func coerceTimestamp(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		return v
	case string:
		return parseTimestamp(v)
	case []byte:
		return parseTimestamp(string(v))
	case int64:
		return epochTime(v)
	case int32:
		return epochTime(int64(v))
	case int:
		return epochTime(int64(v))
	case uint32:
		return epochTime(int64(v))
	case uint64:
		if v <= math.MaxInt64 {
			return epochTime(int64(v))
		}
	}
	return value
}

// epochTime reads an integer Unix timestamp, picking seconds, milliseconds,
// microseconds or nanoseconds by magnitude.
func epochTime(v int64) time.Time {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs < 1e11:
		return time.Unix(v, 0).UTC()
	case abs < 1e14:
		return time.UnixMilli(v).UTC()
	case abs < 1e17:
		return time.UnixMicro(v).UTC()
	}
	return time.Unix(0, v).UTC()
}

func parseTimestamp(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return nil
}

func textValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}
	return fmt.Sprint(value)
}
