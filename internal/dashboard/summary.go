package dashboard

import (
	"sort"
	"time"

	"github.com/tinytelemetry/logiq/internal/model"
)

// Summary holds the headline metrics of a result.
type Summary struct {
	Total      int        `json:"total"`
	Errors     int        `json:"errors"`
	Warnings   int        `json:"warnings"`
	LatestTime *time.Time `json:"latest_time,omitempty"`
}

// SeverityCount is the number of rows of one severity.
type SeverityCount struct {
	Severity model.Severity `json:"severity"`
	Count    int            `json:"count"`
}

// DayCount is the number of rows whose timestamp falls on Day.
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// HeatCell is the number of rows of one severity from one source file.
type HeatCell struct {
	File     string         `json:"file"`
	Severity model.Severity `json:"severity"`
	Count    int            `json:"count"`
}

// Summarize computes headline metrics. Error and warning counts are zero
// when the table has no severity column.
func Summarize(table model.Table) Summary {
	s := Summary{Total: table.Len()}

	if sevIdx := table.ColumnIndex(columnSeverity); sevIdx >= 0 {
		for _, row := range table.Rows {
			switch row[sevIdx] {
			case string(model.SeverityError):
				s.Errors++
			case string(model.SeverityWarn):
				s.Warnings++
			}
		}
	}

	if tsIdx := table.ColumnIndex(columnTimestamp); tsIdx >= 0 {
		for _, row := range table.Rows {
			t, ok := row[tsIdx].(time.Time)
			if !ok {
				continue
			}
			if s.LatestTime == nil || t.After(*s.LatestTime) {
				latest := t
				s.LatestTime = &latest
			}
		}
	}
	return s
}

// SeverityCounts counts rows per severity in priority order, including zero
// counts. It returns nil when the table has no severity column.
func SeverityCounts(table model.Table) []SeverityCount {
	sevIdx := table.ColumnIndex(columnSeverity)
	if sevIdx < 0 {
		return nil
	}
	counts := make(map[model.Severity]int, len(model.Severities))
	for _, row := range table.Rows {
		if v, ok := row[sevIdx].(string); ok {
			counts[model.Severity(v)]++
		}
	}
	result := make([]SeverityCount, 0, len(model.Severities))
	for _, sev := range model.Severities {
		result = append(result, SeverityCount{Severity: sev, Count: counts[sev]})
	}
	return result
}

// Timeline buckets rows by UTC day, filling empty days between the first and
// last day with zero. It returns nil when there is no usable timestamp.
func Timeline(table model.Table) []DayCount {
	tsIdx := table.ColumnIndex(columnTimestamp)
	if tsIdx < 0 {
		return nil
	}

	counts := make(map[time.Time]int)
	var first, last time.Time
	for _, row := range table.Rows {
		t, ok := row[tsIdx].(time.Time)
		if !ok {
			continue
		}
		day := truncateDay(t)
		counts[day]++
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if last.IsZero() || day.After(last) {
			last = day
		}
	}
	if len(counts) == 0 {
		return nil
	}

	var result []DayCount
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		result = append(result, DayCount{Day: day, Count: counts[day]})
	}
	return result
}

// Heatmap counts rows per (source file, severity). Files are ordered by total
// count, descending. It returns nil unless the table has a severity column and
// a file_path (or DuckDB filename) column.
func Heatmap(table model.Table) []HeatCell {
	sevIdx := table.ColumnIndex(columnSeverity)
	fileIdx := table.ColumnIndex(columnFilePath)
	if fileIdx < 0 {
		fileIdx = table.ColumnIndex(columnFilename)
	}
	if sevIdx < 0 || fileIdx < 0 {
		return nil
	}

	type key struct {
		file string
		sev  model.Severity
	}
	cells := make(map[key]int)
	fileTotals := make(map[string]int)
	for _, row := range table.Rows {
		sev, ok := row[sevIdx].(string)
		if !ok {
			continue
		}
		file := textValue(row[fileIdx])
		cells[key{file, model.Severity(sev)}]++
		fileTotals[file]++
	}

	result := make([]HeatCell, 0, len(cells))
	for k, count := range cells {
		result = append(result, HeatCell{File: k.file, Severity: k.sev, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if fileTotals[a.File] != fileTotals[b.File] {
			return fileTotals[a.File] > fileTotals[b.File]
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Severity.Rank() < b.Severity.Rank()
	})
	return result
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
