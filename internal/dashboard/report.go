package dashboard

import (
	"context"
	"strings"

	"github.com/tinytelemetry/logiq/internal/model"
)

// Report is everything the dashboard renders for one query.
type Report struct {
	SQL            string          `json:"sql"`
	Table          model.Table     `json:"table"`
	Summary        Summary         `json:"summary"`
	SeverityCounts []SeverityCount `json:"severity_counts,omitempty"`
	Timeline       []DayCount      `json:"timeline,omitempty"`
	Heatmap        []HeatCell      `json:"heatmap,omitempty"`
}

// Run executes sqlOverride, or the default query for filter when the override
// is blank, and shapes the result. On failure the returned report still
// carries the SQL that was attempted.
func Run(ctx context.Context, executor model.QueryExecutor, filter model.FilterState, sqlOverride string) (Report, error) {
	sqlText := strings.TrimSpace(sqlOverride)
	if sqlText == "" {
		sqlText = BuildDefaultQuery(filter)
	}

	table, err := executor.Execute(ctx, sqlText)
	if err != nil {
		return Report{SQL: sqlText}, err
	}
	return NewReport(sqlText, table, filter), nil
}

// NewReport enriches table and computes every summary.
func NewReport(sqlText string, table model.Table, filter model.FilterState) Report {
	enriched := Enrich(table, filter)
	return Report{
		SQL:            sqlText,
		Table:          enriched,
		Summary:        Summarize(enriched),
		SeverityCounts: SeverityCounts(enriched),
		Timeline:       Timeline(enriched),
		Heatmap:        Heatmap(enriched),
	}
}
