package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/tinytelemetry/logiq/internal/model"
)

func TestBuildDefaultQuery(t *testing.T) {
	march := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   model.FilterState
		contains []string
		excludes []string
	}{
		{
			name:   "date range defaults",
			filter: model.FilterState{},
			contains: []string{
				"FROM logs",
				"BETWEEN '2025-01-01' AND '2025-12-31'",
				"ORDER BY timestamp DESC",
				"LIMIT 1000",
			},
		},
		{
			name:     "explicit date range",
			filter:   model.FilterState{Start: march, End: april},
			contains: []string{"BETWEEN '2025-03-01' AND '2025-04-30'", "LIMIT 1000"},
		},
		{
			name:     "swapped date range",
			filter:   model.FilterState{Start: april, End: march},
			contains: []string{"BETWEEN '2025-03-01' AND '2025-04-30'"},
		},
		{
			name:     "last logs",
			filter:   model.FilterState{QuickFilter: model.QuickFilterLastLogs},
			contains: []string{"SELECT * FROM logs ORDER BY timestamp DESC LIMIT 100"},
			excludes: []string{"WHERE"},
		},
		{
			name:     "last logs custom limit",
			filter:   model.FilterState{QuickFilter: model.QuickFilterLastLogs, Limit: 25},
			contains: []string{"LIMIT 25"},
		},
		{
			name:   "last errors by content",
			filter: model.FilterState{QuickFilter: model.QuickFilterLastErrors},
			contains: []string{
				`regexp_matches(content, '(?i)\bERROR\b')`,
				`AND NOT regexp_matches(content, '(?i)\bCRITICAL\b')`,
				"ORDER BY timestamp DESC LIMIT 100",
			},
			excludes: []string{"LIKE"},
		},
		{
			name:     "last errors by severity column",
			filter:   model.FilterState{QuickFilter: model.QuickFilterLastErrors, HasSeverityColumn: true, Limit: -3},
			contains: []string{"upper(trim(CAST(severity AS VARCHAR))) IN ('ERROR'", "LIMIT 100"},
			excludes: []string{"regexp_matches"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildDefaultQuery(tt.filter)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("query %q missing %q", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("query %q contains %q", got, unwanted)
				}
			}
		})
	}
}

func TestDateRange(t *testing.T) {
	start, end := DateRange(model.FilterState{})
	if !start.Equal(model.DefaultStartDate) || !end.Equal(model.DefaultEndDate) {
		t.Errorf("DateRange defaults = %v..%v", start, end)
	}
}
