// Package dashboard builds the default dashboard queries and shapes query
// results into the summaries the dashboard shows.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/tinytelemetry/logiq/internal/logparse"
	"github.com/tinytelemetry/logiq/internal/model"
)

// BuildDefaultQuery returns the editable starting query for filter.
//
// The last-errors query selects exactly the rows the classifier labels ERROR
// (word-bounded ERROR and no CRITICAL), or uses the relation's own severity
// column when it has one.
func BuildDefaultQuery(filter model.FilterState) string {
	limit := filter.Limit
	if limit <= 0 {
		limit = model.DefaultQuickLimit
	}

	switch filter.QuickFilter {
	case model.QuickFilterLastLogs:
		return fmt.Sprintf("SELECT * FROM %s ORDER BY timestamp DESC LIMIT %d", model.DefaultViewName, limit)
	case model.QuickFilterLastErrors:
		return fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY timestamp DESC LIMIT %d",
			model.DefaultViewName, errorCondition(filter.HasSeverityColumn), limit)
	}

	start, end := DateRange(filter)
	return strings.Join([]string{
		"SELECT * FROM " + model.DefaultViewName,
		fmt.Sprintf("WHERE CAST(CAST(timestamp AS TIMESTAMP) AS DATE) BETWEEN '%s' AND '%s'",
			start.Format(model.DateLayout), end.Format(model.DateLayout)),
		"ORDER BY timestamp DESC",
		fmt.Sprintf("LIMIT %d", model.DefaultRowLimit),
	}, "\n")
}

// DateRange returns the inclusive date bounds for filter, applying defaults
// and putting the bounds in order.
func DateRange(filter model.FilterState) (start, end time.Time) {
	start, end = filter.Start, filter.End
	if start.IsZero() {
		start = model.DefaultStartDate
	}
	if end.IsZero() {
		end = model.DefaultEndDate
	}
	if end.Before(start) {
		start, end = end, start
	}
	return start, end
}

func errorCondition(hasSeverityColumn bool) string {
	if hasSeverityColumn {
		return "upper(trim(CAST(severity AS VARCHAR))) IN ('ERROR', 'ERR', 'ERRO')"
	}
	return fmt.Sprintf("regexp_matches(content, '%s') AND NOT regexp_matches(content, '%s')",
		logparse.SeverityPattern(model.SeverityError),
		logparse.SeverityPattern(model.SeverityCritical))
}
