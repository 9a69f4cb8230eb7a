package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/logiq/internal/dashboard"
)

const (
	chartHeight    = 6
	chartBarWidth  = 3
	chartLegendWid = 16
)

// renderSeverityChart draws one bar per severity with a colored legend.
// Results without a severity column render a placeholder line.
func renderSeverityChart(counts []dashboard.SeverityCount, width int) string {
	title := chartTitleStyle.Render("Severity")
	if len(counts) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, helpStyle.Render("No severity data"))
	}

	chartWidth := len(counts) * (chartBarWidth + 1)
	if maxWidth := width - chartLegendWid - 2; maxWidth > 0 && chartWidth > maxWidth {
		chartWidth = maxWidth
	}

	bc := barchart.New(chartWidth, chartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(chartBarWidth),
		barchart.WithNoAxis(),
	)

	total := 0
	legendLines := make([]string, 0, len(counts)+2)
	for _, sc := range counts {
		color := severityColor(sc.Severity)
		bc.Push(barchart.BarData{
			Label: "",
			Values: []barchart.BarValue{{
				Name:  sc.Severity.String(),
				Value: float64(sc.Count),
				Style: lipgloss.NewStyle().Foreground(color).Background(color),
			}},
		})
		total += sc.Count
		label := fmt.Sprintf("%-8s:%6d", sc.Severity.String(), sc.Count)
		legendLines = append(legendLines, lipgloss.NewStyle().Foreground(color).Render(label))
	}
	bc.Draw()

	legendLines = append(legendLines,
		lipgloss.NewStyle().Foreground(ColorWhite).Render(strings.Repeat("─", chartLegendWid-1)),
		lipgloss.NewStyle().Foreground(ColorWhite).Render(fmt.Sprintf("%-8s:%6d", "TOTAL", total)),
	)

	legend := strings.Join(legendLines, "\n")
	body := lipgloss.JoinHorizontal(lipgloss.Top, bc.View(), "  ", legend)
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}
