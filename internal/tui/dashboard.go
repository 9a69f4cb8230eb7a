package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/logiq/internal/dashboard"
	"github.com/tinytelemetry/logiq/internal/model"
)

// DashboardPageID identifies the query dashboard page.
const DashboardPageID = "dashboard"

// DashboardConfig wires the dashboard page to its data.
type DashboardConfig struct {
	Reader     model.LogReader
	QuickLimit int
	ExportPath string
	Start      time.Time
	End        time.Time
	Logger     *slog.Logger
}

type focusArea int

const (
	focusEditor focusArea = iota
	focusStart
	focusEnd
	focusResults
	focusCount
)

// queryDoneMsg carries a finished query back to the page. seq matches the
// run that produced it.
type queryDoneMsg struct {
	seq       int
	generated bool
	report    dashboard.Report
	err       error
	elapsed   time.Duration
}

type exportDoneMsg struct {
	path string
	rows int
	err  error
}

// DashboardPage is the SQL editor, filters, severity chart and result grid.
// At most one query is in flight at a time.
type DashboardPage struct {
	cfg  DashboardConfig
	keys KeyMap

	editor     textarea.Model
	startInput textinput.Model
	endInput   textinput.Model
	focus      focusArea

	filter    model.FilterState
	report    dashboard.Report
	hasReport bool
	running   bool
	runSeq    int
	cancel    context.CancelFunc
	lastErr   error
	status    string
	elapsed   time.Duration
	offset    int

	width  int
	height int
}

// NewDashboardPage builds the page with the editor prefilled with the default
// date-range query.
func NewDashboardPage(cfg DashboardConfig) *DashboardPage {
	if cfg.QuickLimit <= 0 {
		cfg.QuickLimit = model.DefaultQuickLimit
	}
	if cfg.ExportPath == "" {
		cfg.ExportPath = model.DefaultExportName
	}
	if cfg.Start.IsZero() {
		cfg.Start = model.DefaultStartDate
	}
	if cfg.End.IsZero() {
		cfg.End = model.DefaultEndDate
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	p := &DashboardPage{
		cfg:  cfg,
		keys: DefaultKeyMap(),
		filter: model.FilterState{
			QuickFilter: model.QuickFilterNone,
			Start:       cfg.Start,
			End:         cfg.End,
			Limit:       cfg.QuickLimit,
		},
	}

	p.editor = textarea.New()
	p.editor.ShowLineNumbers = false
	p.editor.CharLimit = 0
	p.editor.MaxHeight = 0
	p.editor.Placeholder = "SELECT * FROM logs"
	p.editor.SetHeight(5)
	p.editor.SetValue(dashboard.BuildDefaultQuery(p.filter))
	p.editor.Focus()

	p.startInput = newDateInput("Start: ", cfg.Start)
	p.endInput = newDateInput("End: ", cfg.End)
	return p
}

func newDateInput(prompt string, value time.Time) textinput.Model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = model.DateLayout
	ti.CharLimit = len(model.DateLayout)
	ti.Width = len(model.DateLayout) + 1
	ti.SetValue(value.Format(model.DateLayout))
	return ti
}

func (p *DashboardPage) ID() string { return DashboardPageID }

// Init blinks the editor cursor and runs the default query.
func (p *DashboardPage) Init() tea.Cmd {
	if p.hasReport || p.running {
		return textarea.Blink
	}
	return tea.Batch(textarea.Blink, p.run(""))
}

func (p *DashboardPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width, p.height = msg.Width, msg.Height
		p.editor.SetWidth(max(msg.Width-4, 10))
		return nil, nil

	case queryDoneMsg:
		return p.handleQueryDone(msg), nil

	case exportDoneMsg:
		if msg.err != nil {
			p.lastErr = msg.err
			p.status = ""
		} else {
			p.lastErr = nil
			p.status = fmt.Sprintf("exported %d rows to %s", msg.rows, msg.path)
		}
		return nil, nil

	case SpinnerTickMsg:
		if p.running {
			return spinnerTick(), nil
		}
		return nil, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}

	return p.updateFocused(msg), nil
}

func (p *DashboardPage) handleKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	switch {
	case key.Matches(msg, p.keys.Quit) && p.focus == focusResults:
		p.Cancel()
		return tea.Quit, nil
	case key.Matches(msg, p.keys.Escape):
		if p.running {
			p.Cancel()
			p.status = "cancelling query"
		}
		return nil, nil
	case key.Matches(msg, p.keys.Run):
		return p.run(p.editor.Value()), nil
	case key.Matches(msg, p.keys.LastLogs):
		p.filter.QuickFilter = model.QuickFilterLastLogs
		return p.run(""), nil
	case key.Matches(msg, p.keys.LastErrors):
		p.filter.QuickFilter = model.QuickFilterLastErrors
		return p.run(""), nil
	case key.Matches(msg, p.keys.DateRange):
		return p.runDateRange(), nil
	case key.Matches(msg, p.keys.Export):
		return p.export(), nil
	case key.Matches(msg, p.keys.Files):
		return nil, &PageNav{PageID: FilesPageID}
	case key.Matches(msg, p.keys.NextFocus):
		return p.setFocus((p.focus + 1) % focusCount), nil
	case key.Matches(msg, p.keys.PrevFocus):
		return p.setFocus((p.focus + focusCount - 1) % focusCount), nil
	}

	if p.focus == focusResults {
		p.scroll(msg)
		return nil, nil
	}
	return p.updateFocused(msg), nil
}

func (p *DashboardPage) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch p.focus {
	case focusEditor:
		p.editor, cmd = p.editor.Update(msg)
	case focusStart:
		p.startInput, cmd = p.startInput.Update(msg)
	case focusEnd:
		p.endInput, cmd = p.endInput.Update(msg)
	}
	return cmd
}

func (p *DashboardPage) setFocus(f focusArea) tea.Cmd {
	p.focus = f
	p.editor.Blur()
	p.startInput.Blur()
	p.endInput.Blur()
	switch f {
	case focusEditor:
		return p.editor.Focus()
	case focusStart:
		return p.startInput.Focus()
	case focusEnd:
		return p.endInput.Focus()
	}
	return nil
}

func (p *DashboardPage) scroll(msg tea.KeyMsg) {
	page := p.resultsHeight()
	switch {
	case key.Matches(msg, p.keys.Up):
		p.offset--
	case key.Matches(msg, p.keys.Down):
		p.offset++
	case key.Matches(msg, p.keys.PageUp):
		p.offset -= page
	case key.Matches(msg, p.keys.PageDown):
		p.offset += page
	case key.Matches(msg, p.keys.Home):
		p.offset = 0
	case key.Matches(msg, p.keys.End):
		p.offset = p.report.Table.Len()
	}
	p.offset = clampOffset(p.offset, p.report.Table.Len(), page)
}

// runDateRange validates the date inputs and runs the date-range query.
func (p *DashboardPage) runDateRange() tea.Cmd {
	start, err := time.Parse(model.DateLayout, strings.TrimSpace(p.startInput.Value()))
	if err != nil {
		p.lastErr = fmt.Errorf("start date must be %s", model.DateLayout)
		return nil
	}
	end, err := time.Parse(model.DateLayout, strings.TrimSpace(p.endInput.Value()))
	if err != nil {
		p.lastErr = fmt.Errorf("end date must be %s", model.DateLayout)
		return nil
	}
	p.filter.QuickFilter = model.QuickFilterNone
	p.filter.Start, p.filter.End = start, end
	return p.run("")
}

// run starts a query. A blank sqlOverride runs the default query for the
// current filter and copies it into the editor when it finishes.
func (p *DashboardPage) run(sqlOverride string) tea.Cmd {
	if p.running {
		p.status = "a query is already running"
		return nil
	}
	if p.cfg.Reader == nil {
		p.lastErr = errors.New("no log reader configured")
		return nil
	}

	p.running = true
	p.runSeq++
	p.lastErr = nil
	p.status = ""

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	seq := p.runSeq
	filter := p.filter
	reader := p.cfg.Reader
	generated := strings.TrimSpace(sqlOverride) == ""

	query := func() tea.Msg {
		defer cancel()
		if filter.QuickFilter == model.QuickFilterLastErrors {
			if columns, err := reader.Columns(ctx); err == nil {
				for _, name := range columns {
					if strings.EqualFold(name, "severity") {
						filter.HasSeverityColumn = true
					}
				}
			}
		}
		start := time.Now()
		report, err := dashboard.Run(ctx, reader, filter, sqlOverride)
		return queryDoneMsg{seq: seq, generated: generated, report: report, err: err, elapsed: time.Since(start)}
	}
	return tea.Batch(query, spinnerTick())
}

func (p *DashboardPage) handleQueryDone(msg queryDoneMsg) tea.Cmd {
	if msg.seq != p.runSeq {
		return nil
	}
	p.running = false
	p.cancel = nil
	p.elapsed = msg.elapsed
	if msg.generated && msg.report.SQL != "" {
		p.editor.SetValue(msg.report.SQL)
	}
	if msg.err != nil {
		p.lastErr = msg.err
		p.cfg.Logger.Warn("query failed", slog.String("error", msg.err.Error()))
		return nil
	}
	p.lastErr = nil
	p.report = msg.report
	p.hasReport = true
	p.offset = 0
	return nil
}

// Cancel aborts the in-flight query, if any.
func (p *DashboardPage) Cancel() {
	if p.cancel != nil {
		p.cancel()
	}
}

// export writes the current result set as CSV to the configured path.
func (p *DashboardPage) export() tea.Cmd {
	if !p.hasReport {
		p.lastErr = errors.New("nothing to export yet")
		return nil
	}
	table := p.report.Table
	path := p.cfg.ExportPath
	return func() tea.Msg {
		return exportDoneMsg{path: path, rows: table.Len(), err: writeCSVFile(path, table)}
	}
}

func writeCSVFile(path string, table model.Table) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := dashboard.WriteCSV(f, table); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

func (p *DashboardPage) resultsHeight() int {
	// title, editor box, dates, status, summary, chart, results header and footer, help
	fixed := 1 + (p.editor.Height() + 2) + 1 + 1 + 1 + (chartHeight + 1) + 2 + 1 + 2
	return max(p.height-fixed, 3)
}

func (p *DashboardPage) View(width, height int) string {
	if width > 0 {
		p.width = width
	}
	if height > 0 {
		p.height = height
	}
	contentWidth := max(p.width-4, 20)

	title := chartTitleStyle.Render("LogIQ") + helpStyle.Render("  "+p.baseDir())

	editorStyle := sectionStyle
	if p.focus == focusEditor {
		editorStyle = activeSectionStyle
	}
	editor := editorStyle.Width(contentWidth).Render(p.editor.View())

	dates := lipgloss.JoinHorizontal(lipgloss.Top,
		p.startInput.View(), "   ", p.endInput.View(),
		helpStyle.Render("   "+p.filterLabel()),
	)

	sections := []string{title, editor, dates, p.statusLine(), p.summaryLine()}
	if p.hasReport {
		sections = append(sections, renderSeverityChart(p.report.SeverityCounts, contentWidth))
		resultsStyle := sectionStyle
		if p.focus == focusResults {
			resultsStyle = activeSectionStyle
		}
		sections = append(sections, resultsStyle.Width(contentWidth).Render(
			renderResults(p.report.Table, p.offset, p.resultsHeight(), contentWidth-2),
		))
	} else if p.running {
		sections = append(sections, renderLoadingPlaceholder(contentWidth, 3))
	}

	sections = append(sections, helpLine(
		p.keys.Run, p.keys.LastLogs, p.keys.LastErrors, p.keys.DateRange,
		p.keys.Export, p.keys.Files, p.keys.NextFocus, p.keys.ForceQuit,
	))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (p *DashboardPage) baseDir() string {
	if p.cfg.Reader == nil {
		return ""
	}
	return p.cfg.Reader.BaseDir()
}

func (p *DashboardPage) filterLabel() string {
	switch p.filter.QuickFilter {
	case model.QuickFilterLastLogs:
		return fmt.Sprintf("filter: last %d logs", p.filter.Limit)
	case model.QuickFilterLastErrors:
		return fmt.Sprintf("filter: last %d errors", p.filter.Limit)
	}
	start, end := dashboard.DateRange(p.filter)
	return fmt.Sprintf("filter: %s to %s", start.Format(model.DateLayout), end.Format(model.DateLayout))
}

func (p *DashboardPage) statusLine() string {
	switch {
	case p.running:
		return statusStyle.Render(spinnerFrame() + " running query")
	case p.lastErr != nil:
		return errorStyle.Render("error: " + p.lastErr.Error())
	case p.status != "":
		return statusStyle.Render(p.status)
	case p.hasReport:
		return helpStyle.Render(fmt.Sprintf("query took %s", p.elapsed.Round(time.Millisecond)))
	}
	return ""
}

func (p *DashboardPage) summaryLine() string {
	if !p.hasReport {
		return ""
	}
	s := p.report.Summary
	latest := "-"
	if s.LatestTime != nil {
		latest = s.LatestTime.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("Rows: %d   %s   %s   Latest: %s",
		s.Total,
		lipgloss.NewStyle().Foreground(ColorRed).Render(fmt.Sprintf("Errors: %d", s.Errors)),
		lipgloss.NewStyle().Foreground(ColorOrange).Render(fmt.Sprintf("Warnings: %d", s.Warnings)),
		latest,
	)
}
