package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/logiq/internal/model"
)

type fakeReader struct {
	table   model.Table
	err     error
	columns []string
	queries []string
}

func (f *fakeReader) Execute(_ context.Context, sql string) (model.Table, error) {
	f.queries = append(f.queries, sql)
	if f.err != nil {
		return model.Table{}, f.err
	}
	return f.table, nil
}

func (f *fakeReader) Schema(context.Context) (model.Table, error) { return model.Table{}, nil }

func (f *fakeReader) Columns(context.Context) ([]string, error) { return f.columns, nil }

func (f *fakeReader) BaseDir() string { return "/data/logs" }

func sampleTable() model.Table {
	return model.Table{
		Columns: []model.Column{{Name: "timestamp", Type: "VARCHAR"}, {Name: "content", Type: "VARCHAR"}},
		Rows: [][]any{
			{"2025-03-01 10:00:00", "ERROR connection refused"},
			{"2025-03-01 09:00:00", "WARNING disk almost full"},
			{"2025-03-01 08:00:00", "INFO started"},
		},
	}
}

// collect runs cmd and every command nested in batches, returning the
// messages they produce.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findQueryDone(t *testing.T, cmd tea.Cmd) queryDoneMsg {
	t.Helper()
	for _, msg := range collect(cmd) {
		if done, ok := msg.(queryDoneMsg); ok {
			return done
		}
	}
	t.Fatal("command produced no queryDoneMsg")
	return queryDoneMsg{}
}

func newTestPage(t *testing.T, reader *fakeReader) *DashboardPage {
	t.Helper()
	p := NewDashboardPage(DashboardConfig{
		Reader:     reader,
		QuickLimit: 10,
		ExportPath: filepath.Join(t.TempDir(), "out", "results.csv"),
	})
	p.Update(tea.WindowSizeMsg{Width: 120, Height: 50})
	return p
}

func runInit(t *testing.T, p *DashboardPage) {
	t.Helper()
	done := findQueryDone(t, p.Init())
	p.Update(done)
}

func TestDashboardEditorPrefilledWithDefaultQuery(t *testing.T) {
	p := newTestPage(t, &fakeReader{table: sampleTable()})

	got := p.editor.Value()
	if !strings.Contains(got, "BETWEEN '2025-01-01' AND '2025-12-31'") {
		t.Errorf("editor = %q, want default date range query", got)
	}
}

func TestDashboardInitRunsDefaultQuery(t *testing.T) {
	reader := &fakeReader{table: sampleTable()}
	p := newTestPage(t, reader)

	runInit(t, p)

	if !p.hasReport {
		t.Fatal("expected a report after the initial query")
	}
	if p.running {
		t.Error("running should be false after completion")
	}
	if len(reader.queries) != 1 {
		t.Fatalf("queries = %d, want 1", len(reader.queries))
	}
	if p.report.Summary.Total != 3 || p.report.Summary.Errors != 1 || p.report.Summary.Warnings != 1 {
		t.Errorf("summary = %+v", p.report.Summary)
	}

	view := p.View(120, 50)
	for _, want := range []string{"Rows: 3", "Errors: 1", "Warnings: 1", "connection refused", "TOTAL"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDashboardRejectsConcurrentRun(t *testing.T) {
	p := newTestPage(t, &fakeReader{table: sampleTable()})

	first := p.run("SELECT 1")
	if first == nil {
		t.Fatal("first run should start a query")
	}
	if second := p.run("SELECT 2"); second != nil {
		t.Error("second run should be rejected while the first is in flight")
	}
	if !strings.Contains(p.status, "already running") {
		t.Errorf("status = %q", p.status)
	}

	p.Update(findQueryDone(t, first))
	if p.running {
		t.Error("running should clear once the query finishes")
	}
}

func TestDashboardIgnoresStaleResult(t *testing.T) {
	p := newTestPage(t, &fakeReader{table: sampleTable()})
	runInit(t, p)

	p.Update(queryDoneMsg{seq: p.runSeq - 1, err: errors.New("late failure")})
	if p.lastErr != nil {
		t.Errorf("stale result applied: %v", p.lastErr)
	}
}

func TestDashboardLastErrors(t *testing.T) {
	reader := &fakeReader{table: sampleTable(), columns: []string{"timestamp", "content"}}
	p := newTestPage(t, reader)

	cmd, nav := p.Update(tea.KeyMsg{Type: tea.KeyF2})
	if nav != nil {
		t.Fatalf("unexpected navigation to %q", nav.PageID)
	}
	p.Update(findQueryDone(t, cmd))

	sql := reader.queries[len(reader.queries)-1]
	if !strings.Contains(sql, "regexp_matches") || !strings.Contains(sql, "LIMIT 10") {
		t.Errorf("sql = %q", sql)
	}
	if p.editor.Value() != sql {
		t.Errorf("editor = %q, want generated sql", p.editor.Value())
	}
	if p.report.Table.Len() != 1 {
		t.Fatalf("rows = %d, want only the ERROR row", p.report.Table.Len())
	}
}

func TestDashboardLastErrorsUsesSeverityColumn(t *testing.T) {
	reader := &fakeReader{table: sampleTable(), columns: []string{"content", "severity"}}
	p := newTestPage(t, reader)

	cmd, _ := p.Update(tea.KeyMsg{Type: tea.KeyF2})
	findQueryDone(t, cmd)

	sql := reader.queries[len(reader.queries)-1]
	if !strings.Contains(sql, "severity") {
		t.Errorf("sql = %q, want severity column filter", sql)
	}
}

func TestDashboardQueryError(t *testing.T) {
	reader := &fakeReader{err: errors.New("Parser Error: syntax error")}
	p := newTestPage(t, reader)

	runInit(t, p)

	if p.lastErr == nil {
		t.Fatal("expected lastErr")
	}
	if !strings.Contains(p.View(120, 50), "Parser Error") {
		t.Error("view should show the query error")
	}

	// The next run clears the error.
	reader.err = nil
	reader.table = sampleTable()
	cmd, _ := p.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	p.Update(findQueryDone(t, cmd))
	if p.lastErr != nil || !p.hasReport {
		t.Errorf("lastErr = %v, hasReport = %v", p.lastErr, p.hasReport)
	}
}

func TestDashboardDateRangeValidation(t *testing.T) {
	reader := &fakeReader{table: sampleTable()}
	p := newTestPage(t, reader)

	p.startInput.SetValue("03/01/2025")
	cmd, _ := p.Update(tea.KeyMsg{Type: tea.KeyF3})
	if cmd != nil {
		t.Error("invalid date should not start a query")
	}
	if p.lastErr == nil {
		t.Fatal("expected a validation error")
	}

	p.startInput.SetValue("2025-03-01")
	p.endInput.SetValue("2025-03-02")
	cmd, _ = p.Update(tea.KeyMsg{Type: tea.KeyF3})
	p.Update(findQueryDone(t, cmd))
	sql := reader.queries[len(reader.queries)-1]
	if !strings.Contains(sql, "BETWEEN '2025-03-01' AND '2025-03-02'") {
		t.Errorf("sql = %q", sql)
	}
}

func TestDashboardExport(t *testing.T) {
	p := newTestPage(t, &fakeReader{table: sampleTable()})

	if cmd, _ := p.Update(tea.KeyMsg{Type: tea.KeyCtrlS}); cmd != nil {
		t.Fatal("export before any result should be refused")
	}

	runInit(t, p)
	cmd, _ := p.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	msgs := collect(cmd)
	if len(msgs) != 1 {
		t.Fatalf("msgs = %d, want 1", len(msgs))
	}
	p.Update(msgs[0])
	if p.lastErr != nil {
		t.Fatalf("export error: %v", p.lastErr)
	}

	data, err := os.ReadFile(p.cfg.ExportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "timestamp,content,severity" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 4 {
		t.Errorf("lines = %d, want 4", len(lines))
	}
	if !strings.Contains(p.status, "exported 3 rows") {
		t.Errorf("status = %q", p.status)
	}
}

func TestDashboardQuitOnlyFromResults(t *testing.T) {
	p := newTestPage(t, &fakeReader{table: sampleTable()})
	q := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}

	p.Update(q)
	if !strings.HasSuffix(p.editor.Value(), "q") {
		t.Error("q in the editor should be typed")
	}

	p.setFocus(focusResults)
	cmd, _ := p.Update(q)
	if cmd == nil {
		t.Fatal("q on results should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestDashboardFocusCycle(t *testing.T) {
	p := newTestPage(t, &fakeReader{})

	for _, want := range []focusArea{focusStart, focusEnd, focusResults, focusEditor} {
		p.Update(tea.KeyMsg{Type: tea.KeyTab})
		if p.focus != want {
			t.Fatalf("focus = %d, want %d", p.focus, want)
		}
	}
	p.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if p.focus != focusResults {
		t.Errorf("focus = %d, want results", p.focus)
	}
}

func TestDashboardScrollClamped(t *testing.T) {
	p := newTestPage(t, &fakeReader{table: sampleTable()})
	runInit(t, p)
	p.setFocus(focusResults)

	p.Update(tea.KeyMsg{Type: tea.KeyUp})
	if p.offset != 0 {
		t.Errorf("offset = %d, want 0", p.offset)
	}
	p.Update(tea.KeyMsg{Type: tea.KeyEnd})
	if p.offset != 0 {
		t.Errorf("offset = %d, want 0 when all rows fit", p.offset)
	}
}

func TestDashboardCancel(t *testing.T) {
	p := newTestPage(t, &fakeReader{table: sampleTable()})
	cmd := p.run("SELECT 1")

	p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.status != "cancelling query" {
		t.Errorf("status = %q", p.status)
	}
	p.Update(findQueryDone(t, cmd))
	if p.running {
		t.Error("running should clear after the cancelled query returns")
	}
}

func TestAppNavigation(t *testing.T) {
	base := t.TempDir()
	dash := NewDashboardPage(DashboardConfig{Reader: &fakeReader{table: sampleTable()}})
	files := NewFilesPage(func() string { return base })
	app := NewApp(dash, files)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	if app.ActivePage() != DashboardPageID {
		t.Fatalf("active = %q", app.ActivePage())
	}

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyF4})
	if app.ActivePage() != FilesPageID {
		t.Fatalf("active = %q, want files", app.ActivePage())
	}
	for _, msg := range collect(cmd) {
		app.Update(msg)
	}
	if !strings.Contains(app.View(), "No parquet files found") {
		t.Errorf("files view = %q", app.View())
	}

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if app.ActivePage() != DashboardPageID {
		t.Errorf("active = %q, want dashboard", app.ActivePage())
	}
}

func TestAppForceQuit(t *testing.T) {
	called := false
	app := NewApp(NewDashboardPage(DashboardConfig{Reader: &fakeReader{}}))
	app.OnQuit(func() { called = true })

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if !called {
		t.Error("quit hook not called")
	}
}

func TestDashboardSummaryLatestTime(t *testing.T) {
	p := newTestPage(t, &fakeReader{table: sampleTable()})
	runInit(t, p)

	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC).Format("2006-01-02 15:04:05")
	if !strings.Contains(p.summaryLine(), want) {
		t.Errorf("summary = %q, want latest %s", p.summaryLine(), want)
	}
}
