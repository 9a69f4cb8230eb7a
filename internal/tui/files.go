package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tinytelemetry/logiq/internal/logstore"
)

// FilesPageID identifies the Parquet file listing page.
const FilesPageID = "files"

type filesLoadedMsg struct {
	files []logstore.File
	err   error
}

// FilesPage lists the Parquet files under the base directory.
type FilesPage struct {
	baseDir func() string
	keys    KeyMap
	files   []logstore.File
	err     error
	loaded  bool
	offset  int
	height  int
}

// NewFilesPage creates the listing page. baseDir is read on every visit so
// the listing follows re-registration.
func NewFilesPage(baseDir func() string) *FilesPage {
	return &FilesPage{baseDir: baseDir, keys: DefaultKeyMap()}
}

func (p *FilesPage) ID() string { return FilesPageID }

// Init rescans the directory.
func (p *FilesPage) Init() tea.Cmd {
	p.loaded = false
	dir := p.baseDir()
	return func() tea.Msg {
		files, err := logstore.Discover(dir)
		return filesLoadedMsg{files: files, err: err}
	}
}

func (p *FilesPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.height = msg.Height
	case filesLoadedMsg:
		p.files, p.err, p.loaded = msg.files, msg.err, true
		p.offset = 0
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Escape), key.Matches(msg, p.keys.Files), key.Matches(msg, p.keys.Quit):
			return nil, &PageNav{PageID: DashboardPageID}
		case key.Matches(msg, p.keys.Up):
			p.offset = clampOffset(p.offset-1, len(p.files), p.listHeight())
		case key.Matches(msg, p.keys.Down):
			p.offset = clampOffset(p.offset+1, len(p.files), p.listHeight())
		}
	}
	return nil, nil
}

func (p *FilesPage) listHeight() int {
	return max(p.height-6, 3)
}

func (p *FilesPage) View(width, height int) string {
	if height > 0 {
		p.height = height
	}
	title := chartTitleStyle.Render("Parquet files") + helpStyle.Render("  "+p.baseDir())
	footer := helpLine(p.keys.Escape, p.keys.Up, p.keys.Down, p.keys.ForceQuit)

	var body string
	switch {
	case !p.loaded:
		body = renderLoadingPlaceholder(max(width-4, 20), 3)
	case p.err != nil:
		body = errorStyle.Render("error: " + p.err.Error())
	case len(p.files) == 0:
		body = helpStyle.Render("No parquet files found")
	default:
		body = p.renderList(max(width-4, 20))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		sectionStyle.Width(max(width-2, 20)).Render(body),
		footer,
	)
}

func (p *FilesPage) renderList(width int) string {
	h := p.listHeight()
	offset := clampOffset(p.offset, len(p.files), h)
	end := min(offset+h, len(p.files))

	lines := make([]string, 0, end-offset+2)
	for _, f := range p.files[offset:end] {
		size := fmt.Sprintf("%10s", logstore.HumanSize(f.Size))
		modified := humanize.Time(f.ModTime)
		name := truncate(f.RelPath, max(width-len(size)-len(modified)-4, 10))
		lines = append(lines, fmt.Sprintf("%s  %s  %s", size, name, helpStyle.Render(modified)))
	}

	total := logstore.TotalSize(p.files)
	lines = append(lines, "", helpStyle.Render(fmt.Sprintf(
		"%d files, %s, partitions: %s",
		len(p.files), logstore.HumanSize(total), partitionSummary(p.files),
	)))
	return strings.Join(lines, "\n")
}

// partitionSummary renders "key(n)" for each partition key with its number
// of distinct values.
func partitionSummary(files []logstore.File) string {
	keys := logstore.PartitionKeys(files)
	if len(keys) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		values := make(map[string]struct{})
		for _, f := range files {
			if v, ok := f.Partitions[k]; ok {
				values[v] = struct{}{}
			}
		}
		parts = append(parts, fmt.Sprintf("%s(%d)", k, len(values)))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
