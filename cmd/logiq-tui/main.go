package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/logiq/internal/duckdb"
	"github.com/tinytelemetry/logiq/internal/observability"
	"github.com/tinytelemetry/logiq/internal/tui"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var baseDir string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/logiq/config.yml)")
	flag.StringVar(&baseDir, "base-dir", "", "override the parquet base directory")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("LogIQ TUI - Parquet Log Dashboard\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if baseDir != "" {
		cfg.BaseDir = baseDir
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg cliConfig) error {
	logger, cleanupLogger := configureRuntimeLogger(cfg.LogLevel)
	defer cleanupLogger()

	engine, err := duckdb.NewEngine(context.Background(), duckdb.Config{
		BaseDir:      cfg.BaseDir,
		QueryTimeout: cfg.QueryTimeout,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	defer engine.Close()

	dashPage := tui.NewDashboardPage(tui.DashboardConfig{
		Reader:     engine,
		QuickLimit: cfg.QuickLimit,
		ExportPath: cfg.ExportPath,
		Start:      cfg.StartDate,
		End:        cfg.EndDate,
		Logger:     logger,
	})
	filesPage := tui.NewFilesPage(engine.BaseDir)
	app := tui.NewApp(dashPage, filesPage)
	app.OnQuit(dashPage.Cancel)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// configureRuntimeLogger sends logs to a state file so they do not draw over
// the terminal UI.
func configureRuntimeLogger(level string) (*slog.Logger, func()) {
	cfg := observability.LoggerConfig{Service: "logiq-tui", Level: level}

	home, err := os.UserHomeDir()
	if err != nil {
		return observability.NewLogger(cfg, nil), func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "logiq")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return observability.NewLogger(cfg, nil), func() {}
	}

	logPath := filepath.Join(logDir, "logiq-tui.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return observability.NewLogger(cfg, nil), func() {}
	}

	return observability.NewLogger(cfg, f), func() {
		_ = f.Close()
	}
}
