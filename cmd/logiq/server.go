package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/logiq/internal/duckdb"
	"github.com/tinytelemetry/logiq/internal/httpserver"
	"github.com/tinytelemetry/logiq/internal/logstore"
	"github.com/tinytelemetry/logiq/internal/observability"
)

// runServer registers the parquet tree and serves the HTTP dashboard API
// until SIGINT or SIGTERM.
func runServer(cfg appConfig) error {
	logger := observability.NewLogger(observability.LoggerConfig{
		Service: "logiq",
		Level:   cfg.LogLevel,
		JSON:    cfg.LogJSON,
	}, os.Stderr)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine, err := duckdb.NewEngine(ctx, duckdb.Config{
		BaseDir:      cfg.BaseDir,
		QueryTimeout: cfg.QueryTimeout,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	defer engine.Close()

	gin.SetMode(gin.ReleaseMode)
	apiServer := httpserver.NewServer(cfg.APIAddr, engine, serverOptions(cfg, logger))
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	files, err := logstore.Discover(cfg.BaseDir)
	if err != nil {
		logger.Warn("parquet discovery failed", slog.String("base_dir", cfg.BaseDir), slog.String("error", err.Error()))
	}
	printStartupBanner(cfg, files)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now, not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return apiServer.Stop()
	})

	if err := g.Wait(); err != nil {
		logger.Error("server: shutdown error", slog.String("error", err.Error()))
	}

	signal.Stop(sigCh)
	return nil
}

func serverOptions(cfg appConfig, logger *slog.Logger) httpserver.Options {
	return httpserver.Options{
		QuickLimit:     cfg.QuickLimit,
		Start:          cfg.StartDate,
		End:            cfg.EndDate,
		MetricsEnabled: cfg.MetricsEnabled,
		Logger:         logger,
	}
}

func printStartupBanner(cfg appConfig, files []logstore.File) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")
	warn := yellow.Render("●")

	logo := cyan.Bold(true).Render(`
    ╦  ╔═╗╔═╗╦╔═╗
    ║  ║ ║║ ╦║║ ║
    ╩═╝╚═╝╚═╝╩╚═╩`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	if cfg.MetricsEnabled {
		lines = append(lines, fmt.Sprintf("    %s  Metrics        %s", check, cyan.Render(cfg.APIAddr+"/metrics")))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Metrics        %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Storage"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  Base Dir       %s", check, dim.Render(shortenPath(cfg.BaseDir))))
	if len(files) > 0 {
		size := logstore.HumanSize(logstore.TotalSize(files))
		lines = append(lines, fmt.Sprintf("    %s  Parquet Files  %s", check, dim.Render(fmt.Sprintf("%d (%s)", len(files), size))))
		if keys := logstore.PartitionKeys(files); len(keys) > 0 {
			lines = append(lines, fmt.Sprintf("    %s  Partitions     %s", check, dim.Render(strings.Join(keys, ", "))))
		}
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Parquet Files  %s", warn, dim.Render("none yet (queries on logs will fail)")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Runtime"))
	lines = append(lines, "")
	timeout := "none"
	if cfg.QueryTimeout > 0 {
		timeout = cfg.QueryTimeout.String()
	}
	lines = append(lines, fmt.Sprintf("    %s  Query Timeout  %s", check, dim.Render(timeout)))
	lines = append(lines, fmt.Sprintf("    %s  Quick Limit    %s", check, dim.Render(fmt.Sprintf("%d rows", cfg.QuickLimit))))

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
