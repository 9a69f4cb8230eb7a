package httpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tinytelemetry/logiq/internal/dashboard"
	"github.com/tinytelemetry/logiq/internal/duckdb"
	"github.com/tinytelemetry/logiq/internal/logstore"
	"github.com/tinytelemetry/logiq/internal/model"
	"github.com/tinytelemetry/logiq/internal/observability"
)

// Options tunes the HTTP API.
type Options struct {
	QuickLimit     int       // default row count for quick filters
	Start          time.Time // date range used when a request omits start; zero = model.DefaultStartDate
	End            time.Time // date range used when a request omits end; zero = model.DefaultEndDate
	MetricsEnabled bool      // serve /metrics
	Logger         *slog.Logger
}

// Server provides an HTTP API for the LogIQ dashboard.
type Server struct {
	addr      string
	store     model.LogReader
	opts      Options
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, store model.LogReader, opts Options) *Server {
	if addr == "" {
		addr = "127.0.0.1:8501"
	}
	if opts.QuickLimit <= 0 {
		opts.QuickLimit = model.DefaultQuickLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		store:  store,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.GinMiddleware(s.opts.Logger))

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/schema", s.handleSchema)
	r.GET("/api/files", s.handleFiles)
	r.GET("/api/default-query", s.handleDefaultQuery)
	r.POST("/api/query", s.handleQuery)
	r.POST("/api/dashboard", s.handleDashboard)
	r.POST("/api/export", s.handleExport)
	if s.opts.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.opts.Logger.Error("http server stopped", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"uptime":   time.Since(s.startTime).String(),
		"base_dir": s.store.BaseDir(),
	})
}

func (s *Server) handleSchema(c *gin.Context) {
	schema, err := s.store.Schema(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(err))
		return
	}
	c.JSON(http.StatusOK, schema)
}

func (s *Server) handleFiles(c *gin.Context) {
	baseDir := s.store.BaseDir()
	files, err := logstore.Discover(baseDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if files == nil {
		files = []logstore.File{}
	}
	total := logstore.TotalSize(files)
	c.JSON(http.StatusOK, gin.H{
		"base_dir":       baseDir,
		"files":          files,
		"file_count":     len(files),
		"total_bytes":    total,
		"total_size":     logstore.HumanSize(total),
		"partition_keys": logstore.PartitionKeys(files),
	})
}

func (s *Server) handleDefaultQuery(c *gin.Context) {
	req := dashboardRequest{
		QuickFilter: c.Query("quick_filter"),
		Start:       c.Query("start"),
		End:         c.Query("end"),
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		req.Limit = n
	}

	filter, err := s.filterState(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sql": dashboard.BuildDefaultQuery(filter)})
}

func (s *Server) handleQuery(c *gin.Context) {
	var req struct {
		SQL string `json:"sql" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing sql field"})
		return
	}

	table, err := s.store.Execute(c.Request.Context(), req.SQL)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"columns":   table.Columns,
		"rows":      table.Rows,
		"row_count": table.Len(),
	})
}

func (s *Server) handleDashboard(c *gin.Context) {
	report, ok := s.runReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleExport(c *gin.Context) {
	report, ok := s.runReport(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := dashboard.WriteCSV(&buf, report.Table); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", model.DefaultExportName))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// runReport binds a dashboardRequest, runs it, and writes the error response
// itself when it fails.
func (s *Server) runReport(c *gin.Context) (dashboard.Report, bool) {
	var req dashboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return dashboard.Report{}, false
	}
	filter, err := s.filterState(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return dashboard.Report{}, false
	}

	report, err := dashboard.Run(c.Request.Context(), s.store, filter, req.SQL)
	if err != nil {
		body := errorBody(err)
		body["sql"] = report.SQL
		c.JSON(http.StatusBadRequest, body)
		return dashboard.Report{}, false
	}
	return report, true
}

// dashboardRequest is the UI filter state plus an optional SQL override.
type dashboardRequest struct {
	QuickFilter string `json:"quick_filter"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Limit       int    `json:"limit"`
	SQL         string `json:"sql"`
}

func (s *Server) filterState(ctx context.Context, req dashboardRequest) (model.FilterState, error) {
	quick, ok := model.ParseQuickFilter(req.QuickFilter)
	if !ok {
		return model.FilterState{}, fmt.Errorf("unknown quick_filter %q", req.QuickFilter)
	}
	filter := model.FilterState{QuickFilter: quick, Limit: req.Limit}
	if filter.Limit <= 0 {
		filter.Limit = s.opts.QuickLimit
	}

	var err error
	if filter.Start, err = parseDate("start", req.Start); err != nil {
		return model.FilterState{}, err
	}
	if filter.End, err = parseDate("end", req.End); err != nil {
		return model.FilterState{}, err
	}
	if filter.Start.IsZero() {
		filter.Start = s.opts.Start
	}
	if filter.End.IsZero() {
		filter.End = s.opts.End
	}

	if quick == model.QuickFilterLastErrors {
		// Unresolvable relations surface on the query itself.
		if columns, err := s.store.Columns(ctx); err == nil {
			for _, name := range columns {
				if strings.EqualFold(name, "severity") {
					filter.HasSeverityColumn = true
				}
			}
		}
	}
	return filter, nil
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(model.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a YYYY-MM-DD date", field)
	}
	return t, nil
}

func errorBody(err error) gin.H {
	body := gin.H{"error": err.Error()}
	var qerr *duckdb.QueryError
	if errors.As(err, &qerr) {
		body["kind"] = string(qerr.Kind)
	}
	return body
}
