package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/patternd/internal/extract"
	"github.com/fyrsmithlabs/patternd/internal/library"
)

// Server exposes the pattern library over HTTP. All endpoints are
// read-only; the merge path stays operator-invoked through the CLI.
type Server struct {
	echo    *echo.Echo
	source  *Source
	logger  *zap.Logger
	config  *Config
	metrics *httpMetrics
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates the HTTP server.
func NewServer(source *Source, logger *zap.Logger, cfg *Config) (*Server, error) {
	if source == nil {
		return nil, errors.New("report source is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 9280}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s := &Server{
		echo:    e,
		source:  source,
		logger:  logger,
		config:  cfg,
		metrics: newHTTPMetrics(logger),
	}

	e.Use(s.requestLogger)
	s.registerRoutes()
	return s, nil
}

// requestLogger logs every request with timing and feeds the request
// counters.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		duration := time.Since(start)

		s.logger.Info("http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", duration),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
		s.metrics.record(c.Request().Context(), c.Request().Method, c.Path(), c.Response().Status, duration)
		return err
	}
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/report", s.handleReport)
	v1.GET("/coverage/:entity_type", s.handleTypeCoverage)
	v1.GET("/metadata", s.handleMetadata)
	v1.POST("/extract", s.handleExtract)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// TypeCoverageResponse is the response body for GET /api/v1/coverage/:entity_type.
type TypeCoverageResponse struct {
	EntityType    string   `json:"entity_type"`
	Covered       bool     `json:"covered"`
	PatternCount  int      `json:"pattern_count"`
	ConfidenceAvg float64  `json:"confidence_avg"`
	ExamplesCount int      `json:"examples_count"`
	Jurisdictions []string `json:"jurisdictions,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleReport(c echo.Context) error {
	report, err := s.source.Report()
	if err != nil {
		return s.sourceError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) handleTypeCoverage(c echo.Context) error {
	name := c.Param("entity_type")
	if !s.source.catalog.Contains(name) {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown entity type %q", name))
	}

	report, err := s.source.Report()
	if err != nil {
		return s.sourceError(c, err)
	}

	detail := report.TypeDetails[name]
	return c.JSON(http.StatusOK, TypeCoverageResponse{
		EntityType:    name,
		Covered:       detail.PatternCount > 0,
		PatternCount:  detail.PatternCount,
		ConfidenceAvg: detail.ConfidenceAvg,
		ExamplesCount: detail.ExamplesCount,
		Jurisdictions: detail.Jurisdictions,
	})
}

// ExtractRequest is the request body for POST /api/v1/extract.
type ExtractRequest struct {
	Text string `json:"text"`
}

// ExtractResponse is the response body for POST /api/v1/extract.
type ExtractResponse struct {
	Mentions []extract.Mention `json:"mentions"`
	Count    int               `json:"count"`
}

func (s *Server) handleExtract(c echo.Context) error {
	var req ExtractRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid extract request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text field is required")
	}

	extractor, err := s.source.Extractor()
	if err != nil {
		return s.sourceError(c, err)
	}

	mentions := extractor.Extract(req.Text)
	if mentions == nil {
		mentions = []extract.Mention{}
	}
	return c.JSON(http.StatusOK, ExtractResponse{Mentions: mentions, Count: len(mentions)})
}

func (s *Server) handleMetadata(c echo.Context) error {
	meta, err := s.source.Metadata()
	if err != nil {
		return s.sourceError(c, err)
	}
	return c.JSON(http.StatusOK, meta)
}

// sourceError maps document-loading failures onto HTTP statuses. A
// malformed document is a server-side data problem, not a client error.
func (s *Server) sourceError(c echo.Context, err error) error {
	s.logger.Error("failed to load pattern document", zap.Error(err))
	if errors.Is(err, library.ErrStructuralMismatch) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "pattern document is malformed")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "pattern document unavailable")
}

// Echo returns the underlying echo instance for route additions in main.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
