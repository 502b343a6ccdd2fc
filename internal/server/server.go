// Package server exposes the prediction service over HTTP using gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/MariluHA/cognitive-risk-prediction/internal/predict"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes = 1 << 20

	requestIDHeader = "X-Request-ID"
)

// MetricsInterface defines metrics methods needed by the HTTP layer
type MetricsInterface interface {
	HTTPRequestsInc(route string, status int)
}

// Config holds HTTP server settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// StaticDir holds index.html and assets. Empty disables the web page.
	StaticDir string
	// Gatherer backs /metrics. Nil uses the default Prometheus registry.
	Gatherer prometheus.Gatherer
}

// Server provides the HTTP API for risk predictions
type Server struct {
	cfg     Config
	svc     *predict.Service
	metrics MetricsInterface
	router  *gin.Engine
	server  *http.Server
}

// New creates the server and wires its routes. metrics may be nil.
func New(cfg Config, svc *predict.Service, metrics MetricsInterface) *Server {
	s := &Server{cfg: cfg, svc: svc, metrics: metrics}

	router := gin.New()
	router.Use(
		requestLogger(),
		s.countRequests(),
		gin.CustomRecovery(recoverJSON),
		limitBodySize(MaxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept", requestIDHeader},
			MaxAge:       12 * time.Hour,
		}),
	)

	router.GET("/", s.handleIndex)
	if cfg.StaticDir != "" {
		router.Static("/static", cfg.StaticDir)
	}
	router.GET("/models", s.handleModels)
	router.POST("/predict", s.handlePredict)
	router.GET("/health", s.handleHealth)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	s.router = router
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving HTTP requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	log.Info().
		Str("addr", s.server.Addr).
		Str("static_dir", s.cfg.StaticDir).
		Msg("Starting prediction server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleIndex(c *gin.Context) {
	if s.cfg.StaticDir != "" {
		index := filepath.Join(s.cfg.StaticDir, "index.html")
		if info, err := os.Stat(index); err == nil && !info.IsDir() {
			c.File(index)
			return
		}
	}
	c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte("<h1>Error loading application</h1>"))
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		}
		event.
			Str("request_id", id).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}

func recoverJSON(c *gin.Context, recovered any) {
	log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("Handler panicked")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprint(recovered)})
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if s.metrics == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.HTTPRequestsInc(route, c.Writer.Status())
	}
}
