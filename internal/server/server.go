// Package server exposes the budget service over HTTP: an HTML page, a JSON
// API, and a server-sent event stream.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/rab/internal/budget"
	"github.com/theirongolddev/rab/internal/ingest"
	"github.com/theirongolddev/rab/internal/logging"
)

// Config controls the HTTP runtime.
type Config struct {
	Addr        string
	Title       string
	Logger      logrus.FieldLogger
	ShutdownTTL time.Duration
}

// Server serves one budget service.
type Server struct {
	cfg    Config
	svc    *budget.Service
	log    logrus.FieldLogger
	engine *gin.Engine
}

// New builds the router. Call gin.SetMode before New to change gin's mode.
func New(svc *budget.Service, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if cfg.ShutdownTTL <= 0 {
		cfg.ShutdownTTL = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	s := &Server{cfg: cfg, svc: svc, log: cfg.Logger}

	r := gin.New()
	r.MaxMultipartMemory = ingest.MaxUploadSize
	r.Use(gin.Recovery(), requestLogger(cfg.Logger))

	r.GET("/healthz", s.handleHealth)

	r.GET("/", s.handlePage)
	r.POST("/items", s.handleFormAdd)
	r.POST("/items/:id/delete", s.handleFormDelete)
	r.POST("/upload", s.handleFormUpload)
	r.POST("/error/clear", s.handleFormClearError)

	v1 := r.Group("/v1")
	{
		v1.GET("/items", s.handleListItems)
		v1.POST("/items", s.handleAddItem)
		v1.DELETE("/items/:id", s.handleDeleteItem)
		v1.POST("/upload", s.handleUpload)
		v1.GET("/summary", s.handleSummary)
		v1.GET("/status", s.handleStatus)
		v1.GET("/events", s.handleEvents)
		v1.GET("/stream", s.handleStream)
		v1.GET("/export/xlsx", s.handleExportXLSX)
		v1.GET("/export/pdf", s.handleExportPDF)
	}

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		// Streams end when ctx is canceled, so Shutdown does not wait on them.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.WithField("addr", s.cfg.Addr).Info("rab server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTTL)
		defer cancel()
		s.log.Info("rab server shutting down")
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("rab http server: %w", err)
	}
}

// requestLogger logs one line per request.
func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Round(time.Microsecond),
			"client":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Warn("request")
			return
		}
		entry.Debug("request")
	}
}
