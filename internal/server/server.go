// Package server exposes the converter over HTTP with echo.
//
// Routes:
//
//	POST /api/articles       list saved articles
//	POST /api/convert        build a PDF or EPUB and stream it back
//	GET  /api/progress/:id   server-sent progress events for one request
//	GET  /healthz            liveness
//	GET  /metrics            Prometheus metrics
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	later2pdf "github.com/alnah/go-later2pdf"
	"github.com/alnah/go-later2pdf/internal/article"
	"github.com/alnah/go-later2pdf/internal/logging"
	"github.com/alnah/go-later2pdf/internal/progress"
	"github.com/alnah/go-later2pdf/internal/source"
)

// Defaults applied when Config leaves a field at zero.
const (
	DefaultListPerMinute  = 10
	DefaultConvertPerHour = 10
	DefaultMaxIndex       = 10
	bodyLimit             = "1M"
	shutdownTimeout       = 10 * time.Second
)

// Lister lists saved articles. source.Source satisfies it.
type Lister interface {
	List(ctx context.Context, creds source.Credentials, q source.Query) ([]article.Summary, error)
}

// Converter produces one document per request.
type Converter interface {
	Convert(ctx context.Context, req later2pdf.Request) (*later2pdf.Result, error)
}

// PoolConverter runs each request on a converter borrowed from Pool.
type PoolConverter struct {
	Pool *later2pdf.ConverterPool
}

// Convert validates req, acquires a converter, runs req and returns the
// converter to the pool. Invalid requests never wait for a converter.
func (p PoolConverter) Convert(ctx context.Context, req later2pdf.Request) (*later2pdf.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	conv, err := p.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Pool.Release(conv)
	return conv.Convert(ctx, req)
}

var (
	_ Lister    = (source.Source)(nil)
	_ Converter = PoolConverter{}
	_ Converter = (*later2pdf.Converter)(nil)
)

// Config holds route limits.
type Config struct {
	ListPerMinute  int // per client IP
	ConvertPerHour int // per client IP
	MaxIndex       int // cap for page_type "index"
}

func (c Config) withDefaults() Config {
	if c.ListPerMinute <= 0 {
		c.ListPerMinute = DefaultListPerMinute
	}
	if c.ConvertPerHour <= 0 {
		c.ConvertPerHour = DefaultConvertPerHour
	}
	if c.MaxIndex <= 0 {
		c.MaxIndex = DefaultMaxIndex
	}
	return c
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithHub sets the progress hub shared by convert and progress routes.
func WithHub(h *progress.Hub) Option {
	return func(s *Server) { s.hub = h }
}

// Server wires the HTTP routes to a Lister and a Converter.
type Server struct {
	echo   *echo.Echo
	lister Lister
	conv   Converter
	hub    *progress.Hub
	logger *slog.Logger
	cfg    Config
}

// New builds the server. Rate limiter housekeeping stops when ctx is done.
func New(ctx context.Context, cfg Config, lister Lister, conv Converter, opts ...Option) *Server {
	s := &Server{
		lister: lister,
		conv:   conv,
		cfg:    cfg.withDefaults(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDefault(s.logger)
	if s.hub == nil {
		s.hub = progress.NewHub(progress.DefaultBuffer)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				s.logger.Error("request failed", append(attrs, "error", v.Error.Error())...)
				return nil
			}
			s.logger.Info("request completed", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))

	listLimit := PerWindow(ctx, "articles", s.cfg.ListPerMinute, time.Minute)
	convertLimit := PerWindow(ctx, "convert", s.cfg.ConvertPerHour, time.Hour)

	e.POST("/api/articles", s.handleList, listLimit.Middleware())
	e.POST("/api/convert", s.handleConvert, convertLimit.Middleware())
	e.GET("/api/progress/:id", s.handleProgress)
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo = e
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Hub returns the progress hub.
func (s *Server) Hub() *progress.Hub {
	return s.hub
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

type errorResponse struct {
	Error string `json:"error"`
}

// errorHandler renders every error as {"error": "..."}.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorResponse{Error: msg})
	}
	if err != nil {
		s.logger.Error("writing error response", "error", err)
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
