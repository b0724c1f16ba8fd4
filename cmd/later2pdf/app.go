package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	later2pdf "github.com/alnah/go-later2pdf"
	"github.com/alnah/go-later2pdf/internal/config"
	"github.com/alnah/go-later2pdf/internal/imageopt"
	"github.com/alnah/go-later2pdf/internal/logging"
	"github.com/alnah/go-later2pdf/internal/metrics"
	"github.com/alnah/go-later2pdf/internal/source"
)

// Sentinel errors for CLI operations.
var (
	ErrInvalidFlags       = errors.New("invalid flags")
	ErrNoIDs              = errors.New("no article ids given")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrReadPreface        = errors.New("failed to read preface file")
	ErrInvalidTimeout     = errors.New("invalid timeout")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// app is what every command builds from configuration.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

// loadApp resolves configuration: defaults, then the config file, then
// the environment, then flags (CLI wins).
func loadApp(common *commonFlags, backend *backendFlags, env *Environment) (*app, error) {
	cfg := config.DefaultConfig()
	if common.config != "" {
		var err error
		cfg, err = config.LoadConfig(common.config)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	cfg.ApplyEnv(env.getenv)

	if backend.kind != "" {
		cfg.Backend.Kind = backend.kind
	}
	if backend.endpoint != "" {
		cfg.Backend.Endpoint = backend.endpoint
	}
	if backend.apiKey != "" {
		cfg.Backend.APIKey = backend.apiKey
	}

	switch {
	case common.verbose:
		cfg.Log.Level = "debug"
	case common.quiet:
		cfg.Log.Level = "error"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, env.Stderr)
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) credentials() source.Credentials {
	return source.Credentials{APIKey: a.cfg.Backend.APIKey}
}

func (a *app) newSource() (source.Source, error) {
	return source.New(a.cfg.Backend.Kind, source.Options{
		Endpoint:   a.cfg.Backend.Endpoint,
		HTTPClient: &http.Client{Timeout: seconds(a.cfg.Backend.TimeoutSeconds)},
		Logger:     a.logger,
	})
}

func (a *app) newImageOptimizer() *imageopt.Optimizer {
	return imageopt.New(
		imageopt.WithBounds(a.cfg.Images.MaxWidth, a.cfg.Images.MaxHeight),
		imageopt.WithQuality(a.cfg.Images.Quality),
		imageopt.WithTimeout(seconds(a.cfg.Images.TimeoutSeconds)),
		imageopt.WithLogger(a.logger),
		imageopt.WithObserver(metrics.RecordImage),
	)
}

// converterOptions maps configuration onto Converter options. The
// preface file is read here so a bad path fails before any fetch.
func (a *app) converterOptions() ([]later2pdf.Option, error) {
	c := a.cfg
	opts := []later2pdf.Option{
		later2pdf.WithLogger(a.logger),
		later2pdf.WithWorkers(c.Processing.Workers),
		later2pdf.WithAssetPath(c.Assets.BasePath),
		later2pdf.WithFontDir(c.Assets.FontDir),
		later2pdf.WithStyle(c.Assets.Style),
		later2pdf.WithTemplateSet(c.Assets.TemplateSet),
		later2pdf.WithDateFormat(c.Document.DateFormat),
		later2pdf.WithAuditLog(c.Audit.Path),
		later2pdf.WithImageFetcher(a.newImageOptimizer()),
	}

	if c.PDF.Compress {
		opts = append(opts, later2pdf.WithGhostscript(c.PDF.Ghostscript, seconds(c.PDF.TimeoutSeconds)))
	} else {
		opts = append(opts, later2pdf.WithoutCompression())
	}

	if c.Document.Preface != "" {
		data, err := os.ReadFile(c.Document.Preface) // #nosec G304 -- user-provided path
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadPreface, err)
		}
		opts = append(opts, later2pdf.WithPreface(string(data)))
	}
	return opts, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
