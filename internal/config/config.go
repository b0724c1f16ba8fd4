package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-later2pdf/internal/dateutil"
	"github.com/alnah/go-later2pdf/internal/fileutil"
	"github.com/alnah/go-later2pdf/internal/hints"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Environment variables that override the file.
const (
	EnvAPIKey   = "LATER2PDF_API_KEY"
	EnvBackend  = "LATER2PDF_BACKEND"
	EnvEndpoint = "LATER2PDF_ENDPOINT"
)

// Field length limits.
const (
	MaxURLLength    = 2048
	MaxPathLength   = 4096
	MaxAPIKeyLength = 512
	MaxFormatLength = 64
)

// Config holds all configuration for fetching and converting articles.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Backend    BackendConfig    `yaml:"backend"`
	Listing    ListingConfig    `yaml:"listing"`
	Document   DocumentConfig   `yaml:"document"`
	PDF        PDFConfig        `yaml:"pdf"`
	Images     ImagesConfig     `yaml:"images"`
	Processing ProcessingConfig `yaml:"processing"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Log        LogConfig        `yaml:"log"`
	Assets     AssetsConfig     `yaml:"assets"`
	Audit      AuditConfig      `yaml:"audit"`
}

// ServerConfig defines the HTTP server.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	ListPerMinute  int    `yaml:"listPerMinute"`  // per client IP
	ConvertPerHour int    `yaml:"convertPerHour"` // per client IP
	PoolSize       int    `yaml:"poolSize"`       // 0 = derived from GOMAXPROCS
}

// BackendConfig selects and locates the read-it-later service.
type BackendConfig struct {
	Kind           string `yaml:"kind"`     // "omnivore" or "readeck"
	Endpoint       string `yaml:"endpoint"` // empty = service default (required for readeck)
	APIKey         string `yaml:"apiKey"`   // usually set through LATER2PDF_API_KEY
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// ListingConfig defines listing behaviour.
type ListingConfig struct {
	MaxIndex int `yaml:"maxIndex"` // cap for the index page view
}

// DocumentConfig defines the generated document.
type DocumentConfig struct {
	Format     string `yaml:"format"` // "pdf" or "epub"
	TwoColumn  bool   `yaml:"twoColumn"`
	DateFormat string `yaml:"dateFormat"` // dateutil tokens, e.g. "YYYY-MM-DD"
	Preface    string `yaml:"preface"`    // Markdown file, optional
	OutputDir  string `yaml:"outputDir"`  // empty = current directory
}

// PDFConfig defines rendering and compression.
type PDFConfig struct {
	Compress       bool   `yaml:"compress"`
	Ghostscript    string `yaml:"ghostscript"` // binary name or path
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// ImagesConfig defines the image optimizer.
type ImagesConfig struct {
	MaxWidth       int `yaml:"maxWidth"`
	MaxHeight      int `yaml:"maxHeight"`
	Quality        int `yaml:"quality"` // JPEG quality 1-100
	TimeoutSeconds int `yaml:"timeoutSeconds"`
}

// ProcessingConfig defines the article worker pool.
type ProcessingConfig struct {
	Workers int `yaml:"workers"`
}

// ArchiveConfig defines post-conversion archiving.
type ArchiveConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig defines structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath    string `yaml:"basePath"` // empty = embedded assets
	FontDir     string `yaml:"fontDir"`  // directory of .ttf files, optional
	Style       string `yaml:"style"`
	TemplateSet string `yaml:"templateSet"`
}

// AuditConfig defines the converted-articles log.
type AuditConfig struct {
	Path string `yaml:"path"` // empty disables the audit log
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server:     ServerConfig{Addr: ":8080", ListPerMinute: 10, ConvertPerHour: 10},
		Backend:    BackendConfig{Kind: "omnivore", TimeoutSeconds: 30},
		Listing:    ListingConfig{MaxIndex: 10},
		Document:   DocumentConfig{Format: "pdf", DateFormat: "YYYY-MM-DD"},
		PDF:        PDFConfig{Compress: true, Ghostscript: "gs", TimeoutSeconds: 120},
		Images:     ImagesConfig{MaxWidth: 800, MaxHeight: 1000, Quality: 85, TimeoutSeconds: 5},
		Processing: ProcessingConfig{Workers: 5},
		Log:        LogConfig{Level: "info", Format: "text"},
		Assets:     AssetsConfig{Style: "default", TemplateSet: "default"},
		Audit:      AuditConfig{Path: filepath.Join("logs", "converted_articles.log")},
	}
}

// Validate checks enumerations, bounds and field lengths.
// Called by LoadConfig, but available for configs built in code.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Backend.Kind) {
	case "omnivore", "readeck":
	default:
		return fmt.Errorf("%w: backend.kind %q (must be omnivore or readeck)", ErrInvalidValue, c.Backend.Kind)
	}
	switch strings.ToLower(c.Document.Format) {
	case "pdf", "epub":
	default:
		return fmt.Errorf("%w: document.format %q (must be pdf or epub)", ErrInvalidValue, c.Document.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalidValue, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q (must be text or json)", ErrInvalidValue, c.Log.Format)
	}

	if c.Backend.Endpoint != "" {
		if err := validateFieldLength("backend.endpoint", c.Backend.Endpoint, MaxURLLength); err != nil {
			return err
		}
		u, err := url.Parse(c.Backend.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: backend.endpoint %q must be an http(s) URL", ErrInvalidValue, c.Backend.Endpoint)
		}
	}
	if err := validateFieldLength("backend.apiKey", c.Backend.APIKey, MaxAPIKeyLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.dateFormat", c.Document.DateFormat, MaxFormatLength); err != nil {
		return err
	}
	if _, err := dateutil.Layout(c.Document.DateFormat); err != nil {
		return fmt.Errorf("%w: document.dateFormat: %v", ErrInvalidValue, err)
	}
	for field, value := range map[string]string{
		"document.preface":   c.Document.Preface,
		"document.outputDir": c.Document.OutputDir,
		"pdf.ghostscript":    c.PDF.Ghostscript,
		"assets.basePath":    c.Assets.BasePath,
		"assets.fontDir":     c.Assets.FontDir,
		"audit.path":         c.Audit.Path,
	} {
		if err := validateFieldLength(field, value, MaxPathLength); err != nil {
			return err
		}
	}

	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return fmt.Errorf("%w: images.quality must be between 1 and 100, got %d", ErrInvalidValue, c.Images.Quality)
	}
	for field, v := range map[string]int{
		"server.listPerMinute":   c.Server.ListPerMinute,
		"server.convertPerHour":  c.Server.ConvertPerHour,
		"backend.timeoutSeconds": c.Backend.TimeoutSeconds,
		"listing.maxIndex":       c.Listing.MaxIndex,
		"pdf.timeoutSeconds":     c.PDF.TimeoutSeconds,
		"images.maxWidth":        c.Images.MaxWidth,
		"images.maxHeight":       c.Images.MaxHeight,
		"images.timeoutSeconds":  c.Images.TimeoutSeconds,
		"processing.workers":     c.Processing.Workers,
	} {
		if v < 1 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidValue, field, v)
		}
	}
	if c.Server.PoolSize < 0 {
		return fmt.Errorf("%w: server.poolSize must not be negative, got %d", ErrInvalidValue, c.Server.PoolSize)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// ApplyEnv overrides backend settings from the environment. getenv is
// usually os.Getenv; empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvAPIKey)); v != "" {
		c.Backend.APIKey = v
	}
	if v := strings.TrimSpace(getenv(EnvBackend)); v != "" {
		c.Backend.Kind = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv(EnvEndpoint)); v != "" {
		c.Backend.Endpoint = v
	}
}

// LoadConfig loads configuration from a file path or config name, on top
// of DefaultConfig. A value containing a path separator is a file path;
// otherwise it is a name searched in standard locations. A missing file
// is an error.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decodeStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigPath searches for name.yaml then name.yml in the current
// directory, then in the user config directory under go-later2pdf/.
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-later2pdf", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s%s", ErrConfigNotFound, strings.Join(triedPaths, ", "), hints.ForConfigNotFound(triedPaths))
}
