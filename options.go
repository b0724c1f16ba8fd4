package later2pdf

import (
	"log/slog"
	"time"
)

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout         time.Duration
	workers         int
	assetPath       string
	fontDir         string
	style           string
	templateSet     string
	noCover         bool
	preface         string
	dateFormat      string
	compress        bool
	ghostscript     string
	compressTimeout time.Duration
	auditPath       string
}

// defaultTimeout bounds page loading when the context has no deadline.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the page load timeout of the PDF renderer.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("later2pdf: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = l
	}
}

// WithWorkers sets how many articles are processed concurrently.
func WithWorkers(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.cfg.workers = n
		}
	}
}

// WithAssetPath overrides embedded styles, templates and images with
// files from dir. Missing files fall back to the embedded copies.
func WithAssetPath(dir string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = dir
	}
}

// WithFontDir inlines the TrueType fonts found in dir.
func WithFontDir(dir string) Option {
	return func(c *Converter) {
		c.cfg.fontDir = dir
	}
}

// WithStyle selects the stylesheet by name.
func WithStyle(name string) Option {
	return func(c *Converter) {
		c.cfg.style = name
	}
}

// WithTemplateSet selects the document templates by name.
func WithTemplateSet(name string) Option {
	return func(c *Converter) {
		c.cfg.templateSet = name
	}
}

// WithoutCover omits the cover page.
func WithoutCover() Option {
	return func(c *Converter) {
		c.cfg.noCover = true
	}
}

// WithPreface adds a Markdown preface after the table of contents, or as
// the first chapter of an EPUB.
func WithPreface(markdown string) Option {
	return func(c *Converter) {
		c.cfg.preface = markdown
	}
}

// WithDateFormat sets the date format of document titles (dateutil tokens
// or a preset name).
func WithDateFormat(format string) Option {
	return func(c *Converter) {
		c.cfg.dateFormat = format
	}
}

// WithGhostscript configures PDF compression. An empty binary keeps "gs".
func WithGhostscript(binary string, timeout time.Duration) Option {
	return func(c *Converter) {
		c.cfg.compress = true
		c.cfg.ghostscript = binary
		c.cfg.compressTimeout = timeout
	}
}

// WithoutCompression disables the Ghostscript pass.
func WithoutCompression() Option {
	return func(c *Converter) {
		c.cfg.compress = false
		c.compressor = nil
	}
}

// WithCompressor replaces the Ghostscript compressor.
func WithCompressor(comp Compressor) Option {
	return func(c *Converter) {
		c.compressor = comp
	}
}

// WithRenderer replaces the headless Chrome renderer.
func WithRenderer(r Renderer) Option {
	return func(c *Converter) {
		c.renderer = r
	}
}

// WithImageFetcher sets the image source used by the renderer and for
// EPUB embedding.
func WithImageFetcher(f ImageFetcher) Option {
	return func(c *Converter) {
		c.images = f
	}
}

// WithAuditLog appends converted titles and URLs to the file at path.
func WithAuditLog(path string) Option {
	return func(c *Converter) {
		c.cfg.auditPath = path
	}
}
