// Package imageopt fetches remote images and re-encodes them as bounded,
// compressed JPEG so rendered documents stay small.
package imageopt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

// Defaults for the optimizer.
const (
	DefaultMaxWidth  = 800
	DefaultMaxHeight = 1000
	DefaultQuality   = 85
	DefaultTimeout   = 5 * time.Second
	DefaultMaxBytes  = 20 << 20 // refuse larger downloads
	DefaultMaxPixels = 40_000_000

	// MimeType is the content type of every optimized image.
	MimeType = "image/jpeg"
)

// Sentinel errors for optimizer operations.
var (
	ErrEmptyImage  = errors.New("empty image data")
	ErrFetch       = errors.New("image fetch failed")
	ErrDecode      = errors.New("image decode failed")
	ErrEncode      = errors.New("image encode failed")
	ErrImageTooBig = errors.New("image exceeds download limit")
	ErrTooManyPx   = errors.New("image exceeds pixel limit")
)

// Optimizer downloads and re-encodes images. Safe for concurrent use.
type Optimizer struct {
	client    *http.Client
	maxWidth  int
	maxHeight int
	quality   int
	timeout   time.Duration
	maxBytes  int64
	maxPixels int
	logger    *slog.Logger
	observe   func(ok bool)
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Optimizer) { o.client = c }
}

// WithBounds sets the maximum output dimensions. Non-positive values keep the default.
func WithBounds(maxWidth, maxHeight int) Option {
	return func(o *Optimizer) {
		if maxWidth > 0 {
			o.maxWidth = maxWidth
		}
		if maxHeight > 0 {
			o.maxHeight = maxHeight
		}
	}
}

// WithQuality sets the JPEG quality (1-100). Out of range values keep the default.
func WithQuality(q int) Option {
	return func(o *Optimizer) {
		if q >= 1 && q <= 100 {
			o.quality = q
		}
	}
}

// WithTimeout sets the per-image fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Optimizer) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxPixels caps the decoded width*height. Non-positive values keep the default.
func WithMaxPixels(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.maxPixels = n
		}
	}
}

// WithLogger sets the logger used for dropped images.
func WithLogger(l *slog.Logger) Option {
	return func(o *Optimizer) { o.logger = l }
}

// WithObserver registers a callback invoked once per Fetch with its outcome.
func WithObserver(fn func(ok bool)) Option {
	return func(o *Optimizer) { o.observe = fn }
}

// New creates an Optimizer with defaults 800x1000, quality 85, 5s timeout.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{
		client:    http.DefaultClient,
		maxWidth:  DefaultMaxWidth,
		maxHeight: DefaultMaxHeight,
		quality:   DefaultQuality,
		timeout:   DefaultTimeout,
		maxBytes:  DefaultMaxBytes,
		maxPixels: DefaultMaxPixels,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Fetch downloads rawURL and re-encodes it. ok is false on any failure,
// meaning the caller should fall back to its default handling.
func (o *Optimizer) Fetch(ctx context.Context, rawURL string) (data []byte, mimeType string, ok bool) {
	data, err := o.fetchAndOptimize(ctx, rawURL)
	if o.observe != nil {
		o.observe(err == nil)
	}
	if err != nil {
		o.logger.Warn("image not optimized", "url", rawURL, "error", err)
		return nil, "", false
	}
	return data, MimeType, true
}

func (o *Optimizer) fetchAndOptimize(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, o.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if int64(len(raw)) > o.maxBytes {
		return nil, ErrImageTooBig
	}

	return o.Optimize(raw)
}

// Optimize decodes data, downsamples it to fit the configured bounds and
// re-encodes it as JPEG. Images whose header declares more pixels than the
// configured limit are refused before decoding. Transparent areas are flattened onto white.
func (o *Optimizer) Optimize(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(o.maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPx, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	src := img.Bounds()
	w, h := Fit(src.Dx(), src.Dy(), o.maxWidth, o.maxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: o.quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// Fit returns the largest dimensions no bigger than maxW x maxH that keep
// the w:h aspect ratio. Images already within bounds are never upscaled.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 1, 1
	}
	if w <= maxW && h <= maxH {
		return w, h
	}

	// Scale by whichever side overflows more.
	if w*maxH > h*maxW {
		nh := h * maxW / w
		if nh < 1 {
			nh = 1
		}
		return maxW, nh
	}
	nw := w * maxH / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxH
}
