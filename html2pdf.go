package later2pdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-later2pdf/internal/hints"
	"github.com/alnah/go-later2pdf/internal/process"
)

// Renderer turns a local HTML file into PDF bytes.
type Renderer interface {
	RenderPDF(ctx context.Context, htmlPath string) ([]byte, error)
	Close() error
}

// ImageFetcher returns a replacement for a remote image. ok is false when
// the original request should go through unchanged.
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (data []byte, mimeType string, ok bool)
}

var _ Renderer = (*rodRenderer)(nil)

// rodRenderer implements Renderer using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodRenderer struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
	images   ImageFetcher
	logger   *slog.Logger
}

// newRodRenderer creates a rodRenderer. When images is non-nil every image
// the page loads is routed through it.
func newRodRenderer(timeout time.Duration, images ImageFetcher, logger *slog.Logger) *rodRenderer {
	return &rodRenderer{timeout: timeout, images: images, logger: logger}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}
	r.browser, r.launcher = browser, l
	return browser, nil
}

// Close releases browser resources.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		if pid := r.launcher.PID(); pid > 0 {
			process.KillProcessGroup(pid)
		}
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}

// RenderPDF opens htmlPath in headless Chrome and prints it using the page
// size declared by the document's CSS.
func (r *rodRenderer) RenderPDF(ctx context.Context, htmlPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if r.images != nil {
		router := page.HijackRequests()
		if err := router.Add("*", proto.NetworkResourceTypeImage, r.replaceImage(ctx)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
		}
		go router.Run()
		defer func() { _ = router.Stop() }()
	}

	// Wait for page to load with timeout from context or default
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	loading := page.Timeout(timeout)
	if err := loading.Navigate("file://" + htmlPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := loading.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v%s", ErrPageLoad, err, hints.ForTimeout())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdfBuf, nil
}

// replaceImage serves optimized bytes for remote images. Anything the
// fetcher cannot handle continues to the network untouched.
func (r *rodRenderer) replaceImage(ctx context.Context) func(*rod.Hijack) {
	return func(h *rod.Hijack) {
		u := h.Request.URL()
		if u.Scheme != "http" && u.Scheme != "https" {
			h.ContinueRequest(&proto.FetchContinueRequest{})
			return
		}

		data, mimeType, ok := r.images.Fetch(ctx, u.String())
		if !ok {
			r.logger.Debug("image left unoptimized", "url", u.String())
			h.ContinueRequest(&proto.FetchContinueRequest{})
			return
		}
		h.Response.SetHeader("Content-Type", mimeType)
		h.Response.SetBody(data)
	}
}
