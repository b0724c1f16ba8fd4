//go:build integration

package later2pdf

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alnah/go-later2pdf/internal/logging"
)

const testTimeout = 60 * time.Second

func assertValidPDF(t *testing.T, data []byte) {
	t.Helper()

	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("data does not have PDF magic bytes, got prefix: %q", data[:min(10, len(data))])
	}
	if len(data) < 100 {
		t.Errorf("PDF data suspiciously small: %d bytes", len(data))
	}
}

type countingImages struct {
	calls atomic.Int32
}

func (c *countingImages) Fetch(context.Context, string) ([]byte, string, bool) {
	c.calls.Add(1)
	return nil, "", false
}

// Rod downloads Chromium on first run if not found.
func TestRodRenderer_RenderPDF_Integration(t *testing.T) {
	imgServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/gif")
		_, _ = w.Write([]byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"))
	}))
	defer imgServer.Close()

	html := `<!DOCTYPE html><html><head><title>T</title>
<style>@page { size: 810px 1080px; margin: 50px; }</style></head>
<body><h1>Hello</h1><img src="` + imgServer.URL + `/a.gif"></body></html>`
	path := filepath.Join(t.TempDir(), "doc.html")
	if err := os.WriteFile(path, []byte(html), 0o600); err != nil {
		t.Fatal(err)
	}

	images := &countingImages{}
	r := newRodRenderer(testTimeout, images, logging.Discard())
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	data, err := r.RenderPDF(ctx, path)
	if err != nil {
		t.Fatalf("RenderPDF() error = %v", err)
	}
	assertValidPDF(t, data)
	if images.calls.Load() == 0 {
		t.Error("image request was not routed through the fetcher")
	}
}

func TestRodRenderer_CancelledContext_Integration(t *testing.T) {
	r := newRodRenderer(testTimeout, nil, logging.Discard())
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.RenderPDF(ctx, "/nonexistent.html"); err == nil || !strings.Contains(err.Error(), "canceled") {
		t.Errorf("RenderPDF() error = %v, want context canceled", err)
	}
}
