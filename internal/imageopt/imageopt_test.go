package imageopt

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alnah/go-later2pdf/internal/logging"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func TestFit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"within bounds", 640, 480, 640, 480},
		{"too wide", 1600, 400, 800, 200},
		{"too tall", 500, 2000, 250, 1000},
		{"both over, width dominates", 2400, 1500, 800, 500},
		{"both over, height dominates", 1000, 4000, 250, 1000},
		{"degenerate", 0, 10, 1, 1},
		{"extreme aspect keeps at least one pixel", 100000, 10, 800, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotW, gotH := Fit(tt.w, tt.h, 800, 1000)
			if gotW != tt.wantW || gotH != tt.wantH {
				t.Errorf("Fit(%d, %d) = %dx%d, want %dx%d", tt.w, tt.h, gotW, gotH, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestOptimize_DownscalesAndEncodesJPEG(t *testing.T) {
	t.Parallel()

	o := New(WithLogger(logging.Discard()))
	out, err := o.Optimize(encodePNG(t, 1600, 1000, color.RGBA{R: 200, A: 255}))
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 500 {
		t.Errorf("output size = %dx%d, want 800x500", b.Dx(), b.Dy())
	}
}

func TestOptimize_FlattensTransparencyOntoWhite(t *testing.T) {
	t.Parallel()

	o := New()
	out, err := o.Optimize(encodePNG(t, 4, 4, color.RGBA{}))
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, b, _ := img.At(1, 1).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Errorf("transparent pixel = (%d,%d,%d), want near white", r>>8, g>>8, b>>8)
	}
}

func TestOptimize_Errors(t *testing.T) {
	t.Parallel()

	o := New()
	if _, err := o.Optimize(nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Optimize(nil) error = %v, want ErrEmptyImage", err)
	}
	if _, err := o.Optimize([]byte("not an image")); !errors.Is(err, ErrDecode) {
		t.Errorf("Optimize(garbage) error = %v, want ErrDecode", err)
	}
}

// pngHeader returns a PNG whose IHDR declares w x h but carries no pixel
// data, so only the header can be read.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := func(typ string, data []byte) {
		_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		body := append([]byte(typ), data...)
		buf.Write(body)
		_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(body))
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA
	chunk("IHDR", ihdr)
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestOptimize_RefusesOversizedImages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		opts []Option
	}{
		{"declared 16000x16000", pngHeader(16000, 16000), nil},
		{"over custom limit", encodePNG(t, 20, 10, color.Black), []Option{WithMaxPixels(100)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			start := time.Now()
			_, err := New(tt.opts...).Optimize(tt.data)
			if !errors.Is(err, ErrTooManyPx) {
				t.Errorf("Optimize() error = %v, want ErrTooManyPx", err)
			}
			if elapsed := time.Since(start); elapsed > time.Second {
				t.Errorf("Optimize() took %v, want an early refusal", elapsed)
			}
		})
	}
}

func TestFetch_Success(t *testing.T) {
	t.Parallel()

	body := encodePNG(t, 20, 10, color.Black)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	var outcomes []bool
	o := New(
		WithHTTPClient(srv.Client()),
		WithLogger(logging.Discard()),
		WithObserver(func(ok bool) { outcomes = append(outcomes, ok) }),
	)

	data, mime, ok := o.Fetch(context.Background(), srv.URL+"/img.png")
	if !ok {
		t.Fatal("Fetch() ok = false, want true")
	}
	if mime != MimeType {
		t.Errorf("mime = %q, want %q", mime, MimeType)
	}
	if len(data) == 0 {
		t.Error("Fetch() returned empty data")
	}
	if len(outcomes) != 1 || !outcomes[0] {
		t.Errorf("observer outcomes = %v, want [true]", outcomes)
	}
}

func TestFetch_NoReplacementOnFailure(t *testing.T) {
	t.Parallel()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer garbage.Close()

	huge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngHeader(16000, 16000))
	}))
	defer huge.Close()

	tests := []struct {
		name string
		url  string
	}{
		{"timeout", slow.URL},
		{"http error", notFound.URL},
		{"undecodable", garbage.URL},
		{"too many pixels", huge.URL},
		{"bad url", "://nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			o := New(WithTimeout(50*time.Millisecond), WithLogger(logging.Discard()))
			data, mime, ok := o.Fetch(context.Background(), tt.url)
			if ok || data != nil || mime != "" {
				t.Errorf("Fetch() = (%d bytes, %q, %v), want no replacement", len(data), mime, ok)
			}
		})
	}
}
