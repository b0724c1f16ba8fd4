package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	later2pdf "github.com/alnah/go-later2pdf"
	"github.com/alnah/go-later2pdf/internal/article"
	"github.com/alnah/go-later2pdf/internal/logging"
	"github.com/alnah/go-later2pdf/internal/source"
)

type fakeLister struct {
	mu        sync.Mutex
	summaries []article.Summary
	err       error
	gotCreds  source.Credentials
	gotQuery  source.Query
}

func (f *fakeLister) List(_ context.Context, creds source.Credentials, q source.Query) ([]article.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotCreds, f.gotQuery = creds, q
	return f.summaries, f.err
}

type fakeConverter struct {
	mu     sync.Mutex
	dir    string
	err    error
	calls  int
	gotReq later2pdf.Request
	// onConvert runs before returning, with the request's reporter.
	onConvert func(req later2pdf.Request)
}

func (f *fakeConverter) Convert(_ context.Context, req later2pdf.Request) (*later2pdf.Result, error) {
	f.mu.Lock()
	f.calls++
	f.gotReq = req
	f.mu.Unlock()

	if f.onConvert != nil {
		f.onConvert(req)
	}
	if f.err != nil {
		return nil, f.err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	format := req.Format
	if format == "" {
		format = later2pdf.FormatPDF
	}
	name := "Test_20240309_abcdef12." + format.Ext()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte("document "+strings.Join(req.IDs, ",")), 0o600); err != nil {
		return nil, err
	}
	return &later2pdf.Result{
		Path:        path,
		Filename:    name,
		ContentType: format.ContentType(),
		Articles:    []later2pdf.ConvertedArticle{{ID: "a"}},
	}, nil
}

func summaries(n int) []article.Summary {
	out := make([]article.Summary, n)
	for i := range out {
		out[i] = article.Summary{ID: fmt.Sprintf("id-%d", i), Title: fmt.Sprintf("Title %d", i)}
	}
	return out
}

func newTestServer(t *testing.T, cfg Config, lister Lister, conv Converter) *Server {
	t.Helper()
	return New(t.Context(), cfg, lister, conv, WithLogger(logging.Discard()))
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Config{}, &fakeLister{}, &fakeConverter{dir: t.TempDir()})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Config{}, &fakeLister{}, &fakeConverter{dir: t.TempDir()})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "later2pdf_progress_subscribers")
}

func TestListArticles(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		available int
		wantCount int
	}{
		{name: "index page is capped", body: `{"api_key":"k","page_type":"index"}`, available: 15, wantCount: 10},
		{name: "other page types are not capped", body: `{"api_key":"k","page_type":"all"}`, available: 15, wantCount: 15},
		{name: "short index page", body: `{"api_key":"k","page_type":"index"}`, available: 3, wantCount: 3},
		{name: "empty listing", body: `{"api_key":"k"}`, available: 0, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := &fakeLister{summaries: summaries(tt.available)}
			s := newTestServer(t, Config{}, lister, &fakeConverter{dir: t.TempDir()})

			rec := postJSON(t, s.Handler(), "/api/articles", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp struct {
				Articles []article.Summary `json:"articles"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.NotNil(t, resp.Articles)
			assert.Len(t, resp.Articles, tt.wantCount)
		})
	}
}

func TestListArticles_PassesQuery(t *testing.T) {
	lister := &fakeLister{}
	s := newTestServer(t, Config{}, lister, &fakeConverter{dir: t.TempDir()})

	rec := postJSON(t, s.Handler(), "/api/articles", `{"api_key":"secret","tag":" news ","sort":"desc"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "secret", lister.gotCreds.APIKey)
	assert.Equal(t, "news", lister.gotQuery.Tag)
	assert.Equal(t, source.SortDesc, lister.gotQuery.Sort)
}

func TestListArticles_Errors(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		s := newTestServer(t, Config{}, &fakeLister{}, &fakeConverter{dir: t.TempDir()})

		rec := postJSON(t, s.Handler(), "/api/articles", `{"tag":"x"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, source.ErrMissingCredentials.Error(), decodeError(t, rec))
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer(t, Config{}, &fakeLister{}, &fakeConverter{dir: t.TempDir()})

		rec := postJSON(t, s.Handler(), "/api/articles", `{"api_key":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid request body", decodeError(t, rec))
	})

	t.Run("backend failure", func(t *testing.T) {
		lister := &fakeLister{err: errors.New("backend down")}
		s := newTestServer(t, Config{}, lister, &fakeConverter{dir: t.TempDir()})

		rec := postJSON(t, s.Handler(), "/api/articles", `{"api_key":"k"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "backend down", decodeError(t, rec))
	})
}

func TestListArticles_RateLimited(t *testing.T) {
	s := newTestServer(t, Config{ListPerMinute: 2}, &fakeLister{}, &fakeConverter{dir: t.TempDir()})

	for range 2 {
		assert.Equal(t, http.StatusOK, postJSON(t, s.Handler(), "/api/articles", `{"api_key":"k"}`).Code)
	}
	rec := postJSON(t, s.Handler(), "/api/articles", `{"api_key":"k"}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", decodeError(t, rec))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestConvert_Success(t *testing.T) {
	conv := &fakeConverter{dir: t.TempDir()}
	s := newTestServer(t, Config{}, &fakeLister{}, conv)

	rec := postJSON(t, s.Handler(), "/api/convert",
		`{"api_key":"k","article_ids":["a","b"],"format":"epub","two_column_layout":true,"archive":true,"request_id":"req-1"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "document a,b", rec.Body.String())
	assert.Equal(t, "application/epub+zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Test_20240309_abcdef12.epub")
	assert.Equal(t, "req-1", rec.Header().Get(HeaderRequestID))

	assert.Equal(t, "k", conv.gotReq.Credentials.APIKey)
	assert.Equal(t, []string{"a", "b"}, conv.gotReq.IDs)
	assert.Equal(t, later2pdf.FormatEPUB, conv.gotReq.Format)
	assert.Equal(t, later2pdf.LayoutTwoColumn, conv.gotReq.Layout)
	assert.True(t, conv.gotReq.Archive)
	assert.NotNil(t, conv.gotReq.Progress)
}

func TestConvert_DefaultsToPDFAndGeneratesRequestID(t *testing.T) {
	conv := &fakeConverter{dir: t.TempDir()}
	s := newTestServer(t, Config{}, &fakeLister{}, conv)

	rec := postJSON(t, s.Handler(), "/api/convert", `{"api_key":"k","article_ids":["a"]}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, later2pdf.LayoutSingle, conv.gotReq.Layout)
	assert.Len(t, rec.Header().Get(HeaderRequestID), 36)
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		convErr   error
		wantCode  int
		wantCalls int
	}{
		{
			name:     "invalid format",
			body:     `{"api_key":"k","article_ids":["a"],"format":"mobi"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:      "missing credentials",
			body:      `{"article_ids":["a"]}`,
			wantCode:  http.StatusBadRequest,
			wantCalls: 1,
		},
		{
			name:      "too many articles",
			body:      `{"api_key":"k","article_ids":["1","2","3","4","5","6","7","8","9","10","11"]}`,
			wantCode:  http.StatusBadRequest,
			wantCalls: 1,
		},
		{
			name:      "nothing fetched",
			body:      `{"api_key":"k","article_ids":["a"]}`,
			convErr:   fmt.Errorf("%w: backend returned nothing", later2pdf.ErrNoArticles),
			wantCode:  http.StatusNotFound,
			wantCalls: 1,
		},
		{
			name:      "render failure",
			body:      `{"api_key":"k","article_ids":["a"]}`,
			convErr:   fmt.Errorf("%w: chrome crashed", later2pdf.ErrRender),
			wantCode:  http.StatusInternalServerError,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConverter{dir: t.TempDir(), err: tt.convErr}
			s := newTestServer(t, Config{}, &fakeLister{}, conv)

			rec := postJSON(t, s.Handler(), "/api/convert", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec))
			assert.Equal(t, tt.wantCalls, conv.calls)
		})
	}
}

func TestPoolConverter_ValidatesBeforeAcquire(t *testing.T) {
	errNoBrowser := errors.New("no browser")

	tests := []struct {
		name          string
		body          string
		wantCode      int
		wantFactories int
	}{
		{
			name:     "too many articles",
			body:     `{"api_key":"k","article_ids":["1","2","3","4","5","6","7","8","9","10","11"]}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing credentials",
			body:     `{"article_ids":["a"]}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:          "valid request reaches the pool",
			body:          `{"api_key":"k","article_ids":["a"]}`,
			wantCode:      http.StatusInternalServerError,
			wantFactories: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			factories := 0
			pool := later2pdf.NewConverterPool(1, func() (*later2pdf.Converter, error) {
				mu.Lock()
				defer mu.Unlock()
				factories++
				return nil, errNoBrowser
			})
			s := newTestServer(t, Config{}, &fakeLister{}, PoolConverter{Pool: pool})

			rec := postJSON(t, s.Handler(), "/api/convert", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, tt.wantFactories, factories)
		})
	}
}

func TestConvert_RateLimited(t *testing.T) {
	conv := &fakeConverter{dir: t.TempDir()}
	s := newTestServer(t, Config{ConvertPerHour: 1}, &fakeLister{}, conv)

	body := `{"api_key":"k","article_ids":["a"]}`
	require.Equal(t, http.StatusOK, postJSON(t, s.Handler(), "/api/convert", body).Code)

	rec := postJSON(t, s.Handler(), "/api/convert", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, conv.calls)
}

func TestConvert_PublishesProgressToHub(t *testing.T) {
	conv := &fakeConverter{dir: t.TempDir()}
	conv.onConvert = func(req later2pdf.Request) {
		req.Progress.Report(50, "halfway")
	}
	s := newTestServer(t, Config{}, &fakeLister{}, conv)

	ch, cancel := s.Hub().Subscribe("req-7")
	defer cancel()

	rec := postJSON(t, s.Handler(), "/api/convert", `{"api_key":"k","article_ids":["a"],"request_id":"req-7"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case e := <-ch.Events():
		assert.Equal(t, 50, e.Progress)
		assert.Equal(t, "halfway", e.Status)
	default:
		t.Fatal("no progress event published")
	}
}

func TestProgressStream(t *testing.T) {
	s := newTestServer(t, Config{}, &fakeLister{}, &fakeConverter{dir: t.TempDir()})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/progress/req-9")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	// Headers are flushed after subscribing.
	require.Equal(t, 1, s.Hub().Subscribers("req-9"))

	s.Hub().Publish("req-9", 20, "Processing articles")
	s.Hub().Publish("req-9", 100, "PDF generation complete")
	s.Hub().Publish("req-9", 100, "after end")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t,
		"data: {\"progress\":20,\"status\":\"Processing articles\"}\n\n"+
			"data: {\"progress\":100,\"status\":\"PDF generation complete\"}\n\n",
		string(body))
	assert.Eventually(t, func() bool { return s.Hub().Subscribers("req-9") == 0 }, time.Second, 10*time.Millisecond)
}
