package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alnah/go-later2pdf/internal/article"
)

// readeckPageSize is the offset step of bookmark listings.
const readeckPageSize = 50

// readeckBookmark is the subset of a Readeck bookmark the converter reads.
type readeckBookmark struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Authors   []string `json:"authors"`
	Created   string   `json:"created"`
	Labels    []string `json:"labels"`
	Resources struct {
		Article struct {
			Src string `json:"src"`
		} `json:"article"`
	} `json:"resources"`
}

func (b readeckBookmark) summary() article.Summary {
	s := article.Summary{
		ID:        b.ID,
		Title:     b.Title,
		URL:       b.URL,
		Author:    article.JoinAuthors(b.Authors),
		CreatedAt: b.Created,
		Tags:      b.Labels,
	}
	s.Normalize()
	return s
}

// ReadeckSource talks to the Readeck REST API. Listing uses offset
// pagination; article HTML is fetched from the bookmark's article resource.
type ReadeckSource struct {
	base   *url.URL
	client *http.Client
	logger *slog.Logger
}

// NewReadeck creates a Readeck client. The endpoint is the instance URL;
// "/api" is appended when missing.
func NewReadeck(opts Options) (*ReadeckSource, error) {
	base, err := url.Parse(NormalizeReadeckURL(opts.Endpoint))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid readeck endpoint %q", opts.Endpoint)
	}
	return &ReadeckSource{
		base:   base,
		client: opts.client(),
		logger: opts.logger(),
	}, nil
}

// NormalizeReadeckURL ensures the API base ends in "/api".
func NormalizeReadeckURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if strings.HasSuffix(raw, "/api") {
		return raw
	}
	return raw + "/api"
}

// Name returns "Readeck".
func (s *ReadeckSource) Name() string { return "Readeck" }

func (s *ReadeckSource) endpoint(path string, query url.Values) string {
	u := *s.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func bearer(creds Credentials) string {
	return "Bearer " + creds.APIKey
}

// List pages through unarchived bookmarks until an empty page.
func (s *ReadeckSource) List(ctx context.Context, creds Credentials, q Query) ([]article.Summary, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	order := "created"
	if q.Sort == SortDesc {
		order = "-created"
	}

	summaries := []article.Summary{}
	for offset := 0; ; offset += readeckPageSize {
		params := url.Values{}
		params.Set("is_archived", "false")
		params.Set("limit", strconv.Itoa(readeckPageSize))
		params.Set("offset", strconv.Itoa(offset))
		params.Set("sort", order)
		if q.Tag != "" {
			params.Set("labels", q.Tag)
		}

		var page []readeckBookmark
		if err := getJSON(ctx, s.client, s.endpoint("/bookmarks", params), bearer(creds), &page); err != nil {
			s.logger.Error("listing stopped early", "backend", "readeck", "offset", offset, "error", err)
			break
		}
		if len(page) == 0 {
			break
		}
		for _, b := range page {
			summaries = append(summaries, b.summary())
		}
	}

	s.logger.Info("listed articles", "backend", "readeck", "count", len(summaries))
	return summaries, nil
}

// FetchByIDs reads each bookmark's metadata and then its article HTML.
func (s *ReadeckSource) FetchByIDs(ctx context.Context, creds Credentials, ids []string) []article.Result[article.Article] {
	results := make([]article.Result[article.Article], 0, len(ids))
	for _, id := range ids {
		a, err := s.fetchOne(ctx, creds, id)
		if err != nil {
			s.logger.Error("article fetch failed", "backend", "readeck", "id", id, "error", err)
			results = append(results, article.Fail[article.Article](id, err))
			continue
		}
		results = append(results, article.Ok(id, a))
	}
	return results
}

func (s *ReadeckSource) fetchOne(ctx context.Context, creds Credentials, id string) (article.Article, error) {
	if strings.TrimSpace(id) == "" {
		return article.Article{}, ErrEmptyID
	}

	var meta readeckBookmark
	if err := getJSON(ctx, s.client, s.endpoint("/bookmarks/"+url.PathEscape(id), nil), bearer(creds), &meta); err != nil {
		return article.Article{}, err
	}

	src := meta.Resources.Article.Src
	if src == "" {
		return article.Article{}, fmt.Errorf("%w: %s", ErrMissingContent, id)
	}
	contentURL, err := s.base.Parse(src)
	if err != nil {
		return article.Article{}, fmt.Errorf("%w: %v", ErrMissingContent, err)
	}

	content, err := s.fetchContent(ctx, creds, contentURL.String())
	if err != nil {
		return article.Article{}, err
	}

	sum := meta.summary()
	a := article.Article{
		ID:        sum.ID,
		Title:     sum.Title,
		URL:       sum.URL,
		Author:    sum.Author,
		CreatedAt: sum.CreatedAt,
		Content:   content,
		Tags:      sum.Tags,
	}
	if a.ID == "" {
		a.ID = id
	}
	a.Normalize()
	return a, nil
}

func (s *ReadeckSource) fetchContent(ctx context.Context, creds Credentials, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{Op: "GET", URL: rawURL, Cause: err}
	}
	req.Header.Set("Authorization", bearer(creds))
	req.Header.Set("Accept", "text/html")

	body, err := doRequest(s.client, req)
	if err != nil {
		return "", &Error{Op: "GET", URL: rawURL, Cause: err}
	}
	return string(body), nil
}

// Archive sets is_archived on the bookmark.
func (s *ReadeckSource) Archive(ctx context.Context, creds Credentials, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	rawURL := s.endpoint("/bookmarks/"+url.PathEscape(id), nil)
	payload, err := json.Marshal(map[string]bool{"is_archived": true})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, rawURL, bytes.NewReader(payload))
	if err != nil {
		return &Error{Op: "PATCH", URL: rawURL, Cause: err}
	}
	req.Header.Set("Authorization", bearer(creds))
	req.Header.Set("Content-Type", "application/json")

	if _, err := doRequest(s.client, req); err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, &Error{Op: "PATCH", URL: rawURL, Cause: err})
	}
	return nil
}

var _ Source = (*ReadeckSource)(nil)
