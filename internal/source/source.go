// Package source adapts read-it-later backends to one article capability.
//
// Every backend follows the same failure policy: a failed page ends a
// listing early and returns what was gathered so far, and a failed item is
// reported in its own Result without affecting its siblings.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alnah/go-later2pdf/internal/article"
)

// Sentinel errors for source operations.
var (
	ErrMissingCredentials = errors.New("API key is required")
	ErrUnknownBackend     = errors.New("unknown backend")
	ErrUnexpectedStatus   = errors.New("unexpected status code")
	ErrGraphQL            = errors.New("graphql error")
	ErrNotFound           = errors.New("article not found")
	ErrMissingContent     = errors.New("article has no content URL")
	ErrEmptyID            = errors.New("empty article id")
	ErrArchive            = errors.New("archive failed")
)

// Backend names.
const (
	Omnivore = "omnivore"
	Readeck  = "readeck"
)

// DefaultTimeout bounds every backend HTTP call.
const DefaultTimeout = 30 * time.Second

// maxResponseSize limits backend response bodies (10MB).
const maxResponseSize = 10 << 20

// Credentials are passed through to the backend unchanged.
type Credentials struct {
	APIKey string
}

// Validate reports ErrMissingCredentials when no key is set.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Sort is the listing order by save date.
type Sort string

// Sort orders.
const (
	SortAsc  Sort = "asc"
	SortDesc Sort = "desc"
)

// ParseSort maps user input to a Sort. Anything but "desc" is ascending.
func ParseSort(s string) Sort {
	if strings.EqualFold(strings.TrimSpace(s), string(SortDesc)) {
		return SortDesc
	}
	return SortAsc
}

// Query filters a listing.
type Query struct {
	Tag  string
	Sort Sort
}

// Source is a read-it-later backend.
type Source interface {
	// Name is the display name of the backend ("Omnivore", "Readeck").
	Name() string

	// List pages through saved, unarchived articles. Page failures end the
	// listing early; the error is only non-nil for invalid credentials, so
	// callers must treat a short list as possibly incomplete.
	List(ctx context.Context, creds Credentials, q Query) ([]article.Summary, error)

	// FetchByIDs resolves each reference independently, returning one
	// Result per input id in input order.
	FetchByIDs(ctx context.Context, creds Credentials, ids []string) []article.Result[article.Article]

	// Archive marks one article as archived.
	Archive(ctx context.Context, creds Credentials, id string) error
}

// Options configures a backend client.
type Options struct {
	Endpoint   string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (o Options) client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// New creates the backend named kind.
func New(kind string, opts Options) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case Omnivore, "":
		return NewOmnivore(opts), nil
	case Readeck:
		return NewReadeck(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}
