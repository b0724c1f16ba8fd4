package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-later2pdf/internal/article"
	"github.com/alnah/go-later2pdf/internal/progress"
	"github.com/alnah/go-later2pdf/internal/sanitize"
)

// DefaultWorkers is the number of articles processed concurrently.
const DefaultWorkers = 5

// Processed is an article ready for assembly.
type Processed struct {
	// Index is the article's position in the request.
	Index   int
	ID      string
	Title   string
	Author  string
	URL     string
	Domain  string
	Content string
	Assets  []sanitize.Asset
}

// ProcessFunc turns one article into its processed form.
type ProcessFunc func(ctx context.Context, index int, a article.Article) (Processed, error)

// Processor fans a ProcessFunc out over a bounded worker pool.
type Processor struct {
	workers  int
	logger   *slog.Logger
	reporter progress.Reporter
	from, to int
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers sets the concurrency limit. Non-positive values keep the default.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithProcessorLogger sets the logger for per-article failures.
func WithProcessorLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

// WithProgress reports completion linearly between from and to percent.
func WithProgress(r progress.Reporter, from, to int) ProcessorOption {
	return func(p *Processor) {
		p.reporter = progress.OrNop(r)
		p.from, p.to = from, to
	}
}

// NewProcessor creates a Processor with DefaultWorkers.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		workers:  DefaultWorkers,
		logger:   slog.Default(),
		reporter: progress.Nop,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs fn on every article and returns the successes in input
// order. Failures (errors or panics) are logged and dropped; they never
// cancel sibling work.
func (p *Processor) Process(ctx context.Context, articles []article.Article, fn ProcessFunc) []Processed {
	total := len(articles)
	if total == 0 {
		return []Processed{}
	}

	// Results are keyed by request index, so completion order is irrelevant.
	results := make([]article.Result[Processed], total)
	var done atomic.Int64

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, a := range articles {
		g.Go(func() error {
			out, err := runSafe(ctx, i, a, fn)
			if err != nil {
				p.logger.Error("article processing failed", "id", a.ID, "title", a.Title, "error", err)
				results[i] = article.Fail[Processed](a.ID, err)
			} else {
				out.Index = i
				results[i] = article.Ok(a.ID, out)
			}

			n := int(done.Add(1))
			p.reporter.Report(p.from+n*(p.to-p.from)/total, fmt.Sprintf("Processed %d of %d articles", n, total))
			return nil
		})
	}
	_ = g.Wait()

	oks, _ := article.Partition(results)
	return oks
}

func runSafe(ctx context.Context, i int, a article.Article, fn ProcessFunc) (out Processed, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return Processed{}, err
	}
	return fn(ctx, i, a)
}

// project copies the display fields of a.
func project(a article.Article) Processed {
	return Processed{
		ID:     a.ID,
		Title:  a.Title,
		Author: a.Author,
		URL:    a.URL,
		Domain: a.Domain(),
	}
}

// SanitizeStep sanitizes content for the flowing document. Remote images
// stay remote and are optimized by the renderer.
func SanitizeStep(s *sanitize.Sanitizer) ProcessFunc {
	return func(_ context.Context, _ int, a article.Article) (Processed, error) {
		out := project(a)
		out.Content = s.Sanitize(a.Content)
		return out, nil
	}
}

// EmbedStep sanitizes content for the chaptered book and downloads its
// images as assets. Asset names are derived from the 1-based position.
func EmbedStep(s *sanitize.Sanitizer, fetch sanitize.ImageFetcher) ProcessFunc {
	return func(ctx context.Context, index int, a article.Article) (Processed, error) {
		out := project(a)
		out.Content, out.Assets = s.SanitizeEmbedding(ctx, a.Content, index+1, fetch)
		return out, nil
	}
}
