package later2pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-later2pdf/internal/article"
	"github.com/alnah/go-later2pdf/internal/assets"
	"github.com/alnah/go-later2pdf/internal/dateutil"
	"github.com/alnah/go-later2pdf/internal/epub"
	"github.com/alnah/go-later2pdf/internal/fileutil"
	"github.com/alnah/go-later2pdf/internal/imageopt"
	"github.com/alnah/go-later2pdf/internal/logging"
	"github.com/alnah/go-later2pdf/internal/pipeline"
	"github.com/alnah/go-later2pdf/internal/progress"
	"github.com/alnah/go-later2pdf/internal/sanitize"
	"github.com/alnah/go-later2pdf/internal/source"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MarkdownRenderer = (*pipeline.GoldmarkRenderer)(nil)
	_ ImageFetcher              = (*imageopt.Optimizer)(nil)
	_ sanitize.ImageFetcher     = (ImageFetcher)(nil)
)

// Converter fetches articles from one backend and turns them into a PDF
// or an EPUB. Create with NewConverter, call Convert per request and Close
// when done. Convert may be called concurrently; the PDF renderer is
// shared, so a ConverterPool is preferable under load.
type Converter struct {
	cfg         converterConfig
	source      source.Source
	logger      *slog.Logger
	sanitizer   *sanitize.Sanitizer
	highlighter *sanitize.Highlighter
	images      ImageFetcher
	flowing     *pipeline.FlowingAssembler
	style       string
	cover       string
	fonts       []pipeline.Font
	preface     string
	renderer    Renderer
	compressor  Compressor
	audit       *logging.AuditLog
	now         func() time.Time
}

// Result is a converted document on disk. The file lives in a private
// temporary directory removed by Cleanup.
type Result struct {
	Path        string
	Filename    string
	ContentType string
	// Articles lists what the document contains, in document order.
	Articles []ConvertedArticle

	cleanup func()
}

// ConvertedArticle identifies one article included in a document.
type ConvertedArticle struct {
	ID    string
	Title string
	URL   string
}

// Cleanup removes the result's temporary directory. Safe to call twice.
func (r *Result) Cleanup() {
	if r != nil && r.cleanup != nil {
		r.cleanup()
	}
}

// SaveAs copies the document to dst, creating or truncating it.
func (r *Result) SaveAs(dst string) error {
	src, err := os.Open(r.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArtifactMissing, err)
	}
	defer src.Close()

	out, err := os.Create(dst) // #nosec G304 -- user-chosen output path
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("writing output file: %w", err)
	}
	return out.Close()
}

// NewConverter creates a Converter reading from src. Templates, styles,
// the cover image and fonts are loaded once here; the browser is started
// lazily on the first PDF conversion.
func NewConverter(src source.Source, opts ...Option) (*Converter, error) {
	if src == nil {
		return nil, errors.New("nil source")
	}

	c := &Converter{
		cfg: converterConfig{
			timeout:     defaultTimeout,
			workers:     pipeline.DefaultWorkers,
			style:       assets.DefaultStyleName,
			templateSet: assets.DefaultTemplateSetName,
			dateFormat:  dateutil.DefaultDateFormat,
			compress:    true,
		},
		source: src,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDefault(c.logger)

	if err := c.loadAssets(); err != nil {
		return nil, err
	}
	if err := c.renderPreface(); err != nil {
		return nil, err
	}

	c.highlighter = sanitize.NewHighlighter(sanitize.DefaultHighlightStyle)
	c.sanitizer = sanitize.New(sanitize.WithLogger(c.logger), sanitize.WithHighlighter(c.highlighter))

	if c.images == nil {
		c.images = imageopt.New(imageopt.WithLogger(c.logger))
	}
	if c.renderer == nil {
		c.renderer = newRodRenderer(c.cfg.timeout, c.images, c.logger)
	}
	if c.compressor == nil && c.cfg.compress {
		c.compressor = NewGhostscriptCompressor(c.cfg.ghostscript, c.cfg.compressTimeout)
	}
	if c.cfg.auditPath != "" {
		c.audit = logging.NewAuditLog(c.cfg.auditPath)
	}
	return c, nil
}

func (c *Converter) loadAssets() error {
	loader, err := assets.NewAssetResolver(c.cfg.assetPath)
	if err != nil {
		return fmt.Errorf("%w: %v", assets.ErrInvalidBasePath, err)
	}

	c.style, err = loader.LoadStyle(c.cfg.style)
	if err != nil {
		return fmt.Errorf("loading style %q: %w", c.cfg.style, err)
	}

	ts, err := loader.LoadTemplateSet(c.cfg.templateSet)
	if err != nil {
		return fmt.Errorf("loading template set %q: %w", c.cfg.templateSet, err)
	}
	c.flowing, err = pipeline.NewFlowingAssembler(ts.Document, ts.Cover)
	if err != nil {
		return fmt.Errorf("initializing document assembler: %w", err)
	}

	if !c.cfg.noCover {
		svg, err := loader.LoadImage(assets.DefaultCoverName)
		switch {
		case err == nil:
			c.cover = string(svg)
		case errors.Is(err, assets.ErrImageNotFound):
			c.logger.Warn("cover image not found, continuing without cover")
		default:
			return fmt.Errorf("loading cover: %w", err)
		}
	}

	fonts, missing := assets.LoadFonts(c.cfg.fontDir, assets.DefaultFonts)
	if len(missing) > 0 && c.cfg.fontDir != "" {
		c.logger.Warn("fonts not found, using fallback families", "dir", c.cfg.fontDir, "missing", missing)
	}
	for _, f := range fonts {
		c.fonts = append(c.fonts, pipeline.Font{Family: f.Family, Weight: f.Weight, Data: f.Data})
	}
	return nil
}

func (c *Converter) renderPreface() error {
	if c.cfg.preface == "" {
		return nil
	}
	html, err := pipeline.NewGoldmarkRenderer().ToHTML(context.Background(), c.cfg.preface)
	if err != nil {
		return err
	}
	c.preface = html
	return nil
}

// Close releases the browser.
func (c *Converter) Close() error {
	if c.renderer != nil {
		return c.renderer.Close()
	}
	return nil
}

// Backend returns the display name of the configured backend.
func (c *Converter) Backend() string {
	return c.source.Name()
}

// Convert runs the whole pipeline for req: fetch, process, assemble,
// render, compress, then archive and audit. The returned Result must be
// cleaned up by the caller. On error nothing is left on disk.
// Internal panics are recovered and returned as ErrInternal.
func (c *Converter) Convert(ctx context.Context, req Request) (res *Result, err error) {
	r := progress.OrNop(req.Progress)
	defer func() {
		if rec := recover(); rec != nil {
			res, err = nil, fmt.Errorf("%w: %v", ErrInternal, rec)
		}
		if err != nil {
			r.Report(100, "Error: "+err.Error())
		}
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	format := req.format()

	r.Report(0, fmt.Sprintf("Starting %s generation", label(format)))
	articles, err := c.fetch(ctx, req, r)
	if err != nil {
		return nil, err
	}

	dir, cleanup, err := fileutil.MakeWorkDir()
	if err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	keep := false
	defer func() {
		if !keep {
			cleanup()
		}
	}()

	now := c.now()
	date, err := dateutil.FormatDate(c.cfg.dateFormat, now)
	if err != nil {
		return nil, err
	}
	meta := documentMeta{
		title:    DocumentTitle(c.source.Name(), format, date),
		date:     date,
		filename: Filename(c.source.Name(), format, now),
		modified: now,
	}

	var (
		path      string
		processed []pipeline.Processed
	)
	switch format {
	case FormatEPUB:
		path, processed, err = c.buildEPUB(ctx, articles, dir, meta, r)
	default:
		path, processed, err = c.buildPDF(ctx, req, articles, dir, meta, r)
	}
	if err != nil {
		return nil, err
	}
	if !fileutil.NonEmptyFile(path) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, filepath.Base(path))
	}

	c.archive(ctx, req, processed, r)
	c.record(processed)

	res = &Result{
		Path:        path,
		Filename:    meta.filename,
		ContentType: format.ContentType(),
		Articles:    converted(processed),
		cleanup:     cleanup,
	}
	keep = true
	r.Report(100, fmt.Sprintf("%s generation complete", label(format)))
	return res, nil
}

type documentMeta struct {
	title    string
	date     string
	filename string
	modified time.Time
}

// fetch resolves req.IDs one at a time, in request order, dropping the
// ones that fail.
func (c *Converter) fetch(ctx context.Context, req Request, r progress.Reporter) ([]article.Article, error) {
	results := make([]article.Result[article.Article], 0, len(req.IDs))
	for i, id := range req.IDs {
		if ctx.Err() != nil {
			break
		}
		r.Report(1, fmt.Sprintf("Fetching article %d of %d", i+1, len(req.IDs)))
		results = append(results, c.source.FetchByIDs(ctx, req.Credentials, []string{id})...)
	}
	articles, failed := article.Partition(results)
	for _, f := range failed {
		c.logger.Warn("article fetch failed", "id", f.Key, "error", f.Err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("%w: check your API key or article ids", ErrNoArticles)
	}
	r.Report(2, fmt.Sprintf("Fetched %d of %d articles", len(articles), len(req.IDs)))
	return articles, nil
}

func (c *Converter) newProcessor(r progress.Reporter) *pipeline.Processor {
	return pipeline.NewProcessor(
		pipeline.WithWorkers(c.cfg.workers),
		pipeline.WithProcessorLogger(c.logger),
		pipeline.WithProgress(r, 20, 60),
	)
}

func (c *Converter) buildPDF(ctx context.Context, req Request, articles []article.Article, dir string, meta documentMeta, r progress.Reporter) (string, []pipeline.Processed, error) {
	r.Report(5, "Loading fonts and cover")
	css := pipeline.BuildLayoutCSS(pipeline.Layout{
		TwoColumn: req.Layout == LayoutTwoColumn,
		Fonts:     c.fonts,
	}) + c.style + c.highlighter.CSS()

	r.Report(10, "Preparing HTML content")
	r.Report(20, "Processing articles")
	processed := c.newProcessor(r).Process(ctx, articles, pipeline.SanitizeStep(c.sanitizer))
	if err := processedOrError(ctx, processed); err != nil {
		return "", nil, err
	}

	html, err := c.flowing.Assemble(ctx, pipeline.Document{
		Title:    meta.title,
		Date:     meta.date,
		Articles: processed,
		Cover:    c.cover,
		Preface:  c.preface,
		CSS:      css,
	}, r)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	htmlPath, _, err := fileutil.WriteTempFile(dir, html, "html")
	if err != nil {
		return "", nil, err
	}

	r.Report(80, "Generating PDF")
	data, err := c.renderer.RenderPDF(ctx, htmlPath)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	rawPath := filepath.Join(dir, "render.pdf")
	if err := os.WriteFile(rawPath, data, 0o600); err != nil {
		return "", nil, fmt.Errorf("%w: writing PDF: %v", ErrRender, err)
	}

	finalPath := filepath.Join(dir, meta.filename)
	if c.compressor != nil {
		r.Report(90, "Compressing PDF")
		info := DocInfo{Title: meta.title, Author: DocumentAuthor, Creator: Creator}
		err := c.compressor.Compress(ctx, rawPath, finalPath, info)
		if err == nil {
			return finalPath, processed, nil
		}
		c.logger.Warn("compression failed, keeping uncompressed PDF", "error", err)
	}
	if err := os.Rename(rawPath, finalPath); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrArtifactMissing, err)
	}
	return finalPath, processed, nil
}

func (c *Converter) buildEPUB(ctx context.Context, articles []article.Article, dir string, meta documentMeta, r progress.Reporter) (string, []pipeline.Processed, error) {
	r.Report(5, "Loading cover")
	r.Report(10, "Preparing chapters")
	r.Report(20, "Processing articles")
	processed := c.newProcessor(r).Process(ctx, articles, pipeline.EmbedStep(c.sanitizer, c.images))
	if err := processedOrError(ctx, processed); err != nil {
		return "", nil, err
	}

	r.Report(70, "Building chapters")
	book, err := pipeline.BuildBook(ctx, pipeline.Book{
		Identifier: uuid.NewString(),
		Title:      meta.title,
		Modified:   meta.modified,
		Articles:   processed,
		Preface:    c.preface,
		Stylesheet: c.style + c.highlighter.CSS(),
		Cover:      c.cover,
	})
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	r.Report(80, "Writing EPUB")
	path := filepath.Join(dir, meta.filename)
	if err := epub.WriteFile(path, book); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return path, processed, nil
}

func processedOrError(ctx context.Context, processed []pipeline.Processed) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(processed) == 0 {
		return fmt.Errorf("%w: every article failed processing", ErrRender)
	}
	return nil
}

// archive marks every included article as archived. Failures are logged.
func (c *Converter) archive(ctx context.Context, req Request, processed []pipeline.Processed, r progress.Reporter) {
	if !req.Archive {
		return
	}
	r.Report(95, "Archiving articles")
	for _, p := range processed {
		if err := c.source.Archive(ctx, req.Credentials, p.ID); err != nil {
			c.logger.Warn("failed to archive article", "id", p.ID, "error", err)
			continue
		}
		c.logger.Info("archived article", "id", p.ID)
	}
}

func (c *Converter) record(processed []pipeline.Processed) {
	if c.audit == nil {
		return
	}
	entries := make([]logging.AuditEntry, len(processed))
	for i, p := range processed {
		entries[i] = logging.AuditEntry{Title: p.Title, URL: p.URL}
	}
	if err := c.audit.Record(entries); err != nil {
		c.logger.Warn("audit log write failed", "error", err)
	}
}

func converted(processed []pipeline.Processed) []ConvertedArticle {
	out := make([]ConvertedArticle, len(processed))
	for i, p := range processed {
		out[i] = ConvertedArticle{ID: p.ID, Title: p.Title, URL: p.URL}
	}
	return out
}

func label(f Format) string {
	if f == FormatEPUB {
		return "EPUB"
	}
	return "PDF"
}
