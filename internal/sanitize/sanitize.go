package sanitize

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// ImageFetcher downloads an image for embedding. ok is false when the
// image could not be fetched or decoded.
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (data []byte, mimeType string, ok bool)
}

// Asset is a binary file referenced by sanitized markup through a
// relative path (Name).
type Asset struct {
	Name      string
	MediaType string
	Data      []byte
}

// ImageDir is the directory, relative to the document, holding embedded images.
const ImageDir = "images"

// Sanitizer rewrites article HTML. Safe for concurrent use.
type Sanitizer struct {
	policy      *bluemonday.Policy
	highlighter *Highlighter
	logger      *slog.Logger
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithLogger sets the logger used for dropped images and parse failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sanitizer) { s.logger = l }
}

// WithHighlighter enables syntax highlighting of fenced code blocks.
func WithHighlighter(h *Highlighter) Option {
	return func(s *Sanitizer) { s.highlighter = h }
}

// New creates a Sanitizer.
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{
		policy: newPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sanitize returns a well-formed, normalized version of content.
// It never fails: unparsable input degrades to an empty fragment.
func (s *Sanitizer) Sanitize(content string) string {
	doc, ok := s.prepare(content)
	if !ok {
		return ""
	}
	return s.render(doc)
}

// SanitizeEmbedding works like Sanitize, then downloads every remaining
// image through fetch and rewrites its src to a local asset path of the
// form images/img_<index>_<n>.jpg. Images that cannot be fetched are
// removed, since the output must not hot-link.
func (s *Sanitizer) SanitizeEmbedding(ctx context.Context, content string, index int, fetch ImageFetcher) (string, []Asset) {
	doc, ok := s.prepare(content)
	if !ok {
		return "", nil
	}

	var assets []Asset
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		data, mediaType, ok := fetch.Fetch(ctx, src)
		if !ok {
			s.logger.Warn("removing image that could not be embedded", "src", src)
			img.Remove()
			return
		}
		name := fmt.Sprintf("%s/img_%d_%d.jpg", ImageDir, index, len(assets)+1)
		img.SetAttr("src", name)
		img.RemoveAttr("srcset")
		assets = append(assets, Asset{Name: name, MediaType: mediaType, Data: data})
	})

	return s.render(doc), assets
}

// prepare runs every rewrite pass and returns the resulting tree.
func (s *Sanitizer) prepare(content string) (*goquery.Document, bool) {
	if strings.TrimSpace(content) == "" {
		return nil, false
	}

	if s.highlighter != nil && strings.Contains(content, "language-") {
		if doc, err := parseFragment(content); err == nil {
			s.highlighter.apply(doc)
			if out, err := renderFragment(doc); err == nil {
				content = out
			}
		}
	}

	doc, err := parseFragment(s.policy.Sanitize(content))
	if err != nil {
		s.logger.Warn("article HTML could not be parsed", "error", err)
		return nil, false
	}

	s.dropInvalidImages(doc)
	normalizeFigures(doc)
	return doc, true
}

func (s *Sanitizer) render(doc *goquery.Document) string {
	out, err := renderFragment(doc)
	if err != nil {
		s.logger.Warn("article HTML could not be rendered", "error", err)
		return ""
	}
	return out
}

// dropInvalidImages removes every img whose src is not an absolute URL.
func (s *Sanitizer) dropInvalidImages(doc *goquery.Document) {
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if !ValidImageURL(src) {
			s.logger.Warn("removing invalid image URL", "src", src)
			img.Remove()
		}
	})
}

// ValidImageURL reports whether raw has both a scheme and a host.
func ValidImageURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// normalizeFigures applies the figure/caption class scheme. Each figure
// only touches images and captions it owns directly, so nested figures are
// handled independently.
func normalizeFigures(doc *goquery.Document) {
	doc.Find("figure").Each(func(_ int, fig *goquery.Selection) {
		figNode := fig.Get(0)
		owned := func(sel *goquery.Selection) *goquery.Selection {
			return sel.FilterFunction(func(_ int, el *goquery.Selection) bool {
				return owningFigure(el.Get(0)) == figNode
			})
		}

		fig.SetAttr("class", FigureClass)

		img := owned(fig.Find("img")).First()
		if img.Length() > 0 {
			owned(fig.Find("source")).Remove()
			img.RemoveAttr("class")
			hoist(figNode, img.Get(0))
		}

		caption := owned(fig.Find("figcaption")).First()
		if caption.Length() > 0 {
			caption.Find("svg").Remove()
			caption.SetAttr("class", CaptionClass)
		}
	})
}

// owningFigure returns the closest figure ancestor of n.
func owningFigure(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "figure" {
			return p
		}
	}
	return nil
}

// hoist makes child the first child of parent.
func hoist(parent, child *html.Node) {
	if parent.FirstChild == child {
		return
	}
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	parent.InsertBefore(child, parent.FirstChild)
}
