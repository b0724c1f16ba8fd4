package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrPrefaceConversion indicates the Markdown preface could not be rendered.
var ErrPrefaceConversion = errors.New("preface conversion failed")

// MarkdownRenderer abstracts Markdown to HTML fragment conversion.
type MarkdownRenderer interface {
	ToHTML(ctx context.Context, content string) (string, error)
}

// GoldmarkRenderer converts Markdown to an HTML fragment using goldmark.
type GoldmarkRenderer struct {
	md goldmark.Markdown
}

// NewGoldmarkRenderer creates a GoldmarkRenderer with GFM extensions and
// class-based syntax highlighting.
func NewGoldmarkRenderer() *GoldmarkRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	return &GoldmarkRenderer{md: md}
}

// ToHTML converts Markdown to an XHTML fragment. Raw HTML in the input is
// omitted. Goldmark has no context support, so conversion runs in a
// goroutine and the call returns early on cancellation.
func (r *GoldmarkRenderer) ToHTML(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrPrefaceConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

var _ MarkdownRenderer = (*GoldmarkRenderer)(nil)
