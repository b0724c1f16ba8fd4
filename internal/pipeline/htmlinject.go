package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"strings"
)

// ErrCoverRender indicates the cover template failed to execute.
var ErrCoverRender = errors.New("cover template rendering failed")

// TOCTitle is the heading of the table of contents.
const TOCTitle = "Table of Contents"

// CSSInjector defines the contract for CSS injection into HTML.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

// CSSInjection injects CSS as a <style> block into HTML content.
type CSSInjection struct{}

// InjectCSS inserts a <style> block before </head>, after <body>, or at
// the start of the content, whichever is found first.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" || ctx.Err() != nil {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}
	if pos := afterBodyTag(htmlContent); pos != -1 {
		return htmlContent[:pos] + styleBlock + htmlContent[pos:]
	}
	return styleBlock + htmlContent
}

// sanitizeCSS escapes sequences that could close the <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// afterBodyTag returns the offset just past the opening <body> tag, or -1.
func afterBodyTag(htmlContent string) int {
	idx := strings.Index(strings.ToLower(htmlContent), "<body")
	if idx == -1 {
		return -1
	}
	closeIdx := strings.Index(htmlContent[idx:], ">")
	if closeIdx == -1 {
		return -1
	}
	return idx + closeIdx + 1
}

// CoverData holds the cover page content.
type CoverData struct {
	Title string
	Date  string
	// Image is trusted inline markup, typically an SVG document.
	Image template.HTML
}

// CoverInjector defines the contract for cover injection into HTML.
type CoverInjector interface {
	InjectCover(ctx context.Context, htmlContent string, data *CoverData) (string, error)
}

// CoverInjection renders and injects a cover page into HTML content.
type CoverInjection struct {
	tmpl *template.Template
}

// NewCoverInjection creates a CoverInjection from template content.
func NewCoverInjection(tmplContent string) (*CoverInjection, error) {
	tmpl, err := template.New("cover").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing cover template: %w", err)
	}
	return &CoverInjection{tmpl: tmpl}, nil
}

// InjectCover renders the cover template and injects it after <body>.
// A nil data leaves the content unchanged.
func (c *CoverInjection) InjectCover(ctx context.Context, htmlContent string, data *CoverData) (string, error) {
	if data == nil {
		return htmlContent, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCoverRender, err)
	}

	if pos := afterBodyTag(htmlContent); pos != -1 {
		return htmlContent[:pos] + buf.String() + htmlContent[pos:], nil
	}
	return buf.String() + htmlContent, nil
}

// TOCEntry is one line of the table of contents.
type TOCEntry struct {
	Anchor string
	Title  string
}

// TOCInjector defines the contract for TOC injection into HTML.
type TOCInjector interface {
	InjectTOC(ctx context.Context, htmlContent string, entries []TOCEntry) (string, error)
}

// TOCInjection implements TOCInjector.
type TOCInjection struct{}

// NewTOCInjection creates a new TOC injector.
func NewTOCInjection() *TOCInjection {
	return &TOCInjection{}
}

// html/template strips comments, so the cover template ends with a marker span.
var coverEndPattern = regexp.MustCompile(`(?i)<span[^>]*data-cover-end[^>]*>\s*</span>`)

// InjectTOC inserts the table of contents after the cover page, or after
// <body> when there is no cover. An empty entry list leaves the content
// unchanged.
func (t *TOCInjection) InjectTOC(ctx context.Context, htmlContent string, entries []TOCEntry) (string, error) {
	if len(entries) == 0 {
		return htmlContent, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	toc := generateTOC(entries)

	if loc := coverEndPattern.FindStringIndex(htmlContent); loc != nil {
		return htmlContent[:loc[1]] + toc + htmlContent[loc[1]:], nil
	}
	if pos := afterBodyTag(htmlContent); pos != -1 {
		return htmlContent[:pos] + toc + htmlContent[pos:], nil
	}
	return toc + htmlContent, nil
}

func generateTOC(entries []TOCEntry) string {
	var buf strings.Builder
	buf.WriteString(`<div class="toc"><h1>`)
	buf.WriteString(TOCTitle)
	buf.WriteString(`</h1><ul>`)
	for _, e := range entries {
		buf.WriteString(`<li><a href="#`)
		buf.WriteString(html.EscapeString(e.Anchor))
		buf.WriteString(`">`)
		buf.WriteString(html.EscapeString(e.Title))
		buf.WriteString(`</a></li>`)
	}
	buf.WriteString(`</ul></div>`)
	return buf.String()
}

// Compile-time interface checks.
var (
	_ CSSInjector   = (*CSSInjection)(nil)
	_ CoverInjector = (*CoverInjection)(nil)
	_ TOCInjector   = (*TOCInjection)(nil)
)
