package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/alnah/go-later2pdf/internal/progress"
)

// ErrDocumentRender indicates the document template failed to execute.
var ErrDocumentRender = errors.New("document template rendering failed")

// AnchorPrefix prefixes the id of each article heading.
const AnchorPrefix = "article-"

// Document is the input of FlowingAssembler.Assemble.
type Document struct {
	Title    string
	Date     string
	Articles []Processed
	// Cover is trusted SVG markup; empty means no cover page.
	Cover string
	// Preface is an HTML fragment placed after the table of contents.
	Preface string
	CSS     string
}

// articleView is the template-facing form of a processed article.
type articleView struct {
	Anchor  string
	Title   string
	Byline  string
	Content template.HTML
}

type documentView struct {
	Title    string
	Preface  template.HTML
	Articles []articleView
}

// Anchor returns the heading id of the article at 0-based position i.
func Anchor(i int) string {
	return fmt.Sprintf("%s%d", AnchorPrefix, i+1)
}

// Byline formats the metadata line shown under an article title.
func Byline(author, domain string) string {
	if domain == "" {
		return author
	}
	return author + " | " + domain
}

// FlowingAssembler builds the single-page HTML source of the PDF.
type FlowingAssembler struct {
	doc   *template.Template
	css   CSSInjector
	cover CoverInjector
	toc   TOCInjector
}

// NewFlowingAssembler parses the document and cover templates.
func NewFlowingAssembler(documentTmpl, coverTmpl string) (*FlowingAssembler, error) {
	doc, err := template.New("document").Parse(documentTmpl)
	if err != nil {
		return nil, fmt.Errorf("parsing document template: %w", err)
	}
	cover, err := NewCoverInjection(coverTmpl)
	if err != nil {
		return nil, err
	}
	return &FlowingAssembler{
		doc:   doc,
		css:   &CSSInjection{},
		cover: cover,
		toc:   NewTOCInjection(),
	}, nil
}

// Assemble renders d into a complete HTML document. Articles keep the
// order of d.Articles and are anchored article-1..N.
func (a *FlowingAssembler) Assemble(ctx context.Context, d Document, r progress.Reporter) (string, error) {
	r = progress.OrNop(r)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.Report(60, "Generating Table of Contents")
	entries := make([]TOCEntry, len(d.Articles))
	views := make([]articleView, len(d.Articles))
	for i, p := range d.Articles {
		entries[i] = TOCEntry{Anchor: Anchor(i), Title: p.Title}
		views[i] = articleView{
			Anchor: Anchor(i),
			Title:  p.Title,
			Byline: Byline(p.Author, p.Domain),
			// #nosec G203 -- content was sanitized by the processing step
			Content: template.HTML(p.Content),
		}
	}

	r.Report(70, "Adding article content")
	var buf bytes.Buffer
	view := documentView{
		Title: d.Title,
		// #nosec G203 -- rendered by goldmark without raw HTML
		Preface:  template.HTML(d.Preface),
		Articles: views,
	}
	if err := a.doc.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDocumentRender, err)
	}
	out := a.css.InjectCSS(ctx, buf.String(), d.CSS)

	var cover *CoverData
	if strings.TrimSpace(d.Cover) != "" {
		// #nosec G203 -- cover comes from local assets
		cover = &CoverData{Title: d.Title, Date: d.Date, Image: template.HTML(d.Cover)}
	}
	out, err := a.cover.InjectCover(ctx, out, cover)
	if err != nil {
		return "", err
	}
	return a.toc.InjectTOC(ctx, out, entries)
}
