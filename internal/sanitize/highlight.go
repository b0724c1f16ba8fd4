package sanitize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultHighlightStyle is the chroma style used when none is configured.
const DefaultHighlightStyle = "github"

// Highlighter colors <pre><code class="language-X"> blocks with chroma
// class-based markup. Unknown languages are left untouched.
type Highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewHighlighter creates a Highlighter for a chroma style name.
// Unknown names fall back to chroma's default style.
func NewHighlighter(styleName string) *Highlighter {
	if styleName == "" {
		styleName = DefaultHighlightStyle
	}
	return &Highlighter{
		style:     styles.Get(styleName),
		formatter: chromahtml.New(chromahtml.WithClasses(true), chromahtml.TabWidth(4)),
	}
}

// CSS returns the stylesheet matching the emitted token classes.
func (h *Highlighter) CSS() string {
	var b strings.Builder
	if err := h.formatter.WriteCSS(&b, h.style); err != nil {
		return ""
	}
	return b.String()
}

// apply replaces each highlightable code block in doc.
func (h *Highlighter) apply(doc *goquery.Document) {
	doc.Find("pre > code").Each(func(_ int, code *goquery.Selection) {
		lang := codeLanguage(code)
		if lang == "" {
			return
		}
		lexer := lexers.Get(lang)
		if lexer == nil {
			return
		}

		iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code.Text())
		if err != nil {
			return
		}
		var b strings.Builder
		if err := h.formatter.Format(&b, h.style, iterator); err != nil {
			return
		}
		nodes, err := parseBodyNodes(b.String())
		if err != nil {
			return
		}
		replaceNode(code.Parent().Get(0), nodes)
	})
}

func codeLanguage(code *goquery.Selection) string {
	class, _ := code.Attr("class")
	for _, c := range strings.Fields(class) {
		if lang, ok := strings.CutPrefix(c, "language-"); ok && lang != "" {
			return lang
		}
	}
	return ""
}
