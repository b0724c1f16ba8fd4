package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Normalized classes applied to figure groups.
const (
	FigureClass  = "image-figure"
	CaptionClass = "image-caption"
)

var (
	figureClassPattern = regexp.MustCompile(`^image-(figure|caption)$`)
	tokenClassPattern  = regexp.MustCompile(`^[A-Za-z0-9_ -]+$`)
	languagePattern    = regexp.MustCompile(`^language-[A-Za-z0-9_+#-]+$`)
)

// newPolicy builds the user-generated-content policy used before the
// structural rewrite. Styling classes are only kept where later passes
// own them.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(false)
	p.AllowElements("figure", "figcaption", "picture")
	p.AllowAttrs("class").Matching(figureClassPattern).OnElements("figure", "figcaption")
	p.AllowAttrs("class").Matching(languagePattern).OnElements("code")
	p.AllowAttrs("class").Matching(tokenClassPattern).OnElements("pre", "span")
	return p
}
