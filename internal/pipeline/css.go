package pipeline

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Page size of the flowing document, in CSS pixels.
const (
	PageWidth  = 810
	PageHeight = 1080
)

// Font is a TrueType face inlined into the document stylesheet.
type Font struct {
	Family string // e.g. "Bookerly"
	Weight string // "normal" or "bold"
	Data   []byte
}

// Layout holds the parameters of the generated stylesheet.
type Layout struct {
	TwoColumn bool
	Fonts     []Font
}

// BuildLayoutCSS generates the layout-dependent part of the stylesheet.
// Static rules (figures, captions, lists, links) come from the base style.
func BuildLayoutCSS(l Layout) string {
	var buf strings.Builder
	buf.WriteString(buildFontFaceCSS(l.Fonts))
	buf.WriteString(buildPageCSS(l.TwoColumn))
	if l.TwoColumn {
		buf.WriteString(twoColumnCSS)
	}
	return buf.String()
}

func buildFontFaceCSS(fonts []Font) string {
	var buf strings.Builder
	for _, f := range fonts {
		if len(f.Data) == 0 || f.Family == "" {
			continue
		}
		weight := f.Weight
		if weight == "" {
			weight = "normal"
		}
		fmt.Fprintf(&buf, `
@font-face {
  font-family: "%s";
  src: url(data:font/truetype;charset=utf-8;base64,%s) format("truetype");
  font-weight: %s;
  font-style: normal;
}
`, escapeCSSString(f.Family), base64.StdEncoding.EncodeToString(f.Data), weight)
	}
	return buf.String()
}

func buildPageCSS(twoColumn bool) string {
	margin, bodySize, h1Size, h1Bottom, tocPadding := "50px 50px", "15px", "26px", "20px", "0rem"
	if twoColumn {
		margin, bodySize, h1Size, h1Bottom, tocPadding = "50px 25px", "13.5px", "24px", "10px", "1.5rem"
	}

	return fmt.Sprintf(`
@page {
  size: %[1]dpx %[2]dpx;
  margin: %[3]s;
}
@page :first {
  margin: 0;
}
body {
  font-size: %[4]s;
}
h1 {
  font-size: %[5]s;
  margin-bottom: %[6]s;
}
.cover {
  width: %[1]dpx;
  height: %[2]dpx;
}
.toc {
  padding: %[7]s;
}
`, PageWidth, PageHeight, margin, bodySize, h1Size, h1Bottom, tocPadding)
}

const twoColumnCSS = `
.article-content {
  column-count: 2;
  column-gap: 20px;
  text-align: justify;
}
.article-content img {
  max-width: 100%;
  height: auto;
  display: block;
  margin: 10px auto;
  page-break-inside: avoid;
}
.article-header {
  column-span: all;
}
`

// escapeCSSString escapes a string for use inside a quoted CSS value.
func escapeCSSString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\A `)
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
