package epub

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Namespaced and malformed attribute names cannot be declared in a chapter.
var xmlAttrName = regexp.MustCompile(`^[A-Za-z_][-A-Za-z0-9_.]*$`)

// ToXHTML re-serializes an HTML fragment as well-formed XHTML: void
// elements are self-closed, text and attributes are XML-escaped, and
// comments are dropped.
func ToXHTML(fragment string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", fmt.Errorf("parsing fragment: %w", err)
	}

	var buf strings.Builder
	for _, n := range nodes {
		writeNode(&buf, n)
	}
	return buf.String(), nil
}

func writeNode(buf *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(escape(n.Data))
	case html.ElementNode:
		writeElement(buf, n)
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNode(buf, c)
		}
	}
}

func writeElement(buf *strings.Builder, n *html.Node) {
	buf.WriteByte('<')
	buf.WriteString(n.Data)
	seen := make(map[string]bool, len(n.Attr))
	for _, a := range n.Attr {
		if a.Namespace != "" || !xmlAttrName.MatchString(a.Key) || seen[a.Key] {
			continue
		}
		seen[a.Key] = true
		buf.WriteByte(' ')
		buf.WriteString(a.Key)
		buf.WriteString(`="`)
		buf.WriteString(escape(a.Val))
		buf.WriteByte('"')
	}

	if voidElements[n.Data] {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(buf, c)
	}
	buf.WriteString("</")
	buf.WriteString(n.Data)
	buf.WriteByte('>')
}

func escape(s string) string {
	var buf strings.Builder
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
