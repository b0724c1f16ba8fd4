package sanitize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseFragment parses an HTML fragment, or the body of a full document,
// into a goquery document rooted at a synthetic container node.
func parseFragment(content string) (*goquery.Document, error) {
	container := &html.Node{Type: html.DocumentNode}

	lower := strings.ToLower(strings.TrimSpace(content))
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		if err != nil {
			return nil, err
		}
		if body := findBody(doc); body != nil {
			moveChildren(body, container)
		}
		return goquery.NewDocumentFromNode(container), nil
	}

	nodes, err := parseBodyNodes(content)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(container), nil
}

// parseBodyNodes parses content as children of a <body> element.
func parseBodyNodes(content string) ([]*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	return html.ParseFragment(strings.NewReader(content), context)
}

// replaceNode puts nodes where old was. It works for any parent,
// including the synthetic container.
func replaceNode(old *html.Node, nodes []*html.Node) {
	parent := old.Parent
	if parent == nil {
		return
	}
	for _, n := range nodes {
		parent.InsertBefore(n, old)
	}
	parent.RemoveChild(old)
}

// renderFragment serializes the container's children without any wrapper.
func renderFragment(doc *goquery.Document) (string, error) {
	var b strings.Builder
	for c := doc.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

func moveChildren(from, to *html.Node) {
	for c := from.FirstChild; c != nil; {
		next := c.NextSibling
		from.RemoveChild(c)
		to.AppendChild(c)
		c = next
	}
}
