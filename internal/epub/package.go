package epub

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

type container struct {
	XMLName   xml.Name   `xml:"container"`
	Version   string     `xml:"version,attr"`
	Xmlns     string     `xml:"xmlns,attr"`
	RootFiles []rootFile `xml:"rootfiles>rootfile"`
}

type rootFile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

func newContainer() container {
	return container{
		Version: "1.0",
		Xmlns:   "urn:oasis:names:tc:opendocument:xmlns:container",
		RootFiles: []rootFile{{
			FullPath:  contentDir + "/" + packageFile,
			MediaType: "application/oebps-package+xml",
		}},
	}
}

type opfPackage struct {
	XMLName          xml.Name    `xml:"package"`
	Xmlns            string      `xml:"xmlns,attr"`
	Version          string      `xml:"version,attr"`
	UniqueIdentifier string      `xml:"unique-identifier,attr"`
	Metadata         opfMetadata `xml:"metadata"`
	Manifest         []opfItem   `xml:"manifest>item"`
	Spine            opfSpine    `xml:"spine"`
}

type opfMetadata struct {
	XmlnsDC    string        `xml:"xmlns:dc,attr"`
	Identifier opfIdentifier `xml:"dc:identifier"`
	Title      string        `xml:"dc:title"`
	Language   string        `xml:"dc:language"`
	Creator    string        `xml:"dc:creator,omitempty"`
	Meta       []opfMeta     `xml:"meta"`
}

type opfIdentifier struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

type opfMeta struct {
	Property string `xml:"property,attr,omitempty"`
	Name     string `xml:"name,attr,omitempty"`
	Content  string `xml:"content,attr,omitempty"`
	Value    string `xml:",chardata"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr,omitempty"`
}

type opfSpine struct {
	Toc      string       `xml:"toc,attr"`
	ItemRefs []opfItemRef `xml:"itemref"`
}

type opfItemRef struct {
	IDRef string `xml:"idref,attr"`
}

const coverID = "cover-image"

func newPackage(b *Book) opfPackage {
	modified := b.Modified
	if modified.IsZero() {
		modified = time.Now()
	}

	meta := []opfMeta{{Property: "dcterms:modified", Value: modified.UTC().Format("2006-01-02T15:04:05Z")}}
	if b.Cover != nil {
		meta = append(meta, opfMeta{Name: "cover", Content: coverID})
	}

	pkg := opfPackage{
		Xmlns:            "http://www.idpf.org/2007/opf",
		Version:          "3.0",
		UniqueIdentifier: "bookid",
		Metadata: opfMetadata{
			XmlnsDC:    "http://purl.org/dc/elements/1.1/",
			Identifier: opfIdentifier{ID: "bookid", Value: "urn:uuid:" + b.Identifier},
			Title:      b.Title,
			Language:   language(b),
			Creator:    b.Author,
			Meta:       meta,
		},
		Spine: opfSpine{Toc: "ncx", ItemRefs: []opfItemRef{{IDRef: "nav"}}},
	}

	pkg.Manifest = append(pkg.Manifest,
		opfItem{ID: "nav", Href: navFile, MediaType: "application/xhtml+xml", Properties: "nav"},
		opfItem{ID: "ncx", Href: ncxFile, MediaType: "application/x-dtbncx+xml"},
		opfItem{ID: "style", Href: styleSheet, MediaType: "text/css"},
	)
	for i := range b.Chapters {
		id := fmt.Sprintf("chapter_%d", i+1)
		pkg.Manifest = append(pkg.Manifest, opfItem{ID: id, Href: ChapterFile(i), MediaType: "application/xhtml+xml"})
		pkg.Spine.ItemRefs = append(pkg.Spine.ItemRefs, opfItemRef{IDRef: id})
	}
	if b.Cover != nil {
		pkg.Manifest = append(pkg.Manifest, opfItem{ID: coverID, Href: b.Cover.Name, MediaType: b.Cover.MediaType, Properties: "cover-image"})
	}
	for i, a := range b.Assets {
		pkg.Manifest = append(pkg.Manifest, opfItem{ID: fmt.Sprintf("asset_%d", i+1), Href: a.Name, MediaType: a.MediaType})
	}
	return pkg
}

func language(b *Book) string {
	if b.Language == "" {
		return DefaultLanguage
	}
	return b.Language
}

type ncx struct {
	XMLName  xml.Name      `xml:"ncx"`
	Xmlns    string        `xml:"xmlns,attr"`
	Version  string        `xml:"version,attr"`
	Head     []ncxMeta     `xml:"head>meta"`
	DocTitle ncxText       `xml:"docTitle"`
	NavMap   []ncxNavPoint `xml:"navMap>navPoint"`
}

type ncxMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type ncxText struct {
	Text string `xml:"text"`
}

type ncxNavPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder int        `xml:"playOrder,attr"`
	Label     ncxText    `xml:"navLabel"`
	Content   ncxContent `xml:"content"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

func newNCX(b *Book) ncx {
	n := ncx{
		Xmlns:    "http://www.daisy.org/z3986/2005/ncx/",
		Version:  "2005-1",
		Head:     []ncxMeta{{Name: "dtb:uid", Content: "urn:uuid:" + b.Identifier}},
		DocTitle: ncxText{Text: b.Title},
	}
	for i, ch := range b.Chapters {
		n.NavMap = append(n.NavMap, ncxNavPoint{
			ID:        fmt.Sprintf("chapter%d", i+1),
			PlayOrder: i + 1,
			Label:     ncxText{Text: ch.Title},
			Content:   ncxContent{Src: ChapterFile(i)},
		})
	}
	return n
}

func xhtmlHead(lang, title string) string {
	var buf strings.Builder
	buf.WriteString(xml.Header)
	buf.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&buf, `<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" lang="%[1]s" xml:lang="%[1]s">`, escape(lang))
	buf.WriteString("\n<head>\n<title>")
	buf.WriteString(escape(title))
	buf.WriteString("</title>\n")
	fmt.Fprintf(&buf, `<link rel="stylesheet" type="text/css" href="%s"/>`, styleSheet)
	buf.WriteString("\n</head>\n")
	return buf.String()
}

func navDocument(b *Book) string {
	var buf strings.Builder
	buf.WriteString(xhtmlHead(language(b), b.Title))
	buf.WriteString("<body>\n<nav epub:type=\"toc\" id=\"toc\">\n<h1>")
	buf.WriteString(escape(b.Title))
	buf.WriteString("</h1>\n<ol>\n")
	for i, ch := range b.Chapters {
		fmt.Fprintf(&buf, "<li><a href=\"%s\">%s</a></li>\n", ChapterFile(i), escape(ch.Title))
	}
	buf.WriteString("</ol>\n</nav>\n</body>\n</html>\n")
	return buf.String()
}

func chapterDocument(b *Book, ch Chapter) string {
	var buf strings.Builder
	buf.WriteString(xhtmlHead(language(b), ch.Title))
	buf.WriteString("<body>\n")
	buf.WriteString(ch.Body)
	buf.WriteString("\n</body>\n</html>\n")
	return buf.String()
}
