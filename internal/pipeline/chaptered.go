package pipeline

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/alnah/go-later2pdf/internal/epub"
)

// Book is the input of BuildBook.
type Book struct {
	Identifier string
	Title      string
	Modified   time.Time
	Articles   []Processed
	// Preface is an HTML fragment; non-empty adds a leading chapter.
	Preface    string
	Stylesheet string
	// Cover is an SVG document; empty means no cover image.
	Cover string
}

// BookAuthor is the creator recorded for multi-article books.
const BookAuthor = "Various"

// PrefaceTitle is the title of the optional leading chapter.
const PrefaceTitle = "Preface"

// BuildBook converts processed articles into an epub.Book, one chapter per
// article in order, carrying every embedded image as an asset.
func BuildBook(ctx context.Context, b Book) (*epub.Book, error) {
	out := &epub.Book{
		Identifier: b.Identifier,
		Title:      b.Title,
		Author:     BookAuthor,
		Language:   epub.DefaultLanguage,
		Modified:   b.Modified,
		Stylesheet: b.Stylesheet,
	}
	if strings.TrimSpace(b.Cover) != "" {
		out.Cover = &epub.Asset{Name: "cover.svg", MediaType: "image/svg+xml", Data: []byte(b.Cover)}
	}

	if strings.TrimSpace(b.Preface) != "" {
		body, err := epub.ToXHTML(b.Preface)
		if err != nil {
			return nil, fmt.Errorf("preface: %w", err)
		}
		out.Chapters = append(out.Chapters, epub.Chapter{Title: PrefaceTitle, Body: body})
	}

	for _, p := range b.Articles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := epub.ToXHTML(p.Content)
		if err != nil {
			return nil, fmt.Errorf("article %q: %w", p.ID, err)
		}
		out.Chapters = append(out.Chapters, epub.Chapter{
			Title: p.Title,
			Body:  chapterHeader(p) + content,
		})
		for _, a := range p.Assets {
			out.Assets = append(out.Assets, epub.Asset{Name: a.Name, MediaType: a.MediaType, Data: a.Data})
		}
	}
	return out, nil
}

func chapterHeader(p Processed) string {
	return fmt.Sprintf(`<h1>%s</h1><p class="metadata"><em>By %s</em></p>`,
		html.EscapeString(p.Title), html.EscapeString(p.Author))
}
