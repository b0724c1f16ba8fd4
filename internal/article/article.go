// Package article defines the normalized article model shared by every
// backend and by the document pipeline.
package article

import (
	"net/url"
	"strings"
)

// Display defaults applied during normalization.
const (
	DefaultTitle  = "Untitled"
	DefaultAuthor = "Unknown"
)

// Article is one saved page as returned by a backend.
type Article struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Author    string   `json:"author"`
	CreatedAt string   `json:"createdAt"`
	Content   string   `json:"content,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Summary is the listing view of an article. It carries no content.
type Summary struct {
	ID        string   `json:"id"`
	Slug      string   `json:"slug,omitempty"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Author    string   `json:"author"`
	CreatedAt string   `json:"createdAt"`
	Tags      []string `json:"tags,omitempty"`
}

// Normalize fills display defaults so Title and Author are never empty.
// The ID is trimmed but never invented.
func (a *Article) Normalize() {
	a.ID = strings.TrimSpace(a.ID)
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		a.Title = DefaultTitle
	}
	a.Author = strings.TrimSpace(a.Author)
	if a.Author == "" {
		a.Author = DefaultAuthor
	}
}

// Summary projects the article to its listing view.
func (a Article) Summary() Summary {
	return Summary{
		ID:        a.ID,
		Title:     a.Title,
		URL:       a.URL,
		Author:    a.Author,
		CreatedAt: a.CreatedAt,
		Tags:      a.Tags,
	}
}

// Ref returns the identifier a backend expects when fetching the full
// article: the slug when the backend uses one, otherwise the ID.
func (s Summary) Ref() string {
	if s.Slug != "" {
		return s.Slug
	}
	return s.ID
}

// Normalize fills display defaults on a listing entry.
func (s *Summary) Normalize() {
	s.Title = strings.TrimSpace(s.Title)
	if s.Title == "" {
		s.Title = DefaultTitle
	}
	s.Author = strings.TrimSpace(s.Author)
	if s.Author == "" {
		s.Author = DefaultAuthor
	}
}

// Domain returns the host part of the article URL, or "" when the URL
// cannot be parsed.
func (a Article) Domain() string {
	return Domain(a.URL)
}

// Domain returns the host of rawURL, or "" when it is not parsable.
func Domain(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// HasTag reports whether the article carries the given label.
// Comparison is case-insensitive; tag order does not matter.
func (a Article) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// JoinAuthors joins a list of author names for display.
// Returns DefaultAuthor when no usable name is present.
func JoinAuthors(names []string) string {
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}
	if len(kept) == 0 {
		return DefaultAuthor
	}
	return strings.Join(kept, ", ")
}
