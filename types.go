package later2pdf

import (
	"fmt"
	"strings"

	"github.com/alnah/go-later2pdf/internal/progress"
	"github.com/alnah/go-later2pdf/internal/source"
)

// MaxArticles bounds the number of ids in one conversion request.
const MaxArticles = 10

// Format is the output document format.
type Format string

// Output formats.
const (
	FormatPDF  Format = "pdf"
	FormatEPUB Format = "epub"
)

// ParseFormat maps user input to a Format. Empty input selects PDF.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatPDF):
		return FormatPDF, nil
	case string(FormatEPUB):
		return FormatEPUB, nil
	default:
		return "", fmt.Errorf("%w: %q (must be pdf or epub)", ErrInvalidFormat, s)
	}
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	return string(f)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatEPUB {
		return "application/epub+zip"
	}
	return "application/pdf"
}

// Layout selects the body flow of a PDF.
type Layout string

// Layouts.
const (
	LayoutSingle    Layout = "single"
	LayoutTwoColumn Layout = "two-column"
)

// LayoutFor returns LayoutTwoColumn when twoColumn is set.
func LayoutFor(twoColumn bool) Layout {
	if twoColumn {
		return LayoutTwoColumn
	}
	return LayoutSingle
}

// Request describes one conversion. It lives for a single Convert call.
type Request struct {
	Credentials source.Credentials
	// IDs are backend references (Omnivore slugs or Readeck ids), at most
	// MaxArticles. Document order follows this slice.
	IDs     []string
	Format  Format
	Layout  Layout
	Archive bool
	// Progress receives milestone updates. Nil disables reporting.
	Progress progress.Reporter
}

// Validate checks the request before any network call is made.
// A zero Format or Layout means PDF, single column. Layout is ignored
// for EPUB.
func (r *Request) Validate() error {
	if err := r.Credentials.Validate(); err != nil {
		return err
	}
	if len(r.IDs) > MaxArticles {
		return fmt.Errorf("%w: %d (maximum %d)", ErrTooManyArticles, len(r.IDs), MaxArticles)
	}

	switch r.Format {
	case "", FormatPDF, FormatEPUB:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, r.Format)
	}

	switch r.Layout {
	case "", LayoutSingle, LayoutTwoColumn:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLayout, r.Layout)
	}
	return nil
}

func (r *Request) format() Format {
	if r.Format == "" {
		return FormatPDF
	}
	return r.Format
}
