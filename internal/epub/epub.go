package epub

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"strings"
	"time"
)

// Sentinel errors for book writing.
var (
	ErrNoChapters   = errors.New("book has no chapters")
	ErrInvalidAsset = errors.New("invalid asset")
	ErrWrite        = errors.New("failed to write epub")
)

const (
	// MediaType is the EPUB container media type.
	MediaType = "application/epub+zip"

	// DefaultLanguage is used when Book.Language is empty.
	DefaultLanguage = "en"

	contentDir  = "OEBPS"
	styleSheet  = "style.css"
	navFile     = "nav.xhtml"
	ncxFile     = "toc.ncx"
	packageFile = "content.opf"
)

// Chapter is one reading-order document.
type Chapter struct {
	Title string
	// Body is an XHTML fragment placed inside <body>.
	Body string
}

// Asset is a binary resource referenced by chapters.
type Asset struct {
	// Name is the path relative to the content directory, e.g. "images/a.jpg".
	Name      string
	MediaType string
	Data      []byte
}

// Book is the input of Write.
type Book struct {
	Identifier string // without "urn:uuid:" prefix
	Title      string
	Author     string
	Language   string
	Modified   time.Time
	Stylesheet string
	Cover      *Asset
	Chapters   []Chapter
	Assets     []Asset
}

// ChapterFile returns the file name of the chapter at 0-based position i.
func ChapterFile(i int) string {
	return fmt.Sprintf("chapter_%d.xhtml", i+1)
}

// WriteFile writes the book to path, replacing any existing file.
func WriteFile(path string, b *Book) error {
	f, err := os.Create(path) // #nosec G304 -- caller controls output path
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := Write(f, b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Write serializes the book as an EPUB archive.
func Write(w io.Writer, b *Book) error {
	if len(b.Chapters) == 0 {
		return ErrNoChapters
	}
	if err := validateAssets(b); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	if err := writeContainer(zw, b); err != nil {
		_ = zw.Close()
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

func validateAssets(b *Book) error {
	seen := make(map[string]bool, len(b.Assets)+1)
	check := func(a Asset) error {
		if a.Name == "" || a.MediaType == "" || strings.Contains(a.Name, "..") || strings.HasPrefix(a.Name, "/") {
			return fmt.Errorf("%w: %q", ErrInvalidAsset, a.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: duplicate %q", ErrInvalidAsset, a.Name)
		}
		seen[a.Name] = true
		return nil
	}
	if b.Cover != nil {
		if err := check(*b.Cover); err != nil {
			return err
		}
	}
	for _, a := range b.Assets {
		if err := check(a); err != nil {
			return err
		}
	}
	return nil
}

func writeContainer(zw *zip.Writer, b *Book) error {
	// The mimetype entry must come first, stored, without a data descriptor.
	mimetype := []byte(MediaType)
	mw, err := zw.CreateRaw(&zip.FileHeader{
		Name:               "mimetype",
		Method:             zip.Store,
		CRC32:              crc32.ChecksumIEEE(mimetype),
		CompressedSize64:   uint64(len(mimetype)),
		UncompressedSize64: uint64(len(mimetype)),
	})
	if err != nil {
		return err
	}
	if _, err := mw.Write(mimetype); err != nil {
		return err
	}

	if err := writeXML(zw, "META-INF/container.xml", newContainer()); err != nil {
		return err
	}
	if err := writeXML(zw, contentDir+"/"+packageFile, newPackage(b)); err != nil {
		return err
	}
	if err := writeXML(zw, contentDir+"/"+ncxFile, newNCX(b)); err != nil {
		return err
	}
	if err := writeString(zw, contentDir+"/"+navFile, navDocument(b)); err != nil {
		return err
	}
	if err := writeString(zw, contentDir+"/"+styleSheet, b.Stylesheet); err != nil {
		return err
	}
	for i, ch := range b.Chapters {
		if err := writeString(zw, contentDir+"/"+ChapterFile(i), chapterDocument(b, ch)); err != nil {
			return err
		}
	}
	if b.Cover != nil {
		if err := writeBytes(zw, contentDir+"/"+b.Cover.Name, b.Cover.Data); err != nil {
			return err
		}
	}
	for _, a := range b.Assets {
		if err := writeBytes(zw, contentDir+"/"+a.Name, a.Data); err != nil {
			return err
		}
	}
	return nil
}

func writeXML(zw *zip.Writer, name string, v any) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	return enc.Close()
}

func writeString(zw *zip.Writer, name, content string) error {
	return writeBytes(zw, name, []byte(content))
}

func writeBytes(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
