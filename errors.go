package later2pdf

import (
	"errors"

	"github.com/alnah/go-later2pdf/internal/source"
)

// Sentinel errors for conversion requests.
var (
	ErrMissingCredentials = source.ErrMissingCredentials
	ErrTooManyArticles    = errors.New("too many articles requested")
	ErrNoArticles         = errors.New("no articles fetched")
	ErrInvalidFormat      = errors.New("invalid output format")
	ErrInvalidLayout      = errors.New("invalid layout")
	ErrRender             = errors.New("document rendering failed")
	ErrArtifactMissing    = errors.New("output file not found")
	ErrInternal           = errors.New("internal error")
)

// Browser errors.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
)

// Compression errors. Both are absorbed by Convert, which falls back to
// the uncompressed file.
var (
	ErrCompressorNotFound = errors.New("ghostscript not found")
	ErrCompression        = errors.New("PDF compression failed")
)
