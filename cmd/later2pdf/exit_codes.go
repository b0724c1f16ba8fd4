package main

import (
	"errors"
	"os"

	flag "github.com/spf13/pflag"

	later2pdf "github.com/alnah/go-later2pdf"
	"github.com/alnah/go-later2pdf/internal/assets"
	"github.com/alnah/go-later2pdf/internal/config"
	"github.com/alnah/go-later2pdf/internal/hints"
	"github.com/alnah/go-later2pdf/internal/source"
)

// Exit codes for the later2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful command
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // Nothing fetched, file not found, permission denied
	ExitBrowser = 4 // Browser/render errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, later2pdf.ErrBrowserConnect) ||
		errors.Is(err, later2pdf.ErrPageCreate) ||
		errors.Is(err, later2pdf.ErrPageLoad) ||
		errors.Is(err, later2pdf.ErrPDFGeneration) ||
		errors.Is(err, later2pdf.ErrRender) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, later2pdf.ErrNoArticles) ||
		errors.Is(err, later2pdf.ErrArtifactMissing) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrReadPreface) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, later2pdf.ErrMissingCredentials) ||
		errors.Is(err, later2pdf.ErrTooManyArticles) ||
		errors.Is(err, later2pdf.ErrInvalidFormat) ||
		errors.Is(err, later2pdf.ErrInvalidLayout) ||
		errors.Is(err, source.ErrUnknownBackend) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrTemplateSetNotFound) ||
		errors.Is(err, assets.ErrIncompleteTemplateSet) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, ErrInvalidFlags) ||
		errors.Is(err, ErrNoIDs) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, flag.ErrHelp) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns a hint for errors whose fix lives outside the command
// line that failed. Errors built with a hint already carry their own.
func hintFor(err error) string {
	switch {
	case errors.Is(err, later2pdf.ErrMissingCredentials):
		return hints.ForMissingCredentials()
	case errors.Is(err, later2pdf.ErrNoArticles):
		return hints.ForNoArticles()
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	default:
		return ""
	}
}
