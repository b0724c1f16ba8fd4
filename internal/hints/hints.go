// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-later2pdf/internal/fileutil"
)

// IsInContainer detects Docker by the /.dockerenv file it creates.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors, with
// sandbox advice when running in CI or a container.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}
	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for many articles or large images, use --timeout")
}

// ForConfigNotFound suggests --config, or creating the file in the user
// config directory when it was among the searched paths.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(filepathSlash(p), "/go-later2pdf/") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForMissingCredentials explains where the API key comes from.
func ForMissingCredentials() string {
	return format("set LATER2PDF_API_KEY, backend.apiKey in the config, or pass --api-key")
}

// ForNoArticles is shown when none of the requested ids could be fetched.
func ForNoArticles() string {
	return format("run `later2pdf list` to see available ids")
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForGhostscript is shown when the compressor binary is unavailable.
func ForGhostscript() string {
	return format("install Ghostscript, set pdf.ghostscript, or set pdf.compress: false")
}

func filepathSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
