package hints

// Notes:
// - ForBrowserConnect tests cannot use t.Parallel() because they:
//   1. Use t.Setenv() which modifies process environment
//   2. Modify the package-level IsInContainer variable
// These are acceptable gaps: we test observable behavior through environment manipulation.

import (
	"strings"
	"testing"
)

func TestForBrowserConnect_InCI(t *testing.T) {
	// Save and restore IsInContainer (not parallel-safe, see package notes)
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return false }

	t.Setenv("CI", "true")
	t.Setenv("ROD_NO_SANDBOX", "")
	t.Setenv("ROD_BROWSER_BIN", "")

	hint := ForBrowserConnect()

	if !strings.Contains(hint, "hint:") {
		t.Error("expected hint prefix")
	}
	if !strings.Contains(hint, "ROD_NO_SANDBOX") {
		t.Error("expected ROD_NO_SANDBOX suggestion in CI")
	}
	if !strings.Contains(hint, "ROD_BROWSER_BIN") {
		t.Error("expected ROD_BROWSER_BIN suggestion")
	}
}

func TestForBrowserConnect_InDocker(t *testing.T) {
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return true }

	t.Setenv("CI", "")
	t.Setenv("ROD_NO_SANDBOX", "")
	t.Setenv("ROD_BROWSER_BIN", "")

	hint := ForBrowserConnect()

	if !strings.Contains(hint, "ROD_NO_SANDBOX") {
		t.Error("expected ROD_NO_SANDBOX suggestion in Docker")
	}
}

func TestForBrowserConnect_SandboxAlreadySet(t *testing.T) {
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return true }

	t.Setenv("CI", "")
	t.Setenv("ROD_NO_SANDBOX", "1")
	t.Setenv("ROD_BROWSER_BIN", "")

	hint := ForBrowserConnect()

	if strings.Contains(hint, "ROD_NO_SANDBOX") {
		t.Error("should not suggest ROD_NO_SANDBOX when already set")
	}
}

func TestForBrowserConnect_BrowserBinAlreadySet(t *testing.T) {
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return false }

	t.Setenv("CI", "")
	t.Setenv("ROD_NO_SANDBOX", "")
	t.Setenv("ROD_BROWSER_BIN", "/usr/bin/chrome")

	hint := ForBrowserConnect()

	if strings.Contains(hint, "ROD_BROWSER_BIN") {
		t.Error("should not suggest ROD_BROWSER_BIN when already set")
	}
}

func TestForBrowserConnect_NoHintsNeeded(t *testing.T) {
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return false }

	t.Setenv("CI", "")
	t.Setenv("ROD_NO_SANDBOX", "")
	t.Setenv("ROD_BROWSER_BIN", "/usr/bin/chrome")

	hint := ForBrowserConnect()

	// Should have no sandbox hint (not in CI/Docker) but no browser hint
	if strings.Contains(hint, "ROD_BROWSER_BIN") {
		t.Error("should not suggest ROD_BROWSER_BIN when set")
	}
}

func TestForBrowserConnect_AllConfigured(t *testing.T) {
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return true } // In Docker

	t.Setenv("CI", "true")
	t.Setenv("ROD_NO_SANDBOX", "1")
	t.Setenv("ROD_BROWSER_BIN", "/usr/bin/chrome")

	hint := ForBrowserConnect()

	// Both env vars set, should return empty hint
	if hint != "" {
		t.Errorf("expected empty hint when all configured, got %q", hint)
	}
}

func TestForTimeout(t *testing.T) {
	hint := ForTimeout()

	if !strings.Contains(hint, "hint:") {
		t.Error("expected hint prefix")
	}
	if !strings.Contains(hint, "--timeout") {
		t.Error("expected --timeout flag mention")
	}
}

func TestForConfigNotFound(t *testing.T) {
	tests := []struct {
		name     string
		paths    []string
		contains string
		absent   string
	}{
		{
			name:     "empty paths",
			paths:    []string{},
			contains: "--config",
			absent:   "create",
		},
		{
			name:     "user config dir searched",
			paths:    []string{"./foo.yaml", "/home/u/.config/go-later2pdf/foo.yaml"},
			contains: "create /home/u/.config/go-later2pdf/foo.yaml",
		},
		{
			name:     "only local paths",
			paths:    []string{"./foo.yaml", "./foo.yml"},
			contains: "--config",
			absent:   "create",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := ForConfigNotFound(tt.paths)

			if !strings.Contains(hint, "hint:") {
				t.Error("expected hint prefix")
			}
			if !strings.Contains(hint, tt.contains) {
				t.Errorf("expected hint to contain %q, got %q", tt.contains, hint)
			}
			if tt.absent != "" && strings.Contains(hint, tt.absent) {
				t.Errorf("hint %q should not contain %q", hint, tt.absent)
			}
		})
	}
}

func TestForMissingCredentials(t *testing.T) {
	hint := ForMissingCredentials()

	if !strings.Contains(hint, "LATER2PDF_API_KEY") {
		t.Errorf("expected env var mention, got %q", hint)
	}
	if !strings.Contains(hint, "--api-key") {
		t.Errorf("expected flag mention, got %q", hint)
	}
}

func TestForGhostscript(t *testing.T) {
	hint := ForGhostscript()

	if !strings.Contains(hint, "Ghostscript") {
		t.Error("expected Ghostscript mention")
	}
	if !strings.Contains(hint, "pdf.compress: false") {
		t.Error("expected opt-out mention")
	}
}

func TestFormat_Consistency(t *testing.T) {
	hints := []string{
		ForTimeout(),
		ForOutputDirectory(),
		ForMissingCredentials(),
		ForNoArticles(),
		ForGhostscript(),
		ForConfigNotFound(nil),
	}

	for _, h := range hints {
		if !strings.HasPrefix(h, "\n  hint: ") {
			t.Errorf("hint format inconsistent: %q", h)
		}
	}
}

func TestFormatHints_Empty(t *testing.T) {
	if got := formatHints(nil); got != "" {
		t.Errorf("formatHints(nil) = %q, want empty", got)
	}
	if got := format(""); got != "" {
		t.Errorf("format(\"\") = %q, want empty", got)
	}
}
