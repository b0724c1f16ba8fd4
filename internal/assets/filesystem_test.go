package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestNewFilesystemLoader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr bool
	}{
		{name: "valid directory", path: func(t *testing.T) string { return t.TempDir() }},
		{name: "empty path", path: func(*testing.T) string { return "" }, wantErr: true},
		{name: "missing directory", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") }, wantErr: true},
		{
			name: "file instead of directory",
			path: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "f")
				writeFile(t, p, "x")
				return p
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewFilesystemLoader(tt.path(t))
			if tt.wantErr && !errors.Is(err, ErrInvalidBasePath) {
				t.Errorf("error = %v, want ErrInvalidBasePath", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestFilesystemLoader_Load(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "styles", "night.css"), "body{background:#000}")
	writeFile(t, filepath.Join(dir, "images", "cover.svg"), "<svg/>")
	writeFile(t, filepath.Join(dir, "templates", "full", "document.html"), "<body></body>")
	writeFile(t, filepath.Join(dir, "templates", "full", "cover.html"), "<div></div>")
	writeFile(t, filepath.Join(dir, "templates", "half", "document.html"), "<body></body>")

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}

	if css, err := loader.LoadStyle("night"); err != nil || css != "body{background:#000}" {
		t.Errorf("LoadStyle() = %q, %v", css, err)
	}
	if _, err := loader.LoadStyle("day"); !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("LoadStyle(day) error = %v, want ErrStyleNotFound", err)
	}

	if svg, err := loader.LoadImage("cover"); err != nil || string(svg) != "<svg/>" {
		t.Errorf("LoadImage() = %q, %v", svg, err)
	}
	if _, err := loader.LoadImage("logo"); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("LoadImage(logo) error = %v, want ErrImageNotFound", err)
	}

	ts, err := loader.LoadTemplateSet("full")
	if err != nil {
		t.Fatalf("LoadTemplateSet(full) error = %v", err)
	}
	if ts.Document != "<body></body>" || ts.Cover != "<div></div>" {
		t.Errorf("template set = %+v", ts)
	}
	if _, err := loader.LoadTemplateSet("half"); !errors.Is(err, ErrIncompleteTemplateSet) {
		t.Errorf("LoadTemplateSet(half) error = %v, want ErrIncompleteTemplateSet", err)
	}
	if _, err := loader.LoadTemplateSet("none"); !errors.Is(err, ErrTemplateSetNotFound) {
		t.Errorf("LoadTemplateSet(none) error = %v, want ErrTemplateSetNotFound", err)
	}
}

func TestFilesystemLoader_RejectsSymlinkEscape(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "styles"), 0o755); err != nil {
		t.Fatal(err)
	}
	secret := filepath.Join(t.TempDir(), "secret.css")
	writeFile(t, secret, "secret")
	if err := os.Symlink(secret, filepath.Join(dir, "styles", "evil.css")); err != nil {
		t.Skipf("symlink creation not supported: %v", err)
	}

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}
	if _, err := loader.LoadStyle("evil"); !errors.Is(err, ErrPathTraversal) {
		t.Errorf("LoadStyle(evil) error = %v, want ErrPathTraversal", err)
	}
}

func TestLoadFonts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Bookerly-Regular.ttf"), "regular")
	writeFile(t, filepath.Join(dir, "Lexend-Regular.ttf"), "lexend")

	fonts, missing := LoadFonts(dir, DefaultFonts)

	if len(fonts) != 2 {
		t.Fatalf("fonts = %d, want 2", len(fonts))
	}
	if fonts[0].Family != "Bookerly" || string(fonts[0].Data) != "regular" {
		t.Errorf("fonts[0] = %+v", fonts[0])
	}
	if fonts[1].Family != "Lexend" || fonts[1].Weight != "normal" {
		t.Errorf("fonts[1] = %+v", fonts[1])
	}
	if len(missing) != 1 || missing[0] != "Bookerly-Bold" {
		t.Errorf("missing = %v, want [Bookerly-Bold]", missing)
	}
}

func TestLoadFonts_NoDirectory(t *testing.T) {
	t.Parallel()

	for _, dir := range []string{"", "/nonexistent/fonts/dir"} {
		fonts, missing := LoadFonts(dir, DefaultFonts)
		if len(fonts) != 0 || len(missing) != len(DefaultFonts) {
			t.Errorf("LoadFonts(%q) = %d fonts, %d missing", dir, len(fonts), len(missing))
		}
	}
}
