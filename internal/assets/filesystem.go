package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemLoader loads assets from a directory on the filesystem.
type FilesystemLoader struct {
	basePath string
}

// NewFilesystemLoader creates a FilesystemLoader for the given base path.
// Returns ErrInvalidBasePath if the path is not a valid, readable directory.
func NewFilesystemLoader(basePath string) (*FilesystemLoader, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}

	// Containment checks compare resolved paths.
	realPath, err := filepath.EvalSymlinks(absPath)
	if err == nil {
		absPath = realPath
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, absPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, absPath)
	}

	if _, err := os.ReadDir(absPath); err != nil {
		return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidBasePath, err)
	}

	return &FilesystemLoader{basePath: absPath}, nil
}

// LoadStyle loads {basePath}/styles/{name}.css.
func (f *FilesystemLoader) LoadStyle(name string) (string, error) {
	content, err := f.readAsset(name, "styles", ".css", ErrStyleNotFound)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// LoadImage loads {basePath}/images/{name}.svg.
func (f *FilesystemLoader) LoadImage(name string) ([]byte, error) {
	return f.readAsset(name, "images", ".svg", ErrImageNotFound)
}

func (f *FilesystemLoader) readAsset(name, dir, ext string, notFound error) ([]byte, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}

	filePath := filepath.Join(f.basePath, dir, name+ext)
	if err := f.verifyPathContainment(filePath); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filePath) // #nosec G304 -- path validated above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", notFound, name)
		}
		return nil, fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return content, nil
}

// LoadTemplateSet loads {basePath}/templates/{name}/document.html and cover.html.
func (f *FilesystemLoader) LoadTemplateSet(name string) (*TemplateSet, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}

	dirPath := filepath.Join(f.basePath, "templates", name)
	if err := f.verifyPathContainment(dirPath + string(filepath.Separator)); err != nil {
		return nil, err
	}

	document, docErr := os.ReadFile(filepath.Join(dirPath, "document.html")) // #nosec G304 -- path validated above
	cover, coverErr := os.ReadFile(filepath.Join(dirPath, "cover.html"))     // #nosec G304 -- path validated above

	if os.IsNotExist(docErr) && os.IsNotExist(coverErr) {
		return nil, fmt.Errorf("%w: %q", ErrTemplateSetNotFound, name)
	}
	if docErr != nil && !os.IsNotExist(docErr) {
		return nil, fmt.Errorf("%w: reading document.html: %v", ErrAssetRead, docErr)
	}
	if coverErr != nil && !os.IsNotExist(coverErr) {
		return nil, fmt.Errorf("%w: reading cover.html: %v", ErrAssetRead, coverErr)
	}
	if os.IsNotExist(docErr) {
		return nil, fmt.Errorf("%w: %q missing document.html", ErrIncompleteTemplateSet, name)
	}
	if os.IsNotExist(coverErr) {
		return nil, fmt.Errorf("%w: %q missing cover.html", ErrIncompleteTemplateSet, name)
	}

	return &TemplateSet{Name: name, Document: string(document), Cover: string(cover)}, nil
}

// verifyPathContainment ensures the resolved file path is within basePath,
// following symlinks.
func (f *FilesystemLoader) verifyPathContainment(filePath string) error {
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve path", ErrPathTraversal)
	}

	// A missing file keeps its unresolved path; opening it fails later.
	if realPath, err := filepath.EvalSymlinks(absFilePath); err == nil {
		absFilePath = realPath
	}

	if !strings.HasPrefix(absFilePath, f.basePath+string(filepath.Separator)) {
		return fmt.Errorf("%w: path escapes base directory", ErrPathTraversal)
	}

	return nil
}

// Compile-time interface check.
var _ AssetLoader = (*FilesystemLoader)(nil)
