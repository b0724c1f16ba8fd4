package assets

import (
	"embed"
	"fmt"
)

//go:embed styles/*
var styles embed.FS

//go:embed templates/*
var templates embed.FS

//go:embed images/*
var images embed.FS

// EmbeddedLoader loads assets compiled into the binary.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStyle loads an embedded CSS style by name.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	content, err := styles.ReadFile("styles/" + name + ".css")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}
	return string(content), nil
}

// LoadTemplateSet loads an embedded template set by name.
func (e *EmbeddedLoader) LoadTemplateSet(name string) (*TemplateSet, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}

	dir := "templates/" + name + "/"
	document, docErr := templates.ReadFile(dir + "document.html")
	cover, coverErr := templates.ReadFile(dir + "cover.html")
	if docErr != nil && coverErr != nil {
		return nil, fmt.Errorf("%w: %q", ErrTemplateSetNotFound, name)
	}
	if docErr != nil {
		return nil, fmt.Errorf("%w: %q missing document.html", ErrIncompleteTemplateSet, name)
	}
	if coverErr != nil {
		return nil, fmt.Errorf("%w: %q missing cover.html", ErrIncompleteTemplateSet, name)
	}

	return &TemplateSet{Name: name, Document: string(document), Cover: string(cover)}, nil
}

// LoadImage loads an embedded SVG image by name.
func (e *EmbeddedLoader) LoadImage(name string) ([]byte, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}
	content, err := images.ReadFile("images/" + name + ".svg")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrImageNotFound, name)
	}
	return content, nil
}

// Compile-time interface check.
var _ AssetLoader = (*EmbeddedLoader)(nil)
