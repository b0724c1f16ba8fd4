package assets

// AssetLoader defines the contract for loading styles, templates and images.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	LoadStyle(name string) (string, error)

	// LoadTemplateSet loads the document and cover templates of a set.
	// Returns ErrTemplateSetNotFound if the set doesn't exist.
	LoadTemplateSet(name string) (*TemplateSet, error)

	// LoadImage loads an SVG image by name (without .svg extension).
	// Returns ErrImageNotFound if the image doesn't exist.
	LoadImage(name string) ([]byte, error)
}
