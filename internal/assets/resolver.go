package assets

import "errors"

// AssetResolver combines custom and embedded loaders. With a custom loader
// configured, each asset is looked up there first and falls back to the
// embedded copy only when it is not found.
type AssetResolver struct {
	custom   AssetLoader // nil if no custom path configured
	embedded AssetLoader
}

// NewAssetResolver creates an AssetResolver. An empty customBasePath uses
// embedded assets only; an invalid one is an error.
func NewAssetResolver(customBasePath string) (*AssetResolver, error) {
	resolver := &AssetResolver{embedded: NewEmbeddedLoader()}

	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		resolver.custom = fsLoader
	}
	return resolver, nil
}

// LoadStyle loads a CSS style, custom first.
func (r *AssetResolver) LoadStyle(name string) (string, error) {
	return withFallback(r, func(l AssetLoader) (string, error) { return l.LoadStyle(name) })
}

// LoadTemplateSet loads a template set, custom first.
func (r *AssetResolver) LoadTemplateSet(name string) (*TemplateSet, error) {
	return withFallback(r, func(l AssetLoader) (*TemplateSet, error) { return l.LoadTemplateSet(name) })
}

// LoadImage loads an SVG image, custom first.
func (r *AssetResolver) LoadImage(name string) ([]byte, error) {
	return withFallback(r, func(l AssetLoader) ([]byte, error) { return l.LoadImage(name) })
}

// HasCustomLoader reports whether a custom asset directory is configured.
func (r *AssetResolver) HasCustomLoader() bool {
	return r.custom != nil
}

func withFallback[T any](r *AssetResolver, load func(AssetLoader) (T, error)) (T, error) {
	if r.custom == nil {
		return load(r.embedded)
	}

	v, err := load(r.custom)
	if err == nil {
		return v, nil
	}
	// Validation and I/O errors are not masked by the embedded copy.
	if !isNotFoundError(err) {
		var zero T
		return zero, err
	}
	return load(r.embedded)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrStyleNotFound) ||
		errors.Is(err, ErrTemplateSetNotFound) ||
		errors.Is(err, ErrImageNotFound)
}

// Compile-time interface check.
var _ AssetLoader = (*AssetResolver)(nil)
