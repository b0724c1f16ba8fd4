package assets

import (
	"fmt"
	"os"
	"path/filepath"
)

// Font is a TrueType face read from the font directory.
type Font struct {
	Family string
	Weight string
	Data   []byte
}

// FontFile names a face and the file stem it is read from.
type FontFile struct {
	Name   string // file stem, e.g. "Bookerly-Regular"
	Family string
	Weight string
}

// DefaultFonts are the faces the built-in style refers to.
var DefaultFonts = []FontFile{
	{Name: "Bookerly-Regular", Family: "Bookerly", Weight: "normal"},
	{Name: "Bookerly-Bold", Family: "Bookerly", Weight: "bold"},
	{Name: "Lexend-Regular", Family: "Lexend", Weight: "normal"},
}

// LoadFonts reads {dir}/{name}.ttf for each file. Faces that are missing
// or unreadable are reported in missing rather than failing the load,
// since the stylesheet falls back to generic families. An empty dir
// reports every face as missing.
func LoadFonts(dir string, files []FontFile) (fonts []Font, missing []string) {
	if dir == "" {
		for _, f := range files {
			missing = append(missing, f.Name)
		}
		return nil, missing
	}

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		for _, f := range files {
			missing = append(missing, f.Name)
		}
		return nil, missing
	}

	for _, f := range files {
		data, err := loader.readFont(f.Name)
		if err != nil {
			missing = append(missing, f.Name)
			continue
		}
		fonts = append(fonts, Font{Family: f.Family, Weight: f.Weight, Data: data})
	}
	return fonts, missing
}

// readFont reads {basePath}/{name}.ttf.
func (f *FilesystemLoader) readFont(name string) ([]byte, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}
	filePath := filepath.Join(f.basePath, name+".ttf")
	if err := f.verifyPathContainment(filePath); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath) // #nosec G304 -- path validated above
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return data, nil
}
