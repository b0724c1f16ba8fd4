package assets

import (
	"fmt"
	"regexp"
)

// maxAssetNameLength bounds names coming from configuration.
const maxAssetNameLength = 64

var assetNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateAssetName checks that name is a bare file stem: letters, digits,
// '-' and '_', starting with a letter or digit. Separators and dots are
// rejected so a name can neither traverse nor change the extension.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if len(name) > maxAssetNameLength || !assetNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
