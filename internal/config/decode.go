package config

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// maxConfigSize caps config files at 1MB.
const maxConfigSize = 1 << 20

var errConfigTooLarge = errors.New("config exceeds 1MB")

// decodeStrict reads YAML over cfg and rejects unknown keys. Empty input
// leaves cfg untouched.
func decodeStrict(data []byte, cfg *Config) error {
	if len(data) > maxConfigSize {
		return fmt.Errorf("%w: %d bytes", errConfigTooLarge, len(data))
	}
	if len(data) == 0 {
		return nil
	}
	return yaml.UnmarshalWithOptions(data, cfg, yaml.Strict())
}
