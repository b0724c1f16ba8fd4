// Package fileutil provides temp file and path helpers.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// TempPrefix prefixes every temp file and directory this program creates.
const TempPrefix = "later2pdf-"

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
)

// MakeWorkDir creates a private temp directory for one conversion.
// cleanup removes it with everything inside and is safe to call twice.
func MakeWorkDir() (dir string, cleanup func(), err error) {
	dir, err = os.MkdirTemp("", TempPrefix+"*")
	if err != nil {
		return "", nil, fmt.Errorf("creating work directory: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

// WriteTempFile creates a file with the given content and extension in dir
// (the system temp directory when dir is empty). Returns the file path and
// a cleanup function that removes it.
func WriteTempFile(dir, content, extension string) (path string, cleanup func(), err error) {
	if err := ValidateExtension(extension); err != nil {
		return "", nil, err
	}

	tmpFile, err := os.CreateTemp(dir, TempPrefix+"*."+extension)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}

	path = tmpFile.Name()
	cleanup = func() { _ = os.Remove(path) }

	if _, writeErr := tmpFile.WriteString(content); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", writeErr)
	}
	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp file: %w", closeErr)
	}

	return path, cleanup, nil
}

// ValidateExtension checks that the extension is safe for use in temp file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// NonEmptyFile returns true if path is a regular file with at least one byte.
func NonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// IsFilePath returns true if the string contains a path separator, so it
// names a file rather than a config name ("later2pdf" vs "./later2pdf.yaml").
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}
