package errors

import (
	"strings"
	"unicode"
)

// ValidateDatasetName validates a dataset name before it is joined to the input root.
// It rejects names that could be used for path traversal.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateDatasetName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "dataset name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidName, "dataset name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "dataset name %q contains control characters", name)
		}
	}

	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidName, "dataset name %q contains invalid characters: %q", name, pattern)
		}
	}

	return nil
}

// ValidateImagePath validates a file entry read from a dataset list.
// Entries are relative to the dataset directory and may contain subdirectories,
// but must not escape it.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths
//   - No parent directory references
func ValidateImagePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidName, "image path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidName, "image path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "image path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidName, "image path must be relative (cannot start with /)")
	}

	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidName, "image path cannot contain parent references (..)")
		}
	}

	return nil
}
