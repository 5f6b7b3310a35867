package errors

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// typeIDRegex matches registry type ids: dot-separated lowercase segments,
// e.g. "ap.tool.http".
var typeIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*(\.[a-z][a-z0-9_-]*)+$`)

// ValidateTypeID validates a node type id as used in URLs and catalogs.
func ValidateTypeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "type id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "type id too long (max 128 characters)")
	}
	if !typeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid type id: %q", id)
	}
	return nil
}

// ValidateGraphID validates a stored graph id. Stores assign UUIDs.
func ValidateGraphID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "graph id cannot be empty")
	}
	if err := uuid.Validate(id); err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid graph id: %q", id)
	}
	return nil
}

// ValidatePath validates a file path within a working directory for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
