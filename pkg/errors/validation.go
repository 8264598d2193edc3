package errors

import (
	"strings"
	"unicode"
)

const (
	maxPathLength    = 4096
	maxNameLength    = 256
	fieldSeparator   = ";"
	recordSeparators = ";,"
)

// ValidatePackageID validates an installed-package identifier such as
// "sys-libs/zlib-1.3". Identifiers are used to build database paths, so
// traversal sequences and separators other than a single "/" are rejected.
func ValidatePackageID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "package identifier cannot be empty")
	}
	if len(id) > maxNameLength {
		return New(ErrCodeInvalidInput, "package identifier too long (max %d characters)", maxNameLength)
	}
	if hasControl(id) {
		return New(ErrCodeInvalidInput, "package identifier contains invalid control characters")
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "package identifier contains invalid characters: %q", pattern)
		}
	}
	if strings.HasPrefix(id, "/") {
		return New(ErrCodeInvalidInput, "package identifier cannot start with /")
	}
	return nil
}

// ValidateABI validates an ABI class marker as it appears in a query.
// Markers are opaque, but they cannot be empty or contain control characters
// or record separators.
func ValidateABI(abi string) error {
	if abi == "" {
		return New(ErrCodeInvalidABI, "ABI class cannot be empty")
	}
	if len(abi) > maxNameLength {
		return New(ErrCodeInvalidABI, "ABI class too long (max %d characters)", maxNameLength)
	}
	for _, r := range abi {
		if unicode.IsControl(r) || strings.ContainsRune(recordSeparators, r) {
			return New(ErrCodeInvalidABI, "ABI class contains invalid character %q", r)
		}
	}
	return nil
}

// ValidateSoname validates a soname used as a query key.
func ValidateSoname(soname string) error {
	if soname == "" {
		return New(ErrCodeInvalidInput, "soname cannot be empty")
	}
	if len(soname) > maxNameLength {
		return New(ErrCodeInvalidInput, "soname too long (max %d characters)", maxNameLength)
	}
	if hasControl(soname) {
		return New(ErrCodeInvalidInput, "soname contains invalid control characters")
	}
	if strings.ContainsAny(soname, recordSeparators) {
		return New(ErrCodeInvalidInput, "soname cannot contain record separators")
	}
	return nil
}

// ValidateObjectPath validates an object path used as a query key.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - No field separator (";")
//
// Record paths are taken as given, so relative paths and commas are allowed.
// The path is not checked against the filesystem.
func ValidateObjectPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}
	if hasControl(path) {
		return New(ErrCodeInvalidPath, "path contains invalid characters")
	}
	if strings.Contains(path, fieldSeparator) {
		return New(ErrCodeInvalidPath, "path cannot contain %q", fieldSeparator)
	}
	return nil
}

func hasControl(s string) bool {
	for _, r := range s {
		if r == '\x00' || unicode.IsControl(r) {
			return true
		}
	}
	return false
}
