package manifest

import "errors"

// Sentinel errors for the manifest package
var (
	// ErrFileNotFound indicates the manifest file does not exist
	ErrFileNotFound = errors.New("manifest file not found")

	// ErrInvalidFormat indicates the manifest file is not valid TOML
	ErrInvalidFormat = errors.New("manifest must be valid TOML")

	// ErrNoPackage indicates the manifest has no [package] table
	ErrNoPackage = errors.New("manifest has no [package] table")

	// ErrUnsupported indicates the manifest uses a section or key that the
	// canonical form cannot reproduce
	ErrUnsupported = errors.New("unsupported manifest content")

	// ErrInvalidField indicates a known field has an unexpected type
	ErrInvalidField = errors.New("invalid manifest field")
)
