// Package manifest provides the structured model of a Cargo package manifest
// and the loader that builds it from a Cargo.toml file.
//
// # Model
//
// A Manifest carries the [package] metadata, an ordered list of build
// targets, an ordered list of dependencies and the feature map. Every path
// held by the model (target sources, path dependencies, build scripts) is
// absolute; renderers express them relative to Manifest.Root.
//
// # Usage
//
// Load a manifest file:
//
//	loader := manifest.NewLoader()
//	m, src, err := loader.Load("Cargo.toml")
//	if err != nil {
//	    return err
//	}
//
//	for _, dep := range m.Dependencies {
//	    // Inspect each dependency
//	}
//
// The raw source bytes are returned alongside the model so callers can
// recover comments from the original text.
//
// # Target discovery
//
// Targets that are not declared explicitly are discovered the way Cargo
// does it (src/lib.rs, src/main.rs, src/bin, examples, tests, benches,
// build.rs), subject to the auto* package flags.
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases:
//   - ErrFileNotFound: manifest file does not exist
//   - ErrInvalidFormat: file is not valid TOML
//   - ErrNoPackage: manifest has no [package] table (virtual manifest)
//   - ErrUnsupported: manifest uses a section or key that cannot be reproduced
//   - ErrInvalidField: a known field has the wrong type
package manifest
