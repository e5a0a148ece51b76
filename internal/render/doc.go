// Package render writes a manifest model in canonical Cargo.toml form.
//
// Sections always appear in the same order: [package], the flattened
// [package.metadata.*] tables, target blocks (lib, bin, example, test,
// bench), dependency groups and [features]. Values that Cargo would infer
// anyway (conventional target paths, the library name, the default readme,
// enabled auto-discovery flags) are left out, and comments recovered from
// the original text are written back above the key they belonged to.
package render
