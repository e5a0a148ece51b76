package domain

//go:generate mockgen -source=interfaces.go -destination=../mocks/domain.go -package=mocks

import (
	"context"
	"time"

	"github.com/quantmind-br/cargofmt/internal/comments"
	"github.com/quantmind-br/cargofmt/internal/manifest"
)

// ManifestLoader builds the structured model of a manifest file
type ManifestLoader interface {
	// Load returns the model together with the raw source it was decoded from
	Load(path string) (*manifest.Manifest, []byte, error)
	// LoadFromBytes decodes source whose package root is root
	LoadFromBytes(root string, data []byte) (*manifest.Manifest, error)
}

// CommentRecoverer extracts the comment blocks of a manifest's original text
type CommentRecoverer interface {
	// Recover maps qualified keys to the comment blocks preceding them
	Recover(src []byte) comments.Map
}

// ChangeDetector reports which files differ from the last commit
type ChangeDetector interface {
	// Changed returns the absolute paths of modified, added or untracked files
	// in the repository enclosing dir
	Changed(ctx context.Context, dir string) (map[string]bool, error)
}

// Cache defines the interface for render caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Has checks if a key exists in cache
	Has(ctx context.Context, key string) bool
	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error
	// Close releases cache resources
	Close() error
}

// Writer defines the interface for persisting formatted manifests
type Writer interface {
	// Write replaces the file at path with data
	Write(ctx context.Context, path string, data []byte) error
}
