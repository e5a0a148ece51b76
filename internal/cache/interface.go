package cache

import (
	"os"
	"path/filepath"

	"github.com/quantmind-br/cargofmt/internal/domain"
)

// Ensure BadgerCache implements domain.Cache
var _ domain.Cache = (*BadgerCache)(nil)

// Options contains cache configuration options
type Options struct {
	Directory string
	InMemory  bool
	Logger    bool
}

// DefaultOptions returns default cache options
func DefaultOptions() Options {
	return Options{
		Directory: DefaultDirectory(),
		InMemory:  false,
		Logger:    false,
	}
}

// DefaultDirectory returns ~/.cargofmt/cache, or a temp directory when the
// home directory cannot be resolved.
func DefaultDirectory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "cargofmt-cache")
	}
	return filepath.Join(home, ".cargofmt", "cache")
}
