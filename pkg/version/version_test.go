package version_test

import (
	"testing"

	"github.com/quantmind-br/cargofmt/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setVersion(t *testing.T, v, built, commit string) {
	t.Helper()
	origV, origB, origC := version.Version, version.BuildTime, version.Commit
	t.Cleanup(func() { version.Version, version.BuildTime, version.Commit = origV, origB, origC })
	version.Version, version.BuildTime, version.Commit = v, built, commit
}

func TestGet_String_Short_Full(t *testing.T) {
	setVersion(t, "1.2.3", "2026-10-01T00:00:00Z", "deadbeef")

	info := version.Get()
	require.Equal(t, "1.2.3", info.Version)
	require.Equal(t, "2026-10-01T00:00:00Z", info.BuildTime)
	require.Equal(t, "deadbeef", info.Commit)

	require.NotEmpty(t, info.GoVersion)
	require.NotEmpty(t, info.OS)
	require.NotEmpty(t, info.Arch)

	assert.Equal(t, "1.2.3", version.Short())
	assert.Contains(t, info.String(), "cargofmt 1.2.3 (commit: deadbeef, built: 2026-10-01T00:00:00Z")
	assert.Contains(t, version.Full(), "cargofmt 1.2.3")
}

func TestFingerprint(t *testing.T) {
	setVersion(t, "dev", "unknown", "abc123")
	a := version.Fingerprint()

	version.Commit = "def456"
	b := version.Fingerprint()

	assert.Equal(t, "dev+abc123", a)
	assert.NotEqual(t, a, b)
}
