package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewSession(path)
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, s.SetToken("http://localhost:8080/", signedToken(t, "alice", expires)))
	require.NoError(t, s.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded := NewSession(path)
	require.NoError(t, loaded.Load())
	assert.Equal(t, "alice", loaded.Subject)
	assert.Equal(t, "http://localhost:8080", loaded.ServerURL)
	assert.True(t, loaded.ExpiresAt.Equal(expires))
}

func TestSessionLoadMissingFile(t *testing.T) {
	s := NewSession(filepath.Join(t.TempDir(), "none.json"))
	assert.ErrorIs(t, s.Load(), ErrNoSession)
	assert.False(t, s.Active())
}

func TestSessionCorruptFileIsDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := NewSession(path)
	err := s.Load()
	assert.True(t, errors.Is(err, ErrNoSession))
	assert.False(t, s.Active())
	assert.NoFileExists(t, path)
}

func TestSessionGarbageTokenIsDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"serverUrl":"http://x","token":"abc"}`), 0o600))

	s := NewSession(path)
	assert.ErrorIs(t, s.Load(), ErrNoSession)
	assert.NoFileExists(t, path)
}

func TestSessionExpiredTokenIsCleared(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewSession(path)
	require.NoError(t, s.SetToken("http://x", signedToken(t, "alice", time.Now().Add(time.Hour))))
	require.NoError(t, s.Save())

	later := NewSession(path)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.ErrorIs(t, later.Load(), ErrSessionExpired)
	assert.NoFileExists(t, path)
}

func TestSessionClearIsIdempotent(t *testing.T) {
	s := NewSession(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	assert.ErrorIs(t, s.Save(), ErrNoSession)
}
