package inmem

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenFile_roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := NewTokenFile(path)

	// nothing stored yet
	token, err := store.Read()
	assert.NoError(t, err)
	assert.Empty(t, token)

	assert.NoError(t, store.Write("t0k3n"))
	token, err = store.Read()
	assert.NoError(t, err)
	assert.Equal(t, "t0k3n", token)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		assert.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	assert.NoError(t, store.Clear())
	token, err = store.Read()
	assert.NoError(t, err)
	assert.Empty(t, token)

	// clearing twice is fine
	assert.NoError(t, store.Clear())
}
