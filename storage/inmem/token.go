package inmem

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/quangvd/barem/core"
)

// TokenFile persists the bearer token as a single file with user-only
// permissions.
type TokenFile struct {
	path string
}

var _ core.TokenStore = (*TokenFile)(nil)

func NewTokenFile(path string) *TokenFile {
	return &TokenFile{path: path}
}

// Read returns the stored token, or "" when none has been stored yet.
func (t *TokenFile) Read() (string, error) {
	data, err := ioutil.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (t *TokenFile) Write(token string) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o700); err != nil {
		return err
	}
	return ioutil.WriteFile(t.path, []byte(token), 0o600)
}

func (t *TokenFile) Clear() error {
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
