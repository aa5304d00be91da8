package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"github.com/temeke/spotify-playlists/internal/shared"
)

// CredentialStore persists OAuth2 tokens between sessions.
type CredentialStore interface {
	SaveToken(token *oauth2.Token) error
	LoadToken() (*oauth2.Token, error)
	ClearToken() error
}

// FileStore keeps the token as a JSON file with owner-only permissions.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed credential store at path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: token path is required", shared.ErrInvalidConfig)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) SaveToken(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("cannot save nil token")
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (s *FileStore) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no saved token at %s", shared.ErrNotAuthenticated, s.path)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return &token, nil
}

func (s *FileStore) ClearToken() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// MemoryStore keeps the token in memory. Used in tests and for one-shot
// invocations with a pre-supplied token.
type MemoryStore struct {
	token *oauth2.Token
}

func NewMemoryStore(token *oauth2.Token) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) SaveToken(token *oauth2.Token) error {
	s.token = token
	return nil
}

func (s *MemoryStore) LoadToken() (*oauth2.Token, error) {
	if s.token == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.token, nil
}

func (s *MemoryStore) ClearToken() error {
	s.token = nil
	return nil
}
