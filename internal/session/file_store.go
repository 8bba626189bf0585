package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// fileStore implements Store as a JSON document on disk.
type fileStore struct {
	path   string
	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewFileStore creates a session store backed by the file at path.
// The file and its directory are created on first write.
func NewFileStore(path string, logger zerolog.Logger) Store {
	return &fileStore{
		path:   path,
		logger: logger.With().Str("component", "session-file-store").Logger(),
	}
}

// Save stores the identity fields, keeping the profile image reference.
func (s *fileStore) Save(ctx context.Context, token, userID, email, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}

	current.Token = token
	current.UserID = userID
	current.Email = email
	current.Name = name

	if err := s.write(current); err != nil {
		return err
	}

	s.logger.Debug().Str("user_id", userID).Msg("session saved")
	return nil
}

// Load returns the session stored on disk.
func (s *fileStore) Load(ctx context.Context) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.read()
}

// SaveProfileImage records the profile image reference.
func (s *fileStore) SaveProfileImage(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}

	current.ProfileImage = ref
	return s.write(current)
}

// IsLoggedIn is true iff a token is present.
func (s *fileStore) IsLoggedIn(ctx context.Context) (bool, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	return current.LoggedIn(), nil
}

// Clear removes the session file.
func (s *fileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Error().Err(err).Str("file", s.path).Msg("failed to remove session file")
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.logger.Debug().Msg("session cleared")
	return nil
}

// read must be called with mu held.
func (s *fileStore) read() (Session, error) {
	var current Session

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return current, nil
	}
	if err != nil {
		return current, fmt.Errorf("failed to read session file %s: %w", s.path, err)
	}

	if err := json.Unmarshal(data, &current); err != nil {
		s.logger.Warn().Err(err).Str("file", s.path).Msg("corrupt session file, treating as logged out")
		return Session{}, nil
	}

	return current, nil
}

// write replaces the file atomically. Must be called with mu held.
func (s *fileStore) write(current Session) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory %s: %w", dir, err)
	}

	data, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		s.logger.Error().Err(err).Str("file", s.path).Msg("failed to replace session file")
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	return nil
}
