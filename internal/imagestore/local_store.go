package imagestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// localStore implements Store in a private directory on disk.
type localStore struct {
	dir    string
	logger zerolog.Logger
}

// NewLocalStore creates a store that writes images into dir.
func NewLocalStore(dir string, logger zerolog.Logger) Store {
	return &localStore{
		dir:    dir,
		logger: logger.With().Str("component", "image-local-store").Logger(),
	}
}

// Save writes src to dir/name and returns a file:// reference.
func (s *localStore) Save(ctx context.Context, name string, src io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.logger.Error().Err(err).Str("dir", s.dir).Msg("failed to create image directory")
		return "", fmt.Errorf("failed to create image directory %s: %w", s.dir, err)
	}

	dest := filepath.Join(s.dir, filepath.Base(name))

	file, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		s.logger.Error().Err(err).Str("file", dest).Msg("failed to create image file")
		return "", fmt.Errorf("failed to create image file %s: %w", dest, err)
	}

	written, err := io.Copy(file, &contextReader{ctx: ctx, r: src})
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		s.logger.Error().Err(err).Str("file", dest).Msg("failed to write image file")
		return "", fmt.Errorf("failed to write image file %s: %w", dest, err)
	}

	abs, err := filepath.Abs(dest)
	if err != nil {
		abs = dest
	}

	s.logger.Info().
		Str("file", abs).
		Int64("bytes", written).
		Msg("profile image saved locally")

	return "file://" + filepath.ToSlash(abs), nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
