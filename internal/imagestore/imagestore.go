// Package imagestore keeps the user's profile image in local or S3 storage.
package imagestore

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Store defines where profile images are kept.
type Store interface {
	// Save copies src into storage under name and returns a reference to the stored image.
	Save(ctx context.Context, name string, src io.Reader) (string, error)
}

// ProfileImageName returns the timestamp-qualified file name for a new profile image.
func ProfileImageName(now time.Time) string {
	return fmt.Sprintf("profile_%d.jpg", now.UnixMilli())
}
