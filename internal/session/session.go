// Package session persists the authenticated identity between runs.
package session

import (
	"context"
)

// Session is the locally cached identity of the logged-in user.
type Session struct {
	Token        string `json:"auth_token,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	Email        string `json:"email,omitempty"`
	Name         string `json:"name,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// LoggedIn reports whether a token is present.
func (s Session) LoggedIn() bool {
	return s.Token != ""
}

// Store defines the operations on the persisted session.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores the four identity fields together. The profile image is kept.
	Save(ctx context.Context, token, userID, email, name string) error

	// Load returns the current session. A missing session is returned as the zero value.
	Load(ctx context.Context) (Session, error)

	// SaveProfileImage records the reference of the locally saved profile image.
	SaveProfileImage(ctx context.Context, ref string) error

	// IsLoggedIn is true iff a token is present.
	IsLoggedIn(ctx context.Context) (bool, error)

	// Clear removes every field, including the profile image reference.
	Clear(ctx context.Context) error
}
