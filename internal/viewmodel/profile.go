package viewmodel

import (
	"context"
	"fmt"
	"os"
	"time"

	"booksy/internal/api"
	"booksy/internal/imagestore"
	"booksy/internal/model"
	"booksy/internal/session"

	"github.com/rs/zerolog"
)

// ProfileState is the observable state of the profile screen.
type ProfileState struct {
	LoggedIn     bool          `json:"loggedIn"`
	Profile      model.Profile `json:"profile"`
	ProfileImage string        `json:"profileImage,omitempty"`
}

// Profile shows the logged-in identity and manages the profile image.
type Profile struct {
	client   api.Client
	sessions session.Store
	images   imagestore.Store
	logger   zerolog.Logger
	state    *Observable[ProfileState]
	now      func() time.Time
}

// NewProfile creates a profile view-model seeded from the cached session.
func NewProfile(
	ctx context.Context,
	client api.Client,
	sessions session.Store,
	images imagestore.Store,
	logger zerolog.Logger,
) (*Profile, error) {
	cached, err := sessions.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	return &Profile{
		client:   client,
		sessions: sessions,
		images:   images,
		logger:   logger.With().Str("viewmodel", "profile").Logger(),
		state:    NewObservable(stateFromSession(cached)),
		now:      time.Now,
	}, nil
}

func stateFromSession(s session.Session) ProfileState {
	return ProfileState{
		LoggedIn: s.LoggedIn(),
		Profile: model.Profile{
			ID:    s.UserID,
			Email: s.Email,
			Name:  s.Name,
		},
		ProfileImage: s.ProfileImage,
	}
}

// State returns the current state.
func (p *Profile) State() ProfileState { return p.state.Get() }

// Watch follows state changes.
func (p *Profile) Watch() (<-chan ProfileState, func()) { return p.state.Watch() }

// Refresh replaces the cached identity with the server's copy. Failures
// keep the cached values.
func (p *Profile) Refresh(ctx context.Context) {
	current := p.state.Get()
	if current.Profile.ID == "" {
		return
	}

	user, err := p.client.CurrentUser(ctx, current.Profile.ID)
	if err != nil {
		p.logger.Debug().Err(err).Str("user_id", current.Profile.ID).Msg("profile refresh failed")
		return
	}

	p.state.Update(func(s ProfileState) ProfileState {
		s.Profile = model.Profile{ID: user.ID, Email: user.Email, Name: user.Name}
		if s.Profile.ID == "" {
			s.Profile.ID = current.Profile.ID
		}
		return s
	})
}

// SaveProfileImage copies the image at srcPath into storage under a
// timestamped name and records its reference in the session. Failures are
// ignored.
func (p *Profile) SaveProfileImage(ctx context.Context, srcPath string) {
	src, err := os.Open(srcPath)
	if err != nil {
		p.logger.Debug().Err(err).Str("path", srcPath).Msg("failed to open profile image")
		return
	}
	defer src.Close()

	ref, err := p.images.Save(ctx, imagestore.ProfileImageName(p.now()), src)
	if err != nil {
		p.logger.Debug().Err(err).Msg("failed to store profile image")
		return
	}

	if err := p.sessions.SaveProfileImage(ctx, ref); err != nil {
		p.logger.Debug().Err(err).Msg("failed to record profile image")
		return
	}

	p.state.Update(func(s ProfileState) ProfileState {
		s.ProfileImage = ref
		return s
	})
}

// Logout clears the local session. The backend is not contacted.
func (p *Profile) Logout(ctx context.Context) error {
	if err := p.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	p.state.Set(ProfileState{})
	p.logger.Info().Msg("logged out")
	return nil
}
