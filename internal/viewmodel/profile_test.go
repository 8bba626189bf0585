package viewmodel

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"booksy/internal/imagestore"
	"booksy/internal/model"
	"booksy/internal/session"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockImageStore is a mock implementation of imagestore.Store.
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Save(ctx context.Context, name string, src io.Reader) (string, error) {
	args := m.Called(ctx, name, src)
	return args.String(0), args.Error(1)
}

func newLoggedInStore(t *testing.T) session.Store {
	t.Helper()

	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), zerolog.Nop())
	require.NoError(t, store.Save(context.Background(), "tok", "u1", "ana@example.com", "ana@example.com"))
	return store
}

func TestProfile_LoadsCachedSession(t *testing.T) {
	store := newLoggedInStore(t)

	p, err := NewProfile(context.Background(), new(MockClient), store, new(MockImageStore), zerolog.Nop())
	require.NoError(t, err)

	state := p.State()
	assert.True(t, state.LoggedIn)
	assert.Equal(t, model.Profile{ID: "u1", Email: "ana@example.com", Name: "ana@example.com"}, state.Profile)
}

func TestProfile_Refresh(t *testing.T) {
	client := new(MockClient)
	client.On("CurrentUser", mock.Anything, "u1").Return(&model.User{ID: "u1", Email: "ana@example.com", Name: "Ana"}, nil).Once()

	p, err := NewProfile(context.Background(), client, newLoggedInStore(t), new(MockImageStore), zerolog.Nop())
	require.NoError(t, err)

	p.Refresh(context.Background())
	assert.Equal(t, "Ana", p.State().Profile.Name)
	client.AssertExpectations(t)
}

func TestProfile_RefreshFailureKeepsCache(t *testing.T) {
	client := new(MockClient)
	client.On("CurrentUser", mock.Anything, "u1").Return(nil, errConnection)

	p, err := NewProfile(context.Background(), client, newLoggedInStore(t), new(MockImageStore), zerolog.Nop())
	require.NoError(t, err)

	p.Refresh(context.Background())
	assert.Equal(t, model.Profile{ID: "u1", Email: "ana@example.com", Name: "ana@example.com"}, p.State().Profile)
}

func TestProfile_RefreshWithoutSessionSkipsNetwork(t *testing.T) {
	client := new(MockClient)
	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), zerolog.Nop())

	p, err := NewProfile(context.Background(), client, store, new(MockImageStore), zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, p.State().LoggedIn)

	p.Refresh(context.Background())
	client.AssertNotCalled(t, "CurrentUser", mock.Anything, mock.Anything)
}

func TestProfile_SaveProfileImage(t *testing.T) {
	src := filepath.Join(t.TempDir(), "camera.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpeg-bytes"), 0o600))

	imageDir := t.TempDir()
	store := newLoggedInStore(t)

	p, err := NewProfile(context.Background(), new(MockClient), store, imagestore.NewLocalStore(imageDir, zerolog.Nop()), zerolog.Nop())
	require.NoError(t, err)
	p.now = func() time.Time { return time.UnixMilli(1700000000123) }

	p.SaveProfileImage(context.Background(), src)

	ref := p.State().ProfileImage
	assert.True(t, strings.HasPrefix(ref, "file://"), ref)
	assert.True(t, strings.HasSuffix(ref, "profile_1700000000123.jpg"), ref)

	data, err := os.ReadFile(filepath.Join(imageDir, "profile_1700000000123.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	cached, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ref, cached.ProfileImage)
}

func TestProfile_SaveProfileImageFailuresAreIgnored(t *testing.T) {
	src := filepath.Join(t.TempDir(), "camera.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpeg-bytes"), 0o600))

	images := new(MockImageStore)
	images.On("Save", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("disk full"))

	store := newLoggedInStore(t)
	p, err := NewProfile(context.Background(), new(MockClient), store, images, zerolog.Nop())
	require.NoError(t, err)

	p.SaveProfileImage(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	images.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)

	p.SaveProfileImage(context.Background(), src)
	images.AssertNumberOfCalls(t, "Save", 1)

	assert.Empty(t, p.State().ProfileImage)
	cached, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cached.ProfileImage)
}

func TestProfile_Logout(t *testing.T) {
	client := new(MockClient)
	store := newLoggedInStore(t)
	require.NoError(t, store.SaveProfileImage(context.Background(), "file:///tmp/profile_1.jpg"))

	p, err := NewProfile(context.Background(), client, store, new(MockImageStore), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, p.Logout(context.Background()))

	assert.Equal(t, ProfileState{}, p.State())
	loggedIn, err := store.IsLoggedIn(context.Background())
	require.NoError(t, err)
	assert.False(t, loggedIn)

	cached, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cached.ProfileImage)

	// Logout is local only.
	assert.Empty(t, client.Calls)
}
