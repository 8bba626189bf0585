package viewmodel

import (
	"context"
	"fmt"

	"booksy/internal/api"
	"booksy/internal/model"
	"booksy/internal/session"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const (
	msgEmailRequired     = "email required"
	msgEmailInvalid      = "email invalid"
	msgPasswordRequired  = "password required"
	msgPasswordTooShort  = "password must be at least 8 characters"
	msgPasswordsMismatch = "passwords do not match"
	msgLoginFailed       = "invalid email or password"
	msgRegisterFailed    = "failed to create account"

	minPasswordLength = 8
)

// AuthStatus is the state of a login or registration attempt.
type AuthStatus int

const (
	AuthIdle AuthStatus = iota
	AuthLoading
	AuthSuccess
	AuthError
)

func (s AuthStatus) String() string {
	switch s {
	case AuthIdle:
		return "idle"
	case AuthLoading:
		return "loading"
	case AuthSuccess:
		return "success"
	case AuthError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON output.
func (s AuthStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AuthForm holds the credential fields and one error per field.
type AuthForm struct {
	Name            string `json:"name,omitempty"`
	Email           string `json:"email"`
	Password        string `json:"-"`
	ConfirmPassword string `json:"-"`

	NameError            string `json:"nameError,omitempty"`
	EmailError           string `json:"emailError,omitempty"`
	PasswordError        string `json:"passwordError,omitempty"`
	ConfirmPasswordError string `json:"confirmPasswordError,omitempty"`
}

// AuthState is the observable state of the login and register screens.
type AuthState struct {
	Form    AuthForm   `json:"form"`
	Status  AuthStatus `json:"status"`
	Message string     `json:"message,omitempty"`
	UserID  string     `json:"userId,omitempty"`
}

// Auth logs users in or registers them and stores the resulting session.
type Auth struct {
	client   api.Client
	sessions session.Store
	validate *validator.Validate
	logger   zerolog.Logger
	state    *Observable[AuthState]
}

// NewAuth creates an auth view-model.
func NewAuth(client api.Client, sessions session.Store, logger zerolog.Logger) *Auth {
	return &Auth{
		client:   client,
		sessions: sessions,
		validate: newValidator(),
		logger:   logger.With().Str("viewmodel", "auth").Logger(),
		state:    NewObservable(AuthState{}),
	}
}

// State returns the current state.
func (a *Auth) State() AuthState { return a.state.Get() }

// Watch follows state changes.
func (a *Auth) Watch() (<-chan AuthState, func()) { return a.state.Watch() }

func (a *Auth) nameError(name string) string {
	if a.validate.Var(name, "notblank") != nil {
		return msgNameRequired
	}
	return ""
}

func (a *Auth) emailError(email string) string {
	if a.validate.Var(email, "notblank") != nil {
		return msgEmailRequired
	}
	if a.validate.Var(email, "email") != nil {
		return msgEmailInvalid
	}
	return ""
}

func (a *Auth) passwordError(password string) string {
	if a.validate.Var(password, "notblank") != nil {
		return msgPasswordRequired
	}
	if a.validate.Var(password, fmt.Sprintf("min=%d", minPasswordLength)) != nil {
		return msgPasswordTooShort
	}
	return ""
}

func confirmError(password, confirm string) string {
	if password != confirm {
		return msgPasswordsMismatch
	}
	return ""
}

// SetName updates the display name (registration only).
func (a *Auth) SetName(name string) {
	a.state.Update(func(s AuthState) AuthState {
		s.Form.Name = name
		s.Form.NameError = a.nameError(name)
		return s
	})
}

// SetEmail updates the email.
func (a *Auth) SetEmail(email string) {
	a.state.Update(func(s AuthState) AuthState {
		s.Form.Email = email
		s.Form.EmailError = a.emailError(email)
		return s
	})
}

// SetPassword updates the password.
func (a *Auth) SetPassword(password string) {
	a.state.Update(func(s AuthState) AuthState {
		s.Form.Password = password
		s.Form.PasswordError = a.passwordError(password)
		if s.Form.ConfirmPassword != "" {
			s.Form.ConfirmPasswordError = confirmError(password, s.Form.ConfirmPassword)
		}
		return s
	})
}

// SetConfirmPassword updates the password confirmation (registration only).
func (a *Auth) SetConfirmPassword(confirm string) {
	a.state.Update(func(s AuthState) AuthState {
		s.Form.ConfirmPassword = confirm
		s.Form.ConfirmPasswordError = confirmError(s.Form.Password, confirm)
		return s
	})
}

// Login validates the credentials and starts a session.
func (a *Auth) Login(ctx context.Context) error {
	var invalid bool
	form := a.state.Update(func(s AuthState) AuthState {
		s.Form.EmailError = a.emailError(s.Form.Email)
		s.Form.PasswordError = a.passwordError(s.Form.Password)
		invalid = s.Form.EmailError != "" || s.Form.PasswordError != ""
		if !invalid {
			s.Status = AuthLoading
			s.Message = ""
		}
		return s
	}).Form
	if invalid {
		return model.ErrValidation
	}

	resp, err := a.client.Login(ctx, model.LoginRequest{Email: form.Email, Password: form.Password})
	if err != nil {
		a.logger.Warn().Err(err).Str("email", form.Email).Msg("login failed")
		a.fail(failureMessage(err, msgLoginFailed))
		return err
	}

	return a.startSession(ctx, resp, form.Email, "")
}

// Register validates the form, creates the account and starts a session.
func (a *Auth) Register(ctx context.Context) error {
	var invalid bool
	form := a.state.Update(func(s AuthState) AuthState {
		s.Form.NameError = a.nameError(s.Form.Name)
		s.Form.EmailError = a.emailError(s.Form.Email)
		s.Form.PasswordError = a.passwordError(s.Form.Password)
		s.Form.ConfirmPasswordError = confirmError(s.Form.Password, s.Form.ConfirmPassword)
		invalid = s.Form.NameError != "" || s.Form.EmailError != "" ||
			s.Form.PasswordError != "" || s.Form.ConfirmPasswordError != ""
		if !invalid {
			s.Status = AuthLoading
			s.Message = ""
		}
		return s
	}).Form
	if invalid {
		return model.ErrValidation
	}

	resp, err := a.client.Register(ctx, model.RegisterRequest{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		a.logger.Warn().Err(err).Str("email", form.Email).Msg("registration failed")
		a.fail(failureMessage(err, msgRegisterFailed))
		return err
	}

	return a.startSession(ctx, resp, form.Email, form.Name)
}

// startSession persists the session. When name is unknown the email
// stands in until the backend's copy of the name has been fetched.
func (a *Auth) startSession(ctx context.Context, resp *model.AuthResponse, email, name string) error {
	saved := name
	if saved == "" {
		saved = email
	}

	if err := a.sessions.Save(ctx, resp.AuthToken, resp.UserID, email, saved); err != nil {
		a.logger.Error().Err(err).Msg("failed to save session")
		a.fail("failed to save session")
		return fmt.Errorf("failed to save session: %w", err)
	}

	if name == "" {
		// The token is stored now, so the request is authenticated.
		user, err := a.client.CurrentUser(ctx, resp.UserID)
		switch {
		case err != nil:
			a.logger.Debug().Err(err).Msg("failed to fetch user name")
		case user.Name != "" && user.Name != saved:
			if err := a.sessions.Save(ctx, resp.AuthToken, resp.UserID, email, user.Name); err != nil {
				a.logger.Debug().Err(err).Msg("failed to store user name")
			}
		}
	}

	a.state.Update(func(s AuthState) AuthState {
		s.Status = AuthSuccess
		s.UserID = resp.UserID
		s.Form.Password = ""
		s.Form.ConfirmPassword = ""
		return s
	})

	a.logger.Info().Str("user_id", resp.UserID).Msg("session started")
	return nil
}

func (a *Auth) fail(msg string) {
	a.state.Update(func(s AuthState) AuthState {
		s.Status = AuthError
		s.Message = msg
		return s
	})
}
