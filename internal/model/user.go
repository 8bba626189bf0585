package model

// User represents an account on the Booksy backend.
// Password is never sent back by the server.
type User struct {
	ID       string  `json:"_id"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Password *string `json:"password,omitempty"`
}

// LoginRequest represents the request payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents the request payload for POST /api/auth/signup.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by both login and signup.
type AuthResponse struct {
	AuthToken string `json:"authToken"`
	UserID    string `json:"userId"`
}

// Profile is the identity shown on the profile screen.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
