package domain

// User represents the authenticated Alpha user. Exactly one user is
// cached client-side at a time; it is replaced wholesale on login,
// switch, or profile refresh.
type User struct {
	ID             int    `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	IsAdmin        bool   `json:"is_admin"`
	IsImpersonated bool   `json:"is_impersonated,omitempty"`
	ProfileImage   string `json:"profile_image,omitempty"`
}

// Credentials are the form-encoded login fields.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by the login and switch endpoints.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user,omitempty"`
}

// RegisterRequest creates a new user account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserUpdate holds the mutable profile fields for PUT /auth/users/{id}.
// Nil pointers are omitted so the server only touches what was set.
type UserUpdate struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	ProfileImage *string `json:"profile_image,omitempty"`
}
