package models

import "time"

// LoginRequest holds credentials for authenticating a user. Username may be
// either the account username or its e-mail address.
type LoginRequest struct {
	Username  string `json:"username" form:"username" validate:"required"`
	Password  string `json:"password" form:"password" validate:"required"`
	IP        string `json:"-" form:"-"`
	UserAgent string `json:"-" form:"-"`
}

// LoginResponse returns the issued session token and user info.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      Identity  `json:"user"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// Identity is the projection of a user that is safe to embed in a token.
type Identity struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
	Picture  string   `json:"picture,omitempty"`
}

// IdentityFromUser projects a stored user onto an Identity.
func IdentityFromUser(u *User) Identity {
	id := Identity{
		ID:       formatID(u.ID),
		Username: u.Username,
		Email:    u.Email,
		Name:     u.FullName,
		Role:     u.Role,
	}
	if u.ProfilePicture != nil {
		id.Picture = *u.ProfilePicture
	}
	return id
}

// Session is the hydrated view of a session token that downstream handlers
// consume. An error session only carries Error and grants no access.
// Fallbacks lists the claims that were missing or mistyped and replaced
// with defaults.
type Session struct {
	User      Identity  `json:"user"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Error     string    `json:"error,omitempty"`
	Fallbacks []string  `json:"fallbacks,omitempty"`
}

// IsError reports whether the session only carries an error marker.
func (s *Session) IsError() bool {
	return s != nil && s.Error != ""
}

// Degraded reports whether any claim was replaced by a fallback.
func (s *Session) Degraded() bool {
	return s != nil && len(s.Fallbacks) > 0
}

// Authenticated reports whether the session grants access.
func (s *Session) Authenticated() bool {
	return s != nil && !s.IsError()
}

// HasRole reports whether the session's role is one of roles.
func (s *Session) HasRole(roles ...UserRole) bool {
	if !s.Authenticated() {
		return false
	}
	for _, role := range roles {
		if s.User.Role == role {
			return true
		}
	}
	return false
}
