package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the self-service registration payload.
type RegisterRequest struct {
	Username   string   `json:"username" validate:"required,min=3,max=120"`
	Password   string   `json:"password" validate:"required,min=3,max=72"`
	Role       UserRole `json:"role" validate:"required,oneof=ADMIN MODERATOR INSPECTOR USER"`
	NationalID string   `json:"national_id" validate:"omitempty,max=32"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	Active   bool     `json:"active"`
}

// NewUserInfo projects a user onto its public shape.
func NewUserInfo(u *User) UserInfo {
	return UserInfo{ID: u.ID, Username: u.Username, Role: u.Role, Active: u.Active}
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor identifies who performed an operation.
type Actor struct {
	ID       string
	Username string
	Role     UserRole
}

// ActorFromClaims converts verified token claims into an Actor.
func ActorFromClaims(c *JWTClaims) Actor {
	if c == nil {
		return Actor{Role: RoleUser}
	}
	return Actor{ID: c.UserID, Username: c.Username, Role: c.Role}
}
