package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the single live login of a user. It is live while it exists and
// its token matches the presented bearer token.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionUpdate holds the fields UpdateFields may change. Nil means unchanged.
type SessionUpdate struct {
	UserID *string
	Token  *string
}

// Claims is the bearer token payload.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// LoginResult is returned to callers of session creation.
type LoginResult struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
}
