package models

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Session tracks one OAuth authorization flow through the HTTP server.
// Sessions live in the in-memory store only and never outlast the
// process.
type Session struct {
	ID           string
	Sequence     int
	State        string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

func (s Session) Validate() error {
	if s.State == "" {
		return fmt.Errorf("session state must not be empty")
	}
	return nil
}

// Authenticated reports whether the session has completed the token exchange.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// Token converts the stored credentials into an [oauth2.Token].
// Returns nil for sessions that never completed the exchange.
func (s Session) Token() *oauth2.Token {
	if s.AccessToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		Expiry:       s.TokenExpiry,
		TokenType:    "Bearer",
	}
}
