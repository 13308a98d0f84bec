// package services defines the interfaces the categorization pipeline
// consumes and implements them for the Spotify Web API.
package services

import (
	"context"

	"github.com/genreshelf/genreshelf/internal/models"
	"golang.org/x/oauth2"
)

// Library fetches the authenticated user's listening data.
type Library interface {
	// UserProfile retrieves the current user's profile.
	UserProfile(ctx context.Context) (*UserProfile, error)

	// SavedTracks retrieves up to limit saved tracks ("liked songs"),
	// newest first, with the added-at timestamp attached to each track.
	SavedTracks(ctx context.Context, limit, offset int) ([]models.Track, error)

	// TopTracks retrieves the user's most played tracks for a time range
	// ("short_term", "medium_term", "long_term").
	TopTracks(ctx context.Context, limit int, timeRange string) ([]models.Track, error)

	// Name returns the name of the upstream service (e.g. "Spotify").
	Name() string
}

// Catalog resolves artist ids to genre labels.
//
// An implementation must treat the whole batch atomically: either every
// requested id is present in the returned index (unknown ids with an
// empty list), or the call fails and no index is returned.
type Catalog interface {
	ArtistGenres(ctx context.Context, artistIDs []string) (models.GenreIndex, error)
}

// OAuthService is implemented by providers that authenticate with an
// OAuth2 authorization-code flow.
type OAuthService interface {
	// Authenticate performs authentication with the service using either
	// an "access_token" or an "auth_code" credential.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// GetAuthURL returns the authorization URL for user login.
	GetAuthURL(state string) string

	// Exchange trades an authorization code for tokens, applying the
	// provider's PKCE verifier.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// UserProfile is the subset of the upstream profile the service exposes.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"`
	Followers   int    `json:"followers"`
}
