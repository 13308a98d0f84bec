// Spotify API implementation of [Library] and [Catalog]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/genreshelf/genreshelf/internal/models"
	"github.com/genreshelf/genreshelf/internal/shared"
	"github.com/samber/lo"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Upstream caps /artists at 50 ids per request.
	artistBatchSize = 50

	defaultTrackLimit = 20
	maxTrackLimit     = 50
)

type followers struct {
	Total int `json:"total"`
}

type spotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"`
	Followers   followers `json:"followers"`
}

// spotifyArtist represents a Spotify artist. The genres field is only
// populated on full artist objects from /artists, not on the simplified
// references embedded in tracks.
type spotifyArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

type spotifyAlbum struct {
	Name string `json:"name"`
}

type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
	Popularity int             `json:"popularity"`
	PreviewURL string          `json:"preview_url"`
}

// savedTrackItem wraps a track with the timestamp it was saved at.
type savedTrackItem struct {
	AddedAt string       `json:"added_at"`
	Track   spotifyTrack `json:"track"`
}

type paginatedSavedTracks struct {
	Items []savedTrackItem `json:"items"`
	Total int              `json:"total"`
}

type paginatedTopTracks struct {
	Items []spotifyTrack `json:"items"`
}

type severalArtists struct {
	Artists []*spotifyArtist `json:"artists"`
}

// SpotifyService implements [Library], [Catalog], and [OAuthService]
// against the Spotify Web API.
//
// Uses [oauth2] with PKCE for authentication and paces requests with a
// [rate.Limiter] so batched artist lookups stay inside upstream limits.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	verifier       string
	httpClient     *http.Client
	limiter        *rate.Limiter
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"user-top-read",
			"user-library-read",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		verifier:   oauth2.GenerateVerifier(),
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login,
// carrying the PKCE challenge.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(s.verifier))
}

// Exchange trades an authorization code for tokens using the service's
// PKCE verifier.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code, oauth2.VerifierOption(s.verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Authenticate expects either an "access_token" or an "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		token := &oauth2.Token{AccessToken: accessToken}
		if refreshToken, ok := credentials["refresh_token"]; ok {
			token.RefreshToken = refreshToken
		}
		s.setToken(ctx, token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.Exchange(ctx, authCode)
		if err != nil {
			return err
		}
		s.setToken(ctx, token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// AuthenticateToken installs a previously obtained token.
func (s *SpotifyService) AuthenticateToken(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrMissingCredentials)
	}
	s.setToken(ctx, token)
	return nil
}

// SetTokenRefreshCallback registers a callback invoked whenever the
// underlying token source produces a new access token, so callers can
// persist refreshed tokens.
func (s *SpotifyService) SetTokenRefreshCallback(callback func(*oauth2.Token)) {
	s.onTokenRefresh = callback
}

func (s *SpotifyService) setToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.notifyTokenRefresh,
	}
	s.httpClient = oauth2.NewClient(ctx, source)
}

func (s *SpotifyService) notifyTokenRefresh(token *oauth2.Token) {
	s.token = token
	if s.onTokenRefresh != nil {
		s.onTokenRefresh(token)
	}
}

// doRequest performs an authenticated GET against the API and decodes
// the JSON response, mapping failures onto the shared error taxonomy:
// transport failures to [shared.ErrCatalogUnavailable], credential
// rejections to [shared.ErrCatalogAuth], and undecodable bodies to
// [shared.ErrCatalogMalformed].
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCatalogUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spotifyBaseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", shared.ErrCatalogAuth, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", shared.ErrCatalogUnavailable, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrCatalogMalformed, err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*UserProfile, error) {
	var user spotifyUser
	if err := s.doRequest(ctx, "/me", &user); err != nil {
		return nil, err
	}

	return &UserProfile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Country:     user.Country,
		Product:     user.Product,
		Followers:   user.Followers.Total,
	}, nil
}

// SavedTracks retrieves the user's saved tracks, flattening the
// added-at timestamp onto each track.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) ([]models.Track, error) {
	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", clampLimit(limit), offset)

	var response paginatedSavedTracks
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Items))
	for _, item := range response.Items {
		track, err := convertTrack(item.Track, item.AddedAt)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	return tracks, nil
}

// TopTracks retrieves the user's most played tracks for the given time range.
func (s *SpotifyService) TopTracks(ctx context.Context, limit int, timeRange string) ([]models.Track, error) {
	switch timeRange {
	case "":
		timeRange = "medium_term"
	case "short_term", "medium_term", "long_term":
	default:
		return nil, fmt.Errorf("%w: time range %q", shared.ErrInvalidArgument, timeRange)
	}

	endpoint := fmt.Sprintf("/me/top/tracks?limit=%d&time_range=%s", clampLimit(limit), timeRange)

	var response paginatedTopTracks
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Items))
	for _, item := range response.Items {
		track, err := convertTrack(item, "")
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	return tracks, nil
}

// ArtistGenres resolves a batch of artist ids to their genre labels.
//
// Ids are deduplicated, then fetched in chunks of at most 50 (the
// upstream cap). Every requested id appears in the returned index; ids
// the catalog does not know map to an empty list. Any chunk failure
// fails the whole batch; partial indexes are never returned.
func (s *SpotifyService) ArtistGenres(ctx context.Context, artistIDs []string) (models.GenreIndex, error) {
	ids := lo.Uniq(lo.Filter(artistIDs, func(id string, _ int) bool { return id != "" }))
	if len(ids) == 0 {
		return models.GenreIndex{}, nil
	}

	index := make(models.GenreIndex, len(ids))
	for _, id := range ids {
		index[id] = []string{}
	}

	for _, batch := range lo.Chunk(ids, artistBatchSize) {
		endpoint := fmt.Sprintf("/artists?ids=%s", url.QueryEscape(strings.Join(batch, ",")))

		var response severalArtists
		if err := s.doRequest(ctx, endpoint, &response); err != nil {
			return nil, err
		}

		for _, artist := range response.Artists {
			// Unknown ids come back as JSON null entries.
			if artist == nil || artist.ID == "" {
				continue
			}
			index[artist.ID] = lo.Uniq(artist.Genres)
		}
	}

	return index, nil
}

// convertTrack validates and converts a wire track into the domain model.
func convertTrack(t spotifyTrack, addedAt string) (models.Track, error) {
	track := models.Track{
		ID:         t.ID,
		Name:       t.Name,
		Album:      t.Album.Name,
		Popularity: t.Popularity,
		PreviewURL: t.PreviewURL,
		Genres:     []string{},
	}

	for _, artist := range t.Artists {
		track.Artists = append(track.Artists, models.Artist{ID: artist.ID, Name: artist.Name})
	}

	if addedAt != "" {
		ts, err := time.Parse(time.RFC3339, addedAt)
		if err != nil {
			return models.Track{}, fmt.Errorf("%w: track %s added_at %q", shared.ErrMalformedTrack, t.ID, addedAt)
		}
		track.AddedAt = ts
	}

	if err := track.Validate(); err != nil {
		return models.Track{}, fmt.Errorf("%w: %v", shared.ErrMalformedTrack, err)
	}

	return track, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultTrackLimit
	}
	if limit > maxTrackLimit {
		return maxTrackLimit
	}
	return limit
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and invokes a
// callback whenever the access token changes, so refreshed tokens can
// be persisted. Callback panics are contained.
type refreshableTokenSource struct {
	source    oauth2.TokenSource
	callback  func(*oauth2.Token)
	lastToken string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	if token.AccessToken != r.lastToken {
		r.lastToken = token.AccessToken
		if r.callback != nil {
			func() {
				defer func() { _ = recover() }()
				r.callback(token)
			}()
		}
	}

	return token, nil
}
