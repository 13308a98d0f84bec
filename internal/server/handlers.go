package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/genreshelf/genreshelf/internal/services"
	"github.com/genreshelf/genreshelf/internal/shared"
	"github.com/genreshelf/genreshelf/internal/tasks"
)

// ServiceFactory builds request-scoped library and catalog clients from
// a bearer token. Each inbound request gets its own clients so genre
// data never leaks across users.
type ServiceFactory func(accessToken string) (services.Library, services.Catalog, error)

// APIHandler serves the JSON API for the genre shelf service.
type APIHandler struct {
	logger   *log.Logger
	factory  ServiceFactory
	topCount int
}

// NewAPIHandler creates an APIHandler. topCount is the default number
// of genre buckets returned by the categorization endpoint.
func NewAPIHandler(logger *log.Logger, factory ServiceFactory, topCount int) *APIHandler {
	if topCount <= 0 {
		topCount = 5
	}
	return &APIHandler{
		logger:   logger,
		factory:  factory,
		topCount: topCount,
	}
}

// Register attaches all API routes to the router.
func (h *APIHandler) Register(router Router) {
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(h.Health))
	router.Handle(http.MethodGet, "/api/profile", http.HandlerFunc(h.Profile))
	router.Handle(http.MethodGet, "/api/top-tracks", http.HandlerFunc(h.TopTracks))
	router.Handle(http.MethodGet, "/api/saved-tracks", http.HandlerFunc(h.SavedTracks))
	router.Handle(http.MethodPost, "/api/artists", http.HandlerFunc(h.Artists))
	router.Handle(http.MethodPost, "/api/categorized-tracks", http.HandlerFunc(h.CategorizedTracks))
}

// Health reports service liveness.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "genreshelf",
	})
}

// Profile returns the authenticated user's profile.
func (h *APIHandler) Profile(w http.ResponseWriter, r *http.Request) {
	library, _, ok := h.connect(w, r)
	if !ok {
		return
	}

	profile, err := library.UserProfile(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, profile)
}

// TopTracks returns the user's most played tracks.
//
// Query parameters: limit (default 20, max 50), time_range
// (short_term, medium_term, long_term).
func (h *APIHandler) TopTracks(w http.ResponseWriter, r *http.Request) {
	library, _, ok := h.connect(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 20)
	timeRange := r.URL.Query().Get("time_range")

	tracks, err := library.TopTracks(r.Context(), limit, timeRange)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"items": tracks,
		"total": len(tracks),
	})
}

// SavedTracks returns a page of the user's saved tracks.
//
// Query parameters: limit (default 20, max 50), offset.
func (h *APIHandler) SavedTracks(w http.ResponseWriter, r *http.Request) {
	library, _, ok := h.connect(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	tracks, err := library.SavedTracks(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"items": tracks,
		"total": len(tracks),
	})
}

type artistsRequest struct {
	ArtistIDs []string `json:"artist_ids"`
}

// Artists resolves a batch of artist ids to their genre lists.
func (h *APIHandler) Artists(w http.ResponseWriter, r *http.Request) {
	_, catalog, ok := h.connect(w, r)
	if !ok {
		return
	}

	var body artistsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if len(body.ArtistIDs) == 0 {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no artist ids provided"})
		return
	}

	index, err := catalog.ArtistGenres(r.Context(), body.ArtistIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"artists": index})
}

type categorizeRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Top    int `json:"top"`
}

// CategorizedTracks fetches the user's saved tracks and shelves them
// into genre buckets, largest first.
//
// Body parameters: limit and offset select the saved-track page; top
// caps the number of buckets returned (defaults to the configured
// count, -1 keeps all).
func (h *APIHandler) CategorizedTracks(w http.ResponseWriter, r *http.Request) {
	library, catalog, ok := h.connect(w, r)
	if !ok {
		return
	}

	body := categorizeRequest{Limit: 20, Top: h.topCount}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
	}
	if body.Top == 0 {
		body.Top = h.topCount
	}
	if body.Top < 0 {
		body.Top = 0
	}

	engine := tasks.NewGenreEngine(library, catalog)

	run, err := engine.Run(r.Context(), nil, body.Limit, body.Offset, body.Top)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"genres":        run.Result,
		"track_count":   run.TrackCount,
		"artist_count":  run.ArtistCount,
		"genre_count":   run.GenreCount,
		"uncategorized": run.Uncategorized,
	})
}

// connect extracts the bearer token and builds request-scoped clients.
// Writes a 401 and returns ok=false when the token is missing.
func (h *APIHandler) connect(w http.ResponseWriter, r *http.Request) (services.Library, services.Catalog, bool) {
	token := extractBearer(r)
	if token == "" {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		return nil, nil, false
	}

	library, catalog, err := h.factory(token)
	if err != nil {
		h.writeError(w, err)
		return nil, nil, false
	}

	return library, catalog, true
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := shared.MarshalJSON(data, false)
	if err != nil {
		h.logger.Error("failed to marshal response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError maps pipeline and catalog failures onto HTTP statuses.
func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, shared.ErrCatalogAuth), errors.Is(err, shared.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, shared.ErrCatalogUnavailable), errors.Is(err, shared.ErrCatalogMalformed), errors.Is(err, shared.ErrMalformedTrack):
		status = http.StatusBadGateway
	case errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrServiceUnavailable):
		status = http.StatusServiceUnavailable
	}

	h.logger.Error("request failed", "status", status, "error", err)
	h.writeJSON(w, status, map[string]string{"error": fmt.Sprintf("%v", err)})
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
