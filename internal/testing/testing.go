// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/genreshelf/genreshelf/internal/models"
	"github.com/genreshelf/genreshelf/internal/services"
)

// MockLibrary is a configurable test double for [services.Library]
type MockLibrary struct {
	Profile     *services.UserProfile
	Saved       []models.Track
	Top         []models.Track
	Err         error
	SavedCalls  int
	LastLimit   int
	LastOffset  int
	ServiceName string
}

func (m *MockLibrary) UserProfile(ctx context.Context) (*services.UserProfile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Profile, nil
}

func (m *MockLibrary) SavedTracks(ctx context.Context, limit, offset int) ([]models.Track, error) {
	m.SavedCalls++
	m.LastLimit = limit
	m.LastOffset = offset
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Saved, nil
}

func (m *MockLibrary) TopTracks(ctx context.Context, limit int, timeRange string) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Top, nil
}

func (m *MockLibrary) Name() string {
	if m.ServiceName != "" {
		return m.ServiceName
	}
	return "mock"
}

// MockCatalog is a configurable test double for [services.Catalog].
// Genres maps artist id to genre list; ids absent from Genres resolve
// to empty lists, matching the real catalog contract.
type MockCatalog struct {
	Genres  map[string][]string
	Err     error
	Calls   int
	LastIDs []string
}

func (m *MockCatalog) ArtistGenres(ctx context.Context, artistIDs []string) (models.GenreIndex, error) {
	m.Calls++
	m.LastIDs = append([]string(nil), artistIDs...)

	if m.Err != nil {
		return nil, m.Err
	}

	index := make(models.GenreIndex, len(artistIDs))
	for _, id := range artistIDs {
		if genres, ok := m.Genres[id]; ok {
			index[id] = genres
		} else {
			index[id] = []string{}
		}
	}
	return index, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// Track builds a minimal valid track for pipeline tests.
func Track(id string, artistIDs ...string) models.Track {
	track := models.Track{
		ID:     id,
		Name:   "Track " + id,
		Genres: []string{},
	}
	for _, artistID := range artistIDs {
		track.Artists = append(track.Artists, models.Artist{
			ID:   artistID,
			Name: "Artist " + artistID,
		})
	}
	return track
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
