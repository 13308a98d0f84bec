package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Uncategorized is the reserved bucket label for tracks whose artists
// carry no genre labels. Upstream genre strings are passed through
// verbatim, so an upstream genre that happens to equal this label would
// share the bucket; that collision is accepted.
const Uncategorized = "Uncategorized"

// Artist is a reference to a catalog artist. Tracks reference artists,
// they do not own them; genre labels live on the artist in the catalog.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Validate checks that an artist reference is usable for genre resolution.
func (a Artist) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("artist id is empty")
	}
	return nil
}

// Track represents one saved track from the user's library.
//
// Genres is empty until the enricher fills it with the union of the
// track's artists' labels. Nothing here is persisted past the request
// that fetched it.
type Track struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Artists    []Artist  `json:"artists"`
	Album      string    `json:"album"`
	Popularity int       `json:"popularity"`
	PreviewURL string    `json:"preview_url,omitempty"`
	AddedAt    time.Time `json:"added_at"`
	Genres     []string  `json:"genres"`
}

// Validate enforces the ingestion schema. Upstream records are
// dynamically shaped, so malformed ones are rejected here instead of
// propagating undefined fields into the pipeline.
func (t Track) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("track id is empty")
	}
	if len(t.Artists) == 0 {
		return fmt.Errorf("track %s has no artists", t.ID)
	}
	for i, artist := range t.Artists {
		if err := artist.Validate(); err != nil {
			return fmt.Errorf("track %s artist %d: %w", t.ID, i, err)
		}
	}
	if t.Popularity < 0 || t.Popularity > 100 {
		return fmt.Errorf("track %s popularity %d out of range", t.ID, t.Popularity)
	}
	return nil
}

// GenreIndex maps artist ids to their genre labels. Built once per
// batch of unique artist ids, read-only afterwards, discarded when
// enrichment completes. Never shared across pipeline runs.
type GenreIndex map[string][]string

// Genres returns the labels for an artist id. Unknown ids yield nil,
// which contributes nothing to a track's genre union.
func (idx GenreIndex) Genres(artistID string) []string {
	return idx[artistID]
}

// GenreBucket is the list of tracks filed under one genre label.
type GenreBucket struct {
	Genre  string  `json:"genre"`
	Tracks []Track `json:"tracks"`
}

// CategorizedResult is an ordered genre → tracks mapping. Order is
// descending bucket size, ties broken by the order in which the genre
// was first created. A track with N genres appears in N buckets.
type CategorizedResult struct {
	Buckets []GenreBucket
}

// Len returns the number of genre buckets.
func (r CategorizedResult) Len() int {
	return len(r.Buckets)
}

// Bucket returns the tracks for a genre label, or nil when the label
// has no bucket.
func (r CategorizedResult) Bucket(genre string) []Track {
	for _, b := range r.Buckets {
		if b.Genre == genre {
			return b.Tracks
		}
	}
	return nil
}

// Genres returns the bucket labels in result order.
func (r CategorizedResult) Genres() []string {
	genres := make([]string, len(r.Buckets))
	for i, b := range r.Buckets {
		genres[i] = b.Genre
	}
	return genres
}

// Top returns a result truncated to the first n buckets. n <= 0 keeps
// everything.
func (r CategorizedResult) Top(n int) CategorizedResult {
	if n <= 0 || n >= len(r.Buckets) {
		return r
	}
	return CategorizedResult{Buckets: r.Buckets[:n]}
}

// TotalEntries counts tracks across all buckets, including fan-out
// duplicates.
func (r CategorizedResult) TotalEntries() int {
	total := 0
	for _, b := range r.Buckets {
		total += len(b.Tracks)
	}
	return total
}

// MarshalJSON emits an object whose keys appear in bucket order,
// matching the wire shape the frontend consumes ({"rock": [...], ...}).
// encoding/json maps would lose the ordering, so the object is built
// by hand.
func (r CategorizedResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, bucket := range r.Buckets {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(bucket.Genre)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal genre label: %w", err)
		}
		buf.Write(key)
		buf.WriteByte(':')

		tracks, err := json.Marshal(bucket.Tracks)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal bucket %q: %w", bucket.Genre, err)
		}
		buf.Write(tracks)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
