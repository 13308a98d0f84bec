// package tasks implements the genre shelving pipeline over a user's music library.
//
// The core abstraction is ShelfEngine, which orchestrates fetching saved tracks,
// resolving artist genres, enriching tracks, and categorizing them into genre buckets.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"sort"

	"github.com/genreshelf/genreshelf/internal/models"
	"github.com/genreshelf/genreshelf/internal/services"
	"github.com/genreshelf/genreshelf/internal/shared"
)

// ShelfRunResult contains all data from a full shelving run.
type ShelfRunResult struct {
	Tracks        []models.Track            // Enriched input tracks
	Result        *models.CategorizedResult // Genre buckets, largest first
	TrackCount    int                       // Tracks processed
	ArtistCount   int                       // Distinct artists resolved
	GenreCount    int                       // Distinct genre buckets before truncation
	Uncategorized int                       // Tracks that landed only in the fallback bucket
}

// ShelfEngine defines the library shelving operation.
type ShelfEngine interface {
	// Run fetches saved tracks, resolves their artists' genres, and
	// categorizes them into at most top buckets (0 keeps all).
	Run(ctx context.Context, progress chan<- ProgressUpdate, limit, offset, top int) (*ShelfRunResult, error)
}

// GenreEngine implements ShelfEngine over a library and a genre catalog.
type GenreEngine struct {
	library services.Library
	catalog services.Catalog
}

// NewGenreEngine creates a new GenreEngine with the provided services.
func NewGenreEngine(library services.Library, catalog services.Catalog) *GenreEngine {
	return &GenreEngine{
		library: library,
		catalog: catalog,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *GenreEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Run performs a full shelving pass over the user's saved tracks.
func (e *GenreEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, limit, offset, top int) (*ShelfRunResult, error) {
	if e.library == nil {
		return nil, fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchTracksUpdate(1, 4, e.library.Name()))

	tracks, err := e.library.SavedTracks(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	return e.Shelve(ctx, progress, tracks, top)
}

// Shelve runs the resolve/enrich/categorize stages over an already
// fetched track list.
func (e *GenreEngine) Shelve(ctx context.Context, progress chan<- ProgressUpdate, tracks []models.Track, top int) (*ShelfRunResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}

	artistIDs := CollectArtistIDs(tracks)

	e.sendProgress(progress, resolveGenresUpdate(2, 4, len(artistIDs)))

	index, err := ResolveGenres(ctx, e.catalog, tracks)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, enrichTracksUpdate(3, 4, len(tracks)))
	enriched := EnrichTracks(tracks, index)

	e.sendProgress(progress, categorizeUpdate(4, 4))
	result := Categorize(enriched)

	run := &ShelfRunResult{
		Tracks:      enriched,
		TrackCount:  len(enriched),
		ArtistCount: len(artistIDs),
		GenreCount:  result.Len(),
	}

	run.Uncategorized = len(result.Bucket(models.Uncategorized))

	if top > 0 {
		truncated := result.Top(top)
		result = truncated
	}
	run.Result = &result

	e.sendProgress(progress, shelvedUpdate(result.Len(), run.TrackCount))

	return run, nil
}

// CollectArtistIDs returns the distinct artist ids across tracks in
// first appearance order. Empty ids are skipped.
func CollectArtistIDs(tracks []models.Track) []string {
	seen := make(map[string]bool)
	var ids []string

	for _, track := range tracks {
		for _, artist := range track.Artists {
			if artist.ID == "" || seen[artist.ID] {
				continue
			}
			seen[artist.ID] = true
			ids = append(ids, artist.ID)
		}
	}

	return ids
}

// ResolveGenres resolves genres for every artist referenced by tracks
// with a single catalog batch. The whole batch fails together: on any
// catalog error no partial index is returned. An empty track list
// resolves to an empty index without touching the catalog.
func ResolveGenres(ctx context.Context, catalog services.Catalog, tracks []models.Track) (models.GenreIndex, error) {
	ids := CollectArtistIDs(tracks)
	if len(ids) == 0 {
		return models.GenreIndex{}, nil
	}

	index, err := catalog.ArtistGenres(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Every requested id must resolve, to an empty list at worst.
	for _, id := range ids {
		if _, ok := index[id]; !ok {
			index[id] = []string{}
		}
	}

	return index, nil
}

// EnrichTracks annotates each track with the union of its artists'
// genres, deduplicated in first appearance order. Tracks whose artists
// all resolve to empty lists get an empty (never nil) genre list.
// The input slice is not modified.
func EnrichTracks(tracks []models.Track, index models.GenreIndex) []models.Track {
	enriched := make([]models.Track, len(tracks))

	for i, track := range tracks {
		seen := make(map[string]bool)
		genres := []string{}

		for _, artist := range track.Artists {
			for _, genre := range index.Genres(artist.ID) {
				if seen[genre] {
					continue
				}
				seen[genre] = true
				genres = append(genres, genre)
			}
		}

		enriched[i] = track
		enriched[i].Genres = genres
	}

	return enriched
}

// Categorize fans tracks out into genre buckets. A track appears once
// in every bucket named by its genre list; tracks with no genres land
// in the Uncategorized bucket. Genre labels are compared exactly, so
// differently cased or padded labels form distinct buckets.
//
// Buckets are ordered largest first; buckets of equal size keep the
// order their genre first appeared in the input. Tracks within a
// bucket keep input order. Empty input yields a result with no
// buckets, including no Uncategorized bucket.
func Categorize(tracks []models.Track) models.CategorizedResult {
	buckets := make(map[string][]models.Track)
	var order []string

	add := func(genre string, track models.Track) {
		if _, ok := buckets[genre]; !ok {
			order = append(order, genre)
		}
		buckets[genre] = append(buckets[genre], track)
	}

	for _, track := range tracks {
		if len(track.Genres) == 0 {
			add(models.Uncategorized, track)
			continue
		}
		for _, genre := range track.Genres {
			add(genre, track)
		}
	}

	firstSeen := make(map[string]int, len(order))
	for i, genre := range order {
		firstSeen[genre] = i
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if len(buckets[a]) != len(buckets[b]) {
			return len(buckets[a]) > len(buckets[b])
		}
		return firstSeen[a] < firstSeen[b]
	})

	result := models.CategorizedResult{
		Buckets: make([]models.GenreBucket, 0, len(order)),
	}
	for _, genre := range order {
		result.Buckets = append(result.Buckets, models.GenreBucket{
			Genre:  genre,
			Tracks: buckets[genre],
		})
	}

	return result
}
