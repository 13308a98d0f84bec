package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/genreshelf/genreshelf/internal/models"
	"github.com/genreshelf/genreshelf/internal/shared"
	tu "github.com/genreshelf/genreshelf/internal/testing"
)

func TestCollectArtistIDs(t *testing.T) {
	t.Run("deduplicates in first appearance order", func(t *testing.T) {
		tracks := []models.Track{
			tu.Track("t1", "a2", "a1"),
			tu.Track("t2", "a1", "a3"),
		}

		ids := CollectArtistIDs(tracks)
		want := []string{"a2", "a1", "a3"}

		if !reflect.DeepEqual(ids, want) {
			t.Errorf("expected %v, got %v", want, ids)
		}
	})

	t.Run("skips empty ids", func(t *testing.T) {
		tracks := []models.Track{tu.Track("t1", "", "a1")}

		ids := CollectArtistIDs(tracks)
		if len(ids) != 1 || ids[0] != "a1" {
			t.Errorf("expected [a1], got %v", ids)
		}
	})

	t.Run("empty input yields no ids", func(t *testing.T) {
		if ids := CollectArtistIDs(nil); len(ids) != 0 {
			t.Errorf("expected no ids, got %v", ids)
		}
	})
}

func TestResolveGenres(t *testing.T) {
	t.Run("resolves with a single catalog batch", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			Genres: map[string][]string{
				"a1": {"rock"},
				"a2": {"pop"},
			},
		}
		tracks := []models.Track{
			tu.Track("t1", "a1"),
			tu.Track("t2", "a2", "a1"),
		}

		index, err := ResolveGenres(context.Background(), catalog, tracks)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if catalog.Calls != 1 {
			t.Errorf("expected one catalog call, got %d", catalog.Calls)
		}
		if !reflect.DeepEqual(catalog.LastIDs, []string{"a1", "a2"}) {
			t.Errorf("expected deduplicated ids [a1 a2], got %v", catalog.LastIDs)
		}
		if !reflect.DeepEqual(index["a1"], []string{"rock"}) {
			t.Errorf("expected rock for a1, got %v", index["a1"])
		}
	})

	t.Run("unknown artists resolve to empty lists", func(t *testing.T) {
		catalog := &tu.MockCatalog{Genres: map[string][]string{}}
		tracks := []models.Track{tu.Track("t1", "a9")}

		index, err := ResolveGenres(context.Background(), catalog, tracks)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		genres, ok := index["a9"]
		if !ok {
			t.Fatal("expected a9 present in index")
		}
		if len(genres) != 0 {
			t.Errorf("expected empty genre list, got %v", genres)
		}
	})

	t.Run("empty track list skips the catalog", func(t *testing.T) {
		catalog := &tu.MockCatalog{}

		index, err := ResolveGenres(context.Background(), catalog, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(index) != 0 {
			t.Errorf("expected empty index, got %v", index)
		}
		if catalog.Calls != 0 {
			t.Errorf("expected no catalog calls, got %d", catalog.Calls)
		}
	})

	t.Run("catalog failure fails the whole batch", func(t *testing.T) {
		catalog := &tu.MockCatalog{Err: shared.ErrCatalogUnavailable}
		tracks := []models.Track{tu.Track("t1", "a1")}

		index, err := ResolveGenres(context.Background(), catalog, tracks)
		if !errors.Is(err, shared.ErrCatalogUnavailable) {
			t.Errorf("expected ErrCatalogUnavailable, got %v", err)
		}
		if index != nil {
			t.Error("expected no partial index on failure")
		}
	})
}

func TestEnrichTracks(t *testing.T) {
	t.Run("unions genres in artist-list order", func(t *testing.T) {
		index := models.GenreIndex{
			"a1": {"rock", "indie"},
			"a2": {"pop", "rock"},
		}
		tracks := []models.Track{tu.Track("t1", "a1", "a2")}

		enriched := EnrichTracks(tracks, index)

		want := []string{"rock", "indie", "pop"}
		if !reflect.DeepEqual(enriched[0].Genres, want) {
			t.Errorf("expected %v, got %v", want, enriched[0].Genres)
		}
	})

	t.Run("preserves track identity and position", func(t *testing.T) {
		index := models.GenreIndex{"a1": {"rock"}}
		tracks := []models.Track{
			tu.Track("t1", "a1"),
			tu.Track("t2", "a1"),
		}

		enriched := EnrichTracks(tracks, index)

		if len(enriched) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(enriched))
		}
		for i := range tracks {
			if enriched[i].ID != tracks[i].ID {
				t.Errorf("position %d: expected %s, got %s", i, tracks[i].ID, enriched[i].ID)
			}
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		index := models.GenreIndex{"a1": {"rock"}}
		tracks := []models.Track{tu.Track("t1", "a1")}

		_ = EnrichTracks(tracks, index)

		if len(tracks[0].Genres) != 0 {
			t.Errorf("expected input untouched, got genres %v", tracks[0].Genres)
		}
	})

	t.Run("unknown artists contribute nothing", func(t *testing.T) {
		index := models.GenreIndex{"a1": {}}
		tracks := []models.Track{tu.Track("t1", "a1")}

		enriched := EnrichTracks(tracks, index)

		if enriched[0].Genres == nil {
			t.Error("expected empty genre list, got nil")
		}
		if len(enriched[0].Genres) != 0 {
			t.Errorf("expected no genres, got %v", enriched[0].Genres)
		}
	})
}

func TestCategorize(t *testing.T) {
	t.Run("single genre single track", func(t *testing.T) {
		track := tu.Track("t1", "a1")
		track.Genres = []string{"rock"}

		result := Categorize([]models.Track{track})

		if result.Len() != 1 {
			t.Fatalf("expected 1 bucket, got %d", result.Len())
		}
		rock := result.Bucket("rock")
		if len(rock) != 1 || rock[0].ID != "t1" {
			t.Errorf("expected rock bucket with t1, got %v", rock)
		}
	})

	t.Run("multi-genre track fans out to every bucket", func(t *testing.T) {
		track := tu.Track("t1", "a1", "a2")
		track.Genres = []string{"rock", "pop"}

		result := Categorize([]models.Track{track})

		if result.Len() != 2 {
			t.Fatalf("expected 2 buckets, got %d", result.Len())
		}
		if len(result.Bucket("rock")) != 1 {
			t.Error("expected t1 in rock bucket")
		}
		if len(result.Bucket("pop")) != 1 {
			t.Error("expected t1 in pop bucket")
		}
	})

	t.Run("genreless track lands in Uncategorized", func(t *testing.T) {
		track := tu.Track("t1", "a9")

		result := Categorize([]models.Track{track})

		if result.Len() != 1 {
			t.Fatalf("expected 1 bucket, got %d", result.Len())
		}
		fallback := result.Bucket(models.Uncategorized)
		if len(fallback) != 1 || fallback[0].ID != "t1" {
			t.Errorf("expected t1 in Uncategorized, got %v", fallback)
		}
	})

	t.Run("buckets sort largest first", func(t *testing.T) {
		rock1 := tu.Track("t1", "a1")
		rock1.Genres = []string{"rock"}
		rock2 := tu.Track("t2", "a1")
		rock2.Genres = []string{"rock"}
		pop := tu.Track("t3", "a2")
		pop.Genres = []string{"pop"}

		// pop appears first in the input but rock is the bigger bucket
		result := Categorize([]models.Track{pop, rock1, rock2})

		want := []string{"rock", "pop"}
		if !reflect.DeepEqual(result.Genres(), want) {
			t.Errorf("expected order %v, got %v", want, result.Genres())
		}
	})

	t.Run("ties keep first-seen genre order", func(t *testing.T) {
		first := tu.Track("t1", "a1")
		first.Genres = []string{"jazz"}
		second := tu.Track("t2", "a2")
		second.Genres = []string{"ambient"}

		result := Categorize([]models.Track{first, second})

		want := []string{"jazz", "ambient"}
		if !reflect.DeepEqual(result.Genres(), want) {
			t.Errorf("expected order %v, got %v", want, result.Genres())
		}
	})

	t.Run("tracks keep input order within a bucket", func(t *testing.T) {
		t1 := tu.Track("t1", "a1")
		t1.Genres = []string{"rock"}
		t2 := tu.Track("t2", "a1")
		t2.Genres = []string{"rock"}
		t3 := tu.Track("t3", "a1")
		t3.Genres = []string{"rock"}

		result := Categorize([]models.Track{t1, t2, t3})

		rock := result.Bucket("rock")
		for i, want := range []string{"t1", "t2", "t3"} {
			if rock[i].ID != want {
				t.Errorf("position %d: expected %s, got %s", i, want, rock[i].ID)
			}
		}
	})

	t.Run("empty input yields no buckets", func(t *testing.T) {
		result := Categorize(nil)

		if result.Len() != 0 {
			t.Errorf("expected no buckets, got %d", result.Len())
		}
		if len(result.Bucket(models.Uncategorized)) != 0 {
			t.Error("expected no Uncategorized bucket for empty input")
		}
	})

	t.Run("whitespace and empty labels are distinct buckets", func(t *testing.T) {
		blank := tu.Track("t1", "a1")
		blank.Genres = []string{""}
		padded := tu.Track("t2", "a2")
		padded.Genres = []string{" rock "}
		plain := tu.Track("t3", "a3")
		plain.Genres = []string{"rock"}

		result := Categorize([]models.Track{blank, padded, plain})

		if result.Len() != 3 {
			t.Fatalf("expected 3 distinct buckets, got %d: %v", result.Len(), result.Genres())
		}
		if len(result.Bucket("")) != 1 {
			t.Error("expected empty-string label to be its own bucket")
		}
		if len(result.Bucket(models.Uncategorized)) != 0 {
			t.Error("expected blank labels not merged into Uncategorized")
		}
	})

	t.Run("case-sensitive labels stay separate", func(t *testing.T) {
		lower := tu.Track("t1", "a1")
		lower.Genres = []string{"rock"}
		upper := tu.Track("t2", "a2")
		upper.Genres = []string{"Rock"}

		result := Categorize([]models.Track{lower, upper})

		if result.Len() != 2 {
			t.Errorf("expected 'rock' and 'Rock' as distinct buckets, got %v", result.Genres())
		}
	})
}

func TestCategorizeProperties(t *testing.T) {
	fixtures := func() []models.Track {
		t1 := tu.Track("t1", "a1", "a2")
		t1.Genres = []string{"rock", "pop"}
		t2 := tu.Track("t2", "a3")
		t2.Genres = []string{"rock"}
		t3 := tu.Track("t3", "a9")
		t4 := tu.Track("t4", "a4")
		t4.Genres = []string{"jazz", "pop", "ambient"}
		return []models.Track{t1, t2, t3, t4}
	}

	t.Run("bucket lengths sum to fan-out total", func(t *testing.T) {
		tracks := fixtures()
		result := Categorize(tracks)

		want := 0
		for _, track := range tracks {
			if n := len(track.Genres); n > 0 {
				want += n
			} else {
				want++
			}
		}

		if got := result.TotalEntries(); got != want {
			t.Errorf("expected %d total entries, got %d", want, got)
		}
	})

	t.Run("every track appears in at least one bucket", func(t *testing.T) {
		tracks := fixtures()
		result := Categorize(tracks)

		placed := make(map[string]bool)
		for _, bucket := range result.Buckets {
			for _, track := range bucket.Tracks {
				placed[track.ID] = true
			}
		}

		for _, track := range tracks {
			if !placed[track.ID] {
				t.Errorf("track %s missing from every bucket", track.ID)
			}
		}
	})

	t.Run("recategorizing bucket union preserves membership", func(t *testing.T) {
		first := Categorize(fixtures())

		var flat []models.Track
		for _, bucket := range first.Buckets {
			flat = append(flat, bucket.Tracks...)
		}

		second := Categorize(flat)

		for _, bucket := range first.Buckets {
			again := second.Bucket(bucket.Genre)
			ids := make(map[string]bool)
			for _, track := range again {
				ids[track.ID] = true
			}
			for _, track := range bucket.Tracks {
				if !ids[track.ID] {
					t.Errorf("track %s left bucket %q on replay", track.ID, bucket.Genre)
				}
			}
		}
	})

	t.Run("deterministic ordering across runs", func(t *testing.T) {
		first := Categorize(fixtures())
		second := Categorize(fixtures())

		a, err := json.Marshal(first)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		b, err := json.Marshal(second)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		if string(a) != string(b) {
			t.Errorf("expected byte-identical results\nfirst:  %s\nsecond: %s", a, b)
		}
	})
}

func TestGenreEnginePipeline(t *testing.T) {
	t.Run("single artist single genre", func(t *testing.T) {
		catalog := &tu.MockCatalog{Genres: map[string][]string{"a1": {"rock"}}}
		engine := NewGenreEngine(nil, catalog)

		run, err := engine.Shelve(context.Background(), nil, []models.Track{tu.Track("t1", "a1")}, 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if run.Result.Len() != 1 {
			t.Fatalf("expected 1 bucket, got %d", run.Result.Len())
		}
		rock := run.Result.Bucket("rock")
		if len(rock) != 1 || rock[0].ID != "t1" {
			t.Errorf("expected rock bucket with t1, got %v", rock)
		}
	})

	t.Run("multi-artist track collects both genres", func(t *testing.T) {
		catalog := &tu.MockCatalog{Genres: map[string][]string{
			"a1": {"rock"},
			"a2": {"pop"},
		}}
		engine := NewGenreEngine(nil, catalog)

		run, err := engine.Shelve(context.Background(), nil, []models.Track{tu.Track("t1", "a1", "a2")}, 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []string{"rock", "pop"}
		if !reflect.DeepEqual(run.Tracks[0].Genres, want) {
			t.Errorf("expected track genres %v, got %v", want, run.Tracks[0].Genres)
		}
		if len(run.Result.Bucket("rock")) != 1 || len(run.Result.Bucket("pop")) != 1 {
			t.Error("expected t1 in both rock and pop buckets")
		}
	})

	t.Run("unknown artist shelves into Uncategorized", func(t *testing.T) {
		catalog := &tu.MockCatalog{Genres: map[string][]string{}}
		engine := NewGenreEngine(nil, catalog)

		run, err := engine.Shelve(context.Background(), nil, []models.Track{tu.Track("t1", "a9")}, 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if run.Result.Len() != 1 {
			t.Fatalf("expected 1 bucket, got %d", run.Result.Len())
		}
		if len(run.Result.Bucket(models.Uncategorized)) != 1 {
			t.Error("expected t1 in the Uncategorized bucket")
		}
		if run.Uncategorized != 1 {
			t.Errorf("expected uncategorized count 1, got %d", run.Uncategorized)
		}
	})

	t.Run("catalog failure aborts the whole run", func(t *testing.T) {
		catalog := &tu.MockCatalog{Err: shared.ErrCatalogUnavailable}
		engine := NewGenreEngine(nil, catalog)

		run, err := engine.Shelve(context.Background(), nil, []models.Track{tu.Track("t1", "a1")}, 0)
		if !errors.Is(err, shared.ErrCatalogUnavailable) {
			t.Errorf("expected ErrCatalogUnavailable, got %v", err)
		}
		if run != nil {
			t.Error("expected no partial result on catalog failure")
		}
	})

	t.Run("Run fetches from the library first", func(t *testing.T) {
		library := &tu.MockLibrary{
			Saved: []models.Track{tu.Track("t1", "a1")},
		}
		catalog := &tu.MockCatalog{Genres: map[string][]string{"a1": {"rock"}}}
		engine := NewGenreEngine(library, catalog)

		run, err := engine.Run(context.Background(), nil, 25, 0, 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if library.SavedCalls != 1 {
			t.Errorf("expected one library fetch, got %d", library.SavedCalls)
		}
		if library.LastLimit != 25 {
			t.Errorf("expected limit 25 passed through, got %d", library.LastLimit)
		}
		if run.TrackCount != 1 {
			t.Errorf("expected 1 track processed, got %d", run.TrackCount)
		}
	})

	t.Run("top truncates buckets but keeps counts", func(t *testing.T) {
		catalog := &tu.MockCatalog{Genres: map[string][]string{
			"a1": {"rock"},
			"a2": {"rock"},
			"a3": {"pop"},
			"a4": {"jazz"},
		}}
		engine := NewGenreEngine(nil, catalog)

		tracks := []models.Track{
			tu.Track("t1", "a1"),
			tu.Track("t2", "a2"),
			tu.Track("t3", "a3"),
			tu.Track("t4", "a4"),
		}

		run, err := engine.Shelve(context.Background(), nil, tracks, 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if run.Result.Len() != 2 {
			t.Errorf("expected 2 buckets after truncation, got %d", run.Result.Len())
		}
		if run.GenreCount != 3 {
			t.Errorf("expected genre count 3 before truncation, got %d", run.GenreCount)
		}
		if got := run.Result.Genres()[0]; got != "rock" {
			t.Errorf("expected rock first, got %s", got)
		}
	})

	t.Run("missing services are reported", func(t *testing.T) {
		engine := NewGenreEngine(nil, nil)

		_, err := engine.Run(context.Background(), nil, 20, 0, 0)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("progress updates are emitted without blocking", func(t *testing.T) {
		library := &tu.MockLibrary{Saved: []models.Track{tu.Track("t1", "a1")}}
		catalog := &tu.MockCatalog{Genres: map[string][]string{"a1": {"rock"}}}
		engine := NewGenreEngine(library, catalog)

		progress := make(chan ProgressUpdate, 16)

		if _, err := engine.Run(context.Background(), progress, 20, 0, 0); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(progress)

		var phases []Phase
		for update := range progress {
			phases = append(phases, update.Phase)
		}

		if len(phases) == 0 {
			t.Fatal("expected progress updates")
		}
		if phases[0] != FetchTracks {
			t.Errorf("expected first phase fetch_tracks, got %s", phases[0])
		}
		if phases[len(phases)-1] != Shelved {
			t.Errorf("expected final phase shelved, got %s", phases[len(phases)-1])
		}

		// Unbuffered nil channel must not block the run either.
		if _, err := engine.Run(context.Background(), nil, 20, 0, 0); err != nil {
			t.Fatalf("expected no error with nil progress, got %v", err)
		}
	})
}
