package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchTracks Phase = iota
	ResolveArtists
	Enrich
	Shelving
	Shelved
)

func (p Phase) String() string {
	switch p {
	case FetchTracks:
		return "fetch_tracks"
	case ResolveArtists:
		return "resolve_artists"
	case Enrich:
		return "enrich"
	case Shelving:
		return "shelving"
	case Shelved:
		return "shelved"
	default:
		return ""
	}
}

func fetchTracksUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching saved tracks from %s...", name),
	}
}

func resolveGenresUpdate(step, total, artists int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveArtists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Resolving genres for %d artists...", artists),
	}
}

func enrichTracksUpdate(step, total, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Enrich,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Tagging %d tracks with genres...", tracks),
	}
}

func categorizeUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Shelving,
		Step:    step,
		Total:   total,
		Message: "Sorting tracks into genre shelves...",
	}
}

func shelvedUpdate(buckets, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Shelved,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Shelved %d tracks into %d genres", tracks, buckets),
	}
}
