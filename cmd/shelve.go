package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/genreshelf/genreshelf/internal/formatter"
	"github.com/genreshelf/genreshelf/internal/shared"
	"github.com/genreshelf/genreshelf/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Shelve runs the full pipeline: fetch saved tracks, resolve artist
// genres, and sort the library into genre buckets.
func (r *Runner) Shelve(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAuthenticated(ctx, cmd.String("config")); err != nil {
		return err
	}
	if r.engine == nil {
		return fmt.Errorf("%w: shelving engine not configured", shared.ErrServiceUnavailable)
	}

	limit := int(cmd.Int("limit"))
	offset := int(cmd.Int("offset"))
	top := int(cmd.Int("top"))

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("→ %s\n", update.Message)
		}
	}()

	run, err := r.engine.Run(ctx, progress, limit, offset, top)
	close(progress)
	<-done

	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if run, err = r.engine.Run(ctx, nil, limit, offset, top); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	format := strings.ToLower(cmd.String("format"))
	output := cmd.String("output")

	switch format {
	case "", "text":
		r.printShelfSummary(run)
		if output != "" {
			path, err := formatter.WriteTextExport(run.Result, output)
			if err != nil {
				return err
			}
			r.writePlain("\n✓ Written to %s\n", path)
		}
	case "json":
		data, err := formatter.ToJSON(run.Result)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(r.output, string(data)); err != nil {
			return err
		}
	case "csv":
		if output == "" {
			output = "shelf"
		}
		path, err := formatter.WriteCSVExport(run.Result, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Written to %s\n", path)
	case "markdown", "md":
		if output == "" {
			output = "shelf"
		}
		path, err := formatter.WriteMarkdownExport(run.Result, output, "Genre Shelf")
		if err != nil {
			return err
		}
		r.writePlain("✓ Written to %s\n", path)
	default:
		return fmt.Errorf("%w: unknown format %q (want text, json, csv or markdown)", shared.ErrInvalidArgument, format)
	}

	return nil
}

func (r *Runner) printShelfSummary(run *tasks.ShelfRunResult) {
	r.writePlainHeader("Genre Shelf")
	r.writePlain("Tracks: %d  Artists: %d  Genres: %d\n", run.TrackCount, run.ArtistCount, run.GenreCount)
	if run.Uncategorized > 0 {
		r.writePlain("Uncategorized: %d\n", run.Uncategorized)
	}
	r.writePlain("\n")

	for _, bucket := range run.Result.Buckets {
		label := bucket.Genre
		if label == "" {
			label = "(blank)"
		}
		r.writePlain("%s (%d)\n", label, len(bucket.Tracks))
		for _, track := range bucket.Tracks {
			names := make([]string, len(track.Artists))
			for i, artist := range track.Artists {
				names[i] = artist.Name
			}
			r.writePlain("  • %s - %s\n", strings.Join(names, ", "), track.Name)
		}
		r.writePlain("\n")
	}
}
