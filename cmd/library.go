package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/genreshelf/genreshelf/internal/models"
	"github.com/genreshelf/genreshelf/internal/shared"
	"github.com/urfave/cli/v3"
)

// Profile prints the authenticated user's profile.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAuthenticated(ctx, cmd.String("config")); err != nil {
		return err
	}

	profile, err := r.spotify.UserProfile(ctx)
	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if profile, err = r.spotify.UserProfile(ctx); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Profile: %s", profile.DisplayName))
	r.writePlain("ID: %s\n", profile.ID)
	if profile.Email != "" {
		r.writePlain("Email: %s\n", profile.Email)
	}
	if profile.Country != "" {
		r.writePlain("Country: %s\n", profile.Country)
	}
	if profile.Product != "" {
		r.writePlain("Plan: %s\n", profile.Product)
	}
	r.writePlain("Followers: %d\n", profile.Followers)

	return nil
}

// TracksSaved lists the user's saved tracks.
func (r *Runner) TracksSaved(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAuthenticated(ctx, cmd.String("config")); err != nil {
		return err
	}

	limit := int(cmd.Int("limit"))
	offset := int(cmd.Int("offset"))

	r.logger.Infof("listing saved tracks with limit %v offset %v", limit, offset)

	tracks, err := r.spotify.SavedTracks(ctx, limit, offset)
	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if tracks, err = r.spotify.SavedTracks(ctx, limit, offset); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d saved tracks:\n\n", len(tracks))
	r.printTracks(tracks, true)

	return nil
}

// TracksTop lists the user's most played tracks.
func (r *Runner) TracksTop(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAuthenticated(ctx, cmd.String("config")); err != nil {
		return err
	}

	limit := int(cmd.Int("limit"))
	timeRange := cmd.String("time-range")

	r.logger.Infof("listing top tracks with limit %v range %v", limit, timeRange)

	tracks, err := r.spotify.TopTracks(ctx, limit, timeRange)
	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if tracks, err = r.spotify.TopTracks(ctx, limit, timeRange); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlain("Top %d tracks (%s):\n\n", len(tracks), timeRange)
	r.printTracks(tracks, false)

	return nil
}

func (r *Runner) printTracks(tracks []models.Track, showAddedAt bool) {
	for i, track := range tracks {
		names := make([]string, len(track.Artists))
		for j, artist := range track.Artists {
			names[j] = artist.Name
		}

		r.writePlain("%d. %s - %s\n", i+1, strings.Join(names, ", "), track.Name)
		if track.Album != "" {
			r.writePlain("   Album: %s\n", track.Album)
		}
		if showAddedAt && !track.AddedAt.IsZero() {
			r.writePlain("   Added: %s\n", track.AddedAt.Format(time.DateOnly))
		}
	}
}
