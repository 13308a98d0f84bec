package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/genreshelf/genreshelf/internal/services"
	"github.com/genreshelf/genreshelf/internal/shared"
	"github.com/genreshelf/genreshelf/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	spotify    *services.SpotifyService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.GenreEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Spotify    *services.SpotifyService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	runner := &Runner{
		config:     opts.Config,
		spotify:    opts.Spotify,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}

	if opts.Spotify != nil {
		runner.engine = tasks.NewGenreEngine(opts.Spotify, opts.Spotify)
	}

	return runner
}

// SetLogger swaps the runner's logger, used when the TUI redirects logs to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, tracksCommand, shelveCommand, serveCommand, browseCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// ensureAuthenticated installs the saved token on the Spotify service
// and wires refreshed tokens back into config.toml.
func (r *Runner) ensureAuthenticated(ctx context.Context, configPath string) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized (set credentials in config.toml)", shared.ErrServiceUnavailable)
	}

	token := r.config.Credentials.Spotify.Token()
	if token == nil {
		return fmt.Errorf("%w: no saved token, run 'genreshelf auth login' first", shared.ErrNotAuthenticated)
	}

	if err := r.spotify.AuthenticateToken(ctx, token); err != nil {
		return err
	}

	r.spotify.SetTokenRefreshCallback(func(refreshed *oauth2.Token) {
		if err := r.config.Credentials.Spotify.Update(refreshed); err != nil {
			r.logger.Warn("failed to update config with refreshed token", "error", err)
			return
		}
		if err := shared.SaveConfig(configPath, r.config); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
		}
	})

	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
