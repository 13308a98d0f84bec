package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/genreshelf/genreshelf/internal/shared"
	"github.com/genreshelf/genreshelf/internal/ui"
	"github.com/urfave/cli/v3"
)

// Browse launches the interactive genre shelf browser.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAuthenticated(ctx, cmd.String("config")); err != nil {
		return err
	}
	if r.engine == nil {
		return fmt.Errorf("%w: shelving engine not configured", shared.ErrServiceUnavailable)
	}

	// The TUI owns the terminal, so route logs to a file for the session.
	logger, err := shared.NewFileLogger("./tmp/genreshelf-tui.log")
	if err == nil {
		r.SetLogger(logger)
	}

	model := ui.NewModel(ctx, r.engine, int(cmd.Int("limit")))
	program := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("browser exited with error: %w", err)
	}

	return nil
}
