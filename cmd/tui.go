package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moodify/internal/recommend"
	"github.com/desertthunder/moodify/internal/shared"
	"github.com/desertthunder/moodify/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for mood detection.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/moodify-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	repo, db := r.openRepository()
	if db != nil {
		defer db.Close()
	}

	var recorder recommend.Recorder
	var history ui.HistoryStore
	if repo != nil {
		recorder = repo
		history = repo
	}

	// The TUI opens playlists on keypress, so the engine gets no launcher
	// and stops after each recommendation.
	engine := r.buildEngine(recorder, nil, true)
	launcher := recommend.LauncherFunc(shared.OpenBrowser)

	model := ui.NewModel(ctx, engine, launcher, history)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
