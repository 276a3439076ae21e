package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/desertthunder/moodify/internal/recommend"
	"github.com/desertthunder/moodify/internal/shared"
	"github.com/urfave/cli/v3"
)

// Detect runs the emotion detection loop: classify frames, stabilize the
// mood, resolve a playlist, and open it in the browser. Runs until
// interrupted unless --once is set.
func (r *Runner) Detect(ctx context.Context, cmd *cli.Command) error {
	once := cmd.Bool("once")
	noBrowser := cmd.Bool("no-browser")
	noHistory := cmd.Bool("no-history")

	if err := r.requireSpotify(); err != nil {
		return err
	}

	var recorder recommend.Recorder
	if !noHistory {
		repo, db := r.openRepository()
		if db != nil {
			defer db.Close()
		}
		if repo != nil {
			recorder = repo
		}
	}

	var launcher recommend.Launcher = recommend.LauncherFunc(shared.OpenBrowser)
	if noBrowser {
		launcher = recommend.LauncherFunc(func(url string) error {
			return r.writePlain("→ %s\n", url)
		})
	}

	engine := r.buildEngine(recorder, launcher, once)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	progress := make(chan recommend.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.reportProgress(update)
		}
	}()

	r.writePlain("→ Watching for your mood (ctrl+c to stop)...\n")

	result, err := engine.Run(ctx, progress)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("Session summary")
	r.writePlain("Recommendations: %d\n", len(result.Cycles))
	if result.Skipped > 0 {
		r.writePlain("Skipped (no face): %d\n", result.Skipped)
	}
	if result.ResolveFails > 0 {
		r.writePlain("Failed lookups: %d\n", result.ResolveFails)
	}

	return nil
}

// reportProgress prints loop progress for the plain CLI mode.
func (r *Runner) reportProgress(update recommend.ProgressUpdate) {
	switch update.Phase {
	case recommend.PhaseObserving:
		r.logger.Debug(update.Message)
	case recommend.PhaseSkipped:
		r.logger.Info(update.Message)
	case recommend.PhaseDecided, recommend.PhaseResolving:
		r.writePlain("→ %s\n", update.Message)
	case recommend.PhaseResolveFailed:
		r.writePlain("✗ %s\n", update.Message)
	case recommend.PhaseRecommended:
		r.writePlain("✓ %s\n", update.Message)
		if update.Playlist != nil {
			r.writePlain("  %s\n", update.Playlist.URL)
		}
	}
}
