// Package recommend orchestrates the emotion → mood → playlist pipeline with real-time progress reporting.
//
// # Core Operation
//
// [Engine.Run] drives the recommendation loop:
//   - Pulls the next emotion signal from the classifier adapter
//   - Advances the mood stabilizer; most cycles end here ("keep observing")
//   - On a stable decision, maps the mood to search terms and resolves a playlist
//   - Hands the playlist to the browser launcher and records it to history
//
// The loop terminates only on context cancellation or classifier device loss.
// Resolution failures are surfaced as progress events and the loop continues.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and
// optional data for advanced UI rendering. Updates use select with default
// to prevent blocking.
package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodify/internal/emotion"
	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/mood"
	"github.com/desertthunder/moodify/internal/resolver"
	"github.com/desertthunder/moodify/internal/shared"
)

// Launcher is the thin interface over the effectful "open in browser" step,
// kept behind an interface so the decision pipeline stays testable without
// real I/O.
type Launcher interface {
	Open(url string) error
}

// LauncherFunc adapts a function to the [Launcher] interface.
type LauncherFunc func(url string) error

func (f LauncherFunc) Open(url string) error { return f(url) }

// Recorder persists completed recommendations. Satisfied by
// repositories.RecommendationRepository; nil disables history.
type Recorder interface {
	Create(rec *models.Recommendation) error
}

// CycleResult captures one completed recommendation cycle.
type CycleResult struct {
	Decision mood.Decision
	Playlist *resolver.Playlist
	Launched bool
}

// RunResult contains all data from a recommendation session.
type RunResult struct {
	Cycles       []CycleResult // Completed recommendations in order
	Skipped      int           // Cycles skipped because no face was detected
	ResolveFails int           // Stable decisions that failed to resolve
}

// Opts contains dependencies and configuration for an [Engine].
type Opts struct {
	Classifier emotion.Classifier
	Stabilizer *mood.Stabilizer
	Resolver   *resolver.Resolver
	Launcher   Launcher      // nil skips the browser step
	Recorder   Recorder      // nil disables history
	Logger     *log.Logger
	Once       bool          // Stop after the first successful recommendation
	PollDelay  time.Duration // Delay between cycles after a skip
}

// Engine drives the recommendation pipeline for a single user session.
//
// One signal is processed to completion before the next is considered;
// the stabilizer is never mutated concurrently.
type Engine struct {
	classifier emotion.Classifier
	stabilizer *mood.Stabilizer
	resolver   *resolver.Resolver
	launcher   Launcher
	recorder   Recorder
	logger     *log.Logger
	once       bool
	pollDelay  time.Duration
}

// NewEngine creates an Engine with the provided dependencies.
// A nil logger falls back to the shared default.
func NewEngine(opts Opts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Engine{
		classifier: opts.Classifier,
		stabilizer: opts.Stabilizer,
		resolver:   opts.Resolver,
		launcher:   opts.Launcher,
		recorder:   opts.Recorder,
		logger:     opts.Logger,
		once:       opts.Once,
		pollDelay:  opts.PollDelay,
	}
}

// Stabilizer exposes the engine's stabilizer for progress display.
func (e *Engine) Stabilizer() *mood.Stabilizer {
	return e.stabilizer
}

// Run executes the recommendation loop until the context is cancelled, the
// classifier device fails, or (in once mode) the first recommendation lands.
//
// Cancellation during an in-flight resolve discards the partial result;
// no playlist is ever launched after shutdown begins.
func (e *Engine) Run(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error) {
	result := &RunResult{}

	for {
		select {
		case <-ctx.Done():
			return result, nil
		default:
		}

		sig, err := e.classifier.Classify(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return result, nil
			}
			if errors.Is(err, shared.ErrDeviceFailed) {
				e.logger.Errorf("classifier device lost: %v", err)
				return result, err
			}
			if errors.Is(err, shared.ErrNoFaceDetected) {
				result.Skipped++
				e.sendProgress(progress, skippedUpdate(result.Skipped))
				e.wait(ctx)
				continue
			}
			e.logger.Warnf("classification failed: %v", err)
			continue
		}

		decision := e.stabilizer.Observe(sig)
		fill, size := e.stabilizer.Fill()
		e.sendProgress(progress, observedUpdate(fill, size, sig))

		if decision == nil {
			continue
		}

		e.logger.Infof("stable mood decision: %s (emotion %s, share %.2f)", decision.Mood, decision.Label, decision.Share)
		e.sendProgress(progress, decisionUpdate(*decision))

		query := mood.Map(decision.Label)
		e.sendProgress(progress, resolvingUpdate(query))

		playlist, err := e.resolver.Resolve(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return result, nil
			}
			result.ResolveFails++
			e.logger.Warnf("no playlist for mood %s: %v", decision.Mood, err)
			e.sendProgress(progress, resolveFailedUpdate(*decision, err))
			continue
		}

		cycle := CycleResult{Decision: *decision, Playlist: playlist}

		if e.launcher != nil {
			if err := e.launcher.Open(playlist.URL); err != nil {
				e.logger.Warnf("failed to open playlist in browser: %v", err)
			} else {
				cycle.Launched = true
			}
		}

		e.record(*decision, playlist)

		result.Cycles = append(result.Cycles, cycle)
		e.sendProgress(progress, recommendedUpdate(*decision, playlist))

		if e.once {
			return result, nil
		}
	}
}

// record persists a completed cycle; history failures are logged, never fatal.
func (e *Engine) record(decision mood.Decision, playlist *resolver.Playlist) {
	if e.recorder == nil {
		return
	}

	rec := models.NewRecommendation(
		0,
		decision.Mood.String(),
		decision.Label.String(),
		playlist.Term,
		playlist.ID,
		playlist.Name,
		playlist.URL,
		playlist.Popularity,
		playlist.MatchScore,
	)

	if err := e.recorder.Create(rec); err != nil {
		e.logger.Warnf("failed to record recommendation: %v", err)
	}
}

// wait sleeps for the poll delay, returning early on cancellation.
func (e *Engine) wait(ctx context.Context) {
	if e.pollDelay <= 0 {
		return
	}
	timer := time.NewTimer(e.pollDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
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
