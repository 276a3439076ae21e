package recommend

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/desertthunder/moodify/internal/emotion"
	"github.com/desertthunder/moodify/internal/mood"
	"github.com/desertthunder/moodify/internal/resolver"
	"github.com/desertthunder/moodify/internal/services"
	"github.com/desertthunder/moodify/internal/shared"
	tu "github.com/desertthunder/moodify/internal/testing"
)

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

// happyScript fills a 5-wide window with confident happy signals.
func happyScript() []tu.ScriptStep {
	steps := make([]tu.ScriptStep, 5)
	for i := range steps {
		steps[i] = tu.Step(emotion.Happy, 0.9)
	}
	return steps
}

func partyCatalog() *tu.MockCatalog {
	catalog := tu.NewMockCatalog()
	catalog.Playlists["party"] = []services.CatalogPlaylist{{
		ID:         "p1",
		Name:       "Party Hits",
		Owner:      "alex",
		URL:        "https://open.spotify.com/playlist/p1",
		TrackCount: 50,
		Popularity: 50,
	}}
	return catalog
}

func newTestEngine(classifier emotion.Classifier, catalog services.Catalog, launcher Launcher, recorder Recorder) *Engine {
	return NewEngine(Opts{
		Classifier: classifier,
		Stabilizer: mood.NewStabilizer(mood.StabilizerOpts{WindowSize: 5, Threshold: 0.6}),
		Resolver:   resolver.New(catalog, resolver.Opts{MinScore: 0.3, RateLimit: 1000, Sleep: noSleep}),
		Launcher:   launcher,
		Recorder:   recorder,
		Logger:     shared.NewLogger(nil),
		Once:       true,
	})
}

func TestEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("NewEngine", func(t *testing.T) {
		t.Run("with nil logger uses default", func(t *testing.T) {
			engine := NewEngine(Opts{})
			if engine.logger == nil {
				t.Error("expected default logger to be set")
			}
		})
	})

	t.Run("Run", func(t *testing.T) {
		t.Run("full cycle recommends and launches", func(t *testing.T) {
			launcher := &tu.SpyLauncher{}
			recorder := &tu.SpyRecorder{}
			engine := newTestEngine(tu.NewScriptClassifier(happyScript()...), partyCatalog(), launcher, recorder)

			result, err := engine.Run(ctx, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Cycles) != 1 {
				t.Fatalf("expected 1 cycle, got %d", len(result.Cycles))
			}

			cycle := result.Cycles[0]
			if cycle.Decision.Mood != mood.Party {
				t.Errorf("expected mood %s, got %s", mood.Party, cycle.Decision.Mood)
			}
			if cycle.Playlist.ID != "p1" {
				t.Errorf("expected playlist p1, got %s", cycle.Playlist.ID)
			}
			if !cycle.Launched {
				t.Error("expected playlist to be launched")
			}
			if len(launcher.Opened) != 1 || launcher.Opened[0] != "https://open.spotify.com/playlist/p1" {
				t.Errorf("unexpected launched URLs: %v", launcher.Opened)
			}
		})

		t.Run("records the recommendation", func(t *testing.T) {
			recorder := &tu.SpyRecorder{}
			engine := newTestEngine(tu.NewScriptClassifier(happyScript()...), partyCatalog(), &tu.SpyLauncher{}, recorder)

			if _, err := engine.Run(ctx, nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(recorder.Records) != 1 {
				t.Fatalf("expected 1 recorded recommendation, got %d", len(recorder.Records))
			}

			rec := recorder.Records[0]
			if rec.Mood() != "party" || rec.Emotion() != "happy" {
				t.Errorf("unexpected recorded mood/emotion: %s/%s", rec.Mood(), rec.Emotion())
			}
			if rec.PlaylistURL() != "https://open.spotify.com/playlist/p1" {
				t.Errorf("unexpected recorded URL: %s", rec.PlaylistURL())
			}
		})

		t.Run("no face skips the cycle", func(t *testing.T) {
			steps := []tu.ScriptStep{
				tu.StepErr(shared.ErrNoFaceDetected),
				tu.StepErr(shared.ErrNoFaceDetected),
			}
			steps = append(steps, happyScript()...)

			engine := newTestEngine(tu.NewScriptClassifier(steps...), partyCatalog(), &tu.SpyLauncher{}, nil)
			result, err := engine.Run(ctx, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Skipped != 2 {
				t.Errorf("expected 2 skipped cycles, got %d", result.Skipped)
			}
			if len(result.Cycles) != 1 {
				t.Errorf("expected detection to proceed after skips, got %d cycles", len(result.Cycles))
			}
		})

		t.Run("device loss is fatal", func(t *testing.T) {
			steps := []tu.ScriptStep{
				tu.Step(emotion.Happy, 0.9),
				tu.StepErr(shared.ErrDeviceFailed),
			}

			engine := newTestEngine(tu.NewScriptClassifier(steps...), partyCatalog(), &tu.SpyLauncher{}, nil)
			result, err := engine.Run(ctx, nil)
			if !errors.Is(err, shared.ErrDeviceFailed) {
				t.Fatalf("expected ErrDeviceFailed, got %v", err)
			}
			if len(result.Cycles) != 0 {
				t.Errorf("expected no completed cycles, got %d", len(result.Cycles))
			}
		})

		t.Run("sidecar transport failure becomes device loss", func(t *testing.T) {
			// A real HTTP classifier over a dead transport, with no Logger
			// configured so the defaulted logger handles the error path.
			transport := tu.NewMockRoundTripper(nil, errors.New("connection refused"))
			classifier := emotion.NewHTTPClassifier(
				"http://127.0.0.1:5001",
				&http.Client{Transport: transport},
				1,
			)

			engine := NewEngine(Opts{
				Classifier: classifier,
				Stabilizer: mood.NewStabilizer(mood.StabilizerOpts{WindowSize: 5, Threshold: 0.6}),
				Resolver:   resolver.New(partyCatalog(), resolver.Opts{RateLimit: 1000, Sleep: noSleep}),
				Once:       true,
			})

			result, err := engine.Run(ctx, nil)
			if !errors.Is(err, shared.ErrDeviceFailed) {
				t.Fatalf("expected ErrDeviceFailed, got %v", err)
			}
			if len(result.Cycles) != 0 {
				t.Errorf("expected no completed cycles, got %d", len(result.Cycles))
			}
		})

		t.Run("resolution failure reported and loop continues", func(t *testing.T) {
			// First window resolves against an empty catalog (NoMatch), the
			// second against a stocked term list via a different emotion.
			catalog := tu.NewMockCatalog()
			catalog.Playlists["melancholy"] = []services.CatalogPlaylist{{
				ID:         "sad1",
				Name:       "Rainy Day",
				URL:        "https://open.spotify.com/playlist/sad1",
				TrackCount: 40,
				Popularity: 40,
			}}

			steps := happyScript()
			for i := 0; i < 5; i++ {
				steps = append(steps, tu.Step(emotion.Sad, 0.9))
			}

			engine := NewEngine(Opts{
				Classifier: tu.NewScriptClassifier(steps...),
				Stabilizer: mood.NewStabilizer(mood.StabilizerOpts{WindowSize: 5, Threshold: 0.6, Cooldown: time.Nanosecond}),
				Resolver:   resolver.New(catalog, resolver.Opts{MinScore: 0.3, MaxAttempts: 1, RateLimit: 1000, Sleep: noSleep}),
				Launcher:   &tu.SpyLauncher{},
				Logger:     shared.NewLogger(nil),
				Once:       true,
			})

			result, err := engine.Run(ctx, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.ResolveFails != 1 {
				t.Errorf("expected 1 resolve failure, got %d", result.ResolveFails)
			}
			if len(result.Cycles) != 1 || result.Cycles[0].Playlist.ID != "sad1" {
				t.Errorf("expected loop to continue to the sad recommendation, got %+v", result.Cycles)
			}
		})

		t.Run("launch failure is not fatal", func(t *testing.T) {
			launcher := &tu.SpyLauncher{Err: errors.New("no browser")}
			engine := newTestEngine(tu.NewScriptClassifier(happyScript()...), partyCatalog(), launcher, nil)

			result, err := engine.Run(ctx, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Cycles) != 1 {
				t.Fatalf("expected 1 cycle, got %d", len(result.Cycles))
			}
			if result.Cycles[0].Launched {
				t.Error("expected cycle to record the failed launch")
			}
		})

		t.Run("recorder failure is not fatal", func(t *testing.T) {
			recorder := &tu.SpyRecorder{Err: errors.New("disk full")}
			engine := newTestEngine(tu.NewScriptClassifier(happyScript()...), partyCatalog(), &tu.SpyLauncher{}, recorder)

			result, err := engine.Run(ctx, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Cycles) != 1 {
				t.Errorf("expected recommendation despite recorder failure, got %d cycles", len(result.Cycles))
			}
		})

		t.Run("cancellation ends the session cleanly", func(t *testing.T) {
			cancelCtx, cancel := context.WithCancel(ctx)
			cancel()

			engine := newTestEngine(tu.NewScriptClassifier(happyScript()...), partyCatalog(), &tu.SpyLauncher{}, nil)
			result, err := engine.Run(cancelCtx, nil)
			if err != nil {
				t.Fatalf("expected clean shutdown, got %v", err)
			}
			if len(result.Cycles) != 0 {
				t.Errorf("expected no cycles after cancellation, got %d", len(result.Cycles))
			}
		})

		t.Run("progress updates flow through the channel", func(t *testing.T) {
			engine := newTestEngine(tu.NewScriptClassifier(happyScript()...), partyCatalog(), &tu.SpyLauncher{}, nil)

			progress := make(chan ProgressUpdate, 50)
			if _, err := engine.Run(ctx, progress); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			close(progress)

			var phases []Phase
			for update := range progress {
				phases = append(phases, update.Phase)
			}

			if len(phases) == 0 {
				t.Fatal("expected progress updates")
			}
			if phases[len(phases)-1] != PhaseRecommended {
				t.Errorf("expected final phase %s, got %s", PhaseRecommended, phases[len(phases)-1])
			}

			observed := 0
			for _, p := range phases {
				if p == PhaseObserving {
					observed++
				}
			}
			if observed != 5 {
				t.Errorf("expected 5 observation updates, got %d", observed)
			}
		})

		t.Run("full channel never blocks the loop", func(t *testing.T) {
			engine := newTestEngine(tu.NewScriptClassifier(happyScript()...), partyCatalog(), &tu.SpyLauncher{}, nil)

			// Unbuffered channel with no reader: every send must fall
			// through to the default case.
			progress := make(chan ProgressUpdate)

			done := make(chan struct{})
			go func() {
				defer close(done)
				engine.Run(ctx, progress)
			}()

			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("engine blocked on progress channel")
			}
		})
	})
}
