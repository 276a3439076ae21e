package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodify/internal/emotion"
	"github.com/desertthunder/moodify/internal/mood"
	"github.com/desertthunder/moodify/internal/recommend"
	"github.com/desertthunder/moodify/internal/repositories"
	"github.com/desertthunder/moodify/internal/resolver"
	"github.com/desertthunder/moodify/internal/services"
	"github.com/desertthunder/moodify/internal/shared"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    services.OAuthService
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    services.OAuthService
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger, e.g. to redirect output to a file
// while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// requireSpotify authenticates the configured Spotify service from saved
// tokens, registering a refresh callback that persists rotated tokens.
func (r *Runner) requireSpotify() error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify credentials not configured, run 'moodify setup' first", shared.ErrMissingCredentials)
	}

	token := r.config.Credentials.Spotify.Token()
	if token == nil {
		return fmt.Errorf("%w: no saved tokens, run 'moodify auth' first", shared.ErrNotAuthenticated)
	}

	r.spotify.SetTokenRefreshCallback(r.persistToken)
	r.spotify.SetMarket(r.config.Resolver.Market)

	return r.spotify.OAuthenticate(context.Background(), token)
}

// persistToken writes a refreshed OAuth token back to the config file.
func (r *Runner) persistToken(token *oauth2.Token) {
	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		r.logger.Warnf("refreshed token invalid: %v", err)
		return
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		r.logger.Warnf("failed to persist refreshed token: %v", err)
	}
}

// buildClassifier constructs the emotion source named by the detector config.
func (r *Runner) buildClassifier() emotion.Classifier {
	detector := r.config.Detector
	if detector.Source == "" || detector.Source == "demo" {
		r.logger.Info("using demo emotion classifier", "period", detector.DemoPeriod())
		return emotion.NewDemoClassifier(detector.DemoPeriod(), detector.PollInterval(), detector.DemoConfidence)
	}

	r.logger.Info("using HTTP emotion classifier", "url", detector.Source)
	return emotion.NewHTTPClassifier(detector.Source, nil, 0)
}

// buildStabilizer constructs the mood stabilizer from config.
func (r *Runner) buildStabilizer() *mood.Stabilizer {
	cfg := r.config.Stabilizer
	return mood.NewStabilizer(mood.StabilizerOpts{
		WindowSize: cfg.WindowSize,
		Threshold:  cfg.Threshold,
		Cooldown:   cfg.Cooldown(),
		Logger:     r.logger,
	})
}

// buildResolver constructs the playlist resolver over the Spotify catalog.
func (r *Runner) buildResolver() *resolver.Resolver {
	cfg := r.config.Resolver
	return resolver.New(r.spotify, resolver.Opts{
		PageSize:    cfg.PageSize,
		MaxAttempts: cfg.MaxAttempts,
		BackoffBase: cfg.BackoffBase(),
		Timeout:     cfg.Timeout(),
		RateLimit:   cfg.RateLimit,
		MinScore:    cfg.MinScore,
		MinTracks:   cfg.MinTracks,
		Logger:      r.logger,
	})
}

// openRepository opens the recommendation history store, running migrations
// on first use. Returns nil when the database cannot be opened; history is
// optional for the detection loop.
func (r *Runner) openRepository() (*repositories.RecommendationRepository, *sql.DB) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		r.logger.Warnf("history disabled, cannot open database: %v", err)
		return nil, nil
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		r.logger.Warnf("history disabled, migrations failed: %v", err)
		db.Close()
		return nil, nil
	}

	return repositories.NewRecommendationRepository(db), db
}

// buildEngine assembles the recommendation engine from config.
func (r *Runner) buildEngine(recorder recommend.Recorder, launcher recommend.Launcher, once bool) *recommend.Engine {
	return recommend.NewEngine(recommend.Opts{
		Classifier: r.buildClassifier(),
		Stabilizer: r.buildStabilizer(),
		Resolver:   r.buildResolver(),
		Launcher:   launcher,
		Recorder:   recorder,
		Logger:     r.logger,
		Once:       once,
		PollDelay:  r.config.Detector.PollInterval(),
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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
