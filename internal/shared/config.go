package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Detector    DetectorConfig    `toml:"detector"`
	Stabilizer  StabilizerConfig  `toml:"stabilizer"`
	Resolver    ResolverConfig    `toml:"resolver"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and persisted OAuth tokens.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token,omitempty"`
	RefreshToken string `toml:"refresh_token,omitempty"`
	TokenExpiry  string `toml:"token_expiry,omitempty"`
}

// Map converts the Spotify credentials to the map form consumed by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
		"access_token":  s.AccessToken,
		"refresh_token": s.RefreshToken,
	}
}

// Update stores the fields of an [oauth2.Token] for persistence.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidCredentials)
	}

	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		s.TokenExpiry = token.Expiry.Format(time.RFC3339)
	}
	return nil
}

// Token reconstructs an [oauth2.Token] from the persisted fields.
// Returns nil when no access token has been saved.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" {
		return nil
	}

	token := &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
	if s.TokenExpiry != "" {
		if expiry, err := time.Parse(time.RFC3339, s.TokenExpiry); err == nil {
			token.Expiry = expiry
		}
	}
	return token
}

// DetectorConfig contains emotion classifier settings.
type DetectorConfig struct {
	Source         string  `toml:"source"`           // "demo" or the base URL of a classifier sidecar
	PollIntervalMS int     `toml:"poll_interval_ms"` // Delay between classification attempts
	DemoPeriodSec  int     `toml:"demo_period_sec"`  // Seconds each demo emotion persists
	DemoConfidence float64 `toml:"demo_confidence"`  // Confidence reported by the demo classifier
}

// PollInterval returns the delay between classification attempts.
func (d DetectorConfig) PollInterval() time.Duration {
	if d.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(d.PollIntervalMS) * time.Millisecond
}

// DemoPeriod returns how long the demo classifier holds each emotion.
func (d DetectorConfig) DemoPeriod() time.Duration {
	if d.DemoPeriodSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(d.DemoPeriodSec) * time.Second
}

// StabilizerConfig contains mood stabilizer tuning parameters.
type StabilizerConfig struct {
	WindowSize  int     `toml:"window_size"`  // Observations required before a decision (W)
	Threshold   float64 `toml:"threshold"`    // Minimum confidence share for the winning label (T)
	CooldownSec float64 `toml:"cooldown_sec"` // Minimum seconds between emissions
}

// Cooldown returns the minimum interval between mood emissions.
func (s StabilizerConfig) Cooldown() time.Duration {
	return time.Duration(s.CooldownSec * float64(time.Second))
}

// ResolverConfig contains playlist resolver tuning parameters.
type ResolverConfig struct {
	PageSize       int     `toml:"page_size"`       // Results requested per search term
	MaxAttempts    int     `toml:"max_attempts"`    // Attempts per term including the first
	BackoffBaseMS  int     `toml:"backoff_base_ms"` // Base delay for exponential backoff
	TimeoutSec     float64 `toml:"timeout_sec"`     // Per-attempt request timeout
	RateLimit      float64 `toml:"rate_limit"`      // Catalog requests per second
	MinScore       float64 `toml:"min_score"`       // Acceptance threshold for a match
	MinTracks      int     `toml:"min_tracks"`      // Playlists with fewer tracks are skipped
	Market         string  `toml:"market"`          // Spotify market code for searches
}

// BackoffBase returns the base delay for exponential backoff between retries.
func (r ResolverConfig) BackoffBase() time.Duration {
	if r.BackoffBaseMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(r.BackoffBaseMS) * time.Millisecond
}

// Timeout returns the per-attempt request timeout.
func (r ResolverConfig) Timeout() time.Duration {
	if r.TimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(r.TimeoutSec * float64(time.Second))
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// SaveConfig writes the configuration back to the specified path as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
