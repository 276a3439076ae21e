// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/moodify/internal/emotion"
	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/services"
	"github.com/desertthunder/moodify/internal/shared"
	"golang.org/x/oauth2"
)

// MockCatalog is a test double for [services.Catalog] with canned responses
// keyed by search term. Terms without an entry return an empty result.
type MockCatalog struct {
	Playlists map[string][]services.CatalogPlaylist
	Errors    map[string]error
	Calls     []string // Terms searched, in order
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		Playlists: map[string][]services.CatalogPlaylist{},
		Errors:    map[string]error{},
	}
}

func (m *MockCatalog) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *MockCatalog) SearchPlaylists(ctx context.Context, term string, limit int) ([]services.CatalogPlaylist, error) {
	m.Calls = append(m.Calls, term)
	if err := m.Errors[term]; err != nil {
		return nil, err
	}
	return m.Playlists[term], nil
}

func (m *MockCatalog) Name() string { return "mock" }

// MockOAuthService extends [MockCatalog] to satisfy [services.OAuthService].
type MockOAuthService struct {
	MockCatalog
	AuthURL        string
	OAuthErr       error
	Token          *oauth2.Token // last token passed to OAuthenticate
	Market         string
	RefreshFn      func(*oauth2.Token)
	OAuthenticated bool
}

func (m *MockOAuthService) GetAuthURL(state string) string {
	return m.AuthURL + "?state=" + state
}

func (m *MockOAuthService) GetOAuthConfig() *oauth2.Config {
	return &oauth2.Config{ClientID: "mock", RedirectURL: "http://127.0.0.1:8080/callback"}
}

func (m *MockOAuthService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if m.OAuthErr != nil {
		return m.OAuthErr
	}
	m.Token = token
	m.OAuthenticated = true
	return nil
}

func (m *MockOAuthService) SetMarket(market string) { m.Market = market }

func (m *MockOAuthService) SetTokenRefreshCallback(fn func(*oauth2.Token)) { m.RefreshFn = fn }

// ScriptClassifier is a test double for [emotion.Classifier] that replays a
// fixed sequence of outcomes. Each step is either a signal or an error.
// After the script runs out it reports device loss so engine loops terminate.
type ScriptClassifier struct {
	Steps []ScriptStep
	pos   int
}

// ScriptStep is one scripted classifier outcome.
type ScriptStep struct {
	Signal emotion.Signal
	Err    error
}

func NewScriptClassifier(steps ...ScriptStep) *ScriptClassifier {
	return &ScriptClassifier{Steps: steps}
}

// Step wraps a signal as a successful script entry.
func Step(label emotion.Label, confidence float64) ScriptStep {
	return ScriptStep{Signal: emotion.NewSignal(label, confidence)}
}

// StepErr wraps an error as a script entry.
func StepErr(err error) ScriptStep {
	return ScriptStep{Err: err}
}

func (s *ScriptClassifier) Classify(ctx context.Context) (emotion.Signal, error) {
	if err := ctx.Err(); err != nil {
		return emotion.Signal{}, err
	}
	if s.pos >= len(s.Steps) {
		return emotion.Signal{}, fmt.Errorf("%w: script exhausted", shared.ErrDeviceFailed)
	}
	step := s.Steps[s.pos]
	s.pos++
	if step.Err != nil {
		return emotion.Signal{}, step.Err
	}
	return step.Signal, nil
}

func (s *ScriptClassifier) Name() string { return "script" }

// SpyLauncher records URLs it was asked to open and optionally fails.
type SpyLauncher struct {
	Opened []string
	Err    error
}

func (s *SpyLauncher) Open(url string) error {
	if s.Err != nil {
		return s.Err
	}
	s.Opened = append(s.Opened, url)
	return nil
}

// SpyRecorder captures recommendations passed to Create.
type SpyRecorder struct {
	Records []*models.Recommendation
	Err     error
}

func (s *SpyRecorder) Create(rec *models.Recommendation) error {
	if s.Err != nil {
		return s.Err
	}
	s.Records = append(s.Records, rec)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
