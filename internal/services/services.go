// package services defines interface Catalog for streaming-music catalog providers
package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Catalog defines the capability interface for a streaming-music catalog that
// can be searched for playlists. Implementations are substituted with
// deterministic test doubles in unit tests.
type Catalog interface {
	// Authenticate performs OAuth or token authentication with the catalog.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// SearchPlaylists searches the catalog for playlists matching term,
	// returning at most limit results. Failures are classified into the
	// package error taxonomy so callers can decide what is retryable.
	SearchPlaylists(ctx context.Context, term string, limit int) ([]CatalogPlaylist, error)

	// Name returns the name of the catalog provider (e.g. "Spotify")
	Name() string
}

// OAuthService extends [Catalog] for providers authenticated via a
// server-side OAuth2 authorization-code flow.
type OAuthService interface {
	Catalog
	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
	SetMarket(market string)
	SetTokenRefreshCallback(fn func(*oauth2.Token))
}

// CatalogPlaylist represents a playlist returned by a catalog search.
type CatalogPlaylist struct {
	ID          string
	Name        string
	Description string
	Owner       string
	URL         string
	TrackCount  int
	Popularity  int // 0-100 popularity signal, provider-specific
}

// Catalog failure taxonomy. Auth and malformed-request failures are terminal;
// transient and rate-limit failures are retryable.
var (
	ErrTransient   = fmt.Errorf("transient catalog failure")
	ErrRateLimited = fmt.Errorf("catalog rate limited")
	ErrMalformed   = fmt.Errorf("malformed catalog request")
)

// RateLimitError is a rate-limit failure carrying the provider's
// Retry-After hint. Unwraps to [ErrRateLimited].
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("catalog rate limited, retry after %s", e.RetryAfter)
	}
	return "catalog rate limited"
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
