// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/moodify/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in search results).
type SpotifySimplePlaylist struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Owner        Owner               `json:"owner"`
	Public       bool                `json:"public"`
	Tracks       simplePlaylistTrack `json:"tracks"`
	Images       []SpotifyImage      `json:"images"`
	ExternalURLs externalURLs        `json:"external_urls"`
	URI          string              `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []SpotifySimplePlaylist `json:"items"`
	Total    int                     `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
}

// spotifySearchResponse wraps the playlist page in a search response.
type spotifySearchResponse struct {
	Playlists SpotifyPaginatedPlaylists `json:"playlists"`
}

// SpotifyService implements the Catalog interface for the Spotify Web API.
// Uses [oauth2] for authentication with automatic token refresh.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	httpClient     *http.Client
	credentials    map[string]string
	market         string
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-read-collaborative",
			"user-library-read",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		credentials: credentials,
		market:      "US",
	}, nil
}

// SetMarket overrides the market code sent with search requests.
func (s *SpotifyService) SetMarket(market string) {
	if market != "" {
		s.market = market
	}
}

// SetTokenRefreshCallback registers a function invoked whenever the OAuth2
// transport produces a new token, so callers can persist refreshed tokens.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// Authenticate performs OAuth2 authentication with Spotify.
// Expects an "access_token" (with optional "refresh_token") or an "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		}
		s.installClient(ctx)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.token = token
		s.installClient(ctx)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// installClient builds an oauth2 HTTP client whose token source reports
// refreshes through the registered callback.
func (s *SpotifyService) installClient(ctx context.Context) {
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, s.token),
		callback: s.onTokenRefresh,
	}
	s.httpClient = oauth2.NewClient(ctx, source)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the underlying OAuth2 config for callback handling.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// OAuthenticate installs an already-obtained token, e.g. from the
// authorization code flow or a saved config.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidCredentials)
	}
	s.token = token
	s.installClient(ctx)
	return nil
}

// doRequest performs an authenticated HTTP request to the Spotify API and
// classifies failures into the package error taxonomy.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, result interface{}) error {
	if s.token == nil {
		return shared.ErrNotAuthenticated
	}

	apiURL := spotifyBaseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// classifyStatus maps an HTTP response status to the catalog error taxonomy.
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: spotify returned status %d", shared.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: spotify returned status %d", ErrTransient, resp.StatusCode)
	default:
		return fmt.Errorf("%w: spotify returned status %d", ErrMalformed, resp.StatusCode)
	}
}

// parseRetryAfter parses a Retry-After header value in seconds.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "GET", "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchPlaylists searches Spotify for playlists matching term.
//
// Results missing an ID or external URL are dropped; the Spotify search API
// intermittently returns null or partial playlist entries.
func (s *SpotifyService) SearchPlaylists(ctx context.Context, term string, limit int) ([]CatalogPlaylist, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("q", term)
	params.Set("type", "playlist")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("market", s.market)
	endpoint := "/search?" + params.Encode()

	var response spotifySearchResponse
	if err := s.doRequest(ctx, "GET", endpoint, &response); err != nil {
		return nil, err
	}

	playlists := make([]CatalogPlaylist, 0, len(response.Playlists.Items))
	for _, sp := range response.Playlists.Items {
		if sp.ID == "" || sp.ExternalURLs.Spotify == "" {
			continue
		}

		owner := sp.Owner.DisplayName
		if owner == "" {
			owner = sp.Owner.ID
		}

		playlists = append(playlists, CatalogPlaylist{
			ID:          sp.ID,
			Name:        sp.Name,
			Description: sp.Description,
			Owner:       owner,
			URL:         sp.ExternalURLs.Spotify,
			TrackCount:  sp.Tracks.Total,
			Popularity:  playlistPopularity(sp),
		})
	}

	return playlists, nil
}

// playlistPopularity derives a 0-100 popularity signal for a search result.
// Spotify search entries carry no direct popularity field, so track count
// serves as the proxy.
func playlistPopularity(sp SpotifySimplePlaylist) int {
	if sp.Tracks.Total > 100 {
		return 100
	}
	return sp.Tracks.Total
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and invokes a callback
// whenever the underlying source produces a different token.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	last     *oauth2.Token
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	if r.callback != nil && (r.last == nil || r.last.AccessToken != token.AccessToken) {
		func() {
			defer func() { _ = recover() }()
			r.callback(token)
		}()
	}
	r.last = token

	return token, nil
}
