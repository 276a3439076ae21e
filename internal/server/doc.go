// Package server provides the loopback HTTP infrastructure for the Spotify
// authorization flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. The [BasicRouter] implementation uses
// [http.ServeMux] with method-qualified patterns.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback.
// It validates the state parameter (CSRF protection), exchanges the
// authorization code for tokens, and sends the result through a channel.
// Only one callback is processed, to prevent replay.
//
// # Usage
//
// When the user runs `moodify auth`, a [CallbackServer] starts on the
// loopback host named by the configured redirect URI, the authorization URL
// opens in the browser, and the server shuts down after receiving the token.
package server
