// Package resolver turns an ordered list of mood search terms into a single
// selected playlist, tolerating a flaky and rate-limited catalog service.
//
// Transient failures (network errors, 5xx, rate limits) are retried with
// exponential backoff; auth and malformed-request failures propagate
// immediately. Selection is deterministic given identical catalog responses.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodify/internal/mood"
	"github.com/desertthunder/moodify/internal/services"
	"github.com/desertthunder/moodify/internal/shared"
	"golang.org/x/time/rate"
)

// Resolver defaults; all of them are overridable via [Opts].
const (
	DefaultPageSize    = 10
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 500 * time.Millisecond
	DefaultTimeout     = 5 * time.Second
	DefaultRateLimit   = 5.0
	DefaultMinScore    = 0.3

	// specificityDecay is how much each precedence step discounts a term's
	// weight: the first term weighs 1.0, the second 0.85, and so on.
	specificityDecay = 0.15
)

// Playlist is the externally visible result of the pipeline: the single
// selected playlist for a mood decision. URL is never empty.
type Playlist struct {
	ID         string
	Name       string
	Owner      string
	URL        string
	TrackCount int
	Popularity int
	MatchScore float64
	Term       string // Search term that produced this match
}

// Opts contains tuning parameters for a [Resolver].
// Zero values fall back to the documented defaults (except MinTracks).
type Opts struct {
	PageSize    int
	MaxAttempts int
	BackoffBase time.Duration
	Timeout     time.Duration
	RateLimit   float64       // Catalog requests per second
	MinScore    float64       // Acceptance threshold: stop searching once met
	MinTracks   int           // Skip playlists with fewer tracks
	Logger      *log.Logger
	Sleep       func(context.Context, time.Duration) error // Override for tests
}

// Resolver selects one playlist from a catalog for a mood query.
type Resolver struct {
	catalog services.Catalog
	limiter *rate.Limiter
	opts    Opts
}

// New creates a Resolver backed by the given catalog.
func New(catalog services.Catalog, opts Opts) *Resolver {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = DefaultBackoffBase
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultMinScore
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}

	return &Resolver{
		catalog: catalog,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		opts:    opts,
	}
}

// Resolve iterates the query's terms in precedence order, searching the
// catalog for each, and returns the best-scoring playlist.
//
// The search stops at the first term producing a candidate at or above the
// acceptance threshold. If every term is exhausted, the best candidate seen
// is returned; with no candidates at all the result is [shared.ErrNoMatch],
// or [shared.ErrServiceUnavailable] when every search attempt failed.
func (r *Resolver) Resolve(ctx context.Context, query mood.Query) (*Playlist, error) {
	if len(query.Terms) == 0 {
		return nil, fmt.Errorf("%w: query has no search terms", shared.ErrInvalidArgument)
	}

	var best *Playlist
	seen := make(map[string]bool)
	succeeded := 0
	var lastErr error

	for i, term := range query.Terms {
		results, err := r.searchWithRetry(ctx, term)
		if err != nil {
			if isTerminal(err) || ctx.Err() != nil {
				return nil, err
			}
			r.logf("search for %q failed after retries: %v", term, err)
			lastErr = err
			continue
		}
		succeeded++

		weight := termWeight(i)
		for _, cp := range results {
			if cp.URL == "" || seen[cp.URL] || cp.TrackCount < r.opts.MinTracks {
				continue
			}
			seen[cp.URL] = true

			candidate := &Playlist{
				ID:         cp.ID,
				Name:       cp.Name,
				Owner:      cp.Owner,
				URL:        cp.URL,
				TrackCount: cp.TrackCount,
				Popularity: cp.Popularity,
				MatchScore: float64(cp.Popularity) / 100 * weight,
				Term:       term,
			}

			if best == nil || better(candidate, best) {
				best = candidate
			}
		}

		if best != nil && best.MatchScore >= r.opts.MinScore {
			return best, nil
		}
	}

	if best != nil {
		return best, nil
	}

	if succeeded == 0 {
		return nil, fmt.Errorf("%w: every search attempt failed: %v", shared.ErrServiceUnavailable, lastErr)
	}
	return nil, fmt.Errorf("%w: no playlists for terms %v", shared.ErrNoMatch, query.Terms)
}

// searchWithRetry issues one catalog search with rate limiting, a per-attempt
// timeout, and exponential backoff on retryable failures.
func (r *Resolver) searchWithRetry(ctx context.Context, term string) ([]services.CatalogPlaylist, error) {
	var lastErr error

	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
		results, err := r.catalog.SearchPlaylists(attemptCtx, term, r.opts.PageSize)
		cancel()

		if err == nil {
			return results, nil
		}
		if isTerminal(err) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err

		if attempt == r.opts.MaxAttempts {
			break
		}

		delay := r.opts.BackoffBase << (attempt - 1)
		var rle *services.RateLimitError
		if errors.As(err, &rle) && rle.RetryAfter > delay {
			delay = rle.RetryAfter
		}

		r.logf("attempt %d/%d for %q failed (%v), retrying in %s", attempt, r.opts.MaxAttempts, term, err, delay)
		if err := r.opts.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// isTerminal reports whether a catalog failure must not be retried.
func isTerminal(err error) bool {
	return errors.Is(err, shared.ErrAuthFailed) || errors.Is(err, services.ErrMalformed)
}

// termWeight discounts less-specific terms: earlier terms in the ordered
// list weigh more.
func termWeight(index int) float64 {
	weight := 1.0 - specificityDecay*float64(index)
	if weight < 0.1 {
		return 0.1
	}
	return weight
}

// better reports whether candidate a outranks b: higher score, then higher
// popularity, then first-seen order (b wins ties).
func better(a, b *Playlist) bool {
	if a.MatchScore != b.MatchScore {
		return a.MatchScore > b.MatchScore
	}
	return a.Popularity > b.Popularity
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Resolver) logf(format string, args ...any) {
	if r.opts.Logger != nil {
		r.opts.Logger.Warnf(format, args...)
	}
}
