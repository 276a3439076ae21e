package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/moodify/internal/mood"
	"github.com/desertthunder/moodify/internal/services"
	"github.com/desertthunder/moodify/internal/shared"
	tu "github.com/desertthunder/moodify/internal/testing"
)

// noSleep replaces real backoff sleeps in tests.
func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newTestResolver(catalog services.Catalog, opts Opts) *Resolver {
	if opts.Sleep == nil {
		opts.Sleep = noSleep
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = 1000
	}
	return New(catalog, opts)
}

func playlist(id string, popularity, tracks int) services.CatalogPlaylist {
	return services.CatalogPlaylist{
		ID:         id,
		Name:       "Playlist " + id,
		Owner:      "owner",
		URL:        "https://open.spotify.com/playlist/" + id,
		TrackCount: tracks,
		Popularity: popularity,
	}
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("Resolve", func(t *testing.T) {
		t.Run("empty terms is invalid", func(t *testing.T) {
			r := newTestResolver(tu.NewMockCatalog(), Opts{})

			_, err := r.Resolve(ctx, mood.Query{Mood: mood.Party})
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("accepts first term meeting the threshold", func(t *testing.T) {
			catalog := tu.NewMockCatalog()
			catalog.Playlists["party"] = []services.CatalogPlaylist{playlist("p1", 80, 40)}
			catalog.Playlists["upbeat"] = []services.CatalogPlaylist{playlist("p2", 100, 60)}

			r := newTestResolver(catalog, Opts{MinScore: 0.3})
			got, err := r.Resolve(ctx, mood.Query{Mood: mood.Party, Terms: []string{"party", "upbeat", "dance"}})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != "p1" {
				t.Errorf("expected p1, got %s", got.ID)
			}
			if len(catalog.Calls) != 1 {
				t.Errorf("expected search to stop after first term, searched %v", catalog.Calls)
			}
			if got.Term != "party" {
				t.Errorf("expected matching term recorded, got %q", got.Term)
			}
		})

		t.Run("earlier term wins despite higher popularity later", func(t *testing.T) {
			catalog := tu.NewMockCatalog()
			catalog.Playlists["upbeat"] = []services.CatalogPlaylist{playlist("p1", 50, 40)}
			catalog.Playlists["dance"] = []services.CatalogPlaylist{playlist("p2", 90, 60)}

			r := newTestResolver(catalog, Opts{MinScore: 0.3})
			got, err := r.Resolve(ctx, mood.Query{Mood: mood.Party, Terms: []string{"party", "upbeat", "dance"}})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			// p1 scores 0.5 * 0.85 = 0.425, over the threshold before
			// "dance" is ever searched.
			if got.ID != "p1" {
				t.Errorf("expected p1, got %s", got.ID)
			}
			if len(catalog.Calls) != 2 {
				t.Errorf("expected 2 searches, got %v", catalog.Calls)
			}
		})

		t.Run("falls back to best candidate below threshold", func(t *testing.T) {
			catalog := tu.NewMockCatalog()
			catalog.Playlists["party"] = []services.CatalogPlaylist{playlist("p1", 10, 40)}
			catalog.Playlists["upbeat"] = []services.CatalogPlaylist{playlist("p2", 20, 40)}
			catalog.Playlists["dance"] = []services.CatalogPlaylist{playlist("p3", 15, 40)}

			r := newTestResolver(catalog, Opts{MinScore: 0.9})
			got, err := r.Resolve(ctx, mood.Query{Mood: mood.Party, Terms: []string{"party", "upbeat", "dance"}})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			// All below threshold: p2 has the best score (0.2*0.85 = 0.17).
			if got.ID != "p2" {
				t.Errorf("expected p2, got %s", got.ID)
			}
			if len(catalog.Calls) != 3 {
				t.Errorf("expected every term searched, got %v", catalog.Calls)
			}
		})

		t.Run("deterministic for identical inputs", func(t *testing.T) {
			catalog := tu.NewMockCatalog()
			catalog.Playlists["party"] = []services.CatalogPlaylist{
				playlist("p1", 42, 40),
				playlist("p2", 42, 40),
			}

			r := newTestResolver(catalog, Opts{MinScore: 0.9})
			first, err := r.Resolve(ctx, mood.Query{Mood: mood.Party, Terms: []string{"party"}})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			for i := 0; i < 5; i++ {
				got, err := r.Resolve(ctx, mood.Query{Mood: mood.Party, Terms: []string{"party"}})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.ID != first.ID {
					t.Fatalf("resolution not deterministic: %s then %s", first.ID, got.ID)
				}
			}
			// Equal score and popularity: first-seen order wins.
			if first.ID != "p1" {
				t.Errorf("expected first-seen p1 on a tie, got %s", first.ID)
			}
		})

		t.Run("skips playlists under the track minimum", func(t *testing.T) {
			catalog := tu.NewMockCatalog()
			catalog.Playlists["party"] = []services.CatalogPlaylist{
				playlist("small", 100, 3),
				playlist("big", 40, 30),
			}

			r := newTestResolver(catalog, Opts{MinScore: 0.3, MinTracks: 10})
			got, err := r.Resolve(ctx, mood.Query{Mood: mood.Party, Terms: []string{"party"}})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != "big" {
				t.Errorf("expected big, got %s", got.ID)
			}
		})

		t.Run("all terms empty is NoMatch", func(t *testing.T) {
			catalog := tu.NewMockCatalog()

			r := newTestResolver(catalog, Opts{})
			_, err := r.Resolve(ctx, mood.Query{Mood: mood.Party, Terms: []string{"party", "upbeat"}})
			if !errors.Is(err, shared.ErrNoMatch) {
				t.Errorf("expected ErrNoMatch, got %v", err)
			}
		})

		t.Run("every search failing is ServiceUnavailable", func(t *testing.T) {
			catalog := tu.NewMockCatalog()
			catalog.Errors["party"] = services.ErrTransient
			catalog.Errors["upbeat"] = services.ErrTransient

			r := newTestResolver(catalog, Opts{MaxAttempts: 1})
			_, err := r.Resolve(ctx, mood.Query{Mood: mood.Party, Terms: []string{"party", "upbeat"}})
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})

		t.Run("partial failure with results is not ServiceUnavailable", func(t *testing.T) {
			catalog := tu.NewMockCatalog()
			catalog.Errors["party"] = services.ErrTransient
			catalog.Playlists["upbeat"] = []services.CatalogPlaylist{playlist("p1", 90, 40)}

			r := newTestResolver(catalog, Opts{MaxAttempts: 1, MinScore: 0.3})
			got, err := r.Resolve(ctx, mood.Query{Mood: mood.Party, Terms: []string{"party", "upbeat"}})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != "p1" {
				t.Errorf("expected p1, got %s", got.ID)
			}
		})

		t.Run("auth failure aborts immediately", func(t *testing.T) {
			catalog := tu.NewMockCatalog()
			catalog.Errors["party"] = fmt.Errorf("%w: 401", shared.ErrAuthFailed)
			catalog.Playlists["upbeat"] = []services.CatalogPlaylist{playlist("p1", 90, 40)}

			r := newTestResolver(catalog, Opts{})
			_, err := r.Resolve(ctx, mood.Query{Mood: mood.Party, Terms: []string{"party", "upbeat"}})
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Fatalf("expected ErrAuthFailed, got %v", err)
			}
			if len(catalog.Calls) != 1 {
				t.Errorf("auth failure should not continue to later terms, searched %v", catalog.Calls)
			}
		})
	})

	t.Run("searchWithRetry", func(t *testing.T) {
		t.Run("retries transient failures up to the limit", func(t *testing.T) {
			catalog := tu.NewMockCatalog()
			catalog.Errors["party"] = services.ErrTransient

			r := newTestResolver(catalog, Opts{MaxAttempts: 3})
			_, err := r.Resolve(ctx, mood.Query{Mood: mood.Party, Terms: []string{"party"}})
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
			if len(catalog.Calls) != 3 {
				t.Errorf("expected 3 attempts, got %d", len(catalog.Calls))
			}
		})

		t.Run("does not retry malformed requests", func(t *testing.T) {
			catalog := tu.NewMockCatalog()
			catalog.Errors["party"] = services.ErrMalformed

			r := newTestResolver(catalog, Opts{MaxAttempts: 3})
			_, err := r.Resolve(ctx, mood.Query{Mood: mood.Party, Terms: []string{"party"}})
			if !errors.Is(err, services.ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
			if len(catalog.Calls) != 1 {
				t.Errorf("expected exactly 1 attempt, got %d", len(catalog.Calls))
			}
		})

		t.Run("honors Retry-After over computed backoff", func(t *testing.T) {
			catalog := tu.NewMockCatalog()
			catalog.Errors["party"] = &services.RateLimitError{RetryAfter: 7 * time.Second}

			var delays []time.Duration
			r := New(catalog, Opts{
				MaxAttempts: 2,
				BackoffBase: 500 * time.Millisecond,
				RateLimit:   1000,
				Sleep: func(ctx context.Context, d time.Duration) error {
					delays = append(delays, d)
					return nil
				},
			})

			_, err := r.Resolve(ctx, mood.Query{Mood: mood.Party, Terms: []string{"party"}})
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
			if len(delays) != 1 {
				t.Fatalf("expected 1 backoff sleep, got %d", len(delays))
			}
			if delays[0] != 7*time.Second {
				t.Errorf("expected Retry-After delay of 7s, got %s", delays[0])
			}
		})

		t.Run("backoff doubles between attempts", func(t *testing.T) {
			catalog := tu.NewMockCatalog()
			catalog.Errors["party"] = services.ErrTransient

			var delays []time.Duration
			r := New(catalog, Opts{
				MaxAttempts: 3,
				BackoffBase: 500 * time.Millisecond,
				RateLimit:   1000,
				Sleep: func(ctx context.Context, d time.Duration) error {
					delays = append(delays, d)
					return nil
				},
			})

			r.Resolve(ctx, mood.Query{Mood: mood.Party, Terms: []string{"party"}})
			want := []time.Duration{500 * time.Millisecond, time.Second}
			if len(delays) != len(want) {
				t.Fatalf("expected %d sleeps, got %d", len(want), len(delays))
			}
			for i, d := range want {
				if delays[i] != d {
					t.Errorf("sleep %d = %s, want %s", i, delays[i], d)
				}
			}
		})

		t.Run("cancellation stops the search", func(t *testing.T) {
			catalog := tu.NewMockCatalog()
			catalog.Errors["party"] = services.ErrTransient

			cancelCtx, cancel := context.WithCancel(ctx)
			cancel()

			r := newTestResolver(catalog, Opts{MaxAttempts: 3})
			_, err := r.Resolve(cancelCtx, mood.Query{Mood: mood.Party, Terms: []string{"party"}})
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		})
	})

	t.Run("termWeight", func(t *testing.T) {
		cases := []struct {
			index int
			want  float64
		}{
			{0, 1.0},
			{1, 0.85},
			{2, 0.7},
			{10, 0.1},
		}
		for _, tc := range cases {
			got := termWeight(tc.index)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("termWeight(%d) = %f, want %f", tc.index, got, tc.want)
			}
		}
	})
}
