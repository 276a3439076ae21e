package repositories

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/shared"
)

// testDB opens an in-memory sqlite database with migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func testRecommendation(moodName string) *models.Recommendation {
	return models.NewRecommendation(
		0,
		moodName,
		"happy",
		"party",
		"pl1",
		"Party Hits",
		"https://open.spotify.com/playlist/pl1",
		55,
		0.47,
	)
}

func TestRecommendationRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("assigns an ID and persists", func(t *testing.T) {
			repo := NewRecommendationRepository(testDB(t))

			rec := testRecommendation("party")
			if err := repo.Create(rec); err != nil {
				t.Fatalf("failed to create recommendation: %v", err)
			}
			if rec.ID() == "" {
				t.Error("expected generated ID")
			}

			got, err := repo.Get(rec.ID())
			if err != nil {
				t.Fatalf("failed to get recommendation: %v", err)
			}
			if got.Mood() != "party" || got.Emotion() != "happy" {
				t.Errorf("unexpected mood/emotion: %s/%s", got.Mood(), got.Emotion())
			}
			if got.PlaylistName() != "Party Hits" {
				t.Errorf("unexpected playlist name: %s", got.PlaylistName())
			}
			if got.MatchScore() != 0.47 {
				t.Errorf("unexpected match score: %f", got.MatchScore())
			}
		})

		t.Run("rejects invalid recommendations", func(t *testing.T) {
			repo := NewRecommendationRepository(testDB(t))

			rec := models.NewRecommendation(0, "", "", "", "", "", "", 0, 0)
			if err := repo.Create(rec); err == nil {
				t.Error("expected validation error for empty recommendation")
			}
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Run("returns newest first with limit", func(t *testing.T) {
			repo := NewRecommendationRepository(testDB(t))

			moods := []string{"party", "chill", "rock"}
			for _, m := range moods {
				if err := repo.Create(testRecommendation(m)); err != nil {
					t.Fatalf("failed to create recommendation: %v", err)
				}
				time.Sleep(2 * time.Millisecond)
			}

			recs, err := repo.List(2)
			if err != nil {
				t.Fatalf("failed to list recommendations: %v", err)
			}
			if len(recs) != 2 {
				t.Fatalf("expected 2 recommendations, got %d", len(recs))
			}
			if recs[0].Mood() != "rock" || recs[1].Mood() != "chill" {
				t.Errorf("expected newest first, got %s then %s", recs[0].Mood(), recs[1].Mood())
			}
		})

		t.Run("zero limit returns all", func(t *testing.T) {
			repo := NewRecommendationRepository(testDB(t))

			for i := 0; i < 3; i++ {
				if err := repo.Create(testRecommendation("party")); err != nil {
					t.Fatalf("failed to create recommendation: %v", err)
				}
			}

			recs, err := repo.List(0)
			if err != nil {
				t.Fatalf("failed to list recommendations: %v", err)
			}
			if len(recs) != 3 {
				t.Errorf("expected 3 recommendations, got %d", len(recs))
			}
		})
	})

	t.Run("ListByMood", func(t *testing.T) {
		repo := NewRecommendationRepository(testDB(t))

		for _, m := range []string{"party", "chill", "party"} {
			if err := repo.Create(testRecommendation(m)); err != nil {
				t.Fatalf("failed to create recommendation: %v", err)
			}
		}

		recs, err := repo.ListByMood("party", 0)
		if err != nil {
			t.Fatalf("failed to list by mood: %v", err)
		}
		if len(recs) != 2 {
			t.Fatalf("expected 2 party recommendations, got %d", len(recs))
		}
		for _, rec := range recs {
			if rec.Mood() != "party" {
				t.Errorf("unexpected mood in filtered list: %s", rec.Mood())
			}
		}
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("soft-deletes and hides the row", func(t *testing.T) {
			repo := NewRecommendationRepository(testDB(t))

			rec := testRecommendation("party")
			if err := repo.Create(rec); err != nil {
				t.Fatalf("failed to create recommendation: %v", err)
			}

			if err := repo.Delete(rec.ID()); err != nil {
				t.Fatalf("failed to delete recommendation: %v", err)
			}

			if _, err := repo.Get(rec.ID()); err == nil {
				t.Error("expected deleted recommendation to be hidden")
			}

			recs, err := repo.List(0)
			if err != nil {
				t.Fatalf("failed to list recommendations: %v", err)
			}
			if len(recs) != 0 {
				t.Errorf("expected empty list after delete, got %d", len(recs))
			}
		})

		t.Run("deleting a missing row fails", func(t *testing.T) {
			repo := NewRecommendationRepository(testDB(t))

			err := repo.Delete("nonexistent")
			if err == nil || !strings.Contains(err.Error(), "not found") {
				t.Errorf("expected not found error, got %v", err)
			}
		})
	})

	t.Run("NextSequence", func(t *testing.T) {
		db := testDB(t)

		first, err := NextSequence(db, "recommendations")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		second, err := NextSequence(db, "recommendations")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}

		if second != first+1 {
			t.Errorf("expected monotonically increasing sequence, got %d then %d", first, second)
		}
	})
}
