package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists past recommendations from the local database.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	limit := int(cmd.Int("limit"))
	moodFilter := cmd.String("mood")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	repo, db := r.openRepository()
	if repo == nil {
		return fmt.Errorf("%w: history database unavailable, run 'moodify setup' first", shared.ErrServiceUnavailable)
	}
	defer db.Close()

	var recs []*models.Recommendation
	var err error
	if moodFilter != "" {
		recs, err = repo.ListByMood(moodFilter, limit)
	} else {
		recs, err = repo.List(limit)
	}
	if err != nil {
		return fmt.Errorf("failed to list recommendations: %w", err)
	}

	if useJSON {
		rows := make([]map[string]any, len(recs))
		for i, rec := range recs {
			rows[i] = map[string]any{
				"id":          rec.ID(),
				"mood":        rec.Mood(),
				"emotion":     rec.Emotion(),
				"term":        rec.Term(),
				"playlist":    rec.PlaylistName(),
				"url":         rec.PlaylistURL(),
				"popularity":  rec.Popularity(),
				"match_score": rec.MatchScore(),
				"created_at":  rec.CreatedAt(),
			}
		}
		return r.writeJSON(rows, pretty)
	}

	if len(recs) == 0 {
		return r.writePlain("No recommendations yet. Run 'moodify detect' to get one.\n")
	}

	for i, rec := range recs {
		r.writePlain("%d. [%s] %s\n", i+1, rec.Mood(), rec.PlaylistName())
		r.writePlain("   felt %s • matched %q (%.2f) • %s\n", rec.Emotion(), rec.Term(), rec.MatchScore(), rec.CreatedAt().Format("2006-01-02 15:04"))
		r.writePlain("   %s\n", rec.PlaylistURL())
	}

	return nil
}
