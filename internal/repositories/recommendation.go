package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/shared"
)

// RecommendationRepository implements [models.Repository] for [models.Recommendation] persistence.
type RecommendationRepository struct {
	db *sql.DB
}

// NewRecommendationRepository creates a new RecommendationRepository with the given database connection
func NewRecommendationRepository(db *sql.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// Create inserts a new recommendation into the database with generated ID and sequence
func (r *RecommendationRepository) Create(rec *models.Recommendation) error {
	sequence, err := NextSequence(r.db, "recommendations")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	rec.SetID(id)

	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO recommendations (id, sequence, mood, emotion, term, playlist_id, playlist_name, playlist_url, popularity, match_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		rec.Mood(),
		rec.Emotion(),
		rec.Term(),
		rec.PlaylistID(),
		rec.PlaylistName(),
		rec.PlaylistURL(),
		rec.Popularity(),
		rec.MatchScore(),
		rec.CreatedAt(),
		rec.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}

	return nil
}

// Get retrieves a recommendation by ID, excluding soft-deleted rows
func (r *RecommendationRepository) Get(id string) (*models.Recommendation, error) {
	query := `
		SELECT id, sequence, mood, emotion, term, playlist_id, playlist_name, playlist_url, popularity, match_score, created_at, updated_at, deleted_at
		FROM recommendations
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// List retrieves the most recent recommendations, newest first.
// A limit of zero or less returns all rows.
func (r *RecommendationRepository) List(limit int) ([]*models.Recommendation, error) {
	query := `
		SELECT id, sequence, mood, emotion, term, playlist_id, playlist_name, playlist_url, popularity, match_score, created_at, updated_at, deleted_at
		FROM recommendations
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []*models.Recommendation
	for rows.Next() {
		rec, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// ListByMood retrieves recent recommendations for a specific mood, newest first.
func (r *RecommendationRepository) ListByMood(moodName string, limit int) ([]*models.Recommendation, error) {
	query := `
		SELECT id, sequence, mood, emotion, term, playlist_id, playlist_name, playlist_url, popularity, match_score, created_at, updated_at, deleted_at
		FROM recommendations
		WHERE mood = ? AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	args := []any{moodName}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []*models.Recommendation
	for rows.Next() {
		rec, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// Delete soft-deletes a recommendation by setting deleted_at
func (r *RecommendationRepository) Delete(id string) error {
	result, err := r.db.Exec("UPDATE recommendations SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete recommendation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("recommendation not found: %s", id)
	}

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning logic.
type scanner interface {
	Scan(dest ...any) error
}

func (r *RecommendationRepository) scanOne(row *sql.Row) (*models.Recommendation, error) {
	rec, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recommendation not found")
	}
	return rec, err
}

func (r *RecommendationRepository) scanRow(s scanner) (*models.Recommendation, error) {
	var (
		id, moodName, emotionLabel, term       string
		playlistID, playlistName, playlistURL  string
		sequence, popularity                   int
		matchScore                             float64
		createdAt, updatedAt                   time.Time
		deletedAt                              sql.NullTime
	)

	err := s.Scan(&id, &sequence, &moodName, &emotionLabel, &term, &playlistID, &playlistName, &playlistURL, &popularity, &matchScore, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan recommendation: %w", err)
	}

	rec := models.NewRecommendation(sequence, moodName, emotionLabel, term, playlistID, playlistName, playlistURL, popularity, matchScore)
	rec.SetID(id)

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}
	rec.SetTimestamps(createdAt, updatedAt, deleted)

	return rec, nil
}
