package models

import (
	"fmt"
	"time"
)

// Recommendation records one completed pipeline cycle: the stabilized mood,
// the emotion behind it, and the playlist it resolved to.
type Recommendation struct {
	id           string
	sequence     int
	mood         string
	emotion      string
	term         string
	playlistID   string
	playlistName string
	playlistURL  string
	popularity   int
	matchScore   float64
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewRecommendation creates a Recommendation for the given mood decision and
// resolved playlist. The ID is assigned by the repository on Create.
func NewRecommendation(sequence int, moodName, emotionLabel, term, playlistID, playlistName, playlistURL string, popularity int, matchScore float64) *Recommendation {
	now := time.Now()
	return &Recommendation{
		sequence:     sequence,
		mood:         moodName,
		emotion:      emotionLabel,
		term:         term,
		playlistID:   playlistID,
		playlistName: playlistName,
		playlistURL:  playlistURL,
		popularity:   popularity,
		matchScore:   matchScore,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (r *Recommendation) ID() string            { return r.id }
func (r *Recommendation) Sequence() int         { return r.sequence }
func (r *Recommendation) Mood() string          { return r.mood }
func (r *Recommendation) Emotion() string       { return r.emotion }
func (r *Recommendation) Term() string          { return r.term }
func (r *Recommendation) PlaylistID() string    { return r.playlistID }
func (r *Recommendation) PlaylistName() string  { return r.playlistName }
func (r *Recommendation) PlaylistURL() string   { return r.playlistURL }
func (r *Recommendation) Popularity() int       { return r.popularity }
func (r *Recommendation) MatchScore() float64   { return r.matchScore }
func (r *Recommendation) CreatedAt() time.Time  { return r.createdAt }
func (r *Recommendation) UpdatedAt() time.Time  { return r.updatedAt }
func (r *Recommendation) DeletedAt() *time.Time { return r.deletedAt }

// SetID assigns the unique identifier; called by the repository on Create.
func (r *Recommendation) SetID(id string) { r.id = id }

// SetTimestamps restores persisted timestamps when scanning rows.
func (r *Recommendation) SetTimestamps(createdAt, updatedAt time.Time, deletedAt *time.Time) {
	r.createdAt = createdAt
	r.updatedAt = updatedAt
	r.deletedAt = deletedAt
}

// Validate checks the recommendation's data before persistence.
func (r *Recommendation) Validate() error {
	if r.mood == "" {
		return fmt.Errorf("recommendation mood is required")
	}
	if r.emotion == "" {
		return fmt.Errorf("recommendation emotion is required")
	}
	if r.playlistURL == "" {
		return fmt.Errorf("recommendation playlist URL is required")
	}
	if r.matchScore < 0 {
		return fmt.Errorf("recommendation match score cannot be negative")
	}
	return nil
}
