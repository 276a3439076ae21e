// Package mood turns noisy emotion observations into stable music mood decisions.
//
// The package contains two pieces:
//
//  1. A fixed emotion → mood → search-term table ([For], [Map]). Moods are
//     only ever derived from this table, never constructed from free text.
//  2. [Stabilizer], a confidence-weighted majority filter over a bounded
//     window of observations that emits a mood only once the evidence is
//     strong and a cooldown has elapsed.
package mood

import (
	"fmt"

	"github.com/desertthunder/moodify/internal/emotion"
)

// Mood is a music mood category derived from a detected emotion.
type Mood string

const (
	Party      Mood = "party"
	Melancholy Mood = "melancholy"
	Rock       Mood = "rock"
	Ambient    Mood = "ambient"
	Pop        Mood = "pop"
	Chill      Mood = "chill"
)

func (m Mood) String() string { return string(m) }

// Query carries the ordered search terms for a mood decision.
// Term order defines precedence: most specific first.
type Query struct {
	Terms []string
	Mood  Mood
}

// row pairs the mood and search terms for one emotion class.
type row struct {
	mood  Mood
	terms []string
}

// table is the canonical emotion → mood mapping. Disgust has no mood of its
// own and falls back to the nearest defined one.
var table = map[emotion.Label]row{
	emotion.Happy:    {Party, []string{"party", "upbeat", "dance"}},
	emotion.Sad:      {Melancholy, []string{"melancholy", "blues", "emotional"}},
	emotion.Angry:    {Rock, []string{"rock", "metal", "intense"}},
	emotion.Fear:     {Ambient, []string{"ambient", "calm", "peaceful"}},
	emotion.Surprise: {Pop, []string{"pop", "trending", "viral"}},
	emotion.Neutral:  {Chill, []string{"chill", "lo-fi", "focus"}},
	emotion.Disgust:  {Rock, []string{"intense", "rock"}},
}

// For returns the mood for an emotion label.
//
// The emotion set is closed, so an unmapped label is a programming error and
// panics rather than producing an undefined mood.
func For(label emotion.Label) Mood {
	r, ok := table[label]
	if !ok {
		panic(fmt.Sprintf("mood: unmapped emotion label %q", label))
	}
	return r.mood
}

// Map returns the search query for an emotion label, terms ordered most
// specific first. Panics on an unmapped label, same as [For].
func Map(label emotion.Label) Query {
	r, ok := table[label]
	if !ok {
		panic(fmt.Sprintf("mood: unmapped emotion label %q", label))
	}

	terms := make([]string, len(r.terms))
	copy(terms, r.terms)
	return Query{Terms: terms, Mood: r.mood}
}
