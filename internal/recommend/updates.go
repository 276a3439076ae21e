package recommend

import (
	"fmt"

	"github.com/desertthunder/moodify/internal/emotion"
	"github.com/desertthunder/moodify/internal/mood"
	"github.com/desertthunder/moodify/internal/resolver"
)

// Phase identifies which stage of the pipeline a progress update describes.
type Phase int

const (
	PhaseObserving Phase = iota
	PhaseSkipped
	PhaseDecided
	PhaseResolving
	PhaseResolveFailed
	PhaseRecommended
)

func (p Phase) String() string {
	switch p {
	case PhaseObserving:
		return "observing"
	case PhaseSkipped:
		return "skipped"
	case PhaseDecided:
		return "decided"
	case PhaseResolving:
		return "resolving"
	case PhaseResolveFailed:
		return "resolve_failed"
	case PhaseRecommended:
		return "recommended"
	default:
		return "unknown"
	}
}

// ProgressUpdate is a single event from the recommendation loop, sent
// non-blocking so UIs can consume at their own pace.
type ProgressUpdate struct {
	Phase   Phase
	Message string

	// Window fill during observation.
	Fill int
	Size int

	// Populated from PhaseObserving onward.
	Signal *emotion.Signal

	// Populated from PhaseDecided onward.
	Decision *mood.Decision

	// Populated for PhaseResolving.
	Query *mood.Query

	// Populated for PhaseRecommended.
	Playlist *resolver.Playlist

	// Populated for PhaseResolveFailed.
	Err error
}

func observedUpdate(fill, size int, sig emotion.Signal) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseObserving,
		Message: fmt.Sprintf("observed %s (%.2f), window %d/%d", sig.Label, sig.Confidence, fill, size),
		Fill:    fill,
		Size:    size,
		Signal:  &sig,
	}
}

func skippedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseSkipped,
		Message: fmt.Sprintf("no face detected (%d skipped)", total),
	}
}

func decisionUpdate(d mood.Decision) ProgressUpdate {
	return ProgressUpdate{
		Phase:    PhaseDecided,
		Message:  fmt.Sprintf("stable mood: %s (%.0f%% %s)", d.Mood, d.Share*100, d.Label),
		Decision: &d,
	}
}

func resolvingUpdate(q mood.Query) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseResolving,
		Message: fmt.Sprintf("searching playlists for %s", q.Mood),
		Query:   &q,
	}
}

func resolveFailedUpdate(d mood.Decision, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:    PhaseResolveFailed,
		Message:  fmt.Sprintf("no playlist found for %s", d.Mood),
		Decision: &d,
		Err:      err,
	}
}

func recommendedUpdate(d mood.Decision, p *resolver.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:    PhaseRecommended,
		Message:  fmt.Sprintf("%s → %s", d.Mood, p.Name),
		Decision: &d,
		Playlist: p,
	}
}
