package mood

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodify/internal/emotion"
)

// Stabilizer defaults; all of them are overridable via [StabilizerOpts].
const (
	DefaultWindowSize = 5
	DefaultThreshold  = 0.6
	DefaultCooldown   = 4 * time.Second
)

// Decision is an emitted mood along with the evidence behind it.
type Decision struct {
	Mood  Mood          // Mood from the fixed lookup table
	Label emotion.Label // Winning emotion label
	Share float64       // Winning label's share of total window confidence
}

// StabilizerOpts contains tuning parameters for a [Stabilizer].
// Zero values fall back to the documented defaults.
type StabilizerOpts struct {
	WindowSize int           // Observations required before a decision (W)
	Threshold  float64       // Minimum confidence share for the winning label (T)
	Cooldown   time.Duration // Minimum interval between emissions
	Logger     *log.Logger
	Now        func() time.Time // Clock override for tests
}

// Stabilizer smooths transient emotion flicker by requiring a full window of
// observations dominated by one label before emitting a mood decision.
//
// Not safe for concurrent use; the pipeline processes one signal at a time.
type Stabilizer struct {
	windowSize int
	threshold  float64
	cooldown   time.Duration
	logger     *log.Logger
	now        func() time.Time

	window        []emotion.Signal
	lastTimestamp time.Time
	lastEmitted   *Decision
	lastEmission  time.Time
}

// NewStabilizer creates a Stabilizer with the provided options.
func NewStabilizer(opts StabilizerOpts) *Stabilizer {
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.Threshold <= 0 || opts.Threshold >= 1 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Stabilizer{
		windowSize: opts.WindowSize,
		threshold:  opts.Threshold,
		cooldown:   opts.Cooldown,
		logger:     opts.Logger,
		now:        opts.Now,
		window:     make([]emotion.Signal, 0, opts.WindowSize),
	}
}

// Observe feeds one signal into the window and returns a Decision when the
// stability criteria are met, nil otherwise.
//
// A nil return is not an error; it means "keep observing". Signals with
// out-of-range confidence or regressing timestamps are logged and dropped.
// On emission the window is cleared, trading immediate re-detection for
// stability.
func (s *Stabilizer) Observe(sig emotion.Signal) *Decision {
	if sig.Confidence < 0 || sig.Confidence > 1 {
		s.logf("dropping signal with confidence %f out of range", sig.Confidence)
		return nil
	}

	if !s.lastTimestamp.IsZero() && sig.Timestamp.Before(s.lastTimestamp) {
		s.logf("dropping out-of-order signal: %v before %v", sig.Timestamp, s.lastTimestamp)
		return nil
	}
	s.lastTimestamp = sig.Timestamp

	s.window = append(s.window, sig)
	if len(s.window) > s.windowSize {
		s.window = s.window[1:]
	}

	if len(s.window) < s.windowSize {
		return nil
	}

	label, share := s.majority()
	if share <= s.threshold {
		return nil
	}

	now := s.now()
	if !s.lastEmission.IsZero() && now.Sub(s.lastEmission) < s.cooldown {
		return nil
	}

	decision := &Decision{Mood: For(label), Label: label, Share: share}
	s.lastEmitted = decision
	s.lastEmission = now
	s.window = s.window[:0]

	return decision
}

// majority computes the confidence-weighted winning label and its share of
// the total window confidence. Ties go to the most recent signal's label.
func (s *Stabilizer) majority() (emotion.Label, float64) {
	sums := make(map[emotion.Label]float64, len(s.window))
	total := 0.0
	for _, sig := range s.window {
		sums[sig.Label] += sig.Confidence
		total += sig.Confidence
	}

	var winner emotion.Label
	var best float64
	for i := len(s.window) - 1; i >= 0; i-- {
		label := s.window[i].Label
		if sum := sums[label]; sum > best {
			winner = label
			best = sum
		}
	}

	if total == 0 {
		return winner, 0
	}
	return winner, best / total
}

// Reset clears the window and emission history.
//
// Called on external discontinuity, e.g. after the classifier device restarts.
func (s *Stabilizer) Reset() {
	s.window = s.window[:0]
	s.lastTimestamp = time.Time{}
	s.lastEmitted = nil
	s.lastEmission = time.Time{}
}

// Fill returns how many observations are in the window and its capacity,
// for progress display.
func (s *Stabilizer) Fill() (int, int) {
	return len(s.window), s.windowSize
}

// LastDecision returns the most recently emitted decision, or nil if none.
func (s *Stabilizer) LastDecision() *Decision {
	return s.lastEmitted
}

func (s *Stabilizer) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Debugf(format, args...)
	}
}
