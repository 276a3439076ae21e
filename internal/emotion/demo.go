package emotion

import (
	"context"
	"time"
)

// demoRotation is the cycle of emotions the demo classifier walks through,
// matching the set a webcam classifier reliably distinguishes.
var demoRotation = []Label{Happy, Sad, Neutral, Angry, Surprise}

// DemoClassifier simulates an emotion classifier by rotating through a fixed
// set of emotions on a timer. Each emotion persists for the configured period
// before the rotation advances.
//
// Useful for exercising the full pipeline without a camera or model.
type DemoClassifier struct {
	period     time.Duration
	confidence float64
	interval   time.Duration
	now        func() time.Time

	index    int
	switched time.Time
}

// NewDemoClassifier creates a DemoClassifier that holds each emotion for
// period and reports the given confidence. interval is the simulated frame
// delay between classifications.
func NewDemoClassifier(period, interval time.Duration, confidence float64) *DemoClassifier {
	if period <= 0 {
		period = 10 * time.Second
	}
	if confidence <= 0 || confidence > 1 {
		confidence = 0.7
	}
	return &DemoClassifier{
		period:     period,
		confidence: confidence,
		interval:   interval,
		now:        time.Now,
	}
}

func (d *DemoClassifier) Name() string { return "demo" }

// Classify waits for the simulated frame interval, then returns the current
// demo emotion, advancing the rotation when the hold period has elapsed.
func (d *DemoClassifier) Classify(ctx context.Context) (Signal, error) {
	if d.interval > 0 {
		timer := time.NewTimer(d.interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Signal{}, ctx.Err()
		case <-timer.C:
		}
	}

	now := d.now()
	if d.switched.IsZero() {
		d.switched = now
	} else if now.Sub(d.switched) >= d.period {
		d.index = (d.index + 1) % len(demoRotation)
		d.switched = now
	}

	return Signal{
		Label:      demoRotation[d.index],
		Confidence: d.confidence,
		Timestamp:  now,
	}, nil
}
