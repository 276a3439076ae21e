// package emotion defines the emotion observation model and the classifier capability interface.
package emotion

import (
	"context"
	"time"
)

// Label is one of the closed set of emotion classes produced by the classifier.
type Label string

const (
	Happy    Label = "happy"
	Sad      Label = "sad"
	Angry    Label = "angry"
	Fear     Label = "fear"
	Surprise Label = "surprise"
	Neutral  Label = "neutral"
	Disgust  Label = "disgust"
)

// Labels lists every supported emotion class in a fixed order.
var Labels = []Label{Happy, Sad, Angry, Fear, Surprise, Neutral, Disgust}

// Valid reports whether the label belongs to the supported emotion set.
func (l Label) Valid() bool {
	switch l {
	case Happy, Sad, Angry, Fear, Surprise, Neutral, Disgust:
		return true
	}
	return false
}

func (l Label) String() string { return string(l) }

// Signal is a single timestamped emotion observation.
//
// Immutable once created; one signal is produced per processed frame.
type Signal struct {
	Label      Label     // Detected emotion class
	Confidence float64   // Classifier confidence in [0, 1]
	Timestamp  time.Time // Monotonic observation instant
}

// NewSignal constructs a Signal stamped with the current time.
func NewSignal(label Label, confidence float64) Signal {
	return Signal{Label: label, Confidence: confidence, Timestamp: time.Now()}
}

// Classifier is the capability interface for the external emotion classifier.
//
// Classify blocks while the next frame is captured and classified, and returns
// the resulting observation. A [shared.ErrNoFaceDetected] failure is non-fatal
// and means the cycle should be skipped; [shared.ErrDeviceFailed] terminates
// the detection loop.
type Classifier interface {
	Classify(ctx context.Context) (Signal, error)
	Name() string
}
