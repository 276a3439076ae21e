package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/moodify/internal/shared"
)

// classifyResponse is the JSON body returned by the classifier sidecar.
type classifyResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// HTTPClassifier adapts a frame-classifier sidecar exposing GET /classify.
//
// The sidecar owns the camera and the emotion model; this adapter only turns
// its responses into [Signal] values. A 404 or 204 response means no face was
// visible in the frame. Repeated connection failures past the reconnect
// budget are treated as device loss.
type HTTPClassifier struct {
	baseURL     string
	httpClient  *http.Client
	maxFailures int
	failures    int
}

// NewHTTPClassifier creates an HTTPClassifier for the sidecar at baseURL.
// maxFailures bounds consecutive connection errors before the device is
// considered lost; zero or negative applies the default of 5.
func NewHTTPClassifier(baseURL string, client *http.Client, maxFailures int) *HTTPClassifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if maxFailures <= 0 {
		maxFailures = 5
	}
	return &HTTPClassifier{
		baseURL:     baseURL,
		httpClient:  client,
		maxFailures: maxFailures,
	}
}

func (c *HTTPClassifier) Name() string { return "http" }

// Classify requests the next classified frame from the sidecar.
func (c *HTTPClassifier) Classify(ctx context.Context) (Signal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/classify", nil)
	if err != nil {
		return Signal{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Signal{}, ctx.Err()
		}
		c.failures++
		if c.failures >= c.maxFailures {
			return Signal{}, fmt.Errorf("%w: %d consecutive connection errors: %v", shared.ErrDeviceFailed, c.failures, err)
		}
		return Signal{}, fmt.Errorf("%w: %v", shared.ErrNoFaceDetected, err)
	}
	defer resp.Body.Close()
	c.failures = 0

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		return Signal{}, shared.ErrNoFaceDetected
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return Signal{}, fmt.Errorf("%w: classifier returned status %d", shared.ErrDeviceFailed, resp.StatusCode)
	}

	var body classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Signal{}, fmt.Errorf("failed to decode classifier response: %w", err)
	}

	label := Label(body.Label)
	if !label.Valid() {
		return Signal{}, fmt.Errorf("%w: unknown emotion label %q", shared.ErrInvalidInput, body.Label)
	}
	if body.Confidence < 0 || body.Confidence > 1 {
		return Signal{}, fmt.Errorf("%w: confidence %f out of range", shared.ErrInvalidInput, body.Confidence)
	}

	return NewSignal(label, body.Confidence), nil
}
