package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/akashahram/Phishing-Email-Detector/internal/config"
)

// HTTPClassifier calls an external model-serving endpoint. The classifier
// is the one non-optional external dependency: its unavailability is a
// hard error for the request, unlike every other external lookup.
type HTTPClassifier struct {
	logger *zap.Logger
	url    string
	client *http.Client
}

// NewHTTP builds the adapter from configuration.
func NewHTTP(logger *zap.Logger, cfg *config.ClassifierConfig) *HTTPClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClassifier{
		logger: logger,
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
	}
}

// Probability posts the body text and returns the service's probability.
func (h *HTTPClassifier) Probability(ctx context.Context, bodyText string) (float64, error) {
	payload, err := json.Marshal(map[string]string{"text": bodyText})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("classifier unavailable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("classifier returned %d", resp.StatusCode)
	}

	var out struct {
		Probability float64 `json:"probability"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decoding classifier response: %w", err)
	}
	if out.Probability < 0 || out.Probability > 1 {
		return 0, fmt.Errorf("classifier probability out of range: %f", out.Probability)
	}
	return out.Probability, nil
}
