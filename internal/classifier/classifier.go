// Package classifier defines the injected text-intent classifier
// capability. The model itself is external: loaded once at process
// start, read-only, shared across requests. The core only consumes a
// probability.
package classifier

import (
	"context"
	"strings"
)

// Classifier returns the probability in [0,1] that the given normalized
// body text is phishing.
type Classifier interface {
	Probability(ctx context.Context, bodyText string) (float64, error)
}

// Static wraps an already-computed probability, used when the caller
// supplies the classifier output with the request.
type Static float64

// Probability returns the wrapped value clamped to [0,1].
func (s Static) Probability(context.Context, string) (float64, error) {
	p := float64(s)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p, nil
}

// KeywordBoost nudges a classifier probability upward when the body
// carries a known phishing phrase. Returns the adjusted probability and
// the matched phrase, if any. The boost is additive, small and capped so
// it corroborates rather than overrides the model.
func KeywordBoost(prob float64, bodyText string, phrases []string) (float64, string) {
	lower := strings.ToLower(bodyText)
	for _, phrase := range phrases {
		if strings.Contains(lower, phrase) {
			boosted := prob + 0.12
			if boosted > 0.99 {
				boosted = 0.99
			}
			return boosted, phrase
		}
	}
	return prob, ""
}
