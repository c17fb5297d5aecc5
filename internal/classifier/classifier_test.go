package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashahram/Phishing-Email-Detector/internal/config"
)

func TestStaticClamps(t *testing.T) {
	tests := []struct {
		in       Static
		expected float64
	}{
		{0.5, 0.5},
		{-0.3, 0},
		{1.7, 1},
	}

	for _, tt := range tests {
		got, err := tt.in.Probability(context.Background(), "anything")
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}
}

func TestKeywordBoost(t *testing.T) {
	phrases := []string{"verify your account", "password reset"}

	tests := []struct {
		name        string
		prob        float64
		body        string
		expected    float64
		wantMatched string
	}{
		{"no match", 0.3, "quarterly report attached", 0.3, ""},
		{"match boosts", 0.3, "Please VERIFY YOUR ACCOUNT now", 0.42, "verify your account"},
		{"boost capped", 0.95, "password reset required", 0.99, "password reset"},
		{"first phrase wins", 0.1, "verify your account or request a password reset", 0.22, "verify your account"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, matched := KeywordBoost(tt.prob, tt.body, phrases)
			assert.InDelta(t, tt.expected, got, 1e-9)
			assert.Equal(t, tt.wantMatched, matched)
		})
	}
}

func TestHTTPClassifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Equal(t, "body text", in.Text)
		json.NewEncoder(w).Encode(map[string]float64{"probability": 0.87})
	}))
	defer srv.Close()

	c := NewHTTP(nil, &config.ClassifierConfig{URL: srv.URL, Timeout: time.Second})
	p, err := c.Probability(context.Background(), "body text")
	require.NoError(t, err)
	assert.InDelta(t, 0.87, p, 1e-9)
}

func TestHTTPClassifierErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			"non-200 status",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		},
		{
			"garbage body",
			func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("not json")) },
		},
		{
			"probability out of range",
			func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]float64{"probability": 1.5})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewHTTP(nil, &config.ClassifierConfig{URL: srv.URL, Timeout: time.Second})
			_, err := c.Probability(context.Background(), "x")
			assert.Error(t, err)
		})
	}
}

func TestHTTPClassifierUnreachable(t *testing.T) {
	c := NewHTTP(nil, &config.ClassifierConfig{URL: "http://127.0.0.1:1/", Timeout: 100 * time.Millisecond})
	_, err := c.Probability(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classifier unavailable")
}
