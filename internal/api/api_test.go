package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akashahram/Phishing-Email-Detector/internal/analyzer"
	"github.com/akashahram/Phishing-Email-Detector/internal/classifier"
	"github.com/akashahram/Phishing-Email-Detector/internal/config"
	"github.com/akashahram/Phishing-Email-Detector/internal/types"
)

type okTransport struct{}

func (okTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Relay: config.RelayConfig{MaxHops: 8},
		URL: config.URLConfig{
			MaxURLs: 20, MaxRedirects: 5, MaxConcurrency: 4,
			Timeout: time.Second, MaxLength: 150, MaxSubdomains: 4,
		},
		Typosquat:       config.TyposquatConfig{MaxDistance: 2, MinDomainLen: 6},
		Scoring:         config.ScoringConfig{DecisionThreshold: 0.5},
		RequestDeadline: 10 * time.Second,
	}
	a := analyzer.New(zap.NewNop(), cfg, config.DefaultReferenceData(),
		classifier.Static(0.1), nil, okTransport{})
	return NewServer(zap.NewNop(), cfg, a, nil)
}

func TestHealthAndVersion(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), Version)
}

func TestPredict(t *testing.T) {
	router := testRouter(t)

	body, _ := json.Marshal(map[string]interface{}{
		"text":                   "Urgent action required: verify your account at http://paypa1.com/login",
		"classifier_probability": 0.85,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var verdict types.Verdict
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verdict))
	assert.Equal(t, 1, verdict.Prediction)
	assert.GreaterOrEqual(t, verdict.Probability, 0.9)
	assert.NotEmpty(t, verdict.Reason)
	assert.NotEmpty(t, verdict.URLFindings)
}

func TestPredictRejectsEmptyText(t *testing.T) {
	router := testRouter(t)

	for _, payload := range []string{`{}`, `{"text":""}`, `not json`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "payload %q", payload)
	}
}

func TestScanEML(t *testing.T) {
	router := testRouter(t)

	eml := strings.Join([]string{
		`From: "PayPal Support" <service@paypa1.com>`,
		"To: victim@example.com",
		"Subject: verify",
		"Date: Mon, 02 Mar 2026 10:00:00 +0000",
		"Message-ID: <abc@paypa1.com>",
		"Content-Type: text/plain",
		"",
		"Please verify your account at http://paypa1.com/secure/login",
	}, "\r\n")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "sample.eml")
	require.NoError(t, err)
	_, err = fw.Write([]byte(eml))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scan_eml", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var verdict types.Verdict
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verdict))
	assert.Equal(t, 1, verdict.Prediction)
	assert.NotEmpty(t, verdict.ForensicsFindings, "header forensics must see the uploaded headers")
}

func TestScanEMLRequiresFile(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scan_eml", strings.NewReader("nope"))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
