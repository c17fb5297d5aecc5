package reputation

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashahram/Phishing-Email-Detector/internal/config"
	"github.com/akashahram/Phishing-Email-Detector/internal/types"
)

func phishtankStub(t *testing.T, inDatabase, verified bool, valid string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.NotEmpty(t, r.PostForm.Get("url"))
		require.Equal(t, "json", r.PostForm.Get("format"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"results":{"in_database":%t,"verified":%t,"phish_id":12345,"valid":%q}}`,
			inDatabase, verified, valid)
	}))
}

func TestCheckMalicious(t *testing.T) {
	srv := phishtankStub(t, true, true, "yes")
	defer srv.Close()

	c := New(nil, &config.ReputationConfig{Enabled: true, Endpoint: srv.URL}, nil)
	f := c.Check(context.Background(), "http://evil.example/login")

	require.NotNil(t, f)
	assert.Equal(t, types.CategoryURLReputation, f.Category)
	assert.Equal(t, types.SeverityCritical, f.Severity)
	assert.Contains(t, f.Message, "12345")
}

func TestCheckClean(t *testing.T) {
	srv := phishtankStub(t, false, false, "")
	defer srv.Close()

	c := New(nil, &config.ReputationConfig{Enabled: true, Endpoint: srv.URL}, nil)
	assert.Nil(t, c.Check(context.Background(), "http://fine.example/"))
}

func TestCheckRetractedEntry(t *testing.T) {
	// In the database but marked invalid: a retracted report, not a threat.
	srv := phishtankStub(t, true, true, "no")
	defer srv.Close()

	c := New(nil, &config.ReputationConfig{Enabled: true, Endpoint: srv.URL}, nil)
	assert.Nil(t, c.Check(context.Background(), "http://retracted.example/"))
}

func TestCheckDisabled(t *testing.T) {
	c := New(nil, &config.ReputationConfig{Enabled: false}, nil)
	assert.False(t, c.Enabled())
	assert.Nil(t, c.Check(context.Background(), "http://anything.example/"))
}

func TestCheckServiceFailureMeansUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(nil, &config.ReputationConfig{Enabled: true, Endpoint: srv.URL}, nil)
	assert.Nil(t, c.Check(context.Background(), "http://unknown.example/"))
}

func TestCheckUnreachableServiceMeansUnknown(t *testing.T) {
	c := New(nil, &config.ReputationConfig{Enabled: true, Endpoint: "http://127.0.0.1:1/"}, nil)
	assert.Nil(t, c.Check(context.Background(), "http://unknown.example/"))
}
