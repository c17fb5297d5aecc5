package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.ApiPort)
	assert.Equal(t, 8, cfg.Relay.MaxHops)
	assert.Equal(t, 20, cfg.URL.MaxURLs)
	assert.Equal(t, 5, cfg.URL.MaxRedirects)
	assert.Equal(t, 150, cfg.URL.MaxLength)
	assert.Equal(t, 2, cfg.Typosquat.MaxDistance)
	assert.False(t, cfg.Reputation.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Reputation.CacheTTL)
	assert.Equal(t, 0.5, cfg.Scoring.DecisionThreshold)
	assert.Equal(t, 0.4, cfg.Scoring.MediumThreshold)
	assert.Equal(t, 15*time.Second, cfg.RequestDeadline)
}

func TestLoadReferenceDataDefaults(t *testing.T) {
	ref, err := LoadReferenceData("")
	require.NoError(t, err)

	assert.NotEmpty(t, ref.Brands)
	assert.NotEmpty(t, ref.ProtectedDomains)
	assert.NotEmpty(t, ref.PhishingKeywords)
}

func TestLoadReferenceDataFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.yaml")
	data := `
brands:
  - token: acme
    domains: [acme.example]
protected_domains: [acme.example]
freemail_domains: [freemail.example]
suspicious_tlds: [zip]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	ref, err := LoadReferenceData(path)
	require.NoError(t, err)

	require.Len(t, ref.Brands, 1)
	assert.Equal(t, "acme", ref.Brands[0].Token)
	assert.Equal(t, []string{"acme.example"}, ref.Brands[0].Domains)
	assert.True(t, ref.IsFreemail("freemail.example"))
	assert.False(t, ref.IsFreemail("corp.example"))
}

func TestLoadReferenceDataMissingFile(t *testing.T) {
	_, err := LoadReferenceData("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestBrandForToken(t *testing.T) {
	ref := DefaultReferenceData()

	b := ref.BrandForToken("PayPal Customer Care")
	require.NotNil(t, b)
	assert.Equal(t, "paypal", b.Token)
	assert.True(t, b.IsBrandDomain("paypal.com"))
	assert.False(t, b.IsBrandDomain("paypa1.com"))

	assert.Nil(t, ref.BrandForToken("Jane Doe"))
}
