package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Brand ties a display-name token to the domains the brand legitimately
// sends from.
type Brand struct {
	Token   string   `yaml:"token"`
	Domains []string `yaml:"domains"`
}

// ReferenceData is the updatable lookup material the analyzers consult:
// protected brands, address-range classifications, freemail providers and
// lexical URL heuristics. It is data, not logic, and ships with built-in
// defaults that a YAML file can replace wholesale.
type ReferenceData struct {
	Brands             []Brand  `yaml:"brands"`
	ProtectedDomains   []string `yaml:"protected_domains"`
	ResidentialRanges  []string `yaml:"residential_ranges"`
	FreemailDomains    []string `yaml:"freemail_domains"`
	SuspiciousTLDs     []string `yaml:"suspicious_tlds"`
	SuspiciousKeywords []string `yaml:"suspicious_keywords"`
	PhishingKeywords   []string `yaml:"phishing_keywords"`
}

// DefaultReferenceData returns the built-in reference set, used when no
// reference file is configured.
func DefaultReferenceData() *ReferenceData {
	return &ReferenceData{
		Brands: []Brand{
			{Token: "paypal", Domains: []string{"paypal.com"}},
			{Token: "amazon", Domains: []string{"amazon.com", "amazon.co.uk"}},
			{Token: "microsoft", Domains: []string{"microsoft.com", "outlook.com", "live.com"}},
			{Token: "apple", Domains: []string{"apple.com", "icloud.com"}},
			{Token: "google", Domains: []string{"google.com", "gmail.com"}},
			{Token: "facebook", Domains: []string{"facebook.com", "fb.com"}},
			{Token: "chase", Domains: []string{"chase.com"}},
			{Token: "wells fargo", Domains: []string{"wellsfargo.com"}},
			{Token: "irs", Domains: []string{"irs.gov"}},
			{Token: "fedex", Domains: []string{"fedex.com"}},
			{Token: "ups", Domains: []string{"ups.com"}},
			{Token: "dhl", Domains: []string{"dhl.com"}},
			{Token: "netflix", Domains: []string{"netflix.com"}},
		},
		ProtectedDomains: []string{
			"paypal.com", "amazon.com", "microsoft.com", "apple.com",
			"google.com", "facebook.com", "instagram.com", "twitter.com",
			"linkedin.com", "chase.com", "bankofamerica.com",
			"wellsfargo.com", "citibank.com", "fedex.com", "ups.com",
			"dhl.com", "usps.com", "netflix.com", "spotify.com",
			"dropbox.com",
		},
		ResidentialRanges: []string{
			// Common consumer/dynamic allocations; replace from the
			// reference file in production deployments.
			"100.64.0.0/10", // carrier-grade NAT
			"24.0.0.0/8",
			"73.0.0.0/8",
			"98.0.0.0/8",
		},
		FreemailDomains: []string{
			"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "aol.com",
		},
		SuspiciousTLDs: []string{
			"tk", "cf", "ga", "gq", "ml", "xyz", "top", "work", "click",
		},
		SuspiciousKeywords: []string{
			"login", "verify", "account", "secure", "update", "confirm",
			"banking", "signin",
		},
		PhishingKeywords: []string{
			"verify your account", "password reset", "account suspended",
			"urgent action required", "confirm your identity",
			"billing information", "login to continue", "update your account",
		},
	}
}

// LoadReferenceData reads the YAML reference file at path, falling back to
// the built-in defaults when path is empty.
func LoadReferenceData(path string) (*ReferenceData, error) {
	if path == "" {
		return DefaultReferenceData(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reference data: %w", err)
	}
	var ref ReferenceData
	if err := yaml.Unmarshal(b, &ref); err != nil {
		return nil, fmt.Errorf("parsing reference data: %w", err)
	}
	return &ref, nil
}

// BrandForToken returns the first brand whose token appears in the given
// display name, case-insensitively. List order is the tie-break, so the
// result is deterministic.
func (r *ReferenceData) BrandForToken(displayName string) *Brand {
	lower := strings.ToLower(displayName)
	for i := range r.Brands {
		if strings.Contains(lower, r.Brands[i].Token) {
			return &r.Brands[i]
		}
	}
	return nil
}

// IsBrandDomain reports whether domain belongs to the brand's known set.
func (b *Brand) IsBrandDomain(domain string) bool {
	for _, d := range b.Domains {
		if strings.EqualFold(domain, d) {
			return true
		}
	}
	return false
}

// IsFreemail reports whether domain is a known free mail provider.
func (r *ReferenceData) IsFreemail(domain string) bool {
	for _, d := range r.FreemailDomains {
		if strings.EqualFold(domain, d) {
			return true
		}
	}
	return false
}
