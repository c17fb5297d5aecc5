// Package urlscan extracts candidate URLs from body text and scores each
// one through redirect resolution, structural heuristics and
// typosquatting detection.
package urlscan

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/akashahram/Phishing-Email-Detector/internal/types"
)

// reURL matches explicit http(s) links plus bare www-prefixed hosts,
// which phishing mail often uses to dodge naive scanners.
var reURL = regexp.MustCompile(`(?i)\b(?:https?://[^\s'"<>)\]]+|www\.[a-z0-9][a-z0-9.-]*\.[a-z]{2,}[^\s'"<>)\]]*)`)

// trailingPunct is stripped from match tails; sentence punctuation is not
// part of the link.
const trailingPunct = ".,;:!?"

// Extraction is the bounded result of scanning one body.
type Extraction struct {
	Records []types.URLRecord
	Omitted int
}

// Extract scans body text for URL-shaped tokens, deduplicates by
// normalized form and caps the number of records at maxURLs. URLs beyond
// the cap are counted, not silently dropped.
func Extract(body string, maxURLs int) Extraction {
	if maxURLs <= 0 {
		maxURLs = 20
	}

	var ext Extraction
	seen := make(map[string]struct{})

	for _, raw := range reURL.FindAllString(body, -1) {
		raw = strings.TrimRight(raw, trailingPunct)
		normalized, host := normalize(raw)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}

		if len(ext.Records) >= maxURLs {
			ext.Omitted++
			continue
		}
		ext.Records = append(ext.Records, types.URLRecord{
			Raw:        raw,
			Normalized: normalized,
			Host:       host,
		})
	}

	return ext
}

// OmittedFinding reports URLs dropped by the cap as an explicit finding.
func (e Extraction) OmittedFinding() *types.Finding {
	if e.Omitted == 0 {
		return nil
	}
	f := types.NewFinding(types.CategoryURLStructure, types.SeverityLow,
		"additional URLs omitted: per-request URL cap reached")
	return &f
}

// normalize lowercases the scheme and host and supplies a scheme for bare
// www hosts so downstream components see one canonical form.
func normalize(raw string) (normalized, host string) {
	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "http://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return "", ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String(), u.Hostname()
}
