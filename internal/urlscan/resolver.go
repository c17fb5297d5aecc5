package urlscan

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/akashahram/Phishing-Email-Detector/internal/config"
	"github.com/akashahram/Phishing-Email-Detector/internal/types"
	"github.com/akashahram/Phishing-Email-Detector/pkg/helpers"
)

// Resolver walks a URL's redirect chain to its final destination under a
// hop ceiling, per-call timeout and cycle detection.
type Resolver struct {
	logger  *zap.Logger
	client  *http.Client
	maxHops int
}

// NewResolver builds a Resolver. The client never follows redirects by
// itself; the chain walk is explicit so every hop can be inspected.
func NewResolver(logger *zap.Logger, cfg *config.URLConfig, transport http.RoundTripper) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxHops := cfg.MaxRedirects
	if maxHops <= 0 {
		maxHops = 5
	}
	return &Resolver{
		logger: logger,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxHops: maxHops,
	}
}

// Resolve follows rec's redirect chain, filling in the final destination
// and hop count. Network failure downgrades the record to unresolved with
// a low informational finding; it never fails the request.
func (r *Resolver) Resolve(ctx context.Context, rec *types.URLRecord) []types.Finding {
	var findings []types.Finding

	current, err := url.Parse(rec.Normalized)
	if err != nil {
		return findings
	}

	visited := map[string]struct{}{current.String(): {}}

	for {
		resp, err := r.fetch(ctx, current)
		if err != nil {
			r.logger.Debug("url resolution failed",
				zap.String("url", current.String()), zap.Error(err))
			findings = append(findings, types.NewFinding(types.CategoryURLStructure, types.SeverityLow,
				fmt.Sprintf("link could not be resolved: %s", rec.Host)))
			rec.Resolved = false
			return findings
		}

		if !isRedirect(resp.StatusCode) {
			rec.Resolved = true
			rec.FinalURL = current.String()
			rec.FinalHost = current.Hostname()
			break
		}

		location := resp.Header.Get("Location")
		next, perr := current.Parse(location)
		if location == "" || perr != nil {
			// Redirect status without a usable target; treat the current
			// hop as the destination.
			rec.Resolved = true
			rec.FinalURL = current.String()
			rec.FinalHost = current.Hostname()
			break
		}

		rec.RedirectHops++
		if _, loop := visited[next.String()]; loop || rec.RedirectHops >= r.maxHops {
			rec.Resolved = true
			rec.FinalURL = next.String()
			rec.FinalHost = next.Hostname()
			findings = append(findings, types.NewFinding(types.CategoryURLStructure, types.SeverityMedium,
				fmt.Sprintf("redirect chain did not resolve cleanly: loop or depth exceeded after %d hops", rec.RedirectHops)))
			break
		}
		visited[next.String()] = struct{}{}
		current = next
	}

	if ip := net.ParseIP(strings.Trim(rec.EffectiveHost(), "[]")); ip != nil {
		findings = append(findings, types.NewFinding(types.CategoryURLStructure, types.SeverityMedium,
			fmt.Sprintf("link target is a bare IP address (%s)", rec.EffectiveHost())))
	}

	if rec.RedirectHops > 0 && rec.FinalHost != "" &&
		!helpers.SameOrganization(rec.Host, rec.FinalHost) {
		findings = append(findings, types.NewFinding(types.CategoryURLStructure, types.SeverityMedium,
			fmt.Sprintf("redirect leaves the original domain: %s -> %s", rec.Host, rec.FinalHost)))
	}

	return findings
}

func (r *Resolver) fetch(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	// Bodies are irrelevant; drain a little so keep-alive works and close.
	_, _ = io.CopyN(io.Discard, resp.Body, 1024)
	resp.Body.Close()
	return resp, nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
