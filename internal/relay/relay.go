// Package relay traces the chain of Received headers, classifies hop
// provenance and flags routing anomalies.
package relay

import (
	"fmt"
	"net"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akashahram/Phishing-Email-Detector/internal/config"
	"github.com/akashahram/Phishing-Email-Detector/internal/headers"
	"github.com/akashahram/Phishing-Email-Detector/internal/types"
)

var (
	reFromHost  = regexp.MustCompile(`(?i)\bfrom\s+([^\s(;]+)`)
	reByHost    = regexp.MustCompile(`(?i)\bby\s+([^\s(;]+)`)
	reBracketIP = regexp.MustCompile(`\[((?:\d{1,3}\.){3}\d{1,3}|[0-9a-fA-F:]*:[0-9a-fA-F:]+)\]`)
)

// timestampSkew tolerates clock drift between relays before the ordering
// heuristic fires.
const timestampSkew = 90 * time.Second

// Tracer parses and analyzes relay routes.
type Tracer struct {
	logger            *zap.Logger
	maxHops           int
	residentialRanges []*net.IPNet
}

// New builds a Tracer from configuration and reference data. Residential
// ranges that fail to parse are skipped; they are updatable data, not
// code, and a bad entry must not take the analyzer down.
func New(logger *zap.Logger, cfg *config.RelayConfig, ref *config.ReferenceData) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracer{logger: logger, maxHops: cfg.MaxHops}
	if t.maxHops <= 0 {
		t.maxHops = 8
	}
	for _, cidr := range ref.ResidentialRanges {
		if _, ipnet, err := net.ParseCIDR(cidr); err == nil {
			t.residentialRanges = append(t.residentialRanges, ipnet)
		} else {
			logger.Warn("skipping unparseable residential range", zap.String("cidr", cidr))
		}
	}
	return t
}

// Trace parses every Received header value into a RelayHop, preserving
// header order (hop 0 is closest to the recipient). A value that defeats
// the pattern still occupies its position with empty fields so hop-count
// integrity survives.
func (t *Tracer) Trace(hdr *headers.Model) []types.RelayHop {
	values := hdr.Values("Received")
	hops := make([]types.RelayHop, 0, len(values))
	for i, v := range values {
		hop := types.RelayHop{Index: i}
		if m := reFromHost.FindStringSubmatch(v); m != nil {
			hop.FromHost = strings.TrimSuffix(m[1], ".")
		}
		if m := reByHost.FindStringSubmatch(v); m != nil {
			hop.ByHost = strings.TrimSuffix(m[1], ".")
		}
		if m := reBracketIP.FindStringSubmatch(v); m != nil {
			hop.FromIP = net.ParseIP(m[1])
		}
		if sep := strings.LastIndex(v, ";"); sep >= 0 {
			if ts, err := mail.ParseDate(strings.TrimSpace(v[sep+1:])); err == nil {
				hop.Timestamp = ts
			}
		}
		hops = append(hops, hop)
	}
	return hops
}

// Analyze runs the route heuristics over a traced chain.
func (t *Tracer) Analyze(hops []types.RelayHop) []types.Finding {
	var findings []types.Finding

	if len(hops) > t.maxHops {
		findings = append(findings, types.NewFinding(types.CategoryRelay, types.SeverityLow,
			fmt.Sprintf("unusually long relay chain (%d hops)", len(hops))))
	}

	// The origin hop is the oldest Received header, i.e. the last one.
	if len(hops) > 0 {
		if ip := hops[len(hops)-1].FromIP; ip != nil && t.isResidential(ip) {
			findings = append(findings, types.NewFinding(types.CategoryRelay, types.SeverityMedium,
				fmt.Sprintf("origin IP %s resembles a residential/dynamic range", ip)))
		}
	}

	if anomaly := timestampAnomaly(hops); anomaly {
		findings = append(findings, types.NewFinding(types.CategoryRelay, types.SeverityLow,
			"relay timestamp ordering anomaly"))
	}

	return findings
}

// AnalyzeHygiene flags header oddities that correlate with bulk phishing
// tooling: suspicious mailer agents and missing standard headers.
func (t *Tracer) AnalyzeHygiene(hdr *headers.Model) []types.Finding {
	var findings []types.Finding

	mailer := strings.ToLower(hdr.Get("X-Mailer"))
	for _, bad := range []string{"phpmailer", "bulk", "mass", "spam"} {
		if strings.Contains(mailer, bad) {
			findings = append(findings, types.NewFinding(types.CategoryRelay, types.SeverityMedium,
				fmt.Sprintf("suspicious mail client: %s", hdr.Get("X-Mailer"))))
			break
		}
	}

	for _, required := range []string{"Message-Id", "Date"} {
		if !hdr.Has(required) {
			findings = append(findings, types.NewFinding(types.CategoryRelay, types.SeverityLow,
				fmt.Sprintf("missing standard header: %s", required)))
		}
	}

	if !hdr.Has("Received") {
		findings = append(findings, types.NewFinding(types.CategoryRelay, types.SeverityLow,
			"no Received headers present"))
	}

	return findings
}

// isResidential reports whether ip falls in a configured consumer range.
// Private, loopback and link-local space is internal infrastructure and
// never counts.
func (t *Tracer) isResidential(ip net.IP) bool {
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
		return false
	}
	for _, r := range t.residentialRanges {
		if r.Contains(ip) {
			return true
		}
	}
	return false
}

// timestampAnomaly reports whether the chain's timestamps run backwards
// (hop 0 is newest, so times must not increase with index) or are only
// partially present. Purely heuristic: many gateways omit timestamps.
func timestampAnomaly(hops []types.RelayHop) bool {
	var stamped, missing int
	var prev time.Time
	for _, hop := range hops {
		if hop.Timestamp.IsZero() {
			missing++
			continue
		}
		if stamped > 0 && hop.Timestamp.After(prev.Add(timestampSkew)) {
			return true
		}
		prev = hop.Timestamp
		stamped++
	}
	return stamped > 0 && missing > 0
}
