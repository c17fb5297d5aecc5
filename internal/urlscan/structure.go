package urlscan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	mdns "github.com/miekg/dns"
	"go.uber.org/zap"

	"github.com/akashahram/Phishing-Email-Detector/internal/config"
	"github.com/akashahram/Phishing-Email-Detector/internal/types"
)

// Structural inspects the lexical shape of a URL: obfuscation tricks,
// throwaway TLDs and hosts that do not exist at all.
type Structural struct {
	logger     *zap.Logger
	cfg        *config.URLConfig
	tlds       []string
	keywords   []string
	lookupHost func(ctx context.Context, host string) (bool, error)
}

// NewStructural builds the structural checker. Host resolution is only
// attempted when cfg.ResolveHosts is set; the DNS client respects the
// request context's deadline.
func NewStructural(logger *zap.Logger, cfg *config.URLConfig, ref *config.ReferenceData) *Structural {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Structural{
		logger:     logger,
		cfg:        cfg,
		tlds:       ref.SuspiciousTLDs,
		keywords:   ref.SuspiciousKeywords,
		lookupHost: lookupA,
	}
}

// Analyze runs every lexical heuristic over rec. All findings are
// url-structure category; none aborts the pipeline.
func (s *Structural) Analyze(ctx context.Context, rec *types.URLRecord) []types.Finding {
	var findings []types.Finding

	host := rec.EffectiveHost()
	lower := strings.ToLower(rec.Normalized)

	for _, tld := range s.tlds {
		if strings.HasSuffix(host, "."+tld) {
			findings = append(findings, types.NewFinding(types.CategoryURLStructure, types.SeverityHigh,
				fmt.Sprintf("suspicious top-level domain .%s", tld)))
			break
		}
	}

	if max := s.cfg.MaxLength; max > 0 && len(rec.Raw) > max {
		findings = append(findings, types.NewFinding(types.CategoryURLStructure, types.SeverityMedium,
			fmt.Sprintf("unusually long URL (%d characters)", len(rec.Raw))))
	}

	if max := s.cfg.MaxSubdomains; max > 0 {
		if labels := strings.Count(host, ".") + 1; labels > max && net.ParseIP(host) == nil {
			findings = append(findings, types.NewFinding(types.CategoryURLStructure, types.SeverityHigh,
				fmt.Sprintf("excessive subdomain depth (%d labels)", labels)))
		}
	}

	var matched int
	for _, kw := range s.keywords {
		if strings.Contains(lower, kw) {
			matched++
		}
	}
	if matched >= 2 {
		findings = append(findings, types.NewFinding(types.CategoryURLStructure, types.SeverityMedium,
			fmt.Sprintf("multiple credential-bait keywords in URL (%d found)", matched)))
	}

	if strings.Contains(rec.Raw, "@") {
		findings = append(findings, types.NewFinding(types.CategoryURLStructure, types.SeverityHigh,
			"@ symbol in URL hides the real destination"))
	}

	if s.cfg.ResolveHosts && net.ParseIP(host) == nil {
		if exists, err := s.lookupHost(ctx, host); err == nil && !exists {
			findings = append(findings, types.NewFinding(types.CategoryURLStructure, types.SeverityHigh,
				fmt.Sprintf("link host does not resolve: %s", host)))
		}
		// A failed lookup is transient external trouble, never a finding.
	}

	return findings
}

// lookupA asks the system resolver for an A record using miekg/dns so the
// context deadline is honored.
func lookupA(ctx context.Context, host string) (bool, error) {
	conf, err := mdns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return false, err
	}
	return queryA(ctx, conf, host)
}

func queryA(ctx context.Context, conf *mdns.ClientConfig, host string) (bool, error) {
	if len(conf.Servers) == 0 {
		return false, errors.New("no resolvers configured")
	}
	server := net.JoinHostPort(conf.Servers[0], conf.Port)
	m := new(mdns.Msg)
	m.SetQuestion(mdns.Fqdn(host), mdns.TypeA)
	r, _, err := new(mdns.Client).ExchangeContext(ctx, m, server)
	if err != nil {
		return false, err
	}
	if r.Rcode == mdns.RcodeNameError {
		return false, nil
	}
	return len(r.Answer) > 0 || r.Rcode == mdns.RcodeSuccess, nil
}
