// Package authalign interprets SPF, DKIM and DMARC check results against
// the visible From domain. The cryptographic verification itself happens
// elsewhere; this package only decides what an already-computed result
// means for the message.
package authalign

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/akashahram/Phishing-Email-Detector/internal/headers"
	"github.com/akashahram/Phishing-Email-Detector/internal/types"
	"github.com/akashahram/Phishing-Email-Detector/pkg/helpers"
)

// Aligner turns raw mechanism results into identity-alignment findings.
type Aligner struct {
	logger *zap.Logger
}

// New creates an Aligner. A nil logger is replaced with a no-op one.
func New(logger *zap.Logger) *Aligner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aligner{logger: logger}
}

// Alignment computes the DMARC alignment outcome of the authenticated
// domains against fromDomain. Exact match on a passing mechanism is
// aligned, an organizational match is relaxed-aligned, anything else is
// unaligned.
func (a *Aligner) Alignment(fromDomain string, res types.AuthResult) types.Alignment {
	if fromDomain == "" {
		return types.Unaligned
	}
	best := types.Unaligned
	for _, mech := range []types.MechanismResult{res.SPF, res.DKIM} {
		if mech.Outcome != types.OutcomePass || mech.Domain == "" {
			continue
		}
		if mech.Domain == fromDomain {
			return types.Aligned
		}
		if helpers.SameOrganization(mech.Domain, fromDomain) {
			best = types.RelaxedAligned
		}
	}
	return best
}

// Analyze applies the authentication finding policy. It is a pure
// function of the header model and the supplied results; it performs no
// lookups of its own.
func (a *Aligner) Analyze(hdr *headers.Model, res types.AuthResult) []types.Finding {
	var findings []types.Finding

	// Infrastructure errors are informational, not evidence of malice.
	// Fixed mechanism order keeps the finding sequence stable across runs.
	for _, m := range []struct {
		name string
		mech types.MechanismResult
	}{
		{"SPF", res.SPF}, {"DKIM", res.DKIM}, {"DMARC", res.DMARC},
	} {
		name, mech := m.name, m.mech
		if mech.Outcome == types.OutcomePermerror || mech.Outcome == types.OutcomeTemperror {
			findings = append(findings, types.NewFinding(types.CategoryAuth, types.SeverityLow,
				fmt.Sprintf("%s check returned %s (infrastructure error, not penalized)", name, mech.Outcome)))
		}
	}

	alignment := res.Alignment
	if alignment == "" {
		alignment = a.Alignment(hdr.FromDomain, res)
	}

	spfFailed := res.SPF.Outcome == types.OutcomeFail || res.SPF.Outcome == types.OutcomeSoftfail
	dkimFailed := res.DKIM.Outcome == types.OutcomeFail
	anyPass := res.SPF.Outcome == types.OutcomePass || res.DKIM.Outcome == types.OutcomePass

	switch {
	case res.DMARC.Outcome == types.OutcomeFail && spfFailed && dkimFailed:
		findings = append(findings, types.NewFinding(types.CategoryAuth, types.SeverityCritical,
			"complete authentication failure: SPF, DKIM and DMARC all failed"))
	case res.DMARC.Outcome == types.OutcomeFail && anyPass && alignment == types.Unaligned:
		findings = append(findings, types.NewFinding(types.CategoryAuth, types.SeverityHigh,
			fmt.Sprintf("DMARC failed: a mechanism passed but its domain is not aligned with %s", hdr.FromDomain)))
	case res.DMARC.Outcome == types.OutcomeFail:
		findings = append(findings, types.NewFinding(types.CategoryAuth, types.SeverityHigh,
			"DMARC policy check failed"))
	case res.DMARC.Outcome == types.OutcomeNone:
		findings = append(findings, types.NewFinding(types.CategoryAuth, types.SeverityMedium,
			"no DMARC policy published for sender domain"))
	}

	// Individual mechanism failures still matter when DMARC did not
	// already condemn the message.
	if res.DMARC.Outcome != types.OutcomeFail {
		if res.SPF.Outcome == types.OutcomeFail {
			findings = append(findings, types.NewFinding(types.CategoryAuth, types.SeverityHigh,
				"SPF authentication failed, sender may be spoofed"))
		} else if res.SPF.Outcome == types.OutcomeSoftfail {
			findings = append(findings, types.NewFinding(types.CategoryAuth, types.SeverityMedium,
				"SPF soft-failed for sender domain"))
		}
		if dkimFailed {
			findings = append(findings, types.NewFinding(types.CategoryAuth, types.SeverityHigh,
				"DKIM signature verification failed"))
		}
	}

	a.logger.Debug("authentication alignment analyzed",
		zap.String("from_domain", hdr.FromDomain),
		zap.String("spf", string(res.SPF.Outcome)),
		zap.String("dkim", string(res.DKIM.Outcome)),
		zap.String("dmarc", string(res.DMARC.Outcome)),
		zap.String("alignment", string(alignment)),
		zap.Int("findings", len(findings)))

	return findings
}
