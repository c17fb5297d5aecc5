// Package identity compares the From, Reply-To and Return-Path
// identities of a message for spoofing signals.
package identity

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/akashahram/Phishing-Email-Detector/internal/config"
	"github.com/akashahram/Phishing-Email-Detector/internal/headers"
	"github.com/akashahram/Phishing-Email-Detector/internal/types"
	"github.com/akashahram/Phishing-Email-Detector/pkg/helpers"
)

// Detector holds the brand reference data the comparison policy needs.
type Detector struct {
	logger *zap.Logger
	ref    *config.ReferenceData
}

// New creates a Detector over the given reference data.
func New(logger *zap.Logger, ref *config.ReferenceData) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{logger: logger, ref: ref}
}

// Analyze applies the mismatch policy. Absent identity fields produce no
// findings: absence is a valid state, not evidence of phishing.
func (d *Detector) Analyze(hdr *headers.Model) []types.Finding {
	var findings []types.Finding

	fromDomain := hdr.FromDomain

	// Display-name brand impersonation outranks everything else here.
	if hdr.FromDisplayName != "" && fromDomain != "" {
		if brand := d.ref.BrandForToken(hdr.FromDisplayName); brand != nil && !brand.IsBrandDomain(helpers.RegistrableDomain(fromDomain)) {
			findings = append(findings, types.NewFinding(types.CategoryIdentity, types.SeverityCritical,
				fmt.Sprintf("display name %q impersonates %s but sender domain is %s",
					hdr.FromDisplayName, brand.Token, fromDomain)))
		}
	}

	if fromDomain != "" && hdr.ReturnPathDomain != "" &&
		fromDomain != hdr.ReturnPathDomain &&
		!helpers.SameOrganization(fromDomain, hdr.ReturnPathDomain) {
		findings = append(findings, types.NewFinding(types.CategoryIdentity, types.SeverityHigh,
			fmt.Sprintf("From domain (%s) does not match Return-Path domain (%s)",
				fromDomain, hdr.ReturnPathDomain)))
	}

	if fromDomain != "" && hdr.ReplyToDomain != "" && fromDomain != hdr.ReplyToDomain {
		severity := types.SeverityMedium
		detail := "reply routing diverges from sender"
		if d.ref.IsFreemail(hdr.ReplyToDomain) {
			// Replies siphoned to a throwaway freemail box is a classic
			// BEC pattern; escalate.
			severity = types.SeverityHigh
			detail = "replies are routed to a free mail provider"
		}
		findings = append(findings, types.NewFinding(types.CategoryIdentity, severity,
			fmt.Sprintf("%s: From %s, Reply-To %s", detail, fromDomain, hdr.ReplyToDomain)))
	}

	d.logger.Debug("identity mismatch analysis",
		zap.String("from", fromDomain),
		zap.String("reply_to", hdr.ReplyToDomain),
		zap.String("return_path", hdr.ReturnPathDomain),
		zap.Int("findings", len(findings)))

	return findings
}
