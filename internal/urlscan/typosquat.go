package urlscan

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/akashahram/Phishing-Email-Detector/internal/config"
	"github.com/akashahram/Phishing-Email-Detector/internal/types"
	"github.com/akashahram/Phishing-Email-Detector/pkg/helpers"
)

// homoglyphs maps the digit substitutions attackers use for letters.
var homoglyphs = strings.NewReplacer(
	"0", "o", "1", "l", "3", "e", "4", "a",
	"5", "s", "7", "t", "8", "b", "9", "g",
)

// Typosquat scores a hostname's similarity to the protected brand list.
type Typosquat struct {
	logger      *zap.Logger
	protected   []string
	maxDistance int
	minLen      int
}

// NewTyposquat builds the detector over the protected-domain reference
// list. List order is significant: exact distance ties report the first
// entry, keeping results deterministic.
func NewTyposquat(logger *zap.Logger, cfg *config.TyposquatConfig, ref *config.ReferenceData) *Typosquat {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Typosquat{
		logger:      logger,
		protected:   ref.ProtectedDomains,
		maxDistance: cfg.MaxDistance,
		minLen:      cfg.MinDomainLen,
	}
	if t.maxDistance <= 0 {
		t.maxDistance = 2
	}
	if t.minLen <= 0 {
		t.minLen = 6
	}
	return t
}

// Detect compares host's registrable domain against the protected list.
// An exact member yields nil: the legitimate domain is not a squat of
// itself. Only the closest match is reported.
func (t *Typosquat) Detect(host string) *types.Finding {
	domain := helpers.RegistrableDomain(strings.ToLower(host))
	if domain == "" {
		return nil
	}

	normalized := homoglyphs.Replace(domain)

	bestDistance := -1
	bestBrand := ""
	for _, brand := range t.protected {
		if domain == brand {
			return nil
		}
		if normalized == brand {
			f := types.NewFinding(types.CategoryTyposquat, types.SeverityCritical,
				fmt.Sprintf("domain %s impersonates %s via character substitution", domain, brand))
			return &f
		}
		d := levenshtein(domain, brand)
		if bestDistance < 0 || d < bestDistance {
			bestDistance = d
			bestBrand = brand
		}
	}

	switch {
	case bestDistance >= 1 && bestDistance <= t.maxDistance && len(bestBrand) >= t.minLen:
		f := types.NewFinding(types.CategoryTyposquat, types.SeverityCritical,
			fmt.Sprintf("domain %s is %d edit(s) away from protected brand %s", domain, bestDistance, bestBrand))
		return &f
	case bestDistance == t.maxDistance+1 && len(bestBrand) < 2*t.minLen:
		f := types.NewFinding(types.CategoryTyposquat, types.SeverityHigh,
			fmt.Sprintf("domain %s closely resembles protected brand %s", domain, bestBrand))
		return &f
	}
	return nil
}

// levenshtein computes the edit distance between two strings with the
// usual two-row dynamic program.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
