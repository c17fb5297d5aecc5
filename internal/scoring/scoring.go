// Package scoring combines classifier probability, forensic findings and
// URL findings into one composite verdict with an explanation trail.
package scoring

import (
	"fmt"
	"sort"

	"github.com/akashahram/Phishing-Email-Detector/internal/config"
	"github.com/akashahram/Phishing-Email-Detector/internal/types"
)

// categoryPriority breaks reason-selection ties between findings of equal
// severity and weight. Lower is more important.
var categoryPriority = map[types.Category]int{
	types.CategoryIdentity:      0,
	types.CategoryAuth:          1,
	types.CategoryTyposquat:     2,
	types.CategoryURLReputation: 3,
	types.CategoryRelay:         4,
	types.CategoryURLStructure:  5,
}

// Aggregator applies the score-aggregation policy. It is a pure merge:
// all inputs are already-final finding sets, so no locking is needed.
type Aggregator struct {
	cfg config.ScoringConfig
}

// New creates an Aggregator with the given policy knobs, falling back to
// defaults for zero values.
func New(cfg config.ScoringConfig) *Aggregator {
	if cfg.DecisionThreshold <= 0 {
		cfg.DecisionThreshold = 0.5
	}
	if cfg.MediumThreshold <= 0 {
		cfg.MediumThreshold = types.WeightFor(types.SeverityMedium)
	}
	if cfg.CorroborationBonus <= 0 {
		cfg.CorroborationBonus = 0.1
	}
	if cfg.CountBonus <= 0 {
		cfg.CountBonus = 0.05
	}
	return &Aggregator{cfg: cfg}
}

// Input carries everything the aggregation policy consumes.
type Input struct {
	MLScore           float64
	KeywordMatched    string
	ForensicsFindings []types.Finding
	URLFindings       []types.Finding
	Signals           map[string]interface{}
}

// Aggregate builds the terminal Verdict. The composite probability is the
// maximum of the three sub-scores plus a small corroboration bonus when
// independent layers agree, capped at 1.0.
func (a *Aggregator) Aggregate(in Input) *types.Verdict {
	forensicsScore := a.subScore(in.ForensicsFindings)
	urlScore := a.subScore(in.URLFindings)

	composite := in.MLScore
	if forensicsScore > composite {
		composite = forensicsScore
	}
	if urlScore > composite {
		composite = urlScore
	}

	corroborating := 0
	for _, sub := range []float64{in.MLScore, forensicsScore, urlScore} {
		if sub >= a.cfg.MediumThreshold {
			corroborating++
		}
	}
	if corroborating >= 2 {
		composite += a.cfg.CorroborationBonus * float64(corroborating-1)
	}
	if composite > 1.0 {
		composite = 1.0
	}
	if composite < 0 {
		composite = 0
	}

	prediction := 0
	if composite >= a.cfg.DecisionThreshold {
		prediction = 1
	}

	signals := in.Signals
	if signals == nil {
		signals = make(map[string]interface{})
	}
	signals["findings_count"] = len(in.ForensicsFindings) + len(in.URLFindings)

	return &types.Verdict{
		Prediction:        prediction,
		Probability:       composite,
		Reason:            a.reason(in, prediction),
		MLScore:           in.MLScore,
		URLRiskScore:      urlScore,
		ForensicsScore:    forensicsScore,
		Signals:           signals,
		URLFindings:       ordered(in.URLFindings),
		ForensicsFindings: ordered(in.ForensicsFindings),
	}
}

// subScore derives a sub-score from a finding set: the weight of the
// worst finding, plus a small bonus per additional medium-or-worse
// finding, capped at 1.0. More or worse findings never lower the score.
func (a *Aggregator) subScore(findings []types.Finding) float64 {
	if len(findings) == 0 {
		return 0
	}
	var score float64
	mediumPlus := 0
	for _, f := range findings {
		if f.Weight > score {
			score = f.Weight
		}
		if f.Severity.Rank() >= types.SeverityMedium.Rank() {
			mediumPlus++
		}
	}
	if mediumPlus > 1 {
		score += a.cfg.CountBonus * float64(mediumPlus-1)
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// reason picks the single most damning finding across both sets, ties
// broken by weight and then category priority. With no findings the
// reason falls back to the keyword or classifier signal so it is never
// empty.
func (a *Aggregator) reason(in Input, prediction int) string {
	var top *types.Finding
	for _, set := range [][]types.Finding{in.ForensicsFindings, in.URLFindings} {
		for i := range set {
			f := &set[i]
			if top == nil || moreImportant(f, top) {
				top = f
			}
		}
	}
	if top != nil {
		return top.Message
	}
	if in.KeywordMatched != "" {
		return fmt.Sprintf("phishing keyword: %q", in.KeywordMatched)
	}
	if prediction == 1 {
		return "high classifier confidence"
	}
	return "no threats detected"
}

func moreImportant(a, b *types.Finding) bool {
	if a.Severity.Rank() != b.Severity.Rank() {
		return a.Severity.Rank() > b.Severity.Rank()
	}
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	return categoryPriority[a.Category] < categoryPriority[b.Category]
}

// ordered returns findings sorted by descending severity, preserving
// insertion order within a severity.
func ordered(findings []types.Finding) []types.Finding {
	out := make([]types.Finding, len(findings))
	copy(out, findings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() > out[j].Severity.Rank()
	})
	return out
}
