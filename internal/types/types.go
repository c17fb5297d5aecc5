package types

import (
	"net"
	"time"
)

// Severity classifies how strongly a finding points at phishing.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for sorting and comparisons. Unknown values rank
// below low so a corrupted finding never outranks a real one.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the four defined severities.
func (s Severity) Valid() bool { return s.Rank() > 0 }

// Category groups findings by the analyzer that produced them.
type Category string

const (
	CategoryAuth          Category = "auth"
	CategoryRelay         Category = "relay"
	CategoryIdentity      Category = "identity"
	CategoryURLStructure  Category = "url-structure"
	CategoryURLReputation Category = "url-reputation"
	CategoryTyposquat     Category = "typosquat"
)

// Finding is a single piece of evidence produced by an analyzer. Findings
// are value objects; analyzers build them once and never mutate them.
type Finding struct {
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Weight   float64  `json:"-"`
}

// severityWeights is the fixed severity-to-numeric mapping used across
// the scoring policy.
var severityWeights = map[Severity]float64{
	SeverityCritical: 1.0,
	SeverityHigh:     0.7,
	SeverityMedium:   0.4,
	SeverityLow:      0.15,
}

// WeightFor returns the numeric contribution of a severity.
func WeightFor(s Severity) float64 { return severityWeights[s] }

// NewFinding builds a Finding with its weight derived from severity,
// keeping the weight-positive invariant in one place.
func NewFinding(cat Category, sev Severity, msg string) Finding {
	return Finding{Category: cat, Severity: sev, Message: msg, Weight: severityWeights[sev]}
}

// AuthOutcome is the raw result of one authentication mechanism as
// reported by the external verification step.
type AuthOutcome string

const (
	OutcomePass      AuthOutcome = "pass"
	OutcomeFail      AuthOutcome = "fail"
	OutcomeNeutral   AuthOutcome = "neutral"
	OutcomeSoftfail  AuthOutcome = "softfail"
	OutcomeNone      AuthOutcome = "none"
	OutcomePermerror AuthOutcome = "permerror"
	OutcomeTemperror AuthOutcome = "temperror"
	OutcomeUnknown   AuthOutcome = "unknown"
)

// MechanismResult carries the outcome of one mechanism plus the domain it
// authenticated, when the mechanism reports one.
type MechanismResult struct {
	Outcome AuthOutcome
	Domain  string
}

// Alignment is the DMARC alignment outcome against the visible From domain.
type Alignment string

const (
	Aligned        Alignment = "aligned"
	RelaxedAligned Alignment = "relaxed-aligned"
	Unaligned      Alignment = "unaligned"
)

// AuthResult aggregates the three mechanism results for one message.
type AuthResult struct {
	SPF       MechanismResult
	DKIM      MechanismResult
	DMARC     MechanismResult
	Alignment Alignment
}

// RelayHop is one mail-transfer-agent traversal parsed from a Received
// header. Hop 0 is the hop closest to the recipient. A hop that could not
// be parsed keeps its position with every field empty.
type RelayHop struct {
	Index     int
	FromHost  string
	FromIP    net.IP
	ByHost    string
	Timestamp time.Time
}

// URLRecord tracks one extracted URL through resolution and scoring.
type URLRecord struct {
	Raw          string
	Normalized   string
	Host         string
	FinalURL     string
	FinalHost    string
	Resolved     bool
	RedirectHops int
	RiskScore    float64
}

// EffectiveHost returns the host typosquatting and reputation checks
// should inspect: the resolved destination when available, otherwise the
// host as extracted.
func (u *URLRecord) EffectiveHost() string {
	if u.Resolved && u.FinalHost != "" {
		return u.FinalHost
	}
	return u.Host
}

// Verdict is the terminal artifact of one analysis request. It is built
// once by the aggregator and never mutated afterwards.
type Verdict struct {
	Prediction        int                    `json:"prediction"`
	Probability       float64                `json:"probability"`
	Reason            string                 `json:"reason"`
	MLScore           float64                `json:"ml_score"`
	URLRiskScore      float64                `json:"url_risk_score"`
	ForensicsScore    float64                `json:"forensics_score"`
	Signals           map[string]interface{} `json:"signals"`
	URLFindings       []Finding              `json:"url_findings"`
	ForensicsFindings []Finding              `json:"forensics_findings"`
}
