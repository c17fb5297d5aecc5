package authalign

import (
	"github.com/emersion/go-msgauth/authres"

	"github.com/akashahram/Phishing-Email-Detector/internal/headers"
	"github.com/akashahram/Phishing-Email-Detector/internal/types"
)

// FromHeader extracts mechanism results from the Authentication-Results
// headers stamped by the receiving infrastructure. This is the usual
// source of the externally-verified results on the API path, where the
// original SMTP session is long gone.
//
// Every Authentication-Results value is parsed; for each mechanism the
// worst reported outcome wins, so a downstream forwarder cannot launder a
// failure recorded at the boundary.
func FromHeader(hdr *headers.Model) types.AuthResult {
	res := types.AuthResult{
		SPF:   types.MechanismResult{Outcome: types.OutcomeUnknown},
		DKIM:  types.MechanismResult{Outcome: types.OutcomeUnknown},
		DMARC: types.MechanismResult{Outcome: types.OutcomeUnknown},
	}

	for _, raw := range hdr.Values("Authentication-Results") {
		_, results, err := authres.Parse(raw)
		if err != nil {
			continue
		}
		for _, r := range results {
			switch v := r.(type) {
			case *authres.SPFResult:
				merge(&res.SPF, outcomeFor(v.Value), domainFromAddr(v.From))
			case *authres.DKIMResult:
				merge(&res.DKIM, outcomeFor(v.Value), v.Domain)
			case *authres.DMARCResult:
				merge(&res.DMARC, outcomeFor(v.Value), v.From)
			}
		}
	}

	if res.DMARC.Outcome == types.OutcomeUnknown && hdr.Has("Authentication-Results") {
		// The receiver evaluated authentication but recorded no DMARC
		// verdict, which in practice means no policy was found.
		res.DMARC.Outcome = types.OutcomeNone
	}

	return res
}

// merge keeps the worse of the current and the newly-seen outcome.
func merge(mech *types.MechanismResult, outcome types.AuthOutcome, domain string) {
	if severity(outcome) >= severity(mech.Outcome) {
		mech.Outcome = outcome
		if domain != "" {
			mech.Domain = domain
		}
	}
}

// severity orders outcomes from benign to damning for merge purposes.
func severity(o types.AuthOutcome) int {
	switch o {
	case types.OutcomeFail:
		return 6
	case types.OutcomeSoftfail:
		return 5
	case types.OutcomePermerror, types.OutcomeTemperror:
		return 4
	case types.OutcomeNeutral:
		return 3
	case types.OutcomeNone:
		return 2
	case types.OutcomePass:
		return 1
	default:
		return 0
	}
}

func outcomeFor(v authres.ResultValue) types.AuthOutcome {
	switch v {
	case authres.ResultPass:
		return types.OutcomePass
	case authres.ResultFail:
		return types.OutcomeFail
	case authres.ResultNeutral:
		return types.OutcomeNeutral
	case authres.ResultSoftFail:
		return types.OutcomeSoftfail
	case authres.ResultNone:
		return types.OutcomeNone
	case authres.ResultPermError:
		return types.OutcomePermerror
	case authres.ResultTempError:
		return types.OutcomeTemperror
	default:
		return types.OutcomeUnknown
	}
}

func domainFromAddr(from string) string {
	for i := len(from) - 1; i >= 0; i-- {
		if from[i] == '@' {
			return from[i+1:]
		}
	}
	return from
}
