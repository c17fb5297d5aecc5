package helpers

import (
	"strings"

	uuid "github.com/satori/go.uuid"
	"golang.org/x/net/publicsuffix"
)

// ExtractDomain returns the domain part of an address, lowercased, or ""
// when the address has no usable domain.
func ExtractDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return strings.ToLower(strings.Trim(parts[1], "<> "))
	}
	return ""
}

// RegistrableDomain reduces a host to its organizational domain
// (eTLD+1). Hosts that have no public suffix come back unchanged so
// callers can still compare them textually.
func RegistrableDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	org, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return org
}

// SameOrganization reports whether two hosts share a registrable domain.
func SameOrganization(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(RegistrableDomain(a), RegistrableDomain(b))
}

// GenerateCorrelationID returns a fresh request correlation id.
func GenerateCorrelationID() string {
	return uuid.NewV4().String()
}

// ValidSender reports whether the address has a non-empty local part and
// domain. Deliberately lax: forensic analysis wants to see bad senders,
// not reject them.
func ValidSender(sender string) bool {
	parts := strings.Split(sender, "@")
	if len(parts) != 2 {
		return false
	}
	return parts[0] != "" && parts[1] != ""
}
