package headers

import (
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/akashahram/Phishing-Email-Detector/pkg/helpers"
)

// Model is the typed, immutable view of a raw header block. Header names
// are case-insensitive and values keep their original order, which
// matters for Received chains. Derived identity fields are empty strings
// when absent or unparseable; absence is a valid state downstream
// analyzers must tolerate.
type Model struct {
	fields textproto.MIMEHeader

	FromAddress       string
	FromDisplayName   string
	FromDomain        string
	ReplyToAddress    string
	ReplyToDomain     string
	ReturnPathAddress string
	ReturnPathDomain  string
}

// New builds a Model from a raw name→values map. It never fails: a
// malformed header block yields a Model with empty derived fields.
func New(raw map[string][]string) *Model {
	fields := make(textproto.MIMEHeader, len(raw))
	for name, values := range raw {
		key := textproto.CanonicalMIMEHeaderKey(name)
		fields[key] = append(fields[key], values...)
	}

	m := &Model{fields: fields}

	if addr, name := parseAddress(m.Get("From")); addr != "" {
		m.FromAddress = addr
		m.FromDisplayName = name
		m.FromDomain = helpers.ExtractDomain(addr)
	}
	if addr, _ := parseAddress(m.Get("Reply-To")); addr != "" {
		m.ReplyToAddress = addr
		m.ReplyToDomain = helpers.ExtractDomain(addr)
	}
	if addr, _ := parseAddress(m.Get("Return-Path")); addr != "" {
		m.ReturnPathAddress = addr
		m.ReturnPathDomain = helpers.ExtractDomain(addr)
	}

	return m
}

// Get returns the first value for the named header or "".
func (m *Model) Get(name string) string {
	return m.fields.Get(name)
}

// Values returns every value for the named header in insertion order.
func (m *Model) Values(name string) []string {
	return m.fields[textproto.CanonicalMIMEHeaderKey(name)]
}

// Has reports whether the named header is present at all.
func (m *Model) Has(name string) bool {
	return len(m.Values(name)) > 0
}

// parseAddress extracts the bare address and display name from a header
// value, tolerating the malformed forms phishing mail routinely carries.
func parseAddress(value string) (addr, displayName string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ""
	}
	if parsed, err := mail.ParseAddress(value); err == nil {
		return strings.ToLower(parsed.Address), parsed.Name
	}
	// Fallback for bare or angle-bracketed addresses mail.ParseAddress
	// rejects, e.g. "<bounce@x.y>," or "Name <a@b" with a missing bracket.
	if i := strings.LastIndex(value, "<"); i >= 0 {
		displayName = strings.Trim(strings.TrimSpace(value[:i]), `"`)
		value = value[i+1:]
		value = strings.Trim(value, "<> ,")
	}
	if strings.Count(value, "@") == 1 {
		return strings.ToLower(strings.TrimSpace(value)), displayName
	}
	return "", displayName
}
