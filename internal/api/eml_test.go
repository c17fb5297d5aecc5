package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEML(t *testing.T) {
	eml := strings.Join([]string{
		"From: Alice <alice@example.com>",
		"To: bob@example.com",
		"Subject: lunch",
		"Received: from a.example by b.example; Mon, 02 Mar 2026 10:00:00 +0000",
		"Received: from c.example by a.example; Mon, 02 Mar 2026 09:59:00 +0000",
		"Content-Type: text/plain",
		"",
		"Are you free    for lunch",
		"tomorrow?",
	}, "\r\n")

	rawHeaders, body := parseEML([]byte(eml))

	require.NotEmpty(t, rawHeaders)
	assert.Equal(t, []string{"Alice <alice@example.com>"}, rawHeaders["From"])
	assert.Len(t, rawHeaders["Received"], 2)
	assert.Equal(t, "Are you free for lunch tomorrow?", body)
}

func TestParseEMLMultipart(t *testing.T) {
	eml := strings.Join([]string{
		"From: sender@example.com",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="frontier"`,
		"",
		"--frontier",
		"Content-Type: text/plain",
		"",
		"plain body here",
		"--frontier",
		"Content-Type: text/html",
		"",
		"<p>html body here</p>",
		"--frontier--",
	}, "\r\n")

	_, body := parseEML([]byte(eml))
	assert.Contains(t, body, "plain body here")
}

func TestParseEMLGarbage(t *testing.T) {
	rawHeaders, _ := parseEML([]byte("this is not an email at all"))
	// Nothing recoverable still yields usable inputs for the analyzer.
	assert.NotNil(t, rawHeaders)
}
