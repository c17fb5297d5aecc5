package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDerivedFields(t *testing.T) {
	m := New(map[string][]string{
		"From":        {`"PayPal Support" <service@paypa1.com>`},
		"Reply-To":    {"collector@gmail.com"},
		"Return-Path": {"<bounce@mailer.paypa1.com>"},
	})

	assert.Equal(t, "service@paypa1.com", m.FromAddress)
	assert.Equal(t, "PayPal Support", m.FromDisplayName)
	assert.Equal(t, "paypa1.com", m.FromDomain)
	assert.Equal(t, "collector@gmail.com", m.ReplyToAddress)
	assert.Equal(t, "gmail.com", m.ReplyToDomain)
	assert.Equal(t, "bounce@mailer.paypa1.com", m.ReturnPathAddress)
	assert.Equal(t, "mailer.paypa1.com", m.ReturnPathDomain)
}

func TestNewCaseInsensitiveLookup(t *testing.T) {
	m := New(map[string][]string{"x-mailer": {"PHPMailer 6.0"}})

	assert.Equal(t, "PHPMailer 6.0", m.Get("X-Mailer"))
	assert.True(t, m.Has("X-MAILER"))
	assert.False(t, m.Has("Message-Id"))
}

func TestNewPreservesReceivedOrder(t *testing.T) {
	m := New(map[string][]string{
		"Received": {"from a by b", "from b by c", "from c by d"},
	})

	got := m.Values("Received")
	assert.Equal(t, []string{"from a by b", "from b by c", "from c by d"}, got)
}

func TestNewMalformedAddresses(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		wantAddr string
		wantName string
	}{
		{"bare address", "user@example.com", "user@example.com", ""},
		{"missing closing bracket", "Support <help@example.com", "help@example.com", "Support"},
		{"trailing comma", "<bounce@x.example>,", "bounce@x.example", ""},
		{"garbage", "not an address", "", ""},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(map[string][]string{"From": {tt.from}})
			assert.Equal(t, tt.wantAddr, m.FromAddress)
			assert.Equal(t, tt.wantName, m.FromDisplayName)
		})
	}
}
