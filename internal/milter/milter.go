// Package milt integrates the detector with an MTA over the milter
// protocol, scoring messages during the SMTP transaction and stamping
// verdict headers.
package milt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-milter"
	mdns "github.com/miekg/dns"
	wspf "github.com/wttw/spf"
	"go.uber.org/zap"

	"github.com/akashahram/Phishing-Email-Detector/internal/analyzer"
	"github.com/akashahram/Phishing-Email-Detector/internal/types"
	"github.com/akashahram/Phishing-Email-Detector/pkg/helpers"
)

// Session tracks one SMTP transaction through the milter callbacks.
type Session struct {
	logger     *zap.Logger
	analyzer   *analyzer.Analyzer
	spfTimeout time.Duration

	id         string
	from       string
	heloHost   string
	clientIP   net.IP
	recipients []string
	headers    textproto.MIMEHeader
	rawBody    bytes.Buffer
}

// Reset clears all per-message fields so the Session can be reused.
func (s *Session) Reset() {
	s.id = ""
	s.from = ""
	s.heloHost = ""
	s.clientIP = nil
	s.recipients = nil
	s.headers = nil
	s.rawBody.Reset()
}

var sessionPool = sync.Pool{
	New: func() interface{} { return new(Session) },
}

// NewSession takes a Session from the pool for a fresh transaction.
func NewSession(logger *zap.Logger, a *analyzer.Analyzer, spfTimeout time.Duration) *Session {
	s := sessionPool.Get().(*Session)
	s.Reset()
	s.logger = logger
	s.analyzer = a
	s.spfTimeout = spfTimeout
	s.headers = make(textproto.MIMEHeader)
	return s
}

func (s *Session) Connect(host string, family string, port uint16, addr net.IP, m *milter.Modifier) (milter.Response, error) {
	s.id = helpers.GenerateCorrelationID()
	s.clientIP = addr
	s.logger.Debug("milter connect",
		zap.String("host", host),
		zap.String("addr", addr.String()),
		zap.String("correlation_id", s.id))
	return milter.RespContinue, nil
}

func (s *Session) Helo(name string, m *milter.Modifier) (milter.Response, error) {
	s.heloHost = name
	return milter.RespContinue, nil
}

func (s *Session) MailFrom(from string, m *milter.Modifier) (milter.Response, error) {
	s.from = from
	return milter.RespContinue, nil
}

func (s *Session) RcptTo(rcptTo string, m *milter.Modifier) (milter.Response, error) {
	s.recipients = append(s.recipients, rcptTo)
	return milter.RespContinue, nil
}

func (s *Session) Header(name string, value string, m *milter.Modifier) (milter.Response, error) {
	s.headers.Add(name, value)
	return milter.RespContinue, nil
}

func (s *Session) Headers(h textproto.MIMEHeader, m *milter.Modifier) (milter.Response, error) {
	s.headers = h
	return milter.RespContinue, nil
}

func (s *Session) BodyChunk(chunk []byte, m *milter.Modifier) (milter.Response, error) {
	s.rawBody.Write(chunk)
	return milter.RespContinue, nil
}

// Body fires once the full message is buffered: it runs the live SPF
// check, hands everything to the analyzer and stamps the verdict headers.
// Analysis trouble always continues the message; a milter must never eat
// mail because the detector had a bad day.
func (s *Session) Body(m *milter.Modifier) (milter.Response, error) {
	start := time.Now()
	ctx := context.Background()

	bodyText := s.extractBodyText()

	req := analyzer.Request{
		RawHeaders: map[string][]string(s.headers),
		BodyText:   bodyText,
	}
	if auth := s.liveAuthResult(ctx); auth != nil {
		req.AuthResult = auth
	}

	verdict, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		s.logger.Error("analysis failed, letting message through",
			zap.String("correlation_id", s.id), zap.Error(err))
		return milter.RespContinue, nil
	}

	if m != nil {
		m.AddHeader("X-Phish-Score", fmt.Sprintf("%.4f", verdict.Probability))
		m.AddHeader("X-Phish-Reason", verdict.Reason)
		if verdict.Prediction == 1 {
			m.AddHeader("X-Phish-Status", "YES")
		} else {
			m.AddHeader("X-Phish-Status", "NO")
		}
	}

	s.logger.Info("message scored",
		zap.String("correlation_id", s.id),
		zap.String("from", s.from),
		zap.Strings("recipients", s.recipients),
		zap.Int("prediction", verdict.Prediction),
		zap.Float64("probability", verdict.Probability),
		zap.Duration("duration", time.Since(start)))

	return milter.RespContinue, nil
}

func (s *Session) Abort(m *milter.Modifier) error {
	return nil
}

// Close returns the session to the pool.
func (s *Session) Close() error {
	s.Reset()
	sessionPool.Put(s)
	return nil
}

// extractBodyText walks the MIME structure and concatenates the inline
// text parts. On parse failure the raw buffer is used as-is.
func (s *Session) extractBodyText() string {
	var full bytes.Buffer
	for k, vv := range s.headers {
		for _, v := range vv {
			fmt.Fprintf(&full, "%s: %s\r\n", k, v)
		}
	}
	full.WriteString("\r\n")
	full.Write(s.rawBody.Bytes())

	mr, err := mail.CreateReader(bytes.NewReader(full.Bytes()))
	if err != nil {
		return s.rawBody.String()
	}

	var text strings.Builder
	for {
		p, err := mr.NextPart()
		if err == io.EOF || err != nil {
			break
		}
		if _, ok := p.Header.(*mail.InlineHeader); ok {
			data, _ := io.ReadAll(p.Body)
			text.Write(data)
			text.WriteString(" ")
		}
	}
	return strings.Join(strings.Fields(text.String()), " ")
}

// liveAuthResult runs the SPF check for the connecting client while the
// transaction is still open. DKIM and DMARC results still come from the
// Authentication-Results headers upstream verifiers stamped; a live SPF
// result for the actual client IP simply outranks a recorded one.
func (s *Session) liveAuthResult(ctx context.Context) *types.AuthResult {
	domain := helpers.ExtractDomain(s.from)
	if domain == "" || s.clientIP == nil {
		return nil
	}

	timeout := s.spfTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	checker := wspf.NewChecker()
	r := checker.CheckHost(cctx, s.clientIP, mdns.Fqdn(domain), s.from, s.heloHost)
	if r.Error != nil {
		s.logger.Debug("live spf check failed",
			zap.String("correlation_id", s.id), zap.Error(r.Error))
		return nil
	}

	return &types.AuthResult{
		SPF:   types.MechanismResult{Outcome: outcomeFromSPF(r.Type.String()), Domain: domain},
		DKIM:  types.MechanismResult{Outcome: types.OutcomeUnknown},
		DMARC: types.MechanismResult{Outcome: types.OutcomeUnknown},
	}
}

func outcomeFromSPF(result string) types.AuthOutcome {
	switch strings.ToLower(result) {
	case "pass":
		return types.OutcomePass
	case "fail":
		return types.OutcomeFail
	case "softfail":
		return types.OutcomeSoftfail
	case "neutral":
		return types.OutcomeNeutral
	case "none":
		return types.OutcomeNone
	case "permerror":
		return types.OutcomePermerror
	case "temperror":
		return types.OutcomeTemperror
	default:
		return types.OutcomeUnknown
	}
}
