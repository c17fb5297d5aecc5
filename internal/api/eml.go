package api

import (
	"io"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// parseEML splits a raw .eml into its header map and a best-effort plain
// body text. Parsing is tolerant: a malformed message yields whatever
// headers and text could be recovered, never an error, because forensic
// analysis of broken mail is the whole point.
func parseEML(raw []byte) (map[string][]string, string) {
	rawHeaders := make(map[string][]string)
	var body strings.Builder

	mr, err := mail.CreateReader(strings.NewReader(string(raw)))
	if err != nil {
		// Headers may still have parsed even when the body structure is
		// broken.
		if mr == nil {
			return rawHeaders, string(raw)
		}
	}

	fields := mr.Header.Fields()
	for fields.Next() {
		v, err := fields.Text()
		if err != nil {
			v = fields.Value()
		}
		rawHeaders[fields.Key()] = append(rawHeaders[fields.Key()], v)
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF || err != nil {
			break
		}
		if _, ok := p.Header.(*mail.InlineHeader); ok {
			data, _ := io.ReadAll(p.Body)
			body.Write(data)
			body.WriteString(" ")
		}
	}

	return rawHeaders, strings.Join(strings.Fields(body.String()), " ")
}
