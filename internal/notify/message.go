// Package notify delivers lead notification email through a Redis stream so
// the request path never waits on SMTP.
package notify

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/folio/folio/internal/model"
)

// Message kinds.
const (
	KindLeadOwner = "lead_owner"
	KindLeadAck   = "lead_ack"
)

const (
	maxSubjectLength = 200
	maxBodyLength    = 20000
)

// Message is one outbound email as carried on the stream.
type Message struct {
	Kind      string `json:"k"`
	To        string `json:"to"`
	ReplyTo   string `json:"rt,omitempty"`
	Subject   string `json:"s"`
	Body      string `json:"b"`
	LeadID    string `json:"lid,omitempty"`
	CreatedAt int64  `json:"t"` // Unix milliseconds
}

// Validate rejects messages the worker cannot deliver.
func (m Message) Validate() error {
	switch m.Kind {
	case KindLeadOwner, KindLeadAck:
	default:
		return fmt.Errorf("unknown kind %q", m.Kind)
	}
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("to: %w", err)
	}
	if m.ReplyTo != "" {
		if _, err := mail.ParseAddress(m.ReplyTo); err != nil {
			return fmt.Errorf("reply_to: %w", err)
		}
	}
	if m.Subject == "" {
		return errors.New("subject is required")
	}
	if len(m.Subject) > maxSubjectLength {
		return errors.New("subject too long")
	}
	if len(m.Body) > maxBodyLength {
		return errors.New("body too long")
	}
	if m.CreatedAt <= 0 {
		return errors.New("created_at must be set")
	}
	return nil
}

// LeadMessages builds the owner notification and the submitter
// acknowledgement for a new lead. The owner message is omitted when
// ownerEmail is empty.
func LeadMessages(lead *model.Lead, ownerEmail string, now time.Time) []Message {
	ts := now.UnixMilli()
	out := make([]Message, 0, 2)

	if ownerEmail != "" {
		var b strings.Builder
		fmt.Fprintf(&b, "New lead from %s <%s>\n\n", lead.Name, lead.Email)
		fmt.Fprintf(&b, "Page: %s (%s)\n", lead.Page, lead.Path)
		if lead.Country != "" {
			fmt.Fprintf(&b, "Country: %s (%s)\n", lead.Country, lead.CountryCode)
		}
		fmt.Fprintf(&b, "\n%s\n", lead.Message)

		out = append(out, Message{
			Kind:      KindLeadOwner,
			To:        ownerEmail,
			ReplyTo:   lead.Email,
			Subject:   truncate("New lead: "+lead.Name, maxSubjectLength),
			Body:      truncate(b.String(), maxBodyLength),
			LeadID:    lead.ID.Hex(),
			CreatedAt: ts,
		})
	}

	out = append(out, Message{
		Kind:    KindLeadAck,
		To:      lead.Email,
		Subject: "Thanks for getting in touch",
		Body: fmt.Sprintf("Hi %s,\n\nThanks for your message. I have received it and will get back to you soon.\n",
			lead.Name),
		LeadID:    lead.ID.Hex(),
		CreatedAt: ts,
	})
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
