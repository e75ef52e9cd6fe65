package mailsink

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ignite/sendgrid-source/internal/config"
	"github.com/ignite/sendgrid-source/internal/pipeline"
	"github.com/ignite/sendgrid-source/internal/pkg/templates"
	"github.com/ignite/sendgrid-source/internal/sendgrid"
	"github.com/ignite/sendgrid-source/internal/sink"
)

// Sender delivers one mail.
type Sender interface {
	SendMail(ctx context.Context, m sendgrid.Mail) (string, error)
}

// Sink sends one email per row. It implements sink.Sink.
type Sink struct {
	cfg      config.MailSinkConfig
	source   RecipientSource
	fixed    []sendgrid.Address
	base     sendgrid.Mail
	sender   Sender
	renderer *templates.Renderer
}

var _ sink.Sink = (*Sink)(nil)

// New builds a mail sink. The configuration is expected to have passed
// Validate; New only reports what would make every send fail.
func New(cfg config.MailSinkConfig, sender Sender, renderer *templates.Renderer) (*Sink, error) {
	src, err := ParseRecipientSource(cfg.RecipientAddressSource)
	if err != nil {
		return nil, err
	}
	base, err := template(cfg)
	if err != nil {
		return nil, err
	}
	s := &Sink{cfg: cfg, source: src, base: base, sender: sender, renderer: renderer}
	if renderer == nil {
		s.renderer = templates.New()
	}
	if src == RecipientsFromConfig {
		if s.fixed, err = ParseAddresses(cfg.RecipientAddresses); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Write sends the batch row by row and stops at the first failed send.
func (s *Sink) Write(ctx context.Context, b sink.Batch) error {
	start := time.Now()
	sent := 0
	for i, row := range b.Rows {
		m, err := s.mailFor(b, row)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if _, err := s.sender.SendMail(ctx, m); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		sent++
	}
	log.Printf("[MailSink] Sent %d emails for %s in %v", sent, b.ReferenceName, time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *Sink) mailFor(b sink.Batch, row pipeline.Row) (sendgrid.Mail, error) {
	m := s.base
	m.CustomArgs = map[string]string{"run_id": b.RunID, "reference_name": b.ReferenceName}

	if s.source == RecipientsFromInput {
		raw, _ := row[s.cfg.RecipientColumnName].(string)
		to, err := ParseAddresses(raw)
		if err != nil {
			return m, err
		}
		m.To = to
	} else {
		m.To = append([]sendgrid.Address(nil), s.fixed...)
	}
	if len(m.To) == 0 {
		return m, sendgrid.ErrNoRecipients
	}

	vars := make(map[string]interface{}, len(row)+2)
	for k, v := range row {
		vars[k] = v
	}
	vars["run_id"] = b.RunID
	vars["reference_name"] = b.ReferenceName
	subject, err := s.renderer.Render(s.cfg.MailSubject, vars)
	if err != nil {
		return m, err
	}
	m.Subject = subject

	body, _ := row[s.cfg.BodyColumnName].(string)
	if body == "" {
		return m, fmt.Errorf("body column %q is empty", s.cfg.BodyColumnName)
	}
	m.HTML = body
	return m, nil
}
