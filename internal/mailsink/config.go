// Package mailsink delivers every row of an extract run as one SendGrid email.
// Recipients come either from the sink configuration or from a column of the
// input rows.
package mailsink

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/ignite/sendgrid-source/internal/config"
	"github.com/ignite/sendgrid-source/internal/sendgrid"
)

// Property keys of the mail sink.
const (
	PropertyAPIKey                 = "apiKey"
	PropertyFrom                   = "from"
	PropertyMailSubject            = "mailSubject"
	PropertyRecipientAddressSource = "recipientAddressSource"
	PropertyRecipientAddresses     = "recipientAddresses"
	PropertyRecipientColumnName    = "recipientColumnName"
	PropertyBodyColumnName         = "bodyColumnName"
	PropertyReplyTo                = "replyTo"
	PropertyFooterEnable           = "footerEnable"
	PropertyFooterHTML             = "footerHTML"
	PropertySandboxMode            = "sandboxMode"
	PropertyClickTracking          = "clickTracking"
	PropertyOpenTracking           = "openTracking"
	PropertySubscriptionTracking   = "subscriptionTracking"
)

// RecipientSource says where the to addresses of each mail come from.
type RecipientSource string

const (
	RecipientsFromConfig RecipientSource = "config"
	RecipientsFromInput  RecipientSource = "input"
)

// ErrUnknownRecipientSource is returned for anything but config or input.
var ErrUnknownRecipientSource = errors.New("unknown recipient address source")

// ParseRecipientSource parses a recipient source token, ignoring case.
func ParseRecipientSource(token string) (RecipientSource, error) {
	switch RecipientSource(strings.ToLower(strings.TrimSpace(token))) {
	case RecipientsFromConfig:
		return RecipientsFromConfig, nil
	case RecipientsFromInput:
		return RecipientsFromInput, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRecipientSource, token)
}

// SplitAddresses splits a comma separated address list, dropping blanks.
func SplitAddresses(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseAddress parses one address, with or without a display name.
func ParseAddress(s string) (sendgrid.Address, error) {
	a, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return sendgrid.Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return sendgrid.Address{Email: a.Address, Name: a.Name}, nil
}

// ParseAddresses parses a comma separated list.
func ParseAddresses(list string) ([]sendgrid.Address, error) {
	var out []sendgrid.Address
	for _, s := range SplitAddresses(list) {
		a, err := ParseAddress(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// template returns the Mail fields shared by every row.
func template(cfg config.MailSinkConfig) (sendgrid.Mail, error) {
	from, err := ParseAddress(cfg.From)
	if err != nil {
		return sendgrid.Mail{}, fmt.Errorf("from: %w", err)
	}
	m := sendgrid.Mail{
		From:                 from,
		SandboxMode:          cfg.SandboxMode,
		FooterEnable:         cfg.FooterEnable,
		FooterHTML:           cfg.FooterHTML,
		ClickTracking:        cfg.ClickTracking,
		OpenTracking:         cfg.OpenTracking,
		SubscriptionTracking: cfg.SubscriptionTracking,
	}
	if cfg.ReplyTo != "" {
		replyTo, err := ParseAddress(cfg.ReplyTo)
		if err != nil {
			return sendgrid.Mail{}, fmt.Errorf("reply to: %w", err)
		}
		m.ReplyTo = &replyTo
	}
	return m, nil
}
