package sendgrid

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/ignite/sendgrid-source/internal/pkg/logger"
)

// ErrNoRecipients is returned for a mail without any to address.
var ErrNoRecipients = errors.New("mail has no recipients")

// Address is an email address with an optional display name.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Content is one body part.
type Content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Mail is a single message sent through /mail/send.
type Mail struct {
	From       Address
	To         []Address
	Subject    string
	Text       string
	HTML       string
	ReplyTo    *Address
	CustomArgs map[string]string

	SandboxMode          bool
	FooterEnable         bool
	FooterHTML           string
	ClickTracking        bool
	OpenTracking         bool
	SubscriptionTracking bool
}

type enable struct {
	Enable bool `json:"enable"`
}

type footer struct {
	Enable bool   `json:"enable"`
	HTML   string `json:"html,omitempty"`
}

type mailSettings struct {
	SandboxMode enable  `json:"sandbox_mode"`
	Footer      *footer `json:"footer,omitempty"`
}

type trackingSettings struct {
	ClickTracking        enable `json:"click_tracking"`
	OpenTracking         enable `json:"open_tracking"`
	SubscriptionTracking enable `json:"subscription_tracking"`
}

type personalization struct {
	To         []Address         `json:"to"`
	CustomArgs map[string]string `json:"custom_args,omitempty"`
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             Address           `json:"from"`
	ReplyTo          *Address          `json:"reply_to,omitempty"`
	Subject          string            `json:"subject"`
	Content          []Content         `json:"content"`
	MailSettings     mailSettings      `json:"mail_settings"`
	TrackingSettings trackingSettings  `json:"tracking_settings"`
}

func (m Mail) payload() mailSendRequest {
	req := mailSendRequest{
		Personalizations: []personalization{{To: m.To, CustomArgs: m.CustomArgs}},
		From:             m.From,
		ReplyTo:          m.ReplyTo,
		Subject:          m.Subject,
		MailSettings:     mailSettings{SandboxMode: enable{m.SandboxMode}},
		TrackingSettings: trackingSettings{
			ClickTracking:        enable{m.ClickTracking},
			OpenTracking:         enable{m.OpenTracking},
			SubscriptionTracking: enable{m.SubscriptionTracking},
		},
	}
	// text/plain must come before text/html
	if m.Text != "" {
		req.Content = append(req.Content, Content{Type: "text/plain", Value: m.Text})
	}
	if m.HTML != "" {
		req.Content = append(req.Content, Content{Type: "text/html", Value: m.HTML})
	}
	if m.FooterEnable {
		req.MailSettings.Footer = &footer{Enable: true, HTML: m.FooterHTML}
	}
	return req
}

// SendMail delivers one message and returns its SendGrid message id. A local
// id is generated when SendGrid does not return one (sandbox mode).
func (c *Client) SendMail(ctx context.Context, m Mail) (string, error) {
	if len(m.To) == 0 {
		return "", ErrNoRecipients
	}
	if m.Text == "" && m.HTML == "" {
		return "", fmt.Errorf("mail %q has no content", m.Subject)
	}

	_, header, err := c.do(ctx, c.direct, http.MethodPost, c.url("/mail/send", nil), m.payload())
	if err != nil {
		return "", fmt.Errorf("sending mail: %w", err)
	}

	messageID := header.Get("X-Message-Id")
	if messageID == "" {
		messageID = uuid.New().String()
	}
	log.Printf("[SendGrid] Sent to %s (id: %s)", logger.RedactEmail(m.To[0].Email), messageID)
	return messageID, nil
}
