// Package notify sends the post-run email of an extract run. Whether it runs
// depends on the configured run condition and the outcome of the run.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ignite/sendgrid-source/internal/config"
	"github.com/ignite/sendgrid-source/internal/pkg/logger"
	"github.com/ignite/sendgrid-source/internal/pkg/templates"
	"github.com/ignite/sendgrid-source/internal/validation"
)

// Property keys of the post-run action.
const (
	PropertyFrom         = "from"
	PropertyTo           = "to"
	PropertySubject      = "subject"
	PropertyContent      = "content"
	PropertyAPIKey       = "apiKey"
	PropertyRunCondition = "runCondition"
	PropertyTransport    = "transport"
)

// DefaultContent is used when no content template is configured.
const DefaultContent = "Run {{ run_id }} of {{ reference_name }} finished with status {{ status }}. " +
	"{{ rows | number_with_delimiter }} rows were extracted.{% if error %} Error: {{ error }}{% endif %}"

// RunCondition selects which run outcomes trigger the action.
type RunCondition string

const (
	OnCompletion RunCondition = "completion"
	OnSuccess    RunCondition = "success"
	OnFailure    RunCondition = "failure"
)

// Transport names the mail provider used for the notification.
type Transport string

const (
	TransportSendGrid Transport = "sendgrid"
	TransportSES      Transport = "ses"
)

var (
	ErrUnknownRunCondition = errors.New("unknown run condition")
	ErrUnknownTransport    = errors.New("unknown transport")
)

// ParseRunCondition parses a run condition, ignoring case.
func ParseRunCondition(s string) (RunCondition, error) {
	switch c := RunCondition(strings.ToLower(strings.TrimSpace(s))); c {
	case OnCompletion, OnSuccess, OnFailure:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRunCondition, s)
}

// ParseTransport parses a transport name, ignoring case.
func ParseTransport(s string) (Transport, error) {
	switch t := Transport(strings.ToLower(strings.TrimSpace(s))); t {
	case TransportSendGrid, TransportSES:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTransport, s)
}

// Status is the outcome of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ShouldRun reports whether a run with the given outcome triggers c.
func (c RunCondition) ShouldRun(s Status) bool {
	switch c {
	case OnCompletion:
		return true
	case OnSuccess:
		return s == StatusSucceeded
	case OnFailure:
		return s == StatusFailed
	}
	return false
}

// Summary describes a finished run. Its fields are available to the subject
// and content templates.
type Summary struct {
	RunID         string
	ReferenceName string
	Status        Status
	Rows          int
	Objects       []string
	Err           error
	StartedAt     time.Time
	FinishedAt    time.Time
}

func (s Summary) vars() map[string]interface{} {
	v := map[string]interface{}{
		"run_id":         s.RunID,
		"reference_name": s.ReferenceName,
		"status":         string(s.Status),
		"rows":           s.Rows,
		"objects":        strings.Join(s.Objects, ", "),
		"started_at":     s.StartedAt.UTC().Format(time.RFC3339),
		"finished_at":    s.FinishedAt.UTC().Format(time.RFC3339),
		"duration":       s.FinishedAt.Sub(s.StartedAt).Round(time.Second).String(),
		"error":          nil,
	}
	if s.Err != nil {
		v["error"] = s.Err.Error()
	}
	return v
}

// Message is a plain text notification.
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
}

// Mailer delivers a notification and returns the provider message id.
type Mailer interface {
	Send(ctx context.Context, m Message) (string, error)
}

// Validate checks a post-run action configuration.
func Validate(cfg config.NotifyConfig) []validation.Failure {
	var c validation.Collector
	if cfg.From == "" {
		c.Add(validation.MissingRequiredField, "Sender address is not set", PropertyFrom)
	}
	if len(recipients(cfg.To)) == 0 {
		c.Add(validation.MissingRequiredField, "Recipient addresses are not set", PropertyTo)
	}

	r := templates.New()
	if cfg.Subject == "" {
		c.Add(validation.MissingRequiredField, "Subject is not set", PropertySubject)
	} else if err := r.Parse(cfg.Subject); err != nil {
		c.AddCause(validation.MalformedTemplate, "Subject is not a valid template", err, PropertySubject)
	}
	if cfg.Content != "" {
		if err := r.Parse(cfg.Content); err != nil {
			c.AddCause(validation.MalformedTemplate, "Content is not a valid template", err, PropertyContent)
		}
	}

	if _, err := ParseRunCondition(cfg.RunCondition); err != nil {
		c.Add(validation.InvalidEnumValue,
			fmt.Sprintf("Unknown '%s' run condition", cfg.RunCondition), PropertyRunCondition)
	}
	transport, err := ParseTransport(cfg.Transport)
	if err != nil {
		c.Add(validation.InvalidEnumValue,
			fmt.Sprintf("Unknown '%s' transport", cfg.Transport), PropertyTransport)
	}
	if transport == TransportSendGrid && cfg.APIKey == "" {
		c.Add(validation.MissingRequiredField, "API Key is not set", PropertyAPIKey)
	}
	return c.Failures()
}

func recipients(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Action is a configured post-run notification.
type Action struct {
	cfg       config.NotifyConfig
	condition RunCondition
	mailer    Mailer
	renderer  *templates.Renderer
}

// New builds an action. It fails on an unknown run condition.
func New(cfg config.NotifyConfig, mailer Mailer, renderer *templates.Renderer) (*Action, error) {
	cond, err := ParseRunCondition(cfg.RunCondition)
	if err != nil {
		return nil, err
	}
	if renderer == nil {
		renderer = templates.New()
	}
	return &Action{cfg: cfg, condition: cond, mailer: mailer, renderer: renderer}, nil
}

// ShouldRun reports whether the action fires for a run with status s.
func (a *Action) ShouldRun(s Status) bool {
	return a.condition.ShouldRun(s)
}

// Run sends the notification for sum if the run condition allows it. It
// reports whether a message was sent.
func (a *Action) Run(ctx context.Context, sum Summary) (bool, error) {
	if !a.ShouldRun(sum.Status) {
		logger.Debug("notify skipped", "run_id", sum.RunID, "status", sum.Status, "condition", a.condition)
		return false, nil
	}

	vars := sum.vars()
	subject, err := a.renderer.Render(a.cfg.Subject, vars)
	if err != nil {
		return false, fmt.Errorf("subject: %w", err)
	}
	content := a.cfg.Content
	if content == "" {
		content = DefaultContent
	}
	text, err := a.renderer.Render(content, vars)
	if err != nil {
		return false, fmt.Errorf("content: %w", err)
	}

	id, err := a.mailer.Send(ctx, Message{
		From:    a.cfg.From,
		To:      recipients(a.cfg.To),
		Subject: subject,
		Text:    text,
	})
	if err != nil {
		return false, fmt.Errorf("sending notification: %w", err)
	}
	log.Printf("[Notify] Sent %s notification for run %s (id: %s)", sum.Status, sum.RunID, id)
	return true, nil
}
