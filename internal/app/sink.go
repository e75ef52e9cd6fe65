package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/ignite/sendgrid-source/internal/config"
	"github.com/ignite/sendgrid-source/internal/mailsink"
	"github.com/ignite/sendgrid-source/internal/pkg/templates"
	"github.com/ignite/sendgrid-source/internal/schema"
	"github.com/ignite/sendgrid-source/internal/sendgrid"
	"github.com/ignite/sendgrid-source/internal/sink"
	"github.com/ignite/sendgrid-source/internal/source"
	"github.com/ignite/sendgrid-source/internal/validation"
)

// NewSink builds the configured sink. The mail sink takes precedence when
// enabled and is checked against the output schema first. db is required for
// the postgres sink.
func NewSink(ctx context.Context, cfg *config.Config, out schema.Schema, db *sql.DB) (sink.Sink, error) {
	if cfg.MailSink.Enabled {
		if failures := mailsink.Validate(cfg.MailSink, out); len(failures) > 0 {
			return nil, failureError("mail sink", failures)
		}
		client := sendgrid.NewClient(cfg.SendGrid, source.Credentials{Type: source.AuthAPI, APIKey: cfg.MailSink.APIKey})
		return mailsink.New(cfg.MailSink, client, templates.New())
	}

	switch cfg.Sink.Type {
	case "", "stdout":
		return sink.NewWriter(os.Stdout), nil
	case "s3":
		return sink.NewS3(ctx, cfg.Sink)
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres sink: database_url not configured")
		}
		pg := sink.NewPostgres(db, cfg.Sink.Table)
		if err := pg.EnsureTable(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	case "contacts":
		if cfg.Sink.ContactsAPIKey == "" {
			return nil, fmt.Errorf("contacts sink: contacts_api_key not configured")
		}
		mode, err := sink.ParseContactsMode(cfg.Sink.ContactsMode)
		if err != nil {
			return nil, err
		}
		client := sendgrid.NewClient(cfg.SendGrid, source.Credentials{Type: source.AuthAPI, APIKey: cfg.Sink.ContactsAPIKey})
		return sink.NewContacts(client, mode, cfg.Sink.ContactsListIDs, out)
	}
	return nil, fmt.Errorf("unknown sink type %q", cfg.Sink.Type)
}

func failureError(what string, failures []validation.Failure) error {
	msg := failures[0].Message
	if len(failures) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(failures)-1)
	}
	return fmt.Errorf("%s configuration is invalid: %s", what, msg)
}
