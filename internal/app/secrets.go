package app

import (
	"context"
	"log"

	"github.com/ignite/sendgrid-source/internal/config"
	"github.com/ignite/sendgrid-source/internal/secrets"
)

// secretFields lists the configuration values that may hold an ssm: reference.
func secretFields(cfg *config.Config) []*string {
	return []*string{
		&cfg.Source.SendGridAPIKey,
		&cfg.Source.Password,
		&cfg.MailSink.APIKey,
		&cfg.Notify.APIKey,
		&cfg.Notify.SESSecretKey,
		&cfg.Redis.Password,
		&cfg.Sink.DatabaseURL,
		&cfg.Sink.ContactsAPIKey,
	}
}

// ResolveSecrets replaces ssm: references in cfg with their parameter values.
// AWS is only contacted when at least one reference is present.
func ResolveSecrets(ctx context.Context, cfg *config.Config) error {
	fields := secretFields(cfg)
	if !hasReference(fields) {
		return nil
	}
	r, err := secrets.NewResolver(ctx, cfg.Sink.AWSRegion)
	if err != nil {
		return err
	}
	return resolveWith(ctx, r, fields)
}

func resolveWith(ctx context.Context, r *secrets.Resolver, fields []*string) error {
	n := 0
	for _, f := range fields {
		if secrets.IsReference(*f) {
			n++
		}
	}
	if err := r.ResolveAll(ctx, fields...); err != nil {
		return err
	}
	log.Printf("Resolved %d secrets from SSM", n)
	return nil
}

func hasReference(fields []*string) bool {
	for _, f := range fields {
		if secrets.IsReference(*f) {
			return true
		}
	}
	return false
}
