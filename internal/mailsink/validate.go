package mailsink

import (
	"fmt"

	"github.com/ignite/sendgrid-source/internal/catalog"
	"github.com/ignite/sendgrid-source/internal/config"
	"github.com/ignite/sendgrid-source/internal/pkg/templates"
	"github.com/ignite/sendgrid-source/internal/schema"
	"github.com/ignite/sendgrid-source/internal/validation"
)

// Validate checks the sink configuration against the schema of the rows it
// will receive. Every problem is reported.
func Validate(cfg config.MailSinkConfig, input schema.Schema) []validation.Failure {
	var c validation.Collector

	if cfg.APIKey == "" {
		c.Add(validation.MissingRequiredField, "API Key is not set", PropertyAPIKey)
	}
	checkAddress(&c, cfg.From, true, "Sender address", PropertyFrom)
	checkAddress(&c, cfg.ReplyTo, false, "Reply-to address", PropertyReplyTo)

	if cfg.MailSubject == "" {
		c.Add(validation.MissingRequiredField, "Mail subject is not set", PropertyMailSubject)
	} else if err := templates.New().Parse(cfg.MailSubject); err != nil {
		c.AddCause(validation.MalformedTemplate, "Mail subject is not a valid template", err, PropertyMailSubject)
	}

	src, err := ParseRecipientSource(cfg.RecipientAddressSource)
	switch {
	case err != nil:
		c.Add(validation.InvalidEnumValue,
			fmt.Sprintf("Unknown '%s' recipient address source", cfg.RecipientAddressSource),
			PropertyRecipientAddressSource)
	case src == RecipientsFromConfig:
		addrs := SplitAddresses(cfg.RecipientAddresses)
		if len(addrs) == 0 {
			c.Add(validation.MissingRequiredField, "Recipient addresses are not set", PropertyRecipientAddresses)
		}
		for _, a := range addrs {
			if _, err := ParseAddress(a); err != nil {
				c.AddCause(validation.MalformedAddress,
					fmt.Sprintf("Recipient address '%s' is not valid", a), err, PropertyRecipientAddresses)
			}
		}
	case src == RecipientsFromInput:
		checkColumn(&c, input, cfg.RecipientColumnName, "Recipient column", PropertyRecipientColumnName)
	}

	checkColumn(&c, input, cfg.BodyColumnName, "Body column", PropertyBodyColumnName)

	if cfg.FooterEnable && cfg.FooterHTML == "" {
		c.Add(validation.MissingRequiredField, "Footer is enabled but footer HTML is not set", PropertyFooterHTML)
	}
	return c.Failures()
}

func checkAddress(c *validation.Collector, value string, required bool, label, prop string) {
	if value == "" {
		if required {
			c.Add(validation.MissingRequiredField, label+" is not set", prop)
		}
		return
	}
	if _, err := ParseAddress(value); err != nil {
		c.AddCause(validation.MalformedAddress, fmt.Sprintf("%s '%s' is not valid", label, value), err, prop)
	}
}

func checkColumn(c *validation.Collector, input schema.Schema, name, label, prop string) {
	if name == "" {
		c.Add(validation.MissingRequiredField, label+" name is not set", prop)
		return
	}
	f, ok := input.Field(name)
	if !ok {
		c.Add(validation.IncompatibleSchema,
			fmt.Sprintf("%s '%s' is not present in the input schema", label, name), prop)
		return
	}
	if f.Type != catalog.TypeString {
		c.Add(validation.IncompatibleSchema,
			fmt.Sprintf("%s '%s' must be of type string, found %s", label, name, f.Type), prop)
	}
}
