package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/ignite/sendgrid-source/internal/config"
	"github.com/ignite/sendgrid-source/internal/pkg/logger"
	"github.com/ignite/sendgrid-source/internal/sendgrid"
)

// MailSender is the part of the SendGrid client used for notifications.
type MailSender interface {
	SendMail(ctx context.Context, m sendgrid.Mail) (string, error)
}

// SendGridMailer sends notifications through /mail/send as text/plain.
type SendGridMailer struct {
	client MailSender
}

// NewSendGridMailer wraps a SendGrid client.
func NewSendGridMailer(client MailSender) *SendGridMailer {
	return &SendGridMailer{client: client}
}

func (s *SendGridMailer) Send(ctx context.Context, m Message) (string, error) {
	mail := sendgrid.Mail{
		From:    sendgrid.Address{Email: m.From},
		Subject: m.Subject,
		Text:    m.Text,
	}
	for _, to := range m.To {
		mail.To = append(mail.To, sendgrid.Address{Email: to})
	}
	return s.client.SendMail(ctx, mail)
}

// SESAPI is the part of the SES v2 client used for notifications.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer sends notifications through AWS SES.
type SESMailer struct {
	client SESAPI
}

// NewSESMailer creates an SES mailer. Static keys are used when both are
// configured, otherwise the default credential chain.
func NewSESMailer(ctx context.Context, cfg config.NotifyConfig) (*SESMailer, error) {
	region := cfg.SESRegion
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.SESAccessKey != "" && cfg.SESSecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.SESAccessKey, cfg.SESSecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return NewSESMailerWithClient(sesv2.NewFromConfig(awsCfg)), nil
}

// NewSESMailerWithClient wraps an existing SES client.
func NewSESMailerWithClient(client SESAPI) *SESMailer {
	return &SESMailer{client: client}
}

func (s *SESMailer) Send(ctx context.Context, m Message) (string, error) {
	if len(m.To) == 0 {
		return "", sendgrid.ErrNoRecipients
	}
	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.From),
		Destination:      &types.Destination{ToAddresses: m.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(m.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(m.Text), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("SES SendEmail: %w", err)
	}
	messageID := aws.ToString(out.MessageId)
	log.Printf("[SES] Sent to %s (id: %s)", logger.RedactEmail(m.To[0]), messageID)
	return messageID, nil
}

// NewMailer builds the mailer selected by cfg.Transport. sg is used for the
// sendgrid transport.
func NewMailer(ctx context.Context, cfg config.NotifyConfig, sg MailSender) (Mailer, error) {
	t, err := ParseTransport(cfg.Transport)
	if err != nil {
		return nil, err
	}
	if t == TransportSES {
		return NewSESMailer(ctx, cfg)
	}
	if sg == nil {
		return nil, fmt.Errorf("sendgrid transport needs a client")
	}
	return NewSendGridMailer(sg), nil
}
