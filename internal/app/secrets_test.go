package app

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/ignite/sendgrid-source/internal/config"
	"github.com/ignite/sendgrid-source/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSSM map[string]string

func (m mapSSM) GetParameter(ctx context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	v, ok := m[aws.ToString(in.Name)]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(v)}}, nil
}

func TestResolveSecretsWithoutReferences(t *testing.T) {
	cfg := &config.Config{}
	cfg.Source.SendGridAPIKey = "SG.plain"
	require.NoError(t, ResolveSecrets(context.Background(), cfg))
	assert.Equal(t, "SG.plain", cfg.Source.SendGridAPIKey)
}

func TestResolveWith(t *testing.T) {
	cfg := &config.Config{}
	cfg.Source.SendGridAPIKey = "ssm:/sg/source"
	cfg.Notify.APIKey = "ssm:/sg/source"
	cfg.Sink.DatabaseURL = "ssm:/db/url"
	cfg.MailSink.APIKey = "SG.mail"

	r := secrets.NewResolverWithClient(mapSSM{"/sg/source": "SG.secret", "/db/url": "postgres://db/etl"})
	require.NoError(t, resolveWith(context.Background(), r, secretFields(cfg)))

	assert.Equal(t, "SG.secret", cfg.Source.SendGridAPIKey)
	assert.Equal(t, "SG.secret", cfg.Notify.APIKey)
	assert.Equal(t, "postgres://db/etl", cfg.Sink.DatabaseURL)
	assert.Equal(t, "SG.mail", cfg.MailSink.APIKey)
}

func TestResolveWithMissingParameter(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notify.SESSecretKey = "ssm:/ses/secret"
	r := secrets.NewResolverWithClient(mapSSM{})
	assert.ErrorContains(t, resolveWith(context.Background(), r, secretFields(cfg)), "/ses/secret")
}
