package source

import (
	"errors"
	"testing"

	"github.com/ignite/sendgrid-source/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactsRaw() RawConfig {
	return RawConfig{
		ReferenceName:       "sendgrid",
		AuthType:            "api",
		SendGridAPIKey:      "SG.test",
		DataSourceTypes:     "MarketingCampaign",
		DataSourceMarketing: "Contacts",
		DataSourceFields:    "email,first_name",
	}
}

func TestParseAuthType(t *testing.T) {
	at, err := ParseAuthType("api")
	require.NoError(t, err)
	assert.Equal(t, AuthAPI, at)

	at, err = ParseAuthType("basic")
	require.NoError(t, err)
	assert.Equal(t, AuthBasic, at)

	for _, bad := range []string{"", "API", "oauth", " basic"} {
		_, err := ParseAuthType(bad)
		assert.True(t, errors.Is(err, ErrUnsupportedAuthType), bad)
	}
}

func TestCredentials(t *testing.T) {
	tests := []struct {
		name     string
		creds    Credentials
		complete bool
		props    []string
	}{
		{"api with key", Credentials{Type: AuthAPI, APIKey: "k"}, true, []string{PropertySendGridAPIKey}},
		{"api without key", Credentials{Type: AuthAPI}, false, []string{PropertySendGridAPIKey}},
		{"basic complete", Credentials{Type: AuthBasic, Username: "u", Password: "p"}, true, []string{PropertyAuthUsername, PropertyAuthPassword}},
		{"basic without password", Credentials{Type: AuthBasic, Username: "u"}, false, []string{PropertyAuthUsername, PropertyAuthPassword}},
		{"no type", Credentials{APIKey: "k"}, false, []string{PropertyAuthType}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.complete, tt.creds.Complete())
			assert.Equal(t, tt.props, tt.creds.Properties())
		})
	}
}

func TestRequestArguments(t *testing.T) {
	raw := contactsRaw()
	raw.StartDate = "2020-01-01"
	raw.EndDate = "2020-01-31"
	raw.StatCategories = "newsletter"

	args := New(raw).RequestArguments()
	assert.Equal(t, map[string]string{
		"start_date":     "2020-01-01",
		"end_date":       "2020-01-31",
		"statCategories": "newsletter",
	}, args)
}

func TestRequestArgumentsOnlyNonEmpty(t *testing.T) {
	raw := contactsRaw()
	raw.EndDate = "2020-01-31"

	args := New(raw).RequestArguments()
	assert.Equal(t, map[string]string{"end_date": "2020-01-31"}, args)
	_, ok := args[PropertyStartDate]
	assert.False(t, ok)
}

func TestDataSourceOrder(t *testing.T) {
	raw := RawConfig{
		DataSourceMarketing:    "Contacts",
		DataSourceStats:        "GlobalStats,CategoryStats",
		DataSourceSuppressions: "Bounces",
	}
	cfg := New(raw)
	assert.Equal(t, []string{"Contacts", "GlobalStats", "CategoryStats", "Bounces"}, cfg.DataSource())
	assert.True(t, cfg.MultiObjectMode())
}

func TestConfigSchema(t *testing.T) {
	cfg := New(contactsRaw())
	s, err := cfg.Schema()
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "first_name"}, s.Names())
	assert.False(t, cfg.MultiObjectMode())
}

func TestConfigSchemaError(t *testing.T) {
	raw := contactsRaw()
	raw.DataSourceFields = "date"
	_, err := New(raw).Schema()
	assert.True(t, errors.Is(err, schema.ErrNoFieldsMatched))
}

func TestSchemaForKeepsMode(t *testing.T) {
	raw := contactsRaw()
	raw.DataSourceTypes = "MarketingCampaign,Statistic"
	raw.DataSourceStats = "CategoryStats"
	raw.DataSourceFields = "email,date,clicks"
	cfg := New(raw)
	require.True(t, cfg.MultiObjectMode())

	s, err := cfg.SchemaFor([]string{"CategoryStats"})
	require.NoError(t, err)
	assert.True(t, s.Discriminated)
	assert.Equal(t, []string{schema.DiscriminatorField, "date", "clicks"}, s.Names())
}

func TestAccessorsReturnCopies(t *testing.T) {
	raw := contactsRaw()
	raw.StartDate = "2020-01-01"
	cfg := New(raw)

	cfg.DataSource()[0] = "changed"
	cfg.Fields()[0] = "changed"
	cfg.RequestArguments()[PropertyStartDate] = "changed"
	s, err := cfg.Schema()
	require.NoError(t, err)
	s.Fields[0].Name = "changed"

	assert.Equal(t, []string{"Contacts"}, cfg.DataSource())
	assert.Equal(t, []string{"email", "first_name"}, cfg.Fields())
	assert.Equal(t, "2020-01-01", cfg.RequestArguments()[PropertyStartDate])
	s, _ = cfg.Schema()
	assert.Equal(t, "email", s.Fields[0].Name)
}

func TestAuthTypeOnConfig(t *testing.T) {
	raw := contactsRaw()
	raw.AuthType = "token"
	cfg := New(raw)
	_, err := cfg.AuthType()
	assert.True(t, errors.Is(err, ErrUnsupportedAuthType))
	assert.Equal(t, AuthType(""), cfg.Credentials().Type)
}
