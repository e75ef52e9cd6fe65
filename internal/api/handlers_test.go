package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ignite/sendgrid-source/internal/pkg/httputil"
	"github.com/ignite/sendgrid-source/internal/source"
	"github.com/ignite/sendgrid-source/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	h := NewHandlers(nil, validation.New(nil))
	server := httptest.NewServer(SetupRoutes(h, nil))
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string, dst interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dst != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp.StatusCode
}

func contactsConfig() source.RawConfig {
	return source.RawConfig{
		AuthType:            "api",
		SendGridAPIKey:      "SG.key",
		DataSourceTypes:     "MarketingCampaign",
		DataSourceMarketing: "Contacts",
		DataSourceFields:    "email,first_name",
	}
}

func TestHealthCheck(t *testing.T) {
	server := setupTestServer(t)

	var body map[string]interface{}
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
	assert.Greater(t, body["objects"].(float64), float64(0))
}

func TestListCatalog(t *testing.T) {
	server := setupTestServer(t)

	var body struct {
		Categories []CategoryView `json:"categories"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/catalog", &body))
	require.Len(t, body.Categories, 3)
	assert.Equal(t, "MarketingCampaign", string(body.Categories[0].Name))
	assert.Equal(t, source.PropertyDataSourceMarketing, body.Categories[0].Property)
	assert.Contains(t, body.Categories[0].Objects, "Contacts")
	assert.Equal(t, source.PropertyDataSourceSuppressions, body.Categories[2].Property)
	assert.Contains(t, body.Categories[2].Objects, "Bounces")
}

func TestListCategory(t *testing.T) {
	server := setupTestServer(t)

	var body struct {
		Category CategoryView `json:"category"`
		Objects  []struct {
			Name   string `json:"name"`
			Fields []struct {
				Name string `json:"name"`
			} `json:"fields"`
		} `json:"objects"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/catalog/categories/Statistic", &body))
	assert.Contains(t, body.Category.Objects, "GlobalStats")
	require.NotEmpty(t, body.Objects)
	assert.NotEmpty(t, body.Objects[0].Fields)

	var errBody httputil.ErrorResponse
	assert.Equal(t, http.StatusNotFound, getJSON(t, server.URL+"/api/catalog/categories/Nope", &errBody))
	assert.Contains(t, errBody.Error, "invalid category")
}

func TestGetObject(t *testing.T) {
	server := setupTestServer(t)

	var def struct {
		Name              string   `json:"name"`
		Category          string   `json:"category"`
		RequiredArguments []string `json:"required_arguments"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/catalog/objects/CategoryStats", &def))
	assert.Equal(t, "CategoryStats", def.Name)
	assert.Equal(t, "Statistic", def.Category)
	assert.Contains(t, def.RequiredArguments, "start_date")

	assert.Equal(t, http.StatusNotFound, getJSON(t, server.URL+"/api/catalog/objects/Nope", nil))
}

func TestValidateValid(t *testing.T) {
	server := setupTestServer(t)

	resp := postJSON(t, server.URL+"/api/validate", contactsConfig())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body ValidateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Valid)
	assert.Empty(t, body.Failures)
}

func TestValidateReportsFailures(t *testing.T) {
	server := setupTestServer(t)

	raw := contactsConfig()
	raw.SendGridAPIKey = ""
	raw.DataSourceFields = "clicks"
	resp := postJSON(t, server.URL+"/api/validate", raw)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body ValidateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Valid)
	assert.NotEmpty(t, validation.ForProperty(body.Failures, source.PropertySendGridAPIKey))
	assert.NotEmpty(t, validation.ForProperty(body.Failures, source.PropertyDataSourceFields))
}

func TestValidateBadJSON(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Post(server.URL+"/api/validate", "application/json", bytes.NewBufferString(`{"authType":`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2 := postJSON(t, server.URL+"/api/validate", map[string]string{"unknownKey": "x"})
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestSchemaPreview(t *testing.T) {
	server := setupTestServer(t)

	resp := postJSON(t, server.URL+"/api/schema", contactsConfig())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		MultiObjectMode bool     `json:"multiObjectMode"`
		Objects         []string `json:"objects"`
		Schema          struct {
			Name   string `json:"name"`
			Fields []struct {
				Name string `json:"name"`
			} `json:"fields"`
		} `json:"schema"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.MultiObjectMode)
	assert.Equal(t, []string{"Contacts"}, body.Objects)
	assert.Equal(t, "etlSchemaBody", body.Schema.Name)
	require.Len(t, body.Schema.Fields, 2)
	assert.Equal(t, "email", body.Schema.Fields[0].Name)
}

func TestSchemaSubsetKeepsMode(t *testing.T) {
	server := setupTestServer(t)

	raw := contactsConfig()
	raw.DataSourceTypes = "MarketingCampaign,Statistic"
	raw.DataSourceStats = "GlobalStats"
	raw.DataSourceFields = "email,clicks"

	resp := postJSON(t, server.URL+"/api/schema?objects=Contacts", raw)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		MultiObjectMode bool `json:"multiObjectMode"`
		Schema          struct {
			Fields []struct {
				Name string `json:"name"`
			} `json:"fields"`
		} `json:"schema"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.MultiObjectMode)
	require.Len(t, body.Schema.Fields, 2)
	assert.Equal(t, "object_name", body.Schema.Fields[0].Name)
	assert.Equal(t, "email", body.Schema.Fields[1].Name)
}

func TestSchemaInvalidSelection(t *testing.T) {
	server := setupTestServer(t)

	raw := contactsConfig()
	raw.DataSourceMarketing = ""
	resp := postJSON(t, server.URL+"/api/schema", raw)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid_selection", body.Code)
}

func TestCORSPreflight(t *testing.T) {
	server := setupTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/validate", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

type recordingInvalidator struct {
	creds []source.Credentials
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, creds source.Credentials) error {
	r.creds = append(r.creds, creds)
	return nil
}

func TestValidateRefreshInvalidatesProbe(t *testing.T) {
	inv := &recordingInvalidator{}
	server := httptest.NewServer(SetupRoutes(NewHandlers(nil, validation.New(nil), WithProbeInvalidator(inv)), nil))
	defer server.Close()

	resp := postJSON(t, server.URL+"/api/validate", contactsConfig())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, inv.creds)

	resp = postJSON(t, server.URL+"/api/validate?refresh=true", contactsConfig())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, inv.creds, 1)
	assert.Equal(t, source.AuthAPI, inv.creds[0].Type)
	assert.Equal(t, "SG.key", inv.creds[0].APIKey)

	raw := contactsConfig()
	raw.AuthType = "token"
	postJSON(t, server.URL+"/api/validate?refresh=true", raw)
	assert.Len(t, inv.creds, 1, "no credentials to invalidate")
}
