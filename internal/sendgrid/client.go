// Package sendgrid is a small SendGrid v3 REST client: connectivity probe,
// paged reads of catalog objects, marketing contact writes and mail send.
package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ignite/sendgrid-source/internal/config"
	"github.com/ignite/sendgrid-source/internal/pkg/httpretry"
	"github.com/ignite/sendgrid-source/internal/source"
)

// APIError is a non-2xx response from SendGrid.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// Client is a SendGrid API client
type Client struct {
	baseURL    string
	creds      source.Credentials
	pageSize   int
	httpClient httpretry.HTTPDoer
	direct     httpretry.HTTPDoer
}

// NewClient creates a new SendGrid API client authenticating with creds.
// Reads and contact writes go through the retrying transport. The connectivity
// probe and mail send are single attempts.
func NewClient(cfg config.SendGridConfig, creds source.Credentials) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 500
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		creds:    creds,
		pageSize: pageSize,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, cfg.MaxRetries),
		direct: &http.Client{Timeout: cfg.Timeout()},
	}
}

func (c *Client) authorize(req *http.Request) {
	if c.creds.Type == source.AuthBasic {
		req.SetBasicAuth(c.creds.Username, c.creds.Password)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.APIKey)
}

// doRequest makes an authenticated request against fullURL and returns the body
func (c *Client) doRequest(ctx context.Context, doer httpretry.HTTPDoer, method, fullURL string, body interface{}) ([]byte, error) {
	respBody, _, err := c.do(ctx, doer, method, fullURL, body)
	return respBody, err
}

func (c *Client) do(ctx context.Context, doer httpretry.HTTPDoer, method, fullURL string, body interface{}) ([]byte, http.Header, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := doer.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.Header, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, resp.Header, nil
}

func (c *Client) url(path string, params url.Values) string {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	return fullURL
}

// CheckConnection issues one authenticated GET /scopes. Any transport error or
// non-2xx status is returned as is.
func (c *Client) CheckConnection(ctx context.Context) error {
	if _, err := c.doRequest(ctx, c.direct, http.MethodGet, c.url("/scopes", nil), nil); err != nil {
		return fmt.Errorf("checking connection: %w", err)
	}
	return nil
}
