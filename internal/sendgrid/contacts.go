package sendgrid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrNoContacts is returned when a contact write carries nothing.
var ErrNoContacts = errors.New("no contacts given")

// Contact is a marketing contact upsert entry.
type Contact struct {
	Email               string                 `json:"email"`
	FirstName           string                 `json:"first_name,omitempty"`
	LastName            string                 `json:"last_name,omitempty"`
	AddressLine1        string                 `json:"address_line_1,omitempty"`
	AddressLine2        string                 `json:"address_line_2,omitempty"`
	City                string                 `json:"city,omitempty"`
	StateProvinceRegion string                 `json:"state_province_region,omitempty"`
	PostalCode          string                 `json:"postal_code,omitempty"`
	Country             string                 `json:"country,omitempty"`
	PhoneNumber         string                 `json:"phone_number,omitempty"`
	CustomFields        map[string]interface{} `json:"custom_fields,omitempty"`
}

type upsertContactsRequest struct {
	ListIDs  []string  `json:"list_ids,omitempty"`
	Contacts []Contact `json:"contacts"`
}

type jobResponse struct {
	JobID string `json:"job_id"`
}

// CreateContacts upserts contacts, optionally adding them to lists. SendGrid
// processes the write asynchronously and returns a job id.
func (c *Client) CreateContacts(ctx context.Context, listIDs []string, contacts []Contact) (string, error) {
	if len(contacts) == 0 {
		return "", ErrNoContacts
	}
	body, err := c.doRequest(ctx, c.httpClient, http.MethodPut, c.url("/marketing/contacts", nil),
		upsertContactsRequest{ListIDs: listIDs, Contacts: contacts})
	if err != nil {
		return "", fmt.Errorf("creating contacts: %w", err)
	}
	return parseJob(body)
}

// DeleteContacts removes contacts by id and returns the job id.
func (c *Client) DeleteContacts(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", ErrNoContacts
	}
	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	body, err := c.doRequest(ctx, c.httpClient, http.MethodDelete, c.url("/marketing/contacts", params), nil)
	if err != nil {
		return "", fmt.Errorf("deleting contacts: %w", err)
	}
	return parseJob(body)
}

func parseJob(body []byte) (string, error) {
	var job jobResponse
	if err := json.Unmarshal(body, &job); err != nil {
		return "", fmt.Errorf("parsing job response: %w", err)
	}
	return job.JobID, nil
}
