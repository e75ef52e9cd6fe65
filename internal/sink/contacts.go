package sink

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ignite/sendgrid-source/internal/catalog"
	"github.com/ignite/sendgrid-source/internal/pipeline"
	"github.com/ignite/sendgrid-source/internal/schema"
	"github.com/ignite/sendgrid-source/internal/sendgrid"
)

// SendGrid request limits for contact writes.
const (
	upsertChunkSize = 1000
	deleteChunkSize = 100
)

// ContactsMode selects what the contacts sink does with each row.
type ContactsMode string

const (
	ContactsUpsert ContactsMode = "upsert"
	ContactsDelete ContactsMode = "delete"
)

// ErrUnknownContactsMode is returned by ParseContactsMode.
var ErrUnknownContactsMode = errors.New("unknown contacts mode")

// ParseContactsMode reads a mode name. Empty means upsert.
func ParseContactsMode(s string) (ContactsMode, error) {
	switch m := ContactsMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ContactsUpsert:
		return ContactsUpsert, nil
	case ContactsDelete:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownContactsMode, s)
}

// ContactWriter is the part of the SendGrid client the contacts sink uses.
type ContactWriter interface {
	CreateContacts(ctx context.Context, listIDs []string, contacts []sendgrid.Contact) (string, error)
	DeleteContacts(ctx context.Context, ids []string) (string, error)
}

// ContactsSink writes rows back to SendGrid marketing contacts, typically to
// mirror contacts into another account. Upserts key on the email column,
// deletes on the id column.
type ContactsSink struct {
	client  ContactWriter
	mode    ContactsMode
	listIDs []string
}

// NewContacts checks that out carries the key column the mode needs.
func NewContacts(client ContactWriter, mode ContactsMode, listIDs []string, out schema.Schema) (*ContactsSink, error) {
	key := contactKey(mode)
	f, ok := out.Field(key)
	if !ok {
		return nil, fmt.Errorf("contacts sink: output has no %q column", key)
	}
	if f.Type != catalog.TypeString {
		return nil, fmt.Errorf("contacts sink: column %q must be a string", key)
	}
	return &ContactsSink{client: client, mode: mode, listIDs: listIDs}, nil
}

func contactKey(mode ContactsMode) string {
	if mode == ContactsDelete {
		return "id"
	}
	return "email"
}

func (s *ContactsSink) Write(ctx context.Context, b Batch) error {
	if s.mode == ContactsDelete {
		return s.delete(ctx, b.Rows)
	}
	return s.upsert(ctx, b.Rows)
}

func (s *ContactsSink) upsert(ctx context.Context, rows []pipeline.Row) error {
	contacts := make([]sendgrid.Contact, 0, len(rows))
	for i, row := range rows {
		c := contactFromRow(row)
		if c.Email == "" {
			return fmt.Errorf("row %d: no email", i)
		}
		contacts = append(contacts, c)
	}
	for start := 0; start < len(contacts); start += upsertChunkSize {
		end := min(start+upsertChunkSize, len(contacts))
		job, err := s.client.CreateContacts(ctx, s.listIDs, contacts[start:end])
		if err != nil {
			return fmt.Errorf("contacts %d-%d: %w", start, end-1, err)
		}
		log.Printf("[ContactsSink] Upserted %d contacts (job %s)", end-start, job)
	}
	return nil
}

func (s *ContactsSink) delete(ctx context.Context, rows []pipeline.Row) error {
	ids := make([]string, 0, len(rows))
	for i, row := range rows {
		id := rowString(row, "id")
		if id == "" {
			return fmt.Errorf("row %d: no id", i)
		}
		ids = append(ids, id)
	}
	for start := 0; start < len(ids); start += deleteChunkSize {
		end := min(start+deleteChunkSize, len(ids))
		job, err := s.client.DeleteContacts(ctx, ids[start:end])
		if err != nil {
			return fmt.Errorf("contacts %d-%d: %w", start, end-1, err)
		}
		log.Printf("[ContactsSink] Deleted %d contacts (job %s)", end-start, job)
	}
	return nil
}

func contactFromRow(row pipeline.Row) sendgrid.Contact {
	return sendgrid.Contact{
		Email:               rowString(row, "email"),
		FirstName:           rowString(row, "first_name"),
		LastName:            rowString(row, "last_name"),
		AddressLine1:        rowString(row, "address_line_1"),
		AddressLine2:        rowString(row, "address_line_2"),
		City:                rowString(row, "city"),
		StateProvinceRegion: rowString(row, "state_province_region"),
		PostalCode:          rowString(row, "postal_code"),
		Country:             rowString(row, "country"),
		PhoneNumber:         rowString(row, "phone_number"),
	}
}

func rowString(row pipeline.Row, name string) string {
	s, _ := row[name].(string)
	return s
}
