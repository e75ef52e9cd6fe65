package sink

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ignite/sendgrid-source/internal/catalog"
	"github.com/ignite/sendgrid-source/internal/pipeline"
	"github.com/ignite/sendgrid-source/internal/schema"
	"github.com/ignite/sendgrid-source/internal/sendgrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContacts struct {
	upserts [][]sendgrid.Contact
	lists   [][]string
	deletes [][]string
	err     error
}

func (f *fakeContacts) CreateContacts(ctx context.Context, listIDs []string, contacts []sendgrid.Contact) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.upserts = append(f.upserts, contacts)
	f.lists = append(f.lists, listIDs)
	return "job-up", nil
}

func (f *fakeContacts) DeleteContacts(ctx context.Context, ids []string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.deletes = append(f.deletes, ids)
	return "job-del", nil
}

var contactSchema = schema.Schema{Fields: []schema.Field{
	{Name: "id", Type: catalog.TypeString},
	{Name: "email", Type: catalog.TypeString},
	{Name: "first_name", Type: catalog.TypeString},
}}

func TestParseContactsMode(t *testing.T) {
	m, err := ParseContactsMode("")
	require.NoError(t, err)
	assert.Equal(t, ContactsUpsert, m)

	m, err = ParseContactsMode(" Delete ")
	require.NoError(t, err)
	assert.Equal(t, ContactsDelete, m)

	_, err = ParseContactsMode("merge")
	assert.ErrorIs(t, err, ErrUnknownContactsMode)
}

func TestNewContactsNeedsKeyColumn(t *testing.T) {
	noEmail := schema.Schema{Fields: []schema.Field{{Name: "id", Type: catalog.TypeString}}}
	_, err := NewContacts(&fakeContacts{}, ContactsUpsert, nil, noEmail)
	assert.ErrorContains(t, err, `"email"`)

	_, err = NewContacts(&fakeContacts{}, ContactsDelete, nil, noEmail)
	assert.NoError(t, err)

	intEmail := schema.Schema{Fields: []schema.Field{{Name: "email", Type: catalog.TypeInteger}}}
	_, err = NewContacts(&fakeContacts{}, ContactsUpsert, nil, intEmail)
	assert.ErrorContains(t, err, "must be a string")
}

func TestContactsSinkUpsert(t *testing.T) {
	client := &fakeContacts{}
	s, err := NewContacts(client, ContactsUpsert, []string{"list-1"}, contactSchema)
	require.NoError(t, err)

	err = s.Write(context.Background(), Batch{Schema: contactSchema, Rows: []pipeline.Row{
		{"id": "1", "email": "a@example.com", "first_name": "Ann"},
		{"id": "2", "email": "b@example.com", "first_name": nil},
	}})
	require.NoError(t, err)
	require.Len(t, client.upserts, 1)
	assert.Equal(t, []string{"list-1"}, client.lists[0])
	assert.Equal(t, "a@example.com", client.upserts[0][0].Email)
	assert.Equal(t, "Ann", client.upserts[0][0].FirstName)
	assert.Empty(t, client.upserts[0][1].FirstName)
}

func TestContactsSinkUpsertChunks(t *testing.T) {
	client := &fakeContacts{}
	s, err := NewContacts(client, ContactsUpsert, nil, contactSchema)
	require.NoError(t, err)

	rows := make([]pipeline.Row, upsertChunkSize+5)
	for i := range rows {
		rows[i] = pipeline.Row{"email": fmt.Sprintf("u%d@example.com", i)}
	}
	require.NoError(t, s.Write(context.Background(), Batch{Rows: rows}))
	require.Len(t, client.upserts, 2)
	assert.Len(t, client.upserts[0], upsertChunkSize)
	assert.Len(t, client.upserts[1], 5)
}

func TestContactsSinkUpsertMissingEmail(t *testing.T) {
	client := &fakeContacts{}
	s, err := NewContacts(client, ContactsUpsert, nil, contactSchema)
	require.NoError(t, err)

	err = s.Write(context.Background(), Batch{Rows: []pipeline.Row{{"email": "a@example.com"}, {"email": nil}}})
	assert.ErrorContains(t, err, "row 1")
	assert.Empty(t, client.upserts)
}

func TestContactsSinkDelete(t *testing.T) {
	client := &fakeContacts{}
	s, err := NewContacts(client, ContactsDelete, nil, contactSchema)
	require.NoError(t, err)

	rows := make([]pipeline.Row, deleteChunkSize+1)
	for i := range rows {
		rows[i] = pipeline.Row{"id": fmt.Sprintf("id-%d", i)}
	}
	require.NoError(t, s.Write(context.Background(), Batch{Rows: rows}))
	require.Len(t, client.deletes, 2)
	assert.Len(t, client.deletes[0], deleteChunkSize)
	assert.Equal(t, []string{fmt.Sprintf("id-%d", deleteChunkSize)}, client.deletes[1])
}

func TestContactsSinkClientError(t *testing.T) {
	s, err := NewContacts(&fakeContacts{err: errors.New("403 forbidden")}, ContactsUpsert, nil, contactSchema)
	require.NoError(t, err)
	err = s.Write(context.Background(), Batch{Rows: []pipeline.Row{{"email": "a@example.com"}}})
	assert.ErrorContains(t, err, "403 forbidden")
}
