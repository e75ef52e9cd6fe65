package sink

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ignite/sendgrid-source/internal/catalog"
	"github.com/ignite/sendgrid-source/internal/pipeline"
	"github.com/ignite/sendgrid-source/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBatch() Batch {
	return Batch{
		RunID:         "7f8e0a9c-1b2d-4e3f-8a9b-0c1d2e3f4a5b",
		ReferenceName: "sg",
		StartedAt:     time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Schema: schema.Schema{
			Discriminated: true,
			Fields: []schema.Field{
				{Name: schema.DiscriminatorField, Type: catalog.TypeString, Nullable: true},
				{Name: "email", Type: catalog.TypeString, Nullable: true},
				{Name: "clicks", Type: catalog.TypeInteger, Nullable: true},
			},
		},
		Rows: []pipeline.Row{
			{schema.DiscriminatorField: "Contacts", "email": "a@example.com", "clicks": nil},
			{schema.DiscriminatorField: "GlobalStats", "email": nil, "clicks": int64(3)},
		},
	}
}

func TestWriterSinkKeepsSchemaOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).Write(context.Background(), testBatch()))
	assert.Equal(t,
		`{"object_name":"Contacts","email":"a@example.com","clicks":null}`+"\n"+
			`{"object_name":"GlobalStats","email":null,"clicks":3}`+"\n",
		buf.String())
}

type fakePutter struct {
	keys   []string
	bodies map[string]string
	err    error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	key := aws.ToString(in.Key)
	body, _ := io.ReadAll(in.Body)
	f.keys = append(f.keys, key)
	if f.bodies == nil {
		f.bodies = map[string]string{}
	}
	f.bodies[key] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink(t *testing.T) {
	putter := &fakePutter{}
	s := NewS3WithClient(putter, "bucket", "raw")
	b := testBatch()

	require.NoError(t, s.Write(context.Background(), b))

	key := "raw/sg/2024/05/06/" + b.RunID + ".jsonl"
	assert.Equal(t, key, s.Key(b))
	assert.Equal(t, []string{key + ".schema.json", key}, putter.keys)
	assert.Equal(t, 2, strings.Count(putter.bodies[key], "\n"))
	assert.Contains(t, putter.bodies[key+".schema.json"], `"etlSchemaBody"`)
}

func TestS3SinkError(t *testing.T) {
	s := NewS3WithClient(&fakePutter{err: errors.New("access denied")}, "bucket", "")
	err := s.Write(context.Background(), testBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestPostgresSinkWrite(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	b := testBatch()
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "sendgrid_records"`))
	prep.ExpectExec().
		WithArgs(b.RunID, "sg", 0, "Contacts", `{"object_name":"Contacts","email":"a@example.com","clicks":null}`, b.StartedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs(b.RunID, "sg", 1, "GlobalStats", sqlmock.AnyArg(), b.StartedAt).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, NewPostgres(db, "sendgrid_records").Write(context.Background(), b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO")
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = NewPostgres(db, "sendgrid_records").Write(context.Background(), testBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert row 0")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresEnsureTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "odd""name"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewPostgres(db, `odd"name`).EnsureTable(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
