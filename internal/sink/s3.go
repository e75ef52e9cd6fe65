package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ignite/sendgrid-source/internal/config"
)

// ObjectPutter is the part of the S3 API the sink uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads each batch as a JSON lines object plus a schema sidecar.
type S3Sink struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3 creates an S3 sink from the sink configuration.
func NewS3(ctx context.Context, cfg config.SinkConfig) (*S3Sink, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 sink: bucket not configured")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if profile := cfg.GetAWSProfile(); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for S3 sink: %w", err)
	}
	return NewS3WithClient(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix), nil
}

// NewS3WithClient creates an S3 sink around an existing client.
func NewS3WithClient(client ObjectPutter, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key of a batch: prefix/reference/YYYY/MM/DD/run.jsonl
func (s *S3Sink) Key(b Batch) string {
	return path.Join(s.prefix, b.ReferenceName, b.StartedAt.UTC().Format("2006/01/02"), b.RunID+".jsonl")
}

func (s *S3Sink) Write(ctx context.Context, b Batch) error {
	data, err := encodeJSONL(b.Schema, b.Rows)
	if err != nil {
		return err
	}
	schemaJSON, err := json.Marshal(b.Schema)
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}

	key := s.Key(b)
	if err := s.put(ctx, key+".schema.json", schemaJSON); err != nil {
		return err
	}
	if err := s.put(ctx, key, data); err != nil {
		return err
	}
	log.Printf("[S3Sink] Wrote %d rows to s3://%s/%s", len(b.Rows), s.bucket, key)
	return nil
}

func (s *S3Sink) put(ctx context.Context, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s/%s: %w", s.bucket, key, err)
	}
	return nil
}
