// Package runevents publishes run completion events to an SQS queue so
// downstream jobs can react to finished extractions.
package runevents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// TypeRunCompleted is the only event type published today.
const TypeRunCompleted = "run.completed"

// Event is the message body sent for a finished run.
type Event struct {
	Type          string    `json:"type"`
	RunID         string    `json:"run_id"`
	ReferenceName string    `json:"reference_name"`
	Status        string    `json:"status"`
	Rows          int       `json:"rows"`
	Objects       []string  `json:"objects,omitempty"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// SQSAPI is the subset of the SQS client used here.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher sends events to one queue.
type Publisher struct {
	client   SQSAPI
	queueURL string
}

// NewPublisher loads the default AWS credential chain for region.
func NewPublisher(ctx context.Context, queueURL, region string) (*Publisher, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("run events queue URL is not set")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewPublisherWithClient(sqs.NewFromConfig(cfg), queueURL), nil
}

// NewPublisherWithClient uses an existing client.
func NewPublisherWithClient(client SQSAPI, queueURL string) *Publisher {
	return &Publisher{client: client, queueURL: queueURL}
}

// Publish sends ev. A missing type defaults to run.completed.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if ev.Type == "" {
		ev.Type = TypeRunCompleted
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	out, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(ev.Type)},
			"status":     {DataType: aws.String("String"), StringValue: aws.String(ev.Status)},
		},
	})
	if err != nil {
		return fmt.Errorf("sending run event: %w", err)
	}
	log.Printf("[RunEvents] Published %s for run %s (message %s)", ev.Type, ev.RunID, aws.ToString(out.MessageId))
	return nil
}
