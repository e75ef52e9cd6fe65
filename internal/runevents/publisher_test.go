package runevents

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestPublish(t *testing.T) {
	client := &fakeSQS{}
	p := NewPublisherWithClient(client, "https://sqs.us-west-2.amazonaws.com/1/runs")

	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	err := p.Publish(context.Background(), Event{
		RunID:         "run-1",
		ReferenceName: "sg",
		Status:        "succeeded",
		Rows:          12,
		Objects:       []string{"Contacts"},
		StartedAt:     started,
		FinishedAt:    started.Add(time.Minute),
	})
	require.NoError(t, err)
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	assert.Equal(t, "https://sqs.us-west-2.amazonaws.com/1/runs", aws.ToString(in.QueueUrl))
	assert.Equal(t, TypeRunCompleted, aws.ToString(in.MessageAttributes["event_type"].StringValue))
	assert.Equal(t, "succeeded", aws.ToString(in.MessageAttributes["status"].StringValue))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &body))
	assert.Equal(t, "run.completed", body["type"])
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, float64(12), body["rows"])
	assert.Equal(t, "2024-01-02T03:04:05Z", body["started_at"])
	assert.NotContains(t, body, "error")
}

func TestPublishError(t *testing.T) {
	p := NewPublisherWithClient(&fakeSQS{err: errors.New("access denied")}, "q")
	err := p.Publish(context.Background(), Event{RunID: "run-1", Status: "failed"})
	assert.ErrorContains(t, err, "access denied")
}

func TestNewPublisherRequiresQueue(t *testing.T) {
	_, err := NewPublisher(context.Background(), "", "us-west-2")
	assert.Error(t, err)
}
