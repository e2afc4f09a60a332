package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSQSPublisherPublishSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{
		id:       "queue",
		queueURL: "https://example.com/queue",
		client:   client,
		log:      discard{},
	}

	err := pub.Publish(context.Background(), Event{RequestID: "req-1", Method: "GET", Outcome: OutcomeSuccess})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["request_id"]
	if !ok || aws.ToString(attr.StringValue) != "req-1" {
		t.Fatalf("request_id attribute missing or wrong: %#v", attr)
	}
	if aws.ToString(attr.DataType) != "String" {
		t.Fatalf("DataType should be String, got %#v", attr.DataType)
	}
	if !strings.Contains(aws.ToString(client.input.MessageBody), `"request_id":"req-1"`) {
		t.Fatalf("MessageBody missing request_id: %s", aws.ToString(client.input.MessageBody))
	}
}

func TestSQSPublisherPublishError(t *testing.T) {
	pub := &sqsPublisher{
		id:       "queue",
		queueURL: "https://example.com/queue",
		client:   &fakeSQSClient{err: errors.New("boom")},
		log:      discard{},
	}

	if err := pub.Publish(context.Background(), Event{RequestID: "req-1"}); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestLoadAWSConfigUsesStaticCredentials(t *testing.T) {
	cfg, err := loadAWSConfig(context.Background(), "us-east-1", &AWSCredentials{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("loadAWSConfig: %v", err)
	}
	creds, err := cfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "AKIDEXAMPLE" {
		t.Fatalf("AccessKeyID = %s", creds.AccessKeyID)
	}
	if cfg.Region != "us-east-1" {
		t.Fatalf("Region = %s", cfg.Region)
	}
}

// assertSettlementPayload decodes a sink payload and compares the fields
// consumers key on.
func assertSettlementPayload(t *testing.T, payload string, want Event) {
	t.Helper()
	var got Event
	if err := json.Unmarshal([]byte(payload), &got); err != nil {
		t.Fatalf("payload is not a settlement event: %v\n%s", err, payload)
	}
	if got.RequestID != want.RequestID || got.Outcome != want.Outcome {
		t.Fatalf("payload identity = %s/%s, want %s/%s", got.RequestID, got.Outcome, want.RequestID, want.Outcome)
	}
	if got.Waiters != want.Waiters || got.DurationMs != want.DurationMs {
		t.Fatalf("payload counters waiters=%d duration_ms=%d, want %d/%d", got.Waiters, got.DurationMs, want.Waiters, want.DurationMs)
	}
	if !got.SettledAt.Equal(want.SettledAt) {
		t.Fatalf("settled_at = %v, want %v", got.SettledAt, want.SettledAt)
	}
}

func TestSQSPublisherSendsSettlementEventJSON(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{id: "queue", queueURL: "https://example.com/queue", client: client, log: discard{}}

	evt := NewEvent("req-5", "GET", "https://api.example.com/users/7", OutcomeSuccess, 200, 4, 2250*time.Millisecond)
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	assertSettlementPayload(t, aws.ToString(client.input.MessageBody), evt)
	if aws.ToString(client.input.MessageAttributes["method"].StringValue) != "GET" {
		t.Fatalf("method attribute = %#v", client.input.MessageAttributes["method"])
	}
}
