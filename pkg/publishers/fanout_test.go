package publishers

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type stubPublisher struct {
	id    string
	typ   string
	err   error
	calls atomic.Int32
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls.Add(1)
	return s.err
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: TypeHTTP},
		&stubPublisher{id: "bad", typ: TypeSQS, err: errors.New("failed")},
		nil,
	})
	if fanout.Size() != 2 {
		t.Fatalf("nil publisher should be dropped, size=%d", fanout.Size())
	}

	count, err := fanout.Publish(context.Background(), NewEvent("req-7", "GET", "https://x", OutcomeSuccess, 200, 1, 0))
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil || !strings.Contains(err.Error(), "sqs publisher[bad] request req-7") {
		t.Fatalf("expected error naming sink and request, got %v", err)
	}
}

type slowPublisher struct {
	stubPublisher
	delay time.Duration
}

func (s *slowPublisher) Publish(ctx context.Context, evt Event) error {
	time.Sleep(s.delay)
	return s.stubPublisher.Publish(ctx, evt)
}

func TestFanoutPublishesConcurrently(t *testing.T) {
	pubs := make([]Publisher, 4)
	for i := range pubs {
		pubs[i] = &slowPublisher{stubPublisher: stubPublisher{id: "slow", typ: TypeLog}, delay: 150 * time.Millisecond}
	}
	fanout := NewFanout(pubs)

	start := time.Now()
	count, err := fanout.Publish(context.Background(), Event{RequestID: "req-1", Outcome: OutcomeSuccess})
	if err != nil || count != 4 {
		t.Fatalf("delivered=%d err=%v", count, err)
	}
	if took := time.Since(start); took > 450*time.Millisecond {
		t.Fatalf("sinks ran sequentially, took %v", took)
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	pubs, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
		{ID: "stdout", Type: TypeLog, Outcomes: []string{OutcomeTransportError}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 2 {
		t.Fatalf("expected 2 publishers, got %d", len(pubs))
	}
	if pubs[1].Type() != TypeLog {
		t.Fatalf("expected log publisher, got %s", pubs[1].Type())
	}
	if _, ok := pubs[1].(outcomeRouter); !ok {
		t.Fatalf("publisher with outcomes should be routed")
	}
	if _, ok := pubs[0].(outcomeRouter); ok {
		t.Fatalf("publisher without outcomes should receive everything")
	}
}

type closingPublisher struct {
	stubPublisher
	closed bool
}

func (c *closingPublisher) Close() error {
	c.closed = true
	return nil
}

func TestBuildAllClosesBuiltSinksOnFailure(t *testing.T) {
	closer := &closingPublisher{stubPublisher: stubPublisher{id: "gcp", typ: TypePubSub}}
	reg := NewRegistry().
		Register("memory", func(context.Context, PublisherConfig, Logger) (Publisher, error) { return closer, nil }).
		Register("broken", func(context.Context, PublisherConfig, Logger) (Publisher, error) { return nil, errors.New("no creds") })

	_, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "a", Type: "memory"},
		{ID: "b", Type: "broken"},
	}, nil)
	if err == nil || !strings.Contains(err.Error(), `build broken publisher "b"`) {
		t.Fatalf("expected build error, got %v", err)
	}
	if !closer.closed {
		t.Fatalf("sink built before the failure should be closed")
	}
}

func TestFanoutCloseReleasesRoutedClosers(t *testing.T) {
	closer := &closingPublisher{stubPublisher: stubPublisher{id: "gcp", typ: TypePubSub}}
	routedCloser := &routed{Publisher: closer, cfg: PublisherConfig{Outcomes: []string{OutcomeSuccess}}}
	fanout := NewFanout([]Publisher{routedCloser, &stubPublisher{id: "ok", typ: TypeHTTP}})

	if err := fanout.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !closer.closed {
		t.Fatalf("expected wrapped closer to be closed")
	}
}
