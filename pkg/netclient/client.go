// Package netclient executes request descriptors with in-flight
// deduplication, optional debug overrides and typed JSON decoding.
package netclient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/samvad-netkit/pkg/debugresp"
	"github.com/samvad-hq/samvad-netkit/pkg/httpclient"
	"github.com/samvad-hq/samvad-netkit/pkg/publishers"
	"github.com/samvad-hq/samvad-netkit/pkg/request"
)

const defaultEventTimeout = 5 * time.Second

// EventPublisher receives settlement events. *publishers.Fanout satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Client owns the transport, debug provider and in-flight registry.
type Client struct {
	transport    httpclient.Client
	debug        debugresp.Provider
	registry     *Registry
	dedup        bool
	dedupCond    func(request.Descriptor) bool
	log          Logger
	logRequests  bool
	logResponses bool
	metrics      *Metrics
	events       EventPublisher
	eventTimeout time.Duration
	newID        func() string
}

// Option configures a Client.
type Option func(*Client)

// WithDebugProvider answers matching requests locally.
func WithDebugProvider(p debugresp.Provider) Option {
	return func(c *Client) {
		if p != nil {
			c.debug = p
		}
	}
}

// WithDeduplication toggles sharing of identical in-flight requests.
func WithDeduplication(enabled bool) Option {
	return func(c *Client) { c.dedup = enabled }
}

// WithDedupCondition limits deduplication to descriptors accepted by fn.
func WithDedupCondition(fn func(request.Descriptor) bool) Option {
	return func(c *Client) { c.dedupCond = fn }
}

// WithRegistry shares a registry between clients.
func WithRegistry(r *Registry) Option {
	return func(c *Client) {
		if r != nil {
			c.registry = r
		}
	}
}

func WithLogger(log Logger) Option {
	return func(c *Client) { c.log = ensureLogger(log) }
}

// WithRequestLogging logs method, URL, headers and body before dispatch.
func WithRequestLogging(enabled bool) Option {
	return func(c *Client) { c.logRequests = enabled }
}

// WithResponseLogging logs status and body size after each dispatch.
func WithResponseLogging(enabled bool) Option {
	return func(c *Client) { c.logResponses = enabled }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithEventPublisher publishes a settlement event per dispatch.
func WithEventPublisher(p EventPublisher) Option {
	return func(c *Client) { c.events = p }
}

// WithIDGenerator overrides request id generation.
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New builds a client dispatching through transport.
func New(transport httpclient.Client, opts ...Option) *Client {
	c := &Client{
		transport:    transport,
		debug:        debugresp.Empty{},
		registry:     NewRegistry(),
		dedup:        true,
		log:          noopLogger{},
		eventTimeout: defaultEventTimeout,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the in-flight registry.
func (c *Client) Registry() *Registry { return c.registry }

func (c *Client) shouldDedup(desc request.Descriptor) bool {
	if !c.dedup {
		return false
	}
	return c.dedupCond == nil || c.dedupCond(desc)
}

// acquire returns the pending dispatch serving desc, starting one if needed.
func (c *Client) acquire(ctx context.Context, desc request.Descriptor) *Pending {
	method := string(desc.Method())
	if !c.shouldDedup(desc) {
		p := newPending(c.newID(), desc)
		c.dispatch(ctx, p)
		return p
	}

	key := desc.Key()
	p, created := c.registry.LookupOrRegister(key, func() *Pending {
		p := newPending(c.newID(), desc)
		p.onSettle = func() { c.registry.Release(key, p) }
		return p
	})
	if !created {
		c.metrics.recordDedupHit(method)
		c.log.DebugObj("joined in-flight request", "request_dedup", map[string]any{
			"request_id": p.ID(),
			"method":     method,
			"url":        desc.URL(),
			"waiters":    p.Waiters(),
		})
		return p
	}
	c.dispatch(ctx, p)
	return p
}

// dispatch sends p's request on its own goroutine. The send is detached from
// the caller's cancellation so joined waiters still get a result.
func (c *Client) dispatch(ctx context.Context, p *Pending) {
	desc := p.Descriptor()
	method := string(desc.Method())
	if c.logRequests {
		c.logRequest(p)
	}
	c.metrics.recordStart(method)
	sendCtx := context.WithoutCancel(ctx)

	go func() {
		var (
			body   []byte
			status int
			err    error
		)
		resp, sendErr := c.transport.Send(sendCtx, desc)
		if sendErr != nil {
			err = newTransportError(desc, sendErr)
		} else {
			body, status = resp.Body(), resp.StatusCode()
			if status >= 400 {
				err = newServerError(desc, status, body)
			}
		}
		took := time.Since(p.started)

		c.metrics.recordDone(method, status, took)
		var nerr *Error
		if errors.As(err, &nerr) {
			c.metrics.recordError(nerr.Kind, method)
		}
		if c.logResponses {
			c.logResponse(p, status, len(body), took, err)
		}

		p.settle(body, status, err)
		c.publish(p, status, err, took)
	}()
}

func (c *Client) publish(p *Pending, status int, err error, took time.Duration) {
	if c.events == nil {
		return
	}
	outcome := publishers.OutcomeSuccess
	var nerr *Error
	if errors.As(err, &nerr) {
		switch nerr.Kind {
		case KindServer:
			outcome = publishers.OutcomeServerError
		case KindTransport:
			outcome = publishers.OutcomeTransportError
		}
	}
	desc := p.Descriptor()
	evt := publishers.NewEvent(p.ID(), string(desc.Method()), desc.URL(), outcome, status, p.Waiters(), took)

	ctx, cancel := context.WithTimeout(context.Background(), c.eventTimeout)
	defer cancel()
	if _, perr := c.events.Publish(ctx, evt); perr != nil {
		c.log.WarnObj("settlement event publish failed", "publisher_error", map[string]any{
			"request_id": p.ID(),
			"error":      perr.Error(),
		})
	}
}

func (c *Client) logRequest(p *Pending) {
	desc := p.Descriptor()
	meta := map[string]any{
		"request_id": p.ID(),
		"method":     string(desc.Method()),
		"url":        desc.URL(),
		"headers":    desc.Headers(),
	}
	if body, ok := desc.Body(); ok {
		meta["body"] = string(body)
	}
	c.log.InfoObj("dispatching request", "request", meta)
}

func (c *Client) logResponse(p *Pending, status, size int, took time.Duration, err error) {
	meta := map[string]any{
		"request_id":  p.ID(),
		"url":         p.Descriptor().URL(),
		"status_code": status,
		"body_bytes":  size,
		"duration_ms": took.Milliseconds(),
		"waiters":     p.Waiters(),
	}
	if err != nil {
		meta["error"] = err.Error()
		c.log.WarnObj("request failed", "response", meta)
		return
	}
	c.log.InfoObj("request settled", "response", meta)
}
