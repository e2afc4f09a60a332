package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Builder constructs a sink from its declaration.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Registry maps sink types to builders. Register everything before the
// first Build; the registry is not safe for concurrent mutation.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register associates a builder with a sink type and returns r for chaining.
func (r *Registry) Register(typ string, builder Builder) *Registry {
	if typ = strings.ToLower(strings.TrimSpace(typ)); typ != "" && builder != nil {
		r.builders[typ] = builder
	}
	return r
}

// Build instantiates the sink declared by cfg. Declarations carrying an
// outcome list are wrapped so Fanout only routes matching events to them.
func (r *Registry) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	builder, ok := r.builders[strings.ToLower(cfg.Type)]
	if !ok {
		return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}
	pub, err := builder(ctx, cfg, orDiscard(log))
	if err != nil {
		return nil, fmt.Errorf("build %s publisher %q: %w", cfg.Type, cfg.ID, err)
	}
	if len(cfg.Outcomes) > 0 {
		pub = &routed{Publisher: pub, cfg: cfg}
	}
	return pub, nil
}

// DefaultRegistry knows every sink type shipped with netkit.
func DefaultRegistry() *Registry {
	return NewRegistry().
		Register(TypeHTTP, newHTTPPublisher).
		Register(TypeSQS, newSQSPublisher).
		Register(TypeSNS, newSNSPublisher).
		Register(TypePubSub, newPubSubPublisher).
		Register(TypeLog, newLogPublisher)
}

// BuildAll instantiates every declaration. If one fails, sinks already built
// are closed before the error is returned.
func BuildAll(ctx context.Context, reg *Registry, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}

	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := reg.Build(ctx, cfg, log)
		if err != nil {
			return nil, errors.Join(err, closeAll(pubs))
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

// routed restricts a sink to the outcomes listed in its declaration.
type routed struct {
	Publisher
	cfg PublisherConfig
}

func (r *routed) Accepts(outcome string) bool { return r.cfg.Accepts(outcome) }

func (r *routed) Close() error {
	if c, ok := r.Publisher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func closeAll(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
