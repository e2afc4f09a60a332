package publishers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// outcomeRouter is implemented by sinks that only take some outcomes.
type outcomeRouter interface {
	Accepts(outcome string) bool
}

// Fanout delivers each settlement event to every sink routed for its outcome.
type Fanout struct {
	publishers []Publisher
}

// NewFanout drops nil entries and keeps the rest in order.
func NewFanout(pubs []Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range pubs {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

// Publish sends evt to the routed sinks concurrently and waits for all of
// them. It returns how many sinks took the event; failures are joined.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}

	var (
		wg        sync.WaitGroup
		delivered atomic.Int64
		errs      = make([]error, len(f.publishers))
	)
	for i, p := range f.publishers {
		if r, ok := p.(outcomeRouter); ok && !r.Accepts(evt.Outcome) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Publish(ctx, evt); err != nil {
				errs[i] = fmt.Errorf("%s publisher[%s] request %s: %w", p.Type(), p.ID(), evt.RequestID, err)
				return
			}
			delivered.Add(1)
		}()
	}
	wg.Wait()
	return int(delivered.Load()), errors.Join(errs...)
}

// Size returns the number of sinks, routed or not.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close releases sinks that hold client connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	return closeAll(f.publishers)
}
