package netclient

import (
	"encoding/json"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/samvad-netkit/pkg/request"
)

// Pending is the shared settlement handle of one in-flight dispatch.
type Pending struct {
	id      string
	desc    request.Descriptor
	started time.Time
	done    chan struct{}
	once    sync.Once
	waiters atomic.Int32

	// written once before done is closed
	body   []byte
	status int
	err    error

	onSettle func()

	mu      sync.Mutex
	decoded map[reflect.Type]decoded
}

type decoded struct {
	value any
	err   error
}

func newPending(id string, desc request.Descriptor) *Pending {
	p := &Pending{
		id:      id,
		desc:    desc,
		started: time.Now(),
		done:    make(chan struct{}),
		decoded: make(map[reflect.Type]decoded),
	}
	p.waiters.Store(1)
	return p
}

// ID returns the request id assigned at dispatch.
func (p *Pending) ID() string { return p.id }

// Descriptor returns the request being served.
func (p *Pending) Descriptor() request.Descriptor { return p.desc }

// Done is closed once the dispatch settles.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Waiters reports how many callers share this dispatch.
func (p *Pending) Waiters() int { return int(p.waiters.Load()) }

func (p *Pending) join() { p.waiters.Add(1) }

// Result returns the settled status and error. It must only be called after Done.
func (p *Pending) Result() (int, error) { return p.status, p.err }

// settle records the outcome, runs the release hook and wakes waiters.
// Only the first call has any effect.
func (p *Pending) settle(body []byte, status int, err error) bool {
	settled := false
	p.once.Do(func() {
		p.body, p.status, p.err = body, status, err
		if p.onSettle != nil {
			p.onSettle()
		}
		close(p.done)
		settled = true
	})
	return settled
}

// decodeAs decodes the settled body into T once per type. Every caller asking
// for the same T gets the same value.
func decodeAs[T any](p *Pending) (T, error) {
	if p.err != nil {
		var zero T
		return zero, p.err
	}

	typ := reflect.TypeFor[T]()
	p.mu.Lock()
	defer p.mu.Unlock()
	if d, ok := p.decoded[typ]; ok {
		v, _ := d.value.(T)
		return v, d.err
	}
	v, err := decodeBody[T](p.desc, p.status, p.body)
	p.decoded[typ] = decoded{value: v, err: err}
	return v, err
}

func decodeBody[T any](desc request.Descriptor, status int, body []byte) (T, error) {
	var out T
	if status >= 400 {
		return out, newServerError(desc, status, body)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		var zero T
		return zero, newDecodeError(desc, status, err)
	}
	return out, nil
}

// Registry tracks in-flight requests by descriptor key. At most one entry
// exists per key.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Pending
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Pending)}
}

// Lookup returns the in-flight request for key.
func (r *Registry) Lookup(key string) (*Pending, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.entries[key]
	return p, ok
}

// Register stores p under key, replacing any previous entry.
func (r *Registry) Register(key string, p *Pending) {
	r.mu.Lock()
	r.entries[key] = p
	r.mu.Unlock()
}

// LookupOrRegister returns the entry for key, creating it with create when
// absent. created reports whether the caller owns the new entry.
func (r *Registry) LookupOrRegister(key string, create func() *Pending) (p *Pending, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.entries[key]; ok {
		p.join()
		return p, false
	}
	p = create()
	r.entries[key] = p
	return p, true
}

// Release removes key only while it still maps to p.
func (r *Registry) Release(key string, p *Pending) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.entries[key]; ok && cur == p {
		delete(r.entries, key)
		return true
	}
	return false
}

// Len reports the number of in-flight entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
