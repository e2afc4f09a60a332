package debugresp

import (
	"context"

	"github.com/samvad-hq/samvad-netkit/pkg/request"
)

// Stubbed answers requests that carry a stub id with the named resource.
//
// With a manifest, ids resolve through it and unknown ids fall through to the
// network. Without one, the id is the resource name.
type Stubbed struct {
	loader   ResourceLoader
	manifest *Manifest
	log      Logger
}

// StubbedOption configures a Stubbed provider.
type StubbedOption func(*Stubbed)

// WithManifest resolves stub ids through m.
func WithManifest(m *Manifest) StubbedOption {
	return func(s *Stubbed) { s.manifest = m }
}

// WithLogger sets the logger used for load failures.
func WithLogger(log Logger) StubbedOption {
	return func(s *Stubbed) { s.log = ensureLogger(log) }
}

// NewStubbed builds a provider reading resources through loader.
func NewStubbed(loader ResourceLoader, opts ...StubbedOption) *Stubbed {
	s := &Stubbed{loader: loader, log: noopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Stubbed) Response(ctx context.Context, desc request.Descriptor) (Response, bool) {
	id := desc.StubID()
	if id == "" || s.loader == nil {
		return Response{}, false
	}

	stub := Stub{ID: id, Resource: id}
	if s.manifest != nil {
		var ok bool
		if stub, ok = s.manifest.Lookup(id); !ok {
			s.log.DebugObj("stub id not in manifest", "debug_stub", map[string]any{
				"stub_id": id,
				"url":     desc.URL(),
			})
			return Response{}, false
		}
	}

	data, err := s.loader.Load(ctx, stub.Resource)
	if err != nil {
		s.log.DebugObj("stub resource unavailable", "debug_stub", map[string]any{
			"stub_id":  id,
			"resource": stub.Resource,
			"error":    err.Error(),
		})
		return Response{}, false
	}

	return Response{Body: data, StatusCode: stub.StatusCode}, true
}
