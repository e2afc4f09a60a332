// Package debugresp supplies canned responses that replace real network
// calls while testing or running offline.
package debugresp

import (
	"context"

	"github.com/samvad-hq/samvad-netkit/pkg/request"
)

// DefaultStatusCode is reported for overrides that do not set one.
const DefaultStatusCode = 200

// Response is a canned reply for a request.
type Response struct {
	Body       []byte
	StatusCode int
}

// Status returns the status code, defaulting to 200.
func (r Response) Status() int {
	if r.StatusCode == 0 {
		return DefaultStatusCode
	}
	return r.StatusCode
}

// Provider decides whether a request is answered locally. A false result
// means the request goes to the network.
type Provider interface {
	Response(ctx context.Context, desc request.Descriptor) (Response, bool)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, desc request.Descriptor) (Response, bool)

func (f ProviderFunc) Response(ctx context.Context, desc request.Descriptor) (Response, bool) {
	return f(ctx, desc)
}

// Empty never overrides.
type Empty struct{}

func (Empty) Response(context.Context, request.Descriptor) (Response, bool) {
	return Response{}, false
}
