package httpclient

import (
	"context"

	"github.com/samvad-hq/samvad-netkit/pkg/request"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject fakes or different transports.
type Client interface {
	Send(ctx context.Context, desc request.Descriptor) (Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, desc request.Descriptor) (Response, error)

func (f ClientFunc) Send(ctx context.Context, desc request.Descriptor) (Response, error) {
	return f(ctx, desc)
}

// StaticResponse is a Response backed by fixed values.
type StaticResponse struct {
	Data   []byte
	Status int
}

func (s StaticResponse) Body() []byte    { return s.Data }
func (s StaticResponse) StatusCode() int { return s.Status }
