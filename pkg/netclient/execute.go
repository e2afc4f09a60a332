package netclient

import (
	"context"

	"github.com/samvad-hq/samvad-netkit/pkg/jsonvalue"
	"github.com/samvad-hq/samvad-netkit/pkg/request"
)

// Future is the handle of one caller waiting on a request.
type Future[T any] struct {
	done    <-chan struct{}
	pending *Pending

	// set when resolved without a dispatch
	value T
	err   error
}

// Done is closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the result is available or ctx ends. A result that is
// already available wins over a done ctx. Giving up does not cancel the
// shared dispatch.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-f.done:
	default:
		select {
		case <-f.done:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
	if f.pending == nil {
		return f.value, f.err
	}
	return decodeAs[T](f.pending)
}

func resolved[T any](v T, err error) *Future[T] {
	done := make(chan struct{})
	close(done)
	return &Future[T]{done: done, value: v, err: err}
}

// Go starts executing desc and returns immediately.
//
// A debug override is decoded in place with no dispatch. Otherwise the caller
// joins an identical in-flight request or dispatches a new one.
func Go[T any](ctx context.Context, c *Client, desc request.Descriptor) *Future[T] {
	if ctx == nil {
		ctx = context.Background()
	}

	if resp, ok := c.debug.Response(ctx, desc); ok {
		method := string(desc.Method())
		c.metrics.recordDebugHit(method)
		c.log.DebugObj("serving debug response", "debug_response", map[string]any{
			"method":      method,
			"url":         desc.URL(),
			"stub_id":     desc.StubID(),
			"status_code": resp.Status(),
		})
		v, err := decodeBody[T](desc, resp.Status(), resp.Body)
		return resolved(v, err)
	}

	p := c.acquire(ctx, desc)
	return &Future[T]{done: p.Done(), pending: p}
}

// Execute runs desc and blocks for the decoded result.
func Execute[T any](ctx context.Context, c *Client, desc request.Descriptor) (T, error) {
	return Go[T](ctx, c, desc).Await(ctx)
}

// GetJSON fetches url and decodes the JSON response.
func GetJSON[T any](ctx context.Context, c *Client, url string) (T, error) {
	return Execute[T](ctx, c, request.New(request.MethodGet, url, nil, nil))
}

// PostJSON posts body as JSON to url and decodes the JSON response.
func PostJSON[T any](ctx context.Context, c *Client, url string, body *jsonvalue.Object) (T, error) {
	data, err := jsonvalue.EncodeObject(body)
	if err != nil {
		var zero T
		return zero, &Error{Kind: KindSerialization, Method: string(request.MethodPost), URL: url, Cause: err}
	}
	headers := map[string]string{request.HeaderContentType: request.ContentTypeJSON}
	return Execute[T](ctx, c, request.New(request.MethodPost, url, headers, data))
}
