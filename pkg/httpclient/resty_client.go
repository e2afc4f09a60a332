package httpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/samvad-netkit/pkg/request"
)

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// WrapResty adapts an existing resty.Client, e.g. one pointed at a test server.
func WrapResty(c *resty.Client) *RestyClient {
	if c == nil {
		c = resty.New()
	}
	return &RestyClient{client: c}
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
// Retries stay disabled: failures surface to the caller on the first attempt.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetRetryCount(0)
	return c
}

// Send executes the descriptor and returns the raw body and status code.
// Non-2xx statuses are not errors at this layer.
func (r *RestyClient) Send(ctx context.Context, desc request.Descriptor) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if headers := desc.Headers(); len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if body, ok := desc.Body(); ok {
		req.SetBody(body)
	}

	resp, err := req.Execute(string(desc.Method()), desc.URL())
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", desc.Method(), desc.URL(), err)
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
