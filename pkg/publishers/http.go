package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/samvad-netkit/pkg/httpclient"
)

// Headers stamped on every webhook delivery so receivers can route and
// dedupe without parsing the body.
const (
	HeaderRequestID = "X-Netkit-Request-Id"
	HeaderOutcome   = "X-Netkit-Outcome"
)

const maxWebhookSnippet = 512

// httpPublisher posts settlement events as JSON to a webhook.
type httpPublisher struct {
	id     string
	method string
	url    string
	client *resty.Client
	log    Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	client := httpclient.NewRestyHTTPClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json")
	if len(cfg.HTTP.Headers) > 0 {
		client.SetHeaders(cfg.HTTP.Headers)
	}

	method := cfg.HTTP.Method
	if method == "" {
		method = httpDefaultMethod
	}
	return &httpPublisher{
		id:     cfg.ID,
		method: method,
		url:    cfg.HTTP.URL,
		client: client,
		log:    orDiscard(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

// Publish delivers evt. Any non-2xx answer is an error carrying a snippet of
// the webhook's response body.
func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader(HeaderRequestID, evt.RequestID).
		SetHeader(HeaderOutcome, evt.Outcome).
		SetBody(evt).
		Execute(h.method, h.url)
	if err != nil {
		return fmt.Errorf("deliver event %s: %w", evt.RequestID, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("webhook answered %d for event %s: %s", resp.StatusCode(), evt.RequestID, webhookSnippet(resp.Body()))
	}

	h.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": h.id,
		"request_id":   evt.RequestID,
		"status":       resp.StatusCode(),
	})
	return nil
}

func webhookSnippet(body []byte) string {
	if len(body) > maxWebhookSnippet {
		cut := maxWebhookSnippet
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	return strings.TrimSpace(string(body))
}
