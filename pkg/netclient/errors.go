package netclient

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/samvad-netkit/pkg/request"
)

// Kind classifies request failures.
type Kind int

const (
	KindServer Kind = iota + 1
	KindDecode
	KindTransport
	KindSerialization
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "ServerError"
	case KindDecode:
		return "DecodeError"
	case KindTransport:
		return "TransportError"
	case KindSerialization:
		return "SerializationError"
	default:
		return "UnknownError"
	}
}

// Sentinel errors matching each Kind via errors.Is.
var (
	ErrServer    = errors.New("netclient: server error")
	ErrDecode    = errors.New("netclient: decode error")
	ErrTransport = errors.New("netclient: transport error")
	// ErrSerialization is shared with the request builder.
	ErrSerialization = request.ErrSerialization
)

const maxSummaryLen = 256

// Error describes a failed request.
type Error struct {
	Kind       Kind
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s %s", e.Kind, e.Method, e.URL)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if summary := e.Summary(); summary != "" {
		msg = fmt.Sprintf("%s: %s", msg, summary)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		out = append(out, s)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// Is matches another *Error of the same Kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Summary is a short human readable rendering of the response body. HTML
// error pages are reduced to their title.
func (e *Error) Summary() string {
	if e == nil || e.Kind != KindServer || len(e.Body) == 0 {
		return ""
	}
	if looksLikeHTML(e.Body) {
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(e.Body)); err == nil {
			if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
				return truncate(title)
			}
			if text := strings.Join(strings.Fields(doc.Find("body").Text()), " "); text != "" {
				return truncate(text)
			}
		}
	}
	return truncate(strings.TrimSpace(string(e.Body)))
}

func (k Kind) sentinel() error {
	switch k {
	case KindServer:
		return ErrServer
	case KindDecode:
		return ErrDecode
	case KindTransport:
		return ErrTransport
	case KindSerialization:
		return ErrSerialization
	}
	return nil
}

func looksLikeHTML(body []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(body))
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

// truncate cuts s to at most maxSummaryLen bytes on a rune boundary.
func truncate(s string) string {
	if len(s) <= maxSummaryLen {
		return s
	}
	cut := maxSummaryLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func newServerError(desc request.Descriptor, status int, body []byte) *Error {
	return &Error{
		Kind:       KindServer,
		Method:     string(desc.Method()),
		URL:        desc.URL(),
		StatusCode: status,
		Body:       body,
	}
}

func newTransportError(desc request.Descriptor, cause error) *Error {
	return &Error{
		Kind:   KindTransport,
		Method: string(desc.Method()),
		URL:    desc.URL(),
		Cause:  cause,
	}
}

func newDecodeError(desc request.Descriptor, status int, cause error) *Error {
	return &Error{
		Kind:       KindDecode,
		Method:     string(desc.Method()),
		URL:        desc.URL(),
		StatusCode: status,
		Cause:      cause,
	}
}
