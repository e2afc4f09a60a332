package request

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Method is the HTTP verb of a descriptor.
type Method string

const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
)

const (
	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json"
)

// Descriptor is a fully-resolved request. It is immutable: accessors return
// copies and modifiers return a new Descriptor.
type Descriptor struct {
	method  Method
	url     string
	headers map[string]string
	body    []byte
	hasBody bool
	stubID  string
}

// New builds a descriptor from its parts. A nil body means "no body".
func New(method Method, url string, headers map[string]string, body []byte) Descriptor {
	d := Descriptor{
		method:  method,
		url:     url,
		headers: copyHeaders(headers),
	}
	if body != nil {
		d.body = append([]byte(nil), body...)
		d.hasBody = true
	}
	return d
}

func (d Descriptor) Method() Method { return d.method }
func (d Descriptor) URL() string    { return d.url }

// StubID is the debug stub attached to this request, if any.
func (d Descriptor) StubID() string { return d.stubID }

// Headers returns a copy of the request headers.
func (d Descriptor) Headers() map[string]string { return copyHeaders(d.headers) }

// Header returns a single header value.
func (d Descriptor) Header(key string) string { return d.headers[key] }

// Body returns a copy of the body and whether one is attached.
func (d Descriptor) Body() ([]byte, bool) {
	if !d.hasBody {
		return nil, false
	}
	return append([]byte(nil), d.body...), true
}

// WithHeader returns a copy of d with the header set.
func (d Descriptor) WithHeader(key, value string) Descriptor {
	out := d
	out.headers = copyHeaders(d.headers)
	if out.headers == nil {
		out.headers = make(map[string]string, 1)
	}
	out.headers[key] = value
	return out
}

// WithStub returns a copy of d carrying a debug stub id. The stub id does
// not take part in request identity.
func (d Descriptor) WithStub(id string) Descriptor {
	out := d
	out.stubID = strings.TrimSpace(id)
	return out
}

// Equal reports structural equality over method, URL, headers and body.
func (d Descriptor) Equal(other Descriptor) bool {
	if d.method != other.method || d.url != other.url || d.hasBody != other.hasBody {
		return false
	}
	if len(d.headers) != len(other.headers) {
		return false
	}
	for k, v := range d.headers {
		if ov, ok := other.headers[k]; !ok || ov != v {
			return false
		}
	}
	return string(d.body) == string(other.body)
}

// Key is the identity of d used for in-flight deduplication. Two
// descriptors have the same key exactly when Equal reports true.
func (d Descriptor) Key() string {
	h := sha256.New()
	writeField(h, string(d.method))
	writeField(h, d.url)

	names := make([]string, 0, len(d.headers))
	for k := range d.headers {
		names = append(names, k)
	}
	sort.Strings(names)
	writeField(h, strconv.Itoa(len(names)))
	for _, k := range names {
		writeField(h, k)
		writeField(h, d.headers[k])
	}

	if d.hasBody {
		writeField(h, "body")
		writeField(h, string(d.body))
	} else {
		writeField(h, "nobody")
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeField length-prefixes each field so adjacent fields cannot collide.
func writeField(w io.Writer, s string) {
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(len(s)))
	_, _ = w.Write(prefix[:])
	_, _ = w.Write([]byte(s))
}

func copyHeaders(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
