package request

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/samvad-hq/samvad-netkit/pkg/jsonvalue"
)

// ErrSerialization is returned when a JSON body cannot be built.
var ErrSerialization = errors.New("request: body serialization failed")

// ErrInvalidURL is returned when a path cannot be turned into a URL.
var ErrInvalidURL = errors.New("request: invalid url")

var absolutePrefixes = []string{"https://", "http://"}

// QueryParam is one query key/value pair. Order is preserved.
type QueryParam struct {
	Key   string
	Value string
}

// Q is shorthand for QueryParam{Key: k, Value: v}.
func Q(k, v string) QueryParam { return QueryParam{Key: k, Value: v} }

// Builder constructs descriptors relative to an optional base URL.
type Builder struct {
	baseURL string
	headers map[string]string
}

// NewBuilder returns a builder. baseURL may be empty, in which case relative
// paths are used verbatim.
func NewBuilder(baseURL string) *Builder {
	return &Builder{baseURL: strings.TrimSpace(baseURL)}
}

// WithDefaultHeader sets a header stamped on every descriptor built afterwards.
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	if b.headers == nil {
		b.headers = make(map[string]string)
	}
	b.headers[key] = value
	return b
}

// BaseURL returns the configured base URL.
func (b *Builder) BaseURL() string { return b.baseURL }

// URLForPath resolves path against the base URL by path-component append.
// Paths starting with http:// or https:// are returned unchanged.
//
// With a base URL, path is one path component: a '?' in it is escaped
// ("search?x=1" becomes "search%3Fx=1"), not read as a query. Use
// URLForQuery or URLForRawQuery to add a query. Absolute URLs and paths used
// without a base URL keep their query as written.
func (b *Builder) URLForPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if isAbsolute(path) {
		if _, err := url.Parse(path); err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, path, err)
		}
		return path, nil
	}
	if b.baseURL == "" {
		if path == "" {
			return "", fmt.Errorf("%w: empty path and no base url", ErrInvalidURL)
		}
		return path, nil
	}

	base, err := url.Parse(b.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: base %q: %v", ErrInvalidURL, b.baseURL, err)
	}
	component := strings.TrimLeft(path, "/")
	if component == "" {
		return base.String(), nil
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/" + component
	base.RawPath = ""
	return base.String(), nil
}

// URLForQuery resolves path and appends params as key=value pairs in the
// given order. Duplicate keys are appended, never overwritten.
func (b *Builder) URLForQuery(path string, params ...QueryParam) (string, error) {
	u, err := b.URLForPath(path)
	if err != nil {
		return "", err
	}
	for _, p := range params {
		u = appendQuery(u, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	return u, nil
}

// URLForRawQuery resolves path and appends an already-encoded query string.
func (b *Builder) URLForRawQuery(path, query string) (string, error) {
	u, err := b.URLForPath(path)
	if err != nil {
		return "", err
	}
	return appendQuery(u, strings.TrimLeft(query, "?&")), nil
}

// URLWithQueryItems resolves path and replaces any existing query with items.
// Only a real query is replaced. An escaped '?' inside a relative path
// component (see URLForPath) is part of the path and is kept.
func (b *Builder) URLWithQueryItems(path string, items ...QueryParam) (string, error) {
	u, err := b.URLForPath(path)
	if err != nil {
		return "", err
	}
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	if len(items) == 0 {
		return u, nil
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, url.QueryEscape(it.Key)+"="+url.QueryEscape(it.Value))
	}
	return u + "?" + strings.Join(parts, "&"), nil
}

// Get builds a GET descriptor for path with optional query params.
func (b *Builder) Get(path string, params ...QueryParam) (Descriptor, error) {
	u, err := b.URLForQuery(path, params...)
	if err != nil {
		return Descriptor{}, err
	}
	return New(MethodGet, u, b.headers, nil), nil
}

// JSONPost builds a POST descriptor whose body is obj encoded as JSON.
func (b *Builder) JSONPost(path string, obj *jsonvalue.Object) (Descriptor, error) {
	data, err := jsonvalue.EncodeObject(obj)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return b.JSONPostBytes(path, data)
}

// JSONPostBytes builds a POST descriptor with a pre-encoded JSON body.
func (b *Builder) JSONPostBytes(path string, data []byte) (Descriptor, error) {
	u, err := b.URLForPath(path)
	if err != nil {
		return Descriptor{}, err
	}
	if data == nil {
		data = []byte{}
	}
	d := New(MethodPost, u, b.headers, data)
	return d.WithHeader(HeaderContentType, ContentTypeJSON), nil
}

// FormPost builds a POST whose body is JSON-encoded, matching JSONPost.
func (b *Builder) FormPost(path string, obj *jsonvalue.Object) (Descriptor, error) {
	return b.JSONPost(path, obj)
}

func isAbsolute(path string) bool {
	lower := strings.ToLower(path)
	for _, p := range absolutePrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func appendQuery(u, query string) string {
	if query == "" {
		return u
	}
	switch {
	case !strings.Contains(u, "?"):
		return u + "?" + query
	case strings.HasSuffix(u, "?"), strings.HasSuffix(u, "&"):
		return u + query
	default:
		return u + "&" + query
	}
}
