package netclient

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/samvad-netkit/pkg/request"
)

func TestRegistryLookupOrRegisterSharesEntry(t *testing.T) {
	r := NewRegistry()
	desc := request.New(request.MethodGet, "https://api.example.com/users/5", nil, nil)
	creates := 0
	create := func() *Pending {
		creates++
		return newPending("req-1", desc)
	}

	first, created := r.LookupOrRegister(desc.Key(), create)
	require.True(t, created)
	second, created := r.LookupOrRegister(desc.Key(), create)
	require.False(t, created)

	assert.Same(t, first, second)
	assert.Equal(t, 1, creates)
	assert.Equal(t, 2, first.Waiters())
	assert.Equal(t, 1, r.Len())

	got, ok := r.Lookup(desc.Key())
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestRegistryReleaseOnlyMatchingPending(t *testing.T) {
	r := NewRegistry()
	desc := request.New(request.MethodGet, "https://x", nil, nil)
	old := newPending("old", desc)
	cur := newPending("cur", desc)
	r.Register("k", cur)

	assert.False(t, r.Release("k", old))
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.Release("k", cur))
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Release("k", cur))
}

func TestPendingSettlesOnce(t *testing.T) {
	desc := request.New(request.MethodGet, "https://x", nil, nil)
	p := newPending("req", desc)
	releases := 0
	p.onSettle = func() { releases++ }

	require.True(t, p.settle([]byte(`{"id":1}`), 200, nil))
	require.False(t, p.settle(nil, 0, errors.New("late")))

	<-p.Done()
	status, err := p.Result()
	assert.Equal(t, 200, status)
	assert.NoError(t, err)
	assert.Equal(t, 1, releases)
}

func TestDecodeAsMemoizesPerType(t *testing.T) {
	desc := request.New(request.MethodGet, "https://x", nil, nil)
	p := newPending("req", desc)
	p.settle([]byte(`{"id":5}`), 200, nil)

	a, err := decodeAs[*user](p)
	require.NoError(t, err)
	b, err := decodeAs[*user](p)
	require.NoError(t, err)
	assert.Same(t, a, b)

	m, err := decodeAs[map[string]int](p)
	require.NoError(t, err)
	assert.Equal(t, 5, m["id"])

	_, err = decodeAs[[]int](p)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	s := strings.Repeat("a", maxSummaryLen-1) + "é" + "tail"
	got := truncate(s)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", maxSummaryLen-1)+"...", got)

	body := []byte(strings.Repeat("€", 200))
	err := &Error{Kind: KindServer, Method: "GET", URL: "https://x", StatusCode: 500, Body: body}
	assert.True(t, utf8.ValidString(err.Error()))
}
