package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Package storage provides local persistence for canned debug responses.

// ErrNotFound is returned when a stub resource does not exist.
var ErrNotFound = errors.New("storage: stub not found")

// StubStore keeps named stub payloads.
type StubStore interface {
	Close() error
	Get(name string) ([]byte, error)
	Put(name string, data []byte) error
	Delete(name string) error
	List() ([]string, error)
}

// Options controls how concrete stores are opened.
type Options struct {
	OpenTimeout time.Duration
	ReadOnly    bool
}

const defaultOpenTimeout = time.Second

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (StubStore, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = defaultOpenTimeout
	}
	return opts
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("stub name is empty")
	}
	return nil
}

type noopStore struct{}

func (noopStore) Close() error               { return nil }
func (noopStore) Get(string) ([]byte, error) { return nil, ErrNotFound }
func (noopStore) Put(string, []byte) error   { return nil }
func (noopStore) Delete(string) error        { return nil }
func (noopStore) List() ([]string, error)    { return nil, nil }
