package debugresp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/samvad-hq/samvad-netkit/internal/storage"
)

// ErrResourceNotFound is returned by loaders when a named resource is absent.
var ErrResourceNotFound = errors.New("debugresp: resource not found")

// ResourceLoader reads a named stub payload.
type ResourceLoader interface {
	Load(ctx context.Context, name string) ([]byte, error)
}

// LoaderFunc adapts a function to ResourceLoader.
type LoaderFunc func(ctx context.Context, name string) ([]byte, error)

func (f LoaderFunc) Load(ctx context.Context, name string) ([]byte, error) {
	return f(ctx, name)
}

// DirLoader reads resources from files under a directory.
type DirLoader struct {
	fsys fs.FS
}

// NewDirLoader serves files below dir.
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{fsys: os.DirFS(dir)}
}

// NewFSLoader serves files from an arbitrary fs.FS, e.g. an embed.FS.
func NewFSLoader(fsys fs.FS) *DirLoader {
	return &DirLoader{fsys: fsys}
}

func (d *DirLoader) Load(_ context.Context, name string) ([]byte, error) {
	name = path.Clean(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if !fs.ValidPath(name) || name == "." {
		return nil, fmt.Errorf("invalid resource name %q", name)
	}
	data, err := fs.ReadFile(d.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read resource %s: %w", name, err)
	}
	return data, nil
}

// StoreLoader reads resources from a stub store.
type StoreLoader struct {
	store storage.StubStore
}

func NewStoreLoader(store storage.StubStore) *StoreLoader {
	return &StoreLoader{store: store}
}

func (s *StoreLoader) Load(_ context.Context, name string) ([]byte, error) {
	data, err := s.store.Get(name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load stub %s: %w", name, err)
	}
	return data, nil
}

// MapLoader serves resources from memory.
type MapLoader struct {
	mu        sync.RWMutex
	resources map[string][]byte
}

func NewMapLoader(resources map[string][]byte) *MapLoader {
	m := &MapLoader{resources: make(map[string][]byte, len(resources))}
	for k, v := range resources {
		m.resources[k] = append([]byte(nil), v...)
	}
	return m
}

// Set stores a copy of data under name.
func (m *MapLoader) Set(name string, data []byte) {
	m.mu.Lock()
	m.resources[name] = append([]byte(nil), data...)
	m.mu.Unlock()
}

func (m *MapLoader) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.resources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, name)
	}
	return append([]byte(nil), data...), nil
}
