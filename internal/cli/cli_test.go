package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-netkit/internal/config"
)

func testConfig(baseURL, boltPath string) ConfigLoader {
	return func() (*config.Config, error) {
		return &config.Config{
			AppName:        "netkit-test",
			LogLevel:       "error",
			BaseURL:        baseURL,
			RequestTimeout: 2 * time.Second,
			DedupEnabled:   true,
			DebugSource:    config.DebugSourceNone,
			BBoltPath:      boltPath,
		}, nil
	}
}

func runCLI(t *testing.T, load ConfigLoader, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(&out, load)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGetPrintsJSONAndSendsQuery(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.RawQuery != "q=cats&page=2" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		if r.Header.Get("X-Trace") != "abc" {
			t.Errorf("missing header")
		}
		_, _ = w.Write([]byte(`{"results":[1,2]}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, testConfig(srv.URL, ""), "get", "search", "-q", "q=cats", "-q", "page=2", "-H", "X-Trace: abc", "--metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(out, `"results"`) {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.Contains(out, "netkit_requests_total") {
		t.Fatalf("expected metrics in output %q", out)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected 1 hit, got %d", hits.Load())
	}
}

func TestGetRepeatIsDeduplicated(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		time.Sleep(50 * time.Millisecond)
		_, _ = w.Write([]byte(`{"id":5}`))
	}))
	defer srv.Close()

	if _, err := runCLI(t, testConfig(srv.URL, ""), "get", "users/5", "--repeat", "4"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected 1 hit, got %d", hits.Load())
	}
}

func TestPostSendsFieldsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r.Body)
		if buf.String() != `{"name":"Ada","role":"admin"}` {
			t.Errorf("unexpected body %s", buf.String())
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %s", r.Header.Get("Content-Type"))
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, testConfig(srv.URL, ""), "post", "users", "-f", "name=Ada", "-f", "role=admin")
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !strings.Contains(out, `"ok": true`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestGetReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := runCLI(t, testConfig(srv.URL, ""), "get", "missing"); err == nil {
		t.Fatalf("expected server error")
	}
}

func TestStubLifecycle(t *testing.T) {
	dir := t.TempDir()
	load := testConfig("", filepath.Join(dir, "stubs.db"))
	file := filepath.Join(dir, "user.json")
	if err := os.WriteFile(file, []byte(`{"id":5}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := runCLI(t, load, "stub", "put", "user.json", file); err != nil {
		t.Fatalf("stub put: %v", err)
	}
	out, err := runCLI(t, load, "stub", "list")
	if err != nil || strings.TrimSpace(out) != "user.json" {
		t.Fatalf("stub list = %q, %v", out, err)
	}
	out, err = runCLI(t, load, "stub", "get", "user.json")
	if err != nil || strings.TrimSpace(out) != `{"id":5}` {
		t.Fatalf("stub get = %q, %v", out, err)
	}
	if _, err := runCLI(t, load, "stub", "delete", "user.json"); err != nil {
		t.Fatalf("stub delete: %v", err)
	}
	if _, err := runCLI(t, load, "stub", "get", "user.json"); err == nil {
		t.Fatalf("expected missing stub error")
	}
}

func TestStubPutRejectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(file, []byte(`{oops`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := runCLI(t, testConfig("", filepath.Join(dir, "stubs.db")), "stub", "put", "bad", file); err == nil {
		t.Fatalf("expected invalid JSON error")
	}
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, testConfig("", ""), "version")
	if err != nil || strings.TrimSpace(out) != version {
		t.Fatalf("version = %q, %v", out, err)
	}
}
