package publishers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadKeepsOnlyEnabledSinks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	set, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	enabled := set.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
	if got := enabled[0].HTTP.Method; got != "POST" {
		t.Fatalf("expected default POST, got %q", got)
	}
	if len(set.All()) != 2 {
		t.Fatalf("expected both declarations in All, got %d", len(set.All()))
	}
}

func TestParseCloudSinks(t *testing.T) {
	raw := `{"publishers":[
  {"id":"topic","type":"sns","sns":{"topic_arn":" arn:aws:sns:us-east-1:1:t ","region":"us-east-1",
    "credentials":{"access_key_id":"AK","secret_access_key":""}}},
  {"id":"gcp","type":"PubSub","pubsub":{"project_id":"p","topic":"t"}}
]}`
	set, err := Parse([]byte(raw), ".json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sns, ok := set.ByID("topic")
	if !ok || sns.SNS.TopicARN != "arn:aws:sns:us-east-1:1:t" {
		t.Fatalf("unexpected sns config %#v", sns)
	}
	if sns.SNS.Credentials != nil {
		t.Fatalf("incomplete credentials should be dropped")
	}
	gcp, ok := set.ByID("gcp")
	if !ok || gcp.Type != TypePubSub {
		t.Fatalf("unexpected pubsub config %#v", gcp)
	}
}

func TestParseNormalizesOutcomes(t *testing.T) {
	raw := `
publishers:
  - id: failures
    type: log
    outcomes: [" Server_Error ", transport_error, server_error]
`
	set, err := Parse([]byte(raw), ".yml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg, _ := set.ByID("failures")
	if strings.Join(cfg.Outcomes, ",") != "server_error,transport_error" {
		t.Fatalf("unexpected outcomes %v", cfg.Outcomes)
	}
	if cfg.Accepts(OutcomeSuccess) {
		t.Fatalf("success should not be routed to failures sink")
	}
	if !cfg.Accepts(OutcomeTransportError) {
		t.Fatalf("transport_error should be routed to failures sink")
	}
}

func TestParseRejectsInvalidDeclarations(t *testing.T) {
	cases := map[string]string{
		"missing http block":   "publishers:\n  - id: h1\n    type: http\n",
		"missing pubsub topic": "publishers:\n  - id: gcp\n    type: pubsub\n    pubsub:\n      project_id: p\n",
		"unknown outcome":      "publishers:\n  - id: l\n    type: log\n    outcomes: [cancelled]\n",
		"unknown type":         "publishers:\n  - id: k\n    type: kafka\n",
		"duplicate id":         "publishers:\n  - id: l\n    type: log\n  - id: l\n    type: log\n",
		"empty file":           "publishers: []\n",
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw), ".yaml"); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
