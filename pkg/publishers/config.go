package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sink types understood by DefaultRegistry.
const (
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
	TypeHTTP   = "http"
	TypeLog    = "log"
)

const (
	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

var knownOutcomes = []string{OutcomeSuccess, OutcomeServerError, OutcomeTransportError}

// PublisherConfig declares one settlement sink.
type PublisherConfig struct {
	ID      string `json:"id" yaml:"id"`
	Type    string `json:"type" yaml:"type"`
	Enabled *bool  `json:"enabled" yaml:"enabled"`
	// Outcomes limits delivery to these settlement outcomes. Empty routes all of them.
	Outcomes []string               `json:"outcomes" yaml:"outcomes"`
	SQS      *SQSPublisherConfig    `json:"sqs" yaml:"sqs"`
	SNS      *SNSPublisherConfig    `json:"sns" yaml:"sns"`
	PubSub   *PubSubPublisherConfig `json:"pubsub" yaml:"pubsub"`
	HTTP     *HTTPPublisherConfig   `json:"http" yaml:"http"`
}

// AWSCredentials optionally pins static keys instead of the default chain.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
}

// SQSPublisherConfig holds AWS SQS specific settings.
type SQSPublisherConfig struct {
	QueueURL    string          `json:"uri" yaml:"uri"`
	Region      string          `json:"region" yaml:"region"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials"`
}

// SNSPublisherConfig holds AWS SNS specific settings.
type SNSPublisherConfig struct {
	TopicARN    string          `json:"topic_arn" yaml:"topic_arn"`
	Region      string          `json:"region" yaml:"region"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials"`
}

// PubSubPublisherConfig holds Google Cloud Pub/Sub settings.
type PubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig describes a webhook receiving settlement events.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// IsEnabled reports the enabled flag, which defaults to true.
func (cfg PublisherConfig) IsEnabled() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// Accepts reports whether events with the given outcome are routed to this sink.
func (cfg PublisherConfig) Accepts(outcome string) bool {
	return len(cfg.Outcomes) == 0 || slices.Contains(cfg.Outcomes, outcome)
}

func (cfg *PublisherConfig) normalize() {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	var outcomes []string
	for _, o := range cfg.Outcomes {
		o = strings.ToLower(strings.TrimSpace(o))
		if o != "" && !slices.Contains(outcomes, o) {
			outcomes = append(outcomes, o)
		}
	}
	cfg.Outcomes = outcomes

	cfg.SQS.normalize()
	cfg.SNS.normalize()
	cfg.PubSub.normalize()
	cfg.HTTP.normalize()
}

func (cfg PublisherConfig) validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}

	var err error
	switch cfg.Type {
	case "":
		err = errors.New("type is required")
	case TypeSQS:
		err = cfg.SQS.validate()
	case TypeSNS:
		err = cfg.SNS.validate()
	case TypePubSub:
		err = cfg.PubSub.validate()
	case TypeHTTP:
		err = cfg.HTTP.validate()
	case TypeLog:
	default:
		err = fmt.Errorf("unknown type %q", cfg.Type)
	}
	if err == nil {
		for _, o := range cfg.Outcomes {
			if !slices.Contains(knownOutcomes, o) {
				err = fmt.Errorf("unknown outcome %q (expected one of %s)", o, strings.Join(knownOutcomes, ", "))
				break
			}
		}
	}
	if err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return nil
}

func (c *SQSPublisherConfig) normalize() {
	if c == nil {
		return
	}
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.Region = strings.TrimSpace(c.Region)
	c.Credentials = c.Credentials.usable()
}

func (c *SQSPublisherConfig) validate() error {
	switch {
	case c == nil:
		return errors.New("sqs block is required")
	case c.QueueURL == "":
		return errors.New("sqs.uri is required")
	case c.Region == "":
		return errors.New("sqs.region is required")
	}
	return nil
}

func (c *SNSPublisherConfig) normalize() {
	if c == nil {
		return
	}
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.Region = strings.TrimSpace(c.Region)
	c.Credentials = c.Credentials.usable()
}

func (c *SNSPublisherConfig) validate() error {
	switch {
	case c == nil:
		return errors.New("sns block is required")
	case c.TopicARN == "":
		return errors.New("sns.topic_arn is required")
	case c.Region == "":
		return errors.New("sns.region is required")
	}
	return nil
}

func (c *PubSubPublisherConfig) normalize() {
	if c == nil {
		return
	}
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.Topic = strings.TrimSpace(c.Topic)
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
}

func (c *PubSubPublisherConfig) validate() error {
	if c == nil {
		return errors.New("pubsub block is required")
	}
	if c.ProjectID == "" || c.Topic == "" {
		return errors.New("pubsub.project_id and pubsub.topic are required")
	}
	return nil
}

func (c *HTTPPublisherConfig) normalize() {
	if c == nil {
		return
	}
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = httpDefaultMethod
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = httpDefaultTimeoutSeconds
	}

	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			headers[k] = v
		}
	}
	c.Headers = nil
	if len(headers) > 0 {
		c.Headers = headers
	}
}

func (c *HTTPPublisherConfig) validate() error {
	if c == nil {
		return errors.New("http block is required")
	}
	if c.URL == "" {
		return errors.New("http.url is required")
	}
	return nil
}

// usable drops credential blocks without a complete key pair.
func (c *AWSCredentials) usable() *AWSCredentials {
	if c == nil {
		return nil
	}
	out := AWSCredentials{
		AccessKeyID:     strings.TrimSpace(c.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(c.SecretAccessKey),
		SessionToken:    strings.TrimSpace(c.SessionToken),
	}
	if out.AccessKeyID == "" || out.SecretAccessKey == "" {
		return nil
	}
	return &out
}

// Set is the validated list of sinks declared in a publishers file.
type Set struct {
	entries []PublisherConfig
	byID    map[string]int
}

// Load reads and validates a publishers file. Files ending in .json are
// decoded as JSON, everything else as YAML.
func Load(path string) (*Set, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}
	return Parse(raw, filepath.Ext(path))
}

// Parse decodes publishers declarations from data. ext selects the format
// the same way Load does.
func Parse(data []byte, ext string) (*Set, error) {
	var doc struct {
		Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
	}

	var err error
	if strings.EqualFold(strings.TrimSpace(ext), ".json") {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode publishers file: %w", err)
	}
	if len(doc.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	set := &Set{
		entries: make([]PublisherConfig, 0, len(doc.Publishers)),
		byID:    make(map[string]int, len(doc.Publishers)),
	}
	for i := range doc.Publishers {
		cfg := doc.Publishers[i]
		cfg.normalize()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := set.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		set.byID[cfg.ID] = len(set.entries)
		set.entries = append(set.entries, cfg)
	}
	return set, nil
}

// ByID returns the declaration with the given id.
func (s *Set) ByID(id string) (PublisherConfig, bool) {
	if s == nil {
		return PublisherConfig{}, false
	}
	i, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return s.entries[i], true
}

// All returns every declaration in file order.
func (s *Set) All() []PublisherConfig {
	if s == nil {
		return nil
	}
	return slices.Clone(s.entries)
}

// Enabled returns the declarations that are switched on.
func (s *Set) Enabled() []PublisherConfig {
	if s == nil {
		return nil
	}
	var out []PublisherConfig
	for _, cfg := range s.entries {
		if cfg.IsEnabled() {
			out = append(out, cfg)
		}
	}
	return out
}
