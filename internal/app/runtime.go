package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/samvad-hq/samvad-netkit/internal/config"
	"github.com/samvad-hq/samvad-netkit/internal/logger"
	"github.com/samvad-hq/samvad-netkit/internal/storage"
	"github.com/samvad-hq/samvad-netkit/pkg/debugresp"
	"github.com/samvad-hq/samvad-netkit/pkg/httpclient"
	"github.com/samvad-hq/samvad-netkit/pkg/jsonvalue"
	"github.com/samvad-hq/samvad-netkit/pkg/netclient"
	"github.com/samvad-hq/samvad-netkit/pkg/publishers"
	"github.com/samvad-hq/samvad-netkit/pkg/request"
)

// Runtime wires the request builder, executor, debug provider and settlement
// publishers from configuration.
type Runtime struct {
	cfg      *config.Config
	log      logger.Logger
	builder  *request.Builder
	client   *netclient.Client
	store    storage.StubStore
	fanout   *publishers.Fanout
	registry *prometheus.Registry
}

// NewRuntime builds a runtime from config. The caller must Close it.
func NewRuntime(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rt := &Runtime{
		cfg:      cfg,
		log:      log,
		builder:  request.NewBuilder(cfg.BaseURL),
		registry: prometheus.NewRegistry(),
	}

	storeType := ""
	if cfg.DebugSource == config.DebugSourceBBolt {
		storeType = "bbolt"
	}
	store, err := storage.NewStore(storeType, cfg.BBoltPath, storage.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	rt.store = store

	provider, err := debugProvider(cfg, store, log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	log.InfoObj("debug provider initialized", "debug_config", map[string]any{
		"source":     cfg.DebugSource,
		"stub_dir":   cfg.StubDir,
		"stubs_file": cfg.StubsFile,
	})

	opts := []netclient.Option{
		netclient.WithDebugProvider(provider),
		netclient.WithDeduplication(cfg.DedupEnabled),
		netclient.WithLogger(log),
		netclient.WithRequestLogging(cfg.LogRequests),
		netclient.WithResponseLogging(cfg.LogResponses),
		netclient.WithMetrics(netclient.NewMetricsWithRegistry(rt.registry)),
	}

	if cfg.PublishersFile != "" {
		fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.fanout = fanout
		opts = append(opts, netclient.WithEventPublisher(fanout))
	}

	rt.client = netclient.New(httpclient.NewRestyClient(cfg.RequestTimeout), opts...)
	return rt, nil
}

func debugProvider(cfg *config.Config, store storage.StubStore, log logger.Logger) (debugresp.Provider, error) {
	var loader debugresp.ResourceLoader
	switch cfg.DebugSource {
	case config.DebugSourceDir:
		loader = debugresp.NewDirLoader(cfg.StubDir)
	case config.DebugSourceBBolt:
		loader = debugresp.NewStoreLoader(store)
	default:
		return debugresp.Empty{}, nil
	}

	opts := []debugresp.StubbedOption{debugresp.WithLogger(log)}
	if cfg.StubsFile != "" {
		manifest, err := debugresp.LoadManifest(cfg.StubsFile)
		if err != nil {
			return nil, fmt.Errorf("load stubs manifest: %w", err)
		}
		opts = append(opts, debugresp.WithManifest(manifest))
	}
	return debugresp.NewStubbed(loader, opts...), nil
}

func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	set, err := publishers.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers file: %w", err)
	}
	enabled := set.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":       pubCfg.ID,
			"type":     pubCfg.Type,
			"outcomes": strings.Join(pubCfg.Outcomes, ","),
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Builder returns the request builder bound to the configured base URL.
func (r *Runtime) Builder() *request.Builder { return r.builder }

// Client returns the executor.
func (r *Runtime) Client() *netclient.Client { return r.client }

// Metrics returns the registry holding executor metrics.
func (r *Runtime) Metrics() *prometheus.Registry { return r.registry }

// Fetch executes desc and decodes the response into a JSON value.
func (r *Runtime) Fetch(ctx context.Context, desc request.Descriptor) (jsonvalue.Value, error) {
	if r == nil || r.client == nil {
		return jsonvalue.Value{}, fmt.Errorf("runtime is not initialized")
	}
	return netclient.Execute[jsonvalue.Value](ctx, r.client, desc)
}

// Close releases the stub store and publisher clients.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.fanout != nil {
		if err := r.fanout.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.log.ErrorObj("storage close failed", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenStubStore opens the bbolt stub store for writing.
func OpenStubStore(cfg *config.Config) (storage.StubStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	store, err := storage.NewStore("bbolt", cfg.BBoltPath, storage.Options{})
	if err != nil {
		return nil, fmt.Errorf("open stub store: %w", err)
	}
	return store, nil
}
