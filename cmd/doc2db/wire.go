package main

import (
	"context"
	"fmt"
	"os"

	"doc2db/internal/config"
	"doc2db/internal/filestore"
	"doc2db/internal/filestore/local"
	"doc2db/internal/filestore/minio"
	"doc2db/internal/logger"
	"doc2db/internal/metastore"
	"doc2db/internal/metrics"
	"doc2db/internal/metrics/datadog"
	"doc2db/internal/metrics/prompush"
	"doc2db/internal/oracle"
	"doc2db/internal/service"
	"doc2db/internal/storage/sqlite"
)

type app struct {
	Service *service.Service
	meta    metastore.Store
}

func (a *app) Close() error { return a.meta.Close() }

// wire opens the stores and builds the service.
func wire(ctx context.Context, cfg config.Config, log *logger.Logger) (*app, error) {
	meta, err := metastore.Open(ctx, metastore.Config{Kind: cfg.Metastore.Kind, DSN: cfg.Metastore.DSN})
	if err != nil {
		return nil, fmt.Errorf("metastore: %w", err)
	}
	if err := meta.Bootstrap(ctx); err != nil {
		meta.Close()
		return nil, fmt.Errorf("metastore bootstrap: %w", err)
	}

	files, err := openFilestore(ctx, cfg.Filestore)
	if err != nil {
		meta.Close()
		return nil, fmt.Errorf("filestore: %w", err)
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		meta.Close()
		return nil, fmt.Errorf("data dir: %w", err)
	}

	ocfg := oracle.Config{
		APIKey:     cfg.Oracle.APIKey,
		Model:      cfg.Oracle.Model,
		BaseURL:    cfg.Oracle.BaseURL,
		MaxTokens:  cfg.Oracle.MaxTokens,
		Timeout:    cfg.Oracle.Timeout,
		MaxRetries: cfg.Oracle.MaxRetries,
	}
	if !ocfg.Configured() {
		log.Warn("oracle: OPENAI_API_KEY is not set; extraction requests will be rejected")
	}

	svc, err := service.New(service.Options{
		Metastore:     meta,
		Files:         files,
		Oracle:        oracle.NewOpenAI(ocfg, log.With().Str("component", "oracle").Logger()),
		Destinations:  sqlite.Locator{Root: cfg.Storage.DataDir},
		Limits:        filestore.Limits{MaxBytes: cfg.MaxUploadBytes(), Extensions: cfg.Extensions()},
		PreviewLimit:  cfg.Storage.PreviewLimit,
		LLMConfigured: ocfg.Configured(),
		Database:      cfg.Metastore.Kind,
		Job:           cfg.Metrics.Job,
		Log:           log.With().Str("component", "service").Logger(),
	})
	if err != nil {
		meta.Close()
		return nil, err
	}
	return &app{Service: svc, meta: meta}, nil
}

func openFilestore(ctx context.Context, fc config.Filestore) (filestore.Store, error) {
	switch fc.Kind {
	case "", "local":
		return local.New(fc.Dir)
	case "minio":
		return minio.New(ctx, minio.Config{
			Endpoint:  fc.Minio.Endpoint,
			AccessKey: fc.Minio.AccessKey,
			SecretKey: fc.Minio.SecretKey,
			Bucket:    fc.Minio.Bucket,
			UseSSL:    fc.Minio.UseSSL,
			Region:    fc.Minio.Region,
		})
	default:
		return nil, fmt.Errorf("unknown filestore kind %q", fc.Kind)
	}
}

// installMetrics picks the backend: flag, then env (already folded into
// config), then config. It returns a func that flushes and releases it.
func installMetrics(mc config.Metrics, backendFlag, gatewayFlag string, log *logger.Logger) func() {
	backendName := mc.Backend
	if backendFlag != "" {
		backendName = backendFlag
	}
	noop := func() {}

	switch backendName {
	case "pushgateway":
		gwURL := mc.PushgatewayURL
		if gatewayFlag != "" {
			gwURL = gatewayFlag
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(mc.Job, gwURL)
		if err != nil {
			log.WarnWith("metrics: failed to init prom push backend; using nop", err, nil)
			return noop
		}
		log.InfoWith("metrics enabled", map[string]any{"backend": backendName, "url": gwURL, "job": mc.Job})
		metrics.SetBackend(b)
		return func() {
			if err := metrics.Flush(); err != nil {
				log.WarnWith("metrics: flush", err, nil)
			}
		}

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       mc.Datadog.Addr,
			Namespace:  mc.Datadog.Namespace,
			GlobalTags: mc.Datadog.Tags,
		})
		if err != nil {
			log.WarnWith("metrics: failed to init datadog backend; using nop", err, nil)
			return noop
		}
		log.InfoWith("metrics enabled", map[string]any{"backend": backendName, "addr": mc.Datadog.Addr})
		metrics.SetBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				log.WarnWith("metrics: close", err, nil)
			}
		}

	case "", "none":
		log.Debug("metrics: disabled")
		return noop

	default:
		log.Warnf("metrics: unknown backend %q; metrics disabled", backendName)
		return noop
	}
}
