package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"doc2db/internal/api"
	"doc2db/internal/config"
	"doc2db/internal/logger"
	"doc2db/internal/metrics"

	// register every metastore backend; config picks one.
	_ "doc2db/internal/metastore/all"
)

// main is the entry point for the doc2db server. It loads and validates the
// config, installs logging and metrics, wires the service and serves HTTP
// until SIGINT or SIGTERM.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "", "YAML config path (default "+config.DefaultPath+" when present)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend: pushgateway, datadog, none (overrides env METRICS_BACKEND and config)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL and config)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable debug logs")

	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fatalf("configuration is invalid")
	}
	if validate {
		fmt.Fprintln(os.Stderr, "configuration is valid")
		os.Exit(0)
	}

	log := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger.SetGlobal(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, metricsBackendFlg, pushGatewayURLFlg, log); err != nil {
		log.ErrorWith("server stopped", err, nil)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, backendFlag, gatewayFlag string, log *logger.Logger) error {
	closeMetrics := installMetrics(cfg.Metrics, backendFlag, gatewayFlag, log)
	defer closeMetrics()

	app, err := wire(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(app.Service, log, cfg.MaxUploadBytes()),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoWith("listening", map[string]any{"addr": srv.Addr, "metastore": cfg.Metastore.Kind, "filestore": cfg.Filestore.Kind})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		flushLoop(gctx, cfg.Metrics.FlushInterval, log)
		return nil
	})
	return g.Wait()
}

// flushLoop pushes metrics every interval until ctx ends.
func flushLoop(ctx context.Context, every time.Duration, log *logger.Logger) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := metrics.Flush(); err != nil {
				log.WarnWith("metrics: flush", err, nil)
			}
		}
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
