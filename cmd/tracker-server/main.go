package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/orbit-tracker/config"
	"github.com/signalsfoundry/orbit-tracker/core"
	"github.com/signalsfoundry/orbit-tracker/feed"
	"github.com/signalsfoundry/orbit-tracker/internal/geocode"
	"github.com/signalsfoundry/orbit-tracker/internal/httpapi"
	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/internal/observability"
	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/store"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	listenAddr := flag.String("addr", "", "Override the HTTP listen address")
	metricsAddr := flag.String("metrics-addr", "", "Override the Prometheus /metrics address")
	storePath := flag.String("store", "", "Override the trajectory store directory (empty runs in memory)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error(ctx, "failed to load configuration", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	if *metricsAddr != "" {
		cfg.Server.MetricsAddr = *metricsAddr
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(cfg.Server.MetricsAddr, collector, log)

	trajectories, err := store.Open(cfg.Store.Path, log)
	if err != nil {
		log.Error(ctx, "failed to open trajectory store", logging.String("path", cfg.Store.Path), logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := trajectories.Close(); err != nil {
			log.Warn(ctx, "closing trajectory store", logging.String("error", err.Error()))
		}
	}()

	fetcher := feed.NewFetcher(cfg.Feed.URL, cfg.FeedTimeout())
	refresh := func(ctx context.Context, force bool) (model.IngestSummary, error) {
		summary, err := feed.Ingest(ctx, fetcher, trajectories, force, log)
		switch {
		case err != nil:
			collector.ObserveIngest("failed", 0, trajectories.Count())
		case summary.Skipped:
			collector.ObserveIngest("skipped", 0, trajectories.Count())
		default:
			collector.ObserveIngest("loaded", summary.Rejected, trajectories.Count())
		}
		return summary, err
	}

	// A dead feed should not keep the service from answering queries over
	// previously persisted records.
	if summary, err := refresh(ctx, false); err != nil {
		log.Warn(ctx, "startup ingest failed, serving existing records",
			logging.Int("records", trajectories.Count()),
			logging.String("error", err.Error()))
	} else {
		log.Info(ctx, "startup ingest complete",
			logging.Int("loaded", summary.Loaded),
			logging.Int("rejected", summary.Rejected),
			logging.Any("skipped", summary.Skipped))
	}

	engineOpts := []core.Option{
		core.WithLogger(log),
		core.WithMetricsRecorder(collector),
		core.WithGeocodeTimeout(cfg.GeocodeTimeout()),
	}
	if cfg.Geocode.Enabled {
		geocoder := geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.UserAgent, cfg.GeocodeTimeout())
		engineOpts = append(engineOpts, core.WithGeocoder(geocoder))
	}
	engine := core.NewEngine(trajectories, engineOpts...)

	api := httpapi.NewServer(engine, trajectories,
		httpapi.WithLogger(log),
		httpapi.WithRefresher(httpapi.RefresherFunc(refresh)),
		httpapi.WithMiddleware(collector.Middleware),
	)

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info(ctx, "starting tracker HTTP server", logging.String("addr", cfg.Server.ListenAddr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server exited", logging.String("error", err.Error()))
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down tracker server")
	timeout, err := cfg.ShutdownTimeout()
	if err != nil {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

func serveMetrics(addr string, collector *observability.Collector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
