//go:build !(js && wasm)

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mochi-browser/taskbridge/core"
	"github.com/mochi-browser/taskbridge/internal/config"
	obs "github.com/mochi-browser/taskbridge/observability/prometheus"
)

type metricsServer struct {
	exporter *obs.MetricsExporter
	poller   *obs.SnapshotPoller
	server   *http.Server
	logger   *zap.Logger
	cancel   context.CancelFunc
}

func newMetricsServer(cfg config.MetricsConfig, logger *zap.Logger) (*metricsServer, error) {
	reg := prom.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := obs.NewMetricsExporter(cfg.Namespace, reg, obs.ExporterOptions{})
	if err != nil {
		return nil, err
	}
	poller, err := obs.NewSnapshotPoller(reg, cfg.PollInterval)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return &metricsServer{
		exporter: exporter,
		poller:   poller,
		server:   &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		logger:   logger,
	}, nil
}

func (m *metricsServer) start(b *core.Bridge) {
	m.poller.AddBridge(b.Name(), b)
	m.poller.AddBackend(b.Backend().Name(), b.Backend())

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.poller.Start(ctx)

	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	m.logger.Info("serving metrics", zap.String("addr", m.server.Addr))
}

func (m *metricsServer) stop() {
	m.poller.Stop()
	m.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = m.server.Shutdown(ctx)
}
