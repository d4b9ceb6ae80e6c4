//go:build !(js && wasm)

package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/mochi-browser/taskbridge"
	"github.com/mochi-browser/taskbridge/core"
	"github.com/mochi-browser/taskbridge/internal/browser"
	"github.com/mochi-browser/taskbridge/internal/config"
	"github.com/mochi-browser/taskbridge/internal/fetch"
	"github.com/mochi-browser/taskbridge/internal/logging"
	"github.com/mochi-browser/taskbridge/internal/tui"
)

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("backend") {
		cfg.Bridge.Backend = c.String("backend")
	}
	if c.IsSet("workers") {
		cfg.Bridge.Workers = c.Int("workers")
	}
	if c.IsSet("metrics-addr") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = c.String("metrics-addr")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("theme") {
		cfg.UI.Theme = c.String("theme")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), 1)
	}

	logger, err := logging.Setup(cfg.Log)
	if err != nil {
		return cli.Exit(fmt.Sprintf("logging: %v", err), 1)
	}
	defer func() { _ = logger.Sync() }()

	notifier := tui.NewNotifier()
	bridgeCfg := &core.BridgeConfig{
		Name:                "ui",
		MaxPending:          cfg.Bridge.MaxPending,
		HistoryCapacity:     cfg.Bridge.History,
		Redraw:              core.NewRedrawTrigger(notifier.Notify),
		PanicHandler:        logging.NewPanicLogger(logger),
		RejectedTaskHandler: logging.NewRejectionLogger(logger),
		Logger:              logging.NewBridgeLogger(logger),
	}

	var metrics *metricsServer
	if cfg.Metrics.Enabled {
		metrics, err = newMetricsServer(cfg.Metrics, logger)
		if err != nil {
			return cli.Exit(fmt.Sprintf("metrics: %v", err), 1)
		}
		bridgeCfg.Metrics = metrics.exporter
	}

	b, err := taskbridge.NewBridge(taskbridge.Options{
		Backend: cfg.Bridge.Backend,
		Workers: cfg.Bridge.Workers,
		Config:  bridgeCfg,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("bridge: %v", err), 1)
	}
	defer b.Shutdown()

	if metrics != nil {
		metrics.start(b)
		defer metrics.stop()
	}

	client := fetch.New(fetch.Options{
		Timeout:      cfg.Fetch.Timeout,
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		Retry:        fetch.DefaultRetryPolicy(cfg.Fetch.MaxRetries),
		Logger:       logging.NewBridgeLogger(logger.Named("fetch")),
	})
	session := browser.NewSession(b, browser.Options{
		Client:  client,
		Timeout: loadTimeout(cfg.Fetch),
	})

	state, err := config.LoadState(cfg.State.Path)
	if err != nil {
		logger.Warn("could not restore session", zap.String("path", cfg.State.Path), zap.Error(err))
	}
	session.Restore(state)
	if url := c.Args().First(); url != "" {
		session.URLInput = url
	}

	model := tui.New(b, session, tui.Options{
		Theme:        cfg.UI.Theme,
		FetchOnStart: c.Args().Present(),
	})
	runErr := tui.Run(model, notifier, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if err := config.SaveState(cfg.State.Path, session.Snapshot()); err != nil {
		logger.Warn("could not save session", zap.String("path", cfg.State.Path), zap.Error(err))
	}
	if runErr != nil {
		return cli.Exit(fmt.Sprintf("ui: %v", runErr), 1)
	}
	return nil
}

// loadTimeout bounds a whole load, including every retry attempt.
func loadTimeout(f config.FetchConfig) time.Duration {
	return f.Timeout * time.Duration(f.MaxRetries+1)
}
