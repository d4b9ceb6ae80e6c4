//go:build js && wasm

// Command mochi-web is the browser build of mochi. Build it with
//
//	GOOS=js GOARCH=wasm go build -o mochi.wasm ./cmd/mochi-web
//
// and serve it next to index.html and Go's wasm_exec.js.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mochi-browser/taskbridge"
	"github.com/mochi-browser/taskbridge/core"
	"github.com/mochi-browser/taskbridge/internal/browser"
	"github.com/mochi-browser/taskbridge/internal/config"
	"github.com/mochi-browser/taskbridge/internal/fetch"
	"github.com/mochi-browser/taskbridge/internal/logging"
	"github.com/mochi-browser/taskbridge/internal/webui"
)

func main() {
	cfg := config.Default()
	cfg.Log.Outputs = []string{"stderr"}
	cfg.Log.Rotation.Enable = false

	logger, err := logging.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := webui.New()
	b, err := taskbridge.NewBridge(taskbridge.Options{
		Backend: taskbridge.CapabilityCooperative.String(),
		Config: &core.BridgeConfig{
			Name:                "web",
			MaxPending:          cfg.Bridge.MaxPending,
			HistoryCapacity:     cfg.Bridge.History,
			Redraw:              core.NewRedrawTrigger(app.RequestFrame),
			PanicHandler:        logging.NewPanicLogger(logger),
			RejectedTaskHandler: logging.NewRejectionLogger(logger),
			Logger:              logging.NewBridgeLogger(logger),
		},
	})
	if err != nil {
		logger.Fatal("bridge", zap.Error(err))
	}

	client := fetch.New(fetch.Options{
		Timeout:      cfg.Fetch.Timeout,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		Retry:        fetch.DefaultRetryPolicy(cfg.Fetch.MaxRetries),
		Logger:       logging.NewBridgeLogger(logger.Named("fetch")),
	})
	session := browser.NewSession(b, browser.Options{Client: client})

	app.Mount("mochi", b, session)
	logger.Info("mochi-web ready", zap.String("backend", b.Backend().Name()))

	// The page keeps calling into Go; main must not return.
	select {}
}
