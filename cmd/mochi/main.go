//go:build !(js && wasm)

// Command mochi is a terminal URL fetcher built on taskbridge.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "mochi",
		Usage:     "fetch and inspect URLs from the terminal",
		ArgsUsage: "[URL]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML config file",
				EnvVars: []string{"MOCHI_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "task backend: auto, threaded or cooperative",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "threaded backend pool size; negative runs a goroutine per task",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve Prometheus metrics on this address",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "theme",
				Usage: "dark or light",
			},
		},
		Action: runAction,
	}
}
