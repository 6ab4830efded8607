// Package main runs a simulated corridor exploration with both planners.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"go.viam.com/glocal/config"
	"go.viam.com/glocal/logging"
	"go.viam.com/glocal/telemetry"
)

const (
	flagConfig         = "config"
	flagTicks          = "ticks"
	flagSeed           = "seed"
	flagCorridorLength = "corridor-length"
	flagMetricsAddr    = "metrics-addr"
	flagDebug          = "debug"
)

func main() {
	logger := logging.NewLogger("glocal-sim")
	app := &cli.App{
		Name:            "glocal-sim",
		Usage:           "simulate an exploration run",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger.SetLevel(logging.DEBUG)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "explore a corridor, then plan back to the start",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load configuration from `FILE`",
					},
					&cli.IntFlag{
						Name:  flagTicks,
						Value: 500,
						Usage: "number of local planning iterations",
					},
					&cli.Int64Flag{
						Name:  flagSeed,
						Usage: "override the local planner random seed",
					},
					&cli.Float64Flag{
						Name:  flagCorridorLength,
						Value: 20,
						Usage: "length of the simulated corridor in meters",
					},
					&cli.StringFlag{
						Name:  flagMetricsAddr,
						Usage: "serve prometheus metrics on `ADDR` while running",
					},
				},
				Action: func(c *cli.Context) error {
					return runAction(c, logger)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		//nolint:errcheck
		logger.Sync()
		os.Exit(1)
	}
}

func runAction(c *cli.Context, logger logging.Logger) error {
	cfg := config.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return err
		}
		if !c.Bool(flagDebug) {
			logger.SetLevel(cfg.Level())
		}
	}
	if c.IsSet(flagSeed) {
		cfg.LocalPlanner.RandomSeed = c.Int64(flagSeed)
	}

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
	defer cancel()

	reg := prometheus.NewRegistry()
	recorder, err := telemetry.NewPrometheusRecorder(reg)
	if err != nil {
		return err
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)
	if addr := c.String(flagMetricsAddr); addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Infof("serving metrics on %s", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "metrics server")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	var res result
	g.Go(func() error {
		defer stop()
		var err error
		res, err = run(gctx, cfg, c.Float64(flagCorridorLength), c.Int(flagTicks), recorder, logger)
		return err
	})
	err = g.Wait()
	for i, wp := range res.Explored {
		logger.Infow("exploration waypoint", "index", i, "pose", wp.String())
	}
	if err != nil {
		return err
	}
	for i, wp := range res.Home {
		logger.Infow("path home", "index", i, "position", wp.Position)
	}
	logger.Infow("global search", "iterations", res.Search.Iterations,
		"expanded", res.Search.Expanded, "bridges", res.Search.Bridges)
	return nil
}
