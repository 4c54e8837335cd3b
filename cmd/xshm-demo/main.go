// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Command xshm-demo opens a window and draws a gradient, which is sent
// to the X server through a shared memory segment.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/heptiolabs/healthcheck"
	"github.com/lthibault/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	xshm "github.com/nxgtw/go-xshm"
	"github.com/nxgtw/go-xshm/shm"
	"github.com/nxgtw/go-xshm/x11"
)

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:    "display",
		Usage:   "X `display` to connect to",
		EnvVars: []string{"XSHM_DISPLAY", "DISPLAY"},
	},
	&cli.UintFlag{
		Name:    "width",
		Usage:   "window `width`",
		Value:   320,
		EnvVars: []string{"XSHM_WIDTH"},
	},
	&cli.UintFlag{
		Name:    "height",
		Usage:   "window `height`",
		Value:   240,
		EnvVars: []string{"XSHM_HEIGHT"},
	},
	&cli.IntFlag{
		Name:    "frames",
		Usage:   "number of gradient `frames` to put before waiting for input",
		Value:   1,
		EnvVars: []string{"XSHM_FRAMES"},
	},
	&cli.StringFlag{
		Name:    "logfmt",
		Aliases: []string{"f"},
		Usage:   "`format` logs as text, json or none",
		Value:   "text",
		EnvVars: []string{"XSHM_LOGFMT"},
	},
	&cli.StringFlag{
		Name:    "loglvl",
		Usage:   "set logging `level` to trace, debug, info, warn, error or fatal",
		Value:   "info",
		EnvVars: []string{"XSHM_LOGLVL"},
	},
	&cli.StringFlag{
		Name:        "metrics",
		Usage:       "serve /metrics, /live and /ready on `host:port`",
		DefaultText: "disabled",
		EnvVars:     []string{"XSHM_METRICS"},
	},
	&cli.DurationFlag{
		Name:    "dial-timeout",
		Usage:   "keep retrying to connect for `duration`",
		Value:   10 * time.Second,
		EnvVars: []string{"XSHM_DIAL_TIMEOUT"},
	},
}

func main() {
	app := &cli.App{
		Name:   "xshm-demo",
		Usage:  "draw an image through MIT-SHM",
		Flags:  flags,
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	if c.Uint("width") == 0 || c.Uint("width") > 0xffff || c.Uint("height") == 0 || c.Uint("height") > 0xffff {
		return errors.New("window size must be within 1..65535")
	}
	logger := newLogger(c)

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := prometheus.NewRegistry()
	metrics, err := shm.NewMetrics("xshm", registry)
	if err != nil {
		return err
	}

	conn, err := dial(ctx, c.String("display"), c.Duration("dial-timeout"), logger)
	if err != nil {
		return errors.Wrap(err, "failed to connect to the display")
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	version, err := conn.Version()
	if err != nil {
		return err
	}
	logger.With(log.F{
		"major":          version.Major,
		"minor":          version.Minor,
		"shared_pixmaps": version.SharedPixmaps,
	}).Info("connected")

	d := &demo{
		conn:     conn,
		registry: shm.NewRegistry(conn, shm.WithLogger(logger), shm.WithMetrics(metrics)),
		coord:    shm.NewCoordinator(conn, shm.WithLogger(logger), shm.WithMetrics(metrics)),
		log:      logger,
		width:    uint16(c.Uint("width")),
		height:   uint16(c.Uint("height")),
		frames:   c.Int("frames"),

		sharedPixmaps: version.SharedPixmaps,
	}

	if addr := c.String("metrics"); addr != "" {
		health := healthcheck.NewMetricsHandler(registry, "xshm")
		health.AddLivenessCheck("mit-shm", func() error {
			_, err := conn.Version()
			return err
		})
		health.AddReadinessCheck("segment", func() error {
			if d.registry.Len() == 0 {
				return errors.New("no segment attached")
			}
			return nil
		})
		go serveMetrics(addr, registry, health, logger)
	}

	err = d.run(ctx)
	if errors.Is(err, xshm.ErrConnectionClosed) && ctx.Err() != nil {
		return nil
	}
	return err
}

func dial(ctx context.Context, display string, timeout time.Duration, logger log.Logger) (*x11.Conn, error) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = timeout
	var conn *x11.Conn
	err := backoff.Retry(func() error {
		var err error
		conn, err = x11.Dial(display)
		switch {
		case err == nil:
			return nil
		case xshm.IsProtocol(err):
			return backoff.Permanent(err)
		}
		logger.WithError(err).Warn("failed to connect, retrying")
		return err
	}, backoff.WithContext(b, ctx))
	return conn, err
}

func serveMetrics(addr string, registry *prometheus.Registry, health healthcheck.Handler, logger log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/live", health.LiveEndpoint)
	mux.HandleFunc("/ready", health.ReadyEndpoint)
	logger.WithField("addr", addr).Info("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.WithError(err).Error("metrics server failed")
	}
}
