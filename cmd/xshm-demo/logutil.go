// Copyright 2016 Aleksandr Demakin. All rights reserved.

package main

import (
	"io"

	"github.com/lthibault/log"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func newLogger(c *cli.Context) log.Logger {
	return log.New(log.WithWriter(c.App.ErrWriter), withLevel(c), withFormat(c)).
		WithField("display", c.String("display"))
}

func withLevel(c *cli.Context) log.Option {
	if c.String("logfmt") == "none" {
		return log.WithLevel(log.FatalLevel)
	}
	switch c.String("loglvl") {
	case "trace", "t":
		return log.WithLevel(log.TraceLevel)
	case "debug", "d":
		return log.WithLevel(log.DebugLevel)
	case "warn", "warning", "w":
		return log.WithLevel(log.WarnLevel)
	case "error", "err", "e":
		return log.WithLevel(log.ErrorLevel)
	case "fatal", "f":
		return log.WithLevel(log.FatalLevel)
	}
	return log.WithLevel(log.InfoLevel)
}

func withFormat(c *cli.Context) log.Option {
	switch c.String("logfmt") {
	case "json":
		return log.WithFormatter(&logrus.JSONFormatter{})
	case "none":
		return log.WithWriter(io.Discard)
	}
	return log.WithFormatter(new(logrus.TextFormatter))
}
