// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shm

import (
	"github.com/lthibault/log"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Option configures a Registry or a Coordinator.
type Option func(*Config)

// Config holds settings shared by registries and coordinators.
type Config struct {
	log     log.Logger
	metrics *Metrics
	tracer  trace.Tracer
	sink    EventSink
}

// WithLogger sets the logger. By default nothing below the fatal level is logged.
func WithLogger(logger log.Logger) Option {
	return func(c *Config) {
		c.log = logger
	}
}

// WithMetrics sets prometheus metrics to update.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.metrics = m
	}
}

// WithTracer sets the tracer used for transfer spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Config) {
		c.tracer = t
	}
}

// WithSink sets where a coordinator forwards events,
// which are received while it waits for a completion.
func WithSink(s EventSink) Option {
	return func(c *Config) {
		c.sink = s
	}
}

func newConfig(opts []Option) Config {
	var c Config
	for _, opt := range opts {
		opt(&c)
	}
	if c.log == nil {
		c.log = log.New(log.WithLevel(log.FatalLevel))
	}
	if c.tracer == nil {
		c.tracer = noop.NewTracerProvider().Tracer("")
	}
	return c
}
