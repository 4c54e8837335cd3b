// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shm

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are prometheus collectors updated by segments, registries and coordinators.
// A nil *Metrics is valid and does nothing.
type Metrics struct {
	segments      *prometheus.CounterVec
	mapped        prometheus.Gauge
	registrations *prometheus.CounterVec
	transfers     *prometheus.CounterVec
	completions   prometheus.Counter
	forwarded     prometheus.Counter
	copied        *prometheus.CounterVec
}

// NewMetrics creates metrics and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		segments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shm",
			Name:      "segments_total",
			Help:      "Shared memory segments created and released.",
		}, []string{"event"}),
		mapped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "shm",
			Name:      "mapped_bytes",
			Help:      "Bytes of shared memory currently mapped.",
		}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shm",
			Name:      "registrations_total",
			Help:      "Attach and detach requests by result.",
		}, []string{"op", "result"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shm",
			Name:      "transfers_total",
			Help:      "Put and get requests by result.",
		}, []string{"op", "result"}),
		completions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shm",
			Name:      "completions_total",
			Help:      "Completion notifications, which released a segment.",
		}),
		forwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shm",
			Name:      "forwarded_events_total",
			Help:      "Events passed to the sink while waiting for a completion.",
		}),
		copied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shm",
			Name:      "copied_bytes_total",
			Help:      "Bytes copied between private buffers and segments.",
		}, []string{"direction"}),
	}
	for _, c := range []prometheus.Collector{
		m.segments, m.mapped, m.registrations, m.transfers, m.completions, m.forwarded, m.copied,
	} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register shm metrics")
		}
	}
	return m, nil
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) segmentCreated(size int) {
	if m == nil {
		return
	}
	m.segments.WithLabelValues("created").Inc()
	m.mapped.Add(float64(size))
}

func (m *Metrics) segmentReleased(size int) {
	if m == nil {
		return
	}
	m.segments.WithLabelValues("released").Inc()
	m.mapped.Sub(float64(size))
}

func (m *Metrics) registration(op string, err error) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) transfer(op string, err error) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) completion() {
	if m == nil {
		return
	}
	m.completions.Inc()
}

func (m *Metrics) forward() {
	if m == nil {
		return
	}
	m.forwarded.Inc()
}

func (m *Metrics) copy(direction string, n int) {
	if m == nil {
		return
	}
	m.copied.WithLabelValues(direction).Add(float64(n))
}
