// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package proxyctl

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type controllerMetrics struct {
	assign        *prometheus.CounterVec
	release       *prometheus.CounterVec
	applyErrors   prometheus.Counter
	applyDuration prometheus.Histogram
	bindings      prometheus.Gauge
}

func newControllerMetrics(r prometheus.Registerer, namespace string) *controllerMetrics {
	if r == nil {
		r = prometheus.NewRegistry() // This registry will be discarded.
	}
	f := promauto.With(r)
	l := []string{"result"}

	return &controllerMetrics{
		assign: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "assign_total",
			Namespace: namespace,
			Help:      "Number of proxy assignments by result",
		}, l),
		release: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "release_total",
			Namespace: namespace,
			Help:      "Number of proxy releases by result",
		}, l),
		applyErrors: f.NewCounter(prometheus.CounterOpts{
			Name:      "apply_errors_total",
			Namespace: namespace,
			Help:      "Number of rejected writes to the shared proxy configuration",
		}),
		applyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:      "apply_duration_seconds",
			Namespace: namespace,
			Help:      "Time spent writing the shared proxy configuration",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		bindings: f.NewGauge(prometheus.GaugeOpts{
			Name:      "bindings_active",
			Namespace: namespace,
			Help:      "Number of contexts with an active proxy binding",
		}),
	}
}

func (m *controllerMetrics) assigned(err error) {
	m.assign.WithLabelValues(errorKind(err)).Inc()
}

func (m *controllerMetrics) released(err error) {
	m.release.WithLabelValues(errorKind(err)).Inc()
}

func (m *controllerMetrics) applied(start time.Time, err error) {
	m.applyDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.applyErrors.Inc()
	}
}

func (m *controllerMetrics) setBindings(n int) {
	m.bindings.Set(float64(n))
}
