// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package probe

import (
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type probeMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	workers  *prometheus.CounterVec
}

func newProbeMetrics(r prometheus.Registerer, namespace string) *probeMetrics {
	if r == nil {
		r = prometheus.NewRegistry() // This registry will be discarded.
	}
	f := promauto.With(r)

	return &probeMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "probe_requests_total",
			Namespace: namespace,
			Help:      "Number of probe requests by result",
		}, []string{"result"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:      "probe_request_duration_seconds",
			Namespace: namespace,
			Help:      "Probe request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		workers: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "probe_workers_total",
			Namespace: namespace,
			Help:      "Number of finished probe workers by status",
		}, []string{"status"}),
	}
}

func (m *probeMetrics) request(u string, start time.Time, status int, err error) {
	host := "unknown"
	if pu, perr := url.Parse(u); perr == nil {
		host = pu.Hostname()
	}
	m.duration.WithLabelValues(host).Observe(time.Since(start).Seconds())
	m.requests.WithLabelValues(requestResult(status, err)).Inc()
}

func (m *probeMetrics) finished(r *Result) {
	m.workers.WithLabelValues(r.Status()).Inc()
}

func requestResult(status int, err error) string {
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return "timeout"
		}
		return "error"
	}
	if status == 200 {
		return "ok"
	}
	return "bad_status"
}
