// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package promutil

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDumpPrometheusMetrics(t *testing.T) {
	r := prometheus.NewRegistry()
	f := promauto.With(r)

	f.NewCounterVec(prometheus.CounterOpts{
		Namespace: "proxyctl",
		Name:      "assign_total",
		Help:      "Assign calls",
	}, []string{"result"}).WithLabelValues("ok").Add(3)
	f.NewGauge(prometheus.GaugeOpts{
		Name: "go_goroutines",
		Help: "Goroutines",
	}).Set(7)

	s, err := DumpPrometheusMetrics(r, NamePrefix("proxyctl_"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(s, "go_goroutines") {
		t.Errorf("filtered metric in dump:\n%s", s)
	}

	g, err := ParseMetricFamilies(strings.NewReader(s))
	if err != nil {
		t.Fatal(err)
	}
	mfs, _ := g.Gather()
	var names []string
	for _, mf := range mfs {
		names = append(names, mf.GetName())
	}
	if diff := cmp.Diff([]string{"proxyctl_assign_total"}, names); diff != "" {
		t.Errorf("unexpected families (-want +got):\n%s", diff)
	}

	want := `
# HELP proxyctl_assign_total Assign calls
# TYPE proxyctl_assign_total counter
proxyctl_assign_total{result="ok"} 3
`
	if err := testutil.GatherAndCompare(g, strings.NewReader(want)); err != nil {
		t.Error(err)
	}
}
