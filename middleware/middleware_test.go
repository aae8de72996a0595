// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusWrap(t *testing.T) {
	pages := []struct {
		path     string
		duration time.Duration
		status   int
	}{
		{"/healthz", 10 * time.Millisecond, http.StatusOK},
		{"/readyz", 20 * time.Millisecond, http.StatusServiceUnavailable},
		{"/unknown", 0, http.StatusNotFound},
	}

	h := http.NewServeMux()
	for i := range pages {
		p := pages[i]
		h.HandleFunc(p.path, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(p.duration)
			w.WriteHeader(p.status)
		})
	}

	r := prometheus.NewPedanticRegistry()
	m := NewPrometheus(r, "test", WithCustomLabeler("path", PathLabeler("/healthz", "/readyz")))
	s := m.Wrap(h)

	var wg sync.WaitGroup
	for range [10]struct{}{} {
		for i := range pages {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				r := httptest.NewRequest(http.MethodGet, pages[i].path, http.NoBody)
				s.ServeHTTP(httptest.NewRecorder(), r)
			}()
		}
	}
	wg.Wait()

	got := map[string]float64{
		"healthz": testutil.ToFloat64(m.requestsTotal.WithLabelValues("200", "GET", "/healthz")),
		"readyz":  testutil.ToFloat64(m.requestsTotal.WithLabelValues("503", "GET", "/readyz")),
		"other":   testutil.ToFloat64(m.requestsTotal.WithLabelValues("404", "GET", "other")),
	}
	want := map[string]float64{"healthz": 10, "readyz": 10, "other": 10}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected request counts (-want +got):\n%s", diff)
	}
	if got := testutil.ToFloat64(m.requestsInFlight.WithLabelValues("GET", "/healthz")); got != 0 {
		t.Errorf("requests in flight = %v, want 0", got)
	}
	if n := testutil.CollectAndCount(m.requestDuration); n != 3 {
		t.Errorf("duration series = %d, want 3", n)
	}
}

func TestLoggerWrap(t *testing.T) {
	var entries []LogEntry
	l := Logger(func(e LogEntry) {
		entries = append(entries, e)
	})

	h := l.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello")) //nolint:errcheck // test
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bindings", http.NoBody))

	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Status != http.StatusOK || e.Written != 5 || e.Request.URL.Path != "/bindings" {
		t.Errorf("unexpected entry %+v", e)
	}
}
