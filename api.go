// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package proxyctl

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saucelabs/proxyctl/internal/version"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var apiPaths = []string{"/metrics", "/healthz", "/readyz", "/bindings", "/version"} //nolint:gochecknoglobals // metrics labels

// BindingLister is implemented by Controller.
type BindingLister interface {
	AllProxies() map[ContextID]ProxyBinding
}

// APIHandler serves API endpoints.
// It provides health and readiness endpoints, prometheus metrics, the current proxy bindings, and pprof debug endpoints.
type APIHandler struct {
	mux   *http.ServeMux
	ctl   BindingLister
	ready func() bool
}

// NewAPIHandler returns a handler serving r and the bindings of ctl.
// The ready function reports readiness, nil means always ready.
func NewAPIHandler(r prometheus.Gatherer, ctl BindingLister, ready func() bool) *APIHandler {
	m := http.NewServeMux()
	a := &APIHandler{
		mux:   m,
		ctl:   ctl,
		ready: ready,
	}
	m.HandleFunc("/metrics", promhttp.HandlerFor(r, promhttp.HandlerOpts{}).ServeHTTP)
	m.HandleFunc("/healthz", a.healthz)
	m.HandleFunc("/readyz", a.readyz)
	m.HandleFunc("/bindings", a.bindings)
	m.HandleFunc("/version", a.version)

	m.HandleFunc("/debug/pprof/", pprof.Index)
	m.HandleFunc("/debug/pprof/profile", pprof.Profile)
	m.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	m.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return a
}

func (h *APIHandler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK")) //nolint:errcheck // ignore error
}

func (h *APIHandler) readyz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if h.ready == nil || h.ready() {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK")) //nolint:errcheck // ignore error
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Service Unavailable")) //nolint:errcheck // ignore error
	}
}

type bindingJSON struct {
	ContextID  ContextID `json:"context_id"`
	Proxy      string    `json:"proxy"`
	Protocol   Protocol  `json:"protocol"`
	Bypass     []string  `json:"bypass"`
	AssignedAt time.Time `json:"assigned_at"`
}

func (h *APIHandler) bindings(w http.ResponseWriter, _ *http.Request) {
	all := h.ctl.AllProxies()
	ids := maps.Keys(all)
	slices.Sort(ids)

	v := make([]bindingJSON, 0, len(ids))
	for _, id := range ids {
		b := all[id]
		bypass := []string(b.Bypass)
		if bypass == nil {
			bypass = []string{}
		}
		v = append(v, bindingJSON{
			ContextID:  id,
			Proxy:      b.Spec.String(),
			Protocol:   b.Spec.Protocol,
			Bypass:     bypass,
			AssignedAt: b.AssignedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v) //nolint // ignore error
}

func (h *APIHandler) version(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(version.Get()) //nolint // ignore error
}

func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}
