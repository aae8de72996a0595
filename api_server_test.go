// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package proxyctl

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"
)

func TestAPIServerRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := prometheus.NewRegistry()
	cfg := DefaultAPIServerConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.PromRegistry = reg
	cfg.PromNamespace = "test"

	ctl, err := NewController(DefaultControllerConfig(), &fakeApplier{}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewAPIServer(cfg, NewAPIHandler(prometheus.NewRegistry(), ctl, nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Addr() != "" {
		t.Fatal("expected empty address before Run")
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for s.Addr() == "" {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	c := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := c.Get("http://" + s.Addr() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(b) != "OK" {
		t.Fatalf("unexpected body %q", b)
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatal(err)
	}

	if n, err := testutil.GatherAndCount(reg, "test_api_http_requests_total"); err != nil || n != 1 {
		t.Errorf("GatherAndCount() = %d, %v, want 1 series", n, err)
	}
}

func TestNewAPIServerRequiresAddr(t *testing.T) {
	if _, err := NewAPIServer(&APIServerConfig{}, http.NotFoundHandler(), nil); err == nil {
		t.Fatal("expected error")
	}
}
