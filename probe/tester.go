// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package probe verifies that proxies work by routing real requests through them.
// Every proxy is tested by a worker that assigns it to its own context, fetches a list of URLs,
// checks the external IP address and releases the proxy when done.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/saucelabs/proxyctl"
	"github.com/saucelabs/proxyctl/log"
	"github.com/saucelabs/proxyctl/sysproxy"
	"golang.org/x/sync/errgroup"
)

type Tester struct {
	config   Config
	ctl      Controller
	failures *Failures
	dialer   *proxyctl.Dialer
	route    func(*http.Request) (*url.URL, error)
	log      log.StructuredLogger
	metrics  *probeMetrics
}

// NewTester creates a Tester that assigns proxies with ctl.
// The applier must be the one used by ctl, it is only needed for SystemRouting,
// and must then implement sysproxy.ProxyFuncer.
// Failures is optional, see Failures.
func NewTester(cfg *Config, ctl Controller, a proxyctl.Applier, failures *Failures, logger log.StructuredLogger) (*Tester, error) {
	if ctl == nil {
		return nil, errors.New("controller is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NopLogger
	}

	dcfg := proxyctl.DefaultDialConfig()
	dcfg.PromRegistry = cfg.PromRegistry
	dcfg.PromNamespace = cfg.PromNamespace

	t := &Tester{
		config:   *cfg,
		ctl:      ctl,
		failures: failures,
		dialer:   proxyctl.NewDialer(dcfg),
		log:      logger,
		metrics:  newProbeMetrics(cfg.PromRegistry, cfg.PromNamespace),
	}

	if cfg.Routing == SystemRouting {
		pf, ok := a.(sysproxy.ProxyFuncer)
		if !ok {
			return nil, fmt.Errorf("%s routing requires an applier that exposes its routing, got %T", SystemRouting, a)
		}
		t.route = pf.ProxyFunc()
		if r, ok := a.(sysproxy.Refresher); ok {
			r.OnRefresh(func() {
				t.log.Debug("shared proxy configuration refreshed")
			})
		}
	}

	return t, nil
}

// Run tests the proxies concurrently or sequentially, according to the configuration.
// Individual proxy failures are reported in the Report, Run fails only if ctx is canceled.
func (t *Tester) Run(ctx context.Context, proxies []string) (*Report, error) {
	if len(proxies) == 0 {
		return nil, errors.New("no proxies to test")
	}

	r := &Report{
		Mode:    t.mode(),
		Routing: t.config.Routing,
		Started: time.Now(),
		Results: make([]*Result, len(proxies)),
	}

	t.log.Info("starting proxy tests", "proxies", len(proxies), "mode", r.Mode, "routing", r.Routing)

	if t.config.Sequential {
		for i, p := range proxies {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			t.log.Info("running test", "test", fmt.Sprintf("%d/%d", i+1, len(proxies)))
			r.Results[i] = t.worker(i, p).run(ctx)
		}
	} else {
		var eg errgroup.Group
		if t.config.Concurrency > 0 {
			eg.SetLimit(t.config.Concurrency)
		}
		for i, p := range proxies {
			i, w := i, t.worker(i, p)
			eg.Go(func() error {
				r.Results[i] = w.run(ctx)
				return nil
			})
		}
		eg.Wait() //nolint:errcheck // workers never fail
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	for _, res := range r.Results {
		if res.Success {
			r.Passed++
		} else {
			r.Failed++
		}
	}
	r.Duration = time.Since(r.Started)

	t.log.Info("all proxy tests completed", "passed", r.Passed, "failed", r.Failed, "duration", r.Duration)

	return r, nil
}

func (t *Tester) mode() string {
	if t.config.Sequential {
		return "sequential"
	}
	return "concurrent"
}

func (t *Tester) worker(i int, proxy string) *worker {
	name := fmt.Sprintf("Test%d", i+1)
	return &worker{
		name:     name,
		id:       proxyctl.NextContextID(),
		proxy:    proxy,
		config:   &t.config,
		ctl:      t.ctl,
		failures: t.failures,
		dialer:   t.dialer,
		route:    t.route,
		log:      t.log.With("name", name),
		metrics:  t.metrics,
	}
}
