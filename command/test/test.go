// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/saucelabs/proxyctl"
	"github.com/saucelabs/proxyctl/bind"
	"github.com/saucelabs/proxyctl/internal/version"
	"github.com/saucelabs/proxyctl/log"
	"github.com/saucelabs/proxyctl/log/slog"
	"github.com/saucelabs/proxyctl/probe"
	"github.com/saucelabs/proxyctl/runctx"
	"github.com/saucelabs/proxyctl/sysproxy"
	"github.com/saucelabs/proxyctl/utils/cobrautil"
	"github.com/spf13/cobra"
)

type command struct {
	promReg          *prometheus.Registry
	proxies          []string
	applier          sysproxy.Kind
	controllerConfig *proxyctl.ControllerConfig
	probeConfig      *probe.Config
	apiServerConfig  *proxyctl.APIServerConfig
	logConfig        *log.Config
	output           bind.OutputFormat
	printMetrics     bool
}

func (c *command) runE(cmd *cobra.Command, args []string) (cmdErr error) {
	if f := c.logConfig.File; f != nil {
		defer f.Close()
	}

	proxies := append(c.proxies, args...) //nolint:gocritic // c.proxies is not used afterwards
	if len(proxies) == 0 {
		return errors.New("no proxies to test, use --proxy or pass them as arguments")
	}

	onError, err := c.registerErrorsMetric()
	if err != nil {
		return fmt.Errorf("register errors metric: %w", err)
	}
	var opts []slog.Option
	opts = append(opts, slog.WithOnError(onError))
	if c.logConfig.File == nil {
		opts = append(opts, slog.WithWriter(cmd.ErrOrStderr()))
	}
	logger := slog.New(c.logConfig, opts...)

	defer func() {
		if cmdErr != nil {
			logger.Error("fatal error exiting", "error", cmdErr)
		}
	}()

	v := version.Get()
	logger.Info("proxyctl", "version", v.Version, "commit", v.Commit)
	logger.Debug("resource limits", "GOMAXPROCS", runtime.GOMAXPROCS(0), "GOMEMLIMIT", os.Getenv("GOMEMLIMIT"))
	if cfg := cobrautil.DescribeFlags(cmd.Flags(), true); cfg != "" {
		logger.Info("configuration\n" + cfg)
	} else {
		logger.Info("using default configuration")
	}

	if err := c.registerProcMetrics(); err != nil {
		return fmt.Errorf("register process metrics: %w", err)
	}
	if err := c.registerVersionMetric(); err != nil {
		return fmt.Errorf("register version metric: %w", err)
	}

	a, err := sysproxy.New(c.applier, logger.Named("applier"))
	if err != nil {
		return err
	}

	failures := new(probe.Failures)
	c.controllerConfig.OnError = failures.Record
	c.controllerConfig.PromRegistry = c.promReg
	ctl, err := proxyctl.NewController(c.controllerConfig, a, nil, logger.Named("controller"))
	if err != nil {
		return err
	}
	defer func() {
		n, err := ctl.Close(context.Background())
		if n > 0 {
			logger.Warn("released leaked proxy bindings", "count", n)
		}
		if err != nil {
			logger.Error("failed to release proxy bindings", "error", err)
		}
	}()

	c.probeConfig.PromRegistry = c.promReg
	t, err := probe.NewTester(c.probeConfig, ctl, a, failures, logger.Named("probe"))
	if err != nil {
		return err
	}

	var running atomic.Bool
	g := runctx.NewGroup()
	if c.apiServerConfig.Addr != "" {
		c.apiServerConfig.PromRegistry = c.promReg
		c.apiServerConfig.PromNamespace = c.controllerConfig.PromNamespace
		h := proxyctl.NewAPIHandler(c.promReg, ctl, running.Load)
		s, err := proxyctl.NewAPIServer(c.apiServerConfig, h, logger.Named("api"))
		if err != nil {
			return err
		}
		g.Add(s.Run)
	}

	var report *probe.Report
	err = g.RunMain(context.Background(), func(ctx context.Context) (err error) {
		running.Store(true)
		defer running.Store(false)

		report, err = t.Run(ctx, proxies)
		return
	})
	if err != nil {
		return err
	}
	if report == nil {
		return errors.New("interrupted")
	}

	w := cmd.OutOrStdout()
	if err := writeReport(w, report, c.output); err != nil {
		return err
	}
	if c.printMetrics {
		if err := writeMetrics(w, c.promReg, c.controllerConfig.PromNamespace); err != nil {
			return err
		}
	}

	if !report.OK() {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d of %d proxy tests failed", report.Failed, len(report.Results))
	}

	return nil
}

func (c *command) registerErrorsMetric() (func(name string), error) {
	m := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.controllerConfig.PromNamespace,
		Name:      "errors_total",
		Help:      "Number of errors logged by component",
	}, []string{"name"})

	if err := c.promReg.Register(m); err != nil {
		return nil, err
	}

	return func(name string) {
		m.WithLabelValues(name).Inc()
	}, nil
}

func (c *command) registerProcMetrics() error {
	return errors.Join(
		// Note that ProcessCollector is only available in Linux and Windows.
		c.promReg.Register(collectors.NewProcessCollector(
			collectors.ProcessCollectorOpts{Namespace: c.controllerConfig.PromNamespace})),
		c.promReg.Register(collectors.NewGoCollector()),
	)
}

func (c *command) registerVersionMetric() error {
	v := version.Get()
	return c.promReg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: c.controllerConfig.PromNamespace,
		Name:      "version",
		Help:      "proxyctl version, value is always 1",
		ConstLabels: prometheus.Labels{
			"version": v.Version,
			"commit":  v.Commit,
			"time":    v.Time,
		},
	}, func() float64 {
		return 1
	}))
}

func Command() *cobra.Command {
	c := command{
		promReg:          prometheus.NewRegistry(),
		applier:          sysproxy.AutoKind,
		controllerConfig: proxyctl.DefaultControllerConfig(),
		probeConfig:      probe.DefaultConfig(),
		apiServerConfig:  proxyctl.DefaultAPIServerConfig(),
		logConfig:        log.DefaultConfig(),
		output:           bind.TextOutput,
	}
	c.apiServerConfig.Addr = ""

	cmd := &cobra.Command{
		Use:     "test [--proxy <protocol://host:port>]... [proxy]...",
		Short:   "Test proxies by routing requests through them",
		Long:    long,
		Example: example,
		RunE:    c.runE,
	}

	fs := cmd.Flags()
	bind.Proxies(fs, &c.proxies)
	bind.Applier(fs, &c.applier)
	bind.ControllerConfig(fs, c.controllerConfig)
	bind.ProbeConfig(fs, c.probeConfig)
	bind.APIServerConfig(fs, c.apiServerConfig)
	bind.Output(fs, &c.output)
	fs.BoolVar(&c.printMetrics, "print-metrics", c.printMetrics,
		"Print the collected proxyctl Prometheus metrics after the report. ")
	bind.LogConfig(fs, c.logConfig)
	bind.MarkFlagFilename(cmd, "log-file")

	return cmd
}

const long = `Every proxy is tested in its own execution context.
The proxy is assigned to the context, checked for connectivity, and written to the shared proxy configuration.
Then the test URLs are fetched through it, the external IP address is determined, and the proxy is released.
The command exits with a non-zero status if any test fails.`

const example = `  # Test two proxies concurrently
  proxyctl test -x http://proxy1.example.com:8080 -x socks5://proxy2.example.com:1080

  # Test proxies one after another with a protocol handshake and print a YAML report
  proxyctl test --sequential --handshake -o yaml http://proxy1.example.com:8080 http://proxy2.example.com:3128

  # Serve metrics and bindings while testing
  proxyctl test --api-address localhost:10000 -x http://proxy1.example.com:8080
`
