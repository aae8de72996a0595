// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package test

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mitchellh/go-wordwrap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/saucelabs/proxyctl/bind"
	"github.com/saucelabs/proxyctl/probe"
	"github.com/saucelabs/proxyctl/utils/promutil"
	"gopkg.in/yaml.v3"
)

const errorWidth = 80

func writeReport(w io.Writer, r *probe.Report, f bind.OutputFormat) error {
	switch f {
	case bind.JSONOutput:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case bind.YAMLOutput:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeTextReport(w, r)
	}
}

func writeTextReport(w io.Writer, r *probe.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "NAME\tPROXY\tSTATUS\tEXTERNAL IP\tAVG RESPONSE\tDURATION\n")
	for _, res := range r.Results {
		ip := res.ExternalIP
		if ip == "" {
			ip = "-"
		}
		avg := "-"
		if res.Average > 0 {
			avg = res.Average.Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			res.Name, res.Proxy, res.Status(), ip, avg, res.Duration.Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, res := range r.Results {
		if len(res.Errors) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s errors:\n", res.Name)
		for _, e := range res.Errors {
			wrapped := wordwrap.WrapString(e, errorWidth)
			fmt.Fprintf(w, "  - %s\n", strings.ReplaceAll(wrapped, "\n", "\n    "))
		}
	}

	_, err := fmt.Fprintf(w, "\n%d passed, %d failed, %s mode, %s routing, took %s\n",
		r.Passed, r.Failed, r.Mode, r.Routing, r.Duration.Round(time.Millisecond))
	return err
}

func writeMetrics(w io.Writer, g prometheus.Gatherer, namespace string) error {
	s, err := promutil.DumpPrometheusMetrics(g, promutil.NamePrefix(namespace+"_"))
	if err != nil {
		return fmt.Errorf("dump metrics: %w", err)
	}

	_, err = fmt.Fprintf(w, "\n%s", s)
	return err
}
