// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package validate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/saucelabs/proxyctl"
	"github.com/saucelabs/proxyctl/bind"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Result is the outcome of validating a single proxy.
type Result struct {
	Proxy    string              `json:"proxy" yaml:"proxy"`
	Valid    bool                `json:"valid" yaml:"valid"`
	Spec     *proxyctl.ProxySpec `json:"spec,omitempty" yaml:"spec,omitempty"`
	Error    string              `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration       `json:"duration" yaml:"duration"`
}

type command struct {
	proxies        []string
	connectivity   bool
	connectTimeout time.Duration
	output         bind.OutputFormat
}

func (c *command) runE(cmd *cobra.Command, args []string) error {
	proxies := append(c.proxies, args...) //nolint:gocritic // c.proxies is not used afterwards
	if len(proxies) == 0 {
		return errors.New("no proxies to validate, use --proxy or pass them as arguments")
	}

	results := c.validate(cmd.Context(), proxies)

	if err := writeResults(cmd.OutOrStdout(), results, c.output); err != nil {
		return err
	}

	var invalid int
	for _, r := range results {
		if !r.Valid {
			invalid++
		}
	}
	if invalid > 0 {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d of %d proxies are invalid", invalid, len(results))
	}

	return nil
}

func (c *command) validate(ctx context.Context, proxies []string) []Result {
	if ctx == nil {
		ctx = context.Background()
	}

	v := proxyctl.NewValidator(nil)
	results := make([]Result, len(proxies))

	var eg errgroup.Group
	for i, raw := range proxies {
		i, raw := i, raw
		eg.Go(func() error {
			start := time.Now()
			r := Result{Proxy: raw}
			spec, err := v.ValidateFormat(raw)
			if err == nil && c.connectivity {
				err = v.CheckConnectivity(ctx, spec, c.connectTimeout)
			}
			if err != nil {
				r.Error = err.Error()
			} else {
				r.Valid = true
				r.Spec = &spec
			}
			r.Duration = time.Since(start)
			results[i] = r
			return nil
		})
	}
	eg.Wait() //nolint:errcheck // validation errors are part of the results

	return results
}

func writeResults(w io.Writer, results []Result, f bind.OutputFormat) error {
	switch f {
	case bind.JSONOutput:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case bind.YAMLOutput:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(tw, "%s\tOK\t%s\n", r.Proxy, r.Spec.Protocol)
		} else {
			fmt.Fprintf(tw, "%s\tFAIL\t%s\n", r.Proxy, r.Error)
		}
	}
	return tw.Flush()
}

func Command() *cobra.Command {
	c := command{
		connectTimeout: proxyctl.DefaultConnectTimeout,
		output:         bind.TextOutput,
	}

	cmd := &cobra.Command{
		Use:     "validate [--proxy <protocol://host:port>]... [proxy]...",
		Short:   "Validate proxy specifications",
		Long:    long,
		Example: example,
		RunE:    c.runE,
	}

	fs := cmd.Flags()
	bind.Proxies(fs, &c.proxies)
	fs.BoolVar(&c.connectivity, "connectivity", c.connectivity,
		"Also check that the proxy accepts TCP connections. ")
	fs.DurationVar(&c.connectTimeout, "connect-timeout", c.connectTimeout,
		"Timeout for the TCP connectivity check. ")
	bind.Output(fs, &c.output)

	return cmd
}

const long = `Validate checks that proxies are in the protocol://host:port form.
The supported protocols are http, https, socks4, and socks5.
With --connectivity it also opens a TCP connection to every proxy, it does not verify the proxy protocol.`

const example = `  # Check the format of a proxy
  proxyctl validate http://proxy.example.com:8080

  # Check the format and reachability of proxies, print JSON
  proxyctl validate --connectivity -o json socks5://proxy1.example.com:1080 http://proxy2.example.com:3128
`
