// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ready

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/saucelabs/proxyctl"
	"github.com/saucelabs/proxyctl/bind"
	"github.com/spf13/cobra"
)

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Endpoint: "/readyz",
		Timeout:  2 * time.Second,
	}
}

type command struct {
	Config
	apiServerConfig *proxyctl.APIServerConfig
}

func (c *command) runE(cmd *cobra.Command, _ []string) error {
	host, port, err := net.SplitHostPort(c.apiServerConfig.Addr)
	if err != nil {
		return err
	}
	if host == "" {
		host = "localhost"
	}
	addr := net.JoinHostPort(host, port)

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx,
		http.MethodGet, fmt.Sprintf("http://%s%s", addr, c.Endpoint), http.NoBody)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, err := httputil.DumpResponse(resp, true)
		if err != nil {
			return err
		}
		if _, err := cmd.ErrOrStderr().Write(b); err != nil {
			return err
		}

		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

func Command() *cobra.Command {
	return CommandWithConfig(DefaultConfig())
}

func CommandWithConfig(cfg Config) *cobra.Command {
	c := command{
		Config:          cfg,
		apiServerConfig: proxyctl.DefaultAPIServerConfig(),
	}

	cmd := &cobra.Command{
		Use:   "ready [--api-address <host:port>]",
		Short: "Readiness probe for a running proxy test",
		Long:  long,
		Args:  cobra.NoArgs,
		RunE:  c.runE,
	}

	bind.APIServerConfig(cmd.Flags(), c.apiServerConfig)

	return cmd
}

const long = `Readiness probe for a running proxy test.
This is equivalent to calling the /readyz endpoint on the API server started with proxyctl test --api-address.`
