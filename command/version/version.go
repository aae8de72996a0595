// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package version

import (
	"encoding/json"
	"fmt"

	"github.com/saucelabs/proxyctl/bind"
	"github.com/saucelabs/proxyctl/internal/version"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type command struct {
	output bind.OutputFormat
}

func (c *command) runE(cmd *cobra.Command, _ []string) error {
	v := version.Get()
	w := cmd.OutOrStdout()

	switch c.output {
	case bind.JSONOutput:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case bind.YAMLOutput:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprint(w, v)
		return err
	}
}

func Command() *cobra.Command {
	c := command{
		output: bind.TextOutput,
	}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE:  c.runE,
	}
	bind.Output(cmd.Flags(), &c.output)

	return cmd
}
