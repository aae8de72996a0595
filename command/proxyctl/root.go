// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package proxyctl

import (
	"github.com/saucelabs/proxyctl/bind"
	"github.com/saucelabs/proxyctl/command/ready"
	"github.com/saucelabs/proxyctl/command/test"
	"github.com/saucelabs/proxyctl/command/validate"
	"github.com/saucelabs/proxyctl/command/version"
	"github.com/saucelabs/proxyctl/utils/cobrautil"
	"github.com/spf13/cobra"
)

const (
	EnvPrefix          = "PROXYCTL"
	ConfigFileFlagName = "config-file"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxyctl",
		Short: "Assign proxies to execution contexts and test them",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cobrautil.BindAll(cmd, EnvPrefix, ConfigFileFlagName)
		},
	}
	bind.ConfigFile(cmd.PersistentFlags(), new(string))

	cmd.AddCommand(
		test.Command(),
		validate.Command(),
		ready.Command(),
		version.Command(),
	)

	cobrautil.FormatUsage(cmd)
	cobrautil.AppendEnvToUsage(cmd, EnvPrefix)
	cobrautil.NoHelpSubcommand(cmd)

	return cmd
}
