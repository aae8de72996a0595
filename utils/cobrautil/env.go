// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cobrautil

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvName returns the environment variable name for a flag.
func EnvName(envPrefix, flagName string) string {
	return strings.ToUpper(envReplacer.Replace(envPrefix + "_" + flagName))
}

// AppendEnvToUsage documents the environment variable of every flag of cmd and its subcommands.
func AppendEnvToUsage(cmd *cobra.Command, envPrefix string) {
	for _, c := range cmd.Commands() {
		AppendEnvToUsage(c, envPrefix)
	}
	cmd.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		f.Usage += fmt.Sprintf(" (env %s)", EnvName(envPrefix, f.Name))
	})
}

// FormatUsage rewrites flag usages of cmd and its subcommands that start with a <value> placeholder.
// Enumerations are moved to the end of the usage, other placeholders are dropped.
func FormatUsage(cmd *cobra.Command) {
	for _, c := range cmd.Commands() {
		FormatUsage(c)
	}
	format := func(f *pflag.Flag) {
		if !strings.HasPrefix(f.Usage, "<") {
			return
		}
		i := strings.Index(f.Usage, ">")
		if i < 0 {
			return
		}
		value, usage := f.Usage[1:i], strings.TrimSpace(f.Usage[i+1:])
		if strings.Contains(value, "|") {
			f.Usage = fmt.Sprintf("%s Possible values: %s.", usage, strings.ReplaceAll(value, "|", ", "))
		} else {
			f.Usage = usage
		}
	}
	cmd.LocalNonPersistentFlags().VisitAll(format)
	cmd.PersistentFlags().VisitAll(format)
}

func NoHelpSubcommand(cmd *cobra.Command) {
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
}
