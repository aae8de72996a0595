// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package cobrautil wires cobra commands to environment variables and configuration files.
package cobrautil

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var envReplacer = strings.NewReplacer(".", "_", "-", "_") //nolint:gochecknoglobals // constant

// BindAll sets flags that were not given on the command line from environment variables and the config file.
// The precedence order is: flags, environment variables, config file, defaults.
// Environment variables are named <envPrefix>_<FLAG_NAME>, the config file path is read from configFileFlagName.
func BindAll(cmd *cobra.Command, envPrefix, configFileFlagName string) error {
	v, err := newViper(cmd, envPrefix, configFileFlagName)
	if err != nil {
		return err
	}

	for _, fs := range []*pflag.FlagSet{cmd.PersistentFlags(), cmd.Flags()} {
		if err := updateFlags(fs, v); err != nil {
			return err
		}
	}

	return nil
}

func newViper(cmd *cobra.Command, envPrefix, configFileFlagName string) (*viper.Viper, error) {
	v := viper.New()

	if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	v.SetEnvKeyReplacer(envReplacer)
	v.SetEnvPrefix(envReplacer.Replace(strings.ToUpper(envPrefix)))
	v.AutomaticEnv()

	if configFileFlagName == "" {
		return v, nil
	}
	if f := v.GetString(configFileFlagName); f != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(f)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", f, err)
		}
	}

	return v, nil
}

func updateFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	var errs []string
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := fs.Set(f.Name, flagValue(v.Get(f.Name))); err != nil {
			errs = append(errs, fmt.Sprintf("--%s: %s", f.Name, err))
		}
	})
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// flagValue formats a config value for pflag, lists are comma-separated.
func flagValue(val any) string {
	switch l := val.(type) {
	case []any:
		s := make([]string, len(l))
		for i := range l {
			s[i] = fmt.Sprint(l[i])
		}
		return strings.Join(s, ",")
	case []string:
		return strings.Join(l, ",")
	default:
		return fmt.Sprint(val)
	}
}
