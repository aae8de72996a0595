// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package bind

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/saucelabs/proxyctl/log"
	"github.com/saucelabs/proxyctl/probe"
	"github.com/saucelabs/proxyctl/sysproxy"
	"github.com/spf13/pflag"
)

func TestProbeConfig(t *testing.T) {
	cfg := probe.DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	ProbeConfig(fs, cfg)

	args := []string{
		"--url", "http://a.example.com",
		"--url", "http://b.example.com",
		"--routing", "system",
		"--sequential",
		"--bypass", "*.corp;<local>",
		"--validate=false",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"http://a.example.com", "http://b.example.com"}, cfg.URLs); diff != "" {
		t.Errorf("unexpected URLs (-want +got):\n%s", diff)
	}
	if cfg.Routing != probe.SystemRouting || !cfg.Sequential || cfg.Bypass != "*.corp;<local>" || cfg.ValidateProxy {
		t.Errorf("unexpected config %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Error(err)
	}

	if err := fs.Parse([]string{"--routing", "direct"}); err == nil {
		t.Error("expected error for unknown routing")
	}
}

func TestEnumFlags(t *testing.T) {
	var (
		kind   = sysproxy.AutoKind
		format = TextOutput
		lcfg   = log.DefaultConfig()
	)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Applier(fs, &kind)
	Output(fs, &format)
	LogConfig(fs, lcfg)

	logFile := filepath.Join(t.TempDir(), "logs", "proxyctl.log")
	args := []string{"--applier", "memory", "-o", "yaml", "--log-level", "debug", "--log-format", "json", "--log-file", logFile}
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { lcfg.File.Close() })

	if kind != sysproxy.MemoryKind || format != YAMLOutput {
		t.Errorf("unexpected values %s %s", kind, format)
	}
	if lcfg.Level != log.DebugLevel || lcfg.Format != log.JSONFormat {
		t.Errorf("unexpected log config %+v", lcfg)
	}
	if got := fs.Lookup("log-file").Value.String(); got != logFile {
		t.Errorf("log-file = %q, want %q", got, logFile)
	}

	for _, arg := range []string{"--applier=registry", "--output=xml", "--log-level=trace"} {
		if err := fs.Parse([]string{arg}); err == nil {
			t.Errorf("%s: expected error", arg)
		}
	}
}
