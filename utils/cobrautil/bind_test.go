// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cobrautil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

type testConfig struct {
	URLs    []string
	Timeout time.Duration
	Verbose bool
	Name    string
}

func newTestCommand(v *testConfig) *cobra.Command {
	cmd := &cobra.Command{}
	fs := cmd.Flags()
	fs.String("config-file", "", "")
	fs.StringSliceVar(&v.URLs, "url", nil, "")
	fs.DurationVar(&v.Timeout, "timeout", time.Second, "")
	fs.BoolVar(&v.Verbose, "verbose", false, "")
	fs.StringVar(&v.Name, "name", "default", "")
	return cmd
}

func TestBindAll(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"config.yaml": "url:\n  - http://a\n  - http://b\ntimeout: 5s\nname: file\n",
		"config.json": `{"url": ["http://a", "http://b"], "timeout": "5s", "name": "file"}`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(dir, name)
			if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			t.Setenv("TEST_VERBOSE", "true")
			t.Setenv("TEST_NAME", "env")

			var v testConfig
			cmd := newTestCommand(&v)
			if err := cmd.Flags().Parse([]string{"--config-file", p, "--timeout", "7s"}); err != nil {
				t.Fatal(err)
			}
			if err := BindAll(cmd, "test", "config-file"); err != nil {
				t.Fatal(err)
			}

			want := testConfig{
				URLs:    []string{"http://a", "http://b"},
				Timeout: 7 * time.Second,
				Verbose: true,
				Name:    "env",
			}
			if diff := cmp.Diff(want, v); diff != "" {
				t.Fatalf("unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBindAllInvalidValue(t *testing.T) {
	t.Setenv("TEST_TIMEOUT", "forever")

	var v testConfig
	if err := BindAll(newTestCommand(&v), "test", ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestEnvName(t *testing.T) {
	if got := EnvName("proxyctl", "connect-timeout"); got != "PROXYCTL_CONNECT_TIMEOUT" {
		t.Fatalf("got %s", got)
	}
}

func TestDescribeFlags(t *testing.T) {
	var v testConfig
	cmd := newTestCommand(&v)
	if err := cmd.Flags().Parse([]string{"--url", "http://a,http://b", "--verbose"}); err != nil {
		t.Fatal(err)
	}

	if got, want := DescribeFlags(cmd.Flags(), true), "url=http://a,http://b\nverbose=true\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := DescribeFlags(cmd.Flags(), false), "config-file=\nname=default\ntimeout=1s\nurl=http://a,http://b\nverbose=true\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatUsage(t *testing.T) {
	root := &cobra.Command{Use: "root"}
	sub := &cobra.Command{Use: "sub"}
	root.AddCommand(sub)
	root.PersistentFlags().String("config-file", "", "<path>Configuration file. ")
	sub.Flags().String("mode", "", "<a|b>Mode. ")
	sub.Flags().Bool("verbose", false, "Verbose output. ")

	FormatUsage(root)
	AppendEnvToUsage(root, "APP")

	want := map[string]string{
		"config-file": "Configuration file.",
		"mode":        "Mode. Possible values: a, b. (env APP_MODE)",
		"verbose":     "Verbose output.  (env APP_VERBOSE)",
	}
	got := map[string]string{
		"config-file": root.PersistentFlags().Lookup("config-file").Usage,
		"mode":        sub.Flags().Lookup("mode").Usage,
		"verbose":     sub.Flags().Lookup("verbose").Usage,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected usage (-want +got):\n%s", diff)
	}
}
