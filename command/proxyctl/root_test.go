// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package proxyctl

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestCommandEnv(t *testing.T) {
	t.Setenv("PROXYCTL_OUTPUT", "json")

	var out bytes.Buffer
	cmd := Command()
	cmd.SetArgs([]string{"version"})
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "{") {
		t.Errorf("PROXYCTL_OUTPUT not applied, got %q", out.String())
	}
}

func TestCommandHelp(t *testing.T) {
	var out bytes.Buffer
	cmd := Command()
	cmd.SetArgs([]string{"test", "--help"})
	cmd.SetOut(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"--routing", "Possible values: binding, system.", "(env PROXYCTL_ROUTING)"} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("help does not contain %q", s)
		}
	}
}
