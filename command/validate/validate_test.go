// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package validate

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/saucelabs/proxyctl"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := Command()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()

	return out.String(), err
}

func TestValidateFormat(t *testing.T) {
	out, err := execute(t, "-o", "json", "-x", "HTTP://proxy.example.com:8080", "socks5://proxy.example.com", "ftp://proxy.example.com:21")
	if err == nil {
		t.Fatal("expected error")
	}
	if want := "2 of 3 proxies are invalid"; err.Error() != want {
		t.Errorf("error = %q, want %q", err, want)
	}

	var got []Result
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	want := []Result{
		{
			Proxy: "HTTP://proxy.example.com:8080",
			Valid: true,
			Spec:  &proxyctl.ProxySpec{Protocol: proxyctl.HTTP, Host: "proxy.example.com", Port: 8080},
		},
		{Proxy: "socks5://proxy.example.com"},
		{Proxy: "ftp://proxy.example.com:21"},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Result{}, "Error", "Duration")); diff != "" {
		t.Errorf("unexpected results (-want +got):\n%s", diff)
	}
	for _, r := range got[1:] {
		if r.Error == "" {
			t.Errorf("%s: missing error", r.Proxy)
		}
	}
}

func TestValidateConnectivity(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	out, err := execute(t, "--connectivity", "--connect-timeout", "1s", "http://"+l.Addr().String())
	if err != nil {
		t.Fatalf("Execute() error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "OK") {
		t.Errorf("output = %q, want OK", out)
	}

	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	out, err = execute(t, "--connectivity", "--connect-timeout", "1s", "socks5://"+l.Addr().String())
	if err == nil {
		t.Fatalf("expected error for closed port %d", port)
	}
	if !strings.Contains(out, "FAIL") || !strings.Contains(out, "cannot connect to proxy") {
		t.Errorf("output = %q", out)
	}
}
