// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package sysproxy

import (
	"errors"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/saucelabs/proxyctl"
)

func clearProxyEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{envHTTPProxy, envHTTPSProxy, envAllProxy, envNoProxy} {
		t.Setenv(k, "")
		t.Setenv(strings.ToLower(k), "")
	}
}

func mustParse(t *testing.T, raw string) proxyctl.ProxySpec {
	t.Helper()
	s, err := proxyctl.ParseProxySpec(raw)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestEnvApply(t *testing.T) {
	clearProxyEnv(t)

	e := NewEnv(nil)
	refreshed := 0
	e.OnRefresh(func() { refreshed++ })

	spec := mustParse(t, "http://proxy.example.com:8080")
	if err := e.Apply(&spec, proxyctl.ParseBypassList("localhost;*.internal;<local>")); err != nil {
		t.Fatal(err)
	}

	for _, k := range []string{"HTTP_PROXY", "http_proxy", "HTTPS_PROXY", "https_proxy", "ALL_PROXY", "all_proxy"} {
		if v := os.Getenv(k); v != "http://proxy.example.com:8080" {
			t.Errorf("%s: got %q", k, v)
		}
	}
	if v := os.Getenv("NO_PROXY"); v != "localhost,.internal" {
		t.Errorf("NO_PROXY: got %q", v)
	}

	pf := e.ProxyFunc()
	u, err := pf(httptest.NewRequest("GET", "http://example.com/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if u == nil || u.String() != "http://proxy.example.com:8080" {
		t.Errorf("expected proxy URL, got %v", u)
	}
	u, err = pf(httptest.NewRequest("GET", "http://svc.internal/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if u != nil {
		t.Errorf("expected bypass, got %v", u)
	}

	if err := e.Apply(nil, nil); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"HTTP_PROXY", "http_proxy", "NO_PROXY", "no_proxy"} {
		if v, ok := os.LookupEnv(k); ok {
			t.Errorf("%s: expected unset, got %q", k, v)
		}
	}
	u, err = pf(httptest.NewRequest("GET", "http://example.com/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if u != nil {
		t.Errorf("expected direct connection, got %v", u)
	}

	if refreshed != 2 {
		t.Errorf("expected 2 refreshes, got %d", refreshed)
	}
}

func TestEnvApplyError(t *testing.T) {
	clearProxyEnv(t)

	e := NewEnv(nil)
	e.setenv = func(key, value string) error {
		return os.NewSyscallError("setenv", syscall.EINVAL)
	}
	refreshed := false
	e.OnRefresh(func() { refreshed = true })

	spec := mustParse(t, "socks5://10.0.0.1:1080")
	err := e.Apply(&spec, nil)

	var ae *proxyctl.ApplyError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ApplyError, got %v", err)
	}
	if ae.Code != uint32(syscall.EINVAL) {
		t.Errorf("expected code %d, got %d", syscall.EINVAL, ae.Code)
	}
	if refreshed {
		t.Error("refresh must not run after a failed write")
	}
}

func TestRefreshHookPanic(t *testing.T) {
	clearProxyEnv(t)

	e := NewEnv(nil)
	called := false
	e.OnRefresh(func() { panic("boom") })
	e.OnRefresh(func() { called = true })

	if err := e.Apply(nil, nil); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("hooks after a failing hook must run")
	}
}
