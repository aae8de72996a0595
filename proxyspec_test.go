// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package proxyctl

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseProxySpec(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ProxySpec
		err   string
	}{
		{
			name:  "http",
			input: "http://proxy.example.com:8080",
			want:  ProxySpec{Protocol: HTTP, Host: "proxy.example.com", Port: 8080},
		},
		{
			name:  "socks5 IP",
			input: "socks5://10.0.0.1:1080",
			want:  ProxySpec{Protocol: SOCKS5, Host: "10.0.0.1", Port: 1080},
		},
		{
			name:  "upper case scheme",
			input: "HTTPS://Proxy-1.example.com:443",
			want:  ProxySpec{Protocol: HTTPS, Host: "Proxy-1.example.com", Port: 443},
		},
		{
			name:  "socks4 max port",
			input: "socks4://p:65535",
			want:  ProxySpec{Protocol: SOCKS4, Host: "p", Port: 65535},
		},
		{
			name:  "underscore in host",
			input: "http://my_proxy.example.com:8080",
			want:  ProxySpec{Protocol: HTTP, Host: "my_proxy.example.com", Port: 8080},
		},
		{
			name:  "unsupported scheme",
			input: "ftp://x:80",
			err:   "unsupported scheme: ftp",
		},
		{
			name:  "missing port",
			input: "http://x",
			err:   "missing port",
		},
		{
			name:  "missing scheme",
			input: "proxy.example.com:8080",
			err:   "missing scheme",
		},
		{
			name:  "path",
			input: "http://x:80/path",
			err:   "path, query, and fragment are not allowed",
		},
		{
			name:  "user info",
			input: "http://user:pass@x:80",
			err:   "user info is not allowed",
		},
		{
			name:  "port 0",
			input: "http://x:0",
			err:   "invalid port: 0",
		},
		{
			name:  "port out of range",
			input: "http://x:65536",
			err:   "invalid port: 65536",
		},
		{
			name:  "IPv6",
			input: "http://[::1]:8080",
			err:   "invalid proxy",
		},
		{
			name:  "empty",
			input: "",
			err:   "missing scheme",
		},
	}

	for i := range tests {
		tc := &tests[i]
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseProxySpec(tc.input)
			if err != nil {
				if tc.err == "" {
					t.Fatalf("expected success, got %q", err)
				}
				var ce *ConfigError
				if !errors.As(err, &ce) {
					t.Fatalf("expected ConfigError, got %T", err)
				}
				if !strings.Contains(err.Error(), tc.err) {
					t.Fatalf("expected error to contain %q, got %q", tc.err, err)
				}
				return
			}
			if tc.err != "" {
				t.Fatalf("expected error %q, got %v", tc.err, got)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("unexpected spec (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProxySpecString(t *testing.T) {
	s, err := ParseProxySpec("SOCKS5://10.0.0.1:1080")
	if err != nil {
		t.Fatal(err)
	}
	if got := s.String(); got != "socks5://10.0.0.1:1080" {
		t.Errorf("unexpected string %q", got)
	}
	if got := s.URL().String(); got != "socks5://10.0.0.1:1080" {
		t.Errorf("unexpected URL %q", got)
	}
	if s.IsZero() {
		t.Error("expected non-zero spec")
	}
	if !(ProxySpec{}).IsZero() {
		t.Error("expected zero spec")
	}
}

func TestParseBypassList(t *testing.T) {
	tests := []struct {
		input string
		want  BypassList
	}{
		{input: DefaultBypassList, want: BypassList{"localhost", "127.0.0.1"}},
		{input: " localhost ; ;*.corp;", want: BypassList{"localhost", "*.corp"}},
		{input: "", want: nil},
	}

	for _, tc := range tests {
		got := ParseBypassList(tc.input)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("%q: unexpected list (-want +got):\n%s", tc.input, diff)
		}
	}

	if got := ParseBypassList(DefaultBypassList).String(); got != DefaultBypassList {
		t.Errorf("unexpected string %q", got)
	}
}

func TestParseProxyProtocol(t *testing.T) {
	tests := []struct {
		input string
		want  Protocol
		ok    bool
	}{
		{input: "http://x:1", want: HTTP, ok: true},
		{input: "Socks4://x", want: SOCKS4, ok: true},
		{input: "ftp://x:1", want: "ftp", ok: false},
		{input: "x:1", ok: false},
	}

	for _, tc := range tests {
		got, ok := ParseProxyProtocol(tc.input)
		if got != tc.want || ok != tc.ok {
			t.Errorf("%q: expected (%q, %v), got (%q, %v)", tc.input, tc.want, tc.ok, got, ok)
		}
	}
}

func TestProtocolUnmarshalText(t *testing.T) {
	var p Protocol
	if err := p.UnmarshalText([]byte("SOCKS5")); err != nil {
		t.Fatal(err)
	}
	if p != SOCKS5 {
		t.Errorf("expected socks5, got %s", p)
	}
	if err := p.UnmarshalText([]byte("quic")); err == nil {
		t.Error("expected error")
	}
}

func TestBypassListMatch(t *testing.T) {
	l := ParseBypassList("localhost;127.0.0.1;*.corp.example.com;<local>")

	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"LOCALHOST", true},
		{"127.0.0.1", true},
		{"127.0.0.2", false},
		{"build.corp.example.com", true},
		{"corp.example.com", false},
		{"intranet", true},
		{"example.com", false},
		{"::1", false},
	}

	for _, tc := range tests {
		if got := l.Match(tc.host); got != tc.want {
			t.Errorf("Match(%q) = %v, want %v", tc.host, got, tc.want)
		}
	}
}
