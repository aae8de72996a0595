// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package dialvia

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/saucelabs/proxyctl"
)

func TestSOCKS4Request(t *testing.T) {
	tests := []struct {
		addr string
		want []byte
		err  bool
	}{
		{
			addr: "10.1.2.3:80",
			want: []byte{4, 1, 0, 80, 10, 1, 2, 3, 0},
		},
		{
			addr: "foobar.com:443",
			want: append([]byte{4, 1, 1, 187, 0, 0, 0, 1, 0}, append([]byte("foobar.com"), 0)...),
		},
		{
			addr: "[::1]:80",
			err:  true,
		},
		{
			addr: "foobar.com",
			err:  true,
		},
	}

	for i := range tests {
		tc := tests[i]
		t.Run(tc.addr, func(t *testing.T) {
			got, err := socks4Request(tc.addr)
			if tc.err {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("unexpected request (-want +got):\n%s", diff)
			}
		})
	}
}

func serveSOCKS4(code byte) func(conn net.Conn) error {
	return func(conn net.Conn) error {
		want, _ := socks4Request("foobar.com:80")
		got := make([]byte, len(want))
		if _, err := io.ReadFull(conn, got); err != nil {
			return err
		}
		if !bytes.Equal(got, want) {
			return io.ErrUnexpectedEOF
		}
		_, err := conn.Write([]byte{0, code, 0, 0, 0, 0, 0, 0})
		return err
	}
}

func TestSOCKS4ProxyDialer(t *testing.T) {
	l, spec := listen(t, "socks4")
	d := SOCKS4Proxy(dialer(), spec)

	for _, code := range []byte{socks4Granted, 0x5b} {
		errCh := make(chan error, 1)
		go func() {
			errCh <- serveOne(l, serveSOCKS4(code))
		}()

		conn, err := d.DialContext(context.Background(), "tcp", "foobar.com:80")
		if code == socks4Granted {
			if err != nil {
				t.Fatal(err)
			}
			conn.Close()
		} else if err == nil || !strings.Contains(err.Error(), "rejected") {
			t.Fatalf("expected rejection, got %v", err)
		}

		if err := <-errCh; err != nil {
			t.Fatal(err)
		}
	}
}

func TestHandshake(t *testing.T) {
	tests := []struct {
		scheme string
		serve  func(conn net.Conn) error
	}{
		{"http", connectResponse(200, "")},
		{"socks4", serveSOCKS4(socks4Granted)},
		{"socks5", serveSOCKS5},
	}

	for i := range tests {
		tc := tests[i]
		t.Run(tc.scheme, func(t *testing.T) {
			l, spec := listen(t, tc.scheme)

			errCh := make(chan error, 1)
			go func() {
				errCh <- serveOne(l, tc.serve)
			}()

			if err := Handshake(context.Background(), dialer(), spec, "foobar.com:80", nil); err != nil {
				t.Fatal(err)
			}
			if err := <-errCh; err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestHandshakeWrongProtocol(t *testing.T) {
	// A SOCKS5 server does not understand HTTP CONNECT.
	l, spec := listen(t, "http")
	go serveOne(l, serveSOCKS5) //nolint:errcheck // error expected

	if err := Handshake(context.Background(), dialer(), spec, "foobar.com:80", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestForHTTPS(t *testing.T) {
	spec := proxyctl.ProxySpec{Protocol: proxyctl.HTTPS, Host: "proxy.example.com", Port: 443}
	d, err := For(dialer(), spec, nil)
	if err != nil {
		t.Fatal(err)
	}
	hd, ok := d.(*HTTPProxyDialer)
	if !ok {
		t.Fatalf("unexpected dialer %T", d)
	}
	if hd.tlsConfig.ServerName != "proxy.example.com" {
		t.Errorf("unexpected server name %q", hd.tlsConfig.ServerName)
	}

	cfg := &tls.Config{ServerName: "override"} //nolint:gosec // test
	d, _ = For(dialer(), spec, cfg)
	if got := d.(*HTTPProxyDialer).tlsConfig.ServerName; got != "override" {
		t.Errorf("unexpected server name %q", got)
	}
	if cfg.NextProtos != nil {
		t.Error("caller TLS config must not be modified")
	}
}
