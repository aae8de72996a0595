// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package dialvia opens tunnels through upstream proxies.
// It is used to verify that a proxy speaks its protocol, not only that its port accepts connections.
package dialvia

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/saucelabs/proxyctl"
)

// ContextDialerFunc is a function that implements Dialer and ContextDialer.
type ContextDialerFunc func(context context.Context, network, addr string) (net.Conn, error)

// Dial is needed to satisfy the proxy.Dialer interface.
// It is never called as proxy.ContextDialer is used instead if available.
func (f ContextDialerFunc) Dial(network, addr string) (net.Conn, error) {
	return f(context.Background(), network, addr)
}

func (f ContextDialerFunc) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	return f(ctx, network, addr)
}

type ContextDialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// For returns a dialer that tunnels through the proxy described by spec.
// The tlsConfig is used for HTTPS proxies only, nil means the default configuration.
func For(dial ContextDialerFunc, spec proxyctl.ProxySpec, tlsConfig *tls.Config) (ContextDialer, error) {
	switch spec.Protocol {
	case proxyctl.HTTP:
		return HTTPProxy(dial, spec), nil
	case proxyctl.HTTPS:
		if tlsConfig == nil {
			tlsConfig = &tls.Config{} //nolint:gosec // defaults are fine
		}
		return HTTPSProxy(dial, spec, tlsConfig), nil
	case proxyctl.SOCKS4:
		return SOCKS4Proxy(dial, spec), nil
	case proxyctl.SOCKS5:
		return SOCKS5Proxy(dial, spec), nil
	default:
		return nil, fmt.Errorf("unsupported proxy protocol: %s", spec.Protocol)
	}
}

// Handshake opens a tunnel to target through the proxy and closes it.
func Handshake(ctx context.Context, dial ContextDialerFunc, spec proxyctl.ProxySpec, target string, tlsConfig *tls.Config) error {
	d, err := For(dial, spec, tlsConfig)
	if err != nil {
		return err
	}
	conn, err := d.DialContext(ctx, "tcp", target)
	if err != nil {
		return fmt.Errorf("%s handshake via %s: %w", spec.Protocol, spec.Addr(), err)
	}
	return conn.Close()
}

func checkNetwork(network string) error {
	switch network {
	case "tcp", "tcp4", "tcp6":
		return nil
	default:
		return fmt.Errorf("unsupported network: %s", network)
	}
}

// watchContext closes conn when ctx is done before stop is called.
// The returned function reports the context error if conn was closed because of it.
func watchContext(ctx context.Context, conn net.Conn) (stop func() error) {
	if d, ok := ctx.Deadline(); ok {
		conn.SetDeadline(d) //nolint:errcheck // best effort
	}
	after := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	return func() error {
		conn.SetDeadline(time.Time{}) //nolint:errcheck // best effort
		if !after() {
			return ctx.Err()
		}
		return nil
	}
}
