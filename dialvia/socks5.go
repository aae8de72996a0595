// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package dialvia

import (
	"context"
	"net"

	"github.com/saucelabs/proxyctl"
	"golang.org/x/net/proxy"
)

type SOCKS5ProxyDialer struct {
	dial ContextDialerFunc
	addr string
}

func SOCKS5Proxy(dial ContextDialerFunc, spec proxyctl.ProxySpec) *SOCKS5ProxyDialer {
	if dial == nil {
		panic("dial is required")
	}
	if spec.Protocol != proxyctl.SOCKS5 {
		panic("proxy protocol must be socks5")
	}

	return &SOCKS5ProxyDialer{
		dial: dial,
		addr: spec.Addr(),
	}
}

func (d *SOCKS5ProxyDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if err := checkNetwork(network); err != nil {
		return nil, err
	}

	sd, err := proxy.SOCKS5("tcp", d.addr, nil, d.dial)
	if err != nil {
		return nil, err
	}
	if cd, ok := sd.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, addr)
	}
	return sd.Dial(network, addr)
}
