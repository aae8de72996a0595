// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package dialvia

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/saucelabs/proxyctl"
)

const (
	socks4Version    = 0x04
	socks4CmdConnect = 0x01
	socks4Granted    = 0x5a
)

// SOCKS4ProxyDialer tunnels connections with SOCKS4.
// Host names are resolved by the proxy (SOCKS4a) unless they are IPv4 literals.
type SOCKS4ProxyDialer struct {
	dial ContextDialerFunc
	addr string
}

func SOCKS4Proxy(dial ContextDialerFunc, spec proxyctl.ProxySpec) *SOCKS4ProxyDialer {
	if dial == nil {
		panic("dial is required")
	}
	if spec.Protocol != proxyctl.SOCKS4 {
		panic("proxy protocol must be socks4")
	}

	return &SOCKS4ProxyDialer{
		dial: dial,
		addr: spec.Addr(),
	}
}

func (d *SOCKS4ProxyDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if err := checkNetwork(network); err != nil {
		return nil, err
	}
	req, err := socks4Request(addr)
	if err != nil {
		return nil, err
	}

	conn, err := d.dial(ctx, "tcp", d.addr)
	if err != nil {
		return nil, err
	}

	stop := watchContext(ctx, conn)
	err = socks4Connect(conn, req)
	if cerr := stop(); cerr != nil {
		err = cerr
	}
	if err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

func socks4Request(addr string) ([]byte, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid port: %s", port)
	}

	req := []byte{socks4Version, socks4CmdConnect, 0, 0}
	binary.BigEndian.PutUint16(req[2:], uint16(p))

	if ip := net.ParseIP(host).To4(); ip != nil {
		req = append(req, ip...)
		req = append(req, 0) // empty user ID
		return req, nil
	}
	if net.ParseIP(host) != nil {
		return nil, errors.New("socks4 does not support IPv6")
	}

	req = append(req, 0, 0, 0, 1, 0)
	req = append(req, host...)
	req = append(req, 0)
	return req, nil
}

func socks4Connect(conn net.Conn, req []byte) error {
	if _, err := conn.Write(req); err != nil {
		return err
	}

	var res [8]byte
	if _, err := io.ReadFull(conn, res[:]); err != nil {
		return err
	}
	if res[0] != 0 {
		return fmt.Errorf("unexpected socks4 reply version %d", res[0])
	}
	if res[1] != socks4Granted {
		return fmt.Errorf("socks4 request rejected code=%#x", res[1])
	}

	return nil
}
