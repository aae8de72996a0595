// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package dialvia

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/saucelabs/proxyctl"
)

// HTTPProxyDialer tunnels connections with HTTP CONNECT.
type HTTPProxyDialer struct {
	dial      ContextDialerFunc
	addr      string
	tlsConfig *tls.Config
}

func HTTPProxy(dial ContextDialerFunc, spec proxyctl.ProxySpec) *HTTPProxyDialer {
	if dial == nil {
		panic("dial is required")
	}
	if spec.Protocol != proxyctl.HTTP {
		panic("proxy protocol must be http")
	}

	return &HTTPProxyDialer{
		dial: dial,
		addr: spec.Addr(),
	}
}

func HTTPSProxy(dial ContextDialerFunc, spec proxyctl.ProxySpec, tlsConfig *tls.Config) *HTTPProxyDialer {
	if dial == nil {
		panic("dial is required")
	}
	if spec.Protocol != proxyctl.HTTPS {
		panic("proxy protocol must be https")
	}
	if tlsConfig == nil {
		panic("TLS config is required")
	}

	tlsConfig = tlsConfig.Clone()
	if tlsConfig.ServerName == "" {
		tlsConfig.ServerName = spec.Host
	}
	tlsConfig.NextProtos = []string{"http/1.1"}

	return &HTTPProxyDialer{
		dial:      dial,
		addr:      spec.Addr(),
		tlsConfig: tlsConfig,
	}
}

func (d *HTTPProxyDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if err := checkNetwork(network); err != nil {
		return nil, err
	}

	conn, err := d.dial(ctx, "tcp", d.addr)
	if err != nil {
		return nil, err
	}
	if d.tlsConfig != nil {
		conn = tls.Client(conn, d.tlsConfig)
	}

	stop := watchContext(ctx, conn)
	br, err := d.connect(conn, addr)
	if cerr := stop(); cerr != nil {
		err = cerr
	}
	if err != nil {
		conn.Close()
		return nil, err
	}

	if n := br.Buffered(); n > 0 {
		return &bufferedConn{Conn: conn, r: br}, nil
	}
	return conn, nil
}

func (d *HTTPProxyDialer) connect(conn net.Conn, addr string) (*bufio.Reader, error) {
	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Host: addr},
		Host:   addr,
		Header: http.Header{},
	}
	// Don't send the default Go HTTP client User-Agent.
	req.Header.Set("User-Agent", "")

	bw := bufio.NewWriterSize(conn, 1024)
	if err := req.Write(bw); err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(conn, 1024)
	res, err := http.ReadResponse(br, req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		b, err := httputil.DumpResponse(res, false)
		if err != nil {
			b = []byte(fmt.Sprintf("error dumping response: %s", err))
		}
		return nil, fmt.Errorf("proxy connection failed status=%d\n\n%s", res.StatusCode, b)
	}

	return br, nil
}

// bufferedConn returns data the proxy sent right after the CONNECT response before reading from the connection.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}
