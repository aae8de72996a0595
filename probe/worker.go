// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/saucelabs/proxyctl"
	"github.com/saucelabs/proxyctl/dialvia"
	"github.com/saucelabs/proxyctl/log"
)

// Controller is the part of proxyctl.Controller used by workers.
type Controller interface {
	Assign(ctx context.Context, id proxyctl.ContextID, rawProxy, bypass string, validate bool) bool
	Release(ctx context.Context, id proxyctl.ContextID) bool
	CurrentProxy(id proxyctl.ContextID) (proxyctl.ProxyBinding, bool)
}

const maxBodySize = 1 << 20

// worker tests a single proxy in its own context.
type worker struct {
	name   string
	id     proxyctl.ContextID
	proxy  string
	config *Config

	ctl      Controller
	failures *Failures
	dialer   *proxyctl.Dialer
	route    func(*http.Request) (*url.URL, error)
	log      log.StructuredLogger
	metrics  *probeMetrics
}

func (w *worker) run(ctx context.Context) (res *Result) {
	start := time.Now()
	res = &Result{
		Name:      w.name,
		Proxy:     w.proxy,
		ContextID: w.id,
	}
	ctx = proxyctl.WithContextID(ctx, w.id)

	defer func() {
		res.Average = res.averageResponseTime()
		res.Duration = time.Since(start)
		w.metrics.finished(res)

		w.log.InfoContext(ctx, "test completed", "status", res.Status(), "average_response_time", res.Average)
		for _, e := range res.Errors {
			w.log.InfoContext(ctx, "error encountered", "error", e)
		}
	}()

	w.log.InfoContext(ctx, "starting proxy test", "proxy", w.proxy)

	if !w.ctl.Assign(ctx, w.id, w.proxy, w.config.Bypass, w.config.ValidateProxy) {
		w.takeFailures(res, "failed to set proxy")
		w.log.ErrorContext(ctx, "failed to set proxy", "proxy", w.proxy)
		return res
	}
	res.Assigned = true
	w.log.InfoContext(ctx, "proxy set", "proxy", w.proxy)

	defer func() {
		if !w.ctl.Release(ctx, w.id) {
			w.takeFailures(res, "failed to disable proxy")
			w.log.WarnContext(ctx, "failed to disable proxy")
		} else {
			w.log.InfoContext(ctx, "proxy disabled")
		}
	}()

	b, ok := w.ctl.CurrentProxy(w.id)
	if !ok {
		res.addError("binding of context %s not found", w.id)
		return res
	}

	if w.config.Handshake {
		if err := w.handshake(ctx, b.Spec); err != nil {
			res.addError("%s", err)
			w.log.ErrorContext(ctx, "handshake failed", "error", err)
			return res
		}
	}

	tr := w.transport(b)
	defer tr.CloseIdleConnections()
	c := &http.Client{
		Transport: tr,
		Timeout:   w.config.RequestTimeout,
	}

	if !w.testConnection(ctx, c, res) {
		w.log.ErrorContext(ctx, "connection test failed", "proxy", w.proxy)
		return res
	}
	w.log.InfoContext(ctx, "connection test passed", "proxy", w.proxy)

	if w.config.IPCheckURL == "" {
		res.Success = true
		return res
	}

	ip, err := w.externalIP(ctx, c)
	if err != nil {
		res.addError("IP check failed: %s", err)
		w.log.WarnContext(ctx, "could not determine external IP", "error", err)
		return res
	}
	w.log.InfoContext(ctx, "external IP", "ip", ip)
	res.ExternalIP = ip
	res.Success = true

	return res
}

func (w *worker) takeFailures(res *Result, fallback string) {
	errs := w.failures.take(w.id)
	if len(errs) == 0 {
		res.addError("%s", fallback)
		return
	}
	for _, err := range errs {
		res.addError("%s", err)
	}
}

func (w *worker) handshake(ctx context.Context, spec proxyctl.ProxySpec) error {
	ctx, cancel := context.WithTimeout(ctx, w.config.RequestTimeout)
	defer cancel()
	return dialvia.Handshake(ctx, w.dialer.DialContext, spec, w.config.HandshakeTarget, nil)
}

func (w *worker) transport(b proxyctl.ProxyBinding) *http.Transport {
	tr := &http.Transport{
		DialContext:           w.dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   w.config.RequestTimeout,
		ExpectContinueTimeout: time.Second,
	}

	switch {
	case w.route != nil:
		tr.Proxy = w.route
	case b.Spec.Protocol == proxyctl.SOCKS4:
		// http.Transport has no socks4 support, tunnel at the dial level instead.
		sd := dialvia.SOCKS4Proxy(w.dialer.DialContext, b.Spec)
		bypass := b.Bypass
		tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			if bypass.Match(host) {
				return w.dialer.DialContext(ctx, network, addr)
			}
			return sd.DialContext(ctx, network, addr)
		}
	default:
		u := b.Spec.URL()
		bypass := b.Bypass
		tr.Proxy = func(req *http.Request) (*url.URL, error) {
			if bypass.Match(req.URL.Hostname()) {
				return nil, nil
			}
			return u, nil
		}
	}

	return tr
}

// testConnection fetches the configured URLs in order and stops at the first failure.
func (w *worker) testConnection(ctx context.Context, c *http.Client, res *Result) bool {
	for _, u := range w.config.URLs {
		start := time.Now()
		status, err := w.get(ctx, c, u, nil)
		w.metrics.request(u, start, status, err)
		if err != nil {
			res.addError("%s", err)
			return false
		}

		res.Timings = append(res.Timings, URLTiming{
			URL:      u,
			Status:   status,
			Duration: time.Since(start),
		})
		w.log.DebugContext(ctx, "request done", "url", u, "status", status, "duration", time.Since(start))

		if status != http.StatusOK {
			res.addError("status code %d for %s", status, u)
			return false
		}
	}
	return true
}

func (w *worker) externalIP(ctx context.Context, c *http.Client) (string, error) {
	var v struct {
		IP     string `json:"ip"`
		Origin string `json:"origin"`
	}
	start := time.Now()
	status, err := w.get(ctx, c, w.config.IPCheckURL, &v)
	w.metrics.request(w.config.IPCheckURL, start, status, err)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("status code %d", status)
	}

	switch {
	case v.IP != "":
		return v.IP, nil
	case v.Origin != "":
		return v.Origin, nil
	default:
		return "", fmt.Errorf("no ip or origin field in response")
	}
}

// get fetches u and decodes a JSON body into v if v is not nil and the status is 200.
func (w *worker) get(ctx context.Context, c *http.Client, u string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return 0, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxBodySize)
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(body).Decode(v); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s: %w", u, err)
		}
		return resp.StatusCode, nil
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return resp.StatusCode, err
	}

	return resp.StatusCode, nil
}
