// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package sysproxy

import (
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/saucelabs/proxyctl"
	"github.com/saucelabs/proxyctl/log"
	"golang.org/x/net/http/httpproxy"
)

const (
	envHTTPProxy  = "HTTP_PROXY"
	envHTTPSProxy = "HTTPS_PROXY"
	envAllProxy   = "ALL_PROXY"
	envNoProxy    = "NO_PROXY"
)

var envProxyKeys = []string{envHTTPProxy, envHTTPSProxy, envAllProxy} //nolint:gochecknoglobals // constant list

// Env applies proxy settings to the environment of the current process.
// Both upper and lower case variables are written, the bypass list is written to NO_PROXY.
//
// Environment changes are not seen by clients that already read the environment,
// such as http.ProxyFromEnvironment which caches it on first use.
// Clients should use ProxyFunc, which follows every refresh.
type Env struct {
	notifier

	setenv   func(key, value string) error
	unsetenv func(key string) error
	getenv   func(key string) string
}

var (
	_ proxyctl.Applier = (*Env)(nil)
	_ ProxyFuncer      = (*Env)(nil)
	_ Refresher        = (*Env)(nil)
)

func NewEnv(logger log.StructuredLogger) *Env {
	if logger == nil {
		logger = log.NopLogger
	}
	return &Env{
		notifier: notifier{log: logger},
		setenv:   os.Setenv,
		unsetenv: os.Unsetenv,
		getenv:   os.Getenv,
	}
}

func (e *Env) Apply(spec *proxyctl.ProxySpec, bypass proxyctl.BypassList) error {
	if spec == nil {
		for _, k := range append(envProxyKeys, envNoProxy) {
			if err := e.unset(k); err != nil {
				return proxyctl.NewApplyError("clear "+k, err)
			}
		}
	} else {
		v := spec.String()
		for _, k := range envProxyKeys {
			if err := e.set(k, v); err != nil {
				return proxyctl.NewApplyError("set "+k, err)
			}
		}
		if err := e.set(envNoProxy, noProxy(bypass)); err != nil {
			return proxyctl.NewApplyError("set "+envNoProxy, err)
		}
	}

	e.settingsChanged(spec)
	e.refresh()

	return nil
}

func (e *Env) set(key, value string) error {
	if err := e.setenv(key, value); err != nil {
		return err
	}
	return e.setenv(strings.ToLower(key), value)
}

func (e *Env) unset(key string) error {
	if err := e.unsetenv(key); err != nil {
		return err
	}
	return e.unsetenv(strings.ToLower(key))
}

// settingsChanged re-reads the environment and publishes the resulting routing.
func (e *Env) settingsChanged(spec *proxyctl.ProxySpec) {
	cfg := &httpproxy.Config{
		HTTPProxy:  e.getenv(envHTTPProxy),
		HTTPSProxy: e.getenv(envHTTPSProxy),
		NoProxy:    e.getenv(envNoProxy),
	}

	if want := specString(spec); cfg.HTTPProxy != want {
		e.log.Warn("proxy environment not picked up", "want", want, "got", cfg.HTTPProxy)
	}

	if cfg.HTTPProxy == "" && cfg.HTTPSProxy == "" {
		e.publish(nil)
		return
	}

	pf := cfg.ProxyFunc()
	e.publish(func(req *http.Request) (*url.URL, error) {
		return pf(req.URL)
	})
}

func specString(spec *proxyctl.ProxySpec) string {
	if spec == nil {
		return ""
	}
	return spec.String()
}

// noProxy converts a bypass list to the NO_PROXY format.
// The Windows <local> marker has no equivalent and is dropped, loopback addresses are never proxied anyway.
func noProxy(bypass proxyctl.BypassList) string {
	hosts := make([]string, 0, len(bypass))
	for _, h := range bypass {
		if h == "<local>" {
			continue
		}
		hosts = append(hosts, strings.TrimPrefix(h, "*"))
	}
	return strings.Join(hosts, ",")
}
