// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package sysproxy implements proxyctl.Applier for the process-wide proxy settings of the platform.
//
// Env writes the proxy environment variables of the current process and is available everywhere,
// WinINet writes the per-connection options of the Windows Internet settings,
// Memory keeps the settings in memory and is meant for dry runs and tests.
package sysproxy

import (
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/saucelabs/proxyctl/log"
)

// ProxyFuncer is implemented by appliers that expose the currently applied settings as an HTTP proxy function.
type ProxyFuncer interface {
	ProxyFunc() func(*http.Request) (*url.URL, error)
}

// Refresher is implemented by appliers that run hooks after the settings are refreshed.
type Refresher interface {
	OnRefresh(fn func())
}

type proxyFunc func(*http.Request) (*url.URL, error)

// notifier publishes the applied settings to in-process consumers.
type notifier struct {
	log   log.StructuredLogger
	route atomic.Pointer[proxyFunc]

	mu    sync.Mutex
	hooks []func()
}

func (n *notifier) OnRefresh(fn func()) {
	n.mu.Lock()
	n.hooks = append(n.hooks, fn)
	n.mu.Unlock()
}

// ProxyFunc returns a function that routes requests through the most recently published settings.
// The returned function is safe for concurrent use and follows later Apply calls.
func (n *notifier) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		f := n.route.Load()
		if f == nil {
			return nil, nil
		}
		return (*f)(req)
	}
}

func (n *notifier) publish(f proxyFunc) {
	if f == nil {
		n.route.Store(nil)
		return
	}
	n.route.Store(&f)
}

// refresh runs the refresh hooks, a failing hook is logged and does not stop the others.
func (n *notifier) refresh() {
	n.mu.Lock()
	hooks := make([]func(), len(n.hooks))
	copy(hooks, n.hooks)
	n.mu.Unlock()

	for i, h := range hooks {
		func() {
			defer func() {
				if v := recover(); v != nil {
					n.log.Warn("refresh hook failed", "hook", i, "error", v)
				}
			}()
			h()
		}()
	}
}
