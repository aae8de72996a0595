// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package sysproxy

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/saucelabs/proxyctl"
	"github.com/saucelabs/proxyctl/log"
)

// Memory keeps the applied settings in memory.
// It never touches the operating system, requests are routed with ProxyFunc only.
type Memory struct {
	notifier

	mu      sync.Mutex
	current *proxyctl.ProxySpec
	applied int
}

var (
	_ proxyctl.Applier = (*Memory)(nil)
	_ ProxyFuncer      = (*Memory)(nil)
	_ Refresher        = (*Memory)(nil)
)

func NewMemory(logger log.StructuredLogger) *Memory {
	if logger == nil {
		logger = log.NopLogger
	}
	return &Memory{
		notifier: notifier{log: logger},
	}
}

func (m *Memory) Apply(spec *proxyctl.ProxySpec, bypass proxyctl.BypassList) error {
	m.mu.Lock()
	m.applied++
	if spec == nil {
		m.current = nil
	} else {
		s := spec.WithBypass(bypass)
		m.current = &s
	}
	cur := m.current
	m.mu.Unlock()

	if cur == nil {
		m.publish(nil)
	} else {
		u := cur.URL()
		bypass := cur.Bypass
		m.publish(func(req *http.Request) (*url.URL, error) {
			if bypass.Match(req.URL.Hostname()) {
				return nil, nil
			}
			return u, nil
		})
	}
	m.refresh()

	return nil
}

// Current returns the applied settings, nil in direct mode.
func (m *Memory) Current() *proxyctl.ProxySpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	s := *m.current
	return &s
}

// Applied returns the number of Apply calls.
func (m *Memory) Applied() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied
}
