// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package proxyctl

import (
	"context"
	"time"
)

// DefaultConnectTimeout bounds connectivity validation when no timeout is given.
const DefaultConnectTimeout = 5 * time.Second

// Validator checks proxy specifications.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	dialer *Dialer
}

func NewValidator(d *Dialer) *Validator {
	if d == nil {
		cfg := DefaultDialConfig()
		cfg.KeepAlive = false
		d = NewDialer(cfg)
	}
	return &Validator{dialer: d}
}

// ValidateFormat parses raw and returns a *ConfigError if it is not a valid proxy specification.
// It does not access the network.
func (v *Validator) ValidateFormat(raw string) (ProxySpec, error) {
	return ParseProxySpec(raw)
}

// ValidateConnectivity reports whether the proxy endpoint accepts TCP connections within timeout.
// It does not verify that the endpoint speaks the proxy protocol.
func (v *Validator) ValidateConnectivity(ctx context.Context, spec ProxySpec, timeout time.Duration) bool {
	return v.CheckConnectivity(ctx, spec, timeout) == nil
}

// CheckConnectivity is like ValidateConnectivity but returns a *ConnectionError describing the failure.
// DNS failures, refused connections and timeouts are all reported as *ConnectionError.
func (v *Validator) CheckConnectivity(ctx context.Context, spec ProxySpec, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	addr := spec.Addr()
	conn, err := v.dialer.DialTimeout(ctx, "tcp", addr, timeout)
	if err != nil {
		return &ConnectionError{Addr: addr, Err: err}
	}
	conn.Close()

	return nil
}
