// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package proxyctl

// Applier writes proxy settings to the shared, process-wide network configuration.
//
// A nil spec clears the configuration and switches to direct connections.
// After a successful write the implementation signals the network stack that settings changed and asks it to refresh,
// failures of these notifications are logged and not returned.
//
// Implementations are not safe for concurrent use, the Controller guarantees at most one Apply call in flight.
// A rejected write should be reported as *ApplyError.
type Applier interface {
	Apply(spec *ProxySpec, bypass BypassList) error
}

// ApplierFunc is an adapter to allow the use of ordinary functions as Applier.
type ApplierFunc func(spec *ProxySpec, bypass BypassList) error

func (f ApplierFunc) Apply(spec *ProxySpec, bypass BypassList) error {
	return f(spec, bypass)
}
