// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

//go:build windows

package sysproxy

import (
	"github.com/saucelabs/proxyctl"
	"github.com/saucelabs/proxyctl/log"
)

// Default returns the applier for the system proxy settings of the platform.
func Default(logger log.StructuredLogger) proxyctl.Applier {
	return NewWinINet(logger)
}

func newWinINet(logger log.StructuredLogger) (proxyctl.Applier, error) {
	return NewWinINet(logger), nil
}
