// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package sysproxy

import (
	"fmt"

	"github.com/saucelabs/proxyctl"
	"github.com/saucelabs/proxyctl/log"
)

// Kind selects an applier implementation.
type Kind string

const (
	AutoKind    Kind = "auto"
	EnvKind     Kind = "env"
	WinINetKind Kind = "wininet"
	MemoryKind  Kind = "memory"
)

func (k Kind) String() string {
	return string(k)
}

// Kinds lists all applier kinds.
func Kinds() []Kind {
	return []Kind{AutoKind, EnvKind, WinINetKind, MemoryKind}
}

// New returns the applier of the given kind.
func New(k Kind, logger log.StructuredLogger) (proxyctl.Applier, error) {
	switch k {
	case AutoKind, "":
		return Default(logger), nil
	case EnvKind:
		return NewEnv(logger), nil
	case WinINetKind:
		return newWinINet(logger)
	case MemoryKind:
		return NewMemory(logger), nil
	default:
		return nil, fmt.Errorf("unknown applier: %s", k)
	}
}
