// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package proxyctl

import (
	"context"
	"strconv"
	"sync/atomic"
)

// ContextID identifies a concurrent unit of work that owns at most one proxy binding.
// It must stay stable for the lifetime of the binding and must not be shared by concurrent workers.
type ContextID uint64

var lastContextID atomic.Uint64 //nolint:gochecknoglobals // process wide ID generator

// NextContextID returns a ContextID that is unique for the lifetime of the process.
func NextContextID() ContextID {
	return ContextID(lastContextID.Add(1))
}

func (id ContextID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

type contextIDKey struct{}

// WithContextID returns a copy of ctx carrying id.
func WithContextID(ctx context.Context, id ContextID) context.Context {
	return context.WithValue(ctx, contextIDKey{}, id)
}

// ContextIDFromContext returns the ContextID stored in ctx by WithContextID.
func ContextIDFromContext(ctx context.Context) (ContextID, bool) {
	id, ok := ctx.Value(contextIDKey{}).(ContextID)
	return id, ok
}
