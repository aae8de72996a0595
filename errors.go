// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package proxyctl

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrNoBinding is returned when releasing a context that has no proxy binding.
var ErrNoBinding = errors.New("no proxy binding")

// ConfigError is returned for a malformed proxy specification.
// It never touches shared state, the caller can fix the input and retry.
type ConfigError struct {
	Raw    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid proxy %q: %s", e.Raw, e.Reason)
}

// ConnectionError is returned when a proxy endpoint cannot be reached during validation.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to proxy %s: %s", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the connection attempt timed out.
func (e *ConnectionError) Timeout() bool {
	var te interface{ Timeout() bool }
	return errors.As(e.Err, &te) && te.Timeout()
}

// ApplyError is returned when the shared proxy configuration rejects a write.
// Code carries the platform error code verbatim, 0 if there is none.
type ApplyError struct {
	Op   string
	Code uint32
	Err  error
}

// NewApplyError wraps err, extracting the platform error code if there is one.
func NewApplyError(op string, err error) *ApplyError {
	e := &ApplyError{Op: op, Err: err}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		e.Code = uint32(errno)
	}
	return e
}

func (e *ApplyError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("apply %s: %s (code %d)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("apply %s: %s", e.Op, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// panicError is an unexpected failure recovered at the controller boundary.
type panicError struct {
	v any
}

func (e panicError) Error() string {
	return fmt.Sprintf("unexpected panic: %v", e.v)
}

// errorKind returns a short label used in logs and metrics.
func errorKind(err error) string {
	var (
		ce *ConfigError
		ne *ConnectionError
		ae *ApplyError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoBinding):
		return "no_binding"
	case errors.As(err, &ce):
		return "config_error"
	case errors.As(err, &ne):
		return "connection_error"
	case errors.As(err, &ae):
		return "apply_error"
	default:
		return "unexpected_error"
	}
}
