// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package runctx

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// DefaultNotifySignals specifies signals that would cause the context to be canceled.
var DefaultNotifySignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// Group is a collection of functions that would be run concurrently.
// The context passed to each function is canceled when any of the signals in NotifySignals is received,
// or when any function fails.
type Group struct {
	NotifySignals []os.Signal
	funcs         []func(ctx context.Context) error
}

func NewGroup(fn ...func(ctx context.Context) error) *Group {
	return &Group{
		funcs: fn,
	}
}

func (g *Group) Add(fn func(ctx context.Context) error) {
	g.funcs = append(g.funcs, fn)
}

func (g *Group) Run() error {
	return g.RunContext(context.Background())
}

// RunContext runs the functions until all of them return.
// Context errors returned after the context is canceled are not reported.
func (g *Group) RunContext(ctx context.Context) error {
	return g.run(ctx, nil)
}

// RunMain runs main together with the group functions.
// The group functions are canceled when main returns, so they should serve main, like an API server does.
func (g *Group) RunMain(ctx context.Context, main func(ctx context.Context) error) error {
	return g.run(ctx, main)
}

func (g *Group) run(ctx context.Context, main func(ctx context.Context) error) error {
	sigs := g.NotifySignals
	if len(sigs) == 0 {
		sigs = DefaultNotifySignals
	}
	ctx, unregisterSignals := signal.NotifyContext(ctx, sigs...)
	defer unregisterSignals()

	// Restore the default behavior after the first signal, so that the next one kills the process.
	stop := context.AfterFunc(ctx, unregisterSignals)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)

	gctx := ctx
	if main != nil {
		var cancel context.CancelFunc
		gctx, cancel = context.WithCancel(ctx)
		defer cancel()

		eg.Go(func() error {
			defer cancel()
			return canceledAsNil(ctx, main(ctx))
		})
	}

	for _, fn := range g.funcs {
		fn := fn
		eg.Go(func() error { return canceledAsNil(gctx, fn(gctx)) })
	}

	return eg.Wait()
}

func canceledAsNil(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
