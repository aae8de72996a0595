// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package proxyctl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/saucelabs/proxyctl/log"
	"github.com/saucelabs/proxyctl/validation"
)

// State is the lifecycle state of a context's proxy binding.
type State uint8

const (
	Unassigned State = iota
	Validating
	Assigned
	Releasing
)

func (s State) String() string {
	return [4]string{"unassigned", "validating", "assigned", "releasing"}[s]
}

type ControllerConfig struct {
	// ConnectTimeout bounds connectivity validation in Assign.
	ConnectTimeout time.Duration `validate:"gte=0"`

	// OnError is called for every failed Assign or Release with the operation name and the typed error.
	// It is called synchronously and must not call back into the Controller.
	OnError func(id ContextID, op string, err error) `validate:"-"`

	PromRegistry  prometheus.Registerer `validate:"-"`
	PromNamespace string                `validate:"omitempty,metricsNamespace"`
}

func DefaultControllerConfig() *ControllerConfig {
	return &ControllerConfig{
		ConnectTimeout: DefaultConnectTimeout,
		PromNamespace:  "proxyctl",
	}
}

func (c *ControllerConfig) Validate() error {
	return validation.Validator().Struct(c)
}

// Controller assigns proxies to execution contexts.
//
// The shared configuration written by the Applier has no notion of a context,
// it reflects only the most recently completed Assign or Release of any context.
// The Controller serializes these transactions and keeps its registry consistent with them,
// but a worker's network calls may still observe another worker's proxy
// if that worker assigned one in between.
// Workers that need strict isolation should route through their own binding, see CurrentProxy.
type Controller struct {
	config    ControllerConfig
	validator *Validator
	applier   Applier
	registry  *Registry
	log       log.StructuredLogger
	metrics   *controllerMetrics

	// applyMu serializes Apply calls together with the registry update that follows.
	applyMu sync.Mutex

	stateMu sync.Mutex
	transit map[ContextID]State
}

func NewController(cfg *ControllerConfig, a Applier, v *Validator, logger log.StructuredLogger) (*Controller, error) {
	if a == nil {
		return nil, errors.New("applier is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if v == nil {
		v = NewValidator(nil)
	}
	if logger == nil {
		logger = log.NopLogger
	}

	c := &Controller{
		config:    *cfg,
		validator: v,
		applier:   a,
		registry:  NewRegistry(),
		log:       logger,
		metrics:   newControllerMetrics(cfg.PromRegistry, cfg.PromNamespace),
		transit:   make(map[ContextID]State),
	}
	if c.config.ConnectTimeout == 0 {
		c.config.ConnectTimeout = DefaultConnectTimeout
	}

	return c, nil
}

// Assign validates rawProxy and makes it the proxy of context id.
//
// The bypass list is semicolon-joined, empty means DefaultBypassList.
// The proxy specification is always parsed, validate additionally enables the connectivity check.
// Assigning to a context that already has a binding overwrites it.
//
// Assign never returns errors, failures are logged and reported to ControllerConfig.OnError.
// On failure neither the registry nor the shared configuration records the new proxy.
func (c *Controller) Assign(ctx context.Context, id ContextID, rawProxy, bypass string, validate bool) bool {
	err := c.assign(ctx, id, rawProxy, bypass, validate)
	c.metrics.assigned(err)
	if err != nil {
		c.fail(ctx, id, "assign", err)
		return false
	}
	return true
}

func (c *Controller) assign(ctx context.Context, id ContextID, rawProxy, bypass string, validate bool) (err error) {
	defer recoverError(&err)

	c.setTransit(id, Validating)
	defer c.clearTransit(id, Validating)

	spec, err := c.validator.ValidateFormat(rawProxy)
	if err != nil {
		return err
	}

	bl := ParseBypassList(bypass)
	if len(bl) == 0 {
		bl = ParseBypassList(DefaultBypassList)
	}

	if validate {
		if err := c.validator.CheckConnectivity(ctx, spec, c.config.ConnectTimeout); err != nil {
			return err
		}
	}

	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	if err := c.apply(&spec, bl); err != nil {
		return err
	}

	old, replaced := c.registry.Bind(id, spec, bl)
	if replaced {
		c.log.WarnContext(ctx, "overwriting proxy binding without release",
			"context", id, "old", old.Spec.String(), "new", spec.String())
	}
	c.metrics.setBindings(c.registry.Len())
	c.log.InfoContext(ctx, "proxy assigned", "context", id, "proxy", spec.String(), "bypass", bl.String())

	return nil
}

// Release clears the shared configuration and removes the binding of context id.
// It returns false if there is no binding, or if the shared configuration could not be cleared,
// in which case the binding is kept and the caller may retry.
func (c *Controller) Release(ctx context.Context, id ContextID) bool {
	err := c.release(ctx, id)
	c.metrics.released(err)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrNoBinding):
		c.log.WarnContext(ctx, "no binding to release", "context", id)
		return false
	default:
		c.fail(ctx, id, "release", err)
		return false
	}
}

func (c *Controller) release(ctx context.Context, id ContextID) (err error) {
	defer recoverError(&err)

	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	b, ok := c.registry.Lookup(id)
	if !ok {
		return ErrNoBinding
	}

	c.setTransit(id, Releasing)
	defer c.clearTransit(id, Releasing)

	if err := c.apply(nil, nil); err != nil {
		return err
	}

	c.registry.Unbind(id)
	c.metrics.setBindings(c.registry.Len())
	c.log.InfoContext(ctx, "proxy released", "context", id, "proxy", b.Spec.String())

	return nil
}

// apply must be called with applyMu held.
func (c *Controller) apply(spec *ProxySpec, bypass BypassList) error {
	start := time.Now()
	err := c.applier.Apply(spec, bypass)
	c.metrics.applied(start, err)
	if err != nil {
		return fmt.Errorf("set shared proxy configuration: %w", err)
	}
	return nil
}

// CurrentProxy returns the binding of context id, it does no I/O.
func (c *Controller) CurrentProxy(id ContextID) (ProxyBinding, bool) {
	return c.registry.Lookup(id)
}

// AllProxies returns a snapshot of all bindings.
// Contexts that never released their proxy stay listed here.
func (c *Controller) AllProxies() map[ContextID]ProxyBinding {
	return c.registry.Snapshot()
}

// State returns the lifecycle state of context id.
func (c *Controller) State(id ContextID) State {
	c.stateMu.Lock()
	s, ok := c.transit[id]
	c.stateMu.Unlock()
	if ok {
		return s
	}

	if _, ok := c.registry.Lookup(id); ok {
		return Assigned
	}
	return Unassigned
}

// Close releases all remaining bindings, leaving the shared configuration in direct mode.
// It returns the number of bindings that were released.
func (c *Controller) Close(ctx context.Context) (int, error) {
	var (
		n    int
		errs []error
	)
	for id, b := range c.registry.Snapshot() {
		c.log.WarnContext(ctx, "releasing leaked binding", "context", id, "proxy", b.Spec.String())
		err := c.release(ctx, id)
		c.metrics.released(err)
		switch {
		case err == nil:
			n++
		case errors.Is(err, ErrNoBinding):
			// Released concurrently.
		default:
			errs = append(errs, fmt.Errorf("context %s: %w", id, err))
		}
	}
	return n, errors.Join(errs...)
}

func (c *Controller) setTransit(id ContextID, s State) {
	c.stateMu.Lock()
	c.transit[id] = s
	c.stateMu.Unlock()
}

// clearTransit removes the transitional state s of context id,
// unless a concurrent call on the same context has replaced it.
func (c *Controller) clearTransit(id ContextID, s State) {
	c.stateMu.Lock()
	if c.transit[id] == s {
		delete(c.transit, id)
	}
	c.stateMu.Unlock()
}

func (c *Controller) fail(ctx context.Context, id ContextID, op string, err error) {
	c.log.ErrorContext(ctx, op+" failed", "context", id, "kind", errorKind(err), "error", err)
	if c.config.OnError != nil {
		c.config.OnError(id, op, err)
	}
}

func recoverError(err *error) {
	if v := recover(); v != nil {
		*err = panicError{v: v}
	}
}
