// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package proxyctl

import (
	"sync"
	"time"
)

// ProxyBinding associates a context with the proxy it currently owns.
type ProxyBinding struct {
	ContextID  ContextID  `json:"context_id" yaml:"context_id"`
	Spec       ProxySpec  `json:"spec" yaml:"spec"`
	Bypass     BypassList `json:"bypass" yaml:"bypass"`
	AssignedAt time.Time  `json:"assigned_at" yaml:"assigned_at"`
}

// Registry maps contexts to their proxy bindings.
// The lock is held only while the map is accessed, never during I/O.
type Registry struct {
	mu       sync.Mutex
	bindings map[ContextID]ProxyBinding
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[ContextID]ProxyBinding),
		now:      time.Now,
	}
}

// Bind inserts or replaces the binding for id.
// It returns the replaced binding, if there was one.
func (r *Registry) Bind(id ContextID, spec ProxySpec, bypass BypassList) (old ProxyBinding, replaced bool) {
	b := ProxyBinding{
		ContextID:  id,
		Spec:       spec.WithBypass(bypass),
		Bypass:     bypass.clone(),
		AssignedAt: r.now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	old, replaced = r.bindings[id]
	r.bindings[id] = b
	return
}

// Unbind removes the binding for id and reports whether one existed.
func (r *Registry) Unbind(id ContextID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bindings[id]
	delete(r.bindings, id)
	return ok
}

func (r *Registry) Lookup(id ContextID) (ProxyBinding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[id]
	return b, ok
}

// Snapshot returns a copy of all bindings, the caller may iterate it without holding the lock.
func (r *Registry) Snapshot() map[ContextID]ProxyBinding {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := make(map[ContextID]ProxyBinding, len(r.bindings))
	for id, b := range r.bindings {
		m[id] = b
	}
	return m
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bindings)
}
