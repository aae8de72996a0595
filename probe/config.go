// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package probe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/saucelabs/proxyctl"
	"github.com/saucelabs/proxyctl/validation"
)

// Routing selects how probe requests find their proxy.
type Routing string

const (
	// BindingRouting sends requests through the worker's own binding.
	// Workers never observe each other's proxies.
	BindingRouting Routing = "binding"

	// SystemRouting sends requests through the applied shared configuration.
	// Concurrent workers may observe the proxy of whichever worker assigned last.
	SystemRouting Routing = "system"
)

func (r Routing) String() string {
	return string(r)
}

func Routings() []Routing {
	return []Routing{BindingRouting, SystemRouting}
}

type Config struct {
	// URLs are fetched in order through the proxy, every one must return 200 OK.
	URLs []string `validate:"min=1,dive,httpURL"`

	// IPCheckURL returns a JSON object with the external IP in the "ip" or "origin" field.
	// Empty disables the check.
	IPCheckURL string `validate:"omitempty,httpURL"`

	RequestTimeout time.Duration `validate:"gt=0"`

	// ValidateProxy enables connectivity validation in Assign.
	ValidateProxy bool

	// Bypass is the semicolon-joined bypass list passed to Assign.
	Bypass string `validate:"bypassList"`

	Sequential bool

	// Concurrency limits the number of concurrent workers, 0 means no limit.
	Concurrency int `validate:"gte=0"`

	Routing Routing `validate:"oneof=binding system"`

	// Handshake opens a tunnel to HandshakeTarget through the proxy before fetching URLs.
	Handshake       bool
	HandshakeTarget string `validate:"required_if=Handshake true,omitempty,hostname_port"`

	PromRegistry  prometheus.Registerer `validate:"-"`
	PromNamespace string                `validate:"omitempty,metricsNamespace"`
}

func DefaultConfig() *Config {
	return &Config{
		URLs: []string{
			"http://example.com",
			"https://httpbin.org/ip",
			"https://api.ipify.org?format=json",
		},
		IPCheckURL:      "https://api.ipify.org?format=json",
		RequestTimeout:  10 * time.Second,
		ValidateProxy:   true,
		Bypass:          proxyctl.DefaultBypassList,
		Routing:         BindingRouting,
		HandshakeTarget: "example.com:80",
		PromNamespace:   "proxyctl",
	}
}

func (c *Config) Validate() error {
	return validation.Validator().Struct(c)
}
