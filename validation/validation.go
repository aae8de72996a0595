// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package validation

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator returns new validator.Validate instance with all custom validations registered.
func Validator() *validator.Validate {
	v := validator.New()
	RegisterAll(v)
	return v
}

// RegisterAll adds registers all custom validations with the provider validator.
func RegisterAll(v *validator.Validate) {
	mustRegisterValidation(v, "proxySpec", IsProxySpec)
	mustRegisterValidation(v, "bypassList", IsBypassList)
	mustRegisterValidation(v, "httpURL", IsHTTPURL)
	mustRegisterValidation(v, "metricsNamespace", IsMetricsNamespace)
}

func mustRegisterValidation(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

var proxySpecRegexp = regexp.MustCompile(`^(?i)(http|https|socks4|socks5)://[\w.-]+:(\d+)$`)

// IsProxySpec checks if the given string is a valid proxy specification:
// - Known protocol: http, https, socks4, socks5.
// - Hostname or IPv4 address, letters, digits, dots, hyphens and underscores only.
// - Port in a valid range: 1 - 65535.
// - No path, query, fragment or user info.
func IsProxySpec(fl validator.FieldLevel) bool {
	m := proxySpecRegexp.FindStringSubmatch(fl.Field().String())
	if m == nil {
		return false
	}
	return isPort(m[2])
}

var bypassHostRegexp = regexp.MustCompile(`^[\w.*:<>\[\]-]+$`)

// IsBypassList checks if the given string is a semicolon-separated list of hosts.
// Wildcards (*.example.com) and the <local> marker are allowed, empty entries are ignored.
func IsBypassList(fl validator.FieldLevel) bool {
	for _, h := range strings.Split(fl.Field().String(), ";") {
		if h = strings.TrimSpace(h); h != "" && !bypassHostRegexp.MatchString(h) {
			return false
		}
	}
	return true
}

// IsHTTPURL checks if the given string is an absolute http or https URL with a host.
func IsHTTPURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

var metricsNamespaceRegexp = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// IsMetricsNamespace checks if the given string can prefix Prometheus metric names.
func IsMetricsNamespace(fl validator.FieldLevel) bool {
	return metricsNamespaceRegexp.MatchString(fl.Field().String())
}

// isPort returns true iff port string is a valid port number.
func isPort(port string) bool {
	p, err := strconv.Atoi(port)
	if err != nil {
		return false
	}

	return p >= 1 && p <= 65535
}
