// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package proxyctl

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Protocol is the protocol spoken by an upstream proxy.
type Protocol string

const (
	HTTP   Protocol = "http"
	HTTPS  Protocol = "https"
	SOCKS4 Protocol = "socks4"
	SOCKS5 Protocol = "socks5"
)

var allProtocols = []Protocol{HTTP, HTTPS, SOCKS4, SOCKS5} //nolint:gochecknoglobals // this is needed for parsing

func (p *Protocol) UnmarshalText(text []byte) error {
	v := Protocol(strings.ToLower(string(text)))
	if !v.isValid() {
		return fmt.Errorf("unsupported protocol: %s", text)
	}
	*p = v
	return nil
}

func (p Protocol) String() string {
	return string(p)
}

// IsSOCKS returns true for SOCKS4 and SOCKS5 proxies.
func (p Protocol) IsSOCKS() bool {
	return p == SOCKS4 || p == SOCKS5
}

func (p Protocol) isValid() bool {
	for _, v := range allProtocols {
		if p == v {
			return true
		}
	}
	return false
}

// DefaultBypassList is used when Assign is called with an empty bypass list.
const DefaultBypassList = "localhost;127.0.0.1"

// BypassList is an ordered list of hosts that connect directly, bypassing the proxy.
type BypassList []string

// ParseBypassList parses a semicolon-joined list of hosts.
// Empty entries and surrounding whitespace are dropped.
func ParseBypassList(s string) BypassList {
	var l BypassList
	for _, h := range strings.Split(s, ";") {
		if h = strings.TrimSpace(h); h != "" {
			l = append(l, h)
		}
	}
	return l
}

// String returns the semicolon-joined form of the list.
func (l BypassList) String() string {
	return strings.Join(l, ";")
}

// Match reports whether host connects directly.
// Entries starting with "*" match by suffix, the <local> entry matches host names without a dot.
func (l BypassList) Match(host string) bool {
	host = strings.ToLower(host)
	for _, h := range l {
		h = strings.ToLower(h)
		switch {
		case h == host:
			return true
		case h == "<local>":
			if !strings.Contains(host, ".") && !strings.Contains(host, ":") {
				return true
			}
		case strings.HasPrefix(h, "*"):
			if strings.HasSuffix(host, h[1:]) {
				return true
			}
		}
	}
	return false
}

func (l BypassList) clone() BypassList {
	if l == nil {
		return nil
	}
	c := make(BypassList, len(l))
	copy(c, l)
	return c
}

// ProxySpec describes an upstream proxy.
// It is treated as immutable, use ParseProxySpec to create a valid one and WithBypass to derive a copy.
type ProxySpec struct {
	Protocol Protocol   `json:"protocol" yaml:"protocol"`
	Host     string     `json:"host" yaml:"host"`
	Port     uint16     `json:"port" yaml:"port"`
	Bypass   BypassList `json:"bypass,omitempty" yaml:"bypass,omitempty"`
}

var proxySpecRegexp = regexp.MustCompile(`^(?i)(http|https|socks4|socks5)://([\w.-]+):(\d+)$`)

// ParseProxySpec parses the canonical scheme://host:port form.
// The scheme is case-insensitive, the host may contain letters, digits, underscores, dots and hyphens,
// the port must be a decimal number in range 1 - 65535.
// Paths, user info, query strings and missing ports are rejected.
func ParseProxySpec(raw string) (ProxySpec, error) {
	m := proxySpecRegexp.FindStringSubmatch(raw)
	if m == nil {
		return ProxySpec{}, &ConfigError{Raw: raw, Reason: formatReason(raw)}
	}

	port, err := strconv.ParseUint(m[3], 10, 16)
	if err != nil || port == 0 {
		return ProxySpec{}, &ConfigError{Raw: raw, Reason: fmt.Sprintf("invalid port: %s", m[3])}
	}

	return ProxySpec{
		Protocol: Protocol(strings.ToLower(m[1])),
		Host:     m[2],
		Port:     uint16(port),
	}, nil
}

// formatReason explains why raw does not match the proxy spec grammar.
func formatReason(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return "missing scheme"
	}
	if !Protocol(strings.ToLower(scheme)).isValid() {
		return fmt.Sprintf("unsupported scheme: %s", scheme)
	}
	if strings.ContainsAny(rest, "/?#") {
		return "path, query, and fragment are not allowed"
	}
	if strings.Contains(rest, "@") {
		return "user info is not allowed"
	}
	host, port, err := net.SplitHostPort(rest)
	if err != nil || port == "" {
		return "missing port"
	}
	if host == "" {
		return "missing host"
	}
	return "invalid host or port"
}

// ParseProxyProtocol returns the protocol of a raw proxy string, ex. socks5://host:1080.
// It does not validate the rest of the string.
func ParseProxyProtocol(raw string) (Protocol, bool) {
	scheme, _, ok := strings.Cut(raw, "://")
	if !ok {
		return "", false
	}
	p := Protocol(strings.ToLower(scheme))
	return p, p.isValid()
}

// Addr returns host:port of the proxy.
func (s ProxySpec) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(int(s.Port)))
}

// String returns the canonical scheme://host:port form.
func (s ProxySpec) String() string {
	return s.Protocol.String() + "://" + s.Addr()
}

// URL returns the proxy URL usable with http.ProxyURL.
func (s ProxySpec) URL() *url.URL {
	return &url.URL{
		Scheme: s.Protocol.String(),
		Host:   s.Addr(),
	}
}

// WithBypass returns a copy of s with the given bypass list.
func (s ProxySpec) WithBypass(l BypassList) ProxySpec {
	s.Bypass = l.clone()
	return s
}

// IsZero reports whether s is the zero value.
func (s ProxySpec) IsZero() bool {
	return s.Protocol == "" && s.Host == "" && s.Port == 0 && len(s.Bypass) == 0
}
