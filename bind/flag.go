// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package bind

import (
	"strings"

	"github.com/mmatczuk/anyflag"
	"github.com/saucelabs/proxyctl"
	"github.com/saucelabs/proxyctl/log"
	"github.com/saucelabs/proxyctl/probe"
	"github.com/saucelabs/proxyctl/sysproxy"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type OutputFormat string

const (
	TextOutput OutputFormat = "text"
	JSONOutput OutputFormat = "json"
	YAMLOutput OutputFormat = "yaml"
)

func (f OutputFormat) String() string {
	return string(f)
}

func ConfigFile(fs *pflag.FlagSet, configFile *string) {
	fs.StringVarP(configFile,
		"config-file", "c", *configFile, "<path>"+
			"Configuration file to load options from. "+
			"The supported formats are: JSON, YAML, TOML, HCL, and Java properties. "+
			"The file format is determined by the file extension, if not specified the default format is YAML. "+
			"The following precedence order of configuration sources is used: command flags, environment variables, config file, default values. ")
}

func Proxies(fs *pflag.FlagSet, proxies *[]string) {
	fs.StringSliceVarP(proxies,
		"proxy", "x", *proxies, "<protocol://host:port>"+
			"Proxy to test. "+
			"The supported protocols are: http, https, socks4, socks5. "+
			"The flag can be specified multiple times, proxies can also be passed as arguments. ")
}

func ControllerConfig(fs *pflag.FlagSet, cfg *proxyctl.ControllerConfig) {
	fs.DurationVar(&cfg.ConnectTimeout,
		"connect-timeout", cfg.ConnectTimeout,
		"Timeout for the TCP connectivity check of a proxy. ")
}

func Applier(fs *pflag.FlagSet, kind *sysproxy.Kind) {
	fs.Var(anyflag.NewValue[sysproxy.Kind](*kind, kind, anyflag.EnumParser[sysproxy.Kind](sysproxy.Kinds()...)),
		"applier", "<"+joinStringers(sysproxy.Kinds(), "|")+">"+
			"Shared proxy configuration to write assigned proxies to. "+
			"The env applier sets HTTP_PROXY, HTTPS_PROXY, ALL_PROXY, and NO_PROXY of this process. "+
			"The wininet applier sets the WinINet proxy of the current user, it is only available on Windows. "+
			"The memory applier keeps the configuration in memory. "+
			"The auto applier selects wininet on Windows and env otherwise. ")
}

func ProbeConfig(fs *pflag.FlagSet, cfg *probe.Config) {
	fs.StringSliceVarP(&cfg.URLs,
		"url", "u", cfg.URLs, "<URL>"+
			"URL to fetch through the proxy, the response status must be 200 OK. "+
			"The flag can be specified multiple times, URLs are fetched in order. ")

	fs.StringVar(&cfg.IPCheckURL,
		"ip-check-url", cfg.IPCheckURL, "<URL>"+
			"URL returning a JSON object with the external IP address in the ip or origin field. "+
			"Set to empty string to disable the check. ")

	fs.DurationVar(&cfg.RequestTimeout,
		"request-timeout", cfg.RequestTimeout,
		"Timeout for a single request made through the proxy. ")

	fs.BoolVar(&cfg.ValidateProxy,
		"validate", cfg.ValidateProxy,
		"Check that the proxy accepts TCP connections before assigning it. ")

	fs.StringVar(&cfg.Bypass,
		"bypass", cfg.Bypass, "<host;host...>"+
			"Semicolon-separated list of hosts that are connected directly. "+
			"Entries starting with * match by suffix, <local> matches host names without a dot. ")

	fs.BoolVar(&cfg.Sequential,
		"sequential", cfg.Sequential,
		"Test proxies one after another instead of concurrently. ")

	fs.IntVar(&cfg.Concurrency,
		"concurrency", cfg.Concurrency,
		"Maximum number of proxies tested at the same time, 0 means no limit. ")

	fs.Var(anyflag.NewValue[probe.Routing](cfg.Routing, &cfg.Routing, anyflag.EnumParser[probe.Routing](probe.Routings()...)),
		"routing", "<"+joinStringers(probe.Routings(), "|")+">"+
			"Setting this to binding sends requests of every test through its own proxy. "+
			"Setting this to system sends requests through the shared proxy configuration, "+
			"concurrent tests may then use each other's proxies. ")

	fs.BoolVar(&cfg.Handshake,
		"handshake", cfg.Handshake,
		"Open a tunnel through the proxy before fetching URLs, to verify that it speaks its protocol. ")

	fs.StringVar(&cfg.HandshakeTarget,
		"handshake-target", cfg.HandshakeTarget, "<host:port>"+
			"Address to open the handshake tunnel to. ")
}

func APIServerConfig(fs *pflag.FlagSet, cfg *proxyctl.APIServerConfig) {
	fs.StringVar(&cfg.Addr,
		"api-address", cfg.Addr, "<host:port>"+
			"Serve health, metrics, and bindings endpoints on this address while tests run. "+
			"Empty disables the API server. ")
}

func Output(fs *pflag.FlagSet, f *OutputFormat) {
	formats := []OutputFormat{TextOutput, JSONOutput, YAMLOutput}
	fs.VarP(anyflag.NewValue[OutputFormat](*f, f, anyflag.EnumParser[OutputFormat](formats...)),
		"output", "o", "<"+joinStringers(formats, "|")+">"+
			"Output format. ")
}

func LogConfig(fs *pflag.FlagSet, cfg *log.Config) {
	fs.Var(NewFileFlag(&cfg.File, OpenFileParser(log.DefaultFileFlags, log.DefaultFileMode, log.DefaultDirMode)),
		"log-file", "<path>"+
			"Path to the log file, if empty, logs to stderr. ")

	fs.Var(anyflag.NewValue[log.Level](cfg.Level, &cfg.Level, anyflag.EnumParser[log.Level](log.Levels()...)),
		"log-level", "<"+joinStringers(log.Levels(), "|")+">"+
			"Log level. ")

	fs.Var(anyflag.NewValue[log.Format](cfg.Format, &cfg.Format, anyflag.EnumParser[log.Format](log.Formats()...)),
		"log-format", "<"+joinStringers(log.Formats(), "|")+">"+
			"Log format. ")
}

func MarkFlagHidden(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.Flags().MarkHidden(name); err != nil {
			panic(err)
		}
	}
}

func MarkFlagFilename(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagFilename(name); err != nil {
			panic(err)
		}
	}
}

func joinStringers[T interface{ String() string }](values []T, sep string) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = v.String()
	}
	return strings.Join(s, sep)
}
