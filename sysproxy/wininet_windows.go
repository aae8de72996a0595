// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

//go:build windows

package sysproxy

import (
	"runtime"
	"strings"
	"unsafe"

	"github.com/saucelabs/proxyctl"
	"github.com/saucelabs/proxyctl/log"
	"golang.org/x/sys/windows"
)

// WinINet option identifiers, see wininet.h.
const (
	internetOptionRefresh             = 37
	internetOptionSettingsChanged     = 39
	internetOptionPerConnectionOption = 75

	internetPerConnFlags       = 1
	internetPerConnProxyServer = 2
	internetPerConnProxyBypass = 3

	proxyTypeDirect = 0x1
	proxyTypeProxy  = 0x2
)

var (
	modwininet             = windows.NewLazySystemDLL("wininet.dll")
	procInternetSetOptionW = modwininet.NewProc("InternetSetOptionW")
)

// perConnOption mirrors INTERNET_PER_CONN_OPTIONW.
// The value is a union of DWORD, LPWSTR and FILETIME, uint64 gives it the size and alignment of the union on both 386 and amd64.
type perConnOption struct {
	Option uint32
	Value  uint64
}

// perConnOptionList mirrors INTERNET_PER_CONN_OPTION_LISTW.
type perConnOptionList struct {
	Size        uint32
	Connection  *uint16
	OptionCount uint32
	OptionError uint32
	Options     *perConnOption
}

// WinINet applies proxy settings to the LAN connection of the Windows Internet settings.
// The settings are used by WinINet based clients, they are not read by Go HTTP clients.
type WinINet struct {
	log log.StructuredLogger
}

var _ proxyctl.Applier = (*WinINet)(nil)

func NewWinINet(logger log.StructuredLogger) *WinINet {
	if logger == nil {
		logger = log.NopLogger
	}
	return &WinINet{log: logger}
}

func (w *WinINet) Apply(spec *proxyctl.ProxySpec, bypass proxyctl.BypassList) error {
	if err := procInternetSetOptionW.Find(); err != nil {
		return proxyctl.NewApplyError("load InternetSetOptionW", err)
	}

	flags := uint64(proxyTypeDirect)
	var server *uint16
	if spec != nil {
		flags |= proxyTypeProxy
		s, err := windows.UTF16PtrFromString(proxyServer(spec))
		if err != nil {
			return proxyctl.NewApplyError("encode proxy server", err)
		}
		server = s
	}
	bl, err := windows.UTF16PtrFromString(strings.Join(bypass, ";"))
	if err != nil {
		return proxyctl.NewApplyError("encode bypass list", err)
	}

	opts := [3]perConnOption{
		{Option: internetPerConnFlags, Value: flags},
		{Option: internetPerConnProxyServer, Value: uint64(uintptr(unsafe.Pointer(server)))},
		{Option: internetPerConnProxyBypass, Value: uint64(uintptr(unsafe.Pointer(bl)))},
	}
	list := perConnOptionList{
		OptionCount: uint32(len(opts)),
		Options:     &opts[0],
	}
	list.Size = uint32(unsafe.Sizeof(list))

	r, _, e := procInternetSetOptionW.Call(0, internetOptionPerConnectionOption,
		uintptr(unsafe.Pointer(&list)), uintptr(list.Size))
	runtime.KeepAlive(server)
	runtime.KeepAlive(bl)
	if r == 0 {
		return proxyctl.NewApplyError("set per-connection options", e)
	}

	w.notify(internetOptionSettingsChanged, "settings changed")
	w.notify(internetOptionRefresh, "refresh")

	return nil
}

func (w *WinINet) notify(option uintptr, name string) {
	if r, _, e := procInternetSetOptionW.Call(0, option, 0, 0); r == 0 {
		w.log.Warn("notification failed", "option", name, "error", e)
	}
}

// proxyServer formats spec for INTERNET_PER_CONN_PROXY_SERVER.
// WinINet reaches SOCKS proxies only through the socks= prefix, HTTP proxies are used for all protocols.
func proxyServer(spec *proxyctl.ProxySpec) string {
	if spec.Protocol.IsSOCKS() {
		return "socks=" + spec.Addr()
	}
	return spec.Addr()
}
