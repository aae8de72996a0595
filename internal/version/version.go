// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set with -ldflags at build time.
var (
	buildCommit  = "Commit wasn't set @ build time"
	buildTime    = "Date wasn't set @ build time"
	buildVersion = "Version wasn't set @ build time"
)

type Version struct {
	Version   string `json:"version" yaml:"version"`
	Time      string `json:"time" yaml:"time"`
	Commit    string `json:"commit" yaml:"commit"`
	GoArch    string `json:"go_arch" yaml:"go_arch"`
	GoOS      string `json:"go_os" yaml:"go_os"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

func Get() Version {
	return Version{
		Version:   buildVersion,
		Time:      buildTime,
		Commit:    buildCommit,
		GoArch:    runtime.GOARCH,
		GoOS:      runtime.GOOS,
		GoVersion: runtime.Version(),
	}
}

// String returns the version in tabular form.
func (v Version) String() string {
	buf := new(strings.Builder)
	fmt.Fprintln(buf, "Version:\t", v.Version)
	fmt.Fprintln(buf, "Built time:\t", v.Time)
	fmt.Fprintln(buf, "Git commit:\t", v.Commit)
	fmt.Fprintln(buf, "Go Arch:\t", v.GoArch)
	fmt.Fprintln(buf, "Go OS:\t\t", v.GoOS)
	fmt.Fprintln(buf, "Go Version:\t", v.GoVersion)
	return buf.String()
}
