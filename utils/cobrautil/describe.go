// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cobrautil

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/exp/maps"
)

type sliceValue interface {
	GetSlice() []string
}

// DescribeFlags returns name=value lines sorted by name.
// Slices are comma-joined, the help flag and hidden flags are skipped.
func DescribeFlags(fs *pflag.FlagSet, changedOnly bool) string {
	args := make(map[string]string, fs.NFlag())
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" || f.Hidden || (changedOnly && !f.Changed) {
			return
		}
		if sv, ok := f.Value.(sliceValue); ok {
			args[f.Name] = strings.Join(sv.GetSlice(), ",")
		} else {
			args[f.Name] = f.Value.String()
		}
	})

	keys := maps.Keys(args)
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%s\n", k, args[k])
	}
	return sb.String()
}
