// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package probe

import (
	"fmt"
	"sync"
	"time"

	"github.com/saucelabs/proxyctl"
)

// URLTiming is the outcome of a single probe request.
type URLTiming struct {
	URL      string        `json:"url" yaml:"url"`
	Status   int           `json:"status,omitempty" yaml:"status,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Result is the outcome of a single worker.
type Result struct {
	Name       string             `json:"name" yaml:"name"`
	Proxy      string             `json:"proxy" yaml:"proxy"`
	ContextID  proxyctl.ContextID `json:"context_id" yaml:"context_id"`
	Assigned   bool               `json:"assigned" yaml:"assigned"`
	Success    bool               `json:"success" yaml:"success"`
	ExternalIP string             `json:"external_ip,omitempty" yaml:"external_ip,omitempty"`
	Timings    []URLTiming        `json:"response_times,omitempty" yaml:"response_times,omitempty"`
	Average    time.Duration      `json:"average_response_time,omitempty" yaml:"average_response_time,omitempty"`
	Errors     []string           `json:"errors,omitempty" yaml:"errors,omitempty"`
	Duration   time.Duration      `json:"duration" yaml:"duration"`
}

func (r *Result) Status() string {
	if r.Success {
		return "SUCCESS"
	}
	return "FAILED"
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// averageResponseTime returns the mean of the recorded timings, 0 if there are none.
func (r *Result) averageResponseTime() time.Duration {
	if len(r.Timings) == 0 {
		return 0
	}
	var sum time.Duration
	for _, t := range r.Timings {
		sum += t.Duration
	}
	return sum / time.Duration(len(r.Timings))
}

// Report is the outcome of a Tester run.
type Report struct {
	Mode     string        `json:"mode" yaml:"mode"`
	Routing  Routing       `json:"routing" yaml:"routing"`
	Started  time.Time     `json:"started" yaml:"started"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Results  []*Result     `json:"results" yaml:"results"`
	Passed   int           `json:"passed" yaml:"passed"`
	Failed   int           `json:"failed" yaml:"failed"`
}

func (r *Report) OK() bool {
	return r.Failed == 0
}

// Failures collects controller errors per context.
// Pass Record as proxyctl.ControllerConfig.OnError to give workers the reason of a failed Assign or Release.
type Failures struct {
	mu sync.Mutex
	m  map[proxyctl.ContextID][]error
}

func (f *Failures) Record(id proxyctl.ContextID, op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.m == nil {
		f.m = make(map[proxyctl.ContextID][]error)
	}
	f.m[id] = append(f.m[id], fmt.Errorf("%s: %w", op, err))
}

func (f *Failures) take(id proxyctl.ContextID) []error {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	errs := f.m[id]
	delete(f.m, id)
	return errs
}
