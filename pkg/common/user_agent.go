// Copyright 2023 Paolo Fabio Zaino
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package common provides common utilities and functions used across the application.
package common

import (
	"crypto/rand"
	"math/big"
)

// UserAgentPool is a flat set of browser user-agent strings a doublefetch
// job can pick from uniformly at random, so that repeated refetches of the
// same URL do not all present the same fingerprint. Trimmed down from the
// teacher's OS/browser-group/percentile UA database to the flat pool the
// job entry point actually needs: one anonymous identity per refetch, not
// a weighted simulation of real traffic.
type UserAgentPool struct {
	agents []string
}

// DefaultUserAgentPool is a small, representative pool of desktop browser
// user-agent strings.
var DefaultUserAgentPool = &UserAgentPool{agents: []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}}

// IsEmpty reports whether the pool has no agents to choose from.
func (p *UserAgentPool) IsEmpty() bool {
	return p == nil || len(p.agents) == 0
}

// Pick returns a uniformly random user-agent string from the pool, or the
// empty string if the pool is empty.
func (p *UserAgentPool) Pick() string {
	if p.IsEmpty() {
		return ""
	}
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.agents))))
	if err != nil {
		return p.agents[0]
	}
	return p.agents[idx.Int64()]
}

// NewUserAgentPool builds a pool from an explicit list of agent strings,
// for callers that load their own list from configuration.
func NewUserAgentPool(agents []string) *UserAgentPool {
	return &UserAgentPool{agents: agents}
}
