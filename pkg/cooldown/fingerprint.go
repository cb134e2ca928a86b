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

// Package cooldown implements the Cooldown Gate: computing the
// (category, query) fingerprint, its timezone-agnostic daily
// expiration, and the persisted-hash store's test-and-set contract, plus
// an in-memory and a Postgres-backed implementation of that contract.
package cooldown

import (
	"fmt"
	"strings"
	"time"

	"github.com/spaolacci/murmur3"
)

// fingerprintMask truncates the 64-bit murmur3 hash to its low 48 bits.
// This value is fixed forever: changing it would make a previously
// written cooldown fingerprint unrecognizable to a newer build, silently
// defeating the cooldown for every in-flight entry.
const fingerprintMask = (uint64(1) << 48) - 1

// Fingerprint computes the cooldown gate's fingerprint for a (category,
// query) pair: a truncated murmur3 hash of "dfq:{category}:{trimmed
// query}".
func Fingerprint(category, query string) uint64 {
	key := fmt.Sprintf("dfq:%s:%s", category, strings.TrimSpace(query))
	return murmur3.Sum64([]byte(key)) & fingerprintMask
}

// EndOfUTCDay returns the timestamp of the next UTC midnight strictly
// after now, regardless of now's own location. Every deployment that
// calls this with the "same" wall-clock instant gets the same answer,
// which is the point: a fingerprint's lifetime must not depend on which
// timezone the process computing it happens to run in.
func EndOfUTCDay(now time.Time) time.Time {
	u := now.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, 1)
}
