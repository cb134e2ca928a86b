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

package cooldown

import (
	"context"
	"time"
)

// Gate is the Cooldown Gate proper: it ties a Store to the fingerprint
// and expiration rules so callers never compute either by hand.
type Gate struct {
	store Store
	now   func() time.Time
}

// NewGate builds a Gate over the given Store. The clock is real wall
// time; code inside this package can build a Gate literal with a
// different now func.
func NewGate(store Store) *Gate {
	return &Gate{store: store, now: time.Now}
}

// TryEnter attempts to record the (category, query) pair as "in
// flight" for the rest of the UTC day. It reports false when the pair
// is already cooling down, in which case the caller must not proceed
// with a fetch.
func (g *Gate) TryEnter(ctx context.Context, category, query string) (bool, error) {
	hash := Fingerprint(category, query)
	return g.store.Add(ctx, hash, EndOfUTCDay(g.now()))
}

// Release deletes the (category, query) pair's fingerprint early. The
// job entry point calls this when a fetch or parse failed, so the same
// query can be retried before the day rolls over, but never when
// extraction itself failed, since by then the fetch succeeded and a
// retry would just hit the same (or a now-stale) page again.
func (g *Gate) Release(ctx context.Context, category, query string) error {
	return g.store.Delete(ctx, Fingerprint(category, query))
}
