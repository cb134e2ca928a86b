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

// Package batch fans a slice of single-query job requests out across a
// bounded worker pool. It sits entirely outside the extraction core:
// the core stays synchronous and single-threaded per invocation, this
// is a caller-side convenience for running many of those invocations
// concurrently.
package batch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/privaxis/doublefetch/pkg/common"
	"github.com/privaxis/doublefetch/pkg/job"
)

// defaultConcurrency is the worker limit used when no Option overrides it.
const defaultConcurrency = 10

// Outcome pairs a request's result with whatever error its handler
// returned, so a single failing request never drops the rest of the
// batch.
type Outcome struct {
	Request job.Request
	Result  job.Result
	Err     error
}

// Runner fans job.Request values through a job.Runner's Handle method.
type Runner struct {
	handler     job.HandlerFunc
	concurrency int
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency overrides the default worker-pool size.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRunner builds a Runner around a handler, typically a job.Runner's
// Handle method, but any HandlerFunc works, which keeps this package
// free of a direct dependency on job.Runner's concrete fields.
func NewRunner(handler job.HandlerFunc, opts ...Option) *Runner {
	r := &Runner{handler: handler, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Process runs every request concurrently, bounded by the configured
// concurrency, and returns one Outcome per request in the same order
// the requests were given. Order is preserved by writing into a
// pre-sized slice under a mutex rather than appending from goroutines.
func (r *Runner) Process(ctx context.Context, requests []job.Request) ([]Outcome, error) {
	start := time.Now()
	common.DebugMsg(common.DbgLvlInfo, "batch: starting %d requests at concurrency %d", len(requests), r.concurrency)

	outcomes := make([]Outcome, len(requests))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			result, err := r.handler(gctx, req)

			mu.Lock()
			outcomes[i] = Outcome{Request: req, Result: result, Err: err}
			mu.Unlock()

			if err != nil {
				common.DebugMsg(common.DbgLvlWarn, "batch: request %d (%s/%s) failed: %v", i, req.Category, req.Query, err)
			}
			// Never propagate a single request's failure to errgroup: it
			// is recorded in the outcome, and the rest of the batch
			// should keep running.
			return nil
		})
	}

	err := g.Wait()
	common.DebugMsg(common.DbgLvlInfo, "batch: finished %d requests in %s", len(requests), time.Since(start))
	return outcomes, err
}
