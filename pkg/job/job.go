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

// Package job wires the Cooldown Gate and the extractor together into
// the "doublefetch-query" handler: the Job Entry Point orchestration.
// It owns no parsing or extraction logic itself (those live in
// pkg/extractor and pkg/pattern), only the sequencing and the external
// collaborators it depends on.
package job

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/privaxis/doublefetch/pkg/common"
	"github.com/privaxis/doublefetch/pkg/cooldown"
	"github.com/privaxis/doublefetch/pkg/extractor"
	"github.com/privaxis/doublefetch/pkg/pattern"
	"github.com/privaxis/doublefetch/pkg/transform"
)

// SuspicionVerdict is the suspicion filter's answer for a single query.
type SuspicionVerdict struct {
	Accept bool
	Reason string
}

// SuspicionFilter screens a raw query before any network activity
// happens on its behalf.
type SuspicionFilter interface {
	CheckSuspiciousQuery(ctx context.Context, query string) (SuspicionVerdict, error)
}

// CountrySanitizer resolves the caller's country into the two-letter
// code (or "--" if unknown) that flows into the message payload's
// ctry field, without the job ever seeing raw geolocation data.
type CountrySanitizer interface {
	SafeCountryCode(ctx context.Context) (string, error)
}

// PatternProvider hands back a consistent snapshot of the category to
// rule mapping; the job reads it exactly once per request.
type PatternProvider interface {
	RulesSnapshot(ctx context.Context) (pattern.PatternSet, error)
}

// FetchOptions forwards the per-request fetch knobs a caller may set.
type FetchOptions struct {
	Headers         map[string]string
	FollowRedirects bool
	MaxRedirects    int
	Steps           int
}

// FetchResult is a fetched page's raw bytes plus its content type.
type FetchResult struct {
	Body        []byte
	ContentType string
}

// Fetcher retrieves a URL anonymously. Implementations MUST classify an
// HTTP 429 as a common.PermanentError, so the job never retries a
// rate-limited site on the same request.
type Fetcher interface {
	Get(ctx context.Context, url string, opts FetchOptions) (FetchResult, error)
}

// HTMLParser turns a fetched body into the DOM the extractor walks.
type HTMLParser interface {
	Parse(body []byte) (*goquery.Document, error)
}

// Request is a single doublefetch-query invocation.
type Request struct {
	Query    string
	Category string
	URL      string
	Fetch    FetchOptions
}

// Result is the job handler's output: the message set the caller wraps
// as send-message actions, one per entry.
type Result struct {
	Messages []extractor.Message
}

// HandlerFunc is the shape jobScheduler.registerHandler expects.
type HandlerFunc func(ctx context.Context, req Request) (Result, error)

// Scheduler is the host's job-dispatch collaborator; the job registers
// itself under "doublefetch-query" and is otherwise unaware of how or
// when the handler gets invoked.
type Scheduler interface {
	RegisterHandler(name string, handler HandlerFunc)
}

// HandlerName is the name the Job Entry Point registers itself under.
const HandlerName = "doublefetch-query"

// Runner holds the Job Entry Point's external collaborators and its
// own Cooldown Gate, and exposes the single Handle method that runs
// the full query-handling step sequence.
type Runner struct {
	Suspicion  SuspicionFilter
	Sanitizer  CountrySanitizer
	Patterns   PatternProvider
	Fetcher    Fetcher
	Parser     HTMLParser
	Gate       *cooldown.Gate
	Registry   *transform.Registry
}

// Register wires the Runner's Handle method into a Scheduler under its
// fixed handler name.
func (r *Runner) Register(s Scheduler) {
	s.RegisterHandler(HandlerName, r.Handle)
}

// Handle runs the query-handling step sequence for a single query:
// suspicion check, cooldown gate, fetch and parse, country lookup,
// rule lookup, and extraction.
func (r *Runner) Handle(ctx context.Context, req Request) (Result, error) {
	correlationID := uuid.NewString()

	verdict, err := r.Suspicion.CheckSuspiciousQuery(ctx, req.Query)
	if err != nil {
		return Result{}, err
	}
	if !verdict.Accept {
		common.DebugMsg(common.DbgLvlInfo, "job %s: rejected suspicious query: %s", correlationID, verdict.Reason)
		return Result{}, nil
	}

	fingerprint := cooldown.Fingerprint(req.Category, req.Query)
	added, err := r.Gate.TryEnter(ctx, req.Category, req.Query)
	if err != nil {
		return Result{}, err
	}
	if !added {
		common.DebugMsg(common.DbgLvlDebug, "job %s: fingerprint %d already cooling down", correlationID, fingerprint)
		return Result{}, nil
	}

	doc, err := r.fetchAndParse(ctx, req)
	if err != nil {
		if releaseErr := r.Gate.Release(ctx, req.Category, req.Query); releaseErr != nil {
			common.DebugMsg(common.DbgLvlWarn, "job %s: releasing fingerprint after fetch failure: %v", correlationID, releaseErr)
		}
		return Result{}, err
	}

	country, err := r.Sanitizer.SafeCountryCode(ctx)
	if err != nil {
		country = "--"
	}

	rules, err := r.Patterns.RulesSnapshot(ctx)
	if err != nil {
		if releaseErr := r.Gate.Release(ctx, req.Category, req.Query); releaseErr != nil {
			common.DebugMsg(common.DbgLvlWarn, "job %s: releasing fingerprint after snapshot failure: %v", correlationID, releaseErr)
		}
		return Result{}, err
	}
	rule, ok := rules[req.Category]
	if !ok || !rule.IsValidAt(time.Now()) {
		// Unknown category, or a category whose validity window does
		// not cover now: the extractor invariant "unknown category
		// yields no messages" holds by never calling Extract at all,
		// and the fingerprint is kept, since neither case is a fetch or
		// parse failure worth retrying for.
		common.DebugMsg(common.DbgLvlInfo, "job %s: category %q has no active rule", correlationID, req.Category)
		return Result{}, nil
	}

	extractCtx := extractor.Context{Q: req.Query, QURL: req.URL, Ctry: country}
	messages, err := extractor.Extract(doc, rule, r.Registry, extractCtx, req.URL)
	if err != nil {
		// Extraction failure keeps the fingerprint: the pattern is
		// unsupported or the site is rate-limiting at the content
		// level, and retrying this request would help nothing.
		common.DebugMsg(common.DbgLvlError, "job %s: extraction failed: %v", correlationID, err)
		return Result{}, nil
	}
	if len(messages) == 0 {
		common.DebugMsg(common.DbgLvlDebug, "job %s: extraction produced no messages", correlationID)
		return Result{}, nil
	}

	return Result{Messages: messages}, nil
}

func (r *Runner) fetchAndParse(ctx context.Context, req Request) (*goquery.Document, error) {
	fetched, err := r.Fetcher.Get(ctx, req.URL, req.Fetch)
	if err != nil {
		return nil, err
	}
	doc, err := r.Parser.Parse(fetched.Body)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
