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

package extractor

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/privaxis/doublefetch/pkg/pattern"
	"github.com/privaxis/doublefetch/pkg/transform"
)

// Extract runs the full pipeline against a parsed document for a single
// category's rule: preprocess, evaluate inputs, assemble outputs,
// redundancy filter. It does not fetch or parse the document itself,
// and does not touch the cooldown gate; those are the job entry
// point's concerns.
//
// An unknown category (no entry in the caller's pattern set) is not
// represented here; the caller simply does not invoke Extract for it,
// which is how "extraction yields no messages for an unknown category"
// holds without this function needing a special case.
func Extract(doc *goquery.Document, rule pattern.Rule, registry *transform.Registry, ctx Context, baseURI string) ([]Message, error) {
	if err := ValidateSources(rule); err != nil {
		return nil, err
	}
	if err := Preprocess(doc, rule.Preprocess); err != nil {
		return nil, err
	}
	extraction, err := Evaluate(doc, rule, registry, baseURI)
	if err != nil {
		return nil, err
	}
	candidates, err := Assemble(rule, extraction, ctx)
	if err != nil {
		return nil, err
	}
	return RedundancyFilter(candidates), nil
}
