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

	"github.com/privaxis/doublefetch/pkg/common"
	"github.com/privaxis/doublefetch/pkg/pattern"
	"github.com/privaxis/doublefetch/pkg/selector"
	"github.com/privaxis/doublefetch/pkg/transform"
)

// Preprocess runs a rule's prune directives against doc, in order,
// before the rule evaluator walks the input section. "first" removes at
// most one match per directive; "all" removes every match. A directive
// with neither key set is a permanent error.
func Preprocess(doc *goquery.Document, directives []pattern.PruneDirective) error {
	for _, d := range directives {
		switch d.Kind {
		case pattern.PruneKindFirst:
			doc.Find(d.Selector).First().Remove()
		case pattern.PruneKindAll:
			doc.Find(d.Selector).Remove()
		default:
			return common.NewPermanentError("prune directive missing both \"first\" and \"all\"")
		}
	}
	return nil
}

// group holds one input-group's extraction result. For an
// InputKindFirst group that matched nothing, single is nil: the field
// entries for that group are left undefined rather than zero-valued.
// For InputKindAll, arrays is always populated, with every field's
// array the same length as the number of root matches (zero-length
// when nothing matched).
type group struct {
	kind   pattern.InputKind
	single map[string]interface{}
	arrays map[string][]interface{}
}

// ExtractionMap is keyed by input-group key (the selector string under
// "input" in the pattern).
type ExtractionMap map[string]group

// Evaluate walks a rule's input section against doc and produces the
// extraction map §4.4 describes. baseURI is used to resolve any href
// selector results encountered along the way.
func Evaluate(doc *goquery.Document, rule pattern.Rule, registry *transform.Registry, baseURI string) (ExtractionMap, error) {
	extraction := make(ExtractionMap, len(rule.Input))
	for source, in := range rule.Input {
		switch in.Kind {
		case pattern.InputKindFirst:
			g, err := evaluateFirst(doc, source, in, registry, baseURI)
			if err != nil {
				return nil, err
			}
			extraction[source] = g
		case pattern.InputKindAll:
			g, err := evaluateAll(doc, source, in, registry, baseURI)
			if err != nil {
				return nil, err
			}
			extraction[source] = g
		default:
			return nil, common.NewPermanentError("input group %q: expected \"first\" or \"all\"", source)
		}
	}
	return extraction, nil
}

func evaluateFirst(doc *goquery.Document, source string, in pattern.Input, registry *transform.Registry, baseURI string) (group, error) {
	item := doc.Find(source)
	if item.Length() == 0 {
		return group{kind: pattern.InputKindFirst}, nil
	}
	item = item.First()

	single := make(map[string]interface{}, len(in.Fields))
	for name, def := range in.Fields {
		value, err := evaluateField(item, def, registry, baseURI)
		if err != nil {
			return group{}, err
		}
		single[name] = value
	}
	return group{kind: pattern.InputKindFirst, single: single}, nil
}

func evaluateAll(doc *goquery.Document, source string, in pattern.Input, registry *transform.Registry, baseURI string) (group, error) {
	items := doc.Find(source)
	n := items.Length()

	arrays := make(map[string][]interface{}, len(in.Fields))
	for name := range in.Fields {
		arrays[name] = make([]interface{}, n)
	}

	var firstErr error
	items.EachWithBreak(func(i int, item *goquery.Selection) bool {
		for name, def := range in.Fields {
			value, err := evaluateField(item, def, registry, baseURI)
			if err != nil {
				firstErr = err
				return false
			}
			arrays[name][i] = value
		}
		return true
	})
	if firstErr != nil {
		return group{}, firstErr
	}
	return group{kind: pattern.InputKindAll, arrays: arrays}, nil
}

func evaluateField(root *goquery.Selection, def pattern.Selector, registry *transform.Registry, baseURI string) (interface{}, error) {
	switch def.Kind {
	case pattern.SelectorKindSingle:
		raw, err := selector.Run(root, def.Select, def.Attr, baseURI)
		if err != nil {
			return nil, err
		}
		return registry.Run(raw, def.Transform)

	case pattern.SelectorKindFirstMatch:
		alts := make([]selector.Alternative, len(def.FirstMatch))
		for i, a := range def.FirstMatch {
			alts[i] = selector.Alternative{Select: a.Select, Attr: a.Attr}
		}
		idx, raw, err := selector.RunFirstMatch(root, alts, baseURI)
		if err != nil {
			return nil, err
		}
		if idx < 0 {
			return nil, nil
		}
		return registry.Run(raw, def.FirstMatch[idx].Transform)

	default:
		return nil, common.NewPermanentError("invalid selector definition")
	}
}
