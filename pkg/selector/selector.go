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

// Package selector implements the Selector Evaluator: running one
// selector definition against a document root and returning the raw
// value it names, before any transform chain runs.
package selector

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/privaxis/doublefetch/pkg/common"
)

// Run evaluates a single selector rule against root. select may be empty,
// meaning "operate on root itself"; otherwise the first descendant of
// root matching select is used, and a selector that matches nothing
// yields a nil value rather than an error.
//
// attr == "textContent" returns the matched element's text content.
// attr == "href" reads the raw, unresolved href attribute and resolves
// it against baseURI (see common.ResolveHref for why the raw attribute
// is used instead of a DOM-resolved property). Any other attr is read
// as a plain attribute value, unresolved.
func Run(root *goquery.Selection, sel string, attr string, baseURI string) (interface{}, error) {
	node := root
	if sel != "" {
		found := root.Find(sel)
		if found.Length() == 0 {
			return nil, nil
		}
		node = found.First()
	}

	switch attr {
	case "textContent":
		return node.Text(), nil
	case "href":
		raw, exists := node.Attr("href")
		if !exists || raw == "" {
			return nil, nil
		}
		resolved, err := common.ResolveHref(raw, baseURI)
		if err != nil {
			return nil, common.NewPermanentError("resolving href %q against %q: %v", raw, baseURI, err)
		}
		return resolved, nil
	default:
		raw, exists := node.Attr(attr)
		if !exists {
			return nil, nil
		}
		return raw, nil
	}
}

// RunFirstMatch tries each alternative in order, per the firstMatch
// selector-definition shape, and returns the index and raw value of the
// first alternative whose Run result is non-nil. If none match, it
// returns -1 and a nil value.
func RunFirstMatch(root *goquery.Selection, alts []Alternative, baseURI string) (int, interface{}, error) {
	for i, alt := range alts {
		value, err := Run(root, alt.Select, alt.Attr, baseURI)
		if err != nil {
			return -1, nil, err
		}
		if value != nil {
			return i, value, nil
		}
	}
	return -1, nil, nil
}

// Alternative is one firstMatch candidate: a selector plus the attribute
// to read from whatever it finds.
type Alternative struct {
	Select string
	Attr   string
}
