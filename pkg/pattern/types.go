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

// Package pattern implements the declarative pattern-set schema for the
// search-extraction core: the category -> Rule map, with its preprocess,
// input and output sections, modeled per the data model's dichotomies as
// sum types validated at load (structural shape) or first use (semantic
// content, such as an unknown transform name).
package pattern

import (
	"time"

	"github.com/privaxis/doublefetch/pkg/common"
)

// PatternSet maps a category name to the Rule governing extraction for
// pages of that category. An unknown category simply has no entry.
type PatternSet map[string]Rule

// Rule is the top-level per-category pattern: an optional preprocessing
// pass, the input groups that pull values out of the document, and the
// output actions assembled from those values.
//
// ValidFrom and ValidTo are a supplemented feature: a rule whose window
// does not cover the current time is treated by the caller as if its
// category had no entry at all, without disturbing pattern-set loading.
type Rule struct {
	Preprocess []PruneDirective    `yaml:"preprocess,omitempty" json:"preprocess,omitempty"`
	Input      map[string]Input    `yaml:"input,omitempty" json:"input,omitempty"`
	Output     OutputActions       `yaml:"output,omitempty" json:"output,omitempty"`
	ValidFrom  *common.CustomTime  `yaml:"validFrom,omitempty" json:"validFrom,omitempty"`
	ValidTo    *common.CustomTime  `yaml:"validTo,omitempty" json:"validTo,omitempty"`
}

// PruneKind distinguishes the two prune directive shapes.
type PruneKind int

const (
	// PruneKindInvalid marks a directive with neither "first" nor "all" set.
	PruneKindInvalid PruneKind = iota
	// PruneKindFirst removes at most one match of Selector.
	PruneKindFirst
	// PruneKindAll removes every match of Selector.
	PruneKindAll
)

// PruneDirective removes matching nodes from the document before
// extraction runs. Exactly one of "first" or "all" must be set in the
// source document; a directive with both or neither is a permanent error
// raised when the preprocessor runs it.
type PruneDirective struct {
	Kind     PruneKind
	Selector string
}

// InputKind distinguishes a single-match input group from a multi-match one.
type InputKind int

const (
	// InputKindInvalid marks a group with neither "first" nor "all" set.
	InputKindInvalid InputKind = iota
	// InputKindFirst matches at most one root element; every field yields a
	// single scalar.
	InputKindFirst
	// InputKindAll matches every root element; every field yields an array
	// parallel to the root matches.
	InputKindAll
)

// Input is one entry of a rule's input section, keyed by a CSS selector
// string. It is a sum type over "first" and "all" input groups, each
// carrying a field-map from output-field name to selector definition.
type Input struct {
	Kind   InputKind
	Fields map[string]Selector
}

// SelectorKind distinguishes a single selector rule from a first-match list.
type SelectorKind int

const (
	// SelectorKindInvalid marks a malformed selector definition.
	SelectorKindInvalid SelectorKind = iota
	// SelectorKindSingle is a single { select?, attr, transform? } rule.
	SelectorKindSingle
	// SelectorKindFirstMatch tries each alternative in order and keeps the
	// first whose raw selection is non-null.
	SelectorKindFirstMatch
)

// Selector is a selector definition: either a single rule or an ordered
// list of alternatives tried in turn.
type Selector struct {
	Kind SelectorKind

	// Single-rule fields (SelectorKindSingle).
	Select    string          `yaml:"select,omitempty" json:"select,omitempty"`
	Attr      string          `yaml:"attr,omitempty" json:"attr,omitempty"`
	Transform []TransformStep `yaml:"transform,omitempty" json:"transform,omitempty"`

	// First-match alternatives (SelectorKindFirstMatch).
	FirstMatch []SelectorAlt `yaml:"firstMatch,omitempty" json:"firstMatch,omitempty"`
}

// SelectorAlt is one alternative of a firstMatch selector definition.
type SelectorAlt struct {
	Select    string          `yaml:"select,omitempty" json:"select,omitempty"`
	Attr      string          `yaml:"attr" json:"attr"`
	Transform []TransformStep `yaml:"transform,omitempty" json:"transform,omitempty"`
}

// TransformStep is one entry of a transform chain: a transform name and
// its positional arguments, e.g. ["substring", 0, 5].
type TransformStep struct {
	Name string
	Args []interface{}
}

// OutputActions is the rule's output section: an ordered list of
// (action name, schema) pairs. Order matters, actions are emitted in the
// declaration order of the pattern's output mapping.
type OutputActions []OutputAction

// OutputAction pairs an action name with its schema.
type OutputAction struct {
	Action string
	Schema OutputSchema
}

// OutputSchema describes how to build one action's payload.
type OutputSchema struct {
	Fields          []OutputField `yaml:"fields" json:"fields"`
	OmitIfExistsAny []string      `yaml:"omitIfExistsAny,omitempty" json:"omitIfExistsAny,omitempty"`
	// DeduplicateBy is opaque to this package: it is forwarded verbatim
	// onto emitted messages and never interpreted here.
	DeduplicateBy interface{} `yaml:"deduplicateBy,omitempty" json:"deduplicateBy,omitempty"`
}

// OutputField is one entry of an output schema's field list.
type OutputField struct {
	Key          string   `yaml:"key" json:"key"`
	Source       string   `yaml:"source,omitempty" json:"source,omitempty"`
	RequiredKeys []string `yaml:"requiredKeys,omitempty" json:"requiredKeys,omitempty"`
	Optional     bool     `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// HasSource reports whether the field draws from an input group rather
// than the context.
func (f OutputField) HasSource() bool {
	return f.Source != ""
}

// IsValidAt reports whether the rule's optional validity window covers t.
// A rule with no window is always valid.
func (r Rule) IsValidAt(t time.Time) bool {
	if r.ValidFrom != nil && !r.ValidFrom.IsEmpty() && t.Before(r.ValidFrom.Time) {
		return false
	}
	if r.ValidTo != nil && !r.ValidTo.IsEmpty() && t.After(r.ValidTo.Time) {
		return false
	}
	return true
}
