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
	"github.com/privaxis/doublefetch/pkg/common"
	"github.com/privaxis/doublefetch/pkg/pattern"
)

// ValidateSources checks the structural invariant that every output
// field's source names a group actually declared under the rule's
// input section. This is independent of what matched at runtime: an
// input group that matched nothing is still a declared source, just one
// whose fields come back absent; a source that was never declared at
// all is a malformed pattern.
func ValidateSources(rule pattern.Rule) error {
	for _, action := range rule.Output {
		for _, field := range action.Schema.Fields {
			if !field.HasSource() {
				continue
			}
			if _, ok := rule.Input[field.Source]; !ok {
				return common.NewPermanentError("action %q field %q: source %q does not match any input group", action.Action, field.Key, field.Source)
			}
		}
	}
	return nil
}

type assembled struct {
	message         Message
	omitIfExistsAny []string
}

// randIntn is overridable in tests; production code uses the real
// cryptographically-irrelevant uniform generator in nonce.go.
var randIntn = defaultAntiDuplicates

// Assemble walks a rule's output section, in declaration order, and
// builds the (pre-redundancy-filter) message set per §4.5. It assumes
// ValidateSources has already been called against rule.
func Assemble(rule pattern.Rule, extraction ExtractionMap, ctx Context) ([]assembled, error) {
	var out []assembled
	for _, action := range rule.Output {
		payload := make(map[string]interface{})
		discard := false

		for _, field := range action.Schema.Fields {
			if !field.HasSource() {
				v := ctx.value(field.Key)
				if isPresent(v) {
					payload[field.Key] = v
				}
				// Absent context values are skipped, not discarded,
				// whether or not the field is optional.
				continue
			}

			declared := rule.Input[field.Source]
			switch declared.Kind {
			case pattern.InputKindFirst:
				value, err := singleValueField(extraction, field)
				if err != nil {
					return nil, err
				}
				if !field.Optional && !isPresent(value) {
					discard = true
					break
				}
				payload[field.Key] = value

			case pattern.InputKindAll:
				entries, err := arrayMergedField(extraction, declared, field)
				if err != nil {
					return nil, err
				}
				if len(entries) == 0 && !field.Optional {
					discard = true
					break
				}
				payload[field.Key] = PositionalList(entries)

			default:
				return nil, common.NewPermanentError("action %q field %q: invalid source shape", action.Action, field.Key)
			}
			if discard {
				break
			}
		}

		if discard {
			continue
		}

		out = append(out, assembled{
			message: Message{
				Body: MessageBody{
					Action:         action.Action,
					Payload:        payload,
					Ver:            4,
					AntiDuplicates: randIntn(),
				},
				DeduplicateBy: action.Schema.DeduplicateBy,
			},
			omitIfExistsAny: action.Schema.OmitIfExistsAny,
		})
	}
	return out, nil
}

func singleValueField(extraction ExtractionMap, field pattern.OutputField) (interface{}, error) {
	g, ok := extraction[field.Source]
	if !ok || g.single == nil {
		return nil, nil
	}
	return g.single[field.Key], nil
}

func arrayMergedField(extraction ExtractionMap, declared pattern.Input, field pattern.OutputField) ([]interface{}, error) {
	g, ok := extraction[field.Source]
	if !ok {
		return nil, nil
	}

	required := field.RequiredKeys
	if len(required) == 0 {
		required = make([]string, 0, len(declared.Fields))
		for name := range declared.Fields {
			required = append(required, name)
		}
	}

	n := 0
	for _, arr := range g.arrays {
		n = len(arr)
		break
	}

	entries := make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		entry := make(map[string]interface{}, len(declared.Fields))
		for name := range declared.Fields {
			entry[name] = g.arrays[name][i]
		}
		if allRequiredPresent(entry, required) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func allRequiredPresent(entry map[string]interface{}, required []string) bool {
	for _, key := range required {
		if !isPresent(entry[key]) {
			return false
		}
	}
	return true
}

// RedundancyFilter drops messages whose omitIfExistsAny references
// another emitted action. It is a single pass against the pre-filter
// emitted-action set: a message is never dropped by a self-reference to
// its own action name, only by a distinct action also being emitted.
func RedundancyFilter(items []assembled) []Message {
	emitted := make(map[string]bool, len(items))
	for _, it := range items {
		emitted[it.message.Body.Action] = true
	}

	out := make([]Message, 0, len(items))
	for _, it := range items {
		drop := false
		for _, name := range it.omitIfExistsAny {
			if name == it.message.Body.Action {
				continue
			}
			if emitted[name] {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, it.message)
		}
	}
	return out
}
