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

package pattern

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalJSON decodes a prune directive from its JSON object shape,
// mirroring UnmarshalYAML.
func (d *PruneDirective) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	first, hasFirst := raw["first"]
	all, hasAll := raw["all"]
	switch {
	case hasFirst && !hasAll:
		d.Kind = PruneKindFirst
		d.Selector = first
	case hasAll && !hasFirst:
		d.Kind = PruneKindAll
		d.Selector = all
	default:
		d.Kind = PruneKindInvalid
	}
	return nil
}

// UnmarshalJSON decodes an input group from its JSON object shape.
func (g *Input) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	first, hasFirst := raw["first"]
	all, hasAll := raw["all"]
	switch {
	case hasFirst && !hasAll:
		g.Kind = InputKindFirst
		return g.decodeFieldsJSON(first)
	case hasAll && !hasFirst:
		g.Kind = InputKindAll
		return g.decodeFieldsJSON(all)
	default:
		g.Kind = InputKindInvalid
		return nil
	}
}

func (g *Input) decodeFieldsJSON(raw map[string]json.RawMessage) error {
	g.Fields = make(map[string]Selector, len(raw))
	for name, node := range raw {
		var sel Selector
		if err := json.Unmarshal(node, &sel); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		g.Fields[name] = sel
	}
	return nil
}

// UnmarshalJSON decodes a selector definition from its JSON object shape.
func (s *Selector) UnmarshalJSON(data []byte) error {
	var raw struct {
		Select     string          `json:"select"`
		Attr       string          `json:"attr"`
		Transform  []TransformStep `json:"transform"`
		FirstMatch []SelectorAlt   `json:"firstMatch"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.FirstMatch != nil {
		s.Kind = SelectorKindFirstMatch
		s.FirstMatch = raw.FirstMatch
		return nil
	}
	s.Kind = SelectorKindSingle
	s.Select = raw.Select
	s.Attr = raw.Attr
	s.Transform = raw.Transform
	return nil
}

// UnmarshalJSON decodes a transform step from its [name, ...args] array
// shape.
func (t *TransformStep) UnmarshalJSON(data []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("transform step must be a non-empty list")
	}
	name, ok := raw[0].(string)
	if !ok {
		return fmt.Errorf("transform step head must be a string, got %T", raw[0])
	}
	t.Name = name
	t.Args = raw[1:]
	return nil
}

// UnmarshalJSON decodes the output section as an ordered mapping from
// action name to schema. encoding/json does not preserve object key
// order when decoding into a map, so this walks the raw token stream
// directly, the same ordering guarantee the YAML path gets from
// yaml.MapSlice.
func (o *OutputActions) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("output must be a JSON object")
	}
	actions := make(OutputActions, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("output action name must be a string")
		}
		var schema OutputSchema
		if err := dec.Decode(&schema); err != nil {
			return fmt.Errorf("action %q: %w", name, err)
		}
		actions = append(actions, OutputAction{Action: name, Schema: schema})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = actions
	return nil
}
