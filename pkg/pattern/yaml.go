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
	"fmt"

	"gopkg.in/yaml.v2"
)

// UnmarshalYAML decodes a prune directive, tagging it PruneKindInvalid
// rather than failing outright when neither "first" nor "all" is present
// or both are; the preprocessor raises the permanent error when it
// actually runs the directive, per the design note on deferred validation.
func (d *PruneDirective) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]string
	if err := unmarshal(&raw); err != nil {
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

// MarshalYAML renders a prune directive back to its source shape.
func (d PruneDirective) MarshalYAML() (interface{}, error) {
	switch d.Kind {
	case PruneKindFirst:
		return map[string]string{"first": d.Selector}, nil
	case PruneKindAll:
		return map[string]string{"all": d.Selector}, nil
	default:
		return map[string]string{}, nil
	}
}

// UnmarshalYAML decodes an input group, tagging it InputKindInvalid when
// neither "first" nor "all" is present. The field-map under that key is
// re-marshaled and re-decoded into Selector values so each field gets its
// own sum-type handling.
func (g *Input) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]map[string]yaml.MapSlice
	if err := unmarshal(&raw); err != nil {
		return err
	}
	first, hasFirst := raw["first"]
	all, hasAll := raw["all"]
	switch {
	case hasFirst && !hasAll:
		g.Kind = InputKindFirst
		return g.decodeFields(first)
	case hasAll && !hasFirst:
		g.Kind = InputKindAll
		return g.decodeFields(all)
	default:
		g.Kind = InputKindInvalid
		return nil
	}
}

func (g *Input) decodeFields(raw map[string]yaml.MapSlice) error {
	g.Fields = make(map[string]Selector, len(raw))
	for name, node := range raw {
		b, err := yaml.Marshal(node)
		if err != nil {
			return err
		}
		var sel Selector
		if err := yaml.Unmarshal(b, &sel); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		g.Fields[name] = sel
	}
	return nil
}

// MarshalYAML renders an input group back to its source shape.
func (g Input) MarshalYAML() (interface{}, error) {
	key := "first"
	if g.Kind == InputKindAll {
		key = "all"
	}
	if g.Kind == InputKindInvalid {
		return map[string]interface{}{}, nil
	}
	return map[string]map[string]Selector{key: g.Fields}, nil
}

// UnmarshalYAML decodes a selector definition, distinguishing the single
// and firstMatch shapes by the presence of a "firstMatch" key.
func (s *Selector) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw struct {
		Select     string          `yaml:"select"`
		Attr       string          `yaml:"attr"`
		Transform  []TransformStep `yaml:"transform"`
		FirstMatch []SelectorAlt   `yaml:"firstMatch"`
	}
	if err := unmarshal(&raw); err != nil {
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

// MarshalYAML renders a selector definition back to its source shape.
func (s Selector) MarshalYAML() (interface{}, error) {
	if s.Kind == SelectorKindFirstMatch {
		return struct {
			FirstMatch []SelectorAlt `yaml:"firstMatch"`
		}{s.FirstMatch}, nil
	}
	return struct {
		Select    string          `yaml:"select,omitempty"`
		Attr      string          `yaml:"attr"`
		Transform []TransformStep `yaml:"transform,omitempty"`
	}{s.Select, s.Attr, s.Transform}, nil
}

// UnmarshalYAML decodes a transform step from its [name, ...args] list
// shape. A step that is not a non-empty list, or whose head is not a
// string, is a malformed pattern.
func (t *TransformStep) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw []interface{}
	if err := unmarshal(&raw); err != nil {
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

// MarshalYAML renders a transform step back to its [name, ...args] shape.
func (t TransformStep) MarshalYAML() (interface{}, error) {
	out := make([]interface{}, 0, len(t.Args)+1)
	out = append(out, t.Name)
	out = append(out, t.Args...)
	return out, nil
}

// UnmarshalYAML decodes the output section as an ordered mapping from
// action name to schema, preserving source declaration order via
// yaml.MapSlice since emission order is an observable property of the
// extraction core.
func (o *OutputActions) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw yaml.MapSlice
	if err := unmarshal(&raw); err != nil {
		return err
	}
	actions := make(OutputActions, 0, len(raw))
	for _, item := range raw {
		name, ok := item.Key.(string)
		if !ok {
			return fmt.Errorf("output action name must be a string, got %T", item.Key)
		}
		b, err := yaml.Marshal(item.Value)
		if err != nil {
			return err
		}
		var schema OutputSchema
		if err := yaml.Unmarshal(b, &schema); err != nil {
			return fmt.Errorf("action %q: %w", name, err)
		}
		actions = append(actions, OutputAction{Action: name, Schema: schema})
	}
	*o = actions
	return nil
}

// MarshalYAML renders the output section back to an ordered mapping.
func (o OutputActions) MarshalYAML() (interface{}, error) {
	out := make(yaml.MapSlice, 0, len(o))
	for _, action := range o {
		out = append(out, yaml.MapItem{Key: action.Action, Value: action.Schema})
	}
	return out, nil
}
