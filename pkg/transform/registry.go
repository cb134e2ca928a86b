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

// Package transform implements the Transform Registry: a lookup from
// transform name to a pure unary function, and the chain runner the rule
// evaluator drives a selector's extracted value through.
package transform

import (
	"github.com/privaxis/doublefetch/pkg/common"
	"github.com/privaxis/doublefetch/pkg/pattern"
)

// Func is a single transform: given the current value and the step's
// positional arguments, it returns the next value. It must be pure: no
// I/O, no shared mutable state, so a chain can be re-run safely.
type Func func(value interface{}, args []interface{}) (interface{}, error)

// Registry resolves transform names to functions. The zero value is not
// usable; construct one with New.
type Registry struct {
	funcs map[string]Func
}

// New returns a Registry preloaded with the built-in transforms.
func New() *Registry {
	r := &Registry{funcs: make(map[string]Func)}
	registerBuiltins(r)
	return r
}

// Register adds or replaces a transform under name.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Lookup resolves name to its function.
func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Run drives value through steps in order. A nil value short-circuits
// immediately, before any registry lookup happens, and the chain returns
// nil without error: a selector that matched nothing stays nothing
// regardless of what the pattern asked to do with it. An unknown
// transform name is a permanent error, raised here at evaluation time
// rather than when the pattern was loaded, since the same pattern set may
// be shared across a process whose registry gains transforms over time.
func (r *Registry) Run(value interface{}, steps []pattern.TransformStep) (interface{}, error) {
	cur := value
	for _, step := range steps {
		if cur == nil {
			return nil, nil
		}
		fn, ok := r.Lookup(step.Name)
		if !ok {
			return nil, common.NewPermanentError("unknown transform %q", step.Name)
		}
		next, err := fn(cur, step.Args)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
