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

package transform

import (
	"fmt"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/privaxis/doublefetch/pkg/common"
)

func registerBuiltins(r *Registry) {
	r.Register("trim", trim)
	r.Register("lower", lower)
	r.Register("upper", upper)
	r.Register("substring", substring)
	r.Register("concat", concat)
	r.Register("base64encode", base64encode)
	r.Register("base64decode", base64decode)
	r.Register("sha256", sha256hex)
	r.Register("expr", expr)
}

func toString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func toInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func trim(value interface{}, _ []interface{}) (interface{}, error) {
	s, err := toString(value)
	if err != nil {
		return nil, err
	}
	return strings.TrimSpace(s), nil
}

func lower(value interface{}, _ []interface{}) (interface{}, error) {
	s, err := toString(value)
	if err != nil {
		return nil, err
	}
	return strings.ToLower(s), nil
}

func upper(value interface{}, _ []interface{}) (interface{}, error) {
	s, err := toString(value)
	if err != nil {
		return nil, err
	}
	return strings.ToUpper(s), nil
}

// substring(value, start, end) mirrors Go slice semantics: end may be
// omitted to mean "to the end of the string", and both indices clamp to
// the string's rune-length rather than erroring on an out-of-range end.
func substring(value interface{}, args []interface{}) (interface{}, error) {
	s, err := toString(value)
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	if len(args) == 0 {
		return nil, common.NewPermanentError("substring requires at least a start argument")
	}
	start, err := toInt(args[0])
	if err != nil {
		return nil, common.NewPermanentError("substring: start: %v", err)
	}
	end := len(runes)
	if len(args) > 1 {
		end, err = toInt(args[1])
		if err != nil {
			return nil, common.NewPermanentError("substring: end: %v", err)
		}
	}
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return "", nil
	}
	return string(runes[start:end]), nil
}

// concat(value, ...args) appends each argument's string form after value.
func concat(value interface{}, args []interface{}) (interface{}, error) {
	s, err := toString(value)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString(s)
	for _, arg := range args {
		part, err := toString(arg)
		if err != nil {
			return nil, err
		}
		b.WriteString(part)
	}
	return b.String(), nil
}

func base64encode(value interface{}, _ []interface{}) (interface{}, error) {
	s, err := toString(value)
	if err != nil {
		return nil, err
	}
	return common.Base64Encode(s), nil
}

func base64decode(value interface{}, _ []interface{}) (interface{}, error) {
	s, err := toString(value)
	if err != nil {
		return nil, err
	}
	decoded, err := common.Base64Decode(s)
	if err != nil {
		return nil, common.NewPermanentError("base64decode: %v", err)
	}
	return decoded, nil
}

func sha256hex(value interface{}, _ []interface{}) (interface{}, error) {
	s, err := toString(value)
	if err != nil {
		return nil, err
	}
	return common.GenerateSHA256(s), nil
}

// expr(value, expression) evaluates a govaluate boolean/arithmetic
// expression with the current value bound to the "value" parameter,
// e.g. ["expr", "value == 'N/A'"]. Only a fixed, side-effect-free
// expression grammar is exposed: no JS engine, no page script
// execution, matching the pattern set's declarative nature.
func expr(value interface{}, args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, common.NewPermanentError("expr requires exactly one expression argument")
	}
	exprStr, ok := args[0].(string)
	if !ok {
		return nil, common.NewPermanentError("expr argument must be a string, got %T", args[0])
	}
	parsed, err := govaluate.NewEvaluableExpression(exprStr)
	if err != nil {
		return nil, common.NewPermanentError("expr: invalid expression %q: %v", exprStr, err)
	}
	result, err := parsed.Evaluate(map[string]interface{}{"value": value})
	if err != nil {
		return nil, common.NewPermanentError("expr: evaluating %q: %v", exprStr, err)
	}
	return result, nil
}
