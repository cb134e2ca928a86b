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

package common

import "time"

// CustomTime wraps time.Time to accept either RFC3339 or a bare date when
// read from a pattern-set YAML/JSON document, used by a rule's optional
// validity window.
type CustomTime struct {
	time.Time
}

// UnmarshalYAML parses date strings from the YAML file.
func (ct *CustomTime) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var dateStr string
	if err := unmarshal(&dateStr); err != nil {
		return err
	}
	if dateStr == "" {
		return nil
	}

	t, err := time.Parse(time.RFC3339, dateStr)
	if err != nil {
		t, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return err
		}
	}

	ct.Time = t
	return nil
}

// MarshalYAML renders the time back out in RFC3339, so that
// unmarshal(marshal(x)) round-trips to the same instant.
func (ct CustomTime) MarshalYAML() (interface{}, error) {
	if ct.IsEmpty() {
		return "", nil
	}
	return ct.Time.Format(time.RFC3339), nil
}

// IsEmpty checks if the CustomTime is empty.
func (ct *CustomTime) IsEmpty() bool {
	return ct.Time.IsZero()
}
