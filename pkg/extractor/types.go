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

// Package extractor implements the interpreter core: the preprocessor
// that prunes a document, the rule evaluator that walks a pattern's
// input section into an extraction map, the message assembler that
// walks the output section into messages, and the redundancy filter
// applied to the assembled set.
package extractor

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Context is the (query, fetched URL, country) triple merged into
// context-sourced output fields.
type Context struct {
	Q    string
	QURL string
	Ctry string
}

func (c Context) value(key string) interface{} {
	switch key {
	case "q":
		return c.Q
	case "qurl":
		return c.QURL
	case "ctry":
		return c.Ctry
	default:
		return nil
	}
}

// Message is one emitted telemetry message.
type Message struct {
	Body          MessageBody `json:"body"`
	DeduplicateBy interface{} `json:"deduplicateBy,omitempty"`
}

// MessageBody is the wire body of a Message.
type MessageBody struct {
	Action         string                 `json:"action"`
	Payload        map[string]interface{} `json:"payload"`
	Ver            int                     `json:"ver"`
	AntiDuplicates int                     `json:"anti-duplicates"`
}

// PositionalList renders as a JSON object with keys "0", "1", ... in
// slice order rather than as a JSON array. The downstream telemetry
// consumer expects array-merged fields shaped this way; plain
// map[string]interface{} would sort numeric-looking keys lexically
// ("0", "1", "10", "2", ...) once there are 10 or more entries, so this
// type keeps insertion order instead of relying on encoding/json's map
// key sort.
type PositionalList []interface{}

// MarshalJSON implements json.Marshaler.
func (p PositionalList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// isPresent reports presence per the data model: not nil, not the empty
// string, and not an empty array.
func isPresent(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case []interface{}:
		return len(t) > 0
	case PositionalList:
		return len(t) > 0
	default:
		return true
	}
}
