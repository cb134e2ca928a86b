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

import "net/url"

// ResolveHref resolves a raw (possibly relative, possibly already
// percent-encoded) attribute value against a base URL and returns the
// resulting absolute URL as a string.
//
// It deliberately works off the raw attribute text rather than any
// DOM-resolved property: HTML parsers vary in what they use as an implicit
// base (an extension origin, "about:blank", ...) and some re-encode
// reserved characters when exposing a resolved href, which would silently
// double-encode an already-encoded path segment. Parsing the raw string
// with an explicit base sidesteps both problems and gives every DOM
// implementation the same answer.
func ResolveHref(raw, base string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(ref).String(), nil
}
