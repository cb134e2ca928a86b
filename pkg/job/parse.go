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

package job

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"

	"github.com/privaxis/doublefetch/pkg/common"
)

// GoqueryParser is the default HTMLParser, backed by the same
// goquery.NewDocumentFromReader the extractor and its selector package
// already assume produces the DOM they walk.
type GoqueryParser struct{}

// Parse implements HTMLParser.
func (GoqueryParser) Parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, common.NewTransientError("parsing HTML: %v", err)
	}
	return doc, nil
}
