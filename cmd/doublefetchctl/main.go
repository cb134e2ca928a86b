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

// Command doublefetchctl loads a pattern file and a static HTML
// fixture and runs one extraction, printing the resulting messages as
// JSON. It exists for local development against a pattern file without
// standing up the rest of the job pipeline (cooldown gate, fetcher,
// scheduler).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/privaxis/doublefetch/pkg/extractor"
	"github.com/privaxis/doublefetch/pkg/pattern"
	"github.com/privaxis/doublefetch/pkg/transform"
)

func main() {
	patternFile := flag.String("pattern", "", "path to a pattern-set YAML or JSON file")
	htmlFile := flag.String("html", "", "path to a static HTML fixture to extract from")
	category := flag.String("category", "", "category key to extract, must be present in the pattern file")
	query := flag.String("q", "", "query string for the extraction's q/ctx field")
	qurl := flag.String("qurl", "", "the search-results URL, also used as the base URI for relative links")
	country := flag.String("ctry", "--", "two-letter country code to place in the extraction's ctry field")
	flag.Parse()

	if *patternFile == "" || *htmlFile == "" || *category == "" {
		fmt.Println("Usage: doublefetchctl -pattern <file> -html <file> -category <name> [-q query] [-qurl url] [-ctry code]")
		os.Exit(2)
	}

	set, err := pattern.LoadFile(nil, *patternFile)
	if err != nil {
		log.Fatalf("loading pattern file: %v", err)
	}
	rule, ok := set[*category]
	if !ok {
		log.Fatalf("category %q not found in %s", *category, *patternFile)
	}

	htmlBytes, err := os.ReadFile(*htmlFile)
	if err != nil {
		log.Fatalf("reading html fixture: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(htmlBytes)))
	if err != nil {
		log.Fatalf("parsing html fixture: %v", err)
	}

	baseURI := *qurl
	ctx := extractor.Context{Q: *query, QURL: *qurl, Ctry: *country}
	messages, err := extractor.Extract(doc, rule, transform.New(), ctx, baseURI)
	if err != nil {
		log.Fatalf("extraction failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(messages); err != nil {
		log.Fatalf("encoding messages: %v", err)
	}
}
