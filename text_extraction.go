// Copyright 2025 Agentic World, LLC (Sherin Thomas)
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

package bluefin

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractText returns the visible text of a page with boilerplate chrome
// (script, style, nav, footer) removed and whitespace normalized. Word counts
// for the thin-content check are computed from this output.
func ExtractText(htmlBody []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBody))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer").Remove()

	return normalizeWhitespace(doc.Text())
}

// ExtractMainContent extracts text from the main content area only, skipping
// navigation, headers, footers, and sidebars.
//
// Strategy:
// 1. Remove script/style/noscript
// 2. Try HTML5 semantic elements (article, main, [role='main'])
// 3. Otherwise score candidate nodes by stopword density, skipping
//    link-heavy blocks
// 4. Fall back to body
func ExtractMainContent(htmlBody []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBody))
	if err != nil {
		return ""
	}

	doc.Find("script, style, noscript").Remove()

	var content *goquery.Selection
	if article := doc.Find("article").First(); article.Length() > 0 {
		content = article
	} else if mainEl := doc.Find("main").First(); mainEl.Length() > 0 {
		content = mainEl
	} else if roleMain := doc.Find("[role='main']").First(); roleMain.Length() > 0 {
		content = roleMain
	}

	if content == nil {
		content = findBestContentNode(doc)
	}
	if content == nil || content.Length() == 0 {
		content = doc.Find("body")
	}
	if content == nil || content.Length() == 0 {
		return ""
	}

	return normalizeWhitespace(content.Text())
}

// findBestContentNode scores candidate blocks by stopword density and
// propagates scores to parents (gravity scoring). The highest-scoring parent
// is the most likely main content container.
func findBestContentNode(doc *goquery.Document) *goquery.Selection {
	parentScores := make(map[*goquery.Selection]int)

	doc.Find("p, pre, td").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if countStopwords(text) < 2 {
			return
		}
		if isHighLinkDensity(s) {
			return
		}

		score := countStopwords(text) + len(strings.Fields(text))/10

		parent := s.Parent()
		if parent.Length() > 0 {
			parentScores[parent] += score
		}
		grandparent := parent.Parent()
		if grandparent.Length() > 0 {
			parentScores[grandparent] += score / 2
		}
	})

	var bestNode *goquery.Selection
	bestScore := 0
	for node, score := range parentScores {
		if score > bestScore {
			bestScore = score
			bestNode = node
		}
	}
	return bestNode
}

// isHighLinkDensity reports whether more than half of a node's words live
// inside anchors, a strong navigation signal.
func isHighLinkDensity(node *goquery.Selection) bool {
	words := len(strings.Fields(node.Text()))
	if words == 0 {
		return false
	}
	linkWords := 0
	node.Find("a").Each(func(_ int, a *goquery.Selection) {
		linkWords += len(strings.Fields(a.Text()))
	})
	return float64(linkWords)/float64(words) > 0.5
}

var englishStopwords = map[string]bool{
	"a": true, "about": true, "all": true, "also": true, "an": true,
	"and": true, "are": true, "as": true, "at": true, "be": true,
	"been": true, "but": true, "by": true, "can": true, "for": true,
	"from": true, "had": true, "has": true, "have": true, "he": true,
	"her": true, "his": true, "if": true, "in": true, "into": true,
	"is": true, "it": true, "its": true, "more": true, "not": true,
	"of": true, "on": true, "one": true, "or": true, "our": true,
	"she": true, "so": true, "than": true, "that": true, "the": true,
	"their": true, "them": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "to": true, "was": true, "we": true,
	"were": true, "what": true, "when": true, "which": true, "who": true,
	"will": true, "with": true, "would": true, "you": true, "your": true,
}

func countStopwords(text string) int {
	n := 0
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if englishStopwords[strings.Trim(w, ".,!?;:\"'()")] {
			n++
		}
	}
	return n
}

// normalizeWhitespace collapses runs of whitespace into single spaces.
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
