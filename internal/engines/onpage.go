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

package engines

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/agentberlin/bluefin"
	"github.com/agentberlin/bluefin/internal/rules"
)

// On-page content thresholds.
const (
	onpageCheckCount    = 12
	titleMinLength      = 30
	titleMaxLength      = 60
	metaDescMinLength   = 70
	metaDescMaxLength   = 160
	urlMaxLength        = 115
	thinContentMinWords = 300
)

// OnPageEngine checks the content elements of each successfully crawled
// HTML page: titles, meta descriptions, headings, image alt text, content
// depth, and URL shape.
type OnPageEngine struct{}

func NewOnPageEngine() *OnPageEngine { return &OnPageEngine{} }

func (e *OnPageEngine) Name() string       { return "onpage" }
func (e *OnPageEngine) Category() Category { return CategoryOnPage }

func (e *OnPageEngine) Analyze(_ context.Context, site *bluefin.CrawlResult) (*Result, error) {
	var pages []*bluefin.PageData
	for _, p := range site.Pages {
		if p.StatusCode == 200 && p.IsHTML() {
			pages = append(pages, p)
		}
	}
	totalPages := len(pages)
	if totalPages == 0 {
		totalPages = 1
	}
	issues := []Issue{}

	var missingTitle, shortTitle, longTitle []string
	var missingDesc, missingH1, multipleH1 []string
	var missingAlt, thinContent, longURLs, uppercaseURLs []string
	titlesByText := newTextGroups()
	descsByText := newTextGroups()
	totalMissingAltImages := 0
	titleLengthSum := 0
	wordCountSum := 0

	for _, p := range pages {
		title := strings.TrimSpace(p.Meta["title"])
		desc := strings.TrimSpace(p.Meta["description"])

		switch {
		case title == "":
			missingTitle = append(missingTitle, p.URL)
		default:
			titleLengthSum += len(title)
			titlesByText.add(title, p.URL)
			if len(title) < titleMinLength {
				shortTitle = append(shortTitle, p.URL)
			} else if len(title) > titleMaxLength {
				longTitle = append(longTitle, p.URL)
			}
		}

		if desc == "" {
			missingDesc = append(missingDesc, p.URL)
		} else {
			descsByText.add(desc, p.URL)
		}

		switch {
		case p.H1Count == 0:
			missingH1 = append(missingH1, p.URL)
		case p.H1Count > 1:
			multipleH1 = append(multipleH1, p.URL)
		}

		if n := pageMissingAltCount(p); n > 0 {
			missingAlt = append(missingAlt, p.URL)
			totalMissingAltImages += n
		}

		if p.WordCount < thinContentMinWords {
			thinContent = append(thinContent, p.URL)
		}
		wordCountSum += p.WordCount

		if len(p.URL) > urlMaxLength {
			longURLs = append(longURLs, p.URL)
		}
		if hasUppercasePath(p.URL) {
			uppercaseURLs = append(uppercaseURLs, p.URL)
		}
	}

	addIssue := func(id, name, desc string, sev Severity, base float64, effort int, urls []string, rec string, meta map[string]any) {
		n := len(urls)
		if n == 0 {
			return
		}
		issues = append(issues, Issue{
			ID:             id,
			Name:           name,
			Description:    desc,
			Category:       CategoryOnPage,
			Severity:       sev,
			AffectedURLs:   capURLs(urls),
			AffectedCount:  n,
			ImpactScore:    rules.CalculateImpactScore(base, string(sev), n, totalPages),
			EffortScore:    effort,
			Recommendation: rec,
			Metadata:       meta,
		})
	}

	addIssue("onpage-missing-title", "Missing title tag",
		fmt.Sprintf("%d pages have no title tag", len(missingTitle)),
		SeverityCritical, 95, 2, missingTitle,
		"Write a unique, descriptive title for every page", nil)

	if dupes := titlesByText.duplicates(); len(dupes) > 0 {
		urls := titlesByText.duplicatedURLs()
		addIssue("onpage-duplicate-title", "Duplicate title tags",
			fmt.Sprintf("%d pages share a title with another page", len(urls)),
			SeverityHigh, 75, 4, urls,
			"Differentiate page titles so each page targets its own query",
			map[string]any{"duplicates": dupes})
	}

	addIssue("onpage-short-title", "Title too short",
		fmt.Sprintf("%d pages have a title under %d characters", len(shortTitle), titleMinLength),
		SeverityMedium, 55, 2, shortTitle,
		"Expand short titles to describe the page content and target keywords", nil)

	addIssue("onpage-long-title", "Title too long",
		fmt.Sprintf("%d pages have a title over %d characters", len(longTitle), titleMaxLength),
		SeverityMedium, 45, 2, longTitle,
		"Shorten long titles so they are not truncated in search results", nil)

	addIssue("onpage-missing-meta-description", "Missing meta description",
		fmt.Sprintf("%d pages have no meta description", len(missingDesc)),
		SeverityHigh, 70, 2, missingDesc,
		"Write a compelling meta description for every page", nil)

	if dupes := descsByText.duplicates(); len(dupes) > 0 {
		urls := descsByText.duplicatedURLs()
		addIssue("onpage-duplicate-meta-description", "Duplicate meta descriptions",
			fmt.Sprintf("%d pages share a meta description with another page", len(urls)),
			SeverityMedium, 50, 3, urls,
			"Give each page its own meta description", nil)
	}

	addIssue("onpage-missing-h1", "Missing H1 heading",
		fmt.Sprintf("%d pages have no H1 heading", len(missingH1)),
		SeverityHigh, 65, 2, missingH1,
		"Add a single H1 that states the main topic of the page", nil)

	addIssue("onpage-multiple-h1", "Multiple H1 headings",
		fmt.Sprintf("%d pages have more than one H1 heading", len(multipleH1)),
		SeverityMedium, 40, 2, multipleH1,
		"Keep one H1 per page and demote the rest to H2", nil)

	addIssue("onpage-missing-alt-text", "Images without alt text",
		fmt.Sprintf("%d pages contain images without alt text", len(missingAlt)),
		SeverityMedium, 45, 3, missingAlt,
		"Add descriptive alt text to every meaningful image",
		map[string]any{"total_images_missing_alt": totalMissingAltImages})

	addIssue("onpage-thin-content", "Thin content",
		fmt.Sprintf("%d pages have fewer than %d words", len(thinContent), thinContentMinWords),
		SeverityMedium, 55, 6, thinContent,
		"Expand thin pages with substantive content or consolidate them", nil)

	addIssue("onpage-long-urls", "Overly long URLs",
		fmt.Sprintf("%d pages have a URL longer than %d characters", len(longURLs), urlMaxLength),
		SeverityLow, 25, 5, longURLs,
		"Keep URLs short and descriptive", nil)

	if n := len(uppercaseURLs); n > 0 {
		issues = append(issues, Issue{
			ID:             "onpage-uppercase-urls",
			Name:           "Uppercase characters in URLs",
			Description:    fmt.Sprintf("%d pages have uppercase characters in their URL path", n),
			Category:       CategoryOnPage,
			Severity:       SeverityLow,
			AffectedURLs:   capURLs(uppercaseURLs),
			AffectedCount:  n,
			ImpactScore:    20.0,
			EffortScore:    3,
			Recommendation: "Serve lowercase URLs and redirect mixed-case variants",
		})
	}

	titledPages := len(pages) - len(missingTitle)
	avgTitle := 0.0
	if titledPages > 0 {
		avgTitle = float64(titleLengthSum) / float64(titledPages)
	}
	avgWords := 0.0
	if len(pages) > 0 {
		avgWords = float64(wordCountSum) / float64(len(pages))
	}

	score := rules.CalculateCategoryScore(issueStats(issues), onpageCheckCount, len(pages))
	return &Result{
		Engine:   e.Name(),
		Category: CategoryOnPage,
		Status:   StatusSuccess,
		Score:    score,
		Issues:   issues,
		Metadata: map[string]any{
			"avg_title_length": rules.Round2(avgTitle),
			"avg_word_count":   rules.Round2(avgWords),
			"unique_titles":    titlesByText.len(),
			"total_titles":     titledPages,
		},
	}, nil
}

func pageMissingAltCount(p *bluefin.PageData) int {
	n := 0
	for _, img := range p.Images {
		if img.Alt == "" {
			n++
		}
	}
	return n
}

func hasUppercasePath(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	for _, r := range u.Path {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// textGroups indexes page URLs by a text value, remembering the order in
// which distinct values first appeared so repeated analysis of the same crawl
// reports the same duplicates.
type textGroups struct {
	order  []string
	byText map[string][]string
}

func newTextGroups() *textGroups {
	return &textGroups{byText: map[string][]string{}}
}

func (g *textGroups) add(text, url string) {
	if _, ok := g.byText[text]; !ok {
		g.order = append(g.order, text)
	}
	g.byText[text] = append(g.byText[text], url)
}

func (g *textGroups) len() int { return len(g.order) }

// duplicates returns up to ten text -> occurrence-count entries for values
// used by more than one page, taken in first-appearance order.
func (g *textGroups) duplicates() map[string]int {
	out := map[string]int{}
	for _, text := range g.order {
		if urls := g.byText[text]; len(urls) > 1 {
			out[text] = len(urls)
			if len(out) == 10 {
				break
			}
		}
	}
	return out
}

// duplicatedURLs collects every URL belonging to a duplicated value, in
// first-appearance order.
func (g *textGroups) duplicatedURLs() []string {
	var out []string
	for _, text := range g.order {
		if urls := g.byText[text]; len(urls) > 1 {
			out = append(out, urls...)
		}
	}
	return out
}
