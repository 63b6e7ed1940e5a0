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
	"math"

	"github.com/agentberlin/bluefin"
	"github.com/agentberlin/bluefin/internal/rules"
)

// slowPageThresholdMs marks a page as slow for the crawlability check.
const slowPageThresholdMs = 5000

// CrawlEngine analyzes crawl-level health: error pages, duplicate content,
// canonical hygiene, and slow responses. It works purely on the pages the
// crawler already collected.
type CrawlEngine struct{}

func NewCrawlEngine() *CrawlEngine { return &CrawlEngine{} }

func (e *CrawlEngine) Name() string       { return "crawlability" }
func (e *CrawlEngine) Category() Category { return CategoryCrawlability }

func (e *CrawlEngine) Analyze(_ context.Context, site *bluefin.CrawlResult) (*Result, error) {
	pages := site.Pages
	issues := []Issue{}

	var client4xx, server5xx, duplicates, missingCanonical, mismatchCanonical, slow []string

	for _, p := range pages {
		switch {
		case p.StatusCode >= 400 && p.StatusCode < 500:
			client4xx = append(client4xx, p.URL)
		case p.StatusCode >= 500 && p.StatusCode < 600:
			server5xx = append(server5xx, p.URL)
		}
		if p.Meta["is_duplicate_content"] == "true" {
			duplicates = append(duplicates, p.URL)
		}
		if p.StatusCode == 200 {
			if p.CanonicalURL == "" {
				missingCanonical = append(missingCanonical, p.URL)
			} else if p.CanonicalURL != p.URL {
				mismatchCanonical = append(mismatchCanonical, p.URL)
			}
			if p.LoadTimeMs > slowPageThresholdMs {
				slow = append(slow, p.URL)
			}
		}
	}

	if n := len(client4xx); n > 0 {
		issues = append(issues, Issue{
			ID:            "crawl-4xx-pages",
			Name:          "Pages returning client errors",
			Description:   fmt.Sprintf("%d pages returned a 4xx status code", n),
			Category:      CategoryCrawlability,
			Severity:      SeverityHigh,
			AffectedURLs:  capURLs(client4xx),
			AffectedCount: n,
			ImpactScore:   math.Min(100, float64(n)*2.0),
			EffortScore:   4,
			Recommendation: "Fix or redirect broken pages, and remove internal links " +
				"pointing at them",
		})
	}
	if n := len(server5xx); n > 0 {
		issues = append(issues, Issue{
			ID:             "crawl-5xx-pages",
			Name:           "Pages returning server errors",
			Description:    fmt.Sprintf("%d pages returned a 5xx status code", n),
			Category:       CategoryCrawlability,
			Severity:       SeverityCritical,
			AffectedURLs:   capURLs(server5xx),
			AffectedCount:  n,
			ImpactScore:    math.Min(100, float64(n)*3.0),
			EffortScore:    6,
			Recommendation: "Investigate server errors; crawlers drop pages that repeatedly fail",
		})
	}
	if n := len(duplicates); n > 0 {
		issues = append(issues, Issue{
			ID:             "crawl-duplicate-content",
			Name:           "Duplicate content",
			Description:    fmt.Sprintf("%d pages serve content identical to another crawled page", n),
			Category:       CategoryCrawlability,
			Severity:       SeverityMedium,
			AffectedURLs:   capURLs(duplicates),
			AffectedCount:  n,
			ImpactScore:    math.Min(80, float64(n)*1.5),
			EffortScore:    5,
			Recommendation: "Consolidate duplicate pages with canonical tags or 301 redirects",
		})
	}
	if n := len(missingCanonical); n > 0 {
		issues = append(issues, Issue{
			ID:             "crawl-missing-canonical",
			Name:           "Pages without a canonical tag",
			Description:    fmt.Sprintf("%d pages declare no rel=canonical", n),
			Category:       CategoryCrawlability,
			Severity:       SeverityMedium,
			AffectedURLs:   capURLs(missingCanonical),
			AffectedCount:  n,
			ImpactScore:    math.Min(60, float64(n)*0.5),
			EffortScore:    3,
			Recommendation: "Add a self-referencing canonical tag to every indexable page",
		})
	}
	if n := len(mismatchCanonical); n > 0 {
		issues = append(issues, Issue{
			ID:            "crawl-canonical-mismatch",
			Name:          "Canonical points elsewhere",
			Description:   fmt.Sprintf("%d pages canonicalize to a different URL", n),
			Category:      CategoryCrawlability,
			Severity:      SeverityMedium,
			AffectedURLs:  capURLs(mismatchCanonical),
			AffectedCount: n,
			ImpactScore:   math.Min(70, float64(n)*1.0),
			EffortScore:   4,
			Recommendation: "Verify each cross-URL canonical is intentional; accidental " +
				"mismatches drop pages from the index",
		})
	}
	if n := len(slow); n > 0 {
		issues = append(issues, Issue{
			ID:             "crawl-slow-pages",
			Name:           "Slow pages",
			Description:    fmt.Sprintf("%d pages took longer than %dms to load", n, slowPageThresholdMs),
			Category:       CategoryCrawlability,
			Severity:       SeverityHigh,
			AffectedURLs:   capURLs(slow),
			AffectedCount:  n,
			ImpactScore:    math.Min(80, float64(n)*2.0),
			EffortScore:    7,
			Recommendation: "Profile slow pages; crawl budget shrinks when response times climb",
		})
	}

	return &Result{
		Engine:   e.Name(),
		Category: CategoryCrawlability,
		Status:   StatusSuccess,
		Score:    crawlScore(pages, issues),
		Issues:   issues,
		Metadata: map[string]any{
			"total_crawled":      site.Stats.TotalCrawled,
			"total_failed":       site.Stats.TotalFailed,
			"total_skipped":      site.Stats.TotalSkipped,
			"elapsed_seconds":    rules.Round2(site.Stats.ElapsedSeconds),
			"pages_per_second":   rules.Round2(site.Stats.PagesPerSecond),
			"sitemap_urls_found": site.Stats.SitemapURLs,
		},
	}, nil
}

// crawlScore blends fetch success rate (70%) and canonical coverage (20%)
// with a flat per-issue severity deduction.
func crawlScore(pages []*bluefin.PageData, issues []Issue) float64 {
	if len(pages) == 0 {
		return 0
	}
	ok, canonical := 0, 0
	for _, p := range pages {
		if p.StatusCode >= 200 && p.StatusCode < 400 {
			ok++
		}
		if p.CanonicalURL != "" {
			canonical++
		}
	}
	total := float64(len(pages))
	score := float64(ok)/total*70 + float64(canonical)/total*20

	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			score -= 20
		case SeverityHigh:
			score -= 10
		case SeverityMedium:
			score -= 5
		case SeverityLow:
			score -= 2
		}
	}
	return clampScore(score)
}
