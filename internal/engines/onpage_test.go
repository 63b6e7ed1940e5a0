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
	"reflect"
	"strings"
	"testing"

	"github.com/agentberlin/bluefin"
)

func analyzeOnPage(t *testing.T, site *bluefin.CrawlResult) *Result {
	t.Helper()
	result, err := NewOnPageEngine().Analyze(context.Background(), site)
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func TestOnPageEngineCleanSite(t *testing.T) {
	site := siteOf(
		htmlPage("https://example.com/"),
		htmlPage("https://example.com/about", func(p *bluefin.PageData) {
			p.Meta["title"] = "About Our Company And What We Do"
			p.Meta["description"] = "Everything about the company, the people behind it, and the problems we spend our days solving for customers."
		}),
	)
	result := analyzeOnPage(t, site)
	if len(result.Issues) != 0 {
		t.Errorf("clean site produced issues: %v", issueIDs(result))
	}
	if result.Score != 100 {
		t.Errorf("Score = %v, want 100", result.Score)
	}
	if got := result.Metadata["unique_titles"]; got != 2 {
		t.Errorf("unique_titles = %v", got)
	}
}

func TestOnPageEngineTitleChecks(t *testing.T) {
	site := siteOf(
		htmlPage("https://example.com/none", func(p *bluefin.PageData) {
			p.Meta["title"] = "  "
		}),
		htmlPage("https://example.com/short", func(p *bluefin.PageData) {
			p.Meta["title"] = "Tiny"
		}),
		htmlPage("https://example.com/long", func(p *bluefin.PageData) {
			p.Meta["title"] = strings.Repeat("Very Long Title ", 6)
		}),
		htmlPage("https://example.com/dup-a", func(p *bluefin.PageData) {
			p.Meta["title"] = "The Same Title On Two Different Pages"
		}),
		htmlPage("https://example.com/dup-b", func(p *bluefin.PageData) {
			p.Meta["title"] = "The Same Title On Two Different Pages"
		}),
	)
	result := analyzeOnPage(t, site)

	missing := findIssue(result, "onpage-missing-title")
	if missing == nil || missing.AffectedCount != 1 {
		t.Fatalf("onpage-missing-title = %+v", missing)
	}
	if missing.Severity != SeverityCritical {
		t.Errorf("missing title severity = %q", missing.Severity)
	}
	if issue := findIssue(result, "onpage-short-title"); issue == nil || issue.AffectedCount != 1 {
		t.Errorf("onpage-short-title = %+v", issue)
	}
	if issue := findIssue(result, "onpage-long-title"); issue == nil || issue.AffectedCount != 1 {
		t.Errorf("onpage-long-title = %+v", issue)
	}

	dup := findIssue(result, "onpage-duplicate-title")
	if dup == nil || dup.AffectedCount != 2 {
		t.Fatalf("onpage-duplicate-title = %+v", dup)
	}
	groups, ok := dup.Metadata["duplicates"].(map[string]int)
	if !ok || groups["The Same Title On Two Different Pages"] != 2 {
		t.Errorf("duplicate groups = %v", dup.Metadata["duplicates"])
	}
}

func TestOnPageEngineDuplicateReportingIsStable(t *testing.T) {
	// Many duplicate groups so map iteration order would show through if the
	// grouping ever stopped following crawl order.
	var pages []*bluefin.PageData
	for i := 0; i < 30; i++ {
		title := fmt.Sprintf("Shared Title Variant Number %d", i%15)
		url := fmt.Sprintf("https://example.com/page-%d", i)
		pages = append(pages, htmlPage(url, func(p *bluefin.PageData) {
			p.Meta["title"] = title
		}))
	}
	site := siteOf(pages...)

	first := analyzeOnPage(t, site)
	for run := 0; run < 5; run++ {
		again := analyzeOnPage(t, site)
		if !reflect.DeepEqual(first.Issues, again.Issues) {
			t.Fatalf("issues differ between runs:\n%+v\n%+v", first.Issues, again.Issues)
		}
	}

	dup := findIssue(first, "onpage-duplicate-title")
	if dup == nil {
		t.Fatal("onpage-duplicate-title missing")
	}
	if dup.AffectedURLs[0] != "https://example.com/page-0" {
		t.Errorf("first affected URL = %q, want crawl order", dup.AffectedURLs[0])
	}
}

func TestOnPageEngineDescriptionAndHeadings(t *testing.T) {
	site := siteOf(
		htmlPage("https://example.com/no-desc", func(p *bluefin.PageData) {
			delete(p.Meta, "description")
		}),
		htmlPage("https://example.com/no-h1", func(p *bluefin.PageData) {
			p.H1Count = 0
		}),
		htmlPage("https://example.com/two-h1", func(p *bluefin.PageData) {
			p.H1Count = 2
		}),
	)
	result := analyzeOnPage(t, site)

	if issue := findIssue(result, "onpage-missing-meta-description"); issue == nil || issue.AffectedCount != 1 {
		t.Errorf("onpage-missing-meta-description = %+v", issue)
	}
	if issue := findIssue(result, "onpage-missing-h1"); issue == nil || issue.AffectedCount != 1 {
		t.Errorf("onpage-missing-h1 = %+v", issue)
	}
	if issue := findIssue(result, "onpage-multiple-h1"); issue == nil || issue.AffectedCount != 1 {
		t.Errorf("onpage-multiple-h1 = %+v", issue)
	}
}

func TestOnPageEngineDuplicateDescriptions(t *testing.T) {
	shared := "One description reused across several pages, which wastes the snippet opportunity each page would otherwise have."
	site := siteOf(
		htmlPage("https://example.com/a", func(p *bluefin.PageData) { p.Meta["description"] = shared }),
		htmlPage("https://example.com/b", func(p *bluefin.PageData) { p.Meta["description"] = shared }),
		htmlPage("https://example.com/c"),
	)
	result := analyzeOnPage(t, site)
	issue := findIssue(result, "onpage-duplicate-meta-description")
	if issue == nil || issue.AffectedCount != 2 {
		t.Fatalf("onpage-duplicate-meta-description = %+v", issue)
	}
}

func TestOnPageEngineContentAndURLChecks(t *testing.T) {
	site := siteOf(
		htmlPage("https://example.com/thin", func(p *bluefin.PageData) {
			p.WordCount = 120
		}),
		// Zero word count is still thin: extraction found no text at all.
		htmlPage("https://example.com/empty", func(p *bluefin.PageData) {
			p.WordCount = 0
		}),
		htmlPage("https://example.com/alt", func(p *bluefin.PageData) {
			p.Images = []bluefin.ImageInfo{
				{Src: "/a.png", Alt: "described"},
				{Src: "/b.png"},
				{Src: "/c.png"},
			}
		}),
		htmlPage("https://example.com/"+strings.Repeat("long-segment/", 10)),
		htmlPage("https://example.com/MixedCase/Path"),
	)
	result := analyzeOnPage(t, site)

	if issue := findIssue(result, "onpage-thin-content"); issue == nil || issue.AffectedCount != 2 {
		t.Errorf("onpage-thin-content = %+v", issue)
	}

	alt := findIssue(result, "onpage-missing-alt-text")
	if alt == nil || alt.AffectedCount != 1 {
		t.Fatalf("onpage-missing-alt-text = %+v", alt)
	}
	if got := alt.Metadata["total_images_missing_alt"]; got != 2 {
		t.Errorf("total_images_missing_alt = %v, want 2", got)
	}

	if issue := findIssue(result, "onpage-long-urls"); issue == nil || issue.AffectedCount != 1 {
		t.Errorf("onpage-long-urls = %+v", issue)
	}
	upper := findIssue(result, "onpage-uppercase-urls")
	if upper == nil || upper.AffectedCount != 1 {
		t.Fatalf("onpage-uppercase-urls = %+v", upper)
	}
	if upper.ImpactScore != 20 {
		t.Errorf("uppercase ImpactScore = %v, want 20", upper.ImpactScore)
	}
}

func TestOnPageEngineSkipsNonHTMLAndErrors(t *testing.T) {
	site := siteOf(
		htmlPage("https://example.com/missing-everything", func(p *bluefin.PageData) {
			p.StatusCode = 404
			p.Meta = map[string]string{}
			p.H1Count = 0
		}),
		htmlPage("https://example.com/feed.xml", func(p *bluefin.PageData) {
			p.ContentType = "application/xml"
			p.Meta = map[string]string{}
			p.H1Count = 0
		}),
	)
	result := analyzeOnPage(t, site)
	if len(result.Issues) != 0 {
		t.Errorf("non-HTML and error pages should be ignored, got %v", issueIDs(result))
	}
}

func TestOnPageEngineMetadataAverages(t *testing.T) {
	site := siteOf(
		htmlPage("https://example.com/a", func(p *bluefin.PageData) {
			p.Meta["title"] = strings.Repeat("t", 40)
			p.WordCount = 400
		}),
		htmlPage("https://example.com/b", func(p *bluefin.PageData) {
			p.Meta["title"] = strings.Repeat("s", 50)
			p.WordCount = 600
		}),
	)
	result := analyzeOnPage(t, site)
	if got := result.Metadata["avg_title_length"]; got != 45.0 {
		t.Errorf("avg_title_length = %v, want 45", got)
	}
	if got := result.Metadata["avg_word_count"]; got != 500.0 {
		t.Errorf("avg_word_count = %v, want 500", got)
	}
}
