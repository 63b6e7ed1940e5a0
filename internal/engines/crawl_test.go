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
	"testing"

	"github.com/agentberlin/bluefin"
)

func TestCrawlEngineCleanSite(t *testing.T) {
	site := siteOf(
		htmlPage("https://example.com/"),
		htmlPage("https://example.com/about"),
	)
	result, err := NewCrawlEngine().Analyze(context.Background(), site)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != StatusSuccess {
		t.Errorf("Status = %q", result.Status)
	}
	if len(result.Issues) != 0 {
		t.Errorf("clean site produced issues: %v", issueIDs(result))
	}
	// All pages successful with canonicals: 70 + 20.
	if result.Score != 90 {
		t.Errorf("Score = %v, want 90", result.Score)
	}
}

func TestCrawlEngineErrorPages(t *testing.T) {
	site := siteOf(
		htmlPage("https://example.com/"),
		htmlPage("https://example.com/gone", func(p *bluefin.PageData) {
			p.StatusCode = 404
		}),
		htmlPage("https://example.com/broken", func(p *bluefin.PageData) {
			p.StatusCode = 500
		}),
	)
	result, err := NewCrawlEngine().Analyze(context.Background(), site)
	if err != nil {
		t.Fatal(err)
	}
	if issue := findIssue(result, "crawl-4xx-pages"); issue == nil {
		t.Error("expected crawl-4xx-pages")
	} else {
		if issue.AffectedCount != 1 {
			t.Errorf("4xx AffectedCount = %d", issue.AffectedCount)
		}
		if issue.Severity != SeverityHigh {
			t.Errorf("4xx Severity = %q", issue.Severity)
		}
		if issue.ImpactScore != 2 {
			t.Errorf("4xx ImpactScore = %v, want 2", issue.ImpactScore)
		}
	}
	if issue := findIssue(result, "crawl-5xx-pages"); issue == nil {
		t.Error("expected crawl-5xx-pages")
	} else if issue.Severity != SeverityCritical {
		t.Errorf("5xx Severity = %q", issue.Severity)
	}
}

func TestCrawlEngineCanonicalChecks(t *testing.T) {
	site := siteOf(
		htmlPage("https://example.com/no-canonical", func(p *bluefin.PageData) {
			p.CanonicalURL = ""
		}),
		htmlPage("https://example.com/mismatch", func(p *bluefin.PageData) {
			p.CanonicalURL = "https://example.com/other"
		}),
		htmlPage("https://example.com/fine"),
	)
	result, err := NewCrawlEngine().Analyze(context.Background(), site)
	if err != nil {
		t.Fatal(err)
	}
	missing := findIssue(result, "crawl-missing-canonical")
	if missing == nil || missing.AffectedCount != 1 {
		t.Errorf("crawl-missing-canonical = %+v", missing)
	}
	mismatch := findIssue(result, "crawl-canonical-mismatch")
	if mismatch == nil || mismatch.AffectedCount != 1 {
		t.Errorf("crawl-canonical-mismatch = %+v", mismatch)
	}
	if mismatch != nil && mismatch.AffectedURLs[0] != "https://example.com/mismatch" {
		t.Errorf("mismatch URLs = %v", mismatch.AffectedURLs)
	}
}

func TestCrawlEngineDuplicatesAndSlowPages(t *testing.T) {
	site := siteOf(
		htmlPage("https://example.com/"),
		htmlPage("https://example.com/copy", func(p *bluefin.PageData) {
			p.Meta["is_duplicate_content"] = "true"
		}),
		htmlPage("https://example.com/slow", func(p *bluefin.PageData) {
			p.LoadTimeMs = 6200
		}),
		// Slow error pages are counted under the error check only.
		htmlPage("https://example.com/slow-404", func(p *bluefin.PageData) {
			p.StatusCode = 404
			p.LoadTimeMs = 9000
		}),
	)
	result, err := NewCrawlEngine().Analyze(context.Background(), site)
	if err != nil {
		t.Fatal(err)
	}
	if issue := findIssue(result, "crawl-duplicate-content"); issue == nil || issue.AffectedCount != 1 {
		t.Errorf("crawl-duplicate-content = %+v", issue)
	}
	slow := findIssue(result, "crawl-slow-pages")
	if slow == nil || slow.AffectedCount != 1 {
		t.Fatalf("crawl-slow-pages = %+v", slow)
	}
	if slow.AffectedURLs[0] != "https://example.com/slow" {
		t.Errorf("slow URLs = %v", slow.AffectedURLs)
	}
}

func TestCrawlEngineEmptySite(t *testing.T) {
	result, err := NewCrawlEngine().Analyze(context.Background(), siteOf())
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != 0 {
		t.Errorf("empty crawl score = %v, want 0", result.Score)
	}
}

func TestCrawlEngineAffectedURLsCapped(t *testing.T) {
	var pages []*bluefin.PageData
	for i := 0; i < 80; i++ {
		pages = append(pages, htmlPage("https://example.com/missing", func(p *bluefin.PageData) {
			p.StatusCode = 404
		}))
	}
	result, err := NewCrawlEngine().Analyze(context.Background(), siteOf(pages...))
	if err != nil {
		t.Fatal(err)
	}
	issue := findIssue(result, "crawl-4xx-pages")
	if issue == nil {
		t.Fatal("expected crawl-4xx-pages")
	}
	if len(issue.AffectedURLs) != 50 {
		t.Errorf("AffectedURLs sample = %d, want 50", len(issue.AffectedURLs))
	}
	if issue.AffectedCount != 80 {
		t.Errorf("AffectedCount = %d, want 80", issue.AffectedCount)
	}
	if issue.ImpactScore != 100 {
		t.Errorf("ImpactScore = %v, want capped at 100", issue.ImpactScore)
	}
}
