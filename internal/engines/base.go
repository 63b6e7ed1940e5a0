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

// Package engines contains the audit analysis engines. Each engine takes
// the crawl output and produces a scored result with a list of detected
// issues for one audit category.
package engines

import (
	"context"
	"fmt"
	"time"

	"github.com/agentberlin/bluefin"
	"github.com/agentberlin/bluefin/internal/rules"
)

// Severity of a detected issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Category an issue or engine belongs to.
type Category string

const (
	CategoryCrawlability  Category = "crawlability"
	CategoryTechnical     Category = "technical"
	CategoryOnPage        Category = "on_page"
	CategoryContent       Category = "content"
	CategoryPerformance   Category = "performance"
	CategoryInternalLinks Category = "internal_links"
	CategorySchema        Category = "schema"
	CategoryAuthority     Category = "authority"
	CategoryCompetitor    Category = "competitor"
	CategoryInternational Category = "international"
	CategoryLocal         Category = "local"
)

// Status of an engine run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// maxAffectedURLs caps the URL sample carried on each issue.
const maxAffectedURLs = 50

// Issue is one detected SEO problem.
type Issue struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	Category         Category       `json:"category"`
	Severity         Severity       `json:"severity"`
	AffectedURLs     []string       `json:"affected_urls,omitempty"`
	AffectedCount    int            `json:"affected_count"`
	ImpactScore      float64        `json:"impact_score"`
	EffortScore      int            `json:"effort_score"`
	Recommendation   string         `json:"recommendation,omitempty"`
	DocumentationURL string         `json:"documentation_url,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Result is the outcome of one engine run.
type Result struct {
	Engine       string         `json:"engine"`
	Category     Category       `json:"category"`
	Status       Status         `json:"status"`
	Score        float64        `json:"score"`
	Grade        string         `json:"grade"`
	Issues       []Issue        `json:"issues"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	DurationMs   int64          `json:"duration_ms"`
}

// Engine analyzes crawl output for one audit category.
type Engine interface {
	Name() string
	Category() Category
	Analyze(ctx context.Context, site *bluefin.CrawlResult) (*Result, error)
}

// Execute runs an engine with timing and failure capture. A returned error
// or panic becomes a FAILED result with score 0 and grade F, never a lost
// audit.
func Execute(ctx context.Context, e Engine, site *bluefin.CrawlResult) *Result {
	start := time.Now()
	result, err := runSafely(ctx, e, site)
	if err != nil {
		result = &Result{
			Engine:       e.Name(),
			Category:     e.Category(),
			Status:       StatusFailed,
			Score:        0,
			Grade:        "F",
			Issues:       []Issue{},
			ErrorMessage: err.Error(),
		}
	}
	result.DurationMs = time.Since(start).Milliseconds()
	if result.Grade == "" {
		result.Grade = Grade(result.Score)
	}
	return result
}

func runSafely(ctx context.Context, e Engine, site *bluefin.CrawlResult) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("engine %s panicked: %v", e.Name(), r)
		}
	}()
	return e.Analyze(ctx, site)
}

// Grade maps a 0-100 score to a letter grade.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 65:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

// clampScore keeps a score inside [0,100] and rounds to two decimals.
func clampScore(score float64) float64 {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return rules.Round2(score)
}

// capURLs trims an affected URL list to the reporting sample size.
func capURLs(urls []string) []string {
	if len(urls) > maxAffectedURLs {
		return urls[:maxAffectedURLs]
	}
	return urls
}

// issueStats converts issues to the shape the category scorer wants.
func issueStats(issues []Issue) []rules.IssueStat {
	stats := make([]rules.IssueStat, len(issues))
	for i, issue := range issues {
		stats[i] = rules.IssueStat{
			Severity:      string(issue.Severity),
			AffectedPages: issue.AffectedCount,
		}
	}
	return stats
}
