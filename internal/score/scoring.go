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

// Package score aggregates engine results into the site-wide audit score
// and turns detected issues into a prioritized action plan.
package score

import (
	"math"

	"github.com/agentberlin/bluefin/internal/engines"
	"github.com/agentberlin/bluefin/internal/rules"
)

// expectedEngineCount is the full engine roster a complete audit runs,
// used for the confidence calculation.
const expectedEngineCount = 8

// defaultMonthlyTraffic is assumed when the caller provides no traffic
// estimate.
const defaultMonthlyTraffic = 10000

// CategoryWeights determine each category's share of the overall score.
var CategoryWeights = map[engines.Category]float64{
	engines.CategoryTechnical:     0.20,
	engines.CategoryOnPage:        0.15,
	engines.CategoryContent:       0.15,
	engines.CategoryPerformance:   0.15,
	engines.CategoryCrawlability:  0.15,
	engines.CategoryInternalLinks: 0.10,
	engines.CategorySchema:        0.05,
	engines.CategoryAuthority:     0.05,
}

// revenueLift is the assumed relative traffic recovery from fixing one
// issue of each severity.
var revenueLift = map[engines.Severity]float64{
	engines.SeverityCritical: 0.15,
	engines.SeverityHigh:     0.08,
	engines.SeverityMedium:   0.03,
	engines.SeverityLow:      0.01,
}

// CategoryScore is one category's contribution to the overall score.
type CategoryScore struct {
	Category      engines.Category `json:"category"`
	Score         float64          `json:"score"`
	Grade         string           `json:"grade"`
	IssuesCount   int              `json:"issues_count"`
	CriticalCount int              `json:"critical_count"`
	HighCount     int              `json:"high_count"`
	Weight        float64          `json:"weight"`
}

// IssueSummary counts detected issues by severity.
type IssueSummary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Summary is the site-wide audit scorecard.
type Summary struct {
	OverallScore                  float64         `json:"overall_score"`
	OverallGrade                  string          `json:"overall_grade"`
	ConfidenceScore               float64         `json:"confidence_score"`
	EstimatedMonthlyRevenueImpact float64         `json:"estimated_monthly_revenue_impact"`
	CategoryScores                []CategoryScore `json:"category_scores"`
	IssueSummary                  IssueSummary    `json:"issue_summary"`
	EnginesRun                    int             `json:"engines_run"`
	EnginesSuccessful             int             `json:"engines_successful"`
}

// Compute aggregates engine results into the overall audit score. Failed
// engines and zero-weight categories are excluded from the weighted
// average; their issues still count toward the issue summary when present.
// monthlyTraffic of 0 falls back to the default estimate.
func Compute(results []*engines.Result, totalPages int, monthlyTraffic float64) *Summary {
	if monthlyTraffic <= 0 {
		monthlyTraffic = defaultMonthlyTraffic
	}

	summary := &Summary{EnginesRun: len(results)}
	weightedSum := 0.0
	totalWeight := 0.0

	for _, result := range results {
		if result.Status != engines.StatusFailed {
			summary.EnginesSuccessful++
		}
		cs := CategoryScore{
			Category:    result.Category,
			Score:       result.Score,
			Grade:       result.Grade,
			IssuesCount: len(result.Issues),
			Weight:      CategoryWeights[result.Category],
		}
		for _, issue := range result.Issues {
			summary.IssueSummary.Total++
			switch issue.Severity {
			case engines.SeverityCritical:
				cs.CriticalCount++
				summary.IssueSummary.Critical++
			case engines.SeverityHigh:
				cs.HighCount++
				summary.IssueSummary.High++
			case engines.SeverityMedium:
				summary.IssueSummary.Medium++
			case engines.SeverityLow:
				summary.IssueSummary.Low++
			}
			if result.Status != engines.StatusFailed {
				summary.EstimatedMonthlyRevenueImpact += issueRevenueImpact(issue, monthlyTraffic)
			}
		}
		summary.CategoryScores = append(summary.CategoryScores, cs)

		if result.Status == engines.StatusFailed || cs.Weight == 0 {
			continue
		}
		weightedSum += result.Score * cs.Weight
		totalWeight += cs.Weight
	}

	if totalWeight > 0 {
		summary.OverallScore = rules.Round2(weightedSum / totalWeight)
	}
	summary.OverallGrade = engines.Grade(summary.OverallScore)
	summary.ConfidenceScore = confidence(summary.EnginesSuccessful, totalPages)
	summary.EstimatedMonthlyRevenueImpact = rules.Round2(summary.EstimatedMonthlyRevenueImpact)
	return summary
}

// confidence blends engine coverage (60%) with crawl depth (40%). A full
// engine roster over 1000+ pages scores 100.
func confidence(successful, totalPages int) float64 {
	engineFactor := float64(successful) / expectedEngineCount
	pageFactor := math.Min(1, float64(totalPages)/1000)
	return rules.Round2((engineFactor*0.6 + pageFactor*0.4) * 100)
}

// issueRevenueImpact estimates monthly revenue recovered by fixing one
// issue, assuming a 2% conversion rate at $100 per conversion.
func issueRevenueImpact(issue engines.Issue, monthlyTraffic float64) float64 {
	lift, ok := revenueLift[issue.Severity]
	if !ok {
		return 0
	}
	coverage := math.Min(1, float64(issue.AffectedCount)/1000)
	return monthlyTraffic * lift * coverage * issue.ImpactScore / 100 * 0.02 * 100
}
