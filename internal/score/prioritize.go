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

package score

import (
	"math"
	"sort"

	"github.com/agentberlin/bluefin/internal/engines"
	"github.com/agentberlin/bluefin/internal/rules"
)

// maxRecommendations caps the action plan length.
const maxRecommendations = 50

// trafficPotential estimates relative traffic upside per severity.
var trafficPotential = map[engines.Severity]float64{
	engines.SeverityCritical: 80,
	engines.SeverityHigh:     60,
	engines.SeverityMedium:   35,
	engines.SeverityLow:      15,
	engines.SeverityInfo:     0,
}

var severityScore = map[engines.Severity]float64{
	engines.SeverityCritical: 100,
	engines.SeverityHigh:     75,
	engines.SeverityMedium:   50,
	engines.SeverityLow:      25,
	engines.SeverityInfo:     0,
}

// Recommendation is one prioritized fix in the audit action plan.
type Recommendation struct {
	IssueID                string   `json:"issue_id"`
	PriorityRank           int      `json:"priority_rank"`
	Title                  string   `json:"title"`
	Description            string   `json:"description"`
	Effort                 string   `json:"effort"`
	Impact                 string   `json:"impact"`
	EstimatedTrafficGain   float64  `json:"estimated_traffic_gain"`
	EstimatedRevenueImpact float64  `json:"estimated_revenue_impact"`
	ImplementationSteps    []string `json:"implementation_steps"`
}

// Plan is the prioritized output of an audit.
type Plan struct {
	Recommendations      []Recommendation `json:"recommendations"`
	TotalPrioritized     int              `json:"total_issues_prioritized"`
	QuickWins            int              `json:"quick_wins"`
	HighEffortHighImpact int              `json:"high_effort_high_impact"`
}

// Prioritize ranks issues by a weighted blend of impact (40%), traffic
// potential (25%), ease of implementation (20%), and severity (15%), and
// returns the top recommendations with concrete implementation steps.
func Prioritize(issues []engines.Issue, monthlyTraffic float64) *Plan {
	if monthlyTraffic <= 0 {
		monthlyTraffic = defaultMonthlyTraffic
	}
	plan := &Plan{Recommendations: []Recommendation{}}
	if len(issues) == 0 {
		return plan
	}

	type ranked struct {
		issue    engines.Issue
		priority float64
	}
	rankedIssues := make([]ranked, len(issues))
	for i, issue := range issues {
		p := issue.ImpactScore*0.40 +
			trafficPotential[issue.Severity]*0.25 +
			(10-float64(issue.EffortScore))*10*0.20 +
			severityScore[issue.Severity]*0.15
		rankedIssues[i] = ranked{issue: issue, priority: rules.Round2(p)}
	}
	sort.SliceStable(rankedIssues, func(i, j int) bool {
		if rankedIssues[i].priority != rankedIssues[j].priority {
			return rankedIssues[i].priority > rankedIssues[j].priority
		}
		return rankedIssues[i].issue.ID < rankedIssues[j].issue.ID
	})

	plan.TotalPrioritized = len(rankedIssues)
	for rank, r := range rankedIssues {
		if rank >= maxRecommendations {
			break
		}
		issue := r.issue
		effort := effortLabel(issue.EffortScore)
		impact := impactLabel(issue.ImpactScore)
		if effort == "low" && (impact == "medium" || impact == "high") {
			plan.QuickWins++
		}
		if effort == "high" && impact == "high" {
			plan.HighEffortHighImpact++
		}

		description := issue.Recommendation
		if description == "" {
			description = issue.Description
		}
		trafficGain := math.Round(monthlyTraffic * trafficPotential[issue.Severity] / 100 * issue.ImpactScore / 100)

		plan.Recommendations = append(plan.Recommendations, Recommendation{
			IssueID:                issue.ID,
			PriorityRank:           rank + 1,
			Title:                  issue.Name,
			Description:            description,
			Effort:                 effort,
			Impact:                 impact,
			EstimatedTrafficGain:   trafficGain,
			EstimatedRevenueImpact: rules.Round2(trafficGain * 0.02 * 100),
			ImplementationSteps:    implementationSteps(issue.ID),
		})
	}
	return plan
}

func effortLabel(effort int) string {
	switch {
	case effort <= 3:
		return "low"
	case effort <= 7:
		return "medium"
	default:
		return "high"
	}
}

func impactLabel(impact float64) string {
	switch {
	case impact >= 70:
		return "high"
	case impact >= 40:
		return "medium"
	default:
		return "low"
	}
}

// implementationSteps returns the playbook for well-known issues, or a
// generic remediation sequence.
func implementationSteps(issueID string) []string {
	if steps, ok := issuePlaybooks[issueID]; ok {
		return steps
	}
	return []string{
		"Review the affected URLs listed in the audit report",
		"Implement the recommended fix on the highest-traffic pages first",
		"Validate the fix using Google Search Console or re-crawl",
		"Monitor rankings for affected pages over the next 4-8 weeks",
	}
}

var issuePlaybooks = map[string][]string{
	"onpage-missing-title": {
		"Export the list of pages without a title tag",
		"Draft a unique title for each page using its primary topic",
		"Keep titles between 30 and 60 characters",
		"Place the target keyword near the front of the title",
		"Deploy the titles through your CMS or templates",
		"Re-crawl to confirm every page now has a title",
	},
	"onpage-missing-meta-description": {
		"Export the list of pages without a meta description",
		"Write a 70-160 character description that summarizes each page",
		"Include a call to action where appropriate",
		"Deploy through your CMS or templates",
		"Re-crawl to confirm coverage",
	},
	"tech-http-pages": {
		"Obtain and install a TLS certificate for the domain",
		"Enable HTTPS on the web server",
		"Add 301 redirects from every HTTP URL to its HTTPS equivalent",
		"Update internal links and canonicals to HTTPS",
		"Update the sitemap to list HTTPS URLs",
		"Verify the HTTPS property in Google Search Console",
	},
	"crawl-4xx-pages": {
		"Export the 4xx URLs and identify how each is linked internally",
		"Restore pages that should exist, or 301-redirect them to a replacement",
		"Remove or update internal links pointing at dead URLs",
		"Return 410 for permanently removed content",
		"Re-crawl to confirm the errors are resolved",
	},
	"crawl-duplicate-content": {
		"Group the duplicate URLs by their shared content",
		"Pick one canonical URL per group",
		"Add rel=canonical tags pointing at the chosen URL",
		"301-redirect duplicates that serve no separate purpose",
		"Re-crawl to confirm the duplicates are consolidated",
	},
	"onpage-missing-h1": {
		"Export the list of pages without an H1",
		"Add a single H1 stating the page's main topic",
		"Keep the H1 distinct from the title tag where useful",
		"Re-crawl to confirm every page has exactly one H1",
	},
	"onpage-thin-content": {
		"Export the list of thin pages with their word counts",
		"Decide per page: expand, consolidate, or noindex",
		"Expand kept pages with substantive, original content",
		"Merge overlapping thin pages and redirect the losers",
		"Noindex pages that must exist but add no search value",
		"Re-crawl to confirm word counts improved",
	},
}
