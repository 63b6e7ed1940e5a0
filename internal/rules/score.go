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

package rules

import "math"

// SeverityWeights drive the category score penalty per detected issue.
var SeverityWeights = map[string]float64{
	SeverityCritical: 25,
	SeverityHigh:     15,
	SeverityMedium:   8,
	SeverityLow:      3,
	SeverityInfo:     0,
}

// severityMultipliers scale a rule's base impact by how severe it is.
var severityMultipliers = map[string]float64{
	SeverityCritical: 1.0,
	SeverityHigh:     0.75,
	SeverityMedium:   0.5,
	SeverityLow:      0.25,
	SeverityInfo:     0,
}

// IssueStat is the minimal issue shape the scoring math needs.
type IssueStat struct {
	Severity      string
	AffectedPages int
}

// Round2 rounds to two decimal places. All reported scores use it.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// CalculateCategoryScore produces a 0-100 category health score. Each
// detected issue deducts its severity weight scaled by site coverage: an
// issue touching every page costs its full weight, one touching a single
// page costs half. The deduction is normalized against the combined weight
// of every severity tier per check, with the check count capped at 10 so
// sparse categories are not over-penalized.
func CalculateCategoryScore(issues []IssueStat, totalChecks, totalPages int) float64 {
	if totalChecks == 0 {
		return 100
	}
	pages := float64(totalPages)
	if pages < 1 {
		pages = 1
	}
	penalty := 0.0
	for _, issue := range issues {
		weight := SeverityWeights[issue.Severity]
		coverage := float64(issue.AffectedPages) / pages
		if coverage > 1 {
			coverage = 1
		}
		penalty += weight * (0.5 + 0.5*coverage)
	}
	checks := totalChecks
	if checks > 10 {
		checks = 10
	}
	weightSum := 0.0
	for _, w := range SeverityWeights {
		weightSum += w
	}
	maxPenalty := weightSum * float64(checks)
	if maxPenalty < 1 {
		maxPenalty = 1
	}
	score := 100 - penalty/maxPenalty*100
	if score < 0 {
		score = 0
	}
	return Round2(score)
}

// CalculateImpactScore scales a rule's base impact by severity and by how
// much of the site is affected. Result is in [0,100].
func CalculateImpactScore(baseImpact float64, severity string, affectedPages, totalPages int) float64 {
	mult, ok := severityMultipliers[severity]
	if !ok {
		mult = 0.5
	}
	total := float64(totalPages)
	if total < 1 {
		total = 1
	}
	coverage := float64(affectedPages) / total
	if coverage > 1 {
		coverage = 1
	}
	impact := baseImpact * mult * (0.3 + 0.7*coverage)
	if impact > 100 {
		impact = 100
	}
	return Round2(impact)
}
