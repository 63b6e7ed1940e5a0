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

import "testing"

func TestCalculateCategoryScore(t *testing.T) {
	if got := CalculateCategoryScore(nil, 0, 100); got != 100 {
		t.Errorf("no checks should score 100, got %v", got)
	}
	if got := CalculateCategoryScore(nil, 10, 100); got != 100 {
		t.Errorf("no issues should score 100, got %v", got)
	}

	// One critical issue on every page over 10 checks: penalty 25,
	// maxPenalty 510 (combined tier weight 51 per check), score 95.1.
	issues := []IssueStat{{Severity: SeverityCritical, AffectedPages: 100}}
	if got := CalculateCategoryScore(issues, 10, 100); got != 95.1 {
		t.Errorf("full-coverage critical = %v, want 95.1", got)
	}

	// Same issue touching a single page costs roughly half the weight.
	issues = []IssueStat{{Severity: SeverityCritical, AffectedPages: 1}}
	got := CalculateCategoryScore(issues, 10, 100)
	if got <= 95.1 || got >= 100 {
		t.Errorf("single-page critical = %v, want in (95.1, 100)", got)
	}

	// Check count is capped at 10 when normalizing.
	capped := CalculateCategoryScore(issues, 50, 100)
	if capped != got {
		t.Errorf("check cap: got %v with 50 checks, %v with 10", capped, got)
	}

	// Heavy damage clamps at zero.
	many := make([]IssueStat, 20)
	for i := range many {
		many[i] = IssueStat{Severity: SeverityCritical, AffectedPages: 100}
	}
	if got := CalculateCategoryScore(many, 5, 100); got != 0 {
		t.Errorf("overwhelming issues should clamp to 0, got %v", got)
	}

	// Zero pages is treated as one, no division blowup.
	issues = []IssueStat{{Severity: SeverityLow, AffectedPages: 0}}
	if got := CalculateCategoryScore(issues, 10, 0); got <= 0 || got > 100 {
		t.Errorf("zero pages score out of range: %v", got)
	}

	// Info severity carries no weight.
	issues = []IssueStat{{Severity: SeverityInfo, AffectedPages: 100}}
	if got := CalculateCategoryScore(issues, 10, 100); got != 100 {
		t.Errorf("info issues should not deduct, got %v", got)
	}
}

func TestCalculateImpactScore(t *testing.T) {
	// Critical at full coverage keeps the full base.
	if got := CalculateImpactScore(80, SeverityCritical, 100, 100); got != 80 {
		t.Errorf("critical full coverage = %v, want 80", got)
	}
	// Zero coverage floors at 30% of the severity-scaled base.
	if got := CalculateImpactScore(80, SeverityCritical, 0, 100); got != 24 {
		t.Errorf("critical zero coverage = %v, want 24", got)
	}
	// High severity takes a 0.75 multiplier.
	if got := CalculateImpactScore(80, SeverityHigh, 100, 100); got != 60 {
		t.Errorf("high full coverage = %v, want 60", got)
	}
	// Unknown severity falls back to the medium multiplier.
	if got := CalculateImpactScore(80, "mystery", 100, 100); got != 40 {
		t.Errorf("unknown severity = %v, want 40", got)
	}
	// Info scores zero regardless.
	if got := CalculateImpactScore(80, SeverityInfo, 100, 100); got != 0 {
		t.Errorf("info = %v, want 0", got)
	}
	// Coverage beyond the page count is clamped.
	if got := CalculateImpactScore(80, SeverityCritical, 500, 100); got != 80 {
		t.Errorf("over-coverage = %v, want 80", got)
	}
	// Result is capped at 100.
	if got := CalculateImpactScore(200, SeverityCritical, 100, 100); got != 100 {
		t.Errorf("cap = %v, want 100", got)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(3.14159); got != 3.14 {
		t.Errorf("Round2(3.14159) = %v", got)
	}
	if got := Round2(2.676); got != 2.68 {
		t.Errorf("Round2(2.676) = %v", got)
	}
	if got := Round2(100); got != 100 {
		t.Errorf("Round2(100) = %v", got)
	}
}
