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
	"github.com/agentberlin/bluefin/internal/rules"
)

func contentRegistry(t *testing.T) *rules.Registry {
	t.Helper()
	reg := rules.NewRegistry()
	defs := []*rules.Rule{
		{
			ID:       "content-missing-og-image",
			Name:     "Missing Open Graph image",
			Category: "content",
			Severity: rules.SeverityMedium,
			Conditions: []rules.Condition{
				{Field: "meta.og:image", Operator: "not_exists"},
			},
			ImpactScore: 40,
			EffortScore: 2,
		},
		{
			ID:       "content-shallow-thin",
			Name:     "Thin content near the root",
			Category: "content",
			Severity: rules.SeverityHigh,
			Conditions: []rules.Condition{
				{Field: "word_count", Operator: "lt", Value: 300},
				{Field: "depth", Operator: "lte", Value: 1},
			},
		},
		{
			ID:       "technical-other-category",
			Name:     "Different category, must not run here",
			Category: "technical",
			Severity: rules.SeverityLow,
			Conditions: []rules.Condition{
				{Field: "url", Operator: "exists"},
			},
		},
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			t.Fatal(err)
		}
	}
	return reg
}

func TestRulesEngineFiresPerCategory(t *testing.T) {
	site := siteOf(
		htmlPage("https://example.com/", func(p *bluefin.PageData) {
			p.Meta["og:image"] = "https://example.com/cover.png"
		}),
		htmlPage("https://example.com/thin", func(p *bluefin.PageData) {
			p.WordCount = 150
			p.Depth = 1
		}),
		htmlPage("https://example.com/deep-thin", func(p *bluefin.PageData) {
			p.WordCount = 150
			p.Depth = 3
		}),
	)
	engine := NewRulesEngine("content-rules", CategoryContent, contentRegistry(t))
	if engine.Name() != "content-rules" {
		t.Errorf("Name = %q", engine.Name())
	}

	result, err := engine.Analyze(context.Background(), site)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != StatusSuccess {
		t.Errorf("Status = %q", result.Status)
	}
	if got := result.Metadata["rules_evaluated"]; got != 2 {
		t.Errorf("rules_evaluated = %v, want 2 (other categories excluded)", got)
	}

	og := findIssue(result, "content-missing-og-image")
	if og == nil || og.AffectedCount != 2 {
		t.Fatalf("content-missing-og-image = %+v", og)
	}

	thin := findIssue(result, "content-shallow-thin")
	if thin == nil || thin.AffectedCount != 1 {
		t.Fatalf("content-shallow-thin = %+v", thin)
	}
	if thin.AffectedURLs[0] != "https://example.com/thin" {
		t.Errorf("shallow thin URLs = %v", thin.AffectedURLs)
	}
	// Validation defaults carry through to the issue.
	if thin.ImpactScore == 0 || thin.EffortScore != 5 {
		t.Errorf("defaults not applied: impact=%v effort=%d", thin.ImpactScore, thin.EffortScore)
	}

	if findIssue(result, "technical-other-category") != nil {
		t.Error("rule from another category should not run")
	}
}

func TestRulesEngineNoRulesFired(t *testing.T) {
	site := siteOf(htmlPage("https://example.com/", func(p *bluefin.PageData) {
		p.Meta["og:image"] = "https://example.com/cover.png"
	}))
	result, err := NewRulesEngine("content-rules", CategoryContent, contentRegistry(t)).
		Analyze(context.Background(), site)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Issues) != 0 {
		t.Errorf("unexpected issues: %v", issueIDs(result))
	}
	if result.Score != 100 {
		t.Errorf("Score = %v, want 100", result.Score)
	}
}

func TestRulesEngineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRulesEngine("content-rules", CategoryContent, contentRegistry(t)).
		Analyze(ctx, siteOf(htmlPage("https://example.com/")))
	if err == nil {
		t.Error("cancelled context should abort the run")
	}
}
