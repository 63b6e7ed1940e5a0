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

	"github.com/agentberlin/bluefin"
	"github.com/agentberlin/bluefin/internal/rules"
)

// RulesEngine evaluates user-supplied JSON rules from a rules.Registry
// against every successfully crawled HTML page. Each rule that fires on at
// least one page becomes an issue in the rule's own category; the engine
// reports under the category it was constructed with.
type RulesEngine struct {
	name     string
	category Category
	registry *rules.Registry
}

// NewRulesEngine builds an engine running the registry's enabled rules for
// one category.
func NewRulesEngine(name string, category Category, registry *rules.Registry) *RulesEngine {
	return &RulesEngine{name: name, category: category, registry: registry}
}

func (e *RulesEngine) Name() string       { return e.name }
func (e *RulesEngine) Category() Category { return e.category }

func (e *RulesEngine) Analyze(ctx context.Context, site *bluefin.CrawlResult) (*Result, error) {
	var pages []*bluefin.PageData
	for _, p := range site.Pages {
		if p.StatusCode == 200 && p.IsHTML() {
			pages = append(pages, p)
		}
	}
	active := e.registry.EnabledByCategory(string(e.category))
	issues := []Issue{}

	for _, rule := range active {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var affected []string
		for _, p := range pages {
			if rules.Evaluate(rule, p.RuleInput()) {
				affected = append(affected, p.URL)
			}
		}
		n := len(affected)
		if n == 0 {
			continue
		}
		issues = append(issues, Issue{
			ID:               rule.ID,
			Name:             rule.Name,
			Description:      rule.Description,
			Category:         Category(rule.Category),
			Severity:         Severity(rule.Severity),
			AffectedURLs:     capURLs(affected),
			AffectedCount:    n,
			ImpactScore:      rules.CalculateImpactScore(rule.ImpactScore, rule.Severity, n, max(1, len(pages))),
			EffortScore:      rule.EffortScore,
			Recommendation:   rule.Recommendation,
			DocumentationURL: rule.DocumentationURL,
			Metadata:         rule.Metadata,
		})
	}

	score := rules.CalculateCategoryScore(issueStats(issues), len(active), len(pages))
	return &Result{
		Engine:   e.name,
		Category: e.category,
		Status:   StatusSuccess,
		Score:    score,
		Issues:   issues,
		Metadata: map[string]any{
			"rules_evaluated": len(active),
			"rules_fired":     len(issues),
		},
	}, nil
}
