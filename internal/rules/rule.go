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

// Package rules implements the declarative SEO rule engine: JSON rule
// definitions evaluated against flattened page data with dot-path field
// access, plus the shared category and impact scoring math used by all
// audit engines.
package rules

import (
	"fmt"
	"regexp"
)

var ruleIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{2,63}$`)

// Severity levels, ordered most to least severe.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)

var validSeverities = map[string]bool{
	SeverityCritical: true,
	SeverityHigh:     true,
	SeverityMedium:   true,
	SeverityLow:      true,
	SeverityInfo:     true,
}

// Condition is a single field check. Value semantics depend on the
// operator; Transform is applied to the field value before comparison.
type Condition struct {
	Field     string `json:"field"`
	Operator  string `json:"operator"`
	Value     any    `json:"value,omitempty"`
	Transform string `json:"transform,omitempty"`
}

// Rule is one declarative SEO check loaded from JSON.
type Rule struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	Category         string         `json:"category"`
	Severity         string         `json:"severity"`
	Conditions       []Condition    `json:"conditions"`
	ConditionLogic   string         `json:"condition_logic,omitempty"`
	ImpactScore      float64        `json:"impact_score,omitempty"`
	EffortScore      int            `json:"effort_score,omitempty"`
	Recommendation   string         `json:"recommendation,omitempty"`
	DocumentationURL string         `json:"documentation_url,omitempty"`
	Enabled          *bool          `json:"enabled,omitempty"`
	AppliesTo        []string       `json:"applies_to,omitempty"`
	Tags             []string       `json:"tags,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// IsEnabled reports whether the rule should run. Rules are enabled unless
// explicitly disabled.
func (r *Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// applyDefaults fills the optional fields left out of the JSON definition.
func (r *Rule) applyDefaults() {
	if r.ConditionLogic == "" {
		r.ConditionLogic = "AND"
	}
	if r.ImpactScore == 0 {
		r.ImpactScore = 50
	}
	if r.EffortScore == 0 {
		r.EffortScore = 5
	}
}

// Validate checks the rule definition and applies defaults.
func (r *Rule) Validate() error {
	if !ruleIDPattern.MatchString(r.ID) {
		return fmt.Errorf("rule id %q: must match %s", r.ID, ruleIDPattern)
	}
	if r.Name == "" {
		return fmt.Errorf("rule %s: name is required", r.ID)
	}
	if r.Category == "" {
		return fmt.Errorf("rule %s: category is required", r.ID)
	}
	if !validSeverities[r.Severity] {
		return fmt.Errorf("rule %s: invalid severity %q", r.ID, r.Severity)
	}
	if len(r.Conditions) == 0 {
		return fmt.Errorf("rule %s: at least one condition is required", r.ID)
	}
	r.applyDefaults()
	if r.ConditionLogic != "AND" && r.ConditionLogic != "OR" {
		return fmt.Errorf("rule %s: condition_logic must be AND or OR, got %q", r.ID, r.ConditionLogic)
	}
	if r.ImpactScore < 0 || r.ImpactScore > 100 {
		return fmt.Errorf("rule %s: impact_score must be in [0,100]", r.ID)
	}
	if r.EffortScore < 1 || r.EffortScore > 10 {
		return fmt.Errorf("rule %s: effort_score must be in [1,10]", r.ID)
	}
	for i, cond := range r.Conditions {
		if cond.Field == "" {
			return fmt.Errorf("rule %s: condition %d: field is required", r.ID, i)
		}
		if _, ok := operators[cond.Operator]; !ok {
			return fmt.Errorf("rule %s: condition %d: unknown operator %q", r.ID, i, cond.Operator)
		}
		if cond.Transform != "" {
			if _, ok := transforms[cond.Transform]; !ok {
				return fmt.Errorf("rule %s: condition %d: unknown transform %q", r.ID, i, cond.Transform)
			}
		}
	}
	return nil
}
