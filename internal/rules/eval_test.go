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

func TestOperators(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		field    any
		value    any
		expected bool
	}{
		{"eq strings", "eq", "hello", "hello", true},
		{"eq numeric coercion", "eq", 42, "42", true},
		{"eq float int", "eq", 3.0, 3, true},
		{"eq mismatch", "eq", "a", "b", false},
		{"ne", "ne", "a", "b", true},
		{"ne equal", "ne", 5, 5.0, false},
		{"lt", "lt", 3, 5, true},
		{"lt string number", "lt", "3", 5, true},
		{"lt not", "lt", 5, 3, false},
		{"lt non-numeric", "lt", "abc", 5, false},
		{"lt nil field is false", "lt", nil, 5, false},
		{"gt", "gt", 10, 5, true},
		{"gt nil field is false", "gt", nil, -1, false},
		{"gte nil field is false", "gte", nil, 0, false},
		{"lte equal", "lte", 5, 5, true},
		{"gte equal", "gte", 5, 5, true},
		{"contains string", "contains", "hello world", "world", true},
		{"contains empty field is false", "contains", "", "x", false},
		{"contains nil field is false", "contains", nil, "x", false},
		{"contains slice", "contains", []any{"a", "b"}, "b", true},
		{"contains string slice", "contains", []string{"a", "b"}, "a", true},
		{"contains map key", "contains", map[string]any{"k": 1}, "k", true},
		{"not_contains", "not_contains", "hello", "x", true},
		{"not_contains empty field is true", "not_contains", "", "x", true},
		{"not_contains nil field is true", "not_contains", nil, "x", true},
		{"matches", "matches", "page-12", `^page-\d+$`, true},
		{"matches empty string is false", "matches", "", ".*", false},
		{"matches nil is false", "matches", nil, ".*", false},
		{"matches bad regexp", "matches", "abc", "(", false},
		{"not_matches", "not_matches", "abc", `^\d+$`, true},
		{"not_matches empty string is true", "not_matches", "", ".*", true},
		{"exists string", "exists", "x", nil, true},
		{"exists empty string", "exists", "", nil, false},
		{"exists zero", "exists", 0, nil, false},
		{"exists false", "exists", false, nil, false},
		{"exists empty slice", "exists", []any{}, nil, false},
		{"exists nonempty slice", "exists", []any{1}, nil, true},
		{"not_exists nil", "not_exists", nil, nil, true},
		{"in", "in", "b", []any{"a", "b"}, true},
		{"in numeric", "in", 2, []any{1.0, 2.0}, true},
		{"in string slice", "in", "a", []string{"a"}, true},
		{"in miss", "in", "z", []any{"a"}, false},
		{"not_in", "not_in", "z", []any{"a"}, true},
		{"length_lt", "length_lt", "abc", 5, true},
		{"length_lt not", "length_lt", "abcdef", 5, false},
		{"length_lt falsy field is true", "length_lt", "", 5, true},
		{"length_lt nil is true", "length_lt", nil, 5, true},
		{"length_gt", "length_gt", "abcdef", 5, true},
		{"length_gt falsy field is false", "length_gt", "", 0, false},
		{"length_gt nil is false", "length_gt", nil, 0, false},
		{"length_eq", "length_eq", "abc", 3, true},
		{"length_eq falsy vs zero", "length_eq", "", 0, true},
		{"length_eq falsy vs nonzero", "length_eq", nil, 3, false},
		{"length_eq slice", "length_eq", []string{"a", "b"}, 2, true},
		{"starts_with", "starts_with", "https://a.com", "https://", true},
		{"ends_with", "ends_with", "photo.jpg", ".jpg", true},
		{"ends_with not", "ends_with", "photo.jpg", ".png", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, ok := operators[tt.op]
			if !ok {
				t.Fatalf("operator %q not registered", tt.op)
			}
			if got := op(tt.field, tt.value); got != tt.expected {
				t.Errorf("%s(%v, %v) = %v, want %v", tt.op, tt.field, tt.value, got, tt.expected)
			}
		})
	}
}

func TestTransforms(t *testing.T) {
	tests := []struct {
		name     string
		tr       string
		in       any
		expected any
	}{
		{"len string", "len", "abcd", 4},
		{"len slice", "len", []any{1, 2}, 2},
		{"len nil", "len", nil, 0},
		{"count", "count", []string{"a", "b", "c"}, 3},
		{"lower", "lower", "ABC", "abc"},
		{"upper", "upper", "abc", "ABC"},
		{"strip", "strip", "  hi  ", "hi"},
		{"bool truthy", "bool", "x", true},
		{"bool falsy", "bool", 0, false},
		{"int from string", "int", "42", 42},
		{"int from float", "int", 3.9, 3},
		{"int invalid", "int", "abc", 0},
		{"float", "float", "2.5", 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, ok := transforms[tt.tr]
			if !ok {
				t.Fatalf("transform %q not registered", tt.tr)
			}
			if got := fn(tt.in); got != tt.expected {
				t.Errorf("%s(%v) = %v, want %v", tt.tr, tt.in, got, tt.expected)
			}
		})
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"title": "Home",
		"headers": map[string]string{
			"content-type": "text/html",
		},
		"headings": map[string]any{
			"h1": []string{"Welcome"},
		},
		"links": []any{
			map[string]any{"href": "/about"},
			map[string]any{"href": "/contact"},
		},
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"title", "Home"},
		{"headers.content-type", "text/html"},
		{"headings.h1.0", "Welcome"},
		{"links.1.href", "/contact"},
		{"links.5.href", nil},
		{"links.x.href", nil},
		{"missing", nil},
		{"title.nested", nil},
		{"headers.missing", nil},
	}
	for _, tt := range tests {
		if got := GetNestedValue(data, tt.path); got != tt.expected {
			t.Errorf("GetNestedValue(%q) = %v, want %v", tt.path, got, tt.expected)
		}
	}
}

func TestEvaluateConditionLogic(t *testing.T) {
	data := map[string]any{
		"status_code": 200,
		"title":       "",
		"word_count":  150,
	}

	andRule := &Rule{
		ConditionLogic: "AND",
		Conditions: []Condition{
			{Field: "status_code", Operator: "eq", Value: 200},
			{Field: "title", Operator: "not_exists"},
		},
	}
	if !Evaluate(andRule, data) {
		t.Error("AND rule with all true conditions should fire")
	}

	andRule.Conditions[1] = Condition{Field: "title", Operator: "exists"}
	if Evaluate(andRule, data) {
		t.Error("AND rule with one false condition should not fire")
	}

	orRule := &Rule{
		ConditionLogic: "OR",
		Conditions: []Condition{
			{Field: "title", Operator: "exists"},
			{Field: "word_count", Operator: "lt", Value: 300},
		},
	}
	if !Evaluate(orRule, data) {
		t.Error("OR rule with one true condition should fire")
	}

	orRule.Conditions[1] = Condition{Field: "word_count", Operator: "gt", Value: 300}
	if Evaluate(orRule, data) {
		t.Error("OR rule with no true conditions should not fire")
	}

	empty := &Rule{ConditionLogic: "AND"}
	if Evaluate(empty, data) {
		t.Error("rule with no conditions should never fire")
	}
}

func TestEvaluateWithTransform(t *testing.T) {
	data := map[string]any{
		"title": "A Very Long Page Title That Goes On",
		"headings": map[string]any{
			"h1": []string{"One", "Two"},
		},
	}

	rule := &Rule{
		ConditionLogic: "AND",
		Conditions: []Condition{
			{Field: "title", Operator: "gt", Value: 20, Transform: "len"},
			{Field: "headings.h1", Operator: "ne", Value: 1, Transform: "count"},
		},
	}
	if !Evaluate(rule, data) {
		t.Error("transformed conditions should evaluate against derived values")
	}

	unknown := &Rule{
		ConditionLogic: "AND",
		Conditions: []Condition{
			{Field: "title", Operator: "bogus_op", Value: 1},
		},
	}
	if Evaluate(unknown, data) {
		t.Error("unknown operator should evaluate false")
	}
}
