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

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// operator compares a (possibly transformed) field value against the rule
// value and reports whether the condition holds.
type operator func(fieldValue, ruleValue any) bool

var operators = map[string]operator{
	"eq":  func(a, b any) bool { return looseEqual(a, b) },
	"ne":  func(a, b any) bool { return !looseEqual(a, b) },
	"lt":  numericCompare(func(a, b float64) bool { return a < b }),
	"gt":  numericCompare(func(a, b float64) bool { return a > b }),
	"lte": numericCompare(func(a, b float64) bool { return a <= b }),
	"gte": numericCompare(func(a, b float64) bool { return a >= b }),
	"contains": func(a, b any) bool {
		if !truthy(a) {
			return false
		}
		return containsValue(a, b)
	},
	"not_contains": func(a, b any) bool {
		if !truthy(a) {
			return true
		}
		return !containsValue(a, b)
	},
	"matches": func(a, b any) bool {
		s := asString(a)
		if s == "" {
			return false
		}
		re, err := regexp.Compile(asString(b))
		if err != nil {
			return false
		}
		return re.MatchString(s)
	},
	"not_matches": func(a, b any) bool {
		s := asString(a)
		if s == "" {
			return true
		}
		re, err := regexp.Compile(asString(b))
		if err != nil {
			return false
		}
		return !re.MatchString(s)
	},
	"exists":     func(a, _ any) bool { return truthy(a) },
	"not_exists": func(a, _ any) bool { return !truthy(a) },
	"in": func(a, b any) bool {
		return memberOf(a, b)
	},
	"not_in": func(a, b any) bool {
		return !memberOf(a, b)
	},
	"length_lt": func(a, b any) bool {
		if !truthy(a) {
			return true
		}
		n, ok := lengthOf(a)
		t, tok := toFloat(b)
		return ok && tok && float64(n) < t
	},
	"length_gt": func(a, b any) bool {
		if !truthy(a) {
			return false
		}
		n, ok := lengthOf(a)
		t, tok := toFloat(b)
		return ok && tok && float64(n) > t
	},
	"length_eq": func(a, b any) bool {
		if !truthy(a) {
			t, tok := toFloat(b)
			return tok && t == 0
		}
		n, ok := lengthOf(a)
		t, tok := toFloat(b)
		return ok && tok && float64(n) == t
	},
	"starts_with": func(a, b any) bool {
		return strings.HasPrefix(asString(a), asString(b))
	},
	"ends_with": func(a, b any) bool {
		return strings.HasSuffix(asString(a), asString(b))
	},
}

// numericCompare builds an operator applying cmp when both sides coerce to
// numbers. A missing field or non-numeric value makes the condition false.
func numericCompare(cmp func(a, b float64) bool) operator {
	return func(a, b any) bool {
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		if !aok || !bok {
			return false
		}
		return cmp(af, bf)
	}
}

// transform mutates a field value before the operator sees it.
type transform func(any) any

var transforms = map[string]transform{
	"len": func(a any) any {
		n, _ := lengthOf(a)
		return n
	},
	"count": func(a any) any {
		n, _ := lengthOf(a)
		return n
	},
	"lower": func(a any) any { return strings.ToLower(asString(a)) },
	"upper": func(a any) any { return strings.ToUpper(asString(a)) },
	"strip": func(a any) any { return strings.TrimSpace(asString(a)) },
	"bool":  func(a any) any { return truthy(a) },
	"int": func(a any) any {
		f, ok := toFloat(a)
		if !ok {
			return 0
		}
		return int(f)
	},
	"float": func(a any) any {
		f, _ := toFloat(a)
		return f
	},
}

// GetNestedValue resolves a dot path against nested maps and slices.
// Integer path segments index into slices. Missing paths return nil.
func GetNestedValue(data any, path string) any {
	current := data
	for _, part := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[part]
			if !ok {
				return nil
			}
			current = next
		case map[string]string:
			next, ok := v[part]
			if !ok {
				return nil
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil
			}
			current = v[idx]
		case []string:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil
			}
			current = v[idx]
		default:
			return nil
		}
	}
	return current
}

// Evaluate runs a rule against one page's flattened data. True means the
// rule fired, i.e. an issue was detected.
func Evaluate(rule *Rule, data map[string]any) bool {
	if len(rule.Conditions) == 0 {
		return false
	}
	results := make([]bool, 0, len(rule.Conditions))
	for _, cond := range rule.Conditions {
		results = append(results, evaluateCondition(&cond, data))
	}
	switch rule.ConditionLogic {
	case "AND":
		for _, r := range results {
			if !r {
				return false
			}
		}
		return true
	case "OR":
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	}
	return false
}

func evaluateCondition(cond *Condition, data map[string]any) bool {
	value := GetNestedValue(data, cond.Field)
	if cond.Transform != "" {
		if fn, ok := transforms[cond.Transform]; ok {
			value = fn(value)
		}
	}
	op, ok := operators[cond.Operator]
	if !ok {
		return false
	}
	return op(value, cond.Value)
}

// ---- value helpers ----

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// truthy mirrors the loose emptiness semantics rule authors expect:
// nil, empty string, zero number, false, and empty collections are falsy.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int, int32, int64, float32, float64:
		f, _ := toFloat(t)
		return f != 0
	}
	if n, ok := lengthOf(v); ok {
		return n > 0
	}
	return true
}

func lengthOf(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return len(s), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

func looseEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
	}
	return reflect.DeepEqual(a, b)
}

// containsValue handles substring checks on strings and membership checks
// on slices and map keys.
func containsValue(haystack, needle any) bool {
	switch h := haystack.(type) {
	case string:
		return strings.Contains(h, asString(needle))
	case []any:
		for _, item := range h {
			if looseEqual(item, needle) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range h {
			if item == asString(needle) {
				return true
			}
		}
		return false
	case map[string]any:
		_, ok := h[asString(needle)]
		return ok
	case map[string]string:
		_, ok := h[asString(needle)]
		return ok
	}
	return false
}

func memberOf(needle, haystack any) bool {
	switch h := haystack.(type) {
	case []any:
		for _, item := range h {
			if looseEqual(needle, item) {
				return true
			}
		}
	case []string:
		for _, item := range h {
			if asString(needle) == item {
				return true
			}
		}
	}
	return false
}
