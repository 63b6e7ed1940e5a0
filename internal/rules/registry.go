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
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry holds validated rules keyed by ID. Safe for concurrent reads
// after loading.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]*Rule
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]*Rule)}
}

// Register validates and adds a rule. Re-registering an ID replaces the
// previous definition.
func (r *Registry) Register(rule *Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.rules[rule.ID] = rule
	r.mu.Unlock()
	return nil
}

// LoadDir walks dir recursively and loads every .json file. A file may
// contain a single rule object or an array of rules. Disabled rules are
// registered but excluded from Enabled().
func (r *Registry) LoadDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read rule file %s: %w", path, err)
		}
		loaded, err := parseRuleFile(data)
		if err != nil {
			return fmt.Errorf("failed to parse rule file %s: %w", path, err)
		}
		for _, rule := range loaded {
			if err := r.Register(rule); err != nil {
				return fmt.Errorf("invalid rule in %s: %w", path, err)
			}
		}
		return nil
	})
}

func parseRuleFile(data []byte) ([]*Rule, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []*Rule
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var single Rule
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	return []*Rule{&single}, nil
}

// Get returns the rule for id, or nil.
func (r *Registry) Get(id string) *Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rules[id]
}

// Len returns the number of registered rules, disabled ones included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Enabled returns all enabled rules sorted by ID.
func (r *Registry) Enabled() []*Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		if rule.IsEnabled() {
			out = append(out, rule)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EnabledByCategory returns enabled rules for one category, sorted by ID.
func (r *Registry) EnabledByCategory(category string) []*Rule {
	all := r.Enabled()
	out := all[:0:0]
	for _, rule := range all {
		if rule.Category == category {
			out = append(out, rule)
		}
	}
	return out
}
