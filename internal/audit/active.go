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

package audit

import (
	"context"
	"fmt"
	"sync"
)

// activeAudit tracks one in-flight audit.
type activeAudit struct {
	auditID uint
	siteID  uint
	domain  string
	url     string
	cancel  context.CancelFunc

	mu           sync.RWMutex
	pagesCrawled int64
}

// Progress is a live view of one running audit.
type Progress struct {
	AuditID      uint   `json:"audit_id"`
	SiteID       uint   `json:"site_id"`
	Domain       string `json:"domain"`
	URL          string `json:"url"`
	PagesCrawled int64  `json:"pages_crawled"`
}

func (a *App) registerAudit(ac *activeAudit) {
	a.activeMu.Lock()
	a.activeAudits[ac.auditID] = ac
	a.activeMu.Unlock()
}

func (a *App) unregisterAudit(auditID uint) {
	a.activeMu.Lock()
	delete(a.activeAudits, auditID)
	a.activeMu.Unlock()
}

func (a *App) setAuditProgress(auditID uint, pagesCrawled int64) {
	a.activeMu.RLock()
	ac := a.activeAudits[auditID]
	a.activeMu.RUnlock()
	if ac == nil {
		return
	}
	ac.mu.Lock()
	ac.pagesCrawled = pagesCrawled
	ac.mu.Unlock()
}

func (a *App) isSiteAuditActive(siteID uint) bool {
	a.activeMu.RLock()
	defer a.activeMu.RUnlock()
	for _, ac := range a.activeAudits {
		if ac.siteID == siteID {
			return true
		}
	}
	return false
}

// GetActiveAudits returns the progress of all running audits
func (a *App) GetActiveAudits() []Progress {
	a.activeMu.RLock()
	defer a.activeMu.RUnlock()

	progress := make([]Progress, 0, len(a.activeAudits))
	for _, ac := range a.activeAudits {
		ac.mu.RLock()
		progress = append(progress, Progress{
			AuditID:      ac.auditID,
			SiteID:       ac.siteID,
			Domain:       ac.domain,
			URL:          ac.url,
			PagesCrawled: ac.pagesCrawled,
		})
		ac.mu.RUnlock()
	}
	return progress
}

// StopAudit cancels a running audit. The audit is marked failed with a
// stopped message by its own goroutine.
func (a *App) StopAudit(auditID uint) error {
	a.activeMu.RLock()
	ac, exists := a.activeAudits[auditID]
	a.activeMu.RUnlock()
	if !exists {
		return fmt.Errorf("no active audit with id %d", auditID)
	}
	ac.cancel()
	return nil
}
