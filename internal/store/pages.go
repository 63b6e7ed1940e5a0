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

package store

import (
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/agentberlin/bluefin"
)

// SavePage upserts one crawled page for an audit
func (s *Store) SavePage(auditID uint, p *bluefin.PageData) error {
	page := Page{
		AuditID:       auditID,
		URL:           p.URL,
		FinalURL:      p.FinalURL,
		CanonicalURL:  p.CanonicalURL,
		StatusCode:    p.StatusCode,
		ContentType:   p.ContentType,
		Title:         p.Meta["title"],
		Depth:         p.Depth,
		DiscoveredVia: p.DiscoveredVia,
		WordCount:     p.WordCount,
		H1Count:       p.H1Count,
		LoadTimeMs:    p.LoadTimeMs,
		PageSizeBytes: p.PageSizeBytes,
		RedirectHops:  p.RedirectHops,
		JSRendered:    p.JSRendered,
		ContentHash:   p.ContentHash,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "audit_id"}, {Name: "url"}},
		UpdateAll: true,
	}).Create(&page).Error
	if err != nil {
		return fmt.Errorf("failed to save page: %v", err)
	}
	return nil
}

// GetAuditPages returns all pages of an audit, shallowest first
func (s *Store) GetAuditPages(auditID uint) ([]Page, error) {
	var pages []Page
	result := s.db.Where("audit_id = ?", auditID).Order("depth ASC, id ASC").Find(&pages)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get pages: %v", result.Error)
	}
	return pages, nil
}

// CountAuditPages returns the number of saved pages for an audit
func (s *Store) CountAuditPages(auditID uint) (int64, error) {
	var count int64
	if err := s.db.Model(&Page{}).Where("audit_id = ?", auditID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count pages: %v", err)
	}
	return count, nil
}

// SearchAuditPages returns pages of an audit whose URL or title matches the
// query substring
func (s *Store) SearchAuditPages(auditID uint, query string) ([]Page, error) {
	var pages []Page
	like := "%" + query + "%"
	result := s.db.Where("audit_id = ? AND (url LIKE ? OR title LIKE ?)", auditID, like, like).
		Order("id ASC").Find(&pages)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to search pages: %v", result.Error)
	}
	return pages, nil
}
