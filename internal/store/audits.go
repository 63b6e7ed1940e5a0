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
	"time"
)

// CreateAudit creates a pending audit for a site
func (s *Store) CreateAudit(siteID uint) (*Audit, error) {
	audit := Audit{
		SiteID:    siteID,
		Status:    AuditStatusPending,
		StartedAt: time.Now().Unix(),
	}
	if err := s.db.Create(&audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create audit: %v", err)
	}
	return &audit, nil
}

// GetAuditByID gets an audit with its results, issues, recommendations and
// category scores preloaded
func (s *Store) GetAuditByID(id uint) (*Audit, error) {
	var audit Audit
	result := s.db.
		Preload("Site").
		Preload("Results").
		Preload("Issues").
		Preload("Recommendations").
		Preload("CategoryScores").
		First(&audit, id)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get audit: %v", result.Error)
	}
	return &audit, nil
}

// GetSiteAudits returns all audits for a site, newest first
func (s *Store) GetSiteAudits(siteID uint) ([]Audit, error) {
	var audits []Audit
	result := s.db.Where("site_id = ?", siteID).Order("created_at DESC").Find(&audits)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get audits: %v", result.Error)
	}
	return audits, nil
}

// UpdateAuditStatus moves an audit through its lifecycle
func (s *Store) UpdateAuditStatus(auditID uint, status string) error {
	return s.db.Model(&Audit{}).Where("id = ?", auditID).
		Update("status", status).Error
}

// FailAudit marks an audit failed with an error message
func (s *Store) FailAudit(auditID uint, message string) error {
	return s.db.Model(&Audit{}).Where("id = ?", auditID).Updates(map[string]interface{}{
		"status":        AuditStatusFailed,
		"error_message": message,
		"completed_at":  time.Now().Unix(),
	}).Error
}

// UpdateAuditCrawlStats records crawl progress on the audit row
func (s *Store) UpdateAuditCrawlStats(auditID uint, pagesCrawled, sitemapURLs int) error {
	return s.db.Model(&Audit{}).Where("id = ?", auditID).Updates(map[string]interface{}{
		"pages_crawled": pagesCrawled,
		"sitemap_urls":  sitemapURLs,
	}).Error
}

// CompleteAudit writes the final scorecard and marks the audit complete
func (s *Store) CompleteAudit(auditID uint, overallScore float64, overallGrade string,
	confidence float64, revenueImpact float64, issuesFound, criticalIssues int) error {
	return s.db.Model(&Audit{}).Where("id = ?", auditID).Updates(map[string]interface{}{
		"status":                   AuditStatusComplete,
		"overall_score":            overallScore,
		"overall_grade":            overallGrade,
		"confidence_score":         confidence,
		"estimated_revenue_impact": revenueImpact,
		"issues_found":             issuesFound,
		"critical_issues":          criticalIssues,
		"completed_at":             time.Now().Unix(),
	}).Error
}

// DeleteAudit removes an audit and all dependent rows
func (s *Store) DeleteAudit(auditID uint) error {
	for _, model := range []interface{}{
		&Page{}, &EngineResult{}, &AuditIssue{}, &AuditRecommendation{}, &CategoryScoreRecord{},
	} {
		if err := s.db.Where("audit_id = ?", auditID).Delete(model).Error; err != nil {
			return fmt.Errorf("failed to delete audit data: %v", err)
		}
	}
	if err := s.db.Delete(&Audit{}, auditID).Error; err != nil {
		return fmt.Errorf("failed to delete audit: %v", err)
	}
	return nil
}
