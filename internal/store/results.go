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
	"encoding/json"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/agentberlin/bluefin/internal/engines"
	"github.com/agentberlin/bluefin/internal/score"
)

// SaveEngineResult upserts one engine's result and its issues for an audit
func (s *Store) SaveEngineResult(auditID uint, result *engines.Result) error {
	metadata := ""
	if len(result.Metadata) > 0 {
		if data, err := json.Marshal(result.Metadata); err == nil {
			metadata = string(data)
		}
	}
	row := EngineResult{
		AuditID:      auditID,
		Engine:       result.Engine,
		Category:     string(result.Category),
		Status:       string(result.Status),
		Score:        result.Score,
		Grade:        result.Grade,
		ErrorMessage: result.ErrorMessage,
		Metadata:     metadata,
		DurationMs:   result.DurationMs,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "audit_id"}, {Name: "engine"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save engine result: %v", err)
	}

	for _, issue := range result.Issues {
		if err := s.saveIssue(auditID, issue); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) saveIssue(auditID uint, issue engines.Issue) error {
	metadata := ""
	if len(issue.Metadata) > 0 {
		if data, err := json.Marshal(issue.Metadata); err == nil {
			metadata = string(data)
		}
	}
	row := AuditIssue{
		AuditID:          auditID,
		IssueID:          issue.ID,
		Name:             issue.Name,
		Description:      issue.Description,
		Category:         string(issue.Category),
		Severity:         string(issue.Severity),
		AffectedCount:    issue.AffectedCount,
		ImpactScore:      issue.ImpactScore,
		EffortScore:      issue.EffortScore,
		Recommendation:   issue.Recommendation,
		DocumentationURL: issue.DocumentationURL,
		Metadata:         metadata,
	}
	if err := row.SetAffectedURLsArray(issue.AffectedURLs); err != nil {
		return fmt.Errorf("failed to serialize affected urls: %v", err)
	}
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save issue: %v", err)
	}
	return nil
}

// GetAuditIssues returns all issues of an audit
func (s *Store) GetAuditIssues(auditID uint) ([]AuditIssue, error) {
	var issues []AuditIssue
	result := s.db.Where("audit_id = ?", auditID).Order("impact_score DESC").Find(&issues)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get issues: %v", result.Error)
	}
	return issues, nil
}

// SaveRecommendations replaces the audit's action plan
func (s *Store) SaveRecommendations(auditID uint, recs []score.Recommendation) error {
	if err := s.db.Where("audit_id = ?", auditID).Delete(&AuditRecommendation{}).Error; err != nil {
		return fmt.Errorf("failed to clear recommendations: %v", err)
	}
	for _, rec := range recs {
		row := AuditRecommendation{
			AuditID:                auditID,
			IssueID:                rec.IssueID,
			PriorityRank:           rec.PriorityRank,
			Title:                  rec.Title,
			Description:            rec.Description,
			Effort:                 rec.Effort,
			Impact:                 rec.Impact,
			EstimatedTrafficGain:   rec.EstimatedTrafficGain,
			EstimatedRevenueImpact: rec.EstimatedRevenueImpact,
		}
		if err := row.SetImplementationStepsArray(rec.ImplementationSteps); err != nil {
			return fmt.Errorf("failed to serialize implementation steps: %v", err)
		}
		if err := s.db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to save recommendation: %v", err)
		}
	}
	return nil
}

// GetAuditRecommendations returns the action plan in priority order
func (s *Store) GetAuditRecommendations(auditID uint) ([]AuditRecommendation, error) {
	var recs []AuditRecommendation
	result := s.db.Where("audit_id = ?", auditID).Order("priority_rank ASC").Find(&recs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get recommendations: %v", result.Error)
	}
	return recs, nil
}

// SaveCategoryScores replaces the audit's per-category scorecard
func (s *Store) SaveCategoryScores(auditID uint, scores []score.CategoryScore) error {
	if err := s.db.Where("audit_id = ?", auditID).Delete(&CategoryScoreRecord{}).Error; err != nil {
		return fmt.Errorf("failed to clear category scores: %v", err)
	}
	for _, cs := range scores {
		row := CategoryScoreRecord{
			AuditID:       auditID,
			Category:      string(cs.Category),
			Score:         cs.Score,
			Grade:         cs.Grade,
			IssuesCount:   cs.IssuesCount,
			CriticalCount: cs.CriticalCount,
			HighCount:     cs.HighCount,
			Weight:        cs.Weight,
		}
		if err := s.db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to save category score: %v", err)
		}
	}
	return nil
}
