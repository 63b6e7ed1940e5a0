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

import "encoding/json"

// Audit status constants
const (
	AuditStatusPending   = "pending"
	AuditStatusCrawling  = "crawling"
	AuditStatusAnalyzing = "analyzing"
	AuditStatusComplete  = "complete"
	AuditStatusFailed    = "failed"
)

// Site represents one audited website, identified by its domain
type Site struct {
	ID             uint    `gorm:"primaryKey"`
	URL            string  `gorm:"not null"`             // Normalized root URL
	Domain         string  `gorm:"uniqueIndex;not null"` // Domain identifier (includes subdomain)
	MonthlyTraffic float64 `gorm:"default:0"`            // Estimated organic visits per month, 0 = unknown
	Audits         []Audit `gorm:"foreignKey:SiteID;constraint:OnDelete:CASCADE"`
	CreatedAt      int64   `gorm:"autoCreateTime"`
	UpdatedAt      int64   `gorm:"autoUpdateTime"`
}

// Audit represents one audit run over a site
type Audit struct {
	ID              uint   `gorm:"primaryKey"`
	SiteID          uint   `gorm:"not null;index"`
	Status          string `gorm:"not null;default:'pending'"` // pending, crawling, analyzing, complete, failed
	ErrorMessage    string `gorm:"type:text"`
	PagesCrawled    int    `gorm:"default:0"`
	SitemapURLs     int    `gorm:"default:0"`
	OverallScore    float64
	OverallGrade    string
	ConfidenceScore float64
	// EstimatedRevenueImpact is the monthly revenue recoverable by fixing
	// all detected issues, in dollars
	EstimatedRevenueImpact float64
	IssuesFound            int
	CriticalIssues         int
	StartedAt              int64
	CompletedAt            int64
	Site                   *Site                 `gorm:"foreignKey:SiteID;constraint:OnDelete:CASCADE"`
	Pages                  []Page                `gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE"`
	Results                []EngineResult        `gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE"`
	Issues                 []AuditIssue          `gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE"`
	Recommendations        []AuditRecommendation `gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE"`
	CategoryScores         []CategoryScoreRecord `gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE"`
	CreatedAt              int64                 `gorm:"autoCreateTime"`
	UpdatedAt              int64                 `gorm:"autoUpdateTime"`
}

// Page represents one crawled URL within an audit
type Page struct {
	ID            uint   `gorm:"primaryKey"`
	AuditID       uint   `gorm:"not null;index"`
	URL           string `gorm:"not null"`
	FinalURL      string
	CanonicalURL  string
	StatusCode    int
	ContentType   string
	Title         string `gorm:"type:text"`
	Depth         int
	DiscoveredVia string // seed, link, sitemap
	WordCount     int
	H1Count       int
	LoadTimeMs    float64
	PageSizeBytes int
	RedirectHops  int
	JSRendered    bool
	ContentHash   string
	CreatedAt     int64 `gorm:"autoCreateTime"`
}

// EngineResult represents one engine's outcome for an audit
type EngineResult struct {
	ID           uint   `gorm:"primaryKey"`
	AuditID      uint   `gorm:"not null;index"`
	Engine       string `gorm:"not null"`
	Category     string `gorm:"not null"`
	Status       string `gorm:"not null"` // success, partial, failed, skipped
	Score        float64
	Grade        string
	ErrorMessage string `gorm:"type:text"`
	Metadata     string `gorm:"type:text"` // JSON object
	DurationMs   int64
	CreatedAt    int64 `gorm:"autoCreateTime"`
}

// AuditIssue represents one detected issue
type AuditIssue struct {
	ID               uint   `gorm:"primaryKey"`
	AuditID          uint   `gorm:"not null;index"`
	IssueID          string `gorm:"not null"` // Rule/check identifier, e.g. onpage-missing-title
	Name             string `gorm:"not null"`
	Description      string `gorm:"type:text"`
	Category         string `gorm:"not null"`
	Severity         string `gorm:"not null"`
	AffectedURLs     string `gorm:"type:text"` // JSON array, sampled
	AffectedCount    int
	ImpactScore      float64
	EffortScore      int
	Recommendation   string `gorm:"type:text"`
	DocumentationURL string
	Metadata         string `gorm:"type:text"` // JSON object
	CreatedAt        int64  `gorm:"autoCreateTime"`
}

// GetAffectedURLsArray deserializes the AffectedURLs JSON to []string
func (i *AuditIssue) GetAffectedURLsArray() []string {
	if i.AffectedURLs == "" {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(i.AffectedURLs), &urls); err != nil {
		return nil
	}
	return urls
}

// SetAffectedURLsArray serializes []string to JSON for AffectedURLs
func (i *AuditIssue) SetAffectedURLsArray(urls []string) error {
	if len(urls) == 0 {
		i.AffectedURLs = ""
		return nil
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return err
	}
	i.AffectedURLs = string(data)
	return nil
}

// AuditRecommendation represents one entry of the prioritized action plan
type AuditRecommendation struct {
	ID                     uint   `gorm:"primaryKey"`
	AuditID                uint   `gorm:"not null;index"`
	IssueID                string `gorm:"not null"`
	PriorityRank           int    `gorm:"not null"`
	Title                  string `gorm:"not null"`
	Description            string `gorm:"type:text"`
	Effort                 string // low, medium, high
	Impact                 string // low, medium, high
	EstimatedTrafficGain   float64
	EstimatedRevenueImpact float64
	ImplementationSteps    string `gorm:"type:text"` // JSON array
	CreatedAt              int64  `gorm:"autoCreateTime"`
}

// GetImplementationStepsArray deserializes ImplementationSteps to []string
func (r *AuditRecommendation) GetImplementationStepsArray() []string {
	if r.ImplementationSteps == "" {
		return nil
	}
	var steps []string
	if err := json.Unmarshal([]byte(r.ImplementationSteps), &steps); err != nil {
		return nil
	}
	return steps
}

// SetImplementationStepsArray serializes []string to JSON
func (r *AuditRecommendation) SetImplementationStepsArray(steps []string) error {
	if len(steps) == 0 {
		r.ImplementationSteps = ""
		return nil
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return err
	}
	r.ImplementationSteps = string(data)
	return nil
}

// CategoryScoreRecord represents one category's score within an audit
type CategoryScoreRecord struct {
	ID            uint   `gorm:"primaryKey"`
	AuditID       uint   `gorm:"not null;index"`
	Category      string `gorm:"not null"`
	Score         float64
	Grade         string
	IssuesCount   int
	CriticalCount int
	HighCount     int
	Weight        float64
	CreatedAt     int64 `gorm:"autoCreateTime"`
}

// DomainConfig stores per-domain crawl configuration overrides
type DomainConfig struct {
	ID                uint   `gorm:"primaryKey"`
	Domain            string `gorm:"uniqueIndex;not null"`
	UserAgent         string `gorm:"type:text"`
	MaxPages          int    `gorm:"default:0"` // 0 = use default
	MaxDepth          int    `gorm:"default:0"`
	Concurrency       int    `gorm:"default:0"`
	RateLimitRPS      float64
	JSRender          bool `gorm:"default:false"`
	ExcludeSubdomains bool `gorm:"default:false"`
	RobotsMode        string
	SitemapURLs       string `gorm:"type:text"` // JSON array, nullable
	CreatedAt         int64  `gorm:"autoCreateTime"`
	UpdatedAt         int64  `gorm:"autoUpdateTime"`
}

// GetSitemapURLsArray deserializes the SitemapURLs JSON to []string.
// Returns nil if empty (which means use defaults)
func (c *DomainConfig) GetSitemapURLsArray() []string {
	if c.SitemapURLs == "" || c.SitemapURLs == "null" {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(c.SitemapURLs), &urls); err != nil {
		return nil
	}
	if len(urls) == 0 {
		return nil
	}
	return urls
}

// SetSitemapURLsArray serializes []string to JSON for SitemapURLs
func (c *DomainConfig) SetSitemapURLsArray(urls []string) error {
	if len(urls) == 0 {
		c.SitemapURLs = ""
		return nil
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return err
	}
	c.SitemapURLs = string(data)
	return nil
}
