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

	"gorm.io/gorm"

	"github.com/agentberlin/bluefin"
)

// GetDomainConfig returns the stored crawl overrides for a domain, or nil
// when none exist
func (s *Store) GetDomainConfig(domain string) (*DomainConfig, error) {
	var config DomainConfig
	result := s.db.Where("domain = ?", domain).First(&config)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get domain config: %v", result.Error)
	}
	return &config, nil
}

// SaveDomainConfig upserts the crawl overrides for a domain
func (s *Store) SaveDomainConfig(config *DomainConfig) error {
	existing, err := s.GetDomainConfig(config.Domain)
	if err != nil {
		return err
	}
	if existing != nil {
		config.ID = existing.ID
		config.CreatedAt = existing.CreatedAt
	}
	config.UpdatedAt = time.Now().Unix()
	if err := s.db.Save(config).Error; err != nil {
		return fmt.Errorf("failed to save domain config: %v", err)
	}
	return nil
}

// CrawlConfig converts stored overrides to a crawl configuration. Zero
// fields stay unset so the crawler's defaults apply.
func (c *DomainConfig) CrawlConfig() *bluefin.CrawlConfig {
	cfg := &bluefin.CrawlConfig{
		UserAgent:         c.UserAgent,
		MaxPages:          c.MaxPages,
		MaxDepth:          c.MaxDepth,
		Concurrency:       c.Concurrency,
		RateLimitRPS:      c.RateLimitRPS,
		JSRender:          c.JSRender,
		ExcludeSubdomains: c.ExcludeSubdomains,
		SitemapURLs:       c.GetSitemapURLsArray(),
	}
	if c.RobotsMode != "" {
		cfg.RobotsMode = bluefin.RobotsMode(c.RobotsMode)
	}
	return cfg
}
