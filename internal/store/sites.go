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

	"gorm.io/gorm"
)

// GetOrCreateSite gets or creates a site by domain
func (s *Store) GetOrCreateSite(urlStr string, domain string) (*Site, error) {
	var site Site
	result := s.db.Where("domain = ?", domain).First(&site)

	if result.Error == gorm.ErrRecordNotFound {
		site = Site{
			URL:    urlStr,
			Domain: domain,
		}
		if err := s.db.Create(&site).Error; err != nil {
			return nil, fmt.Errorf("failed to create site: %v", err)
		}
		return &site, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get site: %v", result.Error)
	}

	// Keep the stored root URL in sync with the latest normalized form
	if site.URL != urlStr {
		site.URL = urlStr
		s.db.Save(&site)
	}
	return &site, nil
}

// GetSiteByID gets a site by ID
func (s *Store) GetSiteByID(id uint) (*Site, error) {
	var site Site
	if err := s.db.First(&site, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get site: %v", err)
	}
	return &site, nil
}

// GetSiteByDomain gets a site by domain, or nil when unknown
func (s *Store) GetSiteByDomain(domain string) (*Site, error) {
	var site Site
	result := s.db.Where("domain = ?", domain).First(&site)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get site: %v", result.Error)
	}
	return &site, nil
}

// GetAllSites returns all sites with their latest audit preloaded
func (s *Store) GetAllSites() ([]Site, error) {
	var sites []Site
	if err := s.db.Order("id ASC").Find(&sites).Error; err != nil {
		return nil, fmt.Errorf("failed to get sites: %v", err)
	}
	for i := range sites {
		var latest Audit
		err := s.db.Where("site_id = ?", sites[i].ID).
			Order("created_at DESC").First(&latest).Error
		if err == nil {
			sites[i].Audits = []Audit{latest}
		}
	}
	return sites, nil
}

// SetSiteMonthlyTraffic records the traffic estimate used for revenue math
func (s *Store) SetSiteMonthlyTraffic(siteID uint, monthlyTraffic float64) error {
	return s.db.Model(&Site{}).Where("id = ?", siteID).
		Update("monthly_traffic", monthlyTraffic).Error
}

// DeleteSite removes a site and all dependent audit data
func (s *Store) DeleteSite(siteID uint) error {
	var audits []Audit
	if err := s.db.Where("site_id = ?", siteID).Find(&audits).Error; err != nil {
		return fmt.Errorf("failed to list audits for site: %v", err)
	}
	for _, audit := range audits {
		if err := s.DeleteAudit(audit.ID); err != nil {
			return err
		}
	}
	if err := s.db.Delete(&Site{}, siteID).Error; err != nil {
		return fmt.Errorf("failed to delete site: %v", err)
	}
	return nil
}
