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

package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/agentberlin/bluefin"
	"github.com/agentberlin/bluefin/internal/audit"
	"github.com/agentberlin/bluefin/internal/store"
	"github.com/agentberlin/bluefin/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestApp creates an audit app backed by a temporary database
func setupTestApp(t *testing.T) (*audit.App, *store.Store) {
	tmpDB := t.TempDir() + "/test.db"

	st, err := store.NewStoreForTesting(tmpDB)
	require.NoError(t, err)

	testApp, err := audit.NewApp(st, &audit.NoOpEmitter{}, audit.DefaultOptions())
	require.NoError(t, err)
	testApp.Startup(context.Background())

	return testApp, st
}

// fixtureCrawlConfig keeps test audits small and fast
func fixtureCrawlConfig() *bluefin.CrawlConfig {
	return &bluefin.CrawlConfig{
		MaxPages:     25,
		MaxDepth:     3,
		Concurrency:  4,
		RateLimitRPS: 500,
	}
}

// waitForAuditDone polls until the audit reaches a terminal status
func waitForAuditDone(t *testing.T, st *store.Store, auditID uint, maxWait time.Duration) *store.Audit {
	t.Helper()
	deadline := time.Now().Add(maxWait)
	for time.Now().Before(deadline) {
		auditRow, err := st.GetAuditByID(auditID)
		require.NoError(t, err)
		if auditRow.Status == store.AuditStatusComplete || auditRow.Status == store.AuditStatusFailed {
			return auditRow
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for audit to finish")
	return nil
}

// waitForAuditToStart waits for an audit to appear in the active registry
func waitForAuditToStart(t *testing.T, testApp *audit.App, maxWait time.Duration) audit.Progress {
	t.Helper()
	deadline := time.Now().Add(maxWait)
	for time.Now().Before(deadline) {
		active := testApp.GetActiveAudits()
		if len(active) > 0 {
			return active[0]
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for audit to start")
	return audit.Progress{}
}

// =============================================================================
// Test: Server Construction
// =============================================================================

func TestNewMCPServerWithApp(t *testing.T) {
	testApp, st := setupTestApp(t)

	t.Run("NilLogger_UsesDefault", func(t *testing.T) {
		s := NewMCPServerWithApp(context.Background(), testApp, nil)
		require.NotNil(t, s)
		assert.NotNil(t, s.logger)
		assert.NotNil(t, s.GetServer())
		assert.Same(t, st, s.store)
		assert.NoError(t, s.Close())
	})

	t.Run("RunHTTP_StartsAndStops", func(t *testing.T) {
		s := NewMCPServerWithApp(context.Background(), testApp, nil)
		httpServer, err := s.RunHTTP("127.0.0.1:0")
		require.NoError(t, err)
		require.NotNil(t, httpServer)
		assert.NoError(t, httpServer.Close())
	})
}

func TestAuditConfigArgsToCrawlConfig(t *testing.T) {
	t.Run("NilArgs_ReturnsNil", func(t *testing.T) {
		var args *AuditConfigArgs
		assert.Nil(t, args.toCrawlConfig())
	})

	t.Run("EmptyArgs_ReturnsZeroConfig", func(t *testing.T) {
		cfg := (&AuditConfigArgs{}).toCrawlConfig()
		require.NotNil(t, cfg)
		assert.Zero(t, cfg.MaxPages)
		assert.Empty(t, cfg.UserAgent)
	})

	t.Run("AllFields_Mapped", func(t *testing.T) {
		maxPages, maxDepth, concurrency := 100, 4, 8
		jsRender, subdomains := true, false
		robotsMode, userAgent := "ignore", "fixture-agent"
		cfg := (&AuditConfigArgs{
			MaxPages:          &maxPages,
			MaxDepth:          &maxDepth,
			Concurrency:       &concurrency,
			JSRendering:       &jsRender,
			IncludeSubdomains: &subdomains,
			RobotsTxtMode:     &robotsMode,
			UserAgent:         &userAgent,
		}).toCrawlConfig()
		require.NotNil(t, cfg)
		assert.Equal(t, 100, cfg.MaxPages)
		assert.Equal(t, 4, cfg.MaxDepth)
		assert.Equal(t, 8, cfg.Concurrency)
		assert.True(t, cfg.JSRender)
		assert.True(t, cfg.ExcludeSubdomains)
		assert.Equal(t, bluefin.RobotsIgnore, cfg.RobotsMode)
		assert.Equal(t, "fixture-agent", cfg.UserAgent)
	})
}

// =============================================================================
// Test: Audit Lifecycle Tools
// =============================================================================

func TestAuditWebsiteTool(t *testing.T) {
	testApp, st := setupTestApp(t)

	server := testutil.NewTestServer()
	defer server.Close()

	t.Run("ValidURL_StartsAuditSuccessfully", func(t *testing.T) {
		auditRow, err := testApp.StartAudit(server.URL, fixtureCrawlConfig(), 0)
		require.NoError(t, err)
		assert.NotZero(t, auditRow.ID)
		assert.NotZero(t, auditRow.SiteID)

		done := waitForAuditDone(t, st, auditRow.ID, 60*time.Second)
		assert.Equal(t, store.AuditStatusComplete, done.Status)
		assert.NotZero(t, done.PagesCrawled)
	})

	t.Run("InvalidURL_ReturnsError", func(t *testing.T) {
		invalidURLs := []string{
			"ftp://example.com",
			"",
			"   ",
			"https://",
		}
		for _, invalidURL := range invalidURLs {
			_, err := testApp.StartAudit(invalidURL, nil, 0)
			assert.Error(t, err, "Expected error for invalid URL: %q", invalidURL)
		}
	})
}

func TestStopAuditTool(t *testing.T) {
	testApp, st := setupTestApp(t)

	server := testutil.NewTestServer()
	defer server.Close()

	t.Run("StopActiveAudit_Succeeds", func(t *testing.T) {
		// Low rate keeps the crawl alive long enough to stop it
		slowConfig := fixtureCrawlConfig()
		slowConfig.RateLimitRPS = 2

		auditRow, err := testApp.StartAudit(server.URL, slowConfig, 0)
		require.NoError(t, err)

		progress := waitForAuditToStart(t, testApp, 5*time.Second)
		assert.Equal(t, auditRow.ID, progress.AuditID)
		assert.NotEmpty(t, progress.Domain)

		require.NoError(t, testApp.StopAudit(auditRow.ID))

		done := waitForAuditDone(t, st, auditRow.ID, 30*time.Second)
		assert.Equal(t, store.AuditStatusFailed, done.Status)
		assert.Equal(t, "Audit stopped", done.ErrorMessage)
	})

	t.Run("StopNonExistentAudit_ReturnsError", func(t *testing.T) {
		err := testApp.StopAudit(999999)
		assert.Error(t, err)
	})
}

// =============================================================================
// Test: Report Retrieval Tools
// =============================================================================

func TestReportTools(t *testing.T) {
	testApp, st := setupTestApp(t)

	server := testutil.NewTestServer()
	defer server.Close()

	auditRow, err := testApp.StartAudit(server.URL, fixtureCrawlConfig(), 10000)
	require.NoError(t, err)
	done := waitForAuditDone(t, st, auditRow.ID, 60*time.Second)
	require.Equal(t, store.AuditStatusComplete, done.Status)

	t.Run("GetAuditStatus_ReturnsFinalState", func(t *testing.T) {
		row, err := st.GetAuditByID(auditRow.ID)
		require.NoError(t, err)
		assert.Equal(t, store.AuditStatusComplete, row.Status)
		assert.NotZero(t, row.PagesCrawled)
		assert.NotEmpty(t, row.OverallGrade)
	})

	t.Run("GetAuditReport_ReturnsScorecard", func(t *testing.T) {
		row, err := st.GetAuditByID(auditRow.ID)
		require.NoError(t, err)
		require.NotNil(t, row.Site)
		assert.NotEmpty(t, row.Site.URL)
		assert.Greater(t, row.OverallScore, 0.0)
		assert.Greater(t, row.ConfidenceScore, 0.0)
		assert.NotZero(t, row.IssuesFound)
		assert.NotEmpty(t, row.CategoryScores)
		for _, cs := range row.CategoryScores {
			assert.NotEmpty(t, cs.Category)
			assert.NotEmpty(t, cs.Grade)
		}
	})

	t.Run("ListAuditIssues_OrderedByImpact", func(t *testing.T) {
		issues, err := st.GetAuditIssues(auditRow.ID)
		require.NoError(t, err)
		require.NotEmpty(t, issues)

		for i := 1; i < len(issues); i++ {
			assert.GreaterOrEqual(t, issues[i-1].ImpactScore, issues[i].ImpactScore)
		}

		// The fixture site has a page without a title and a thin page
		ids := make(map[string]bool)
		for _, issue := range issues {
			ids[issue.IssueID] = true
			assert.NotEmpty(t, issue.Severity)
			assert.NotZero(t, issue.AffectedCount)
		}
		assert.True(t, ids["onpage-missing-title"])
		assert.True(t, ids["onpage-thin-content"])
	})

	t.Run("GetRecommendations_RankedWithSteps", func(t *testing.T) {
		recs, err := st.GetAuditRecommendations(auditRow.ID)
		require.NoError(t, err)
		require.NotEmpty(t, recs)

		for i, rec := range recs {
			assert.Equal(t, i+1, rec.PriorityRank)
			assert.NotEmpty(t, rec.Title)
			assert.NotEmpty(t, rec.GetImplementationStepsArray())
		}
	})

	t.Run("SearchAuditPages_FindsMatchingURLs", func(t *testing.T) {
		pages, err := st.SearchAuditPages(auditRow.ID, "dup")
		require.NoError(t, err)
		require.Len(t, pages, 2)
		for _, page := range pages {
			assert.Contains(t, page.URL, "dup")
		}
	})

	t.Run("SearchAuditPages_NoMatch_ReturnsEmpty", func(t *testing.T) {
		pages, err := st.SearchAuditPages(auditRow.ID, "zz-no-such-page")
		require.NoError(t, err)
		assert.Empty(t, pages)
	})
}

// =============================================================================
// Test: Site Management Tools
// =============================================================================

func TestSiteManagementTools(t *testing.T) {
	_, st := setupTestApp(t)

	t.Run("ListSites_ReturnsAllSites", func(t *testing.T) {
		_, err := st.GetOrCreateSite("https://example.com", "example.com")
		require.NoError(t, err)
		_, err = st.GetOrCreateSite("https://test.com", "test.com")
		require.NoError(t, err)

		sites, err := st.GetAllSites()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(sites), 2)
		for _, site := range sites {
			assert.NotZero(t, site.ID)
			assert.NotEmpty(t, site.Domain)
		}
	})

	t.Run("ListSiteAudits_ReturnsHistory", func(t *testing.T) {
		site, err := st.GetOrCreateSite("https://history.com", "history.com")
		require.NoError(t, err)
		auditRow, err := st.CreateAudit(site.ID)
		require.NoError(t, err)

		audits, err := st.GetSiteAudits(site.ID)
		require.NoError(t, err)
		require.Len(t, audits, 1)
		assert.Equal(t, auditRow.ID, audits[0].ID)
	})

	t.Run("DeleteAudit_RemovesAudit", func(t *testing.T) {
		site, err := st.GetOrCreateSite("https://delete-audit.com", "delete-audit.com")
		require.NoError(t, err)
		auditRow, err := st.CreateAudit(site.ID)
		require.NoError(t, err)

		require.NoError(t, st.DeleteAudit(auditRow.ID))

		_, err = st.GetAuditByID(auditRow.ID)
		assert.Error(t, err)
	})

	t.Run("DeleteSite_RemovesSiteAndAudits", func(t *testing.T) {
		site, err := st.GetOrCreateSite("https://delete-me.com", "delete-me.com")
		require.NoError(t, err)
		auditRow, err := st.CreateAudit(site.ID)
		require.NoError(t, err)

		require.NoError(t, st.DeleteSite(site.ID))

		deleted, err := st.GetSiteByDomain("delete-me.com")
		require.NoError(t, err)
		assert.Nil(t, deleted)
		_, err = st.GetAuditByID(auditRow.ID)
		assert.Error(t, err)
	})
}

// =============================================================================
// Test: Configuration Tools
// =============================================================================

func TestDomainConfigTools(t *testing.T) {
	_, st := setupTestApp(t)

	t.Run("UnknownDomain_HasNoConfig", func(t *testing.T) {
		config, err := st.GetDomainConfig("unconfigured.com")
		require.NoError(t, err)
		assert.Nil(t, config)
	})

	t.Run("UpdateThenGet_RoundTrips", func(t *testing.T) {
		// Mirror of the update_domain_config merge: load, apply, save
		config, err := st.GetDomainConfig("configured.com")
		require.NoError(t, err)
		if config == nil {
			config = &store.DomainConfig{Domain: "configured.com"}
		}
		config.MaxPages = 250
		config.JSRender = true
		config.RobotsMode = "ignore"
		require.NoError(t, st.SaveDomainConfig(config))

		reloaded, err := st.GetDomainConfig("configured.com")
		require.NoError(t, err)
		require.NotNil(t, reloaded)
		assert.Equal(t, 250, reloaded.MaxPages)
		assert.True(t, reloaded.JSRender)

		crawlCfg := reloaded.CrawlConfig()
		require.NotNil(t, crawlCfg)
		assert.Equal(t, 250, crawlCfg.MaxPages)
		assert.Equal(t, bluefin.RobotsIgnore, crawlCfg.RobotsMode)
	})
}
