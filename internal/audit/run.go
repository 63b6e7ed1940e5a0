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
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/agentberlin/bluefin"
	"github.com/agentberlin/bluefin/internal/engines"
	"github.com/agentberlin/bluefin/internal/score"
	"github.com/agentberlin/bluefin/internal/store"
)

// StartAudit creates an audit for rootURL and runs it in the background.
// A nil config falls back to the domain's stored overrides, then defaults.
// monthlyTraffic of 0 keeps the site's stored estimate.
func (a *App) StartAudit(rootURL string, config *bluefin.CrawlConfig, monthlyTraffic float64) (*store.Audit, error) {
	normalized, err := bluefin.NormalizeURL(rootURL, "")
	if err != nil {
		return nil, fmt.Errorf("invalid audit URL %q: %w", rootURL, err)
	}
	parsed, err := url.Parse(normalized)
	if err != nil {
		return nil, err
	}
	domain := strings.ToLower(parsed.Host)

	site, err := a.store.GetOrCreateSite(normalized, domain)
	if err != nil {
		return nil, err
	}
	if monthlyTraffic > 0 && monthlyTraffic != site.MonthlyTraffic {
		if err := a.store.SetSiteMonthlyTraffic(site.ID, monthlyTraffic); err != nil {
			return nil, err
		}
		site.MonthlyTraffic = monthlyTraffic
	}

	if a.isSiteAuditActive(site.ID) {
		return nil, fmt.Errorf("an audit is already running for %s", domain)
	}

	if config == nil {
		stored, err := a.store.GetDomainConfig(domain)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			config = stored.CrawlConfig()
		}
	}

	audit, err := a.store.CreateAudit(site.ID)
	if err != nil {
		return nil, err
	}

	base := a.ctx
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithCancel(base)
	a.registerAudit(&activeAudit{
		auditID: audit.ID,
		siteID:  site.ID,
		domain:  domain,
		url:     normalized,
		cancel:  cancel,
	})

	go a.runAudit(ctx, audit, site, normalized, config)
	return audit, nil
}

func (a *App) runAudit(ctx context.Context, audit *store.Audit, site *store.Site, rootURL string, config *bluefin.CrawlConfig) {
	defer a.unregisterAudit(audit.ID)

	if err := a.store.UpdateAuditStatus(audit.ID, store.AuditStatusCrawling); err != nil {
		a.logger.Printf("Failed to update audit %d status: %v", audit.ID, err)
	}
	a.emitter.Emit(EventAuditStarted, map[string]interface{}{
		"audit_id": audit.ID,
		"site_id":  site.ID,
		"url":      rootURL,
	})

	crawler := bluefin.NewCrawler(config)
	crawler.OnProgress(func(snap bluefin.CrawlStatsSnapshot) {
		a.setAuditProgress(audit.ID, snap.TotalCrawled)
		if err := a.store.UpdateAuditCrawlStats(audit.ID, int(snap.TotalCrawled), 0); err == nil {
			a.emitter.Emit(EventAuditProgress, map[string]interface{}{
				"audit_id":      audit.ID,
				"pages_crawled": snap.TotalCrawled,
			})
		}
	})

	crawlCtx, cancelCrawl := context.WithTimeout(ctx, a.opts.CrawlTimeout)
	result, err := crawler.Run(crawlCtx, rootURL)
	cancelCrawl()

	if err != nil {
		if errors.Is(err, bluefin.ErrCrawlCancelled) && errors.Is(crawlCtx.Err(), context.DeadlineExceeded) {
			a.failAudit(audit.ID, "Crawl timed out")
			return
		}
		if errors.Is(err, bluefin.ErrCrawlCancelled) {
			a.failAudit(audit.ID, "Audit stopped")
			a.emitter.Emit(EventAuditStopped, map[string]interface{}{"audit_id": audit.ID})
			return
		}
		a.failAudit(audit.ID, fmt.Sprintf("Crawl failed: %v", err))
		return
	}

	for _, page := range result.Pages {
		if err := a.store.SavePage(audit.ID, page); err != nil {
			a.logger.Printf("Failed to save page %s: %v", page.URL, err)
		}
	}
	if err := a.store.UpdateAuditCrawlStats(audit.ID, len(result.Pages), len(result.SitemapURLs)); err != nil {
		a.logger.Printf("Failed to update crawl stats for audit %d: %v", audit.ID, err)
	}

	if err := a.store.UpdateAuditStatus(audit.ID, store.AuditStatusAnalyzing); err != nil {
		a.logger.Printf("Failed to update audit %d status: %v", audit.ID, err)
	}
	a.emitter.Emit(EventAuditAnalyzing, map[string]interface{}{
		"audit_id":      audit.ID,
		"pages_crawled": len(result.Pages),
	})

	results := a.runEngines(ctx, result)
	a.finalize(ctx, audit, site, result, results)
}

// runEngines executes the full roster in parallel. Failed engines are
// retried with linear backoff; a timed-out or still-failing engine yields a
// failed result and the audit proceeds with what it has.
func (a *App) runEngines(ctx context.Context, site *bluefin.CrawlResult) []*engines.Result {
	roster := a.engineRoster()
	results := make([]*engines.Result, len(roster))
	var wg sync.WaitGroup
	for i, engine := range roster {
		i, engine := i, engine
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.runEngineWithRetry(ctx, engine, site)
		}()
	}
	wg.Wait()
	return results
}

func (a *App) runEngineWithRetry(ctx context.Context, e engines.Engine, site *bluefin.CrawlResult) *engines.Result {
	var result *engines.Result
	for attempt := 0; attempt <= a.opts.EngineRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * a.retryDelay):
			case <-ctx.Done():
				return result
			}
			a.logger.Printf("Retrying engine %s (attempt %d)", e.Name(), attempt+1)
		}
		result = a.executeWithTimeout(ctx, e, site)
		if result.Status != engines.StatusFailed {
			return result
		}
	}
	return result
}

func (a *App) executeWithTimeout(ctx context.Context, e engines.Engine, site *bluefin.CrawlResult) *engines.Result {
	ectx, cancel := context.WithTimeout(ctx, a.opts.EngineTimeout)
	defer cancel()

	done := make(chan *engines.Result, 1)
	go func() {
		done <- engines.Execute(ectx, e, site)
	}()

	select {
	case result := <-done:
		return result
	case <-ectx.Done():
		return &engines.Result{
			Engine:       e.Name(),
			Category:     e.Category(),
			Status:       engines.StatusFailed,
			Grade:        "F",
			Issues:       []engines.Issue{},
			ErrorMessage: "Engine execution timed out",
		}
	}
}

// finalize scores the audit, builds the action plan, and persists
// everything.
func (a *App) finalize(ctx context.Context, audit *store.Audit, site *store.Site, crawl *bluefin.CrawlResult, results []*engines.Result) {
	if ctx.Err() != nil {
		a.failAudit(audit.ID, "Audit stopped")
		return
	}

	summary := score.Compute(results, len(crawl.Pages), site.MonthlyTraffic)

	var allIssues []engines.Issue
	for _, result := range results {
		if result.Status == engines.StatusFailed {
			continue
		}
		allIssues = append(allIssues, result.Issues...)
	}
	plan := score.Prioritize(allIssues, site.MonthlyTraffic)

	for _, result := range results {
		if err := a.store.SaveEngineResult(audit.ID, result); err != nil {
			a.logger.Printf("Failed to save result for engine %s: %v", result.Engine, err)
		}
	}
	if err := a.store.SaveCategoryScores(audit.ID, summary.CategoryScores); err != nil {
		a.logger.Printf("Failed to save category scores: %v", err)
	}
	if err := a.store.SaveRecommendations(audit.ID, plan.Recommendations); err != nil {
		a.logger.Printf("Failed to save recommendations: %v", err)
	}
	if err := a.store.CompleteAudit(audit.ID, summary.OverallScore, summary.OverallGrade,
		summary.ConfidenceScore, summary.EstimatedMonthlyRevenueImpact,
		summary.IssueSummary.Total, summary.IssueSummary.Critical); err != nil {
		a.logger.Printf("Failed to complete audit %d: %v", audit.ID, err)
		return
	}

	a.logger.Printf("Audit %d complete: score %.2f (%s), %d issues across %d pages",
		audit.ID, summary.OverallScore, summary.OverallGrade, summary.IssueSummary.Total, len(crawl.Pages))
	a.emitter.Emit(EventAuditCompleted, map[string]interface{}{
		"audit_id":      audit.ID,
		"overall_score": summary.OverallScore,
		"overall_grade": summary.OverallGrade,
		"issues_found":  summary.IssueSummary.Total,
	})
}

func (a *App) failAudit(auditID uint, message string) {
	if err := a.store.FailAudit(auditID, message); err != nil {
		a.logger.Printf("Failed to mark audit %d failed: %v", auditID, err)
	}
	a.emitter.Emit(EventAuditFailed, map[string]interface{}{
		"audit_id": auditID,
		"error":    message,
	})
}
