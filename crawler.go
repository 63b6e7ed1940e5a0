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

package bluefin

import (
	"context"
	"log"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Discovery mechanisms recorded on each PageData.
const (
	DiscoveredSeed    = "seed"
	DiscoveredLink    = "link"
	DiscoveredSitemap = "sitemap"
)

// CrawlStats tracks live crawl counters updated from worker goroutines.
type CrawlStats struct {
	TotalQueued  atomic.Int64
	TotalCrawled atomic.Int64
	TotalFailed  atomic.Int64
	TotalSkipped atomic.Int64
	JSRendered   atomic.Int64
	StartTime    time.Time
}

// CrawlStatsSnapshot is an immutable view of CrawlStats.
type CrawlStatsSnapshot struct {
	TotalQueued    int64   `json:"total_queued"`
	TotalCrawled   int64   `json:"total_crawled"`
	TotalFailed    int64   `json:"total_failed"`
	TotalSkipped   int64   `json:"total_skipped"`
	JSRendered     int64   `json:"js_rendered"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	PagesPerSecond float64 `json:"pages_per_second"`
	SitemapURLs    int     `json:"sitemap_urls_found"`
}

func (s *CrawlStats) Snapshot(sitemapURLs int) CrawlStatsSnapshot {
	elapsed := time.Since(s.StartTime).Seconds()
	crawled := s.TotalCrawled.Load()
	pps := 0.0
	if elapsed > 0 {
		pps = float64(crawled) / elapsed
	}
	return CrawlStatsSnapshot{
		TotalQueued:    s.TotalQueued.Load(),
		TotalCrawled:   crawled,
		TotalFailed:    s.TotalFailed.Load(),
		TotalSkipped:   s.TotalSkipped.Load(),
		JSRendered:     s.JSRendered.Load(),
		ElapsedSeconds: elapsed,
		PagesPerSecond: pps,
		SitemapURLs:    sitemapURLs,
	}
}

// CrawlResult is everything a site crawl produced, handed to the audit
// engines as their input.
type CrawlResult struct {
	RootURL     string
	Domain      string
	Pages       []*PageData
	SitemapURLs []string
	RobotsTxt   string
	Stats       CrawlStatsSnapshot
}

// crawlURL is one frontier entry.
type crawlURL struct {
	url    string
	depth  int
	parent string
	via    string
}

// Crawler is the BFS crawl engine. It walks a site breadth-first from the
// root URL, obeying robots.txt and per-host rate limits, escalating to
// headless rendering when a page looks like an unrendered client-side app.
//
// A Crawler is single-use: create one per audit with NewCrawler and call Run
// once.
type Crawler struct {
	config   *CrawlConfig
	fetcher  *Fetcher
	robots   *RobotsPolicy
	sitemaps *SitemapFetcher
	limiters *hostLimiters
	logger   *log.Logger

	// frontier state. visitedCount mirrors the sync.Map size so the growth
	// cap check stays O(1).
	mu           sync.Mutex
	queue        []crawlURL
	visited      sync.Map
	visitedCount int
	stats        CrawlStats

	// duplicate content detection
	fpMu         sync.Mutex
	fingerprints map[string]bool

	onPageCrawled func(*PageData)
	onProgress    func(CrawlStatsSnapshot)
}

// NewCrawler creates a crawl engine. A nil config gets the defaults with
// BLUEFIN_* environment overrides applied.
func NewCrawler(config *CrawlConfig) *Crawler {
	cfg := NewDefaultCrawlConfig()
	cfg = mergeCrawlConfig(cfg, config)
	parseCrawlConfigFromEnv(cfg)
	cfg.compileFilters()

	return &Crawler{
		config:       cfg,
		fetcher:      NewFetcher(cfg),
		sitemaps:     NewSitemapFetcher(cfg.UserAgent, nil),
		limiters:     newHostLimiters(cfg.RateLimitRPS),
		logger:       log.New(os.Stderr, "[BlueFin Crawler] ", log.LstdFlags),
		fingerprints: make(map[string]bool),
	}
}

// OnPageCrawled registers a callback invoked for every fetched page, in
// completion order, from worker goroutines.
func (c *Crawler) OnPageCrawled(fn func(*PageData)) {
	c.onPageCrawled = fn
}

// OnProgress registers a callback invoked every 100 crawled pages.
func (c *Crawler) OnProgress(fn func(CrawlStatsSnapshot)) {
	c.onProgress = fn
}

// Config returns the effective crawl configuration.
func (c *Crawler) Config() *CrawlConfig {
	return c.config
}

// Run executes the crawl. It returns partial results on cancellation
// together with ErrCrawlCancelled.
func (c *Crawler) Run(ctx context.Context, rootURL string) (*CrawlResult, error) {
	normalized, err := NormalizeURL(rootURL, "")
	if err != nil {
		return nil, err
	}
	parsed, err := url.Parse(normalized)
	if err != nil {
		return nil, err
	}
	domain := strings.ToLower(parsed.Host)

	c.stats.StartTime = time.Now()
	c.robots = NewRobotsPolicy(c.config.RobotsMode, c.config.UserAgent, nil)
	c.robots.Load(ctx, normalized)

	// robots.txt crawl-delay overrides the configured rate
	if delay := c.robots.CrawlDelay(domain); delay > 0 {
		c.limiters.get(domain).SetRate(1.0 / delay.Seconds())
		c.logger.Printf("Respecting crawl-delay of %s for %s", delay, domain)
	}

	var sitemapURLs []string
	if c.config.SitemapDiscovery {
		sitemapURLs = c.sitemaps.Discover(ctx, normalized, c.config.SitemapURLs, c.robots.SitemapURLs(domain))
		c.logger.Printf("Discovered %d sitemap URLs for %s", len(sitemapURLs), domain)
	}

	c.enqueue(crawlURL{url: normalized, depth: 0, via: DiscoveredSeed})
	for _, surl := range sitemapURLs {
		if n, err := NormalizeURL(surl, normalized); err == nil {
			c.enqueue(crawlURL{url: n, depth: 1, via: DiscoveredSitemap})
		}
	}

	pool := NewWorkerPool(ctx, c.config.Concurrency, c.config.Concurrency*2)
	defer pool.Close()

	var pages []*PageData
	var pagesMu sync.Mutex

	for {
		if ctx.Err() != nil {
			return c.result(normalized, domain, pages, sitemapURLs), ErrCrawlCancelled
		}

		pagesMu.Lock()
		crawled := len(pages)
		pagesMu.Unlock()
		if crawled >= c.config.MaxPages {
			break
		}

		batch := c.takeBatch(c.config.MaxPages - crawled)
		if len(batch) == 0 {
			break
		}

		var wg sync.WaitGroup
		for _, item := range batch {
			item := item
			wg.Add(1)
			err := pool.Submit(func() {
				defer wg.Done()
				page := c.crawlOne(ctx, item, domain)
				if page == nil {
					return
				}
				pagesMu.Lock()
				pages = append(pages, page)
				pagesMu.Unlock()
			})
			if err != nil {
				wg.Done()
			}
		}
		wg.Wait()
	}

	c.logger.Printf("Crawl finished for %s: %d pages in %.1fs",
		domain, c.stats.TotalCrawled.Load(), time.Since(c.stats.StartTime).Seconds())

	return c.result(normalized, domain, pages, sitemapURLs), nil
}

func (c *Crawler) result(rootURL, domain string, pages []*PageData, sitemapURLs []string) *CrawlResult {
	return &CrawlResult{
		RootURL:     rootURL,
		Domain:      domain,
		Pages:       pages,
		SitemapURLs: sitemapURLs,
		RobotsTxt:   c.robots.Raw(domain),
		Stats:       c.stats.Snapshot(len(sitemapURLs)),
	}
}

// takeBatch removes up to min(2*concurrency, len(queue), budget) entries
// from the head of the frontier.
func (c *Crawler) takeBatch(budget int) []crawlURL {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.config.Concurrency * 2
	if n > len(c.queue) {
		n = len(c.queue)
	}
	if n > budget {
		n = budget
	}
	if n <= 0 {
		return nil
	}
	batch := make([]crawlURL, n)
	copy(batch, c.queue[:n])
	c.queue = c.queue[n:]
	return batch
}

// enqueue appends a frontier entry unless the URL is already known or the
// frontier growth cap (2x the page budget) is reached.
func (c *Crawler) enqueue(item crawlURL) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue)+c.visitedCount >= c.config.MaxPages*2 {
		return false
	}
	if _, loaded := c.visited.LoadOrStore(URLFingerprint(item.url), true); loaded {
		return false
	}
	c.visitedCount++
	c.queue = append(c.queue, item)
	c.stats.TotalQueued.Add(1)
	return true
}

// crawlOne fetches a single frontier entry and enqueues its internal links.
// Returns nil when the URL was skipped (scope, depth, robots, filters).
func (c *Crawler) crawlOne(ctx context.Context, item crawlURL, domain string) *PageData {
	parsed, err := url.Parse(item.url)
	if err != nil {
		c.stats.TotalSkipped.Add(1)
		return nil
	}
	if !isInternalHost(parsed.Host, domain, !c.config.ExcludeSubdomains) {
		c.stats.TotalSkipped.Add(1)
		return nil
	}
	if item.depth > c.config.MaxDepth {
		c.stats.TotalSkipped.Add(1)
		return nil
	}
	if !c.config.allowedByFilters(item.url) {
		c.stats.TotalSkipped.Add(1)
		return nil
	}
	c.robots.Load(ctx, item.url)
	if !c.robots.Allowed(item.url) {
		c.stats.TotalSkipped.Add(1)
		return nil
	}

	if err := c.limiters.get(strings.ToLower(parsed.Host)).Acquire(ctx); err != nil {
		return nil
	}

	res := c.fetcher.Fetch(ctx, item.url)
	page := newPageData(item.url, res)
	page.Depth = item.depth
	page.DiscoveredVia = item.via

	if page.StatusCode == StatusConnectionFailed || page.StatusCode == StatusFetchTimeout {
		c.stats.TotalFailed.Add(1)
	}

	if res.StatusCode == 200 && page.IsHTML() && len(res.Body) > 0 {
		body := res.Body

		if c.config.JSRender || c.shouldRender(res) {
			if rendered, _, err := getRenderer().RenderPage(item.url, c.config); err == nil {
				body = []byte(rendered)
				page.PageSizeBytes = len(body)
				page.JSRendered = true
				c.stats.JSRendered.Add(1)
			} else {
				c.logger.Printf("Rendering failed for %s: %v", item.url, err)
			}
		}

		if err := page.parseHTML(body); err != nil {
			c.logger.Printf("HTML parse error for %s: %v", item.url, err)
		}

		if fp := PageFingerprint(body); fp != "" {
			page.ContentHash = fp
			c.fpMu.Lock()
			if c.fingerprints[fp] {
				page.Meta["is_duplicate_content"] = "true"
			}
			c.fingerprints[fp] = true
			c.fpMu.Unlock()
		}

		if item.depth < c.config.MaxDepth {
			for _, link := range page.Links {
				normalized, err := NormalizeURL(link, item.url)
				if err != nil {
					continue
				}
				linkURL, err := url.Parse(normalized)
				if err != nil || !isInternalHost(linkURL.Host, domain, !c.config.ExcludeSubdomains) {
					continue
				}
				c.enqueue(crawlURL{
					url:    normalized,
					depth:  item.depth + 1,
					parent: item.url,
					via:    DiscoveredLink,
				})
			}
		}
	}

	crawled := c.stats.TotalCrawled.Add(1)
	if crawled%100 == 0 {
		snap := c.stats.Snapshot(0)
		c.logger.Printf("Crawl progress: %d crawled, %d queued, %.1f pages/s",
			snap.TotalCrawled, snap.TotalQueued-snap.TotalCrawled, snap.PagesPerSecond)
		if c.onProgress != nil {
			c.onProgress(snap)
		}
	}

	if c.onPageCrawled != nil {
		c.onPageCrawled(page)
	}
	return page
}

// shouldRender decides whether the raw HTTP response needs the headless
// renderer before parsing.
func (c *Crawler) shouldRender(res *fetchResult) bool {
	ct := strings.ToLower(res.Headers.Get("Content-Type"))
	if !strings.Contains(ct, "text/html") {
		return false
	}
	html := string(res.Body)
	return needsRendering(res.StatusCode, html, strings.Count(html, "<p"))
}
