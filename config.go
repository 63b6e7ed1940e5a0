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
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

// RobotsMode controls how robots.txt directives are handled during a crawl.
type RobotsMode string

const (
	// RobotsRespect obeys disallow rules and crawl-delay (default)
	RobotsRespect RobotsMode = "respect"
	// RobotsIgnore fetches robots.txt for reporting but does not enforce it
	RobotsIgnore RobotsMode = "ignore"
)

// CrawlConfig holds every knob of the crawl engine. Zero values are filled in
// by NewDefaultCrawlConfig; partial configs can be merged over the defaults
// with mergeCrawlConfig.
type CrawlConfig struct {
	// UserAgent is the User-Agent string used by the fetcher and matched
	// against robots.txt groups
	UserAgent string
	// MaxPages caps the number of pages fetched in a single audit crawl
	MaxPages int
	// MaxDepth is the BFS depth limit. The seed URL is depth 0, sitemap
	// seeds are depth 1.
	MaxDepth int
	// Concurrency is the number of fetch workers. Batches of up to
	// 2*Concurrency URLs are in flight at once.
	Concurrency int
	// RateLimitRPS is the steady per-host request rate. A robots.txt
	// crawl-delay replaces it with 1/delay.
	RateLimitRPS float64
	// RequestTimeout bounds a single fetch including redirects
	RequestTimeout time.Duration
	// RobotsMode selects robots.txt enforcement behavior
	RobotsMode RobotsMode
	// ExcludeSubdomains narrows the audit scope to the exact root host.
	// By default subdomains of the root domain are in scope.
	ExcludeSubdomains bool
	// JSRender forces headless rendering of every page instead of the
	// automatic escalation heuristic
	JSRender bool
	// JSRenderTimeout bounds a single headless render
	JSRenderTimeout time.Duration
	// InitialWaitMs is the post-navigation settle time for rendered pages
	InitialWaitMs int
	// ScrollWaitMs is the wait after the lazy-load scroll pass
	ScrollWaitMs int
	// FinalWaitMs is the wait before the rendered DOM snapshot is taken
	FinalWaitMs int
	// SitemapDiscovery toggles seeding the frontier from XML sitemaps
	SitemapDiscovery bool
	// SitemapURLs are explicit sitemap locations tried before the default
	// candidates
	SitemapURLs []string
	// URLFilters restricts crawling to URLs matching at least one glob
	// pattern. Empty means no restriction.
	URLFilters []string
	// DisallowedURLFilters skips URLs matching any glob pattern
	DisallowedURLFilters []string
	// DetectCharset enables character encoding detection for non-utf8
	// response bodies without explicit charset declaration. This feature
	// uses https://github.com/saintfish/chardet
	DetectCharset bool

	urlFilters        []glob.Glob
	disallowedFilters []glob.Glob
}

// NewDefaultCrawlConfig returns the production defaults for the crawl engine.
func NewDefaultCrawlConfig() *CrawlConfig {
	return &CrawlConfig{
		UserAgent:        "BlueFinBot/1.0 (+https://agentberlin.ai/bluefin-bot)",
		MaxPages:         50000,
		MaxDepth:         10,
		Concurrency:      20,
		RateLimitRPS:     5.0,
		RequestTimeout:   30 * time.Second,
		RobotsMode:       RobotsRespect,
		JSRenderTimeout:  15 * time.Second,
		InitialWaitMs:    1000,
		ScrollWaitMs:     500,
		FinalWaitMs:      500,
		SitemapDiscovery: true,
		DetectCharset:    true,
	}
}

// mergeCrawlConfig overlays the non-zero fields of override on top of base
// and returns base.
func mergeCrawlConfig(base, override *CrawlConfig) *CrawlConfig {
	if override == nil {
		return base
	}
	if override.UserAgent != "" {
		base.UserAgent = override.UserAgent
	}
	if override.MaxPages > 0 {
		base.MaxPages = override.MaxPages
	}
	if override.MaxDepth > 0 {
		base.MaxDepth = override.MaxDepth
	}
	if override.Concurrency > 0 {
		base.Concurrency = override.Concurrency
	}
	if override.RateLimitRPS > 0 {
		base.RateLimitRPS = override.RateLimitRPS
	}
	if override.RequestTimeout > 0 {
		base.RequestTimeout = override.RequestTimeout
	}
	if override.RobotsMode != "" {
		base.RobotsMode = override.RobotsMode
	}
	if override.JSRenderTimeout > 0 {
		base.JSRenderTimeout = override.JSRenderTimeout
	}
	if override.InitialWaitMs > 0 {
		base.InitialWaitMs = override.InitialWaitMs
	}
	if override.ScrollWaitMs > 0 {
		base.ScrollWaitMs = override.ScrollWaitMs
	}
	if override.FinalWaitMs > 0 {
		base.FinalWaitMs = override.FinalWaitMs
	}
	if len(override.SitemapURLs) > 0 {
		base.SitemapURLs = override.SitemapURLs
	}
	if len(override.URLFilters) > 0 {
		base.URLFilters = override.URLFilters
	}
	if len(override.DisallowedURLFilters) > 0 {
		base.DisallowedURLFilters = override.DisallowedURLFilters
	}
	base.ExcludeSubdomains = base.ExcludeSubdomains || override.ExcludeSubdomains
	base.JSRender = base.JSRender || override.JSRender
	base.DetectCharset = base.DetectCharset || override.DetectCharset
	return base
}

// compileFilters compiles the glob URL filters once per crawl. Invalid
// patterns are dropped rather than failing the crawl.
func (c *CrawlConfig) compileFilters() {
	c.urlFilters = c.urlFilters[:0]
	for _, p := range c.URLFilters {
		if g, err := glob.Compile(p); err == nil {
			c.urlFilters = append(c.urlFilters, g)
		}
	}
	c.disallowedFilters = c.disallowedFilters[:0]
	for _, p := range c.DisallowedURLFilters {
		if g, err := glob.Compile(p); err == nil {
			c.disallowedFilters = append(c.disallowedFilters, g)
		}
	}
}

// allowedByFilters reports whether u passes the include/exclude glob filters.
func (c *CrawlConfig) allowedByFilters(u string) bool {
	for _, g := range c.disallowedFilters {
		if g.Match(u) {
			return false
		}
	}
	if len(c.urlFilters) == 0 {
		return true
	}
	for _, g := range c.urlFilters {
		if g.Match(u) {
			return true
		}
	}
	return false
}

// parseCrawlConfigFromEnv applies BLUEFIN_* environment overrides in place.
func parseCrawlConfigFromEnv(c *CrawlConfig) {
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "BLUEFIN_") {
			continue
		}
		pair := strings.SplitN(e[8:], "=", 2)
		if len(pair) != 2 {
			continue
		}
		switch pair[0] {
		case "USER_AGENT":
			c.UserAgent = pair[1]
		case "MAX_PAGES":
			if n, err := strconv.Atoi(pair[1]); err == nil && n > 0 {
				c.MaxPages = n
			}
		case "MAX_DEPTH":
			if n, err := strconv.Atoi(pair[1]); err == nil && n > 0 {
				c.MaxDepth = n
			}
		case "CONCURRENCY":
			if n, err := strconv.Atoi(pair[1]); err == nil && n > 0 {
				c.Concurrency = n
			}
		case "RATE_LIMIT_RPS":
			if f, err := strconv.ParseFloat(pair[1], 64); err == nil && f > 0 {
				c.RateLimitRPS = f
			}
		case "REQUEST_TIMEOUT":
			if d, err := time.ParseDuration(pair[1]); err == nil && d > 0 {
				c.RequestTimeout = d
			}
		case "ROBOTS_MODE":
			if pair[1] == string(RobotsIgnore) {
				c.RobotsMode = RobotsIgnore
			} else {
				c.RobotsMode = RobotsRespect
			}
		case "JS_RENDER":
			c.JSRender = isYesString(pair[1])
		case "DETECT_CHARSET":
			c.DetectCharset = isYesString(pair[1])
		case "EXCLUDE_SUBDOMAINS":
			c.ExcludeSubdomains = isYesString(pair[1])
		}
	}
}

func isYesString(s string) bool {
	switch strings.ToLower(s) {
	case "1", "yes", "true", "y":
		return true
	}
	return false
}
