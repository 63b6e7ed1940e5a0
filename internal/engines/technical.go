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

package engines

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"

	"github.com/agentberlin/bluefin"
	"github.com/agentberlin/bluefin/internal/rules"
)

// technicalCheckCount is the number of distinct checks this engine runs,
// used to normalize the category score.
const technicalCheckCount = 10

var mixedContentPattern = regexp.MustCompile(`(?i)(src|href|action)\s*=\s*["']http://`)

var paginationMarkers = []string{"/page/", "?page=", "&page=", "/p/", "?p="}

// TechnicalEngine checks protocol and indexability hygiene: HTTPS adoption,
// mixed content, redirect chains, noindex directives, host consistency,
// pagination markup, robots.txt and sitemap presence, and HSTS.
type TechnicalEngine struct{}

func NewTechnicalEngine() *TechnicalEngine { return &TechnicalEngine{} }

func (e *TechnicalEngine) Name() string       { return "technical" }
func (e *TechnicalEngine) Category() Category { return CategoryTechnical }

func (e *TechnicalEngine) Analyze(_ context.Context, site *bluefin.CrawlResult) (*Result, error) {
	pages := site.Pages
	totalPages := len(pages)
	if totalPages == 0 {
		totalPages = 1
	}
	issues := []Issue{}

	var httpPages, mixedContent, redirectChains, xrobotsNoindex, metaNoindex []string
	var paginationNoRel []string
	hosts := map[string]bool{}
	httpsPages := 0

	for _, p := range pages {
		if u, err := url.Parse(p.URL); err == nil && u.Host != "" {
			hosts[strings.ToLower(u.Host)] = true
		}
		if strings.HasPrefix(p.URL, "https://") {
			httpsPages++
		}
		if p.StatusCode != 200 {
			continue
		}
		if strings.HasPrefix(p.URL, "http://") {
			httpPages = append(httpPages, p.URL)
		}
		if strings.HasPrefix(p.URL, "https://") && mixedContentPattern.MatchString(p.HTML) {
			mixedContent = append(mixedContent, p.URL)
		}
		if p.RedirectHops > 1 {
			redirectChains = append(redirectChains, p.URL)
		}
		if xr := p.Headers.Get("X-Robots-Tag"); strings.Contains(strings.ToLower(xr), "noindex") {
			xrobotsNoindex = append(xrobotsNoindex, p.URL)
		}
		if strings.Contains(strings.ToLower(p.Meta["robots"]), "noindex") ||
			strings.Contains(strings.ToLower(p.Meta["googlebot"]), "noindex") {
			metaNoindex = append(metaNoindex, p.URL)
		}
		if isPaginatedURL(p.URL) && !hasPaginationRel(p.HTML) {
			paginationNoRel = append(paginationNoRel, p.URL)
		}
	}

	if n := len(httpPages); n > 0 {
		issues = append(issues, Issue{
			ID:               "tech-http-pages",
			Name:             "Pages served over HTTP",
			Description:      fmt.Sprintf("%d pages are served without TLS", n),
			Category:         CategoryTechnical,
			Severity:         SeverityCritical,
			AffectedURLs:     capURLs(httpPages),
			AffectedCount:    n,
			ImpactScore:      rules.CalculateImpactScore(90, rules.SeverityCritical, n, totalPages),
			EffortScore:      6,
			Recommendation:   "Migrate all pages to HTTPS and 301-redirect the HTTP versions",
			DocumentationURL: "https://developers.google.com/search/docs/crawling-indexing/http-https",
		})
	}
	if n := len(mixedContent); n > 0 {
		issues = append(issues, Issue{
			ID:             "tech-mixed-content",
			Name:           "Mixed content on HTTPS pages",
			Description:    fmt.Sprintf("%d HTTPS pages reference http:// resources", n),
			Category:       CategoryTechnical,
			Severity:       SeverityHigh,
			AffectedURLs:   capURLs(mixedContent),
			AffectedCount:  n,
			ImpactScore:    rules.CalculateImpactScore(70, rules.SeverityHigh, n, totalPages),
			EffortScore:    4,
			Recommendation: "Rewrite insecure resource URLs to https:// or protocol-relative form",
		})
	}
	if n := len(redirectChains); n > 0 {
		issues = append(issues, Issue{
			ID:             "tech-redirect-chains",
			Name:           "Redirect chains",
			Description:    fmt.Sprintf("%d pages are reached through more than one redirect hop", n),
			Category:       CategoryTechnical,
			Severity:       SeverityMedium,
			AffectedURLs:   capURLs(redirectChains),
			AffectedCount:  n,
			ImpactScore:    rules.CalculateImpactScore(55, rules.SeverityMedium, n, totalPages),
			EffortScore:    3,
			Recommendation: "Point internal links and redirects directly at the final URL",
		})
	}
	if n := len(xrobotsNoindex); n > 0 {
		issues = append(issues, Issue{
			ID:             "tech-xrobots-noindex",
			Name:           "Noindex via X-Robots-Tag header",
			Description:    fmt.Sprintf("%d pages send a noindex X-Robots-Tag header", n),
			Category:       CategoryTechnical,
			Severity:       SeverityHigh,
			AffectedURLs:   capURLs(xrobotsNoindex),
			AffectedCount:  n,
			ImpactScore:    rules.CalculateImpactScore(75, rules.SeverityHigh, n, totalPages),
			EffortScore:    2,
			Recommendation: "Remove the header from pages that should rank",
		})
	}
	if n := len(metaNoindex); n > 0 {
		issues = append(issues, Issue{
			ID:             "tech-meta-noindex",
			Name:           "Noindex via robots meta tag",
			Description:    fmt.Sprintf("%d pages carry a noindex robots meta tag", n),
			Category:       CategoryTechnical,
			Severity:       SeverityHigh,
			AffectedURLs:   capURLs(metaNoindex),
			AffectedCount:  n,
			ImpactScore:    rules.CalculateImpactScore(75, rules.SeverityHigh, n, totalPages),
			EffortScore:    2,
			Recommendation: "Remove the noindex directive from pages that should rank",
		})
	}
	if issue := wwwConsistencyIssue(hosts); issue != nil {
		issues = append(issues, *issue)
	}
	if n := len(paginationNoRel); n > 0 {
		issues = append(issues, Issue{
			ID:             "tech-missing-pagination-rel",
			Name:           "Paginated pages without rel links",
			Description:    fmt.Sprintf("%d paginated pages declare no rel=next/prev links", n),
			Category:       CategoryTechnical,
			Severity:       SeverityLow,
			AffectedURLs:   capURLs(paginationNoRel),
			AffectedCount:  n,
			ImpactScore:    25,
			EffortScore:    3,
			Recommendation: "Add rel=next/prev link tags so crawlers understand the sequence",
		})
	}
	if site.RobotsTxt == "" {
		issues = append(issues, Issue{
			ID:             "tech-missing-robots-txt",
			Name:           "Missing robots.txt",
			Description:    "The site serves no robots.txt file",
			Category:       CategoryTechnical,
			Severity:       SeverityMedium,
			AffectedURLs:   []string{site.RootURL},
			AffectedCount:  1,
			ImpactScore:    45,
			EffortScore:    1,
			Recommendation: "Publish a robots.txt declaring crawl rules and the sitemap location",
		})
	}
	if len(site.SitemapURLs) == 0 {
		issues = append(issues, Issue{
			ID:             "tech-missing-sitemap",
			Name:           "No XML sitemap found",
			Description:    "No sitemap was discoverable at the standard locations or via robots.txt",
			Category:       CategoryTechnical,
			Severity:       SeverityMedium,
			AffectedURLs:   []string{site.RootURL},
			AffectedCount:  1,
			ImpactScore:    40,
			EffortScore:    2,
			Recommendation: "Publish an XML sitemap and reference it from robots.txt",
		})
	}
	if issue := hstsIssue(pages); issue != nil {
		issues = append(issues, *issue)
	}

	score := rules.CalculateCategoryScore(issueStats(issues), technicalCheckCount, len(pages))
	return &Result{
		Engine:   e.Name(),
		Category: CategoryTechnical,
		Status:   StatusSuccess,
		Score:    score,
		Issues:   issues,
		Metadata: map[string]any{
			"https_coverage": rules.Round2(float64(httpsPages) / float64(totalPages) * 100),
			"noindex_count":  len(metaNoindex) + len(xrobotsNoindex),
		},
	}, nil
}

func isPaginatedURL(u string) bool {
	for _, marker := range paginationMarkers {
		if strings.Contains(u, marker) {
			return true
		}
	}
	return false
}

// hasPaginationRel looks for <link rel="next"> or <link rel="prev"> in the
// document head.
func hasPaginationRel(html string) bool {
	doc, err := htmlquery.Parse(strings.NewReader(html))
	if err != nil {
		return false
	}
	return htmlquery.FindOne(doc, `//link[@rel='next' or @rel='prev']`) != nil
}

// wwwConsistencyIssue fires when crawled pages span both www and bare hosts.
func wwwConsistencyIssue(hosts map[string]bool) *Issue {
	for host := range hosts {
		var counterpart string
		if strings.HasPrefix(host, "www.") {
			counterpart = strings.TrimPrefix(host, "www.")
		} else {
			counterpart = "www." + host
		}
		if hosts[counterpart] {
			return &Issue{
				ID:             "tech-www-consistency",
				Name:           "Inconsistent www usage",
				Description:    "Pages were crawled on both the www and bare hostname",
				Category:       CategoryTechnical,
				Severity:       SeverityMedium,
				AffectedURLs:   []string{host, counterpart},
				AffectedCount:  2,
				ImpactScore:    50,
				EffortScore:    3,
				Recommendation: "Pick one canonical host and 301-redirect the other",
			}
		}
	}
	return nil
}

// hstsIssue samples the first ten successful pages. If more than half of
// the HTTPS pages in the sample lack Strict-Transport-Security, it fires.
func hstsIssue(pages []*bluefin.PageData) *Issue {
	var sample []*bluefin.PageData
	for _, p := range pages {
		if p.StatusCode == 200 {
			sample = append(sample, p)
			if len(sample) == 10 {
				break
			}
		}
	}
	httpsSampled := 0
	var missing []string
	for _, p := range sample {
		if !strings.HasPrefix(p.URL, "https://") {
			continue
		}
		httpsSampled++
		if p.Headers.Get("Strict-Transport-Security") == "" {
			missing = append(missing, p.URL)
		}
	}
	if httpsSampled == 0 || float64(len(missing))/float64(httpsSampled) <= 0.5 {
		return nil
	}
	return &Issue{
		ID:             "tech-missing-hsts",
		Name:           "HSTS not enabled",
		Description:    "Most sampled HTTPS pages are served without a Strict-Transport-Security header",
		Category:       CategoryTechnical,
		Severity:       SeverityLow,
		AffectedURLs:   capURLs(missing),
		AffectedCount:  len(missing),
		ImpactScore:    20,
		EffortScore:    2,
		Recommendation: "Send a Strict-Transport-Security header on every HTTPS response",
	}
}
