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
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
)

const (
	sitemapFetchTimeout = 15 * time.Second
	// sitemapIndexDepth bounds recursion into nested sitemap index files
	sitemapIndexDepth = 3
	// SitemapSeedCap is the maximum number of sitemap URLs seeded into the
	// crawl frontier
	SitemapSeedCap = 1000
)

// SitemapFetcher discovers and parses XML sitemaps. All failures are
// non-fatal: a site without sitemaps simply yields no seeds.
type SitemapFetcher struct {
	userAgent string
	client    *http.Client
}

// NewSitemapFetcher creates a fetcher using client for sitemap requests.
func NewSitemapFetcher(userAgent string, client *http.Client) *SitemapFetcher {
	if client == nil {
		client = &http.Client{Timeout: sitemapFetchTimeout}
	}
	return &SitemapFetcher{userAgent: userAgent, client: client}
}

// Discover collects page URLs from explicit sitemap locations, robots.txt
// Sitemap directives, and the default candidate paths, in that order.
// Duplicates are collapsed; the result is capped at SitemapSeedCap entries.
func (s *SitemapFetcher) Discover(ctx context.Context, rootURL string, explicit, fromRobots []string) []string {
	parsed, err := url.Parse(rootURL)
	if err != nil {
		return nil
	}
	base := parsed.Scheme + "://" + parsed.Host

	candidates := make([]string, 0, len(explicit)+len(fromRobots)+3)
	candidates = append(candidates, explicit...)
	candidates = append(candidates, fromRobots...)
	candidates = append(candidates,
		base+"/sitemap.xml",
		base+"/sitemap_index.xml",
		base+"/sitemap/sitemap.xml",
	)

	seen := make(map[string]bool)
	tried := make(map[string]bool)
	var out []string
	for _, c := range candidates {
		if tried[c] {
			continue
		}
		tried[c] = true
		for _, u := range s.fetch(ctx, c, 0) {
			if !seen[u] {
				seen[u] = true
				out = append(out, u)
				if len(out) >= SitemapSeedCap {
					return out
				}
			}
		}
	}
	return out
}

// fetch retrieves and parses a single sitemap document, recursing into
// sitemap index entries up to sitemapIndexDepth.
func (s *SitemapFetcher) fetch(ctx context.Context, sitemapURL string, depth int) []string {
	if depth > sitemapIndexDepth {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, sitemapFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil
	}
	return s.parse(ctx, body, depth)
}

func (s *SitemapFetcher) parse(ctx context.Context, body []byte, depth int) []string {
	doc, err := xmlquery.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil
	}

	// Index files point at nested sitemaps rather than pages
	if index := xmlquery.FindOne(doc, "//sitemapindex"); index != nil {
		var urls []string
		for _, loc := range xmlquery.Find(doc, "//sitemapindex/sitemap/loc") {
			nested := strings.TrimSpace(loc.InnerText())
			if nested == "" {
				continue
			}
			urls = append(urls, s.fetch(ctx, nested, depth+1)...)
		}
		return urls
	}

	var urls []string
	for _, loc := range xmlquery.Find(doc, "//urlset/url/loc") {
		if u := strings.TrimSpace(loc.InnerText()); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
