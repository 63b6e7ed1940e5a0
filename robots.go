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
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

const robotsFetchTimeout = 10 * time.Second

// RobotsPolicy fetches and caches robots.txt per host and answers
// allow/disallow queries. A missing or unreachable robots.txt allows
// everything and is surfaced to the technical engine via Missing.
type RobotsPolicy struct {
	mode      RobotsMode
	userAgent string
	client    *http.Client

	mu      sync.Mutex
	entries map[string]*robotsEntry
}

type robotsEntry struct {
	data    *robotstxt.RobotsData
	raw     string
	missing bool
}

// NewRobotsPolicy creates a policy using client for robots.txt fetches.
func NewRobotsPolicy(mode RobotsMode, userAgent string, client *http.Client) *RobotsPolicy {
	if client == nil {
		client = &http.Client{Timeout: robotsFetchTimeout}
	}
	return &RobotsPolicy{
		mode:      mode,
		userAgent: userAgent,
		client:    client,
		entries:   make(map[string]*robotsEntry),
	}
}

// Load fetches robots.txt for the host of u if not already cached.
func (r *RobotsPolicy) Load(ctx context.Context, u string) {
	parsed, err := url.Parse(u)
	if err != nil {
		return
	}
	host := strings.ToLower(parsed.Host)

	r.mu.Lock()
	if _, ok := r.entries[host]; ok {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	entry := r.fetch(ctx, parsed.Scheme, host)

	r.mu.Lock()
	r.entries[host] = entry
	r.mu.Unlock()
}

func (r *RobotsPolicy) fetch(ctx context.Context, scheme, host string) *robotsEntry {
	robotsURL := scheme + "://" + host + "/robots.txt"

	ctx, cancel := context.WithTimeout(ctx, robotsFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return &robotsEntry{missing: true}
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return &robotsEntry{missing: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || resp.StatusCode != http.StatusOK {
		return &robotsEntry{missing: true}
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return &robotsEntry{missing: true}
	}
	return &robotsEntry{data: data, raw: string(body)}
}

// Allowed reports whether u may be fetched under the configured mode.
func (r *RobotsPolicy) Allowed(u string) bool {
	if r.mode == RobotsIgnore {
		return true
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return true
	}

	r.mu.Lock()
	entry := r.entries[strings.ToLower(parsed.Host)]
	r.mu.Unlock()

	if entry == nil || entry.missing || entry.data == nil {
		return true
	}
	path := parsed.Path
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	return entry.data.FindGroup(r.userAgent).Test(path)
}

// CrawlDelay returns the crawl-delay for host, or 0 when none applies.
func (r *RobotsPolicy) CrawlDelay(host string) time.Duration {
	r.mu.Lock()
	entry := r.entries[strings.ToLower(host)]
	r.mu.Unlock()

	if entry == nil || entry.data == nil {
		return 0
	}
	return entry.data.FindGroup(r.userAgent).CrawlDelay
}

// SitemapURLs returns the Sitemap directives declared for host.
func (r *RobotsPolicy) SitemapURLs(host string) []string {
	r.mu.Lock()
	entry := r.entries[strings.ToLower(host)]
	r.mu.Unlock()

	if entry == nil || entry.data == nil {
		return nil
	}
	return entry.data.Sitemaps
}

// Raw returns the cached robots.txt body for host. Empty when the file was
// missing or unreachable.
func (r *RobotsPolicy) Raw(host string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry := r.entries[strings.ToLower(host)]; entry != nil {
		return entry.raw
	}
	return ""
}

// Missing reports whether robots.txt could not be retrieved for host.
func (r *RobotsPolicy) Missing(host string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry := r.entries[strings.ToLower(host)]; entry != nil {
		return entry.missing
	}
	return true
}
