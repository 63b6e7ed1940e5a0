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
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ImageInfo describes one <img> element found on a page.
type ImageInfo struct {
	Src     string `json:"src"`
	Alt     string `json:"alt"`
	Width   string `json:"width,omitempty"`
	Height  string `json:"height,omitempty"`
	Loading string `json:"loading,omitempty"`
}

// PageData is the normalized per-page record passed to every audit engine.
// One PageData exists per frontier URL that was actually fetched, including
// pages that failed with a transport error (synthetic status codes 0/408/310).
type PageData struct {
	// URL is the normalized frontier URL that was requested
	URL string `json:"url"`
	// FinalURL is where the request ended up after redirects
	FinalURL string `json:"final_url"`
	// CanonicalURL is the absolute href of <link rel="canonical">, empty
	// when the page declares none
	CanonicalURL string `json:"canonical_url,omitempty"`

	StatusCode  int         `json:"status_code"`
	ContentType string      `json:"content_type"`
	Headers     http.Header `json:"headers"`

	HTML        string `json:"-"`
	TextContent string `json:"-"`

	// Meta holds lowercased meta tag name/property -> content, plus the
	// derived keys "title", "word_count", "redirect_hops",
	// "images_missing_alt" and "is_duplicate_content"
	Meta map[string]string `json:"meta"`

	Links          []string         `json:"links"`
	Images         []ImageInfo      `json:"images"`
	StructuredData []any `json:"structured_data,omitempty"`

	// H1Count and paragraph count drive onpage checks and the rendering
	// escalation heuristic
	H1Count        int `json:"h1_count"`
	paragraphCount int

	WordCount     int     `json:"word_count"`
	ContentHash   string  `json:"content_hash,omitempty"`
	LoadTimeMs    float64 `json:"load_time_ms"`
	PageSizeBytes int     `json:"page_size_bytes"`
	RedirectHops  int     `json:"redirect_hops"`
	Depth         int     `json:"depth"`
	// DiscoveredVia records how the URL entered the frontier:
	// "seed", "link", or "sitemap"
	DiscoveredVia string    `json:"discovered_via"`
	JSRendered    bool      `json:"js_rendered"`
	CrawledAt     time.Time `json:"crawled_at"`
}

// newPageData builds a PageData shell from a raw fetch.
func newPageData(requestURL string, res *fetchResult) *PageData {
	contentType := ""
	if res.Headers != nil {
		contentType = res.Headers.Get("Content-Type")
	}
	return &PageData{
		URL:           requestURL,
		FinalURL:      res.FinalURL,
		StatusCode:    res.StatusCode,
		ContentType:   contentType,
		Headers:       res.Headers,
		Meta:          map[string]string{},
		LoadTimeMs:    res.LoadTimeMs,
		PageSizeBytes: res.PageSizeBytes,
		RedirectHops:  len(res.RedirectChain),
		CrawledAt:     time.Now(),
	}
}

// IsHTML reports whether the page carries an HTML payload worth parsing.
func (p *PageData) IsHTML() bool {
	return strings.Contains(strings.ToLower(p.ContentType), "text/html")
}

// parseHTML extracts all audit signals from the page body: meta tags, title,
// canonical, links, images, JSON-LD blocks, headings, and visible text.
func (p *PageData) parseHTML(html []byte) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return err
	}
	p.HTML = string(html)

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			name, _ = s.Attr("property")
		}
		content, _ := s.Attr("content")
		if name != "" && content != "" {
			p.Meta[strings.ToLower(name)] = content
		}
	})

	if title := doc.Find("title").First(); title.Length() > 0 {
		p.Meta["title"] = strings.TrimSpace(title.Text())
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok && href != "" {
		if abs, err := urlParser.ParseRef(p.FinalURL, strings.TrimSpace(href)); err == nil {
			p.CanonicalURL = abs.Href(true)
		} else {
			p.CanonicalURL = strings.TrimSpace(href)
		}
	}

	p.Links = p.Links[:0]
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "javascript:") {
			return
		}
		p.Links = append(p.Links, href)
	})

	p.Images = p.Images[:0]
	missingAlt := 0
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		img := ImageInfo{
			Src:     s.AttrOr("src", ""),
			Alt:     s.AttrOr("alt", ""),
			Width:   s.AttrOr("width", ""),
			Height:  s.AttrOr("height", ""),
			Loading: s.AttrOr("loading", ""),
		}
		if img.Alt == "" {
			missingAlt++
		}
		p.Images = append(p.Images, img)
	})
	if missingAlt > 0 {
		p.Meta["images_missing_alt"] = strconv.Itoa(missingAlt)
	}

	p.StructuredData = p.StructuredData[:0]
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		// JSON-LD blocks can be a single object or a top-level array
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err == nil {
			p.StructuredData = append(p.StructuredData, data)
		}
	})

	p.H1Count = doc.Find("h1").Length()
	p.paragraphCount = doc.Find("p").Length()

	p.TextContent = ExtractText(html)
	p.WordCount = len(strings.Fields(p.TextContent))
	p.Meta["word_count"] = strconv.Itoa(p.WordCount)
	p.Meta["redirect_hops"] = strconv.Itoa(p.RedirectHops)

	return nil
}

// RuleInput flattens the page into the nested map shape consumed by the
// declarative rule engine (dot-path field access).
func (p *PageData) RuleInput() map[string]any {
	meta := make(map[string]any, len(p.Meta))
	for k, v := range p.Meta {
		meta[k] = v
	}
	headers := make(map[string]any)
	for k := range p.Headers {
		headers[strings.ToLower(k)] = p.Headers.Get(k)
	}
	links := make([]any, len(p.Links))
	for i, l := range p.Links {
		links[i] = l
	}
	return map[string]any{
		"url":             p.URL,
		"final_url":       p.FinalURL,
		"canonical_url":   p.CanonicalURL,
		"status_code":     p.StatusCode,
		"content_type":    p.ContentType,
		"meta":            meta,
		"headers":         headers,
		"links":           links,
		"h1_count":        p.H1Count,
		"word_count":      p.WordCount,
		"load_time_ms":    p.LoadTimeMs,
		"page_size_bytes": p.PageSizeBytes,
		"redirect_hops":   p.RedirectHops,
		"depth":           p.Depth,
	}
}
