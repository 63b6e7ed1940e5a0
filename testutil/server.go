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

// Package testutil provides shared test utilities for bluefin tests: an
// httptest fixture site with known SEO defects so crawler, engine, and
// audit tests can assert against deterministic content.
package testutil

import (
	"compress/gzip"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"
)

// RobotsFile is the default robots.txt served by the fixture site.
var RobotsFile = `
User-agent: *
Allow: /allowed
Disallow: /disallowed
Disallow: /admin/
`

// Page builds a minimal HTML page. Empty title or h1 omits the element,
// which is how the fixture site manufactures on-page issues.
func Page(title, h1, body string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head>")
	if title != "" {
		b.WriteString("<title>" + title + "</title>")
		b.WriteString(`<meta name="description" content="A fixture page description that is comfortably inside the recommended length band for meta descriptions on every page.">`)
	}
	b.WriteString("</head><body>")
	if h1 != "" {
		b.WriteString("<h1>" + h1 + "</h1>")
	}
	b.WriteString(body)
	b.WriteString("</body></html>")
	return b.String()
}

// Paragraphs returns n filler paragraphs, roughly 30 words each.
func Paragraphs(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<p>Fixture paragraph number %d with enough plain running text that pages composed of a dozen of these land well above the thin content word count threshold used in analysis.</p>", i+1)
	}
	return b.String()
}

func html(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(body))
}

// NewUnstartedTestServer creates an unstarted fixture site. Relative links
// keep the whole site crawlable from "/".
func NewUnstartedTestServer() *httptest.Server {
	mux := http.NewServeMux()

	nav := `<nav><a href="/about">About</a> <a href="/thin">Thin</a> <a href="/no-title">No title</a> <a href="/dup-a">A</a> <a href="/dup-b">B</a> <a href="/redirect-start">Old</a> <a href="/missing">Missing</a> <a href="/500">Broken</a> <a href="/disallowed">Hidden</a></nav>`

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(Page("Not Found", "Not found", "<p>missing</p>")))
			return
		}
		html(w, Page("Fixture Home Page With A Sensible Title", "Welcome", Paragraphs(12)+nav))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		html(w, Page("About The Fixture Site And Its Purpose", "About", Paragraphs(11)+`<link rel="canonical" href="`+schemeHost(r)+`/about">`))
	})
	mux.HandleFunc("/thin", func(w http.ResponseWriter, r *http.Request) {
		html(w, Page("Thin Content Page With An Adequate Title", "Thin", "<p>Barely any words here.</p>"))
	})
	mux.HandleFunc("/no-title", func(w http.ResponseWriter, r *http.Request) {
		html(w, Page("", "No title page", Paragraphs(10)))
	})
	// Byte-identical bodies on two URLs, for duplicate-content detection
	dup := Page("Duplicate Title Shared Between Two Pages", "Duplicate heading", Paragraphs(10))
	mux.HandleFunc("/dup-a", func(w http.ResponseWriter, r *http.Request) {
		html(w, dup)
	})
	mux.HandleFunc("/dup-b", func(w http.ResponseWriter, r *http.Request) {
		html(w, dup)
	})

	mux.HandleFunc("/allowed", func(w http.ResponseWriter, r *http.Request) {
		html(w, Page("Allowed Page Title Of A Reasonable Length", "Allowed", Paragraphs(10)))
	})
	mux.HandleFunc("/disallowed", func(w http.ResponseWriter, r *http.Request) {
		html(w, Page("Disallowed By Robots But Served Anyway", "Disallowed", Paragraphs(10)))
	})
	mux.HandleFunc("/admin/panel", func(w http.ResponseWriter, r *http.Request) {
		html(w, Page("Admin Panel Should Never Be Crawled", "Admin", Paragraphs(5)))
	})

	// Two-hop chain ending on /about
	mux.HandleFunc("/redirect-start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/redirect-middle", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/redirect-middle", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/about", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/redirect-loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/redirect-loop", http.StatusFound)
	})

	mux.HandleFunc("/500", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<p>error</p>"))
	})

	mux.HandleFunc("/noindex-header", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Robots-Tag", "noindex, nofollow")
		html(w, Page("Header Noindex Page With A Fitting Title", "Noindex", Paragraphs(10)))
	})
	mux.HandleFunc("/noindex-meta", func(w http.ResponseWriter, r *http.Request) {
		html(w, `<!DOCTYPE html><html><head><title>Meta Noindex Page With A Fitting Title</title><meta name="robots" content="noindex"></head><body><h1>Hidden</h1>`+Paragraphs(10)+`</body></html>`)
	})

	mux.HandleFunc("/gzipped", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		gz.Write([]byte(Page("Gzipped Page With A Perfectly Fine Title", "Gzipped", Paragraphs(10))))
	})

	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
			html(w, Page("Slow Page That Eventually Responds Fine", "Slow", Paragraphs(10)))
		}
	})

	mux.HandleFunc("/user_agent", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get("User-Agent")))
	})

	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(RobotsFile))
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		base := schemeHost(r)
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%[1]s/</loc></url>
  <url><loc>%[1]s/about</loc></url>
  <url><loc>%[1]s/allowed</loc></url>
</urlset>`, base)
	})

	return httptest.NewUnstartedServer(mux)
}

// NewTestServer creates and starts the fixture site.
func NewTestServer() *httptest.Server {
	srv := NewUnstartedTestServer()
	srv.Start()
	return srv
}

func schemeHost(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
