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

// Test server for manually exercising the audit pipeline. Serves a small
// fixture site with deliberate SEO defects: missing and duplicate titles,
// missing H1s, thin content, a redirect chain, a broken link, and mixed
// content, plus robots.txt and a sitemap.
//
// Usage:
//
//	bluefin-testserver [-port 9090]
//	bluefin audit http://localhost:9090
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
)

func page(title, h1, body string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head>")
	if title != "" {
		b.WriteString("<title>" + title + "</title>")
		b.WriteString(`<meta name="description" content="Fixture page for audit testing with a description long enough to pass the length checks applied by the on-page engine.">`)
	}
	b.WriteString("</head><body>")
	if h1 != "" {
		b.WriteString("<h1>" + h1 + "</h1>")
	}
	b.WriteString(body)
	b.WriteString(`<nav><a href="/">Home</a> <a href="/about">About</a> <a href="/products">Products</a> <a href="/blog">Blog</a> <a href="/thin">Thin</a> <a href="/no-title">No title</a> <a href="/dup-a">Dup A</a> <a href="/dup-b">Dup B</a> <a href="/old-page">Old</a> <a href="/missing">Missing</a> <a href="/mixed">Mixed</a></nav>`)
	b.WriteString("</body></html>")
	return b.String()
}

func paragraphs(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<p>Paragraph %d of fixture copy with enough running text that word counts land comfortably above the thin content threshold used by the analyzer when every paragraph repeats like this one does.</p>", i+1)
	}
	return b.String()
}

func main() {
	port := flag.Int("port", 9090, "Port to serve the fixture site on")
	flag.Parse()

	mux := http.NewServeMux()

	serve := func(path, html string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if path == "/" && r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, html)
		})
	}

	serve("/", page("Fixture Home - BlueFin Test Site", "Welcome to the fixture site", paragraphs(12)))
	serve("/about", page("About the Fixture Site", "About us", paragraphs(10)))
	serve("/products", page("Products", "Products", "<h1>Second heading</h1>"+paragraphs(10)+`<img src="/img/product.png">`))
	serve("/blog", page("Blog - long enough title for the checks to pass here", "", paragraphs(14)))
	serve("/thin", page("Thin Page With An Adequately Long Title", "Thin", "<p>Barely any content here.</p>"))
	serve("/no-title", page("", "Untitled page", paragraphs(8)))
	serve("/dup-a", page("Duplicate Title Shared By Two Pages", "Dup A", paragraphs(9)))
	serve("/dup-b", page("Duplicate Title Shared By Two Pages", "Dup B", paragraphs(9)))
	serve("/mixed", page("Mixed Content Page Title Right Here", "Mixed", `<img src="http://insecure.example.com/pixel.gif">`+paragraphs(8)))

	// Two-hop redirect chain
	mux.HandleFunc("/old-page", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/older-page", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/older-page", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/about", http.StatusMovedPermanently)
	})

	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "User-agent: *\nDisallow: /admin/\nSitemap: http://localhost:%d/sitemap.xml\n", *port)
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>http://localhost:%[1]d/</loc></url>
  <url><loc>http://localhost:%[1]d/about</loc></url>
  <url><loc>http://localhost:%[1]d/products</loc></url>
  <url><loc>http://localhost:%[1]d/blog</loc></url>
</urlset>`, *port)
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Fixture site listening on http://localhost%s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}
