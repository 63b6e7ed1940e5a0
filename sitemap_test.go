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
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentberlin/bluefin/testutil"
)

func TestSitemapDiscoverDefaultCandidates(t *testing.T) {
	srv := testutil.NewTestServer()
	defer srv.Close()

	s := NewSitemapFetcher("BlueFinBot/1.0", srv.Client())
	urls := s.Discover(context.Background(), srv.URL, nil, nil)

	if len(urls) != 3 {
		t.Fatalf("Discover returned %d URLs, want 3: %v", len(urls), urls)
	}
	want := map[string]bool{
		srv.URL + "/":        true,
		srv.URL + "/about":   true,
		srv.URL + "/allowed": true,
	}
	for _, u := range urls {
		if !want[u] {
			t.Errorf("unexpected sitemap URL %q", u)
		}
	}
}

func TestSitemapDiscoverIndexRecursion(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%s/sitemap-pages.xml</loc></sitemap>
</sitemapindex>`, srv.URL)
	})
	mux.HandleFunc("/sitemap-pages.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%[1]s/page-1</loc></url>
  <url><loc>%[1]s/page-2</loc></url>
</urlset>`, srv.URL)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	s := NewSitemapFetcher("BlueFinBot/1.0", srv.Client())
	urls := s.Discover(context.Background(), srv.URL, nil, nil)
	if len(urls) != 2 {
		t.Fatalf("Discover returned %d URLs, want 2: %v", len(urls), urls)
	}
}

func TestSitemapDiscoverExplicitLocation(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/custom/map.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/hidden-page</loc></url>
</urlset>`, srv.URL)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	s := NewSitemapFetcher("BlueFinBot/1.0", srv.Client())
	urls := s.Discover(context.Background(), srv.URL, []string{srv.URL + "/custom/map.xml"}, nil)
	if len(urls) != 1 || urls[0] != srv.URL+"/hidden-page" {
		t.Errorf("Discover = %v", urls)
	}
}

func TestSitemapDiscoverNoSitemapsIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	s := NewSitemapFetcher("BlueFinBot/1.0", srv.Client())
	if urls := s.Discover(context.Background(), srv.URL, nil, nil); len(urls) != 0 {
		t.Errorf("Discover = %v, want empty", urls)
	}
}

func TestSitemapDiscoverDeduplicates(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	sitemap := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/same-page</loc></url>
</urlset>`, srv.URL)
	}
	mux.HandleFunc("/sitemap.xml", sitemap)
	mux.HandleFunc("/sitemap_index.xml", sitemap)
	srv = httptest.NewServer(mux)
	defer srv.Close()

	s := NewSitemapFetcher("BlueFinBot/1.0", srv.Client())
	urls := s.Discover(context.Background(), srv.URL, nil, nil)
	if len(urls) != 1 {
		t.Errorf("Discover = %v, want deduplicated single entry", urls)
	}
}
