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
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// chromedpRenderer renders JS-heavy pages with headless Chrome. The audit
// fetcher escalates to it when the plain HTTP response looks like an
// unrendered client-side app.
type chromedpRenderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
}

var (
	globalRenderer     *chromedpRenderer
	globalRendererOnce sync.Once
)

// getRenderer returns the shared renderer instance. One browser process is
// reused across all audits; each render gets its own tab context.
func getRenderer() *chromedpRenderer {
	globalRendererOnce.Do(func() {
		globalRenderer = &chromedpRenderer{
			timeout: 30 * time.Second,
		}
		globalRenderer.init()
	})
	return globalRenderer
}

func (r *chromedpRenderer) init() {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// Close cleans up the renderer resources
func (r *chromedpRenderer) Close() {
	if r.allocCancel != nil {
		r.allocCancel()
	}
}

// RenderPage renders url and returns the stabilized DOM plus the URLs of all
// network requests observed during the render. Parallelism is bounded by the
// crawl worker pool; each browser context consumes roughly 100-200MB RAM.
func (r *chromedpRenderer) RenderPage(url string, cfg *CrawlConfig) (string, []string, error) {
	ctx, cancel := chromedp.NewContext(r.allocCtx)
	defer cancel()

	timeout := r.timeout
	if cfg != nil && cfg.JSRenderTimeout > 0 {
		timeout = cfg.JSRenderTimeout
	}
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	initialWait, scrollWait, finalWait := 1500, 2000, 1000
	if cfg != nil {
		if cfg.InitialWaitMs > 0 {
			initialWait = cfg.InitialWaitMs
		}
		if cfg.ScrollWaitMs > 0 {
			scrollWait = cfg.ScrollWaitMs
		}
		if cfg.FinalWaitMs > 0 {
			finalWait = cfg.FinalWaitMs
		}
	}

	var htmlContent string
	discoveredURLs := make(map[string]bool)
	var mu sync.Mutex

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *network.EventRequestWillBeSent:
			requestURL := ev.Request.URL
			if requestURL != "" && requestURL != url {
				mu.Lock()
				discoveredURLs[requestURL] = true
				mu.Unlock()
			}
		}
	})

	err := chromedp.Run(ctx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Let client-side routing and hydration settle before scraping
		chromedp.Sleep(time.Duration(initialWait)*time.Millisecond),
		// Scroll to the bottom to trigger lazy-loaded content
		chromedp.Evaluate(`window.scrollTo({top: document.body.scrollHeight, behavior: 'smooth'})`, nil),
		chromedp.Sleep(time.Duration(scrollWait)*time.Millisecond),
		chromedp.Evaluate(`window.scrollTo({top: 0, behavior: 'smooth'})`, nil),
		chromedp.Sleep(time.Duration(finalWait)*time.Millisecond),
		chromedp.OuterHTML("html", &htmlContent, chromedp.ByQuery),
	)

	if err != nil {
		return "", nil, fmt.Errorf("chromedp rendering failed: %w", err)
	}

	urls := make([]string, 0, len(discoveredURLs))
	for discoveredURL := range discoveredURLs {
		urls = append(urls, discoveredURL)
	}

	return htmlContent, urls, nil
}

// CloseGlobalRenderer closes the shared renderer. Called on process shutdown.
func CloseGlobalRenderer() {
	if globalRenderer != nil {
		globalRenderer.Close()
	}
}

// jsIndicators are substrings whose presence in a raw HTML response suggests
// the page is a client-side app whose real content only exists after render.
var jsIndicators = []string{
	"application/javascript",
	"__NEXT_DATA__",
	"window.__data",
	"ng-version",
	"data-reactroot",
	"Vue.createApp",
	"nuxt",
}

// needsRendering heuristically decides whether a fetched page should be
// re-fetched through the headless renderer.
func needsRendering(statusCode int, html string, paragraphCount int) bool {
	if statusCode == StatusConnectionFailed {
		return false
	}
	if html == "" {
		return false
	}
	for _, indicator := range jsIndicators {
		if strings.Contains(html, indicator) {
			return true
		}
	}
	// A non-trivial document with zero <p> elements is usually an app shell
	return len(html) > 1000 && paragraphCount == 0
}
