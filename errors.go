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

import "errors"

var (
	// ErrForbiddenURL is the error thrown if the URL is filtered out by the
	// normalizer (non-http scheme, binary extension, or malformed input)
	ErrForbiddenURL = errors.New("forbidden URL")
	// ErrRobotsTxtBlocked is the error type of robots.txt restrictions
	ErrRobotsTxtBlocked = errors.New("URL blocked by robots.txt")
	// ErrMissingURL is the error type for missing URL errors
	ErrMissingURL = errors.New("missing URL")
	// ErrAlreadyVisited is the error type for already visited URLs
	ErrAlreadyVisited = errors.New("URL already visited")
	// ErrOffDomain is the error thrown for URLs outside the audited site
	ErrOffDomain = errors.New("URL outside audit scope")
	// ErrMaxDepth is the error type for exceeding max depth
	ErrMaxDepth = errors.New("max depth limit reached")
	// ErrPageBudgetExhausted is the error thrown once the page budget is spent
	ErrPageBudgetExhausted = errors.New("page budget exhausted")
	// ErrTooManyRedirects is the error thrown when a redirect chain exceeds
	// the hop limit or loops back on itself
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrCrawlCancelled is the error returned when the crawl context is cancelled
	ErrCrawlCancelled = errors.New("crawl cancelled")
	// ErrRendererUnavailable is the error returned when the headless browser
	// could not be started
	ErrRendererUnavailable = errors.New("renderer unavailable")
)

// Synthetic status codes recorded for pages that never produced an HTTP
// response. Issue analysis treats them the same way real statuses are treated.
const (
	// StatusConnectionFailed marks pages where the TCP/TLS handshake or DNS
	// lookup failed outright
	StatusConnectionFailed = 0
	// StatusFetchTimeout marks pages that exceeded the request timeout
	StatusFetchTimeout = 408
	// StatusRedirectLoop marks pages whose redirect chain exceeded the limit
	StatusRedirectLoop = 310
)
