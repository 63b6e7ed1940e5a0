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
	"compress/gzip"
	"context"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"google.golang.org/appengine/urlfetch"
)

const maxRedirects = 10

// RedirectHop is one intermediate response in a redirect chain.
type RedirectHop struct {
	URL        string
	StatusCode int
	Location   string
}

// fetchResult is the raw outcome of one HTTP fetch before HTML parsing.
type fetchResult struct {
	FinalURL      string
	StatusCode    int
	Headers       http.Header
	Body          []byte
	RedirectChain []RedirectHop
	LoadTimeMs    float64
	PageSizeBytes int
}

// Fetcher performs single-page HTTP fetches for the crawl engine. Redirects
// are followed manually so every intermediate hop is captured; the stdlib
// client is told to stop at the first response.
type Fetcher struct {
	client        *http.Client
	userAgent     string
	timeout       time.Duration
	detectCharset bool
}

// NewFetcher creates a Fetcher from the crawl config.
func NewFetcher(cfg *CrawlConfig) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent:     cfg.UserAgent,
		timeout:       cfg.RequestTimeout,
		detectCharset: cfg.DetectCharset,
	}
}

// NewFetcherWithClient creates a Fetcher around a caller-provided client.
// With an Http.Client that is provided by appengine/urlfetch this can run
// on Google App Engine:
//
//	ctx := appengine.NewContext(r)
//	f := bluefin.NewFetcherWithClient(cfg, urlfetch.Client(ctx))
func NewFetcherWithClient(cfg *CrawlConfig, client *http.Client) *Fetcher {
	f := NewFetcher(cfg)
	client.CheckRedirect = f.client.CheckRedirect
	f.client = client
	return f
}

// NewAppEngineFetcher creates a Fetcher backed by urlfetch for the given
// App Engine context.
func NewAppEngineFetcher(cfg *CrawlConfig, ctx context.Context) *Fetcher {
	return NewFetcherWithClient(cfg, urlfetch.Client(ctx))
}

// Fetch GETs u and returns the final response with its redirect chain.
// Transport failures never return an error; they are mapped onto synthetic
// status codes so issue analysis sees every attempted page:
//
//	timeout          -> 408
//	redirect loop    -> 310
//	connection error -> 0
func (f *Fetcher) Fetch(ctx context.Context, u string) *fetchResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	result, err := f.do(ctx, u)
	if err != nil {
		status := StatusConnectionFailed
		switch {
		case errors.Is(err, ErrTooManyRedirects):
			status = StatusRedirectLoop
		case isTimeoutError(err):
			status = StatusFetchTimeout
		}
		return &fetchResult{
			FinalURL:   u,
			StatusCode: status,
			Headers:    http.Header{},
			LoadTimeMs: float64(time.Since(start).Microseconds()) / 1000,
		}
	}

	result.LoadTimeMs = float64(time.Since(start).Microseconds()) / 1000
	return result
}

func (f *Fetcher) do(ctx context.Context, u string) (*fetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	var redirectChain []RedirectHop
	seen := map[string]bool{u: true}
	currentRequest := req

	for redirectCount := 0; redirectCount < maxRedirects; redirectCount++ {
		res, err := f.client.Do(currentRequest)
		if err != nil {
			return nil, err
		}

		isRedirect := res.StatusCode >= 300 && res.StatusCode < 400
		location := res.Header.Get("Location")

		if isRedirect && location != "" {
			redirectURL, err := currentRequest.URL.Parse(location)
			if err != nil {
				res.Body.Close()
				return nil, err
			}

			redirectChain = append(redirectChain, RedirectHop{
				URL:        currentRequest.URL.String(),
				StatusCode: res.StatusCode,
				Location:   location,
			})
			res.Body.Close()

			if seen[redirectURL.String()] {
				return nil, ErrTooManyRedirects
			}
			seen[redirectURL.String()] = true

			// 307/308 preserve the method, everything else becomes GET
			newMethod := http.MethodGet
			if res.StatusCode == http.StatusTemporaryRedirect || res.StatusCode == http.StatusPermanentRedirect {
				newMethod = currentRequest.Method
			}

			newRequest, err := http.NewRequestWithContext(ctx, newMethod, redirectURL.String(), nil)
			if err != nil {
				return nil, err
			}
			for key, values := range currentRequest.Header {
				for _, value := range values {
					newRequest.Header.Add(key, value)
				}
			}
			// Credentials never cross hosts
			if newRequest.URL.Host != currentRequest.URL.Host {
				newRequest.Header.Del("Authorization")
			}

			currentRequest = newRequest
			continue
		}

		defer res.Body.Close()

		var bodyReader io.Reader = res.Body
		contentEncoding := strings.ToLower(res.Header.Get("Content-Encoding"))
		if !res.Uncompressed && (strings.Contains(contentEncoding, "gzip") ||
			strings.HasSuffix(strings.ToLower(currentRequest.URL.Path), ".xml.gz")) {
			gz, err := gzip.NewReader(bodyReader)
			if err != nil {
				return nil, err
			}
			defer gz.Close()
			bodyReader = gz
		}

		body, err := io.ReadAll(bodyReader)
		if err != nil {
			return nil, err
		}

		body = f.decodeBody(body, res.Header.Get("Content-Type"))

		return &fetchResult{
			FinalURL:      currentRequest.URL.String(),
			StatusCode:    res.StatusCode,
			Headers:       res.Header,
			Body:          body,
			RedirectChain: redirectChain,
			PageSizeBytes: len(body),
		}, nil
	}

	return nil, ErrTooManyRedirects
}

// decodeBody converts non-UTF8 response bodies to UTF-8. The declared
// charset wins; without one, chardet sniffing is used when enabled.
func (f *Fetcher) decodeBody(body []byte, contentType string) []byte {
	if len(body) == 0 || strings.Contains(strings.ToLower(contentType), "utf-8") {
		return body
	}

	label := ""
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		label = params["charset"]
	}
	if label == "" && f.detectCharset {
		detector := chardet.NewTextDetector()
		if res, err := detector.DetectBest(body); err == nil {
			label = res.Charset
		}
	}
	if label == "" || strings.EqualFold(label, "utf-8") {
		return body
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return decoded
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
