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
	"net/http"
	"strings"
	"testing"
	"time"
)

func newTestFetcher(mt *MockTransport, timeout time.Duration) *Fetcher {
	cfg := NewDefaultCrawlConfig()
	if timeout > 0 {
		cfg.RequestTimeout = timeout
	}
	return NewFetcherWithClient(cfg, &http.Client{Transport: mt})
}

func TestFetchSuccess(t *testing.T) {
	mt := NewMockTransport()
	mt.RegisterHTML("https://example.com/", "<html><body><p>hello</p></body></html>")

	res := newTestFetcher(mt, 0).Fetch(context.Background(), "https://example.com/")
	if res.StatusCode != 200 {
		t.Fatalf("StatusCode = %d, want 200", res.StatusCode)
	}
	if res.FinalURL != "https://example.com/" {
		t.Errorf("FinalURL = %q", res.FinalURL)
	}
	if !strings.Contains(string(res.Body), "hello") {
		t.Errorf("Body = %q", res.Body)
	}
	if res.PageSizeBytes != len(res.Body) {
		t.Errorf("PageSizeBytes = %d, want %d", res.PageSizeBytes, len(res.Body))
	}
	if len(res.RedirectChain) != 0 {
		t.Errorf("RedirectChain = %v, want empty", res.RedirectChain)
	}
}

func TestFetchFollowsRedirectChain(t *testing.T) {
	mt := NewMockTransport()
	loc := func(l string) http.Header {
		h := make(http.Header)
		h.Set("Location", l)
		return h
	}
	mt.RegisterResponse("https://example.com/a", &MockResponse{StatusCode: 301, Headers: loc("/b")})
	mt.RegisterResponse("https://example.com/b", &MockResponse{StatusCode: 302, Headers: loc("/c")})
	mt.RegisterHTML("https://example.com/c", "<p>destination</p>")

	res := newTestFetcher(mt, 0).Fetch(context.Background(), "https://example.com/a")
	if res.StatusCode != 200 {
		t.Fatalf("StatusCode = %d, want 200", res.StatusCode)
	}
	if res.FinalURL != "https://example.com/c" {
		t.Errorf("FinalURL = %q, want /c", res.FinalURL)
	}
	if len(res.RedirectChain) != 2 {
		t.Fatalf("RedirectChain has %d hops, want 2", len(res.RedirectChain))
	}
	if res.RedirectChain[0].StatusCode != 301 || res.RedirectChain[0].Location != "/b" {
		t.Errorf("first hop = %+v", res.RedirectChain[0])
	}
}

func TestFetchRedirectLoop(t *testing.T) {
	mt := NewMockTransport()
	h := make(http.Header)
	h.Set("Location", "/loop")
	mt.RegisterResponse("https://example.com/loop", &MockResponse{StatusCode: 302, Headers: h})

	res := newTestFetcher(mt, 0).Fetch(context.Background(), "https://example.com/loop")
	if res.StatusCode != StatusRedirectLoop {
		t.Errorf("StatusCode = %d, want %d", res.StatusCode, StatusRedirectLoop)
	}
}

func TestFetchConnectionError(t *testing.T) {
	mt := NewMockTransport()
	mt.RegisterError("https://unreachable.example.com/", errors.New("dial tcp: connection refused"))

	res := newTestFetcher(mt, 0).Fetch(context.Background(), "https://unreachable.example.com/")
	if res.StatusCode != StatusConnectionFailed {
		t.Errorf("StatusCode = %d, want %d", res.StatusCode, StatusConnectionFailed)
	}
	if res.FinalURL != "https://unreachable.example.com/" {
		t.Errorf("FinalURL = %q", res.FinalURL)
	}
}

func TestFetchTimeout(t *testing.T) {
	mt := NewMockTransport()
	mt.RegisterResponse("https://slow.example.com/", &MockResponse{
		Body:  "late",
		Delay: 500 * time.Millisecond,
	})

	res := newTestFetcher(mt, 30*time.Millisecond).Fetch(context.Background(), "https://slow.example.com/")
	if res.StatusCode != StatusFetchTimeout {
		t.Errorf("StatusCode = %d, want %d", res.StatusCode, StatusFetchTimeout)
	}
}

func TestFetchGzipBody(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte("<html><p>compressed payload</p></html>"))
	gz.Close()

	h := make(http.Header)
	h.Set("Content-Type", "text/html")
	h.Set("Content-Encoding", "gzip")
	mt := NewMockTransport()
	mt.RegisterResponse("https://example.com/gz", &MockResponse{
		StatusCode: 200,
		Body:       buf.String(),
		Headers:    h,
	})

	res := newTestFetcher(mt, 0).Fetch(context.Background(), "https://example.com/gz")
	if res.StatusCode != 200 {
		t.Fatalf("StatusCode = %d", res.StatusCode)
	}
	if !strings.Contains(string(res.Body), "compressed payload") {
		t.Errorf("gzip body not decoded: %q", res.Body)
	}
}

func TestFetchUnregisteredURLIs404(t *testing.T) {
	mt := NewMockTransport()
	res := newTestFetcher(mt, 0).Fetch(context.Background(), "https://example.com/nope")
	if res.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", res.StatusCode)
	}
}

func TestIsTimeoutError(t *testing.T) {
	if !isTimeoutError(context.DeadlineExceeded) {
		t.Error("DeadlineExceeded not recognized as timeout")
	}
	if isTimeoutError(errors.New("connection refused")) {
		t.Error("plain error recognized as timeout")
	}
}
