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
	"io"
	"net/http"
	"regexp"
	"sync"
	"time"
)

// MockResponse describes one canned HTTP response for MockTransport.
type MockResponse struct {
	// StatusCode defaults to 200
	StatusCode int
	// Body is the response body content
	Body string
	// Headers are sent verbatim on the response
	Headers http.Header
	// Delay simulates network latency before the response is returned
	Delay time.Duration
	// Error simulates a transport-level failure instead of a response
	Error error
}

type mockPattern struct {
	pattern  *regexp.Regexp
	response *MockResponse
}

// MockTransport implements http.RoundTripper so fetcher and crawler tests
// can script whole sites without a server. Unregistered URLs get a 404.
type MockTransport struct {
	responses map[string]*MockResponse
	patterns  []mockPattern
	mutex     sync.RWMutex
}

// NewMockTransport creates an empty MockTransport. Use it with
// NewFetcherWithClient.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[string]*MockResponse),
	}
}

// RegisterResponse registers a response for an exact URL match.
func (m *MockTransport) RegisterResponse(url string, response *MockResponse) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	normalizeMockResponse(response)
	m.responses[url] = response
}

// RegisterHTML registers a 200 text/html response for a URL.
func (m *MockTransport) RegisterHTML(url, html string) {
	headers := make(http.Header)
	headers.Set("Content-Type", "text/html; charset=utf-8")
	m.RegisterResponse(url, &MockResponse{StatusCode: 200, Body: html, Headers: headers})
}

// RegisterError registers a transport failure for a URL.
func (m *MockTransport) RegisterError(url string, err error) {
	m.RegisterResponse(url, &MockResponse{Error: err})
}

// RegisterPattern registers a response for URLs matching a regex.
func (m *MockTransport) RegisterPattern(pattern string, response *MockResponse) error {
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	normalizeMockResponse(response)
	m.patterns = append(m.patterns, mockPattern{pattern: regex, response: response})
	return nil
}

func normalizeMockResponse(r *MockResponse) {
	if r.StatusCode == 0 {
		r.StatusCode = 200
	}
	if r.Headers == nil {
		r.Headers = make(http.Header)
	}
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mutex.RLock()
	url := req.URL.String()
	mockResp, found := m.responses[url]
	if !found {
		for _, p := range m.patterns {
			if p.pattern.MatchString(url) {
				mockResp = p.response
				found = true
				break
			}
		}
	}
	m.mutex.RUnlock()

	if !found {
		return &http.Response{
			StatusCode: 404,
			Body:       io.NopCloser(bytes.NewBufferString("Not Found")),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}

	if mockResp.Delay > 0 {
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(mockResp.Delay):
		}
	}
	if mockResp.Error != nil {
		return nil, mockResp.Error
	}

	return &http.Response{
		StatusCode:    mockResp.StatusCode,
		Body:          io.NopCloser(bytes.NewBufferString(mockResp.Body)),
		Header:        mockResp.Headers.Clone(),
		ContentLength: int64(len(mockResp.Body)),
		Request:       req,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
	}, nil
}
