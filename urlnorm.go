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
	"net/url"
	"strings"

	whatwgUrl "github.com/nlnwa/whatwg-url/url"
)

var urlParser = whatwgUrl.NewParser(whatwgUrl.WithPercentEncodeSinglePercentSign())

// trackingParams are query parameters that never change page content and are
// stripped so URL variants collapse to one frontier entry.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_content":  true,
	"utm_term":     true,
	"ref":          true,
	"fbclid":       true,
	"gclid":        true,
}

// skippedExtensions are binary or asset extensions that are never audit
// targets. Matching is done on the lowercased URL path.
var skippedExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".ico",
	".css", ".js", ".woff", ".woff2", ".ttf",
	".zip", ".tar", ".gz", ".mp4", ".mp3", ".wav",
}

// NormalizeURL canonicalizes raw relative to base for frontier deduplication:
// lowercased scheme and host, no fragment, tracking params stripped, remaining
// query params re-encoded in first-appearance order, trailing slash trimmed on
// non-root paths.
//
// It returns ErrForbiddenURL for URLs that must never enter the frontier
// (non-http schemes, asset extensions, unparseable input).
func NormalizeURL(raw, base string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingURL
	}

	var resolved string
	if base != "" {
		u, err := urlParser.ParseRef(base, raw)
		if err != nil {
			return "", ErrForbiddenURL
		}
		resolved = u.Href(true) // drop fragment
	} else {
		u, err := urlParser.Parse(raw)
		if err != nil {
			return "", ErrForbiddenURL
		}
		resolved = u.Href(true)
	}

	parsed, err := url.Parse(resolved)
	if err != nil {
		return "", ErrForbiddenURL
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ErrForbiddenURL
	}

	pathLower := strings.ToLower(parsed.Path)
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(pathLower, ext) {
			return "", ErrForbiddenURL
		}
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	// Default ports are redundant
	if h, p, found := strings.Cut(parsed.Host, ":"); found {
		if (parsed.Scheme == "http" && p == "80") || (parsed.Scheme == "https" && p == "443") {
			parsed.Host = h
		}
	}

	if parsed.RawQuery != "" {
		q := parsed.Query()
		// Keys keep their first-appearance order; repeated keys group at
		// the first occurrence.
		keys := make([]string, 0, len(q))
		seen := make(map[string]bool, len(q))
		for _, pair := range strings.Split(parsed.RawQuery, "&") {
			k, _, _ := strings.Cut(pair, "=")
			if decoded, err := url.QueryUnescape(k); err == nil {
				k = decoded
			}
			if k == "" || trackingParams[k] || seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
		var b strings.Builder
		for _, k := range keys {
			for _, v := range q[k] {
				if b.Len() > 0 {
					b.WriteByte('&')
				}
				b.WriteString(url.QueryEscape(k))
				if v != "" {
					b.WriteByte('=')
					b.WriteString(url.QueryEscape(v))
				}
			}
		}
		parsed.RawQuery = b.String()
	}

	if parsed.Path != "/" && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimRight(parsed.Path, "/")
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}

	return parsed.String(), nil
}

// isInternalHost reports whether host belongs to the audited site. With
// subdomains enabled, any host ending in ".root" matches; www is always
// considered internal either way.
func isInternalHost(host, root string, includeSubdomains bool) bool {
	host = strings.ToLower(host)
	root = strings.ToLower(root)
	if host == root {
		return true
	}
	if strings.TrimPrefix(host, "www.") == strings.TrimPrefix(root, "www.") {
		return true
	}
	if includeSubdomains {
		bare := strings.TrimPrefix(root, "www.")
		return strings.HasSuffix(host, "."+bare)
	}
	return false
}
