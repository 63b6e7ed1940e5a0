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
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"
)

// ContentHashConfig controls how page HTML is normalized before hashing for
// duplicate-content detection. The zero value is not useful; pass nil to
// NormalizeContent for the defaults.
type ContentHashConfig struct {
	// ExcludeTags are removed entirely before hashing
	ExcludeTags []string
	// IncludeOnlyTags, when set, restricts hashing to the listed elements
	IncludeOnlyTags []string
	// StripTimestamps replaces date/time strings with placeholders
	StripTimestamps bool
	// StripAnalytics removes tracking snippets (GA, GTM, pixels)
	StripAnalytics bool
	// StripComments removes HTML comments
	StripComments bool
	// CollapseWhitespace folds whitespace runs into single spaces
	CollapseWhitespace bool
}

// Patterns for dynamic content that would make every fetch hash differently.
var (
	timestampPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})`),
		regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`),
		regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4} \d{1,2}:\d{2}(?::\d{2})? (?:AM|PM)`),
		regexp.MustCompile(`(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{1,2},?\s+\d{4}\s+\d{1,2}:\d{2}`),
	}

	relativeTimePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d+\s+(?:second|minute|hour|day|week|month|year)s?\s+ago`),
		regexp.MustCompile(`(?:just\s+now|moments?\s+ago)`),
	}

	sessionIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:session|request|trace)[-_]?id[:=]\s*["']?[a-f0-9-]{8,}["']?`),
		regexp.MustCompile(`(?i)csrf[-_]?token[:=]\s*["']?[a-zA-Z0-9+/=]{16,}["']?`),
		regexp.MustCompile(`(?i)_token["']?\s*[:=]\s*["']?[a-zA-Z0-9+/=]{16,}["']?`),
	}

	analyticsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)google-analytics\.com/(?:analytics|ga)\.js`),
		regexp.MustCompile(`(?i)googletagmanager\.com/gtag/js`),
		regexp.MustCompile(`(?i)www\.google-analytics\.com/collect\?[^\s<>"']+`),
		regexp.MustCompile(`(?i)gtag\s*\([^)]+\)`),
		regexp.MustCompile(`(?i)_gaq\.push\([^)]+\)`),
		regexp.MustCompile(`(?i)fbq\s*\([^)]+\)`),
		regexp.MustCompile(`(?i)pixel\.gif\?[^\s<>"']+`),
	}

	versionParamPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\?v=[a-f0-9]+`),
		regexp.MustCompile(`\?ver=[a-f0-9]+`),
		regexp.MustCompile(`\?_=[0-9]+`),
		regexp.MustCompile(`\?t=[0-9]+`),
	}

	whitespacePattern  = regexp.MustCompile(`\s+`)
	htmlCommentPattern = regexp.MustCompile(`<!--[\s\S]*?-->`)
)

// NormalizeContent prepares HTML for fingerprinting: boilerplate and dynamic
// fragments are stripped so two fetches of the same logical page hash equal.
func NormalizeContent(html []byte, config *ContentHashConfig) ([]byte, error) {
	if config == nil {
		config = &ContentHashConfig{
			ExcludeTags:        []string{"script", "style", "nav", "footer"},
			StripTimestamps:    true,
			StripAnalytics:     true,
			StripComments:      true,
			CollapseWhitespace: true,
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	if len(config.IncludeOnlyTags) > 0 {
		doc = extractOnlyTags(doc, config.IncludeOnlyTags)
	}
	for _, tag := range config.ExcludeTags {
		doc.Find(tag).Remove()
	}

	content, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("failed to render HTML: %w", err)
	}
	contentBytes := []byte(content)

	if config.StripComments {
		contentBytes = htmlCommentPattern.ReplaceAll(contentBytes, nil)
	}
	if config.StripTimestamps {
		for _, p := range timestampPatterns {
			contentBytes = p.ReplaceAll(contentBytes, []byte("[TIMESTAMP]"))
		}
		for _, p := range relativeTimePatterns {
			contentBytes = p.ReplaceAll(contentBytes, []byte("[RELATIVE_TIME]"))
		}
	}
	if config.StripAnalytics {
		for _, p := range analyticsPatterns {
			contentBytes = p.ReplaceAll(contentBytes, nil)
		}
	}
	for _, p := range sessionIDPatterns {
		contentBytes = p.ReplaceAll(contentBytes, nil)
	}
	for _, p := range versionParamPatterns {
		contentBytes = p.ReplaceAll(contentBytes, nil)
	}
	if config.CollapseWhitespace {
		contentBytes = whitespacePattern.ReplaceAll(bytes.TrimSpace(contentBytes), []byte(" "))
	}

	return contentBytes, nil
}

func extractOnlyTags(doc *goquery.Document, tags []string) *goquery.Document {
	selector := strings.Join(tags, ", ")
	extracted := doc.Find(selector)

	newDoc, _ := goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	body := newDoc.Find("body")
	extracted.Each(func(_ int, s *goquery.Selection) {
		body.AppendSelection(s)
	})
	return newDoc
}

// ComputeContentHash hashes normalized content with the chosen algorithm.
// xxhash is the default and by far the fastest.
func ComputeContentHash(content []byte, algorithm string) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("content is empty")
	}

	switch strings.ToLower(algorithm) {
	case "xxhash", "":
		return fmt.Sprintf("%016x", xxhash.Sum64(content)), nil
	case "md5":
		hash := md5.Sum(content)
		return hex.EncodeToString(hash[:]), nil
	case "sha256":
		hash := sha256.Sum256(content)
		return hex.EncodeToString(hash[:]), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s (supported: xxhash, md5, sha256)", algorithm)
	}
}

// URLFingerprint is the frontier's deduplication key: the 128-bit md5 hex
// digest of the normalized URL.
func URLFingerprint(url string) string {
	hash := md5.Sum([]byte(url))
	return hex.EncodeToString(hash[:])
}

// PageFingerprint is the crawl engine's duplicate-content fingerprint:
// the default normalization hashed with xxhash. Returns "" when the page
// cannot be normalized.
func PageFingerprint(html []byte) string {
	normalized, err := NormalizeContent(html, nil)
	if err != nil {
		return ""
	}
	hash, err := ComputeContentHash(normalized, "xxhash")
	if err != nil {
		return ""
	}
	return hash
}
