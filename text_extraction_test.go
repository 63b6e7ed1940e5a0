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
	"strings"
	"testing"
)

func TestExtractTextStripsChrome(t *testing.T) {
	html := `<html><body>
<nav>Home About Contact</nav>
<p>The visible body copy of the page.</p>
<script>var x = 1;</script>
<style>p { color: red; }</style>
<footer>footer text</footer>
</body></html>`

	text := ExtractText([]byte(html))
	if !strings.Contains(text, "visible body copy") {
		t.Errorf("body text missing: %q", text)
	}
	for _, gone := range []string{"Home About", "var x", "color: red", "footer text"} {
		if strings.Contains(text, gone) {
			t.Errorf("chrome %q present in extracted text", gone)
		}
	}
}

func TestExtractTextNormalizesWhitespace(t *testing.T) {
	text := ExtractText([]byte("<p>one\n\n   two\t three</p>"))
	if text != "one two three" {
		t.Errorf("text = %q", text)
	}
}

func TestExtractMainContentPrefersSemanticElements(t *testing.T) {
	html := `<html><body>
<div class="sidebar">You should not see this sidebar text in the result at all.</div>
<article>This is the actual article that we want to be extracted from the page.</article>
</body></html>`

	text := ExtractMainContent([]byte(html))
	if !strings.Contains(text, "actual article") {
		t.Errorf("article missing: %q", text)
	}
	if strings.Contains(text, "sidebar text") {
		t.Errorf("sidebar leaked into main content: %q", text)
	}
}

func TestExtractMainContentScoresWithoutSemantics(t *testing.T) {
	// No article/main: the paragraph-dense div must win over the link list.
	html := `<html><body>
<div id="menu"><a href="/a">a</a> <a href="/b">b</a> <a href="/c">c</a></div>
<div id="content">
<p>It was the best of times and it was the worst of times for all of them.</p>
<p>They said that it would be the one thing that we could not have known about.</p>
</div>
</body></html>`

	text := ExtractMainContent([]byte(html))
	if !strings.Contains(text, "best of times") {
		t.Errorf("content paragraphs missing: %q", text)
	}
}

func TestCountStopwords(t *testing.T) {
	if n := countStopwords("the quick brown fox and the lazy dog"); n != 3 {
		t.Errorf("countStopwords = %d, want 3", n)
	}
	if n := countStopwords("zyzzyva qwerty"); n != 0 {
		t.Errorf("countStopwords = %d, want 0", n)
	}
}
