package parser

import (
	"regexp"
	"strings"
)

// URL extraction helpers
//
// GitHub URLs are handled by a dedicated pipeline (issue/PR context via the
// tracker CLI), so the generic extractor excludes them. Chat platforms wrap
// links in angle brackets, optionally with a |label suffix; both the wrapped
// and bare forms are collected.

var (
	bracketURLRe = regexp.MustCompile(`<(https?://[^>|\s]+)(?:\|[^>]*)?>`)
	bareURLRe    = regexp.MustCompile(`https?://[^\s<>|]+`)
	githubURLRe  = regexp.MustCompile(`https?://github\.com/[^\s<>|]+`)
)

// ExtractGitHubIssueURLs collects GitHub URLs that point at an issue or a
// pull request, de-duplicated in order of first appearance.
func ExtractGitHubIssueURLs(text string) []string {
	var out []string
	seen := make(map[string]struct{})

	for _, raw := range githubURLRe.FindAllString(text, -1) {
		url := trimURL(raw)
		if !strings.Contains(url, "/issues/") && !strings.Contains(url, "/pull/") {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		out = append(out, url)
	}

	return out
}

// ExtractGenericURLs collects bracket-wrapped and bare URLs, excluding GitHub
// URLs, de-duplicated in order of first appearance.
func ExtractGenericURLs(text string) []string {
	var out []string
	seen := make(map[string]struct{})

	add := func(raw string) {
		url := trimURL(raw)
		if url == "" || strings.Contains(url, "github.com") {
			return
		}
		if _, dup := seen[url]; dup {
			return
		}
		seen[url] = struct{}{}
		out = append(out, url)
	}

	for _, m := range bracketURLRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, raw := range bareURLRe.FindAllString(text, -1) {
		add(raw)
	}

	return out
}

// trimURL strips trailing punctuation that chat text tends to glue onto links.
func trimURL(url string) string {
	return strings.TrimRight(url, ">.,;:!?)")
}
