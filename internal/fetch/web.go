// Package fetch gathers external context for deliberations: lightweight web
// page summaries and issue/PR metadata via the gh CLI. Every failure path
// degrades to empty output with a warning; nothing here returns an error to
// the caller.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// URLFetchTimeout bounds the whole summary pass, not each URL.
	URLFetchTimeout = 5 * time.Second

	// MaxSummaryURLs caps how many URLs one message can make us fetch.
	MaxSummaryURLs = 4

	maxBodyBytes = 256 * 1024
)

// Deliberately naive. Pages that hide their title from a regex just get
// skipped.
var (
	titleRe    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaDescRe = regexp.MustCompile(`(?is)<meta[^>]+(?:name|property)=["'](?:og:)?description["'][^>]*content=["']([^"']*)["']`)
	wsRe       = regexp.MustCompile(`\s+`)
)

// WebFetcher fetches URL summaries over HTTP.
type WebFetcher struct {
	client *http.Client
	logger zerolog.Logger
}

// NewWebFetcher creates a fetcher. A nil client gets a default one; the
// overall deadline comes from FetchURLSummaries, not the client.
func NewWebFetcher(client *http.Client, logger zerolog.Logger) *WebFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &WebFetcher{client: client, logger: logger}
}

// FetchURLSummaries fetches up to 4 URLs under a single 5-second deadline and
// extracts a title plus meta description from each. URLs that error, time
// out, or yield nothing are skipped. Successes join with a blank line; the
// result is "" when nothing succeeded.
func (f *WebFetcher) FetchURLSummaries(ctx context.Context, urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	if len(urls) > MaxSummaryURLs {
		urls = urls[:MaxSummaryURLs]
	}

	ctx, cancel := context.WithTimeout(ctx, URLFetchTimeout)
	defer cancel()

	var parts []string
	for _, url := range urls {
		summary, err := f.summarize(ctx, url)
		if err != nil {
			f.logger.Warn().Err(err).Str("url", url).Msg("URL summary fetch failed")
			continue
		}
		if summary != "" {
			parts = append(parts, summary)
		}
	}

	return strings.Join(parts, "\n\n")
}

func (f *WebFetcher) summarize(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}

	var lines []string
	if m := titleRe.FindSubmatch(body); m != nil {
		if title := collapseWhitespace(string(m[1])); title != "" {
			lines = append(lines, url+": "+title)
		}
	}
	if m := metaDescRe.FindSubmatch(body); m != nil {
		if desc := collapseWhitespace(string(m[1])); desc != "" {
			lines = append(lines, desc)
		}
	}

	return strings.Join(lines, "\n"), nil
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}
