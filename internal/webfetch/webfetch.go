// Package webfetch turns a web page into plain text suitable for use as
// prompt context.
package webfetch

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

const (
	fetchTimeout = 30 * time.Second
	userAgent    = "LLM-Council-Fetcher/1.0"
	maxRetries   = 2
	retryDelay   = 2 * time.Second

	// maxContentLen caps extracted text so a single page cannot blow the
	// prompt budget.
	maxContentLen = 100_000

	cacheTTL = 5 * time.Minute
)

var (
	log        = logrus.WithField("component", "webfetch")
	whitespace = regexp.MustCompile(`[ \t]+`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// Fetcher fetches pages and extracts their readable text, caching results
// per URL.
type Fetcher struct {
	cache  *contentCache
	client *http.Client
}

// New builds a Fetcher with a default HTTP client and cache.
func New() *Fetcher {
	return &Fetcher{
		cache:  newContentCache(cacheTTL),
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch returns the readable text of the page at url. Results are cached
// for a few minutes; transient fetch errors are retried once.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if content, ok := f.cache.get(url); ok {
		log.WithField("url", url).Debug("cache hit")
		return content, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	var resp *http.Response
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err = f.client.Do(req)
		if err == nil {
			break
		}
		if attempt < maxRetries-1 {
			log.WithField("url", url).Warnf("attempt %d failed, retrying: %v", attempt+1, err)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s after %d attempts: %w", url, maxRetries, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	content := extractText(doc)
	if content == "" {
		return "", fmt.Errorf("no readable content at %s", url)
	}

	f.cache.set(url, content)
	return content, nil
}

// extractText strips non-content elements and normalizes whitespace.
func extractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, iframe, nav, header, footer, aside").Remove()

	root := doc.Find("main, article").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var lines []string
	root.Find("h1, h2, h3, h4, h5, h6, p, li, td, pre, blockquote").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			lines = append(lines, text)
		}
	})

	text := strings.Join(lines, "\n")
	if text == "" {
		text = strings.TrimSpace(root.Text())
	}

	text = whitespace.ReplaceAllString(text, " ")
	text = blankLines.ReplaceAllString(text, "\n\n")
	if len(text) > maxContentLen {
		text = text[:maxContentLen]
	}
	return text
}
