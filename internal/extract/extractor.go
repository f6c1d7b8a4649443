package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// Extractor fetches a URL and parses it into a Page.
type Extractor struct {
	fetcher *Fetcher
	log     *slog.Logger
}

// NewExtractor creates an Extractor with the given fetch timeout.
func NewExtractor(timeout time.Duration, log *slog.Logger) *Extractor {
	return &Extractor{
		fetcher: NewFetcher(timeout),
		log:     log,
	}
}

// Extract fetches and parses the page at url. When the node walk finds no
// usable text (heavily scripted pages, unusual markup), it falls back to
// readability extraction of the main article content.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (*Page, error) {
	raw, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	page, err := ParsePage(raw.Body, pageURL)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(page.Text) == "" {
		e.log.Warn("no content from node walk, trying readability", "url", pageURL)
		if fallback := readabilityFallback(raw.Body, pageURL); fallback != nil {
			if page.Title == "" {
				page.Title = fallback.Title
			}
			page.Nodes = append(page.Nodes, Node{Tag: "article", Text: fallback.Text})
			page.Text = fallback.Text
		}
	}

	if strings.TrimSpace(page.Text) == "" {
		return nil, fmt.Errorf("no extractable content at %s", pageURL)
	}

	e.log.Info("extracted content",
		"url", pageURL,
		"title", page.Title,
		"nodes", len(page.Nodes),
		"chars", len(page.Text),
	)
	return page, nil
}

// DiscoverURLs extracts the page at base and returns up to maxURLs same-host
// links found on it, base first. Single-page collection only, no crawling.
func (e *Extractor) DiscoverURLs(ctx context.Context, base string, maxURLs int) ([]string, error) {
	if maxURLs <= 0 {
		maxURLs = 10
	}

	baseParsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	page, err := e.Extract(ctx, base)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{base: true}
	urls := []string{base}
	for _, link := range page.Links {
		if len(urls) >= maxURLs {
			break
		}
		parsed, err := url.Parse(link.URL)
		if err != nil || parsed.Host != baseParsed.Host {
			continue
		}
		if seen[link.URL] {
			continue
		}
		seen[link.URL] = true
		urls = append(urls, link.URL)
	}
	return urls, nil
}

// Close releases the underlying HTTP client.
func (e *Extractor) Close() {
	e.fetcher.Close()
}

type fallbackContent struct {
	Title string
	Text  string
}

func readabilityFallback(rawHTML []byte, pageURL string) *fallbackContent {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = nil
	}
	article, err := readability.FromReader(bytes.NewReader(rawHTML), parsed)
	if err != nil {
		return nil
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil
	}
	return &fallbackContent{
		Title: strings.TrimSpace(article.Title),
		Text:  strings.Join(strings.Fields(text), " "),
	}
}
