// Package scrape fetches the full article body for entries whose feed
// summary is too thin to persist on its own. Best effort only: any failure
// leaves the caller with the summary it already has.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Selectors tried in order until one yields paragraphs. Ordered from the
// most specific Korean news markup down to generic article containers.
var contentSelectors = []string{
	"#articleBody p",
	"#newsct_article p",
	".article_body p",
	".news_body p",
	".article-content p",
	"article p",
	".content p",
}

const minParagraphLen = 20

type Extractor struct {
	client *http.Client
}

func NewExtractor(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Extractor{client: &http.Client{Timeout: timeout}}
}

// Extract downloads the page and pulls out the article text.
func (e *Extractor) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("load page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	doc.Find("script, style, nav, footer, aside, figure").Remove()

	content := extractParagraphs(doc)
	if content == "" {
		return "", fmt.Errorf("no article content found")
	}
	return content, nil
}

func extractParagraphs(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		var paragraphs []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) >= minParagraphLen {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			return strings.Join(paragraphs, "\n\n")
		}
	}
	return ""
}
