package enrich

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/samvad-comment-ingestor/internal/domain"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/logger"
	"github.com/samvad-hq/samvad-comment-ingestor/pkg/httpclient"
)

const maxHTMLBodyBytes = 1 << 20 // 1 MiB

// Scraper recovers original-post content for reports whose store lookup came
// up empty, by fetching the target URL and reading its OG tags. It is an
// optional stage; a scrape failure leaves the report as-is.
type Scraper struct {
	client httpclient.Client
	delay  time.Duration
}

// NewScraper constructs a scraper with the provided HTTP client and per-request throttle.
func NewScraper(client httpclient.Client, delay time.Duration) *Scraper {
	return &Scraper{client: client, delay: delay}
}

// Enrich fills OriginalPost for unlinked reports, throttling between fetches.
func (s *Scraper) Enrich(ctx context.Context, reports []domain.Report) []domain.Report {
	out := append([]domain.Report(nil), reports...)

	fetched := 0
	for i, report := range out {
		select {
		case <-ctx.Done():
			return out
		default:
		}

		if report.CommentTo != "" || report.OriginalPost != "" || report.URL == "" {
			continue
		}

		if s.delay > 0 && fetched > 0 {
			timer := time.NewTimer(s.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out
			case <-timer.C:
			}
		}
		fetched++

		content, err := s.fetchAndParse(ctx, report.URL)
		if err != nil {
			logger.WarnObj("original post scrape failed", "scrape_error", map[string]any{
				"url":   report.URL,
				"error": err.Error(),
			})
			continue
		}
		if content != "" {
			out[i].OriginalPost = content
		}
	}

	return out
}

func (s *Scraper) fetchAndParse(ctx context.Context, url string) (string, error) {
	resp, err := s.client.Get(ctx, url, nil)
	if err != nil {
		return "", fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("status %d", resp.StatusCode())
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	return parseOriginalContent(body)
}

// parseOriginalContent extracts the post's text from OG tags, preferring the
// description over the title.
func parseOriginalContent(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return firstNonEmpty(
		extract(`meta[property="og:description"]`),
		extract(`meta[name="description"]`),
		extract(`meta[property="og:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
