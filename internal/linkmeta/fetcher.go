package linkmeta

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Preview is the scraped metadata of a payment link's website, shown on
// the public payment page.
type Preview struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FetchedAt   time.Time `json:"fetched_at"`
}

type Fetcher struct {
	httpClient *http.Client
	log        *zap.Logger
	maxRetries int
}

func NewFetcher(timeout time.Duration, maxRetries int, log *zap.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		maxRetries: maxRetries,
	}
}

// Fetch downloads the page and extracts a title and description,
// preferring OpenGraph tags over plain HTML ones.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Preview, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	var doc *goquery.Document
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "AuthoraBot/1.0 (+https://authora.xyz)")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
			continue
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}

	if lastErr != nil {
		return nil, lastErr
	}

	p := &Preview{FetchedAt: time.Now()}

	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		p.Title = strings.TrimSpace(og)
	} else {
		p.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if og, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		p.Description = strings.TrimSpace(og)
	} else if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		p.Description = strings.TrimSpace(desc)
	}

	if p.Title == "" && p.Description == "" {
		return nil, fmt.Errorf("no metadata found at %s", url)
	}

	p.Title = clamp(p.Title, 200)
	p.Description = clamp(p.Description, 500)
	return p, nil
}

func clamp(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
