package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/markusmobius/go-trafilatura"
	cache "github.com/patrickmn/go-cache"
)

const (
	fetchUserAgent     = "Momentum-Bot/1.0 (+https://momentum.example.com/bot)"
	fetchMaxBodySize   = 10 * 1024 * 1024
	fetchMaxConcurrent = 10
	fetchGlobalRate    = 10.0
	fetchPerUserRate   = 5.0
)

// PageContent is the extracted content of a fetched learning resource
type PageContent struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Author  string `json:"author,omitempty"`
	Excerpt string `json:"excerpt"`
	Text    string `json:"text"`
}

// ResourceFetcher downloads learning resource pages and extracts the readable
// content. It honors robots.txt, rate-limits per domain and per user, and
// caps concurrent fetches.
type ResourceFetcher struct {
	client    *http.Client
	limiter   *FetchLimiter
	robots    *RobotsChecker
	pageCache *cache.Cache
	semaphore chan struct{}
}

// NewResourceFetcher creates a new resource fetcher
func NewResourceFetcher() *ResourceFetcher {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &ResourceFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   60 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects (max 10)")
				}
				return nil
			},
		},
		limiter:   NewFetchLimiter(fetchGlobalRate, fetchPerUserRate),
		robots:    NewRobotsChecker(fetchUserAgent),
		pageCache: cache.New(1*time.Hour, 10*time.Minute),
		semaphore: make(chan struct{}, fetchMaxConcurrent),
	}
}

// Fetch downloads one page and extracts its readable content
func (f *ResourceFetcher) Fetch(ctx context.Context, userID, urlStr string) (*PageContent, error) {
	started := time.Now()

	if err := validateFetchURL(urlStr); err != nil {
		return nil, err
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	if cached, found := f.pageCache.Get(urlStr); found {
		return cached.(*PageContent), nil
	}

	allowed, crawlDelay, err := f.robots.CanFetch(ctx, urlStr)
	if err != nil {
		log.Printf("⚠️  [FETCH] robots.txt check failed for %s: %v", urlStr, err)
		crawlDelay = time.Second
	}
	if !allowed {
		return nil, fmt.Errorf("access blocked by robots.txt: %s", urlStr)
	}

	if err := f.limiter.Wait(ctx, userID, parsedURL.Host, crawlDelay); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	select {
	case f.semaphore <- struct{}{}:
		defer func() { <-f.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	body, err := f.download(ctx, urlStr)
	if err != nil {
		log.Printf("❌ [FETCH] Failed to fetch %s: %v", urlStr, err)
		return nil, err
	}

	result, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{OriginalURL: parsedURL})
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}
	if result == nil || result.ContentText == "" {
		return nil, fmt.Errorf("no readable content found at %s", urlStr)
	}

	page := &PageContent{
		URL:     urlStr,
		Title:   result.Metadata.Title,
		Author:  result.Metadata.Author,
		Excerpt: excerpt(result.ContentText, 300),
		Text:    result.ContentText,
	}

	f.pageCache.Set(urlStr, page, cache.DefaultExpiration)

	log.Printf("✅ [FETCH] Fetched %s (latency: %dms, length: %d chars)",
		urlStr, time.Since(started).Milliseconds(), len(page.Text))
	return page, nil
}

func (f *ResourceFetcher) download(ctx context.Context, urlStr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, resp.Status)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "text/html") &&
		!strings.Contains(contentType, "text/plain") &&
		!strings.Contains(contentType, "application/xhtml+xml") {
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchMaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(body)) >= fetchMaxBodySize {
		return nil, fmt.Errorf("response body too large (max %d bytes)", fetchMaxBodySize)
	}

	return body, nil
}

// validateFetchURL rejects non-HTTP schemes and internal addresses
func validateFetchURL(urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("only HTTP/HTTPS URLs are supported, got: %s", parsedURL.Scheme)
	}

	hostname := strings.ToLower(parsedURL.Hostname())
	if hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1" {
		return fmt.Errorf("localhost URLs are not allowed")
	}

	privateRanges := []string{
		"192.168.", "10.", "172.16.", "172.17.", "172.18.", "172.19.",
		"172.20.", "172.21.", "172.22.", "172.23.", "172.24.", "172.25.",
		"172.26.", "172.27.", "172.28.", "172.29.", "172.30.", "172.31.",
		"169.254.",
		"fd",
	}
	for _, prefix := range privateRanges {
		if strings.HasPrefix(hostname, prefix) {
			return fmt.Errorf("private IP addresses are not allowed")
		}
	}

	return nil
}

func excerpt(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if i := strings.LastIndex(cut, " "); i > max/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
