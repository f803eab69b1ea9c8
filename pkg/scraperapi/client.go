// Package scraperapi fetches product pages, optionally routing through the
// ScraperAPI rendering proxy so JavaScript-heavy storefronts return usable
// HTML. Retry and backoff for fetching live here, not in the extractor.
package scraperapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

const proxyBaseURL = "https://api.scraperapi.com/"

// Request headers that mimic a real browser; bare Go user agents get blocked
// or served empty shells by most storefronts.
var browserHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/124.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// Client fetches page HTML with a small fixed retry budget.
type Client struct {
	directClient *http.Client
	proxyClient  *http.Client
	apiKey       string
	maxAttempts  int
}

// NewClient constructs a fetch client. apiKey may be empty, in which case all
// fetches go direct and render requests degrade to plain GETs.
func NewClient(apiKey string) *Client {
	return &Client{
		// Rendering through the proxy executes JavaScript first and can
		// take tens of seconds; direct fetches stay fast.
		directClient: &http.Client{Timeout: 15 * time.Second},
		proxyClient:  &http.Client{Timeout: 60 * time.Second},
		apiKey:       apiKey,
		maxAttempts:  3,
	}
}

// Fetch retrieves the page at pageURL. With render=true and a configured API
// key, the request routes through the rendering proxy and falls back to a
// direct fetch if the proxy fails.
func (c *Client) Fetch(ctx context.Context, pageURL string, render bool) ([]byte, error) {
	if render && c.apiKey != "" {
		body, err := c.fetchProxied(ctx, pageURL)
		if err == nil {
			return body, nil
		}
		log.Warn().Err(err).Str("url", pageURL).Msg("proxy render fetch failed, falling back to direct")
	}
	return c.fetchDirect(ctx, pageURL)
}

func (c *Client) fetchProxied(ctx context.Context, pageURL string) ([]byte, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("url", pageURL)
	q.Set("render", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxyBaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy request: %w", err)
	}
	return c.do(c.proxyClient, req)
}

func (c *Client) fetchDirect(ctx context.Context, pageURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for k, v := range browserHeaders {
			req.Header.Set(k, v)
		}

		body, err := c.do(c.directClient, req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Exponential backoff between attempts: 1s, 2s, 4s...
		if attempt < c.maxAttempts {
			select {
			case <-time.After(time.Second << (attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("fetch failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	return io.ReadAll(resp.Body)
}
