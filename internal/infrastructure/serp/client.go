// Package serp wraps the third-party search API that supplies the
// top-ranking competitor URLs for a keyword.
package serp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/schemascope/backend/internal/domain"
	"github.com/schemascope/backend/internal/infrastructure/pacing"
)

// DefaultTopN is the number of organic results requested per keyword.
const DefaultTopN = 10

// rateLimitRetryDelay is the single fixed pause after an HTTP 429 before the
// one retry this client allows. Deliberately longer than the usual backoff.
const rateLimitRetryDelay = 5 * time.Second

// organicResult is one entry of the API's organic_results list.
type organicResult struct {
	Link     string `json:"link"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type searchResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
}

// Client handles communication with the search API. Results are memoized
// per keyword for the client's lifetime, so repeated analyses of the same
// keyword cost no extra quota.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	limiter    *pacing.Limiter

	mutex sync.Mutex
	memo  map[string][]string

	// sleep is injectable for the 429-retry test.
	sleep func(time.Duration)
}

// NewClient creates a search API client.
func NewClient(apiKey, baseURL string, limiter *pacing.Limiter) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		apiKey:  apiKey,
		baseURL: baseURL,
		limiter: limiter,
		memo:    make(map[string][]string),
		sleep:   time.Sleep,
	}
}

// TopURLs returns up to n organic-result URLs for the keyword, in rank
// order. Fewer are returned when the API has fewer; entries with an empty
// link are dropped.
func (c *Client) TopURLs(ctx context.Context, keyword string, n int) ([]string, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: search API key", domain.ErrMissingCredential)
	}
	if n <= 0 {
		n = DefaultTopN
	}

	c.mutex.Lock()
	cached, ok := c.memo[keyword]
	c.mutex.Unlock()
	if ok {
		return truncateCopy(cached, n), nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}
	}

	urls, err := c.search(ctx, keyword, n)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	c.memo[keyword] = urls
	c.mutex.Unlock()

	return truncateCopy(urls, n), nil
}

// search executes the API request, with exactly one fixed-delay retry on 429.
func (c *Client) search(ctx context.Context, keyword string, n int) ([]string, error) {
	params := url.Values{}
	params.Add("api_key", c.apiKey)
	params.Add("q", keyword)
	params.Add("num", strconv.Itoa(n))

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	urls, err := c.doSearch(ctx, reqURL)
	if err == nil {
		return urls, nil
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		return nil, err
	}

	log.Printf("[serp] rate limited for keyword %q, retrying once after %v", keyword, rateLimitRetryDelay)
	c.sleep(rateLimitRetryDelay)
	return c.doSearch(ctx, reqURL)
}

func (c *Client) doSearch(ctx context.Context, reqURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: search API rejected the key", domain.ErrInvalidCredential)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: search API returned 429", domain.ErrRateLimited)
	default:
		return nil, fmt.Errorf("%w: search API returned status %d", domain.ErrFetchFailed, resp.StatusCode)
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	urls := make([]string, 0, len(searchResp.OrganicResults))
	for _, result := range searchResp.OrganicResults {
		if result.Link != "" {
			urls = append(urls, result.Link)
		}
	}
	return urls, nil
}

func truncateCopy(urls []string, n int) []string {
	if len(urls) > n {
		urls = urls[:n]
	}
	out := make([]string, len(urls))
	copy(out, urls)
	return out
}
