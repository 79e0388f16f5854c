// Package extractor fetches pages and parses their embedded JSON-LD
// structured-data blocks into a type-keyed map.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/schemascope/backend/internal/domain"
)

// DefaultUserAgent is a browser-like identifier; some sites refuse requests
// without one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Extractor fetches a URL and extracts its schema.org JSON-LD markup.
type Extractor struct {
	httpClient *http.Client
}

// New creates an extractor with a pooled HTTP client and per-request timeout.
func New() *Extractor {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Extractor{
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
	}
}

// Extract fetches url and returns its structured-data blocks keyed by
// schema type. There is no retry at this layer; that is the caller's call.
func (e *Extractor) Extract(ctx context.Context, url string) (domain.SchemaMap, error) {
	return e.ExtractWithUserAgent(ctx, url, DefaultUserAgent)
}

// ExtractWithUserAgent is Extract with an explicit User-Agent, used by the
// competitor analyzer to rotate identities between fetches.
func (e *Extractor) ExtractWithUserAgent(ctx context.Context, url, userAgent string) (domain.SchemaMap, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %w: %s returned status 404", domain.ErrFetchFailed, domain.ErrNotFound, url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", domain.ErrFetchFailed, url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	return parseDocument(doc), nil
}

// parseDocument collects every script[type="application/ld+json"] block.
// A block holds either a single object or a list of objects; malformed JSON
// is skipped silently. A later block of an already-seen type overwrites the
// earlier one.
func parseDocument(doc *goquery.Document) domain.SchemaMap {
	schemas := make(domain.SchemaMap)

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := sel.Text()

		var single map[string]any
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			recordSchema(schemas, single)
			return
		}

		var list []any
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			for _, item := range list {
				if obj, ok := item.(map[string]any); ok {
					recordSchema(schemas, obj)
				}
			}
		}
	})

	return schemas
}

// recordSchema stores obj under its @type. A @type that is itself a list is
// recorded under its first string entry.
func recordSchema(schemas domain.SchemaMap, obj map[string]any) {
	switch t := obj["@type"].(type) {
	case string:
		if t != "" {
			schemas[t] = obj
		}
	case []any:
		for _, item := range t {
			if name, ok := item.(string); ok && name != "" {
				schemas[name] = obj
				return
			}
		}
	}
}
