package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/schemascope/backend/internal/domain"
	"github.com/schemascope/backend/internal/infrastructure/pacing"
)

// userAgentPool is rotated across competitor fetches so ten rapid requests
// do not all present the same identity.
var userAgentPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// ProgressFunc receives a fraction in [0,1] after each competitor URL is
// processed. It is advisory only and cannot abort the run.
type ProgressFunc func(fraction float64)

// CompetitorServiceConfig holds configuration for competitor analysis.
type CompetitorServiceConfig struct {
	MaxCompetitors int
}

// CompetitorService fetches the top search results for a keyword and
// aggregates their schema usage. URLs are processed strictly sequentially;
// the simple, predictable pacing is deliberate.
type CompetitorService struct {
	search    domain.SearchClient
	extractor domain.SchemaExtractor
	limiter   *pacing.Limiter
	retry     pacing.RetryConfig
	maxN      int

	results []domain.CompetitorResult
}

// NewCompetitorService creates a competitor analysis service.
func NewCompetitorService(
	search domain.SearchClient,
	extractor domain.SchemaExtractor,
	limiter *pacing.Limiter,
	config CompetitorServiceConfig,
) *CompetitorService {
	maxN := config.MaxCompetitors
	if maxN <= 0 {
		maxN = 10
	}
	return &CompetitorService{
		search:    search,
		extractor: extractor,
		limiter:   limiter,
		retry:     pacing.DefaultRetry(),
		maxN:      maxN,
	}
}

// Analyze fetches and extracts schema from the keyword's top competitors.
// One competitor's failure never aborts the batch; it is recorded as skipped
// with a human-readable reason. Each call replaces the prior run's state.
func (s *CompetitorService) Analyze(ctx context.Context, keyword string, progress ProgressFunc) (map[string]domain.SchemaMap, error) {
	s.results = nil

	urls, err := s.search.TopURLs(ctx, keyword, s.maxN)
	if err != nil {
		return nil, fmt.Errorf("fetching competitor URLs: %w", err)
	}

	data := make(map[string]domain.SchemaMap, len(urls))

	for i, url := range urls {
		userAgent := userAgentPool[i%len(userAgentPool)]

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter error: %w", err)
			}
		}

		var schemas domain.SchemaMap
		err := s.retry.Do(ctx, "competitor fetch", func() error {
			var fetchErr error
			schemas, fetchErr = s.extractor.ExtractWithUserAgent(ctx, url, userAgent)
			return fetchErr
		})
		if err != nil {
			reason := classifySkipReason(err)
			log.Printf("[competitors] skipping %s: %s", url, reason)
			s.results = append(s.results, domain.CompetitorResult{
				URL:        url,
				Status:     domain.CompetitorSkipped,
				SkipReason: reason,
			})
		} else {
			data[url] = schemas
			s.results = append(s.results, domain.CompetitorResult{
				URL:     url,
				Schemas: schemas,
				Status:  domain.CompetitorSuccess,
			})
		}

		if progress != nil {
			progress(float64(i+1) / float64(len(urls)))
		}
	}

	return data, nil
}

// classifySkipReason buckets a fetch failure by message substring into the
// reasons surfaced to the user.
func classifySkipReason(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "403"):
		return "blocked by site (403)"
	case strings.Contains(msg, "404"):
		return "page not found (404)"
	case strings.Contains(strings.ToLower(msg), "timeout"):
		return "request timed out"
	default:
		return "could not analyze: " + msg
	}
}

// UsageStats aggregates, per schema type, how many successfully analyzed
// competitors use it at least once. Percentage is relative to successful
// competitors, or 0 when none succeeded. Sorted by count descending, ties
// by type ascending.
func (s *CompetitorService) UsageStats() []domain.UsageStat {
	counts := make(map[string]int)
	examples := make(map[string]any)
	successes := 0

	for _, result := range s.results {
		if result.Status != domain.CompetitorSuccess {
			continue
		}
		successes++
		for schemaType, payload := range result.Schemas {
			counts[schemaType]++
			if _, ok := examples[schemaType]; !ok {
				examples[schemaType] = payload
			}
		}
	}

	stats := make([]domain.UsageStat, 0, len(counts))
	for schemaType, count := range counts {
		percentage := 0.0
		if successes > 0 {
			percentage = float64(count) / float64(successes) * 100
		}
		stats = append(stats, domain.UsageStat{
			SchemaType: schemaType,
			Count:      count,
			Percentage: percentage,
			Example:    examples[schemaType],
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].SchemaType < stats[j].SchemaType
	})

	return stats
}

// SkippedCompetitors returns the URLs that could not be analyzed, with
// their reasons.
func (s *CompetitorService) SkippedCompetitors() map[string]string {
	skipped := make(map[string]string)
	for _, result := range s.results {
		if result.Status == domain.CompetitorSkipped {
			skipped[result.URL] = result.SkipReason
		}
	}
	return skipped
}

// Insights produces human-readable observations about the competitor set.
func (s *CompetitorService) Insights() []string {
	stats := s.UsageStats()
	insights := []string{}

	successes := 0
	for _, result := range s.results {
		if result.Status == domain.CompetitorSuccess {
			successes++
		}
	}

	if successes == 0 {
		insights = append(insights, "No competitors could be analyzed")
		return insights
	}

	insights = append(insights, fmt.Sprintf("Analyzed %d of %d competitors", successes, len(s.results)))

	if len(stats) == 0 {
		insights = append(insights, "No schema markup detected among competitors")
		return insights
	}

	top := stats[0]
	insights = append(insights, fmt.Sprintf(
		"%s is the most common schema type, used by %d of %d competitors (%.1f%%)",
		top.SchemaType, top.Count, successes, top.Percentage))

	withSchema := make(map[string]bool)
	for _, result := range s.results {
		if result.Status == domain.CompetitorSuccess && len(result.Schemas) > 0 {
			withSchema[result.URL] = true
		}
	}
	insights = append(insights, fmt.Sprintf(
		"%d of %d analyzed competitors use structured data", len(withSchema), successes))

	return insights
}
