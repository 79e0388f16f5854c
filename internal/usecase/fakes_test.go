package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/schemascope/backend/internal/domain"
	"github.com/schemascope/backend/internal/infrastructure/pacing"
)

// fastRetry keeps test runs from sleeping through real backoff delays.
var fastRetry = pacing.RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   time.Millisecond,
	Sleep:       func(time.Duration) {},
}

type fakeSearch struct {
	urls  []string
	err   error
	calls int
}

func (f *fakeSearch) TopURLs(ctx context.Context, keyword string, n int) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.urls) > n {
		return f.urls[:n], nil
	}
	return f.urls, nil
}

type fakeExtractor struct {
	pages map[string]domain.SchemaMap
	errs  map[string]error
	// fetched records every URL requested, in order.
	fetched []string
	agents  []string
}

func (f *fakeExtractor) Extract(ctx context.Context, url string) (domain.SchemaMap, error) {
	return f.ExtractWithUserAgent(ctx, url, "")
}

func (f *fakeExtractor) ExtractWithUserAgent(ctx context.Context, url, userAgent string) (domain.SchemaMap, error) {
	f.fetched = append(f.fetched, url)
	f.agents = append(f.agents, userAgent)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	return domain.SchemaMap{}, nil
}

type fakeValidator struct {
	results map[string]*domain.ValidationResult
	err     error
}

func (f *fakeValidator) ValidateURL(ctx context.Context, url string) (*domain.ValidationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return cleanValidation(), nil
}

func (f *fakeValidator) ValidatePayload(ctx context.Context, payload domain.SchemaPayload) (*domain.ValidationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	canonical, err := payload.CanonicalJSON()
	if err != nil {
		return nil, err
	}
	for key, result := range f.results {
		if containsType(canonical, key) {
			return result, nil
		}
	}
	return cleanValidation(), nil
}

func containsType(canonical, schemaType string) bool {
	return strings.Contains(canonical, `"@type":"`+schemaType+`"`)
}

func cleanValidation() *domain.ValidationResult {
	return &domain.ValidationResult{
		Errors:          []domain.ValidationFinding{},
		Warnings:        []domain.ValidationFinding{},
		KnownProperties: map[string]any{},
	}
}

type fakeRecommender struct {
	analyzeCalls  int
	propertyCalls []string
}

func (f *fakeRecommender) PropertyRecommendations(ctx context.Context, schemaType string) (*domain.PropertyRecommendations, error) {
	f.propertyCalls = append(f.propertyCalls, schemaType)
	return &domain.PropertyRecommendations{
		SchemaType:            schemaType,
		RequiredProperties:    []string{"name"},
		RecommendedProperties: []string{},
		RichResultProperties:  []string{},
		BestPractices:         "fake guidance for " + schemaType,
	}, nil
}

func (f *fakeRecommender) AnalyzeImplementation(ctx context.Context, payload domain.SchemaPayload) (*domain.ImplementationAnalysis, error) {
	f.analyzeCalls++
	return &domain.ImplementationAnalysis{
		DocumentationAnalysis: "doc analysis",
		CompetitorInsights:    "competitor insight",
		Recommendations:       "add more properties",
	}, nil
}
