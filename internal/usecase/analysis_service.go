package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/schemascope/backend/internal/domain"
	"github.com/schemascope/backend/internal/infrastructure/pacing"
)

// AnalysisService ties the pipeline together: target extraction, competitor
// analysis, validation, recommendations, classification.
type AnalysisService struct {
	extractor   domain.SchemaExtractor
	competitors *CompetitorService
	validator   domain.SchemaOrgValidator
	recommender domain.Recommender
	classifier  *ClassifierService
	retry       pacing.RetryConfig
}

// StageProgressFunc reports pipeline progress: the current stage name and a
// fraction in [0,1] within that stage.
type StageProgressFunc func(stage string, fraction float64)

// NewAnalysisService creates the orchestrating service.
func NewAnalysisService(
	extractor domain.SchemaExtractor,
	competitors *CompetitorService,
	validator domain.SchemaOrgValidator,
	recommender domain.Recommender,
) *AnalysisService {
	return &AnalysisService{
		extractor:   extractor,
		competitors: competitors,
		validator:   validator,
		recommender: recommender,
		classifier:  NewClassifierService(),
		retry:       pacing.DefaultRetry(),
	}
}

// Run executes one full analysis. Configuration and input failures
// propagate; everything downstream degrades into warnings, skips, or
// per-type findings so the report always has a well-defined shape.
func (s *AnalysisService) Run(ctx context.Context, req domain.AnalyzeRequest, progress StageProgressFunc) (*domain.AnalysisReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	notify := progress
	if notify == nil {
		notify = func(string, float64) {}
	}

	// Target page. Without it there is nothing to analyze, so a hard
	// failure here propagates.
	var current domain.SchemaMap
	err := s.retry.Do(ctx, "target page fetch", func() error {
		var fetchErr error
		current, fetchErr = s.extractor.Extract(ctx, req.URL)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	notify("schema", 1.0)

	input := ClassifyInput{
		URL:             req.URL,
		Keyword:         req.Keyword,
		CurrentSchemas:  current,
		Validations:     map[string]*domain.ValidationResult{},
		ValidationErrs:  map[string]error{},
		Analyses:        map[string]*domain.ImplementationAnalysis{},
		Recommendations: map[string]*domain.PropertyRecommendations{},
		Warnings:        []string{},
	}

	// Competitors. A search-API hard failure degrades to an empty
	// competitor set with a report warning; per-URL failures are already
	// skips inside the service.
	_, err = s.competitors.Analyze(ctx, req.Keyword, func(fraction float64) {
		notify("competitors", fraction)
	})
	if err != nil {
		log.Printf("[analysis] competitor analysis unavailable: %v", err)
		input.Warnings = append(input.Warnings,
			fmt.Sprintf("Competitor analysis unavailable: %v", err))
	}
	input.Usage = s.competitors.UsageStats()
	input.Skipped = s.competitors.SkippedCompetitors()
	input.Insights = s.competitors.Insights()
	notify("competitors", 1.0)

	// Per-type validation and LLM analysis for the page's own schema.
	// Failures attach to the type's entry instead of aborting the report.
	types := sortedTypes(current)
	for i, schemaType := range types {
		payload, err := domain.PayloadFrom(current[schemaType])
		if err != nil {
			input.ValidationErrs[schemaType] = err
			continue
		}

		validation, err := s.validator.ValidatePayload(ctx, payload)
		if err != nil {
			input.ValidationErrs[schemaType] = err
		} else {
			input.Validations[schemaType] = validation
		}

		// The recommender degrades internally; a returned error means
		// unusable input, which the classifier will surface.
		if analysis, err := s.recommender.AnalyzeImplementation(ctx, payload); err == nil {
			input.Analyses[schemaType] = analysis
		}

		notify("validation", float64(i+1)/float64(len(types)))
	}

	// Property recommendations for the types competitors use and the page
	// lacks, so suggestions arrive with concrete guidance attached. Counts
	// are merged by canonical type name, matching the classifier's
	// suggestion threshold.
	currentTypes := normalizedTypeSet(current)
	for schemaType, count := range mergedUsageCounts(input.Usage) {
		if count <= 1 || currentTypes[schemaType] {
			continue
		}
		if recs, err := s.recommender.PropertyRecommendations(ctx, schemaType); err == nil {
			input.Recommendations[schemaType] = recs
		}
	}

	report := s.classifier.Classify(input)
	notify("report", 1.0)
	return report, nil
}

// ExtractOnly fetches and parses the target page's schema without running
// the full pipeline. Used by the standalone extraction endpoint.
func (s *AnalysisService) ExtractOnly(ctx context.Context, url string) (domain.SchemaMap, error) {
	if err := domain.ValidatePageURL(url); err != nil {
		return nil, err
	}
	var schemas domain.SchemaMap
	err := s.retry.Do(ctx, "target page fetch", func() error {
		var fetchErr error
		schemas, fetchErr = s.extractor.Extract(ctx, url)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return schemas, nil
}
