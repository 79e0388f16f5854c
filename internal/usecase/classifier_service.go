package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/schemascope/backend/internal/domain"
)

// typeAliases maps capitalization drift seen in the wild onto canonical
// schema.org type names.
var typeAliases = map[string]string{
	"website":        "WebSite",
	"webpage":        "WebPage",
	"localbusiness":  "LocalBusiness",
	"faqpage":        "FAQPage",
	"newsarticle":    "NewsArticle",
	"blogposting":    "BlogPosting",
	"breadcrumblist": "BreadcrumbList",
}

// NormalizeSchemaType produces the canonical form of a schema type string:
// whitespace trimmed, schema.org URL prefixes stripped, known aliases
// resolved. Applied to both sides of every type comparison.
func NormalizeSchemaType(schemaType string) string {
	t := strings.TrimSpace(schemaType)
	t = strings.TrimPrefix(t, "https://schema.org/")
	t = strings.TrimPrefix(t, "http://schema.org/")
	if canonical, ok := typeAliases[strings.ToLower(t)]; ok {
		return canonical
	}
	return t
}

// richResultMappings lists well-known schema types that unlock an enhanced
// search presentation when implemented.
var richResultMappings = []struct {
	schemaType string
	richResult string
}{
	{"Product", "Product Rich Results"},
	{"Article", "Article Rich Results"},
	{"FAQPage", "FAQ Rich Results"},
	{"Recipe", "Recipe Rich Results"},
	{"Event", "Event Rich Results"},
	{"Review", "Review Rich Results"},
}

// maxSuggestionsWithoutSchema caps the suggestion list when the target page
// has no schema at all.
const maxSuggestionsWithoutSchema = 5

// ClassifierService buckets each schema type into good, needs improvement,
// or suggested addition, combining validator findings, LLM recommendations
// and competitor usage.
type ClassifierService struct{}

// NewClassifierService creates a classifier.
func NewClassifierService() *ClassifierService {
	return &ClassifierService{}
}

// ClassifyInput carries everything one classification pass needs. Any of
// the maps may be sparse; a missing validation for a present type is
// converted into an error finding on that type's entry.
type ClassifyInput struct {
	URL             string
	Keyword         string
	CurrentSchemas  domain.SchemaMap
	Validations     map[string]*domain.ValidationResult
	ValidationErrs  map[string]error
	Analyses        map[string]*domain.ImplementationAnalysis
	Usage           []domain.UsageStat
	Recommendations map[string]*domain.PropertyRecommendations
	Skipped         map[string]string
	Insights        []string
	Warnings        []string
}

// Classify builds the final report. The report is always fully shaped:
// every slice and map field is non-nil regardless of upstream failures.
func (s *ClassifierService) Classify(input ClassifyInput) *domain.AnalysisReport {
	report := &domain.AnalysisReport{
		URL:                input.URL,
		Keyword:            input.Keyword,
		CurrentSchemas:     input.CurrentSchemas,
		CompetitorUsage:    input.Usage,
		GoodSchemas:        []domain.ValidationEntry{},
		NeedsImprovement:   []domain.ValidationEntry{},
		SuggestedAdditions: []domain.SuggestedAddition{},
		RichResults:        []domain.RichResultOpportunity{},
		SkippedCompetitors: input.Skipped,
		Insights:           input.Insights,
		Warnings:           input.Warnings,
	}
	if report.CurrentSchemas == nil {
		report.CurrentSchemas = domain.SchemaMap{}
	}
	if report.CompetitorUsage == nil {
		report.CompetitorUsage = []domain.UsageStat{}
	}
	if report.SkippedCompetitors == nil {
		report.SkippedCompetitors = map[string]string{}
	}
	if report.Insights == nil {
		report.Insights = []string{}
	}
	if report.Warnings == nil {
		report.Warnings = []string{}
	}

	currentTypes := normalizedTypeSet(input.CurrentSchemas)

	// A page with no schema at all gets a warning and the top suggestions;
	// there is nothing to validate per type.
	if len(input.CurrentSchemas) == 0 {
		report.Warnings = append(report.Warnings, "No schema markup detected on the target page")
		report.SuggestedAdditions = s.suggestAdditions(input, currentTypes)
		if len(report.SuggestedAdditions) > maxSuggestionsWithoutSchema {
			report.SuggestedAdditions = report.SuggestedAdditions[:maxSuggestionsWithoutSchema]
		}
		report.RichResults = richResultOpportunities(currentTypes)
		return report
	}

	for _, schemaType := range sortedTypes(input.CurrentSchemas) {
		entry := s.classifyType(schemaType, input)
		if entry.Classification == domain.ClassificationGood {
			report.GoodSchemas = append(report.GoodSchemas, entry)
		} else {
			report.NeedsImprovement = append(report.NeedsImprovement, entry)
		}
	}

	report.SuggestedAdditions = s.suggestAdditions(input, currentTypes)
	report.RichResults = richResultOpportunities(currentTypes)
	return report
}

// classifyType merges the validator findings for one present schema type
// and buckets it. Any error-severity finding forces needs_improvement, as
// does any warning; only a clean pass is good.
func (s *ClassifierService) classifyType(schemaType string, input ClassifyInput) domain.ValidationEntry {
	entry := domain.ValidationEntry{
		Type:     schemaType,
		Payload:  input.CurrentSchemas[schemaType],
		Findings: []domain.ValidationFinding{},
	}

	if validation, ok := input.Validations[schemaType]; ok && validation != nil {
		entry.Findings = append(entry.Findings, validation.Findings()...)
	} else if err, ok := input.ValidationErrs[schemaType]; ok && err != nil {
		// A failed validation pass becomes a finding on this entry rather
		// than aborting the report.
		entry.Findings = append(entry.Findings, domain.ValidationFinding{
			Severity:   domain.SeverityError,
			Message:    fmt.Sprintf("Validation could not be completed: %v", err),
			Suggestion: "Retry the analysis; the schema.org validator may be temporarily unavailable",
		})
	}

	if analysis, ok := input.Analyses[schemaType]; ok && analysis != nil {
		entry.Recommendation = analysis.Recommendations
	}

	hasError := false
	hasWarning := false
	for _, finding := range entry.Findings {
		switch finding.Severity {
		case domain.SeverityError:
			hasError = true
		case domain.SeverityWarning:
			hasWarning = true
		}
	}

	if hasError || hasWarning {
		entry.Classification = domain.ClassificationNeedsImprovement
	} else {
		entry.Classification = domain.ClassificationGood
	}
	return entry
}

// suggestAdditions selects schema types used by at least two competitors
// and absent from the target page. Usage rows are folded onto canonical
// type names first, so alias variants contribute to a single count instead
// of splitting (or duplicating) a suggestion. Priority equals the merged
// count and orders the list descending, ties broken by type name.
func (s *ClassifierService) suggestAdditions(input ClassifyInput, currentTypes map[string]bool) []domain.SuggestedAddition {
	suggestions := []domain.SuggestedAddition{}

	recommendations := make(map[string]*domain.PropertyRecommendations, len(input.Recommendations))
	for key, rec := range input.Recommendations {
		normalized := NormalizeSchemaType(key)
		if _, ok := recommendations[normalized]; !ok {
			recommendations[normalized] = rec
		}
	}

	for normalized, count := range mergedUsageCounts(input.Usage) {
		if count <= 1 || currentTypes[normalized] {
			continue
		}
		suggestions = append(suggestions, domain.SuggestedAddition{
			Type:           normalized,
			Reason:         fmt.Sprintf("Used by %d competitors", count),
			Priority:       count,
			Recommendation: recommendations[normalized],
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Priority != suggestions[j].Priority {
			return suggestions[i].Priority > suggestions[j].Priority
		}
		return suggestions[i].Type < suggestions[j].Type
	})

	return suggestions
}

// mergedUsageCounts folds usage rows onto canonical type names so every
// comparison against the threshold sees one count per type.
func mergedUsageCounts(usage []domain.UsageStat) map[string]int {
	counts := make(map[string]int, len(usage))
	for _, stat := range usage {
		counts[NormalizeSchemaType(stat.SchemaType)] += stat.Count
	}
	return counts
}

// richResultOpportunities lists the rich results the page cannot earn yet
// because the enabling type is absent.
func richResultOpportunities(currentTypes map[string]bool) []domain.RichResultOpportunity {
	opportunities := []domain.RichResultOpportunity{}
	for _, mapping := range richResultMappings {
		if currentTypes[mapping.schemaType] {
			continue
		}
		opportunities = append(opportunities, domain.RichResultOpportunity{
			SchemaType: mapping.schemaType,
			RichResult: mapping.richResult,
			Message:    fmt.Sprintf("Implement %s schema to enable this rich result", mapping.schemaType),
		})
	}
	return opportunities
}

func normalizedTypeSet(schemas domain.SchemaMap) map[string]bool {
	set := make(map[string]bool, len(schemas))
	for schemaType := range schemas {
		set[NormalizeSchemaType(schemaType)] = true
	}
	return set
}

func sortedTypes(schemas domain.SchemaMap) []string {
	types := make([]string, 0, len(schemas))
	for schemaType := range schemas {
		types = append(types, schemaType)
	}
	sort.Strings(types)
	return types
}
