package usecase

import (
	"errors"
	"testing"

	"github.com/schemascope/backend/internal/domain"
)

func TestNormalizeSchemaType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Article", "Article"},
		{"  Article  ", "Article"},
		{"https://schema.org/Article", "Article"},
		{"http://schema.org/Product", "Product"},
		{"Website", "WebSite"},
		{"website", "WebSite"},
		{"WebSite", "WebSite"},
		{"Webpage", "WebPage"},
		{"Localbusiness", "LocalBusiness"},
		{"FAQPage", "FAQPage"},
		{"faqpage", "FAQPage"},
		{"https://schema.org/Website", "WebSite"},
		{"SomethingCustom", "SomethingCustom"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeSchemaType(tt.in); got != tt.want {
				t.Errorf("NormalizeSchemaType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func errorFinding(msg string) domain.ValidationFinding {
	return domain.ValidationFinding{Severity: domain.SeverityError, Message: msg}
}

func warningFinding(msg string) domain.ValidationFinding {
	return domain.ValidationFinding{Severity: domain.SeverityWarning, Message: msg}
}

func TestClassify_ErrorFindingForcesNeedsImprovement(t *testing.T) {
	svc := NewClassifierService()

	report := svc.Classify(ClassifyInput{
		CurrentSchemas: domain.SchemaMap{
			"Article": map[string]any{"@type": "Article"},
		},
		Validations: map[string]*domain.ValidationResult{
			"Article": {
				Errors:   []domain.ValidationFinding{errorFinding("missing author")},
				Warnings: []domain.ValidationFinding{},
			},
		},
	})

	if len(report.GoodSchemas) != 0 {
		t.Errorf("GoodSchemas = %v, want empty", report.GoodSchemas)
	}
	if len(report.NeedsImprovement) != 1 {
		t.Fatalf("NeedsImprovement len = %d, want 1", len(report.NeedsImprovement))
	}
	entry := report.NeedsImprovement[0]
	if entry.Classification != domain.ClassificationNeedsImprovement {
		t.Errorf("Classification = %q, want needs_improvement", entry.Classification)
	}
}

func TestClassify_WarningOnlyIsNeedsImprovement(t *testing.T) {
	svc := NewClassifierService()

	report := svc.Classify(ClassifyInput{
		CurrentSchemas: domain.SchemaMap{"Product": map[string]any{"@type": "Product"}},
		Validations: map[string]*domain.ValidationResult{
			"Product": {Warnings: []domain.ValidationFinding{warningFinding("missing image")}},
		},
	})

	if len(report.NeedsImprovement) != 1 {
		t.Fatalf("NeedsImprovement len = %d, want 1", len(report.NeedsImprovement))
	}
}

func TestClassify_CleanPassIsGood(t *testing.T) {
	svc := NewClassifierService()

	report := svc.Classify(ClassifyInput{
		CurrentSchemas: domain.SchemaMap{"Article": map[string]any{"@type": "Article"}},
		Validations: map[string]*domain.ValidationResult{
			"Article": {},
		},
	})

	if len(report.GoodSchemas) != 1 {
		t.Fatalf("GoodSchemas len = %d, want 1", len(report.GoodSchemas))
	}
	// A "good" entry never carries an error-severity finding.
	for _, finding := range report.GoodSchemas[0].Findings {
		if finding.Severity == domain.SeverityError {
			t.Errorf("good entry carries error finding: %+v", finding)
		}
	}
}

func TestClassify_ValidationFailureBecomesFinding(t *testing.T) {
	svc := NewClassifierService()

	report := svc.Classify(ClassifyInput{
		CurrentSchemas: domain.SchemaMap{"Article": map[string]any{"@type": "Article"}},
		ValidationErrs: map[string]error{
			"Article": errors.New("validator unreachable"),
		},
	})

	if len(report.NeedsImprovement) != 1 {
		t.Fatalf("NeedsImprovement len = %d, want 1", len(report.NeedsImprovement))
	}
	entry := report.NeedsImprovement[0]
	if len(entry.Findings) != 1 || entry.Findings[0].Severity != domain.SeverityError {
		t.Errorf("Findings = %+v, want one error finding", entry.Findings)
	}
}

func TestClassify_EmptyCurrentSchemas(t *testing.T) {
	svc := NewClassifierService()

	usage := []domain.UsageStat{
		{SchemaType: "Organization", Count: 7},
		{SchemaType: "WebSite", Count: 6},
		{SchemaType: "Article", Count: 5},
		{SchemaType: "BreadcrumbList", Count: 4},
		{SchemaType: "Product", Count: 3},
		{SchemaType: "FAQPage", Count: 2},
		{SchemaType: "Review", Count: 1}, // count 1: never suggested
	}

	report := svc.Classify(ClassifyInput{
		CurrentSchemas: domain.SchemaMap{},
		Usage:          usage,
	})

	if len(report.GoodSchemas) != 0 || len(report.NeedsImprovement) != 0 {
		t.Errorf("expected no validation entries for an empty page")
	}
	if len(report.Warnings) == 0 {
		t.Errorf("expected a warning about missing schema markup")
	}
	if len(report.SuggestedAdditions) != 5 {
		t.Fatalf("SuggestedAdditions len = %d, want 5 (top-5 cap)", len(report.SuggestedAdditions))
	}
	for i := 1; i < len(report.SuggestedAdditions); i++ {
		if report.SuggestedAdditions[i].Priority > report.SuggestedAdditions[i-1].Priority {
			t.Errorf("suggestions not sorted descending at index %d", i)
		}
	}
	if report.SuggestedAdditions[0].Type != "Organization" {
		t.Errorf("top suggestion = %q, want Organization", report.SuggestedAdditions[0].Type)
	}
}

func TestClassify_SuggestedAdditionsScenario(t *testing.T) {
	// Target has Article only; 7 of 10 competitors use Organization,
	// 3 use Article.
	svc := NewClassifierService()

	report := svc.Classify(ClassifyInput{
		CurrentSchemas: domain.SchemaMap{"Article": map[string]any{"@type": "Article"}},
		Validations: map[string]*domain.ValidationResult{
			"Article": {Errors: []domain.ValidationFinding{errorFinding("missing datePublished")}},
		},
		Usage: []domain.UsageStat{
			{SchemaType: "Organization", Count: 7, Percentage: 70},
			{SchemaType: "Article", Count: 3, Percentage: 30},
		},
	})

	if len(report.SuggestedAdditions) != 1 {
		t.Fatalf("SuggestedAdditions = %+v, want exactly Organization", report.SuggestedAdditions)
	}
	suggestion := report.SuggestedAdditions[0]
	if suggestion.Type != "Organization" {
		t.Errorf("Type = %q, want Organization", suggestion.Type)
	}
	if suggestion.Priority != 7 {
		t.Errorf("Priority = %d, want 7", suggestion.Priority)
	}
	if suggestion.Reason != "Used by 7 competitors" {
		t.Errorf("Reason = %q", suggestion.Reason)
	}

	// Article is present, so it is classified by its own findings, not
	// suggested.
	if len(report.NeedsImprovement) != 1 || report.NeedsImprovement[0].Type != "Article" {
		t.Errorf("Article should be in NeedsImprovement, got %+v", report.NeedsImprovement)
	}
}

func TestClassify_NormalizationDefeatsCapitalizationDrift(t *testing.T) {
	svc := NewClassifierService()

	// Page declares "Website" (legacy alias); competitors use canonical
	// "WebSite". The alias must not be re-suggested.
	report := svc.Classify(ClassifyInput{
		CurrentSchemas: domain.SchemaMap{"Website": map[string]any{"@type": "Website"}},
		Usage: []domain.UsageStat{
			{SchemaType: "WebSite", Count: 5},
		},
	})

	if len(report.SuggestedAdditions) != 0 {
		t.Errorf("SuggestedAdditions = %+v, want empty (alias already present)", report.SuggestedAdditions)
	}
}

func TestClassify_AliasVariantsMergeIntoOneSuggestion(t *testing.T) {
	svc := NewClassifierService()

	// Competitor usage reports the same type under two spellings. The
	// counts must fold onto one canonical suggestion, not two.
	report := svc.Classify(ClassifyInput{
		CurrentSchemas: domain.SchemaMap{"Article": map[string]any{"@type": "Article"}},
		Usage: []domain.UsageStat{
			{SchemaType: "Website", Count: 3},
			{SchemaType: "WebSite", Count: 2},
		},
	})

	if len(report.SuggestedAdditions) != 1 {
		t.Fatalf("SuggestedAdditions = %+v, want exactly one merged WebSite entry", report.SuggestedAdditions)
	}
	suggestion := report.SuggestedAdditions[0]
	if suggestion.Type != "WebSite" {
		t.Errorf("Type = %q, want WebSite", suggestion.Type)
	}
	if suggestion.Priority != 5 {
		t.Errorf("Priority = %d, want 5 (merged count)", suggestion.Priority)
	}
	if suggestion.Reason != "Used by 5 competitors" {
		t.Errorf("Reason = %q", suggestion.Reason)
	}
}

func TestClassify_AliasVariantsCrossThresholdTogether(t *testing.T) {
	svc := NewClassifierService()

	// Two competitors use the type under different spellings, one each.
	// Merged they clear the more-than-one threshold.
	report := svc.Classify(ClassifyInput{
		CurrentSchemas: domain.SchemaMap{"Article": map[string]any{"@type": "Article"}},
		Usage: []domain.UsageStat{
			{SchemaType: "Website", Count: 1},
			{SchemaType: "WebSite", Count: 1},
		},
	})

	if len(report.SuggestedAdditions) != 1 {
		t.Fatalf("SuggestedAdditions = %+v, want one WebSite entry", report.SuggestedAdditions)
	}
	if report.SuggestedAdditions[0].Priority != 2 {
		t.Errorf("Priority = %d, want 2", report.SuggestedAdditions[0].Priority)
	}
}

func TestClassify_SingleCompetitorUsageNotSuggested(t *testing.T) {
	svc := NewClassifierService()

	report := svc.Classify(ClassifyInput{
		CurrentSchemas: domain.SchemaMap{"Article": map[string]any{}},
		Usage: []domain.UsageStat{
			{SchemaType: "Recipe", Count: 1},
		},
	})

	if len(report.SuggestedAdditions) != 0 {
		t.Errorf("SuggestedAdditions = %+v, want empty for count 1", report.SuggestedAdditions)
	}
}

func TestClassify_SuggestionCarriesRecommendation(t *testing.T) {
	svc := NewClassifierService()

	recs := &domain.PropertyRecommendations{SchemaType: "Organization"}
	report := svc.Classify(ClassifyInput{
		CurrentSchemas: domain.SchemaMap{"Article": map[string]any{}},
		Usage: []domain.UsageStat{
			{SchemaType: "Organization", Count: 4},
		},
		Recommendations: map[string]*domain.PropertyRecommendations{
			"Organization": recs,
		},
	})

	if len(report.SuggestedAdditions) != 1 {
		t.Fatalf("SuggestedAdditions len = %d, want 1", len(report.SuggestedAdditions))
	}
	if report.SuggestedAdditions[0].Recommendation != recs {
		t.Errorf("suggestion does not carry its property recommendations")
	}
}

func TestClassify_RichResultOpportunities(t *testing.T) {
	svc := NewClassifierService()

	report := svc.Classify(ClassifyInput{
		CurrentSchemas: domain.SchemaMap{"Article": map[string]any{}},
	})

	for _, opp := range report.RichResults {
		if opp.SchemaType == "Article" {
			t.Errorf("Article is present; its rich result should not be listed")
		}
	}
	types := make(map[string]bool)
	for _, opp := range report.RichResults {
		types[opp.SchemaType] = true
	}
	for _, want := range []string{"Product", "FAQPage", "Recipe", "Event", "Review"} {
		if !types[want] {
			t.Errorf("missing rich result opportunity for %s", want)
		}
	}
}

func TestClassify_ReportAlwaysFullyShaped(t *testing.T) {
	svc := NewClassifierService()

	report := svc.Classify(ClassifyInput{})

	if report.CurrentSchemas == nil || report.CompetitorUsage == nil ||
		report.GoodSchemas == nil || report.NeedsImprovement == nil ||
		report.SuggestedAdditions == nil || report.RichResults == nil ||
		report.SkippedCompetitors == nil || report.Insights == nil ||
		report.Warnings == nil {
		t.Errorf("report has nil fields: %+v", report)
	}
}
