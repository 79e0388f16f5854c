package main

import (
	"fmt"
	"log"
	"os"

	"github.com/schemascope/backend/config"
	httpDelivery "github.com/schemascope/backend/internal/delivery/http"
	"github.com/schemascope/backend/internal/infrastructure/extractor"
	"github.com/schemascope/backend/internal/infrastructure/llm"
	"github.com/schemascope/backend/internal/infrastructure/pacing"
	"github.com/schemascope/backend/internal/infrastructure/serp"
	"github.com/schemascope/backend/internal/infrastructure/validator"
	"github.com/schemascope/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting SchemaScope Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// One limiter per upstream so a burst against one API never
	// throttles the others
	searchLimiter := pacing.NewLimiter(cfg.Pacing.SearchInterval)
	llmLimiter := pacing.NewLimiter(cfg.Pacing.LLMInterval)
	fetchLimiter := pacing.NewLimiter(cfg.Pacing.FetchInterval)

	pageExtractor := extractor.New()
	searchClient := serp.NewClient(cfg.Search.APIKey, cfg.Search.BaseURL, searchLimiter)
	schemaValidator := validator.NewClient(validator.DefaultEndpoint)
	recommender := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, llmLimiter)

	log.Printf("Search API configured: %s (key: %s...)", cfg.Search.BaseURL, cfg.Search.APIKey[:min(8, len(cfg.Search.APIKey))])
	log.Printf("LLM configured: %s model=%s", cfg.LLM.BaseURL, cfg.LLM.Model)

	// Initialize usecase layer
	competitorService := usecase.NewCompetitorService(
		searchClient,
		pageExtractor,
		fetchLimiter,
		usecase.CompetitorServiceConfig{
			MaxCompetitors: cfg.Search.TopN,
		},
	)
	analysisService := usecase.NewAnalysisService(
		pageExtractor,
		competitorService,
		schemaValidator,
		recommender,
	)

	log.Printf("Analysis: competitors=%d, search interval=%s, fetch interval=%s",
		cfg.Search.TopN, cfg.Pacing.SearchInterval, cfg.Pacing.FetchInterval)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(analysisService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
