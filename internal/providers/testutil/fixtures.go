package testutil

import (
	"time"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/config"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/common"
)

// SampleConfig returns a test configuration
func SampleConfig() *config.Config {
	return &config.Config{
		Port:            "8000",
		Environment:     "test",
		StorageBackend:  "memory",
		OpenAIAPIKey:    "test-openai-key",
		AnthropicAPIKey: "test-anthropic-key",
		Benchmark: config.BenchmarkConfig{
			Models:      "gpt-4.1",
			MockModels:  "claude-3-5-sonnet,gemini-1.5-pro,perplexity-sonar",
			CallTimeout: 5 * time.Second,
			CallDelay:   0,
			MaxRetries:  0,
			StaleAfter:  168 * time.Hour,
		},
	}
}

// SampleProduct returns Stelara with its usual reference data.
func SampleProduct() *models.Product {
	return &models.Product{
		BrandName:      "Stelara",
		INN:            "ustekinumab",
		CompanyName:    "Janssen",
		ATCCode:        "L04AC05",
		Indication:     "moderate to severe plaque psoriasis",
		ApprovalStatus: "approved",
		ApprovalRegion: "US",
	}
}

// SampleCompetitorProduct returns a product in the same ATC class as SampleProduct.
func SampleCompetitorProduct() *models.Product {
	return &models.Product{
		BrandName:      "Skyrizi",
		INN:            "risankizumab",
		CompanyName:    "AbbVie",
		ATCCode:        "L04AC18",
		Indication:     "moderate to severe plaque psoriasis",
		ApprovalStatus: "approved",
		ApprovalRegion: "US",
	}
}

// SampleSources returns authoritative citations.
func SampleSources() []common.CitedSource {
	return []common.CitedSource{
		{URL: "https://www.fda.gov/drugs/stelara", Title: "Stelara approved label"},
		{URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa0810652", Title: "Effective long-term control of psoriasis"},
	}
}
