package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/config"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/common"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/questions"
	"github.com/AI-Template-SDK/senso-benchmarks/services"
)

// Smoke test for the configured LLM providers against a few rendered benchmark questions.
func main() {
	modelFlag := flag.String("models", "", "comma-separated models to test (defaults to BENCHMARK_MODELS)")
	limit := flag.Int("n", 3, "number of questions per model")
	save := flag.Bool("save", false, "write each completion to a JSON file")
	flag.Parse()

	fmt.Println("🧪 LLM Provider Test Script")
	fmt.Println(strings.Repeat("=", 50))

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	modelNames := cfg.Benchmark.ModelNames()
	if *modelFlag != "" {
		modelNames = strings.Split(*modelFlag, ",")
	}

	product := &models.Product{
		BrandName:  "Stelara",
		INN:        "ustekinumab",
		ATCCode:    "L04AC05",
		Indication: "moderate to severe plaque psoriasis",
	}
	competitor := &models.Competitor{CompetitorBrandName: "Skyrizi"}
	queries := questions.Default().Truncate(*limit).Render(product, competitor)

	fmt.Println("\n📋 Test Configuration:")
	fmt.Printf("  - Models: %s\n", strings.Join(modelNames, ", "))
	fmt.Printf("  - Questions: %d\n", len(queries))
	fmt.Printf("  - Product: %s (%s)\n", product.BrandName, product.INN)
	fmt.Println()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	costService := services.NewCostService()
	visibility := services.NewVisibilityService()
	sources := services.NewSourceEvaluatorService(logger)

	for _, modelName := range modelNames {
		testModel(strings.TrimSpace(modelName), cfg, costService, visibility, sources, logger, queries, product, *save)
	}
}

func testModel(
	modelName string,
	cfg *config.Config,
	costService services.CostService,
	visibility services.VisibilityService,
	sources services.SourceEvaluatorService,
	logger *zap.Logger,
	queries []string,
	product *models.Product,
	save bool,
) {
	fmt.Printf("\n🎯 Testing Model: %s\n", modelName)
	fmt.Println(strings.Repeat("-", 60))

	completer, err := providers.NewCompleter(modelName, cfg, costService, logger)
	if err != nil {
		fmt.Printf("❌ Failed to create provider: %v\n", err)
		return
	}
	fmt.Printf("✅ Provider created: %s\n\n", completer.GetProviderName())

	ctx := context.Background()
	totalCost := 0.0
	successCount := 0
	start := time.Now()

	for i, query := range queries {
		fmt.Printf("Question %d: %s\n", i+1, truncate(query, 60))

		callCtx, cancel := context.WithTimeout(ctx, cfg.Benchmark.CallTimeout)
		callStart := time.Now()
		completion, err := completer.Complete(callCtx, query)
		cancel()
		if err != nil {
			if common.IsQuotaError(err) {
				fmt.Printf("  ❌ Quota exhausted: %v\n\n", err)
				break
			}
			fmt.Printf("  ❌ Failed: %v\n\n", err)
			continue
		}
		successCount++
		totalCost += completion.Cost

		position := visibility.ScorePosition(completion.Text, product.BrandName)
		evaluated := sources.Evaluate(toRaw(completion.Sources))

		fmt.Printf("  Latency: %v\n", time.Since(callStart).Round(time.Millisecond))
		fmt.Printf("  Response: %s\n", truncate(completion.Text, 100))
		fmt.Printf("  Position: %d (contribution %.2f)\n", position, visibility.Contribution(position))
		fmt.Printf("  Confidence: %s, Sentiment: %s\n", fmtScore(completion.Confidence), fmtScore(completion.Sentiment))
		fmt.Printf("  Sources: %d\n", len(evaluated))
		for _, s := range evaluated {
			fmt.Printf("    - %s (authority %.2f)\n", s.Domain, s.AuthorityScore)
		}
		fmt.Printf("  Tokens: %d input, %d output\n", completion.PromptTokens, completion.CompletionTokens)
		fmt.Printf("  Cost: $%.6f\n\n", completion.Cost)

		if save {
			saveCompletion(modelName, i+1, completion)
		}
	}

	fmt.Printf("💰 Total Cost: $%.6f\n", totalCost)
	fmt.Printf("✅ Success Rate: %d/%d\n", successCount, len(queries))
	fmt.Printf("⏱️  Total Time: %v\n", time.Since(start).Round(time.Millisecond))
}

func toRaw(cited []common.CitedSource) []services.RawSource {
	raw := make([]services.RawSource, 0, len(cited))
	for _, c := range cited {
		raw = append(raw, services.RawSource{URL: c.URL, Title: c.Title})
	}
	return raw
}

func fmtScore(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func saveCompletion(modelName string, n int, completion *common.Completion) {
	filename := fmt.Sprintf("%s_%d.json", strings.ReplaceAll(modelName, "/", "_"), n)
	data, err := json.MarshalIndent(completion, "", "  ")
	if err != nil {
		fmt.Printf("  ❌ Failed to marshal completion: %v\n", err)
		return
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		fmt.Printf("  ❌ Failed to save %s: %v\n", filename, err)
		return
	}
	fmt.Printf("  💾 Saved: %s\n", filename)
}
