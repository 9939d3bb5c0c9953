package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/config"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/testutil"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/questions"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/memory"
)

type testEnv struct {
	cfg       *config.Config
	store     *memory.Store
	repos     *RepositoryManager
	products  ProductService
	scoring   ScoringService
	queries   RunQueryService
	benchmark BenchmarkService
	product   *models.Product
	completer map[string]*testutil.ScriptedCompleter
}

// newTestEnv wires the full pipeline over the memory store with the first n questions
// of the default set. Each model in completers is served by its scripted completer.
func newTestEnv(t *testing.T, n int, completers map[string]*testutil.ScriptedCompleter) *testEnv {
	t.Helper()

	cfg := testutil.SampleConfig()
	store := memory.New()
	repos := NewMemoryRepositoryManager(store)
	logger := zap.NewNop()

	product := testutil.SampleProduct()
	require.NoError(t, repos.ProductRepo.Upsert(context.Background(), product))

	visibility := NewVisibilityService()
	sources := NewSourceEvaluatorService(logger)
	products := NewProductService(repos, logger)
	scoring := NewScoringService(repos, NewAggregationService(visibility), NewRecommendationService(), logger)

	factory := func(model string) (providers.Completer, error) {
		c, ok := completers[model]
		if !ok {
			return nil, fmt.Errorf("no completer for %s", model)
		}
		return c, nil
	}

	benchmark := NewBenchmarkService(BenchmarkDeps{
		Config:       cfg,
		Repos:        repos,
		Products:     products,
		Visibility:   visibility,
		Sources:      sources,
		Scoring:      scoring,
		Samples:      NewSampleDataService(),
		Questions:    questions.Default().Truncate(n),
		NewCompleter: factory,
		Logger:       logger,
	})

	return &testEnv{
		cfg:       cfg,
		store:     store,
		repos:     repos,
		products:  products,
		scoring:   scoring,
		queries:   NewRunQueryService(repos, products, sources),
		benchmark: benchmark,
		product:   product,
		completer: completers,
	}
}

// brandFirst answers every question with the brand as the first word.
func brandFirst(confidence float64) func(string) testutil.Reply {
	return func(q string) testutil.Reply {
		return testutil.TextReply(
			"Stelara is an approved biologic. "+strings.TrimSuffix(q, "?")+".",
			confidence,
			testutil.SampleSources()...,
		)
	}
}

func textOf(a *models.Answer) string {
	if a.AnswerText == nil {
		return ""
	}
	return *a.AnswerText
}
