// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/qdrant/go-client/qdrant"
	"github.com/typesense/typesense-go/v2/typesense"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/api"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/config"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/metrics"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/questions"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/memory"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/postgresql"
	"github.com/AI-Template-SDK/senso-benchmarks/services"
	"github.com/AI-Template-SDK/senso-benchmarks/workflows"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Environment == "development" {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.Level = level
	return zcfg.Build()
}

// demoProducts seeds the in-memory backend so the service is usable without a database.
func demoProducts() []*models.Product {
	return []*models.Product{
		{BrandName: "Stelara", INN: "ustekinumab", CompanyName: "Janssen", ATCCode: "L04AC05",
			Indication: "moderate to severe plaque psoriasis", ApprovalStatus: "approved", ApprovalRegion: "US"},
		{BrandName: "Skyrizi", INN: "risankizumab", CompanyName: "AbbVie", ATCCode: "L04AC18",
			Indication: "moderate to severe plaque psoriasis", ApprovalStatus: "approved", ApprovalRegion: "US"},
		{BrandName: "Tremfya", INN: "guselkumab", CompanyName: "Janssen", ATCCode: "L04AC16",
			Indication: "moderate to severe plaque psoriasis", ApprovalStatus: "approved", ApprovalRegion: "US"},
		{BrandName: "Keytruda", INN: "pembrolizumab", CompanyName: "Merck", ATCCode: "L01FF02",
			Indication: "advanced melanoma and non-small cell lung cancer", ApprovalStatus: "approved", ApprovalRegion: "US"},
		{BrandName: "Opdivo", INN: "nivolumab", CompanyName: "Bristol Myers Squibb", ATCCode: "L01FF01",
			Indication: "advanced melanoma and non-small cell lung cancer", ApprovalStatus: "approved", ApprovalRegion: "US"},
	}
}

func newRepositories(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*services.RepositoryManager, func(), error) {
	if cfg.StorageBackend == "memory" {
		logger.Info("Using in-memory storage backend")
		return services.NewMemoryRepositoryManager(memory.New()), func() {}, nil
	}

	db, err := postgresql.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := postgresql.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("Successfully connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("name", cfg.Database.Name))
	return services.NewRepositoryManager(db), func() { db.Close() }, nil
}

// newAnswerIndexer connects the search backends. It returns nil when indexing is disabled.
func newAnswerIndexer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.AnswerIndexer, error) {
	if !cfg.AnswerIndex {
		return nil, nil
	}

	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Qdrant.Host,
		Port: cfg.Qdrant.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	if err := services.EnsureQdrantCollection(ctx, qdrantClient); err != nil {
		return nil, err
	}
	logger.Info("Qdrant collection is ready", zap.String("collection", services.AnswerCollection))

	typesenseClient := typesense.NewClient(
		typesense.WithServer(fmt.Sprintf("http://%s:%d", cfg.Typesense.Host, cfg.Typesense.Port)),
		typesense.WithAPIKey(cfg.Typesense.APIKey),
	)
	if err := services.EnsureTypesenseCollection(ctx, typesenseClient); err != nil {
		return nil, err
	}
	logger.Info("Typesense collection is ready", zap.String("collection", services.AnswerCollection))

	var embedder services.Embedder
	if cfg.OpenAIAPIKey != "" {
		embedder = services.NewOpenAIEmbedder(cfg.OpenAIAPIKey)
	} else {
		logger.Warn("OPENAI_API_KEY not set, vector indexing disabled")
	}

	return services.NewAnswerIndexService(
		embedder,
		services.NewQdrantIndex(qdrantClient),
		services.NewTypesenseIndex(typesenseClient),
		logger,
	), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting Senso Benchmarks",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.StorageBackend),
		zap.Strings("models", cfg.Benchmark.ModelNames()))

	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OpenAI API key not loaded")
	}
	if cfg.AnthropicAPIKey == "" {
		logger.Warn("Anthropic API key not loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := newRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer closeRepos()

	questionSet := questions.Default()
	if cfg.Benchmark.QuestionSetPath != "" {
		questionSet, err = questions.Load(cfg.Benchmark.QuestionSetPath)
		if err != nil {
			logger.Fatal("Failed to load question set", zap.Error(err))
		}
	}
	logger.Info("Question set loaded",
		zap.String("id", questionSet.ID),
		zap.String("version", questionSet.Version),
		zap.Int("questions", len(questionSet.Questions)))

	indexer, err := newAnswerIndexer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize answer index", zap.Error(err))
	}

	metrics.Init()

	costService := services.NewCostService()
	visibility := services.NewVisibilityService()
	sourceEvaluator := services.NewSourceEvaluatorService(logger)
	productService := services.NewProductService(repos, logger)
	scoringService := services.NewScoringService(
		repos,
		services.NewAggregationService(visibility),
		services.NewRecommendationService(),
		logger,
	)

	if cfg.StorageBackend == "memory" {
		if err := productService.ImportProducts(ctx, demoProducts()); err != nil {
			logger.Fatal("Failed to seed demo products", zap.Error(err))
		}
	}

	benchmarkService := services.NewBenchmarkService(services.BenchmarkDeps{
		Config:     cfg,
		Repos:      repos,
		Products:   productService,
		Visibility: visibility,
		Sources:    sourceEvaluator,
		Scoring:    scoringService,
		Samples:    services.NewSampleDataService(),
		Questions:  questionSet,
		NewCompleter: func(model string) (providers.Completer, error) {
			return providers.NewCompleter(model, cfg, costService, logger)
		},
		Indexer: indexer,
		Logger:  logger,
	})

	if cfg.Environment == "development" || cfg.Environment == "" {
		os.Unsetenv("INNGEST_SIGNING_KEY")
		cfg.InngestSigningKey = ""
		logger.Info("Running in development mode - signing key verification disabled")
	}

	client, err := inngestgo.NewClient(
		inngestgo.ClientOpts{
			AppID:    "senso-benchmarks",
			EventKey: inngestgo.StrPtr(cfg.InngestEventKey),
			Env:      inngestgo.StrPtr(cfg.Environment),
		},
	)
	if err != nil {
		logger.Fatal("Failed to create Inngest client", zap.Error(err))
	}

	alerts := workflows.NewSlackNotifier(cfg.SlackWebhookURL, logger)

	benchmarkProcessor := workflows.NewBenchmarkProcessor(benchmarkService, scoringService, alerts, logger)
	benchmarkProcessor.SetClient(client)
	benchmarkProcessor.ProcessBenchmarkRun()
	benchmarkProcessor.RecomputeScores()
	benchmarkProcessor.MockOtherModels()

	scheduledProcessor := workflows.NewScheduledProcessor(productService, cfg.Benchmark.StaleAfter, logger)
	scheduledProcessor.SetClient(client)
	scheduledProcessor.DailyStaleBenchmarks()

	logger.Info("All workflows registered")

	router := api.NewRouter(api.Deps{
		Benchmark: benchmarkService,
		Scoring:   scoringService,
		Queries:   services.NewRunQueryService(repos, productService, sourceEvaluator),
		Products:  productService,
		Inngest:   client.Serve(),
		APIKey:    cfg.APIKey,
		Logger:    logger,
	})

	// Benchmark runs are synchronous, so writes may take minutes.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
