// services/interfaces.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/common"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/interfaces"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/memory"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/postgresql"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrRunNotFound     = errors.New("run not found")
	ErrRunInProgress   = errors.New("a benchmark run is already in progress for this product")
)

// RepositoryManager manages all repositories
type RepositoryManager struct {
	ProductRepo interfaces.ProductRepository
	RunRepo     interfaces.RunRepository
	AnswerRepo  interfaces.AnswerRepository
	SourceRepo  interfaces.SourceRepository
	ResultRepo  interfaces.ResultRepository
}

// NewRepositoryManager creates a repository manager backed by PostgreSQL
func NewRepositoryManager(db *sqlx.DB) *RepositoryManager {
	return &RepositoryManager{
		ProductRepo: postgresql.NewProductRepo(db),
		RunRepo:     postgresql.NewRunRepo(db),
		AnswerRepo:  postgresql.NewAnswerRepo(db),
		SourceRepo:  postgresql.NewSourceRepo(db),
		ResultRepo:  postgresql.NewResultRepo(db),
	}
}

// NewMemoryRepositoryManager creates a repository manager over an in-process store
func NewMemoryRepositoryManager(store *memory.Store) *RepositoryManager {
	return &RepositoryManager{
		ProductRepo: store.Products(),
		RunRepo:     store.Runs(),
		AnswerRepo:  store.Answers(),
		SourceRepo:  store.Sources(),
		ResultRepo:  store.Results(),
	}
}

type CostService interface {
	CalculateCost(provider, model string, inputTokens, outputTokens int) float64
}

// VisibilityService maps answer text to a coarse position signal.
type VisibilityService interface {
	ScorePosition(answerText, productName string) int
	Contribution(position int) float64
}

// RawSource is a citation before normalization. Nil scores are derived.
type RawSource struct {
	URL            string
	Title          string
	Snippet        string
	Domain         string
	AuthorityScore *float64
	Sentiment      *float64
}

type SourceEvaluatorService interface {
	Evaluate(raw []RawSource) []*models.Source
	ExtractFromText(text string) []RawSource
	Dedupe(sources []*models.Source) []*models.Source
	DomainOf(rawURL string) string
	Authority(domain string) float64
	Sentiment(text string) float64
}

type AggregationService interface {
	Compute(answers []*models.Answer, sources []*models.Source) *models.Score
}

// Analysis carries signals beyond the score that drive recommendations.
type Analysis struct {
	StructuredDataMissing bool     `json:"structured_data_missing"`
	ContentGaps           []string `json:"content_gaps,omitempty"`
}

type RecommendationService interface {
	Analyze(answers []*models.Answer) Analysis
	Recommend(score *models.Score, analysis Analysis) []*models.Recommendation
}

// RunResults is the score and recommendations of one run.
type RunResults struct {
	Score           *models.Score            `json:"score"`
	Recommendations []*models.Recommendation `json:"recommendations"`
}

// ScoringService computes and stores the aggregate rows of a run in one unit.
type ScoringService interface {
	Recompute(ctx context.Context, runID int64, upstream *Analysis) (*RunResults, error)
}

type ProductService interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	ImportProducts(ctx context.Context, products []*models.Product) error
	TopCompetitor(ctx context.Context, productID int64) (*models.Competitor, error)
	ListStaleProducts(ctx context.Context, olderThan time.Duration) ([]int64, error)
}

// SampleDataService produces believable, deterministic answers without calling a provider.
type SampleDataService interface {
	Completion(product *models.Product, model, question string) *common.Completion
}

// AnswerIndexer pushes a finished run's answers to the search backends.
type AnswerIndexer interface {
	IndexRun(ctx context.Context, run *models.BenchmarkRun, product *models.Product, answers []*models.Answer) error
}

type RunRequest struct {
	ProductID int64     `json:"product_id"`
	Force     bool      `json:"force"`
	Models    []string  `json:"models,omitempty"`
	Analysis  *Analysis `json:"analysis,omitempty"`
}

// RunResult is what the caller of a pipeline step sees.
type RunResult struct {
	RunID            int64                    `json:"run_id"`
	ProductID        int64                    `json:"product_id"`
	Status           models.RunStatus         `json:"status"`
	Cached           bool                     `json:"cached"`
	Fallback         bool                     `json:"fallback"`
	Notice           string                   `json:"notice,omitempty"`
	AnswersProcessed int                      `json:"answers_processed"`
	QuestionsTotal   int                      `json:"questions_total"`
	Score            *models.Score            `json:"score,omitempty"`
	Recommendations  []*models.Recommendation `json:"recommendations"`
}

type BenchmarkService interface {
	RunBenchmark(ctx context.Context, req RunRequest) (*RunResult, error)
	SeedSampleRun(ctx context.Context, productID int64) (*RunResult, error)
	MockOtherModels(ctx context.Context, runID int64) (*RunResult, error)
}

// RunQueryService serves the read views.
type RunQueryService interface {
	GetRun(ctx context.Context, runID int64) (*RunView, error)
	GetLatestRun(ctx context.Context, productID int64) (*RunView, error)
	ListAnswers(ctx context.Context, runID int64) ([]*models.Answer, error)
	ListCitedSources(ctx context.Context, runID int64) ([]*models.Source, error)
}

type RunView struct {
	Run             *models.BenchmarkRun     `json:"run"`
	Product         *models.Product          `json:"product"`
	Score           *models.Score            `json:"score,omitempty"`
	Recommendations []*models.Recommendation `json:"recommendations"`
}
