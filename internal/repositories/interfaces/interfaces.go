package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
)

// ErrNotFound is returned by Get* methods when no row matches.
var ErrNotFound = errors.New("not found")

type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	// Upsert inserts or updates by brand name and company.
	Upsert(ctx context.Context, product *models.Product) error
	ListCompetitors(ctx context.Context, productID int64) ([]*models.Competitor, error)
	AddCompetitor(ctx context.Context, competitor *models.Competitor) error
	// ListStale returns products with no run started after cutoff.
	ListStale(ctx context.Context, cutoff time.Time) ([]int64, error)
}

type RunRepository interface {
	Create(ctx context.Context, run *models.BenchmarkRun) error
	GetByID(ctx context.Context, id int64) (*models.BenchmarkRun, error)
	GetLatestByProduct(ctx context.Context, productID int64) (*models.BenchmarkRun, error)
	UpdateStatus(ctx context.Context, id int64, status models.RunStatus, finishedAt *time.Time) error
	UpdateModels(ctx context.Context, id int64, modelList string) error
}

type AnswerRepository interface {
	Create(ctx context.Context, answer *models.Answer) error
	ListByRun(ctx context.Context, runID int64) ([]*models.Answer, error)
	CountByRun(ctx context.Context, runID int64) (int, error)
}

type SourceRepository interface {
	Create(ctx context.Context, source *models.Source) error
	// ListByRun returns every source of every answer of the run, duplicates included.
	ListByRun(ctx context.Context, runID int64) ([]*models.Source, error)
}

// ResultsFunc derives a run's score and recommendations from one snapshot of its
// answers and sources. It must not call back into the repositories.
type ResultsFunc func(answers []*models.Answer, sources []*models.Source) (*models.Score, []*models.Recommendation, error)

// ResultRepository owns the per-run aggregate rows.
type ResultRepository interface {
	GetScore(ctx context.Context, runID int64) (*models.Score, error)
	ListRecommendations(ctx context.Context, runID int64) ([]*models.Recommendation, error)
	// RecomputeResults locks the run, reads its answers and sources, and stores what
	// compute returns as the run's score and full recommendation list. Calls for the
	// same run serialize, so the last one to commit read the newest answers.
	RecomputeResults(ctx context.Context, runID int64, compute ResultsFunc) (*models.Score, []*models.Recommendation, error)
}
