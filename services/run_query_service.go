// services/run_query_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/interfaces"
)

type runQueryService struct {
	repos    *RepositoryManager
	products ProductService
	sources  SourceEvaluatorService
}

func NewRunQueryService(repos *RepositoryManager, products ProductService, sources SourceEvaluatorService) RunQueryService {
	return &runQueryService{
		repos:    repos,
		products: products,
		sources:  sources,
	}
}

func (s *runQueryService) GetRun(ctx context.Context, runID int64) (*RunView, error) {
	run, err := s.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, run)
}

func (s *runQueryService) GetLatestRun(ctx context.Context, productID int64) (*RunView, error) {
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	run, err := s.repos.RunRepo.GetLatestByProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("no runs for product %d: %w", productID, ErrRunNotFound)
		}
		return nil, fmt.Errorf("failed to load latest run for product %d: %w", productID, err)
	}
	return s.view(ctx, run)
}

func (s *runQueryService) ListAnswers(ctx context.Context, runID int64) ([]*models.Answer, error) {
	if _, err := s.loadRun(ctx, runID); err != nil {
		return nil, err
	}
	answers, err := s.repos.AnswerRepo.ListByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers for run %d: %w", runID, err)
	}
	if answers == nil {
		answers = []*models.Answer{}
	}
	return answers, nil
}

// ListCitedSources returns each cited URL of the run once.
func (s *runQueryService) ListCitedSources(ctx context.Context, runID int64) ([]*models.Source, error) {
	if _, err := s.loadRun(ctx, runID); err != nil {
		return nil, err
	}
	sources, err := s.repos.SourceRepo.ListByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources for run %d: %w", runID, err)
	}
	return s.sources.Dedupe(sources), nil
}

func (s *runQueryService) loadRun(ctx context.Context, runID int64) (*models.BenchmarkRun, error) {
	run, err := s.repos.RunRepo.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("run %d: %w", runID, ErrRunNotFound)
		}
		return nil, fmt.Errorf("failed to load run %d: %w", runID, err)
	}
	return run, nil
}

func (s *runQueryService) view(ctx context.Context, run *models.BenchmarkRun) (*RunView, error) {
	product, err := s.products.GetProduct(ctx, run.ProductID)
	if err != nil {
		return nil, err
	}

	v := &RunView{Run: run, Product: product, Recommendations: []*models.Recommendation{}}

	score, err := s.repos.ResultRepo.GetScore(ctx, run.ID)
	switch {
	case err == nil:
		v.Score = score
	case errors.Is(err, interfaces.ErrNotFound):
		// Not scored yet.
	default:
		return nil, fmt.Errorf("failed to load score for run %d: %w", run.ID, err)
	}

	recs, err := s.repos.ResultRepo.ListRecommendations(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations for run %d: %w", run.ID, err)
	}
	v.Recommendations = nonNilRecs(recs)
	return v, nil
}
