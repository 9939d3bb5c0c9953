// services/scoring_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/metrics"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/interfaces"
)

type scoringService struct {
	repos           *RepositoryManager
	aggregator      AggregationService
	recommendations RecommendationService
	logger          *zap.Logger
}

func NewScoringService(repos *RepositoryManager, aggregator AggregationService, recommendations RecommendationService, logger *zap.Logger) ScoringService {
	return &scoringService{
		repos:           repos,
		aggregator:      aggregator,
		recommendations: recommendations,
		logger:          logger,
	}
}

// Recompute scores a run and replaces its score and recommendations together.
// The answers behind the score and behind the content gaps are one snapshot read
// under the run's lock. Running it again on unchanged answers stores the same rows.
func (s *scoringService) Recompute(ctx context.Context, runID int64, upstream *Analysis) (*RunResults, error) {
	var answerCount int
	score, recs, err := s.repos.ResultRepo.RecomputeResults(ctx, runID,
		func(answers []*models.Answer, sources []*models.Source) (*models.Score, []*models.Recommendation, error) {
			answerCount = len(answers)
			score := s.aggregator.Compute(answers, sources)
			score.RunID = runID

			analysis := s.recommendations.Analyze(answers)
			if upstream != nil {
				analysis.StructuredDataMissing = analysis.StructuredDataMissing || upstream.StructuredDataMissing
				analysis.ContentGaps = mergeGaps(analysis.ContentGaps, upstream.ContentGaps)
			}
			return score, s.recommendations.Recommend(score, analysis), nil
		})
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("run %d: %w", runID, ErrRunNotFound)
		}
		return nil, fmt.Errorf("failed to recompute results for run %d: %w", runID, err)
	}

	metrics.TotalScore.Observe(score.TotalScore)
	s.logger.Info("[Recompute] stored run results",
		zap.Int64("run_id", runID),
		zap.Int("answers", answerCount),
		zap.Float64("total_score", score.TotalScore),
		zap.Int("recommendations", len(recs)))

	return &RunResults{Score: score, Recommendations: nonNilRecs(recs)}, nil
}

func mergeGaps(own, extra []string) []string {
	seen := make(map[string]bool, len(own))
	for _, g := range own {
		seen[g] = true
	}
	for _, g := range extra {
		if g != "" && !seen[g] {
			seen[g] = true
			own = append(own, g)
		}
	}
	return own
}

func nonNilRecs(recs []*models.Recommendation) []*models.Recommendation {
	if recs == nil {
		return []*models.Recommendation{}
	}
	return recs
}
