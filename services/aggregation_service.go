// services/aggregation_service.go
package services

import (
	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
)

const (
	DefaultConfidence = 0.75
	// Each of the four sub-scores carries the same weight in the total.
	subScoreWeight = 0.25
)

type aggregationService struct {
	visibility VisibilityService
}

func NewAggregationService(visibility VisibilityService) AggregationService {
	return &aggregationService{visibility: visibility}
}

// Compute derives a run score from its answers and every source attached to them.
// Zero answers yield an all-zero score.
func (s *aggregationService) Compute(answers []*models.Answer, sources []*models.Source) *models.Score {
	score := &models.Score{}
	if len(answers) > 0 {
		var visibility, accuracy, sentiment float64
		for _, a := range answers {
			visibility += s.visibility.Contribution(a.Position)

			if a.Raw.Confidence != nil {
				accuracy += clampUnit(*a.Raw.Confidence)
			} else {
				accuracy += DefaultConfidence
			}

			if a.Raw.Sentiment != nil {
				sentiment += clampUnit(*a.Raw.Sentiment)
			} else {
				sentiment += NeutralSentiment
			}
		}
		n := float64(len(answers))
		score.Visibility = round4(visibility / n)
		score.Accuracy = round4(accuracy / n)
		score.Sentiment = round4(sentiment / n)

		if len(sources) > 0 {
			var authority float64
			for _, src := range sources {
				authority += src.AuthorityScore
			}
			score.ReferenceQuality = round4(authority / float64(len(sources)))
		}
	}

	score.TotalScore = round4(subScoreWeight *
		(score.Visibility + score.Accuracy + score.Sentiment + score.ReferenceQuality))
	return score
}
