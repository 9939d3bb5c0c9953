// services/visibility_service.go
package services

import (
	"strings"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
)

type visibilityService struct{}

func NewVisibilityService() VisibilityService {
	return &visibilityService{}
}

// rankBuckets maps the number of words before the first mention to a rank, checked in order.
var rankBuckets = []struct {
	maxWords int
	rank     int
}{
	{10, models.RankTop},
	{30, models.RankHigh},
	{50, models.RankMiddle},
	{100, models.RankLow},
}

// ScorePosition returns the rank bucket of the first case-insensitive occurrence
// of productName in answerText, or models.PositionNotMentioned.
func (s *visibilityService) ScorePosition(answerText, productName string) int {
	name := strings.ToLower(strings.TrimSpace(productName))
	if name == "" || answerText == "" {
		return models.PositionNotMentioned
	}

	lower := strings.ToLower(answerText)
	idx := strings.Index(lower, name)
	if idx < 0 {
		return models.PositionNotMentioned
	}

	// Slice the lowered text: lowering can change byte offsets but never whitespace.
	wordsBefore := len(strings.Fields(lower[:idx]))

	for _, b := range rankBuckets {
		if wordsBefore <= b.maxWords {
			return b.rank
		}
	}
	return models.RankBuried
}

// Contribution maps a position to its 0-1 share of the visibility score.
func (s *visibilityService) Contribution(position int) float64 {
	switch position {
	case models.RankTop, models.RankHigh, models.RankMiddle, models.RankLow, models.RankBuried:
		return float64(models.RankBuried+1-position) / float64(models.RankBuried)
	default:
		return 0
	}
}
