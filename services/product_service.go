// services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/interfaces"
)

type productService struct {
	repos  *RepositoryManager
	logger *zap.Logger
}

func NewProductService(repos *RepositoryManager, logger *zap.Logger) ProductService {
	return &productService{
		repos:  repos,
		logger: logger,
	}
}

func (s *productService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.repos.ProductRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	products, err := s.repos.ProductRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// ImportProducts upserts by brand and company, then links products sharing an ATC class.
func (s *productService) ImportProducts(ctx context.Context, products []*models.Product) error {
	for _, p := range products {
		if strings.TrimSpace(p.BrandName) == "" {
			return fmt.Errorf("product brand name is required")
		}
		if err := s.repos.ProductRepo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("failed to upsert product %s: %w", p.BrandName, err)
		}
	}

	for _, p := range products {
		for _, other := range products {
			if p.ID == other.ID || !sameATCClass(p.ATCCode, other.ATCCode) {
				continue
			}
			competitor := &models.Competitor{
				ProductID:           p.ID,
				CompetitorID:        other.ID,
				CompetitorBrandName: other.BrandName,
				Similarity:          atcSimilarity(p.ATCCode, other.ATCCode),
			}
			if err := s.repos.ProductRepo.AddCompetitor(ctx, competitor); err != nil {
				s.logger.Warn("[ImportProducts] failed to link competitor",
					zap.Int64("product_id", p.ID),
					zap.Int64("competitor_id", other.ID),
					zap.Error(err))
			}
		}
	}

	s.logger.Info("[ImportProducts] imported products", zap.Int("count", len(products)))
	return nil
}

// TopCompetitor returns the most similar competitor, or nil when none are linked.
func (s *productService) TopCompetitor(ctx context.Context, productID int64) (*models.Competitor, error) {
	competitors, err := s.repos.ProductRepo.ListCompetitors(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors for product %d: %w", productID, err)
	}
	if len(competitors) == 0 {
		return nil, nil
	}
	sort.SliceStable(competitors, func(i, j int) bool {
		return competitors[i].Similarity > competitors[j].Similarity
	})
	return competitors[0], nil
}

func (s *productService) ListStaleProducts(ctx context.Context, olderThan time.Duration) ([]int64, error) {
	ids, err := s.repos.ProductRepo.ListStale(ctx, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("failed to list stale products: %w", err)
	}
	return ids, nil
}

// ATC level 4 (first five characters) defines the therapeutic class.
func sameATCClass(a, b string) bool {
	return len(a) >= 5 && len(b) >= 5 && strings.EqualFold(a[:5], b[:5])
}

// atcSimilarity is the share of matching leading ATC characters.
func atcSimilarity(a, b string) float64 {
	a, b = strings.ToUpper(a), strings.ToUpper(b)
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	common := 0
	for common < len(a) && common < len(b) && a[common] == b[common] {
		common++
	}
	return round4(float64(common) / float64(n))
}
