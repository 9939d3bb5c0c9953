package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/testutil"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/memory"
)

func newProductService() (ProductService, *RepositoryManager) {
	repos := NewMemoryRepositoryManager(memory.New())
	return NewProductService(repos, zap.NewNop()), repos
}

func TestImportProductsLinksCompetitors(t *testing.T) {
	ctx := context.Background()
	s, _ := newProductService()

	stelara := testutil.SampleProduct()
	skyrizi := testutil.SampleCompetitorProduct()
	other := &models.Product{BrandName: "Humira", CompanyName: "AbbVie", ATCCode: "L04AB04"}
	require.NoError(t, s.ImportProducts(ctx, []*models.Product{stelara, skyrizi, other}))

	top, err := s.TopCompetitor(ctx, stelara.ID)
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, skyrizi.ID, top.CompetitorID)
	assert.Equal(t, "Skyrizi", top.CompetitorBrandName)
	assert.InDelta(t, 0.7143, top.Similarity, 1e-9)

	none, err := s.TopCompetitor(ctx, other.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	// Re-import keeps IDs stable.
	again := testutil.SampleProduct()
	require.NoError(t, s.ImportProducts(ctx, []*models.Product{again}))
	assert.Equal(t, stelara.ID, again.ID)

	all, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestImportProductsRequiresBrand(t *testing.T) {
	s, _ := newProductService()
	err := s.ImportProducts(context.Background(), []*models.Product{{CompanyName: "Janssen"}})
	assert.Error(t, err)
}

func TestGetProductNotFound(t *testing.T) {
	s, _ := newProductService()
	_, err := s.GetProduct(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrProductNotFound))
}

func TestListStaleProducts(t *testing.T) {
	ctx := context.Background()
	s, repos := newProductService()

	fresh := testutil.SampleProduct()
	stale := testutil.SampleCompetitorProduct()
	never := &models.Product{BrandName: "Tremfya", CompanyName: "Janssen"}
	require.NoError(t, s.ImportProducts(ctx, []*models.Product{fresh, stale, never}))

	require.NoError(t, repos.RunRepo.Create(ctx, &models.BenchmarkRun{ProductID: fresh.ID, StartedAt: time.Now().UTC()}))
	require.NoError(t, repos.RunRepo.Create(ctx, &models.BenchmarkRun{ProductID: stale.ID, StartedAt: time.Now().UTC().Add(-10 * 24 * time.Hour)}))

	ids, err := s.ListStaleProducts(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{stale.ID, never.ID}, ids)
}

func TestATCSimilarity(t *testing.T) {
	assert.True(t, sameATCClass("L04AC05", "l04ac18"))
	assert.False(t, sameATCClass("L04AC05", "L04AB04"))
	assert.False(t, sameATCClass("L04", "L04"))
	assert.Equal(t, 1.0, atcSimilarity("L04AC05", "L04AC05"))
	assert.Equal(t, 0.0, atcSimilarity("", ""))
}
