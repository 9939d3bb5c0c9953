// Package memory is an in-process implementation of the repository interfaces,
// used by the local demo mode and by service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/interfaces"
)

type Store struct {
	mu sync.RWMutex

	nextID          int64
	products        map[int64]models.Product
	competitors     []models.Competitor
	runs            map[int64]models.BenchmarkRun
	answers         []models.Answer
	sources         []models.Source
	scores          map[int64]models.Score
	recommendations map[int64][]models.Recommendation

	// FailSourceInserts makes every source insert fail; used to test persistence error handling.
	FailSourceInserts bool
}

func New() *Store {
	return &Store{
		products:        make(map[int64]models.Product),
		runs:            make(map[int64]models.BenchmarkRun),
		scores:          make(map[int64]models.Score),
		recommendations: make(map[int64][]models.Recommendation),
	}
}

func (s *Store) Products() interfaces.ProductRepository { return &productRepo{s} }
func (s *Store) Runs() interfaces.RunRepository         { return &runRepo{s} }
func (s *Store) Answers() interfaces.AnswerRepository   { return &answerRepo{s} }
func (s *Store) Sources() interfaces.SourceRepository   { return &sourceRepo{s} }
func (s *Store) Results() interfaces.ResultRepository   { return &resultRepo{s} }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

type productRepo struct{ s *Store }

func (r *productRepo) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, interfaces.ErrNotFound)
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context) ([]*models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*models.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *productRepo) Upsert(ctx context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, existing := range r.s.products {
		if strings.EqualFold(existing.BrandName, product.BrandName) && strings.EqualFold(existing.CompanyName, product.CompanyName) {
			product.ID = id
			product.CreatedAt = existing.CreatedAt
			r.s.products[id] = *product
			return nil
		}
	}
	product.ID = r.s.id()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	r.s.products[product.ID] = *product
	return nil
}

func (r *productRepo) ListCompetitors(ctx context.Context, productID int64) ([]*models.Competitor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Competitor
	for _, c := range r.s.competitors {
		if c.ProductID != productID {
			continue
		}
		c := c
		if p, ok := r.s.products[c.CompetitorID]; ok {
			c.CompetitorBrandName = p.BrandName
		}
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out, nil
}

func (r *productRepo) AddCompetitor(ctx context.Context, competitor *models.Competitor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[competitor.ProductID]; !ok {
		return fmt.Errorf("product %d: %w", competitor.ProductID, interfaces.ErrNotFound)
	}
	if _, ok := r.s.products[competitor.CompetitorID]; !ok {
		return fmt.Errorf("product %d: %w", competitor.CompetitorID, interfaces.ErrNotFound)
	}
	for i, c := range r.s.competitors {
		if c.ProductID == competitor.ProductID && c.CompetitorID == competitor.CompetitorID {
			r.s.competitors[i].Similarity = competitor.Similarity
			return nil
		}
	}
	r.s.competitors = append(r.s.competitors, *competitor)
	return nil
}

func (r *productRepo) ListStale(ctx context.Context, cutoff time.Time) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	latest := make(map[int64]time.Time)
	for _, run := range r.s.runs {
		if run.StartedAt.After(latest[run.ProductID]) {
			latest[run.ProductID] = run.StartedAt
		}
	}
	var out []int64
	for id := range r.s.products {
		if t, ok := latest[id]; !ok || !t.After(cutoff) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

type runRepo struct{ s *Store }

func (r *runRepo) Create(ctx context.Context, run *models.BenchmarkRun) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[run.ProductID]; !ok {
		return fmt.Errorf("product %d: %w", run.ProductID, interfaces.ErrNotFound)
	}
	run.ID = r.s.id()
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	r.s.runs[run.ID] = *run
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, id int64) (*models.BenchmarkRun, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	run, ok := r.s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %d: %w", id, interfaces.ErrNotFound)
	}
	return &run, nil
}

func (r *runRepo) GetLatestByProduct(ctx context.Context, productID int64) (*models.BenchmarkRun, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var latest *models.BenchmarkRun
	for _, run := range r.s.runs {
		if run.ProductID != productID {
			continue
		}
		if latest == nil || run.StartedAt.After(latest.StartedAt) ||
			(run.StartedAt.Equal(latest.StartedAt) && run.ID > latest.ID) {
			run := run
			latest = &run
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("latest run for product %d: %w", productID, interfaces.ErrNotFound)
	}
	return latest, nil
}

func (r *runRepo) UpdateStatus(ctx context.Context, id int64, status models.RunStatus, finishedAt *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	run, ok := r.s.runs[id]
	if !ok {
		return fmt.Errorf("run %d: %w", id, interfaces.ErrNotFound)
	}
	run.Status = status
	if finishedAt != nil {
		t := *finishedAt
		run.FinishedAt = &t
	}
	r.s.runs[id] = run
	return nil
}

func (r *runRepo) UpdateModels(ctx context.Context, id int64, modelList string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	run, ok := r.s.runs[id]
	if !ok {
		return fmt.Errorf("run %d: %w", id, interfaces.ErrNotFound)
	}
	run.Models = modelList
	r.s.runs[id] = run
	return nil
}

type answerRepo struct{ s *Store }

func (r *answerRepo) Create(ctx context.Context, answer *models.Answer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.runs[answer.RunID]; !ok {
		return fmt.Errorf("run %d: %w", answer.RunID, interfaces.ErrNotFound)
	}
	answer.ID = r.s.id()
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now().UTC()
	}
	cp := *answer
	if answer.AnswerText != nil {
		text := *answer.AnswerText
		cp.AnswerText = &text
	}
	r.s.answers = append(r.s.answers, cp)
	return nil
}

func (r *answerRepo) ListByRun(ctx context.Context, runID int64) ([]*models.Answer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.answersOf(runID), nil
}

// answersOf expects s.mu to be held.
func (s *Store) answersOf(runID int64) []*models.Answer {
	var out []*models.Answer
	for _, a := range s.answers {
		if a.RunID == runID {
			a := a
			out = append(out, &a)
		}
	}
	return out
}

func (r *answerRepo) CountByRun(ctx context.Context, runID int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, a := range r.s.answers {
		if a.RunID == runID {
			n++
		}
	}
	return n, nil
}

type sourceRepo struct{ s *Store }

func (r *sourceRepo) Create(ctx context.Context, source *models.Source) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailSourceInserts {
		return fmt.Errorf("source insert rejected")
	}
	source.ID = r.s.id()
	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now().UTC()
	}
	r.s.sources = append(r.s.sources, *source)
	return nil
}

func (r *sourceRepo) ListByRun(ctx context.Context, runID int64) ([]*models.Source, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.sourcesOf(runID), nil
}

// sourcesOf expects s.mu to be held.
func (s *Store) sourcesOf(runID int64) []*models.Source {
	answerIDs := make(map[int64]bool)
	for _, a := range s.answers {
		if a.RunID == runID {
			answerIDs[a.ID] = true
		}
	}
	var out []*models.Source
	for _, src := range s.sources {
		if answerIDs[src.AnswerID] {
			src := src
			out = append(out, &src)
		}
	}
	return out
}

type resultRepo struct{ s *Store }

func (r *resultRepo) GetScore(ctx context.Context, runID int64) (*models.Score, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	score, ok := r.s.scores[runID]
	if !ok {
		return nil, fmt.Errorf("score for run %d: %w", runID, interfaces.ErrNotFound)
	}
	return &score, nil
}

func (r *resultRepo) ListRecommendations(ctx context.Context, runID int64) ([]*models.Recommendation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Recommendation
	for _, rec := range r.s.recommendations[runID] {
		rec := rec
		out = append(out, &rec)
	}
	return out, nil
}

// RecomputeResults holds the store's write lock from the first read to the last write.
func (r *resultRepo) RecomputeResults(ctx context.Context, runID int64, compute interfaces.ResultsFunc) (*models.Score, []*models.Recommendation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.runs[runID]; !ok {
		return nil, nil, fmt.Errorf("run %d: %w", runID, interfaces.ErrNotFound)
	}

	score, recs, err := compute(r.s.answersOf(runID), r.s.sourcesOf(runID))
	if err != nil {
		return nil, nil, err
	}
	score.RunID = runID

	now := time.Now().UTC()
	if existing, ok := r.s.scores[runID]; ok {
		score.ID = existing.ID
	} else {
		score.ID = r.s.id()
	}
	score.CreatedAt = now
	r.s.scores[runID] = *score

	replaced := make([]models.Recommendation, 0, len(recs))
	for _, rec := range recs {
		rec.ID = r.s.id()
		rec.RunID = runID
		rec.CreatedAt = now
		replaced = append(replaced, *rec)
	}
	r.s.recommendations[runID] = replaced
	return score, recs, nil
}
