// services/benchmark_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/config"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/metrics"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/common"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/mock"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/questions"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/interfaces"
)

// ErrModelUnavailable is returned when a requested model cannot be served.
var ErrModelUnavailable = errors.New("model unavailable")

const (
	NoticeQuotaFallback = "Live model quota was exceeded; the remaining answers use illustrative sample data."
	NoticeEmptyRun      = "The previous run produced no answers; showing illustrative sample data."
	NoticeSeeded        = "This run was seeded with illustrative sample data."
	NoticeScoresPending = "Scores could not be computed yet; answers are available."
)

// CompleterFactory builds the completion client for a model name.
type CompleterFactory func(model string) (providers.Completer, error)

// BenchmarkDeps wires the orchestrator. Indexer may be nil.
type BenchmarkDeps struct {
	Config       *config.Config
	Repos        *RepositoryManager
	Products     ProductService
	Visibility   VisibilityService
	Sources      SourceEvaluatorService
	Scoring      ScoringService
	Samples      SampleDataService
	Questions    *questions.Set
	NewCompleter CompleterFactory
	Indexer      AnswerIndexer
	Logger       *zap.Logger
}

type benchmarkService struct {
	cfg          *config.Config
	repos        *RepositoryManager
	products     ProductService
	visibility   VisibilityService
	sources      SourceEvaluatorService
	scoring      ScoringService
	samples      SampleDataService
	questions    *questions.Set
	newCompleter CompleterFactory
	indexer      AnswerIndexer
	logger       *zap.Logger

	lock    *runLock
	limiter *rate.Limiter
}

func NewBenchmarkService(deps BenchmarkDeps) BenchmarkService {
	limit := rate.Inf
	if deps.Config.Benchmark.CallDelay > 0 {
		limit = rate.Every(deps.Config.Benchmark.CallDelay)
	}
	set := deps.Questions
	if set == nil {
		set = questions.Default()
	}
	return &benchmarkService{
		cfg:          deps.Config,
		repos:        deps.Repos,
		products:     deps.Products,
		visibility:   deps.Visibility,
		sources:      deps.Sources,
		scoring:      deps.Scoring,
		samples:      deps.Samples,
		questions:    set,
		newCompleter: deps.NewCompleter,
		indexer:      deps.Indexer,
		logger:       deps.Logger,
		lock:         newRunLock(),
		limiter:      rate.NewLimiter(limit, 1),
	}
}

// pair is one (model, question) cell of the run matrix.
type pair struct {
	model         string
	questionIndex int
	question      string
}

// runState accumulates the outcome of a run while it executes.
type runState struct {
	run     *models.BenchmarkRun
	product *models.Product
	status  models.RunStatus
	started time.Time
}

// RunBenchmark executes the question set against every model for one product.
func (s *benchmarkService) RunBenchmark(ctx context.Context, req RunRequest) (*RunResult, error) {
	product, err := s.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	release, ok := s.lock.TryAcquire(product.ID)
	if !ok {
		metrics.RunsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("product %d: %w", product.ID, ErrRunInProgress)
	}
	defer release()

	if !req.Force {
		result, handled, err := s.reuseLatestRun(ctx, product, req.Analysis)
		if err != nil || handled {
			return result, err
		}
	}

	modelNames := req.Models
	if len(modelNames) == 0 {
		modelNames = s.cfg.Benchmark.ModelNames()
	}
	if len(modelNames) == 0 {
		return nil, fmt.Errorf("no models configured: %w", ErrModelUnavailable)
	}

	completers := make(map[string]providers.Completer, len(modelNames))
	for _, name := range modelNames {
		completer, err := s.newCompleter(name)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w: %v", name, ErrModelUnavailable, err)
		}
		completers[name] = completer
	}

	rendered, err := s.renderQuestions(ctx, product)
	if err != nil {
		return nil, err
	}

	state, err := s.createRun(ctx, product, modelNames, len(rendered))
	if err != nil {
		return nil, err
	}

	s.logger.Info("[RunBenchmark] starting run",
		zap.Int64("run_id", state.run.ID),
		zap.Int64("product_id", product.ID),
		zap.Strings("models", modelNames),
		zap.Int("questions", len(rendered)))

	if err := s.setStatus(ctx, state, models.RunRunning, nil); err != nil {
		return nil, s.fail(ctx, state, err)
	}

	pairs := matrix(modelNames, rendered)
	for i, p := range pairs {
		if ctx.Err() != nil {
			return nil, s.cancel(ctx, state, context.Cause(ctx))
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, s.cancel(ctx, state, err)
		}

		completer := completers[p.model]
		completion, latency, err := s.call(ctx, completer, p)
		switch {
		case err == nil:
			s.persistAnswer(ctx, state, p, completion, latency, completer.GetProviderName() == "mock")
		case ctx.Err() != nil:
			return nil, s.cancel(ctx, state, context.Cause(ctx))
		case common.IsQuotaError(err):
			s.logger.Warn("[RunBenchmark] quota exceeded, seeding remaining answers",
				zap.Int64("run_id", state.run.ID),
				zap.String("model", p.model),
				zap.Int("remaining", len(pairs)-i),
				zap.Error(err))
			state.status.Fallback = true
			state.status.Notice = NoticeQuotaFallback
			s.seedPairs(ctx, state, pairs[i:])
		default:
			s.logger.Warn("[RunBenchmark] question failed, continuing",
				zap.Int64("run_id", state.run.ID),
				zap.String("model", p.model),
				zap.Int("question_index", p.questionIndex),
				zap.Error(err))
			s.persistError(ctx, state, p, err, latency)
		}
		if state.status.Fallback {
			break
		}
	}

	return s.finish(ctx, state, req.Analysis)
}

// SeedSampleRun creates a complete run from sample data without calling any provider.
func (s *benchmarkService) SeedSampleRun(ctx context.Context, productID int64) (*RunResult, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	release, ok := s.lock.TryAcquire(product.ID)
	if !ok {
		metrics.RunsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("product %d: %w", product.ID, ErrRunInProgress)
	}
	defer release()

	rendered, err := s.renderQuestions(ctx, product)
	if err != nil {
		return nil, err
	}
	modelNames := s.cfg.Benchmark.ModelNames()
	if len(modelNames) == 0 {
		modelNames = []string{"sample"}
	}

	state, err := s.createRun(ctx, product, modelNames, len(rendered))
	if err != nil {
		return nil, err
	}
	if err := s.setStatus(ctx, state, models.RunRunning, nil); err != nil {
		return nil, s.fail(ctx, state, err)
	}

	state.status.Fallback = true
	state.status.Notice = NoticeSeeded
	s.seedPairs(ctx, state, matrix(modelNames, rendered))

	s.logger.Info("[SeedSampleRun] seeded run",
		zap.Int64("run_id", state.run.ID),
		zap.Int64("product_id", product.ID),
		zap.Int("answers", state.status.AnswersProcessed))

	return s.finish(ctx, state, nil)
}

// MockOtherModels appends deterministic answers from the configured mock models to a run.
func (s *benchmarkService) MockOtherModels(ctx context.Context, runID int64) (*RunResult, error) {
	run, err := s.repos.RunRepo.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("run %d: %w", runID, ErrRunNotFound)
		}
		return nil, fmt.Errorf("failed to load run %d: %w", runID, err)
	}

	product, err := s.products.GetProduct(ctx, run.ProductID)
	if err != nil {
		return nil, err
	}

	release, ok := s.lock.TryAcquire(product.ID)
	if !ok {
		return nil, fmt.Errorf("product %d: %w", product.ID, ErrRunInProgress)
	}
	defer release()

	// A run that has not reached a terminal state may still be written by another worker.
	if !run.Status.State.Terminal() {
		return nil, fmt.Errorf("run %d is %s: %w", run.ID, run.Status.State, ErrRunInProgress)
	}

	existing := make(map[string]bool)
	modelNames := run.ModelList()
	for _, m := range modelNames {
		existing[strings.ToLower(m)] = true
	}
	var added []string
	for _, m := range s.cfg.Benchmark.MockModelNames() {
		if !existing[strings.ToLower(m)] {
			existing[strings.ToLower(m)] = true
			added = append(added, m)
		}
	}

	state := &runState{run: run, product: product, status: run.Status, started: time.Now()}
	if len(added) == 0 {
		s.logger.Info("[MockOtherModels] no new mock models to add", zap.Int64("run_id", runID))
		return s.resultFor(ctx, state, false, nil)
	}

	rendered, err := s.renderQuestions(ctx, product)
	if err != nil {
		return nil, err
	}

	answered := make(map[string]bool)
	for _, p := range matrix(added, rendered) {
		if ctx.Err() != nil {
			break
		}
		completion, latency, err := s.call(ctx, mock.NewProvider(p.model), p)
		if err != nil {
			s.persistError(ctx, state, p, err, latency)
		} else {
			s.persistAnswer(ctx, state, p, completion, latency, true)
		}
		answered[p.model] = true
	}

	var stored []string
	for _, m := range added {
		if answered[m] {
			stored = append(stored, m)
		}
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("mock answers for run %d interrupted: %w", run.ID, context.Cause(ctx))
	}

	// Answers already written must be reflected in the models column, status and
	// score even if the caller has gone away.
	writeCtx := context.WithoutCancel(ctx)

	modelNames = append(modelNames, stored...)
	if err := s.repos.RunRepo.UpdateModels(writeCtx, run.ID, strings.Join(modelNames, ",")); err != nil {
		return nil, fmt.Errorf("failed to update models for run %d: %w", run.ID, err)
	}
	run.Models = strings.Join(modelNames, ",")
	state.status.ModelsTotal = len(modelNames)
	if err := s.repos.RunRepo.UpdateStatus(writeCtx, run.ID, state.status, nil); err != nil {
		return nil, fmt.Errorf("failed to update status for run %d: %w", run.ID, err)
	}

	results, err := s.scoring.Recompute(writeCtx, run.ID, nil)
	if err != nil {
		return nil, err
	}

	if ctx.Err() != nil {
		s.logger.Warn("[MockOtherModels] interrupted, partial mock answers kept",
			zap.Int64("run_id", run.ID),
			zap.Strings("models", stored))
		return nil, fmt.Errorf("mock answers for run %d interrupted: %w", run.ID, context.Cause(ctx))
	}

	s.logger.Info("[MockOtherModels] added mock answers",
		zap.Int64("run_id", run.ID),
		zap.Strings("models", stored))
	return s.resultFor(ctx, state, false, results)
}

// reuseLatestRun applies the caching policy. handled is false when a fresh run is needed.
func (s *benchmarkService) reuseLatestRun(ctx context.Context, product *models.Product, analysis *Analysis) (*RunResult, bool, error) {
	latest, err := s.repos.RunRepo.GetLatestByProduct(ctx, product.ID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load latest run for product %d: %w", product.ID, err)
	}

	count, err := s.repos.AnswerRepo.CountByRun(ctx, latest.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to count answers for run %d: %w", latest.ID, err)
	}

	state := &runState{run: latest, product: product, status: latest.Status, started: time.Now()}

	switch {
	case count > 0 && latest.Status.State == models.RunCompleted:
		s.logger.Info("[RunBenchmark] returning cached run",
			zap.Int64("run_id", latest.ID),
			zap.Int64("product_id", product.ID),
			zap.Int("answers", count))
		metrics.RunsTotal.WithLabelValues("cached").Inc()
		result, err := s.resultFor(ctx, state, true, nil)
		return result, true, err

	case count == 0:
		s.logger.Info("[RunBenchmark] latest run has no answers, seeding sample data",
			zap.Int64("run_id", latest.ID),
			zap.Int64("product_id", product.ID))
		rendered, err := s.renderQuestions(ctx, product)
		if err != nil {
			return nil, true, err
		}
		modelNames := latest.ModelList()
		if len(modelNames) == 0 {
			modelNames = s.cfg.Benchmark.ModelNames()
		}
		state.status = models.RunStatus{
			QuestionsTotal: len(rendered),
			ModelsTotal:    len(modelNames),
		}
		if err := s.setStatus(ctx, state, models.RunRunning, nil); err != nil {
			return nil, true, s.fail(ctx, state, err)
		}
		state.status.Fallback = true
		state.status.Notice = NoticeEmptyRun
		s.seedPairs(ctx, state, matrix(modelNames, rendered))
		result, err := s.finish(ctx, state, analysis)
		return result, true, err
	}

	// Partial answers from a failed or cancelled run are not reused.
	return nil, false, nil
}

func (s *benchmarkService) renderQuestions(ctx context.Context, product *models.Product) ([]string, error) {
	competitor, err := s.products.TopCompetitor(ctx, product.ID)
	if err != nil {
		s.logger.Warn("[RunBenchmark] competitor lookup failed, using generic comparison",
			zap.Int64("product_id", product.ID),
			zap.Error(err))
		competitor = nil
	}
	rendered := s.questions.Render(product, competitor)
	if len(rendered) == 0 {
		return nil, fmt.Errorf("question set %s has no questions", s.questions.ID)
	}
	return rendered, nil
}

// createRun is the only fatal persistence step: without a run row nothing else can be stored.
func (s *benchmarkService) createRun(ctx context.Context, product *models.Product, modelNames []string, questionsTotal int) (*runState, error) {
	run := &models.BenchmarkRun{
		ProductID:          product.ID,
		Models:             strings.Join(modelNames, ","),
		QuestionSetID:      s.questions.ID,
		QuestionSetVersion: s.questions.Version,
		StartedAt:          time.Now().UTC(),
		Status: models.RunStatus{
			State:          models.RunCreated,
			QuestionsTotal: questionsTotal,
			ModelsTotal:    len(modelNames),
		},
	}
	if err := s.repos.RunRepo.Create(ctx, run); err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to create run for product %d: %w", product.ID, err)
	}
	return &runState{run: run, product: product, status: run.Status, started: time.Now()}, nil
}

func (s *benchmarkService) call(ctx context.Context, completer providers.Completer, p pair) (*common.Completion, time.Duration, error) {
	callCtx := ctx
	if s.cfg.Benchmark.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Benchmark.CallTimeout)
		defer cancel()
	}

	start := time.Now()
	completion, err := completer.Complete(callCtx, p.question)
	latency := time.Since(start)

	metrics.LLMCallDuration.WithLabelValues(p.model).Observe(latency.Seconds())
	switch {
	case err == nil:
		metrics.LLMCalls.WithLabelValues(p.model, "ok").Inc()
	case common.IsQuotaError(err):
		metrics.LLMCalls.WithLabelValues(p.model, "quota").Inc()
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		metrics.LLMCalls.WithLabelValues(p.model, "timeout").Inc()
		err = fmt.Errorf("call timed out after %s: %w", s.cfg.Benchmark.CallTimeout, err)
	default:
		metrics.LLMCalls.WithLabelValues(p.model, "error").Inc()
	}
	return completion, latency, err
}

// persistAnswer stores a successful answer with its sources. Write failures are logged and skipped.
func (s *benchmarkService) persistAnswer(ctx context.Context, state *runState, p pair, completion *common.Completion, latency time.Duration, isMock bool) {
	text := completion.Text
	answer := &models.Answer{
		RunID:      state.run.ID,
		Question:   p.question,
		AnswerText: &text,
		Raw: models.AnswerRaw{
			Model:         p.model,
			QuestionIndex: p.questionIndex,
			Confidence:    completion.Confidence,
			Sentiment:     completion.Sentiment,
			TokensUsed:    completion.TotalTokens(),
			CostUSD:       completion.Cost,
			IsMock:        isMock,
		},
		Position:         s.visibility.ScorePosition(text, state.product.BrandName),
		LatencyMS:        latency.Milliseconds(),
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
	}

	if err := s.repos.AnswerRepo.Create(ctx, answer); err != nil {
		s.logger.Error("[persistAnswer] failed to store answer",
			zap.Int64("run_id", state.run.ID),
			zap.String("model", p.model),
			zap.Int("question_index", p.questionIndex),
			zap.Error(err))
		return
	}
	state.status.AnswersProcessed++
	if isMock {
		state.status.MockAnswers++
	}

	metrics.LLMTokensUsed.WithLabelValues(p.model, "prompt").Add(float64(completion.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(p.model, "completion").Add(float64(completion.CompletionTokens))
	metrics.LLMCost.WithLabelValues(p.model).Add(completion.Cost)

	raw := make([]RawSource, 0, len(completion.Sources))
	for _, src := range completion.Sources {
		raw = append(raw, RawSource{URL: src.URL, Title: src.Title})
	}
	raw = append(raw, s.sources.ExtractFromText(text)...)

	for _, src := range s.sources.Evaluate(raw) {
		src.AnswerID = answer.ID
		if err := s.repos.SourceRepo.Create(ctx, src); err != nil {
			s.logger.Warn("[persistAnswer] failed to store source",
				zap.Int64("run_id", state.run.ID),
				zap.Int64("answer_id", answer.ID),
				zap.String("url", src.URL),
				zap.Error(err))
		}
	}
}

// persistError records a failed call as an answer with no text.
func (s *benchmarkService) persistError(ctx context.Context, state *runState, p pair, callErr error, latency time.Duration) {
	answer := &models.Answer{
		RunID:    state.run.ID,
		Question: p.question,
		Raw: models.AnswerRaw{
			Model:         p.model,
			QuestionIndex: p.questionIndex,
			Error:         callErr.Error(),
		},
		Position:  models.PositionNotMentioned,
		LatencyMS: latency.Milliseconds(),
	}
	if err := s.repos.AnswerRepo.Create(ctx, answer); err != nil {
		s.logger.Error("[persistError] failed to store error answer",
			zap.Int64("run_id", state.run.ID),
			zap.String("model", p.model),
			zap.Error(err))
		return
	}
	state.status.AnswersProcessed++
	state.status.FailedAnswers++
}

func (s *benchmarkService) seedPairs(ctx context.Context, state *runState, pairs []pair) {
	for _, p := range pairs {
		s.persistAnswer(ctx, state, p, s.samples.Completion(state.product, p.model, p.question), 0, true)
	}
}

// finish scores the run and marks it completed. Scoring failures leave the run queryable without a score.
func (s *benchmarkService) finish(ctx context.Context, state *runState, analysis *Analysis) (*RunResult, error) {
	results, err := s.scoring.Recompute(ctx, state.run.ID, analysis)
	if err != nil {
		if ctx.Err() != nil {
			return nil, s.cancel(ctx, state, context.Cause(ctx))
		}
		s.logger.Error("[finish] scoring failed",
			zap.Int64("run_id", state.run.ID),
			zap.Error(err))
		if state.status.Notice == "" {
			state.status.Notice = NoticeScoresPending
		}
	}

	now := time.Now().UTC()
	if err := s.setStatus(ctx, state, models.RunCompleted, &now); err != nil {
		return nil, s.fail(ctx, state, err)
	}
	state.run.FinishedAt = &now

	outcome := "completed"
	if state.status.Fallback {
		outcome = "fallback"
	}
	metrics.RunsTotal.WithLabelValues(outcome).Inc()
	metrics.RunDuration.Observe(time.Since(state.started).Seconds())

	s.logger.Info("[finish] run completed",
		zap.Int64("run_id", state.run.ID),
		zap.Int("answers_processed", state.status.AnswersProcessed),
		zap.Int("failed_answers", state.status.FailedAnswers),
		zap.Bool("fallback", state.status.Fallback))

	s.index(ctx, state)
	return s.resultFor(ctx, state, false, results)
}

func (s *benchmarkService) index(ctx context.Context, state *runState) {
	if s.indexer == nil {
		return
	}
	answers, err := s.repos.AnswerRepo.ListByRun(ctx, state.run.ID)
	if err == nil {
		err = s.indexer.IndexRun(ctx, state.run, state.product, answers)
	}
	if err != nil {
		s.logger.Warn("[finish] answer indexing failed",
			zap.Int64("run_id", state.run.ID),
			zap.Error(err))
	}
}

// resultFor loads stored results when none are given. A missing score is computed on the spot.
func (s *benchmarkService) resultFor(ctx context.Context, state *runState, cached bool, results *RunResults) (*RunResult, error) {
	if results == nil {
		score, err := s.repos.ResultRepo.GetScore(ctx, state.run.ID)
		switch {
		case err == nil:
			recs, err := s.repos.ResultRepo.ListRecommendations(ctx, state.run.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to list recommendations for run %d: %w", state.run.ID, err)
			}
			results = &RunResults{Score: score, Recommendations: recs}
		case errors.Is(err, interfaces.ErrNotFound) && cached:
			if results, err = s.scoring.Recompute(ctx, state.run.ID, nil); err != nil {
				return nil, err
			}
		case errors.Is(err, interfaces.ErrNotFound):
			results = &RunResults{}
		default:
			return nil, fmt.Errorf("failed to load score for run %d: %w", state.run.ID, err)
		}
	}

	return &RunResult{
		RunID:            state.run.ID,
		ProductID:        state.product.ID,
		Status:           state.status,
		Cached:           cached,
		Fallback:         state.status.Fallback,
		Notice:           state.status.Notice,
		AnswersProcessed: state.status.AnswersProcessed,
		QuestionsTotal:   state.status.QuestionsTotal,
		Score:            results.Score,
		Recommendations:  nonNilRecs(results.Recommendations),
	}, nil
}

func (s *benchmarkService) setStatus(ctx context.Context, state *runState, to models.RunState, finishedAt *time.Time) error {
	status := state.status
	status.State = to
	if err := s.repos.RunRepo.UpdateStatus(ctx, state.run.ID, status, finishedAt); err != nil {
		return fmt.Errorf("failed to mark run %d %s: %w", state.run.ID, to, err)
	}
	state.status = status
	state.run.Status = status
	return nil
}

// fail marks the run failed with the cause as reason and returns the cause.
func (s *benchmarkService) fail(ctx context.Context, state *runState, cause error) error {
	now := time.Now().UTC()
	state.status.Reason = cause.Error()
	if err := s.setStatus(context.WithoutCancel(ctx), state, models.RunFailed, &now); err != nil {
		s.logger.Error("[fail] could not mark run failed",
			zap.Int64("run_id", state.run.ID),
			zap.Error(err))
	}
	metrics.RunsTotal.WithLabelValues("failed").Inc()
	s.logger.Error("[fail] run failed",
		zap.Int64("run_id", state.run.ID),
		zap.Error(cause))
	return cause
}

// cancel marks the run cancelled once the caller's context can no longer be served.
func (s *benchmarkService) cancel(ctx context.Context, state *runState, cause error) error {
	if cause == nil {
		cause = context.Canceled
	}
	now := time.Now().UTC()
	state.status.Reason = cause.Error()
	if err := s.setStatus(context.WithoutCancel(ctx), state, models.RunCancelled, &now); err != nil {
		s.logger.Error("[cancel] could not mark run cancelled",
			zap.Int64("run_id", state.run.ID),
			zap.Error(err))
	}
	metrics.RunsTotal.WithLabelValues("cancelled").Inc()
	s.logger.Warn("[cancel] run cancelled",
		zap.Int64("run_id", state.run.ID),
		zap.Int("answers_processed", state.status.AnswersProcessed))
	return fmt.Errorf("run %d cancelled: %w", state.run.ID, cause)
}

// matrix orders pairs model by model, question by question.
func matrix(modelNames, rendered []string) []pair {
	pairs := make([]pair, 0, len(modelNames)*len(rendered))
	for _, m := range modelNames {
		for i, q := range rendered {
			pairs = append(pairs, pair{model: m, questionIndex: i, question: q})
		}
	}
	return pairs
}
