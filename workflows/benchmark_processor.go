// workflows/benchmark_processor.go
package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/services"
)

const (
	EventRunRequested        = "benchmark/run.requested"
	EventScoresRecompute     = "benchmark/scores.recompute"
	EventMockModelsRequested = "benchmark/mock-models.requested"
)

type BenchmarkProcessor struct {
	benchmark services.BenchmarkService
	scoring   services.ScoringService
	alerts    *SlackNotifier
	logger    *zap.Logger
	client    inngestgo.Client
}

func NewBenchmarkProcessor(
	benchmark services.BenchmarkService,
	scoring services.ScoringService,
	alerts *SlackNotifier,
	logger *zap.Logger,
) *BenchmarkProcessor {
	return &BenchmarkProcessor{
		benchmark: benchmark,
		scoring:   scoring,
		alerts:    alerts,
		logger:    logger,
	}
}

func (p *BenchmarkProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

// BenchmarkRunEvent requests a benchmark run for one product.
type BenchmarkRunEvent struct {
	ProductID   int64              `json:"product_id"`
	Force       bool               `json:"force,omitempty"`
	Models      []string           `json:"models,omitempty"`
	Analysis    *services.Analysis `json:"analysis,omitempty"`
	TriggeredBy string             `json:"triggered_by,omitempty"`
}

// RunEvent carries only a run ID.
type RunEvent struct {
	RunID       int64  `json:"run_id"`
	TriggeredBy string `json:"triggered_by,omitempty"`
}

// StatusSkipped marks a request dropped because another run owns the product.
const StatusSkipped = "skipped"

// RunSummary is what a step hands to the next one.
type RunSummary struct {
	RunID            int64   `json:"run_id"`
	ProductID        int64   `json:"product_id"`
	State            string  `json:"state"`
	Status           string  `json:"status,omitempty"`
	Cached           bool    `json:"cached"`
	Fallback         bool    `json:"fallback"`
	Notice           string  `json:"notice,omitempty"`
	AnswersProcessed int     `json:"answers_processed"`
	TotalScore       float64 `json:"total_score"`
	Recommendations  int     `json:"recommendations"`
}

func summarize(r *services.RunResult) RunSummary {
	s := RunSummary{
		RunID:            r.RunID,
		ProductID:        r.ProductID,
		State:            string(r.Status.State),
		Cached:           r.Cached,
		Fallback:         r.Fallback,
		Notice:           r.Notice,
		AnswersProcessed: r.AnswersProcessed,
		Recommendations:  len(r.Recommendations),
	}
	if r.Score != nil {
		s.TotalScore = r.Score.TotalScore
	}
	return s
}

// retryable reports whether the failure may succeed if the function runs again.
func retryable(err error) bool {
	return !errors.Is(err, services.ErrProductNotFound) &&
		!errors.Is(err, services.ErrRunNotFound) &&
		!errors.Is(err, services.ErrModelUnavailable)
}

// Step bodies classify service errors themselves: step.Run only hands back a
// message-only StepError once retries are exhausted, so sentinels never reach
// the function body.

func (p *BenchmarkProcessor) runBenchmarkStep(ctx context.Context, evt BenchmarkRunEvent) (RunSummary, error) {
	result, err := p.benchmark.RunBenchmark(ctx, services.RunRequest{
		ProductID: evt.ProductID,
		Force:     evt.Force,
		Models:    evt.Models,
		Analysis:  evt.Analysis,
	})
	switch {
	case err == nil:
		return summarize(result), nil
	case errors.Is(err, services.ErrRunInProgress):
		p.logger.Info("[ProcessBenchmarkRun] run already in progress, skipping",
			zap.Int64("product_id", evt.ProductID))
		return RunSummary{
			ProductID: evt.ProductID,
			Status:    StatusSkipped,
			Notice:    "a run is already in progress for this product",
		}, nil
	case !retryable(err):
		p.alerts.ReportPipelineFailure(ctx, "benchmark-run", evt.ProductID, 0, "run_rejected", err)
		return RunSummary{}, inngestgo.NoRetryError(fmt.Errorf("benchmark run for product %d rejected: %w", evt.ProductID, err))
	default:
		return RunSummary{}, err
	}
}

func (p *BenchmarkProcessor) recomputeStep(ctx context.Context, runID int64) (RunSummary, error) {
	results, err := p.scoring.Recompute(ctx, runID, nil)
	switch {
	case err == nil:
		return RunSummary{
			RunID:           runID,
			TotalScore:      results.Score.TotalScore,
			Recommendations: len(results.Recommendations),
		}, nil
	case !retryable(err):
		return RunSummary{}, inngestgo.NoRetryError(fmt.Errorf("recompute for run %d rejected: %w", runID, err))
	default:
		return RunSummary{}, err
	}
}

func (p *BenchmarkProcessor) mockModelsStep(ctx context.Context, runID int64) (RunSummary, error) {
	result, err := p.benchmark.MockOtherModels(ctx, runID)
	switch {
	case err == nil:
		return summarize(result), nil
	case errors.Is(err, services.ErrRunInProgress):
		return RunSummary{RunID: runID, Status: StatusSkipped, Notice: err.Error()}, nil
	case !retryable(err):
		return RunSummary{}, inngestgo.NoRetryError(fmt.Errorf("mock models for run %d rejected: %w", runID, err))
	default:
		return RunSummary{}, err
	}
}

func (p *BenchmarkProcessor) ProcessBenchmarkRun() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:      "process-benchmark-run",
			Name:    "Process Benchmark Run - LLM Reputation Pipeline",
			Retries: inngestgo.IntPtr(2),
		},
		inngestgo.EventTrigger(EventRunRequested, nil),
		func(ctx context.Context, input inngestgo.Input[BenchmarkRunEvent]) (any, error) {
			evt := input.Event.Data
			p.logger.Info("[ProcessBenchmarkRun] starting",
				zap.Int64("product_id", evt.ProductID),
				zap.Bool("force", evt.Force),
				zap.String("triggered_by", evt.TriggeredBy))

			summary, err := step.Run(ctx, "run-benchmark", func(ctx context.Context) (RunSummary, error) {
				return p.runBenchmarkStep(ctx, evt)
			})
			if err != nil {
				// Retries are exhausted by the time the error surfaces here.
				p.alerts.ReportPipelineFailure(ctx, "benchmark-run", evt.ProductID, 0, "run_failed", err)
				return nil, fmt.Errorf("benchmark run for product %d failed: %w", evt.ProductID, err)
			}

			p.logger.Info("[ProcessBenchmarkRun] finished",
				zap.Int64("run_id", summary.RunID),
				zap.String("status", summary.Status),
				zap.Bool("cached", summary.Cached),
				zap.Bool("fallback", summary.Fallback),
				zap.Float64("total_score", summary.TotalScore))

			return summary, nil
		},
	)
	if err != nil {
		p.logger.Error("failed to create benchmark run function", zap.Error(err))
	}
	return fn
}

func (p *BenchmarkProcessor) RecomputeScores() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:      "recompute-benchmark-scores",
			Name:    "Recompute Benchmark Scores",
			Retries: inngestgo.IntPtr(3),
		},
		inngestgo.EventTrigger(EventScoresRecompute, nil),
		func(ctx context.Context, input inngestgo.Input[RunEvent]) (any, error) {
			runID := input.Event.Data.RunID

			summary, err := step.Run(ctx, "recompute-scores", func(ctx context.Context) (RunSummary, error) {
				return p.recomputeStep(ctx, runID)
			})
			if err != nil {
				p.alerts.ReportPipelineFailure(ctx, "recompute-scores", 0, runID, "recompute_failed", err)
				return nil, fmt.Errorf("recompute for run %d failed: %w", runID, err)
			}
			return summary, nil
		},
	)
	if err != nil {
		p.logger.Error("failed to create recompute function", zap.Error(err))
	}
	return fn
}

func (p *BenchmarkProcessor) MockOtherModels() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:      "mock-other-models",
			Name:    "Add Mock Model Answers To Run",
			Retries: inngestgo.IntPtr(1),
		},
		inngestgo.EventTrigger(EventMockModelsRequested, nil),
		func(ctx context.Context, input inngestgo.Input[RunEvent]) (any, error) {
			runID := input.Event.Data.RunID

			summary, err := step.Run(ctx, "mock-other-models", func(ctx context.Context) (RunSummary, error) {
				return p.mockModelsStep(ctx, runID)
			})
			if err != nil {
				return nil, fmt.Errorf("mock models for run %d failed: %w", runID, err)
			}
			return summary, nil
		},
	)
	if err != nil {
		p.logger.Error("failed to create mock models function", zap.Error(err))
	}
	return fn
}
