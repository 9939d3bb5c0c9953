package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	sdkerrors "github.com/inngest/inngestgo/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/services"
)

func TestSlackNotifierPostsPayload(t *testing.T) {
	var got SlackPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL, zap.NewNop())
	require.NoError(t, n.ReportError(context.Background(), errors.New("boom")))
	assert.Contains(t, got.Text, "Benchmark Pipeline Error")
	assert.Contains(t, got.Text, "boom")
}

func TestSlackNotifierRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL, zap.NewNop())
	require.NoError(t, n.ReportError(context.Background(), errors.New("boom")))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSlackNotifierDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL, zap.NewNop())
	err := n.ReportError(context.Background(), errors.New("boom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSlackNotifierDisabled(t *testing.T) {
	n := NewSlackNotifier("", zap.NewNop())
	assert.False(t, n.Enabled())
	assert.NoError(t, n.ReportError(context.Background(), errors.New("boom")))

	var nilNotifier *SlackNotifier
	assert.False(t, nilNotifier.Enabled())
	nilNotifier.ReportPipelineFailure(context.Background(), "x", 1, 2, "y", errors.New("boom"))
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{fmt.Errorf("product 1: %w", services.ErrProductNotFound), false},
		{fmt.Errorf("run 1: %w", services.ErrRunNotFound), false},
		{fmt.Errorf("model x: %w", services.ErrModelUnavailable), false},
		{errors.New("database is down"), true},
		{fmt.Errorf("product 1: %w", services.ErrRunInProgress), true},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, retryable(tt.err))
		})
	}
}

func TestSummarize(t *testing.T) {
	result := &services.RunResult{
		RunID:            3,
		ProductID:        1,
		Status:           models.RunStatus{State: models.RunCompleted},
		Fallback:         true,
		Notice:           services.NoticeQuotaFallback,
		AnswersProcessed: 12,
		Score:            &models.Score{TotalScore: 0.81},
		Recommendations:  []*models.Recommendation{{}, {}},
	}

	s := summarize(result)
	assert.Equal(t, int64(3), s.RunID)
	assert.Equal(t, "completed", s.State)
	assert.True(t, s.Fallback)
	assert.Equal(t, 12, s.AnswersProcessed)
	assert.Equal(t, 0.81, s.TotalScore)
	assert.Equal(t, 2, s.Recommendations)

	assert.Zero(t, summarize(&services.RunResult{}).TotalScore)
}

func TestRunRequestedEvent(t *testing.T) {
	evt := RunRequestedEvent(42, "automatic_scheduler")
	assert.Equal(t, EventRunRequested, evt.Name)
	assert.Equal(t, int64(42), evt.Data["product_id"])
	assert.Equal(t, true, evt.Data["force"])
	assert.Equal(t, "automatic_scheduler", evt.Data["triggered_by"])
}

type stubBenchmark struct {
	result *services.RunResult
	err    error
	calls  int
}

func (s *stubBenchmark) RunBenchmark(ctx context.Context, req services.RunRequest) (*services.RunResult, error) {
	s.calls++
	return s.result, s.err
}

func (s *stubBenchmark) SeedSampleRun(ctx context.Context, productID int64) (*services.RunResult, error) {
	s.calls++
	return s.result, s.err
}

func (s *stubBenchmark) MockOtherModels(ctx context.Context, runID int64) (*services.RunResult, error) {
	s.calls++
	return s.result, s.err
}

type stubScoring struct {
	results *services.RunResults
	err     error
}

func (s *stubScoring) Recompute(ctx context.Context, runID int64, upstream *services.Analysis) (*services.RunResults, error) {
	return s.results, s.err
}

// newAlertCounter returns a notifier whose webhook posts are counted.
func newAlertCounter(t *testing.T) (*SlackNotifier, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return NewSlackNotifier(server.URL, zap.NewNop()), &calls
}

func TestRunBenchmarkStepClassifiesErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantErr     bool
		wantNoRetry bool
		wantStatus  string
		wantAlerts  int32
	}{
		{name: "run in progress is skipped", err: fmt.Errorf("product 7: %w", services.ErrRunInProgress), wantStatus: StatusSkipped},
		{name: "missing product is not retried", err: fmt.Errorf("product 7: %w", services.ErrProductNotFound), wantErr: true, wantNoRetry: true, wantAlerts: 1},
		{name: "unavailable model is not retried", err: fmt.Errorf("model llama: %w", services.ErrModelUnavailable), wantErr: true, wantNoRetry: true, wantAlerts: 1},
		{name: "transient failure is retried", err: errors.New("database is down"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts, calls := newAlertCounter(t)
			p := NewBenchmarkProcessor(&stubBenchmark{err: tt.err}, &stubScoring{}, alerts, zap.NewNop())

			summary, err := p.runBenchmarkStep(context.Background(), BenchmarkRunEvent{ProductID: 7})
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantNoRetry, sdkerrors.IsNoRetryError(err))
				assert.ErrorIs(t, err, tt.err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, summary.Status)
				assert.Equal(t, int64(7), summary.ProductID)
			}
			assert.Equal(t, tt.wantAlerts, atomic.LoadInt32(calls))
		})
	}
}

func TestRunBenchmarkStepSummarizesResult(t *testing.T) {
	benchmark := &stubBenchmark{result: &services.RunResult{
		RunID:            5,
		ProductID:        7,
		Status:           models.RunStatus{State: models.RunCompleted},
		AnswersProcessed: 3,
		Score:            &models.Score{TotalScore: 0.7},
	}}
	p := NewBenchmarkProcessor(benchmark, &stubScoring{}, nil, zap.NewNop())

	summary, err := p.runBenchmarkStep(context.Background(), BenchmarkRunEvent{ProductID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(5), summary.RunID)
	assert.Empty(t, summary.Status)
	assert.Equal(t, 3, summary.AnswersProcessed)
	assert.Equal(t, 1, benchmark.calls)
}

func TestRecomputeStepClassifiesErrors(t *testing.T) {
	p := NewBenchmarkProcessor(&stubBenchmark{}, &stubScoring{err: fmt.Errorf("run 9: %w", services.ErrRunNotFound)}, nil, zap.NewNop())
	_, err := p.recomputeStep(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, sdkerrors.IsNoRetryError(err))

	p = NewBenchmarkProcessor(&stubBenchmark{}, &stubScoring{err: errors.New("connection reset")}, nil, zap.NewNop())
	_, err = p.recomputeStep(context.Background(), 9)
	require.Error(t, err)
	assert.False(t, sdkerrors.IsNoRetryError(err))

	p = NewBenchmarkProcessor(&stubBenchmark{}, &stubScoring{results: &services.RunResults{
		Score:           &models.Score{TotalScore: 0.55},
		Recommendations: []*models.Recommendation{{}},
	}}, nil, zap.NewNop())
	summary, err := p.recomputeStep(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 0.55, summary.TotalScore)
	assert.Equal(t, 1, summary.Recommendations)
}

func TestMockModelsStepClassifiesErrors(t *testing.T) {
	p := NewBenchmarkProcessor(&stubBenchmark{err: fmt.Errorf("product 1: %w", services.ErrRunInProgress)}, &stubScoring{}, nil, zap.NewNop())
	summary, err := p.mockModelsStep(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, summary.Status)
	assert.Equal(t, int64(4), summary.RunID)

	p = NewBenchmarkProcessor(&stubBenchmark{err: fmt.Errorf("run 4: %w", services.ErrRunNotFound)}, &stubScoring{}, nil, zap.NewNop())
	_, err = p.mockModelsStep(context.Background(), 4)
	require.Error(t, err)
	assert.True(t, sdkerrors.IsNoRetryError(err))
}
