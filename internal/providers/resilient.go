package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/common"
)

// ResilienceOptions tunes retries and the circuit breaker around a live provider.
type ResilienceOptions struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Consecutive failures before the breaker opens.
	TripAfter   uint32
	OpenTimeout time.Duration
}

func DefaultResilienceOptions(maxRetries int) ResilienceOptions {
	return ResilienceOptions{
		MaxRetries:      maxRetries,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		TripAfter:       5,
		OpenTimeout:     60 * time.Second,
	}
}

type resilientCompleter struct {
	inner   Completer
	breaker *gobreaker.CircuitBreaker
	opts    ResilienceOptions
	logger  *zap.Logger
}

// NewResilientCompleter retries transient failures with exponential backoff and
// stops calling a provider that keeps failing. Quota errors and context errors are not retried.
func NewResilientCompleter(inner Completer, opts ResilienceOptions, logger *zap.Logger) Completer {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    inner.GetProviderName() + ":" + inner.ModelName(),
		Timeout: opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.TripAfter
		},
		IsSuccessful: func(err error) bool {
			// Quota is handled by the caller's fallback, not by tripping.
			return err == nil || common.IsQuotaError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("[ResilientCompleter] breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &resilientCompleter{
		inner:   inner,
		breaker: breaker,
		opts:    opts,
		logger:  logger,
	}
}

func (r *resilientCompleter) GetProviderName() string {
	return r.inner.GetProviderName()
}

func (r *resilientCompleter) ModelName() string {
	return r.inner.ModelName()
}

func (r *resilientCompleter) Complete(ctx context.Context, question string) (*common.Completion, error) {
	var completion *common.Completion

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.opts.InitialInterval
	policy.MaxInterval = r.opts.MaxInterval
	policy.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithContext(policy, ctx)
	if r.opts.MaxRetries >= 0 {
		b = backoff.WithMaxRetries(b, uint64(r.opts.MaxRetries))
	}

	operation := func() error {
		result, err := r.breaker.Execute(func() (interface{}, error) {
			return r.inner.Complete(ctx, question)
		})
		if err != nil {
			if common.IsQuotaError(err) || ctx.Err() != nil ||
				errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			return err
		}
		completion = result.(*common.Completion)
		return nil
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warn("[ResilientCompleter] retrying provider call",
			zap.String("model", r.inner.ModelName()),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, fmt.Errorf("%s/%s: %w", r.inner.GetProviderName(), r.inner.ModelName(), err)
	}
	return completion, nil
}
