// workflows/scheduled_processor.go
package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/services"
)

type ScheduledProcessor struct {
	products   services.ProductService
	staleAfter time.Duration
	logger     *zap.Logger
	client     inngestgo.Client
}

func NewScheduledProcessor(products services.ProductService, staleAfter time.Duration, logger *zap.Logger) *ScheduledProcessor {
	return &ScheduledProcessor{
		products:   products,
		staleAfter: staleAfter,
		logger:     logger,
	}
}

func (p *ScheduledProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

// RunRequestedEvent builds the event that asks for a fresh run of one product.
func RunRequestedEvent(productID int64, triggeredBy string) inngestgo.Event {
	return inngestgo.Event{
		Name: EventRunRequested,
		Data: map[string]interface{}{
			"product_id":   productID,
			"force":        true,
			"triggered_by": triggeredBy,
		},
	}
}

// DailyStaleBenchmarks re-runs every product whose latest run is older than staleAfter.
func (p *ScheduledProcessor) DailyStaleBenchmarks() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:   "daily-stale-benchmarks",
			Name: "Daily Benchmark Refresh - Stale Products",
		},
		inngestgo.CronTrigger("0 3 * * *"), // Every day at 3 AM UTC
		func(ctx context.Context, input inngestgo.Input[any]) (any, error) {
			now := time.Now().UTC()

			productIDs, err := step.Run(ctx, "get-stale-products", func(ctx context.Context) ([]int64, error) {
				return p.products.ListStaleProducts(ctx, p.staleAfter)
			})
			if err != nil {
				return nil, fmt.Errorf("failed to list stale products: %w", err)
			}

			if len(productIDs) == 0 {
				return map[string]interface{}{
					"execution_date":       now.Format("2006-01-02"),
					"total_products_found": 0,
					"message":              "No stale products",
				}, nil
			}

			// One step per product so a retry only resends what did not go out.
			triggered := 0
			for _, productID := range productIDs {
				stepName := fmt.Sprintf("trigger-benchmark-%d", productID)
				_, err := step.Run(ctx, stepName, func(ctx context.Context) (string, error) {
					return p.client.Send(ctx, RunRequestedEvent(productID, "automatic_scheduler"))
				})
				if err != nil {
					p.logger.Warn("[DailyStaleBenchmarks] failed to send run event",
						zap.Int64("product_id", productID),
						zap.Error(err))
					continue
				}
				triggered++
			}

			return map[string]interface{}{
				"execution_date":       now.Format("2006-01-02"),
				"total_products_found": len(productIDs),
				"products_triggered":   triggered,
				"message":              fmt.Sprintf("Triggered %d benchmark runs", triggered),
			}, nil
		},
	)
	if err != nil {
		p.logger.Error("failed to create daily stale benchmarks function", zap.Error(err))
	}
	return fn
}
