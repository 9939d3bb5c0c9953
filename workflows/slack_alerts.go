package workflows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type SlackPayload struct {
	Text string `json:"text"`
}

// SlackNotifier posts pipeline failures to an incoming webhook. An empty URL disables it.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	maxRetries uint64
	logger     *zap.Logger
}

func NewSlackNotifier(webhookURL string, logger *zap.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		maxRetries: 2,
		logger:     logger,
	}
}

func (n *SlackNotifier) Enabled() bool {
	return n != nil && n.webhookURL != ""
}

// ReportError posts an error message to the alerts channel.
func (n *SlackNotifier) ReportError(ctx context.Context, err error) error {
	if err == nil || !n.Enabled() {
		return nil
	}

	message := fmt.Sprintf(
		":rotating_light: *Benchmark Pipeline Error*\n"+
			"*Time:* %s\n"+
			"*Error:* ```%s```",
		time.Now().UTC().Format(time.RFC3339),
		err.Error(),
	)

	body, err := json.Marshal(SlackPayload{Text: message})
	if err != nil {
		return err
	}

	post := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("slack webhook returned status %d", resp.StatusCode))
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	b := backoff.WithMaxRetries(backoff.WithContext(policy, ctx), n.maxRetries)
	return backoff.Retry(post, b)
}

// ReportPipelineFailure reports a failed benchmark step with its context.
func (n *SlackNotifier) ReportPipelineFailure(ctx context.Context, pipeline string, productID, runID int64, reason string, err error) {
	if err == nil || !n.Enabled() {
		return
	}
	if pipeline == "" {
		pipeline = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}

	reportErr := fmt.Errorf(
		"pipeline failed: pipeline=%s reason=%s product_id=%d run_id=%d error=%v",
		pipeline,
		reason,
		productID,
		runID,
		err,
	)
	if sendErr := n.ReportError(ctx, reportErr); sendErr != nil {
		n.logger.Warn("[SlackNotifier] failed to post alert",
			zap.String("pipeline", pipeline),
			zap.Error(sendErr))
	}
}
