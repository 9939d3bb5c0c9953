package claude_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/claude"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/common"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/testutil"
)

func newTestProvider(t *testing.T, status int, body string) *claude.Provider {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return claude.NewProvider("test-anthropic-key", "claude-sonnet-4-20250514", testutil.NewMockCostService(), zap.NewNop(),
		option.WithBaseURL(server.URL+"/"),
		option.WithMaxRetries(0),
	)
}

func TestCompletePlainTextReply(t *testing.T) {
	body := `{
		"id": "msg_01",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-20250514",
		"content": [{"type": "text", "text": "Humira is a TNF inhibitor used for rheumatoid arthritis."}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 40, "output_tokens": 25}
	}`
	p := newTestProvider(t, http.StatusOK, body)

	got, err := p.Complete(context.Background(), "What is Humira?")
	require.NoError(t, err)

	assert.Equal(t, "Humira is a TNF inhibitor used for rheumatoid arthritis.", got.Text)
	assert.Nil(t, got.Confidence)
	assert.Equal(t, 40, got.PromptTokens)
	assert.Equal(t, 25, got.CompletionTokens)
	assert.Equal(t, 65, got.TotalTokens())
}

func TestCompleteRateLimited(t *testing.T) {
	body := `{"type": "error", "error": {"type": "rate_limit_error", "message": "Number of request tokens has exceeded your per-minute rate limit"}}`
	p := newTestProvider(t, http.StatusTooManyRequests, body)

	_, err := p.Complete(context.Background(), "What is Humira?")
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)
}

func TestCompleteEmptyContent(t *testing.T) {
	body := `{"id":"msg_02","type":"message","role":"assistant","model":"claude-sonnet-4-20250514","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`
	p := newTestProvider(t, http.StatusOK, body)

	_, err := p.Complete(context.Background(), "q")
	assert.ErrorIs(t, err, common.ErrEmptyCompletion)
}
