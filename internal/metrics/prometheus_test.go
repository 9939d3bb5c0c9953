package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotentAndServes(t *testing.T) {
	require.NotPanics(t, Init)
	require.NotPanics(t, Init)

	RunsTotal.WithLabelValues("completed").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "benchmark_runs_total")
}

func TestCounterIncrements(t *testing.T) {
	before := testutil.ToFloat64(LLMCalls.WithLabelValues("gpt-4.1", "ok"))
	LLMCalls.WithLabelValues("gpt-4.1", "ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(LLMCalls.WithLabelValues("gpt-4.1", "ok")))
}
