package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatusScan(t *testing.T) {
	tests := []struct {
		name    string
		src     any
		want    RunStatus
		wantErr bool
	}{
		{
			name: "bytes",
			src:  []byte(`{"status":"completed","answers_processed":3,"questions_total":3,"fallback":true}`),
			want: RunStatus{State: RunCompleted, AnswersProcessed: 3, QuestionsTotal: 3, Fallback: true},
		},
		{
			name: "string with reason",
			src:  `{"status":"failed","reason":"boom"}`,
			want: RunStatus{State: RunFailed, Reason: "boom"},
		},
		{name: "nil", src: nil, want: RunStatus{}},
		{name: "unsupported", src: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got RunStatus
			err := got.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnswerRawValueKeepsOptionalFields(t *testing.T) {
	conf := 0.9
	v, err := AnswerRaw{Model: "gpt-4.1", Confidence: &conf}.Value()
	require.NoError(t, err)

	var back AnswerRaw
	require.NoError(t, back.Scan(v))
	require.NotNil(t, back.Confidence)
	assert.Equal(t, 0.9, *back.Confidence)
	assert.Nil(t, back.Sentiment)
}

func TestRunStateTerminal(t *testing.T) {
	assert.False(t, RunCreated.Terminal())
	assert.False(t, RunRunning.Terminal())
	assert.True(t, RunCompleted.Terminal())
	assert.True(t, RunFailed.Terminal())
	assert.True(t, RunCancelled.Terminal())
}

func TestModelList(t *testing.T) {
	run := &BenchmarkRun{Models: "gpt-4.1, claude-3-5-sonnet,,"}
	assert.Equal(t, []string{"gpt-4.1", "claude-3-5-sonnet"}, run.ModelList())
}

func TestAnswerFailed(t *testing.T) {
	text := "ok"
	assert.False(t, (&Answer{AnswerText: &text}).Failed())
	assert.True(t, (&Answer{}).Failed())
	assert.True(t, (&Answer{AnswerText: &text, Raw: AnswerRaw{Error: "timeout"}}).Failed())
}
