// internal/models/models.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// PositionNotMentioned is the only position value meaning "brand not visible".
// Error answers carry it too.
const PositionNotMentioned = 0

// Rank buckets returned by the visibility scorer, best first.
const (
	RankTop    = 1
	RankHigh   = 2
	RankMiddle = 3
	RankLow    = 5
	RankBuried = 8
)

// Product is immutable reference data created by import jobs.
type Product struct {
	ID             int64     `db:"id" json:"id"`
	BrandName      string    `db:"brand_name" json:"brand_name"`
	INN            string    `db:"inn" json:"inn"`
	CompanyName    string    `db:"company_name" json:"company_name"`
	ATCCode        string    `db:"atc_code" json:"atc_code"`
	Indication     string    `db:"indication" json:"indication"`
	ApprovalStatus string    `db:"approval_status" json:"approval_status"`
	ApprovalRegion string    `db:"approval_region" json:"approval_region"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Competitor links a product to another product in the same ATC class.
type Competitor struct {
	ProductID           int64   `db:"product_id" json:"product_id"`
	CompetitorID        int64   `db:"competitor_id" json:"competitor_id"`
	CompetitorBrandName string  `db:"competitor_brand_name" json:"competitor_brand_name"`
	Similarity          float64 `db:"similarity" json:"similarity"`
}

type RunState string

const (
	RunCreated   RunState = "created"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
	RunCancelled RunState = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s RunState) Terminal() bool {
	return s == RunCompleted || s == RunFailed || s == RunCancelled
}

// RunStatus is stored as a JSONB blob on the run row.
type RunStatus struct {
	State            RunState `json:"status"`
	Reason           string   `json:"reason,omitempty"`
	AnswersProcessed int      `json:"answers_processed"`
	QuestionsTotal   int      `json:"questions_total"`
	ModelsTotal      int      `json:"models_total"`
	FailedAnswers    int      `json:"failed_answers"`
	MockAnswers      int      `json:"mock_answers"`
	Fallback         bool     `json:"fallback"`
	Notice           string   `json:"notice,omitempty"`
}

func (s RunStatus) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *RunStatus) Scan(src any) error {
	return scanJSON(src, s)
}

// BenchmarkRun is one execution of a question set for one product.
type BenchmarkRun struct {
	ID                 int64      `db:"id" json:"id"`
	ProductID          int64      `db:"product_id" json:"product_id"`
	Models             string     `db:"models" json:"models"`
	QuestionSetID      string     `db:"question_set_id" json:"question_set_id"`
	QuestionSetVersion string     `db:"question_set_version" json:"question_set_version"`
	StartedAt          time.Time  `db:"started_at" json:"started_at"`
	FinishedAt         *time.Time `db:"finished_at" json:"finished_at,omitempty"`
	Status             RunStatus  `db:"status" json:"status"`
}

// ModelList splits the comma-joined model column.
func (r *BenchmarkRun) ModelList() []string {
	var out []string
	for _, m := range strings.Split(r.Models, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

// AnswerRaw is the free-form JSON blob kept with every answer.
type AnswerRaw struct {
	Model         string   `json:"model"`
	QuestionIndex int      `json:"question_index"`
	Confidence    *float64 `json:"confidence,omitempty"`
	Sentiment     *float64 `json:"sentiment,omitempty"`
	TokensUsed    int      `json:"tokens_used"`
	CostUSD       float64  `json:"cost_usd"`
	IsMock        bool     `json:"is_mock"`
	Error         string   `json:"error,omitempty"`
}

func (r AnswerRaw) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *AnswerRaw) Scan(src any) error {
	return scanJSON(src, r)
}

// Answer is the result of one (run, question, model) triple. Never mutated after insert.
type Answer struct {
	ID               int64     `db:"id" json:"id"`
	RunID            int64     `db:"llm_run_id" json:"run_id"`
	Question         string    `db:"question" json:"question"`
	AnswerText       *string   `db:"answer_text" json:"answer_text"`
	Raw              AnswerRaw `db:"raw" json:"raw"`
	Position         int       `db:"position" json:"position"`
	LatencyMS        int64     `db:"latency_ms" json:"latency_ms"`
	PromptTokens     int       `db:"prompt_tokens" json:"prompt_tokens"`
	CompletionTokens int       `db:"completion_tokens" json:"completion_tokens"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Failed reports whether the provider call behind this answer errored.
func (a *Answer) Failed() bool {
	return a.Raw.Error != "" || a.AnswerText == nil
}

// Source is a citation attached to one answer.
type Source struct {
	ID             int64     `db:"id" json:"id"`
	AnswerID       int64     `db:"answer_id" json:"answer_id"`
	URL            string    `db:"url" json:"url"`
	Domain         string    `db:"domain" json:"domain"`
	Title          string    `db:"title" json:"title"`
	AuthorityScore float64   `db:"authority_score" json:"authority_score"`
	Sentiment      float64   `db:"sentiment" json:"sentiment"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Score is the single aggregate row per run. Values are 0-1.
type Score struct {
	ID               int64     `db:"id" json:"id"`
	RunID            int64     `db:"llm_run_id" json:"run_id"`
	Visibility       float64   `db:"visibility" json:"visibility"`
	Accuracy         float64   `db:"accuracy" json:"accuracy"`
	Sentiment        float64   `db:"sentiment" json:"sentiment"`
	ReferenceQuality float64   `db:"reference_quality" json:"reference_quality"`
	TotalScore       float64   `db:"total_score" json:"total_score"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

type RecommendationCategory string

const (
	CategoryContent   RecommendationCategory = "content"
	CategoryAuthority RecommendationCategory = "authority"
	CategoryTechnical RecommendationCategory = "technical"
)

type Recommendation struct {
	ID               int64                  `db:"id" json:"id"`
	RunID            int64                  `db:"llm_run_id" json:"run_id"`
	Tip              string                 `db:"tip" json:"tip"`
	Category         RecommendationCategory `db:"category" json:"category"`
	Priority         int                    `db:"priority" json:"priority"`
	Citations        pq.StringArray         `db:"citations" json:"citations"`
	KnowledgeVersion string                 `db:"knowledge_version" json:"knowledge_version"`
	CreatedAt        time.Time              `db:"created_at" json:"created_at"`
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}
