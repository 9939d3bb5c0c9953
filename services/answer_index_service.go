// services/answer_index_service.go
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/qdrant/go-client/qdrant"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/metrics"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
)

const (
	AnswerCollection   = "benchmark_answers"
	EmbeddingDimension = 1536
)

// answerNamespace keeps index document IDs stable across re-indexing of the same answer.
var answerNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://senso.ai/benchmarks/answers"))

// Embedder turns texts into vectors, one per text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// AnswerDocument is one indexed answer.
type AnswerDocument struct {
	ID         string
	AnswerID   int64
	RunID      int64
	ProductID  int64
	BrandName  string
	Model      string
	Question   string
	AnswerText string
	Position   int
	CreatedAt  int64
}

// VectorIndex and TextIndex are the two search backends.
type VectorIndex interface {
	UpsertAnswers(ctx context.Context, docs []AnswerDocument, vectors [][]float32) error
}

type TextIndex interface {
	ImportAnswers(ctx context.Context, docs []AnswerDocument) error
}

type answerIndexService struct {
	embedder Embedder
	vectors  VectorIndex
	text     TextIndex
	logger   *zap.Logger
}

func NewAnswerIndexService(embedder Embedder, vectors VectorIndex, text TextIndex, logger *zap.Logger) AnswerIndexer {
	return &answerIndexService{
		embedder: embedder,
		vectors:  vectors,
		text:     text,
		logger:   logger,
	}
}

// IndexRun writes the run's successful answers to both backends concurrently.
func (s *answerIndexService) IndexRun(ctx context.Context, run *models.BenchmarkRun, product *models.Product, answers []*models.Answer) error {
	docs := make([]AnswerDocument, 0, len(answers))
	for _, a := range answers {
		if a.Failed() || strings.TrimSpace(*a.AnswerText) == "" {
			continue
		}
		docs = append(docs, AnswerDocument{
			ID:         AnswerDocumentID(a.ID),
			AnswerID:   a.ID,
			RunID:      run.ID,
			ProductID:  product.ID,
			BrandName:  product.BrandName,
			Model:      a.Raw.Model,
			Question:   a.Question,
			AnswerText: *a.AnswerText,
			Position:   a.Position,
			CreatedAt:  a.CreatedAt.Unix(),
		})
	}
	if len(docs) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)

	if s.text != nil {
		g.Go(func() error {
			if err := s.text.ImportAnswers(gctx, docs); err != nil {
				metrics.AnswersIndexed.WithLabelValues("typesense", "error").Add(float64(len(docs)))
				return fmt.Errorf("typesense import failed: %w", err)
			}
			metrics.AnswersIndexed.WithLabelValues("typesense", "ok").Add(float64(len(docs)))
			return nil
		})
	}

	if s.vectors != nil && s.embedder != nil {
		g.Go(func() error {
			texts := make([]string, len(docs))
			for i, d := range docs {
				texts[i] = d.Question + "\n\n" + d.AnswerText
			}
			vectors, err := s.embedder.Embed(gctx, texts)
			if err != nil {
				metrics.AnswersIndexed.WithLabelValues("qdrant", "error").Add(float64(len(docs)))
				return fmt.Errorf("embedding failed: %w", err)
			}
			if len(vectors) != len(docs) {
				return fmt.Errorf("embedding returned %d vectors for %d answers", len(vectors), len(docs))
			}
			if err := s.vectors.UpsertAnswers(gctx, docs, vectors); err != nil {
				metrics.AnswersIndexed.WithLabelValues("qdrant", "error").Add(float64(len(docs)))
				return fmt.Errorf("qdrant upsert failed: %w", err)
			}
			metrics.AnswersIndexed.WithLabelValues("qdrant", "ok").Add(float64(len(docs)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info("[IndexRun] indexed answers",
		zap.Int64("run_id", run.ID),
		zap.Int("answers", len(docs)))
	return nil
}

// AnswerDocumentID is the deterministic index ID of an answer.
func AnswerDocumentID(answerID int64) string {
	return uuid.NewSHA1(answerNamespace, []byte(strconv.FormatInt(answerID, 10))).String()
}

// OpenAIEmbedder embeds with the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIEmbedder(apiKey string, opts ...option.RequestOption) *OpenAIEmbedder {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIEmbedder{
		client: openai.NewClient(opts...),
		model:  openai.EmbeddingModelTextEmbedding3Small,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("openai embeddings: missing vector %d", i)
		}
	}
	return out, nil
}

type qdrantIndex struct {
	client *qdrant.Client
}

func NewQdrantIndex(client *qdrant.Client) VectorIndex {
	return &qdrantIndex{client: client}
}

// EnsureQdrantCollection creates the answer collection if it is missing.
func EnsureQdrantCollection(ctx context.Context, client *qdrant.Client) error {
	err := client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: AnswerCollection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     EmbeddingDimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create qdrant collection: %w", err)
	}
	return nil
}

func (q *qdrantIndex) UpsertAnswers(ctx context.Context, docs []AnswerDocument, vectors [][]float32) error {
	points := make([]*qdrant.PointStruct, len(docs))
	for i, d := range docs {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(d.ID),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"answer_id":  d.AnswerID,
				"run_id":     d.RunID,
				"product_id": d.ProductID,
				"brand_name": d.BrandName,
				"model":      d.Model,
				"question":   d.Question,
				"position":   d.Position,
			}),
		}
	}
	wait := true
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: AnswerCollection,
		Points:         points,
		Wait:           &wait,
	})
	return err
}

type typesenseIndex struct {
	client *typesense.Client
}

func NewTypesenseIndex(client *typesense.Client) TextIndex {
	return &typesenseIndex{client: client}
}

// EnsureTypesenseCollection creates the answer collection if it is missing.
func EnsureTypesenseCollection(ctx context.Context, client *typesense.Client) error {
	facet := true
	sort := true
	defaultSortField := "created_at"
	schema := &api.CollectionSchema{
		Name: AnswerCollection,
		Fields: []api.Field{
			{Name: "answer_text", Type: "string"},
			{Name: "question", Type: "string"},
			{Name: "brand_name", Type: "string", Facet: &facet},
			{Name: "model", Type: "string", Facet: &facet},
			{Name: "run_id", Type: "int64", Facet: &facet},
			{Name: "product_id", Type: "int64", Facet: &facet},
			{Name: "position", Type: "int32", Facet: &facet},
			{Name: "created_at", Type: "int64", Sort: &sort},
		},
		DefaultSortingField: &defaultSortField,
	}
	_, err := client.Collections().Create(ctx, schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}
	return nil
}

func (t *typesenseIndex) ImportAnswers(ctx context.Context, docs []AnswerDocument) error {
	payload := make([]interface{}, len(docs))
	for i, d := range docs {
		payload[i] = map[string]interface{}{
			"id":          d.ID,
			"answer_text": d.AnswerText,
			"question":    d.Question,
			"brand_name":  d.BrandName,
			"model":       d.Model,
			"run_id":      d.RunID,
			"product_id":  d.ProductID,
			"position":    d.Position,
			"created_at":  d.CreatedAt,
		}
	}
	action := "upsert"
	results, err := t.client.Collection(AnswerCollection).Documents().Import(ctx, payload, &api.ImportDocumentsParams{Action: &action})
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents rejected", failed, len(results))
	}
	return nil
}
