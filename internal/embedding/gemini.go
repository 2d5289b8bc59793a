package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/daniel/expert-match/internal/admission"
)

// Config holds the Gemini embedding backend settings.
type Config struct {
	APIKey         string `json:"api_key"`
	EmbeddingModel string `json:"embedding_model"`
	DescribeModel  string `json:"describe_model"`
}

// MergeWithDefaults fills unset fields with defaults.
func (c Config) MergeWithDefaults() Config {
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = "text-embedding-004"
	}
	if c.DescribeModel == "" {
		c.DescribeModel = "gemini-2.0-flash"
	}
	return c
}

// GeminiEmbedder is an Embedder over the Gemini embedding API. All
// backend calls go through the admission controller's embedding pool
// and its retry policy.
type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
	ctrl   *admission.Controller
	policy admission.Policy
}

// NewGeminiEmbedder creates the backend client and wires it to the
// admission controller.
func NewGeminiEmbedder(ctx context.Context, cfg Config, ctrl *admission.Controller, policy admission.Policy) (*GeminiEmbedder, error) {
	cfg = cfg.MergeWithDefaults()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiEmbedder{
		client: client,
		model:  client.EmbeddingModel(cfg.EmbeddingModel),
		ctrl:   ctrl,
		policy: policy,
	}, nil
}

// Close releases the backend client.
func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}

// Embed returns the embedding vector for one text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := e.ctrl.Do(ctx, admission.CategoryEmbedding, func(ctx context.Context) error {
		return admission.Retry(ctx, e.policy, func(ctx context.Context) error {
			res, err := e.model.EmbedContent(ctx, genai.Text(text))
			if err != nil {
				return fmt.Errorf("failed to embed content: %w", err)
			}
			if res.Embedding == nil {
				return fmt.Errorf("embedding response missing vector")
			}
			vec = res.Embedding.Values
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch returns one vector per input text, in input order. An
// empty input returns an empty result without calling the backend.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var vecs [][]float32
	err := e.ctrl.Do(ctx, admission.CategoryEmbedding, func(ctx context.Context) error {
		return admission.Retry(ctx, e.policy, func(ctx context.Context) error {
			batch := e.model.NewBatch()
			for _, t := range texts {
				batch.AddContent(genai.Text(t))
			}
			res, err := e.model.BatchEmbedContents(ctx, batch)
			if err != nil {
				return fmt.Errorf("failed to embed batch: %w", err)
			}
			if len(res.Embeddings) != len(texts) {
				return fmt.Errorf("embedding batch returned %d vectors for %d texts", len(res.Embeddings), len(texts))
			}
			vecs = make([][]float32, len(res.Embeddings))
			for i, emb := range res.Embeddings {
				vecs[i] = emb.Values
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return vecs, nil
}
