package embedding

import (
	"context"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder is the model-backed embedder variant. It calls the OpenAI
// embeddings API and is only selected when an API key is configured.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates an OpenAI-backed embedder. An empty model
// defaults to text-embedding-3-small.
func NewOpenAIEmbedder(apiKey, model string) *OpenAIEmbedder {
	m := openai.EmbeddingModel(model)
	if model == "" {
		m = openai.SmallEmbedding3
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  m,
	}
}

// Name returns the embedder identifier including the model.
func (e *OpenAIEmbedder) Name() string {
	return "openai:" + string(e.model)
}

// Embed requests an embedding for text from the OpenAI API.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, errors.New("cannot embed empty text")
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: e.model,
		Input: []string{text},
	})
	if err != nil {
		return nil, errors.Wrap(err, "embeddings API request failed")
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embeddings API returned no data")
	}

	raw := resp.Data[0].Embedding
	vec := make([]float64, len(raw))
	for i, x := range raw {
		vec[i] = float64(x)
	}
	return vec, nil
}
