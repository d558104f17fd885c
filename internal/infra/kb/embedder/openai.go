// Package embedder provides kb.Embedder implementations.
package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/yanqian/campusbot/internal/domain/kb"
	"github.com/yanqian/campusbot/internal/infra/llm/chatgpt"
)

// maxBatchTokens stays well below the embedding provider's request cap.
const maxBatchTokens = 200_000

// OpenAIEmbedder calls an OpenAI-compatible embeddings API, batching inputs
// by an estimated token budget.
type OpenAIEmbedder struct {
	client *chatgpt.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIEmbedder constructs the embedder.
func NewOpenAIEmbedder(client *chatgpt.Client, model string, logger *slog.Logger) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client: client,
		model:  strings.TrimSpace(model),
		logger: logger.With("component", "kb.embedder.openai"),
	}
}

// Embed requests embeddings for the given texts.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var (
		out         [][]float32
		batch       []string
		batchTokens int
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		resp, err := e.client.CreateEmbedding(ctx, chatgpt.EmbeddingRequest{Model: e.model, Input: batch})
		if err != nil {
			return fmt.Errorf("create embedding: %w", err)
		}
		if len(resp.Data) != len(batch) {
			e.logger.Warn("embedding result count mismatch", "expected", len(batch), "got", len(resp.Data))
		}
		for _, item := range resp.Data {
			vec := make([]float32, len(item.Embedding))
			copy(vec, item.Embedding)
			out = append(out, vec)
		}
		batch = batch[:0]
		batchTokens = 0
		return nil
	}

	for _, text := range texts {
		tokens := estimateTokens(text)
		if tokens > maxBatchTokens {
			return nil, fmt.Errorf("text too large for embedding request: estimated tokens=%d", tokens)
		}
		if batchTokens+tokens > maxBatchTokens && len(batch) > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		batch = append(batch, text)
		batchTokens += tokens
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

// estimateTokens over-estimates so batches stay under the provider cap.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	byRunes := (utf8.RuneCountInString(text) + 1) / 2
	if words := len(strings.Fields(text)); byRunes < words {
		return words
	}
	return byRunes
}

var _ kb.Embedder = (*OpenAIEmbedder)(nil)
