// Package chunker splits extracted text into token-budgeted pieces.
package chunker

import (
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/campusbot/internal/domain/kb"
)

// TokenChunker splits text into segments bounded by a token budget, counting
// tokens with the model's tiktoken encoding and falling back to whitespace
// words when the encoding is unavailable (offline environments).
type TokenChunker struct {
	maxTokens int
	overlap   int
	encoding  *tiktoken.Tiktoken
}

// New constructs a chunker for the given embedding model.
func New(model string, maxTokens, overlap int, logger *slog.Logger) *TokenChunker {
	if maxTokens <= 0 {
		maxTokens = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		logger.Warn("tiktoken encoding unavailable, counting words instead", "model", model, "error", err)
		encoding = nil
	}
	return &TokenChunker{maxTokens: maxTokens, overlap: overlap, encoding: encoding}
}

// Chunk splits by paragraph, then packs words up to the token budget,
// carrying overlap tokens between neighbouring chunks.
func (c *TokenChunker) Chunk(text string) []kb.ChunkCandidate {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var (
		current strings.Builder
		index   int
		out     []kb.ChunkCandidate
	)

	flush := func() {
		content := strings.TrimSpace(current.String())
		current.Reset()
		if content == "" {
			return
		}
		out = append(out, kb.ChunkCandidate{
			Index:      index,
			Content:    content,
			TokenCount: c.countTokens(content),
		})
		index++
	}

	for _, paragraph := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		for _, word := range strings.Fields(paragraph) {
			if c.countTokens(current.String()+word) >= c.maxTokens {
				flush()
				if c.overlap > 0 && len(out) > 0 {
					current.WriteString(tailWords(out[len(out)-1].Content, c.overlap))
				}
			}
			current.WriteString(word)
			current.WriteString(" ")
		}
		current.WriteString("\n")
	}
	flush()
	return out
}

func (c *TokenChunker) countTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	if c.encoding != nil {
		return len(c.encoding.Encode(text, nil, nil))
	}
	return len(strings.Fields(text))
}

func tailWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return text + " "
	}
	return strings.Join(words[len(words)-limit:], " ") + " "
}

var _ kb.Chunker = (*TokenChunker)(nil)
