package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/campusbot/internal/domain/faqflow"
	"github.com/yanqian/campusbot/internal/domain/kb"
	"github.com/yanqian/campusbot/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/campusbot/pkg/errors"
	"github.com/yanqian/campusbot/pkg/metrics"
)

// Service answers inbound chat messages.
type Service interface {
	Respond(ctx context.Context, req Request) (Reply, error)
}

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

type retriever interface {
	Retrieve(ctx context.Context, query string) ([]kb.RetrievedChunk, error)
}

type service struct {
	cfg    Config
	flow   faqflow.Service
	kb     retriever
	memory ReplyMemory
	client chatClient
	logger *slog.Logger
}

// NewService wires up the chat orchestrator.
func NewService(cfg Config, flow faqflow.Service, retrieval retriever, memory ReplyMemory, client chatClient, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg.Sanitize(),
		flow:   flow,
		kb:     retrieval,
		memory: memory,
		client: client,
		logger: logger.With("component", "chat.service"),
	}
}

const greetingText = "Halo! 👋 \n\nLayanan Program Studi " +
	"Teknik Informatika UIN Syarif Hidayatullah Jakarta. \n\n" +
	"Saya siap membantu Anda dengan informasi seputar kurikulum, " +
	"mata kuliah, dosen, dan administrasi akademik. \n\n" +
	"Silakan ajukan pertanyaan spesifik tentang informasi yang " +
	"Anda butuhkan! 😊"

const (
	msgClarify    = "Tolong perjelas terkait pertanyaan yang Anda berikan."
	msgNoPrevious = "Maaf, saya tidak memiliki respons sebelumnya untuk dijelaskan lebih detail. " +
		"Silakan ajukan pertanyaan baru yang ingin Anda ketahui."
	msgContextTooOld = "Maaf, respons sebelumnya sudah terlalu lama. " +
		"Silakan ajukan pertanyaan baru yang ingin Anda ketahui."
	msgNoElaboration = "Maaf, saya tidak dapat memberikan penjelasan lebih detail saat ini. " +
		"Silakan ajukan pertanyaan baru."
)

var explainTriggers = []string{
	"jelaskan",
	"saya ingin penjelasan lebih lanjut",
	"explain more",
	"tell me more",
	"go into more detail",
	"can you elaborate",
	"give me more details",
	"be more specific",
	"in more detail, please",
	"elaborate on that",
}

// Respond routes one message: greeting, FAQ flow, elaboration, then the
// retrieval pipeline.
func (s *service) Respond(ctx context.Context, req Request) (Reply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		s.clearMemory(ctx, req.UserID)
		return Reply{Text: renderReply(greetingText, false), Source: SourceGreeting}, nil
	}

	lower := strings.ToLower(message)
	for _, word := range s.cfg.GreetingWords {
		if lower == word {
			s.clearMemory(ctx, req.UserID)
			return Reply{Text: renderReply(greetingText, false), Source: SourceGreeting}, nil
		}
	}

	result, err := s.flow.Handle(ctx, req.UserID, message)
	if err != nil {
		return Reply{}, apperrors.Wrap("chat_error", "faq flow failed", err)
	}
	if result.Kind != faqflow.ResultFallthrough {
		if result.Kind == faqflow.ResultAnswer {
			// FAQ answers are complete, drop the elaboration context.
			s.clearMemory(ctx, req.UserID)
		}
		return Reply{Text: renderReply(result.Text, true), Source: SourceFAQ}, nil
	}

	for _, trigger := range explainTriggers {
		if strings.HasPrefix(lower, trigger) {
			return s.explainMore(ctx, req.UserID)
		}
	}

	return s.retrievalAnswer(ctx, req.UserID, message)
}

func (s *service) retrievalAnswer(ctx context.Context, userID, query string) (Reply, error) {
	chunks, err := s.kb.Retrieve(ctx, query)
	if err != nil {
		return Reply{}, apperrors.Wrap("chat_error", "retrieval failed", err)
	}
	if len(chunks) == 0 {
		return Reply{Text: renderReply(msgClarify, false), Source: SourceClarify}, nil
	}

	docs := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if i >= s.cfg.MaxContextChunks {
			break
		}
		docs = append(docs, chunk.Chunk.Content)
	}

	answer, usage, err := s.complete(ctx, ragPrompt(docs, query))
	if err != nil {
		return Reply{}, apperrors.Wrap("chat_error", "completion failed", err)
	}
	if strings.TrimSpace(answer) == "" {
		return Reply{Text: renderReply(msgClarify, false), Source: SourceClarify, Usage: usage}, nil
	}

	rendered := renderReply(answer, false)
	s.storeMemory(ctx, userID, LastReply{
		Query:    query,
		Response: rendered,
		Context:  docs,
		StoredAt: time.Now(),
	})
	return Reply{Text: rendered, Source: SourceRetrieval, Usage: usage}, nil
}

func (s *service) explainMore(ctx context.Context, userID string) (Reply, error) {
	if userID == "" {
		return Reply{Text: renderReply(msgNoPrevious, false), Source: SourceExplain}, nil
	}
	last, found, err := s.memory.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("reply memory lookup failed", "error", err, "userId", userID)
	}
	if !found || last.Query == "" || last.Response == "" {
		return Reply{Text: renderReply(msgNoPrevious, false), Source: SourceExplain}, nil
	}
	if time.Since(last.StoredAt) > s.cfg.ExplainWindow {
		return Reply{Text: renderReply(msgContextTooOld, false), Source: SourceExplain}, nil
	}
	if len(last.Context) == 0 {
		return Reply{Text: renderReply(msgNoElaboration, false), Source: SourceExplain}, nil
	}

	answer, usage, err := s.complete(ctx, elaborationPrompt(last))
	if err != nil {
		return Reply{}, apperrors.Wrap("chat_error", "elaboration failed", err)
	}
	if strings.TrimSpace(answer) == "" {
		return Reply{Text: renderReply(msgNoElaboration, false), Source: SourceExplain, Usage: usage}, nil
	}

	rendered := renderReply(answer, false)
	// Replace the stored response so repeated follow-ups keep deepening.
	s.storeMemory(ctx, userID, LastReply{
		Query:    last.Query,
		Response: rendered,
		Context:  last.Context,
		StoredAt: time.Now(),
	})
	return Reply{Text: rendered, Source: SourceExplain, Usage: usage}, nil
}

func (s *service) complete(ctx context.Context, prompt string) (string, metrics.TokenUsage, error) {
	resp, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		Messages: []chatgpt.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", metrics.TokenUsage{}, err
	}
	usage := metrics.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if len(resp.Choices) == 0 {
		return "", usage, nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), usage, nil
}

func (s *service) storeMemory(ctx context.Context, userID string, reply LastReply) {
	if userID == "" || s.memory == nil {
		return
	}
	if err := s.memory.Store(ctx, userID, reply); err != nil {
		s.logger.Warn("reply memory store failed", "error", err, "userId", userID)
	}
}

func (s *service) clearMemory(ctx context.Context, userID string) {
	if userID == "" || s.memory == nil {
		return
	}
	if err := s.memory.Clear(ctx, userID); err != nil {
		s.logger.Warn("reply memory clear failed", "error", err, "userId", userID)
	}
}

func ragPrompt(docs []string, query string) string {
	return fmt.Sprintf(`Anda adalah asisten AI layanan profesional, ramah, dan ahli untuk Program Studi Teknik Informatika UIN Syarif Hidayatullah Jakarta. Tugas Anda adalah menjawab pertanyaan berdasarkan informasi yang diberikan dalam <context> berikut.

### ATURAN MUTLAK:
1. **Selalu jawab dalam Bahasa Indonesia yang baik, sopan, dan profesional.**
2. **Gunakan hanya informasi dari <context> untuk menjawab.**
3. **JANGAN PERNAH mengulang atau menulis ulang kalimat, poin, atau informasi apapun.**
4. **Gabungkan dan sintesis informasi dari <context> menjadi jawaban yang mengalir, jelas, dan mudah dipahami.**
5. **Gunakan format Markdown:**
   - Gunakan heading (###, ####) untuk judul dan subjudul.
   - Gunakan bullet list (*) dan numbered list (1.) sesuai kebutuhan.
   - Gunakan **bold** untuk kata kunci penting.
6. **Jika informasi tidak ditemukan di <context>, jawab dengan kalimat standar:**
   - "Tolong perjelas terkait pertanyaan yang Anda berikan."
7. **Akhiri setiap jawaban dengan pertanyaan ramah untuk mendorong interaksi lanjutan.**
8. **Jangan pernah menyalin mentah dari <context>; selalu parafrase dan rangkum.**

<context>
%s
</context>

**Pertanyaan Pengguna:**
%s
`, strings.Join(docs, "\n\n"), query)
}

func elaborationPrompt(last LastReply) string {
	return fmt.Sprintf(`Anda adalah asisten AI layanan profesional untuk Program Studi Teknik Informatika UIN Syarif Hidayatullah Jakarta.

PERTANYAAN ASLI PENGGUNA: "%s"

RESPONS ANDA SEBELUMNYA:
---
%s
---

PENGGUNA SEKARANG MEMINTA PENJELASAN YANG LEBIH DETAIL ("Jelaskan Lebih Jelas") tentang respons Anda di atas.

TUGAS ANDA:
1. Berikan penjelasan yang LEBIH DETAIL dan MENDALAM tentang respons sebelumnya
2. Pecah konsep-konsep kompleks menjadi bagian-bagian yang mudah dipahami
3. Berikan contoh konkret jika memungkinkan
4. Jelaskan "mengapa" di balik informasi yang diberikan
5. Gunakan HANYA informasi dari konteks dokumen yang sama
6. Tetap fokus pada topik respons sebelumnya
7. Gunakan format Markdown yang rapi
8. Jawab dalam Bahasa Indonesia yang profesional

PENTING:
- Jangan menambahkan informasi baru di luar konteks respons sebelumnya
- Fokus hanya pada penjelasan lebih detail dari apa yang sudah dijelaskan
- Pastikan penjelasan Anda terkait dengan pertanyaan: "%s"
- Jika ada informasi yang tidak relevan dengan pertanyaan asli, abaikan

<context>
%s
</context>
`, last.Query, last.Response, last.Query, strings.Join(last.Context, "\n\n"))
}
