package faqflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
)

// Service is the conversational FAQ state machine. Channel adapters call
// Handle before falling back to the retrieval pipeline: a Fallthrough result
// means the message was not an FAQ interaction.
type Service interface {
	Handle(ctx context.Context, userID, raw string) (Result, error)
	Catalog() *Catalog
	Reload(catalog *Catalog)
}

type service struct {
	cfg     Config
	catalog atomic.Pointer[Catalog]
	store   ContextStore
	logger  *slog.Logger
}

// NewService wires up the FAQ flow.
func NewService(cfg Config, catalog *Catalog, store ContextStore, logger *slog.Logger) Service {
	s := &service{
		cfg:    cfg.Sanitize(),
		store:  store,
		logger: logger.With("component", "faqflow.service"),
	}
	if catalog == nil {
		catalog = NewCatalog(nil)
	}
	s.catalog.Store(catalog)
	return s
}

// Catalog returns the current catalog.
func (s *service) Catalog() *Catalog {
	return s.catalog.Load()
}

// Reload swaps the catalog wholesale. Open sessions keep running against the
// new entry list.
func (s *service) Reload(catalog *Catalog) {
	if catalog == nil {
		catalog = NewCatalog(nil)
	}
	s.catalog.Store(catalog)
	s.logger.Info("faq catalog reloaded", "entries", catalog.Size())
}

// Handle runs one message through the state machine. Store failures are
// non-fatal: they are logged and the message degrades to stateless handling,
// so every branch resolves to a rendered response or a fallthrough.
func (s *service) Handle(ctx context.Context, userID, raw string) (Result, error) {
	msg := collapse(strings.ToLower(raw))

	// Menu triggers open (or refresh) a session in any state.
	if s.isMenuTrigger(msg) {
		return s.openMenu(ctx, userID), nil
	}

	active := s.activeContext(ctx, userID)
	if !active {
		return Result{Kind: ResultFallthrough, Original: raw}, nil
	}

	cat := s.Catalog()
	if cat.Size() == 0 {
		s.end(ctx, userID)
		return Result{Kind: ResultError, Text: msgNoCatalog}, nil
	}

	in := Normalize(raw, cat.Size())
	switch in.Kind {
	case InputSelection:
		entry, ok := cat.Get(in.Position)
		if !ok {
			// Normalize already range-checked; a miss here means the
			// catalog was swapped underneath us.
			s.touch(ctx, userID)
			return Result{Kind: ResultError, Text: renderOutOfRange(cat, in.Position)}, nil
		}
		s.end(ctx, userID)
		s.logger.Info("faq entry selected", "user", userID, "position", in.Position)
		return Result{Kind: ResultAnswer, Text: entry.Answer}, nil

	case InputCommand:
		switch in.Command {
		case CommandHelp:
			s.touch(ctx, userID)
			return Result{Kind: ResultHelp, Text: renderHelp(cat)}, nil
		case CommandExit:
			s.end(ctx, userID)
			return Result{Kind: ResultAnswer, Text: msgExit}, nil
		case CommandRelist:
			s.touch(ctx, userID)
			return Result{Kind: ResultList, Text: renderList(cat)}, nil
		}
	}

	if in.Reason == ReasonOutOfRange {
		s.touch(ctx, userID)
		return Result{Kind: ResultError, Text: renderOutOfRange(cat, in.Parsed)}, nil
	}

	// Free text inside a session: direct questions escape to the retrieval
	// pipeline so users are never stuck in the menu. Exact command synonyms
	// were already matched above and win over this heuristic.
	if looksLikeQuestion(msg) {
		s.end(ctx, userID)
		return Result{Kind: ResultFallthrough, Original: raw}, nil
	}

	if suggestions := cat.Suggest(raw, s.cfg.MaxSuggestions); len(suggestions) > 0 {
		s.touch(ctx, userID)
		return Result{Kind: ResultError, Text: renderSuggestions(suggestions)}, nil
	}

	s.touch(ctx, userID)
	return Result{Kind: ResultError, Text: msgNotUnderstood}, nil
}

func (s *service) openMenu(ctx context.Context, userID string) Result {
	cat := s.Catalog()
	if cat.Size() == 0 {
		return Result{Kind: ResultError, Text: msgNoCatalog}
	}
	if err := s.store.Begin(ctx, userID); err != nil {
		s.logger.Warn("faq context begin failed", "user", userID, "error", err)
	}
	return Result{Kind: ResultList, Text: renderList(cat)}
}

func (s *service) activeContext(ctx context.Context, userID string) bool {
	uc, ok, err := s.store.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("faq context read failed", "user", userID, "error", err)
		return false
	}
	return ok && uc.Active
}

func (s *service) touch(ctx context.Context, userID string) {
	if err := s.store.Touch(ctx, userID); err != nil {
		s.logger.Warn("faq context touch failed", "user", userID, "error", err)
	}
}

func (s *service) end(ctx context.Context, userID string) {
	if err := s.store.End(ctx, userID); err != nil {
		s.logger.Warn("faq context end failed", "user", userID, "error", err)
	}
}

func (s *service) isMenuTrigger(msg string) bool {
	for _, trigger := range s.cfg.MenuTriggers {
		if msg == trigger {
			return true
		}
	}
	return false
}

const (
	msgExit = "Baik, menu FAQ ditutup. Silakan ajukan pertanyaan Anda kapan saja."

	msgNoCatalog = "Maaf, daftar FAQ belum tersedia saat ini. Silakan ajukan pertanyaan Anda secara langsung."

	msgNotUnderstood = "Maaf, saya tidak dapat mengenali pilihan Anda. " +
		"Ketik nomor pertanyaan (contoh: 7 atau \"tujuh\"), \"bantuan\" untuk panduan, " +
		"atau \"keluar\" untuk menutup menu."
)

func renderList(cat *Catalog) string {
	var b strings.Builder
	b.WriteString("Berikut adalah daftar pertanyaan yang sering diajukan:\n\n")
	for _, entry := range cat.Entries() {
		fmt.Fprintf(&b, "%d. %s\n", entry.Position, entry.Question)
	}
	fmt.Fprintf(&b, "\nTotal %d pertanyaan. Silakan balas dengan NOMOR pertanyaan yang Anda inginkan (contoh: 2).\n", cat.Size())
	b.WriteString("Ketik \"bantuan\" untuk panduan atau \"keluar\" untuk menutup menu.")
	return b.String()
}

func renderHelp(cat *Catalog) string {
	size := cat.Size()
	var b strings.Builder
	fmt.Fprintf(&b, "Terdapat %d pertanyaan pada daftar FAQ. Cara memilih:\n", size)
	b.WriteString("- Angka: 5\n")
	b.WriteString("- Kata: lima / five / kelima\n")
	b.WriteString("- Dengan awalan: nomor 5, no 5, #5\n")
	b.WriteString("Perintah lain: \"lihat lagi\" untuk menampilkan daftar, \"keluar\" untuk menutup menu.")
	return b.String()
}

func renderOutOfRange(cat *Catalog, parsed int) string {
	size := cat.Size()
	examples := []int{1, size}
	if size > 1 {
		if parsed > size {
			examples = []int{size - 1, size}
		} else {
			examples = []int{1, 2}
		}
	}
	return fmt.Sprintf("Nomor %d tidak valid. Silakan pilih nomor antara 1 dan %d (contoh: %d atau %d).",
		parsed, size, examples[0], examples[len(examples)-1])
}

func renderSuggestions(entries []Entry) string {
	var b strings.Builder
	b.WriteString("Maaf, saya tidak menemukan nomor pada pesan Anda. Mungkin maksud Anda:\n")
	for _, entry := range entries {
		fmt.Fprintf(&b, "%d. %s\n", entry.Position, entry.Question)
	}
	b.WriteString("Balas dengan nomor pertanyaan untuk melihat jawabannya.")
	return b.String()
}

var questionWords = []string{
	"apa", "apakah", "siapa", "kapan", "dimana", "di mana", "kemana",
	"mengapa", "kenapa", "bagaimana", "berapa", "bisakah", "bolehkah",
	"what", "who", "when", "where", "why", "how",
}

// looksLikeQuestion reports whether a message resembles a direct question:
// it starts with a question word or ends with a question mark.
func looksLikeQuestion(msg string) bool {
	if strings.HasSuffix(msg, "?") {
		return true
	}
	for _, w := range questionWords {
		if msg == w || strings.HasPrefix(msg, w+" ") {
			return true
		}
	}
	return false
}
