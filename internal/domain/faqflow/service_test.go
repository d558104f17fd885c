package faqflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testStore is an in-memory ContextStore with a controllable clock so tests
// can cross the idle timeout deterministically.
type testStore struct {
	mu       sync.Mutex
	contexts map[string]UserContext
	timeout  time.Duration
	now      time.Time
}

func newTestStore(timeout time.Duration) *testStore {
	return &testStore{
		contexts: make(map[string]UserContext),
		timeout:  timeout,
		now:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *testStore) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func (s *testStore) Begin(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[userID] = UserContext{Active: true, LastInteraction: s.now}
	return nil
}

func (s *testStore) Touch(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	uc, ok := s.contexts[userID]
	if !ok || !uc.Active {
		return nil
	}
	uc.LastInteraction = s.now
	s.contexts[userID] = uc
	return nil
}

func (s *testStore) Get(_ context.Context, userID string) (UserContext, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uc, ok := s.contexts[userID]
	if !ok || !uc.Active {
		return UserContext{}, false, nil
	}
	if s.now.Sub(uc.LastInteraction) > s.timeout {
		delete(s.contexts, userID)
		return UserContext{}, false, nil
	}
	return uc, true, nil
}

func (s *testStore) End(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, userID)
	return nil
}

func newFlowUnderTest(t *testing.T) (Service, *testStore) {
	t.Helper()
	store := newTestStore(300 * time.Second)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(Config{}, NewCatalog(testEntries()), store, logger)
	return svc, store
}

func TestService_MenuTriggerOpensSession(t *testing.T) {
	svc, _ := newFlowUnderTest(t)
	ctx := context.Background()

	res, err := svc.Handle(ctx, "user-1", "Menu FAQ")
	require.NoError(t, err)
	require.Equal(t, ResultList, res.Kind)
	require.Contains(t, res.Text, "1. Bagaimana cara mengajukan cuti kuliah?")
	require.Contains(t, res.Text, "NOMOR")

	res, err = svc.Handle(ctx, "user-1", "2")
	require.NoError(t, err)
	require.Equal(t, ResultAnswer, res.Kind)
	require.Equal(t, "Dua pekan sebelum kuliah.", res.Text)

	// selection closes the session
	res, err = svc.Handle(ctx, "user-1", "3")
	require.NoError(t, err)
	require.Equal(t, ResultFallthrough, res.Kind)
	require.Equal(t, "3", res.Original)
}

func TestService_NoSessionFallsThrough(t *testing.T) {
	svc, _ := newFlowUnderTest(t)

	res, err := svc.Handle(context.Background(), "user-1", "kapan wisuda?")
	require.NoError(t, err)
	require.Equal(t, ResultFallthrough, res.Kind)
	require.Equal(t, "kapan wisuda?", res.Original)
}

func TestService_SessionExpiresAfterIdleTimeout(t *testing.T) {
	svc, store := newFlowUnderTest(t)
	ctx := context.Background()

	_, err := svc.Handle(ctx, "user-1", "menu faq")
	require.NoError(t, err)

	store.advance(301 * time.Second)

	res, err := svc.Handle(ctx, "user-1", "2")
	require.NoError(t, err)
	require.Equal(t, ResultFallthrough, res.Kind)
}

func TestService_ErrorsRefreshTheSession(t *testing.T) {
	svc, store := newFlowUnderTest(t)
	ctx := context.Background()

	_, err := svc.Handle(ctx, "user-1", "menu faq")
	require.NoError(t, err)

	store.advance(200 * time.Second)
	res, err := svc.Handle(ctx, "user-1", "99")
	require.NoError(t, err)
	require.Equal(t, ResultError, res.Kind)
	require.Contains(t, res.Text, "Nomor 99 tidak valid")

	// the failed attempt touched the context, so another 200s keeps it alive
	store.advance(200 * time.Second)
	res, err = svc.Handle(ctx, "user-1", "1")
	require.NoError(t, err)
	require.Equal(t, ResultAnswer, res.Kind)
}

func TestService_CommandsInsideSession(t *testing.T) {
	svc, _ := newFlowUnderTest(t)
	ctx := context.Background()

	_, err := svc.Handle(ctx, "user-1", "menu faq")
	require.NoError(t, err)

	res, err := svc.Handle(ctx, "user-1", "bantuan")
	require.NoError(t, err)
	require.Equal(t, ResultHelp, res.Kind)
	require.Contains(t, res.Text, "Cara memilih")

	res, err = svc.Handle(ctx, "user-1", "lihat lagi")
	require.NoError(t, err)
	require.Equal(t, ResultList, res.Kind)

	res, err = svc.Handle(ctx, "user-1", "keluar")
	require.NoError(t, err)
	require.Equal(t, ResultAnswer, res.Kind)
	require.Contains(t, res.Text, "menu FAQ ditutup")

	// exit removed the session
	res, err = svc.Handle(ctx, "user-1", "1")
	require.NoError(t, err)
	require.Equal(t, ResultFallthrough, res.Kind)
}

func TestService_QuestionInsideSessionEscapes(t *testing.T) {
	svc, _ := newFlowUnderTest(t)
	ctx := context.Background()

	_, err := svc.Handle(ctx, "user-1", "menu faq")
	require.NoError(t, err)

	res, err := svc.Handle(ctx, "user-1", "bagaimana cara bayar ukt")
	require.NoError(t, err)
	require.Equal(t, ResultFallthrough, res.Kind)

	// escaping ended the session too
	res, err = svc.Handle(ctx, "user-1", "2")
	require.NoError(t, err)
	require.Equal(t, ResultFallthrough, res.Kind)
}

func TestService_SuggestsEntriesForKeywordText(t *testing.T) {
	svc, _ := newFlowUnderTest(t)
	ctx := context.Background()

	_, err := svc.Handle(ctx, "user-1", "menu faq")
	require.NoError(t, err)

	res, err := svc.Handle(ctx, "user-1", "jadwal krs")
	require.NoError(t, err)
	require.Equal(t, ResultError, res.Kind)
	require.Contains(t, res.Text, "Mungkin maksud Anda")
	require.Contains(t, res.Text, "2. Kapan jadwal pengisian KRS?")
}

func TestService_UnrecognizedTextInsideSession(t *testing.T) {
	svc, _ := newFlowUnderTest(t)
	ctx := context.Background()

	_, err := svc.Handle(ctx, "user-1", "menu faq")
	require.NoError(t, err)

	res, err := svc.Handle(ctx, "user-1", "zzz qqq")
	require.NoError(t, err)
	require.Equal(t, ResultError, res.Kind)
	require.Contains(t, res.Text, "tidak dapat mengenali")
}

func TestService_ReloadSwapsCatalog(t *testing.T) {
	svc, _ := newFlowUnderTest(t)
	ctx := context.Background()

	svc.Reload(NewCatalog([]Entry{
		{Question: "Pertanyaan baru?", Answer: "Jawaban baru."},
	}))
	require.Equal(t, 1, svc.Catalog().Size())

	res, err := svc.Handle(ctx, "user-1", "menu faq")
	require.NoError(t, err)
	require.Equal(t, ResultList, res.Kind)
	require.Contains(t, res.Text, "Pertanyaan baru?")
	require.NotContains(t, res.Text, "KRS")
}

func TestService_EmptyCatalogReportsUnavailable(t *testing.T) {
	store := newTestStore(300 * time.Second)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(Config{}, NewCatalog(nil), store, logger)

	res, err := svc.Handle(context.Background(), "user-1", "menu faq")
	require.NoError(t, err)
	require.Equal(t, ResultError, res.Kind)
	require.True(t, strings.Contains(res.Text, "belum tersedia"))
}

func TestService_LargeCatalogSelectionByWord(t *testing.T) {
	entries := make([]Entry, 35)
	for i := range entries {
		entries[i] = Entry{
			Question: fmt.Sprintf("Pertanyaan %d?", i+1),
			Answer:   fmt.Sprintf("Jawaban %d.", i+1),
		}
	}
	store := newTestStore(300 * time.Second)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(Config{}, NewCatalog(entries), store, logger)
	ctx := context.Background()

	res, err := svc.Handle(ctx, "user-1", "Menu FAQ")
	require.NoError(t, err)
	require.Equal(t, ResultList, res.Kind)
	require.Contains(t, res.Text, "35. Pertanyaan 35?")
	require.Contains(t, res.Text, "Total 35 pertanyaan")

	res, err = svc.Handle(ctx, "user-1", "lima")
	require.NoError(t, err)
	require.Equal(t, ResultAnswer, res.Kind)
	require.Equal(t, "Jawaban 5.", res.Text)

	_, found, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestService_OutOfRangeNamesCatalogBounds(t *testing.T) {
	entries := make([]Entry, 35)
	for i := range entries {
		entries[i] = Entry{
			Question: fmt.Sprintf("Pertanyaan %d?", i+1),
			Answer:   fmt.Sprintf("Jawaban %d.", i+1),
		}
	}
	store := newTestStore(300 * time.Second)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(Config{}, NewCatalog(entries), store, logger)
	ctx := context.Background()

	_, err := svc.Handle(ctx, "user-1", "menu faq")
	require.NoError(t, err)

	res, err := svc.Handle(ctx, "user-1", "50")
	require.NoError(t, err)
	require.Equal(t, ResultError, res.Kind)
	require.Contains(t, res.Text, "1")
	require.Contains(t, res.Text, "35")

	res, err = svc.Handle(ctx, "user-1", "35")
	require.NoError(t, err)
	require.Equal(t, ResultAnswer, res.Kind)
	require.Equal(t, "Jawaban 35.", res.Text)
}
