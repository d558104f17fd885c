package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/campusbot/internal/domain/auth"
	"github.com/yanqian/campusbot/internal/domain/chat"
	"github.com/yanqian/campusbot/internal/domain/faqflow"
	"github.com/yanqian/campusbot/internal/domain/kb"
	"github.com/yanqian/campusbot/internal/infra/adminrepo"
	"github.com/yanqian/campusbot/internal/infra/config"
	"github.com/yanqian/campusbot/internal/infra/ctxstore"
)

func TestRouter_ChatSuccess(t *testing.T) {
	svc := &stubChat{
		respondFn: func(ctx context.Context, req chat.Request) (chat.Reply, error) {
			require.Equal(t, "halo kampus", req.Message)
			require.Equal(t, chat.ChannelWeb, req.Channel)
			return chat.Reply{Text: "jawaban", Source: chat.SourceRetrieval}, nil
		},
	}

	recorder := postJSON(t, "/api/v1/chat", `{"userId":"u1","message":"halo kampus"}`, newRouterUnderTest(t, svc))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got chat.Reply
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "jawaban", got.Text)
	require.Equal(t, chat.SourceRetrieval, got.Source)
}

func TestRouter_ChatInvalidJSON(t *testing.T) {
	recorder := postJSON(t, "/api/v1/chat", `{"message":123}`, newRouterUnderTest(t, &stubChat{}))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.NotEmpty(t, errBody["error"]["message"])
}

func TestRouter_WhatsAppWebhookReturnsTwiML(t *testing.T) {
	svc := &stubChat{
		respondFn: func(ctx context.Context, req chat.Request) (chat.Reply, error) {
			require.Equal(t, "whatsapp:+628123", req.UserID)
			require.Equal(t, chat.ChannelWhatsApp, req.Channel)
			return chat.Reply{Text: "* [Kurikulum](https://example.com)", Source: chat.SourceRetrieval}, nil
		},
	}

	form := url.Values{"From": {"whatsapp:+628123"}, "Body": {"info kurikulum"}}
	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	newRouterUnderTest(t, svc).Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "xml")
	require.Contains(t, rec.Body.String(), "<Response>")
	// markdown link collapsed to a bare URL for WhatsApp
	require.Contains(t, rec.Body.String(), "https://example.com")
	require.NotContains(t, rec.Body.String(), "](")
}

func TestRouter_WhatsAppWebhookSwallowsErrors(t *testing.T) {
	svc := &stubChat{
		respondFn: func(ctx context.Context, req chat.Request) (chat.Reply, error) {
			return chat.Reply{}, context.DeadlineExceeded
		},
	}

	form := url.Values{"From": {"whatsapp:+628123"}, "Body": {"apa saja"}}
	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	newRouterUnderTest(t, svc).Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Maaf")
}

func TestRouter_CatalogList(t *testing.T) {
	server := newRouterUnderTest(t, &stubChat{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/faq", nil)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Bagaimana cara mengajukan cuti?")
}

func TestRouter_AdminRequiresToken(t *testing.T) {
	server := newRouterUnderTest(t, &stubChat{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/kb/documents", nil)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "unauthorized", errBody["error"]["code"])
}

func TestRouter_ReloadCatalogWithToken(t *testing.T) {
	server := newRouterUnderTest(t, &stubChat{})

	rec := postJSON(t, "/api/v1/admin/login", `{"email":"admin@example.com","password":"pass1234"}`, server)
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/faq/reload", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Entries int `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Entries)
}

func postJSON(t *testing.T, path, body string, server *http.Server) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, chatSvc chat.Service) *http.Server {
	t.Helper()
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	flowSvc := newStubFlow(t)
	handler := NewHandler(chatSvc, flowSvc, cfg, newTestLogger())
	authSvc := auth.NewService(auth.Config{
		Secret:            "test-secret",
		TokenTTL:          time.Hour,
		RefreshTokenTTL:   time.Hour,
		BootstrapEmail:    "admin@example.com",
		BootstrapPassword: "pass1234",
	}, adminrepo.NewMemoryRepository(), newTestLogger())
	require.NoError(t, authSvc.Bootstrap(context.Background()))
	authHandler := NewAuthHandler(authSvc, auth.Config{})
	kbHandler := NewKBHandler(&stubKB{}, flowSvc, "testdata/faq.json")
	return NewRouter(cfg, handler, authHandler, kbHandler, authSvc)
}

func newStubFlow(t *testing.T) faqflow.Service {
	t.Helper()
	cat := faqflow.NewCatalog([]faqflow.Entry{
		{Question: "Bagaimana cara mengajukan cuti?", Answer: "Hubungi bagian akademik."},
	})
	store := ctxstore.NewMemoryStore(faqflow.DefaultTimeout)
	return faqflow.NewService(faqflow.Config{}, cat, store, newTestLogger())
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubChat struct {
	respondFn func(ctx context.Context, req chat.Request) (chat.Reply, error)
}

func (s *stubChat) Respond(ctx context.Context, req chat.Request) (chat.Reply, error) {
	if s.respondFn != nil {
		return s.respondFn(ctx, req)
	}
	return chat.Reply{}, nil
}

type stubKB struct{}

func (s *stubKB) Upload(context.Context, string, string, []byte) (kb.Document, error) {
	return kb.Document{}, nil
}
func (s *stubKB) Process(context.Context, uuid.UUID) error         { return nil }
func (s *stubKB) List(context.Context) ([]kb.Document, error)      { return nil, nil }
func (s *stubKB) Delete(context.Context, uuid.UUID) error          { return nil }
func (s *stubKB) Reindex(context.Context, bool) (int, error)       { return 0, nil }
func (s *stubKB) Progress(context.Context) (kb.IngestProgress, error) {
	return kb.IngestProgress{}, nil
}
func (s *stubKB) Retrieve(context.Context, string) ([]kb.RetrievedChunk, error) {
	return nil, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
