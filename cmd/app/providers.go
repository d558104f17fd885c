package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/campusbot/internal/domain/auth"
	"github.com/yanqian/campusbot/internal/domain/chat"
	"github.com/yanqian/campusbot/internal/domain/faqflow"
	"github.com/yanqian/campusbot/internal/domain/kb"
	"github.com/yanqian/campusbot/internal/infra/adminrepo"
	"github.com/yanqian/campusbot/internal/infra/catalog"
	"github.com/yanqian/campusbot/internal/infra/config"
	"github.com/yanqian/campusbot/internal/infra/ctxstore"
	"github.com/yanqian/campusbot/internal/infra/kb/chunker"
	"github.com/yanqian/campusbot/internal/infra/kb/embedder"
	"github.com/yanqian/campusbot/internal/infra/kb/queue"
	kbrepo "github.com/yanqian/campusbot/internal/infra/kb/repo"
	kbstorage "github.com/yanqian/campusbot/internal/infra/kb/storage"
	"github.com/yanqian/campusbot/internal/infra/llm/chatgpt"
	"github.com/yanqian/campusbot/internal/infra/replymem"
	httpiface "github.com/yanqian/campusbot/internal/interface/http"
)

func provideFlowConfig(cfg *config.Config) faqflow.Config {
	return faqflow.Config{
		Timeout:        cfg.FAQ.ContextTimeout,
		MaxSuggestions: cfg.FAQ.MaxSuggestions,
		MenuTriggers:   cfg.FAQ.MenuTriggers,
	}
}

func provideChatConfig(cfg *config.Config) chat.Config {
	return chat.Config{
		Model:            cfg.LLM.Model,
		Temperature:      cfg.LLM.Temperature,
		MaxContextChunks: cfg.Chat.MaxContextChunks,
		ExplainWindow:    cfg.Chat.ExplainWindow,
		GreetingWords:    cfg.Chat.GreetingWords,
	}
}

func provideKBConfig(cfg *config.Config) kb.Config {
	return kb.Config{
		MaxFileBytes: cfg.KB.MaxFileBytes,
		ChunkTokens:  cfg.KB.ChunkTokens,
		ChunkOverlap: cfg.KB.ChunkOverlap,
		TopK:         cfg.KB.TopK,
		MinScore:     cfg.KB.MinScore,
		VectorWeight: cfg.KB.VectorWeight,
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:            cfg.Auth.Secret,
		TokenTTL:          cfg.Auth.TokenTTL,
		RefreshTokenTTL:   cfg.Auth.RefreshTokenTTL,
		BootstrapEmail:    cfg.Auth.BootstrapEmail,
		BootstrapPassword: cfg.Auth.BootstrapPassword,
		AllowedEmails:     cfg.Auth.AllowedEmails,
		Google: auth.GoogleConfig{
			ClientID:             cfg.Auth.Google.ClientID,
			ClientSecret:         cfg.Auth.Google.ClientSecret,
			RedirectURL:          cfg.Auth.Google.RedirectURL,
			TokenEncryptionKey:   cfg.Auth.Google.TokenEncryptionKey,
			PostLoginRedirectURL: cfg.Auth.Google.PostLoginRedirectURL,
		},
	}
}

func provideChatGPTClient(cfg *config.Config) (*chatgpt.Client, error) {
	return chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
}

func provideCatalog(cfg *config.Config, logger *slog.Logger) *faqflow.Catalog {
	cat, err := catalog.LoadFile(cfg.FAQ.CatalogPath)
	if err != nil {
		logger.Error("faq catalog load failed, starting with empty catalog",
			"path", cfg.FAQ.CatalogPath, "error", err)
		return faqflow.NewCatalog(nil)
	}
	logger.Info("faq catalog loaded", "path", cfg.FAQ.CatalogPath, "entries", cat.Size())
	return cat
}

func provideValkeyClient(cfg *config.Config, logger *slog.Logger) valkey.Client {
	if !cfg.Valkey.Enabled {
		return nil
	}
	opt, err := buildValkeyOptions(cfg.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, using in-process state", "error", err)
		return nil
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, using in-process state", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, using in-process state", "error", err)
		client.Close()
		return nil
	}
	logger.Info("valkey enabled", "addr", cfg.Valkey.Addr)
	return client
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func providePostgresPool(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres enabled")
	return pool
}

func provideContextStore(cfg *config.Config, client valkey.Client, logger *slog.Logger) faqflow.ContextStore {
	timeout := cfg.FAQ.ContextTimeout
	if client != nil {
		logger.Info("faq context store backed by valkey")
		return ctxstore.NewValkeyStore(client, "faqctx", timeout)
	}
	return ctxstore.NewMemoryStore(timeout)
}

func provideReplyMemory(cfg *config.Config, client valkey.Client, logger *slog.Logger) chat.ReplyMemory {
	window := cfg.Chat.ExplainWindow
	if client != nil {
		logger.Info("reply memory backed by valkey")
		return replymem.NewValkeyStore(client, "lastreply", window)
	}
	return replymem.NewMemoryStore(window)
}

func provideAuthRepository(pool *pgxpool.Pool) auth.Repository {
	if pool != nil {
		return adminrepo.NewPostgresRepository(pool)
	}
	return adminrepo.NewMemoryRepository()
}

func provideDocumentRepository(pool *pgxpool.Pool) kb.DocumentRepository {
	if pool != nil {
		return kbrepo.NewPostgresDocumentRepository(pool)
	}
	return kbrepo.NewMemoryDocumentRepository()
}

func provideFileRepository(pool *pgxpool.Pool) kb.FileObjectRepository {
	if pool != nil {
		return kbrepo.NewPostgresFileRepository(pool)
	}
	return kbrepo.NewMemoryFileRepository()
}

func provideChunkRepository(pool *pgxpool.Pool, docs kb.DocumentRepository) kb.ChunkRepository {
	if pool != nil {
		return kbrepo.NewPostgresChunkRepository(pool)
	}
	return kbrepo.NewMemoryChunkRepository(docs)
}

func provideObjectStorage(cfg *config.Config, logger *slog.Logger) kb.ObjectStorage {
	if cfg.Storage.Enabled {
		store, err := kbstorage.NewS3(cfg.Storage.Endpoint, cfg.Storage.AccessKey,
			cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.Region, logger)
		if err != nil {
			logger.Error("s3 storage init failed, using memory storage", "error", err)
			return kbstorage.NewMemory()
		}
		logger.Info("s3 storage enabled", "bucket", cfg.Storage.Bucket)
		return store
	}
	return kbstorage.NewMemory()
}

func provideChunker(cfg *config.Config, logger *slog.Logger) kb.Chunker {
	return chunker.New(cfg.LLM.Model, cfg.KB.ChunkTokens, cfg.KB.ChunkOverlap, logger)
}

// deterministicEmbedderDim keeps offline embeddings at a stable width so
// reindexing never mixes vector sizes.
const deterministicEmbedderDim = 256

func provideEmbedder(cfg *config.Config, client *chatgpt.Client, logger *slog.Logger) kb.Embedder {
	if strings.EqualFold(cfg.LLM.EmbeddingModel, "deterministic") {
		logger.Info("deterministic embedder enabled")
		return embedder.NewDeterministic(deterministicEmbedderDim)
	}
	return embedder.NewOpenAIEmbedder(client, cfg.LLM.EmbeddingModel, logger)
}

func provideJobQueue(client valkey.Client, logger *slog.Logger) queue.HandlerQueue {
	if client != nil {
		logger.Info("kb job queue backed by valkey")
		return queue.NewValkey(client, "kb:jobs", logger)
	}
	return queue.NewImmediate()
}

func provideKBService(
	cfg *config.Config,
	docs kb.DocumentRepository,
	files kb.FileObjectRepository,
	chunks kb.ChunkRepository,
	storage kb.ObjectStorage,
	splitter kb.Chunker,
	embed kb.Embedder,
	jobs queue.HandlerQueue,
	logger *slog.Logger,
) kb.Service {
	svc := kb.NewService(provideKBConfig(cfg), docs, files, chunks, storage, splitter, embed, jobs, logger)
	jobs.SetHandler(func(ctx context.Context, name string, payload map[string]any) {
		if name != kb.JobProcessDocument {
			logger.Warn("unknown job received", "job", name)
			return
		}
		raw, _ := payload["documentId"].(string)
		docID, err := uuid.Parse(raw)
		if err != nil {
			logger.Error("job carries invalid document id", "value", raw, "error", err)
			return
		}
		if err := svc.Process(ctx, docID); err != nil {
			logger.Error("document processing failed", "document", docID, "error", err)
		}
	})
	return svc
}

func provideChatService(
	cfg *config.Config,
	flow faqflow.Service,
	kbSvc kb.Service,
	memory chat.ReplyMemory,
	client *chatgpt.Client,
	logger *slog.Logger,
) chat.Service {
	return chat.NewService(provideChatConfig(cfg), flow, kbSvc, memory, client, logger)
}

func provideFlowService(cfg *config.Config, cat *faqflow.Catalog, store faqflow.ContextStore, logger *slog.Logger) faqflow.Service {
	return faqflow.NewService(provideFlowConfig(cfg), cat, store, logger)
}

func provideKBHandler(cfg *config.Config, kbSvc kb.Service, flowSvc faqflow.Service) *httpiface.KBHandler {
	return httpiface.NewKBHandler(kbSvc, flowSvc, cfg.FAQ.CatalogPath)
}
