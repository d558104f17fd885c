//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/campusbot/internal/bootstrap"
	"github.com/yanqian/campusbot/internal/domain/auth"
	"github.com/yanqian/campusbot/internal/infra/config"
	httpiface "github.com/yanqian/campusbot/internal/interface/http"
	"github.com/yanqian/campusbot/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAuthConfig,
		provideChatGPTClient,
		provideCatalog,
		provideValkeyClient,
		providePostgresPool,
		provideContextStore,
		provideReplyMemory,
		provideAuthRepository,
		provideDocumentRepository,
		provideFileRepository,
		provideChunkRepository,
		provideObjectStorage,
		provideChunker,
		provideEmbedder,
		provideJobQueue,
		provideKBService,
		provideFlowService,
		provideChatService,
		auth.NewService,
		httpiface.NewHandler,
		httpiface.NewAuthHandler,
		provideKBHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
