package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/campusbot/internal/domain/auth"
	"github.com/yanqian/campusbot/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authHandler *AuthHandler, kbHandler *KBHandler, authSvc auth.Service) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		errorHandlingMiddleware(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/webhook/whatsapp", handler.WhatsAppWebhook)

	api := router.Group("/api/v1")
	{
		api.POST("/chat", handler.Chat)
		api.GET("/faq", handler.Catalog)
	}

	admin := api.Group("/admin")
	{
		admin.POST("/login", authHandler.Login)
		admin.POST("/refresh", authHandler.Refresh)
		admin.GET("/oauth/google/login", authHandler.GoogleLogin)
		admin.GET("/oauth/google/callback", authHandler.GoogleCallback)

		authed := admin.Group("")
		authed.Use(authMiddleware(authSvc))
		{
			authed.GET("/profile", authHandler.Profile)
			authed.POST("/logout", authHandler.Logout)
			authed.POST("/kb/documents", kbHandler.UploadDocument)
			authed.GET("/kb/documents", kbHandler.ListDocuments)
			authed.DELETE("/kb/documents/:id", kbHandler.DeleteDocument)
			authed.POST("/kb/reindex", kbHandler.Reindex)
			authed.GET("/kb/progress", kbHandler.Progress)
			authed.POST("/faq/reload", kbHandler.ReloadCatalog)
		}
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
