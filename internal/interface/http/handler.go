// Package http exposes the chatbot and admin API over gin.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/campusbot/internal/domain/chat"
	"github.com/yanqian/campusbot/internal/domain/faqflow"
	"github.com/yanqian/campusbot/internal/infra/config"
	apperrors "github.com/yanqian/campusbot/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	chatSvc chat.Service
	flowSvc faqflow.Service
	cfg     *config.Config
	logger  *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(chatSvc chat.Service, flowSvc faqflow.Service, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		flowSvc: flowSvc,
		cfg:     cfg,
		logger:  logger.With("component", "http.handler"),
	}
}

type chatPayload struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// Chat answers a web chat message.
func (h *Handler) Chat(c *gin.Context) {
	var req chatPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	reply, err := h.chatSvc.Respond(c.Request.Context(), chat.Request{
		UserID:  req.UserID,
		Message: req.Message,
		Channel: chat.ChannelWeb,
	})
	if err != nil {
		status := http.StatusInternalServerError
		code := "chat_failed"
		if apperrors.IsCode(err, "invalid_input") {
			status = http.StatusBadRequest
			code = "invalid_request"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, reply)
}

// Catalog returns the FAQ entries currently served by the selection flow.
func (h *Handler) Catalog(c *gin.Context) {
	cat := h.flowSvc.Catalog()
	c.JSON(http.StatusOK, gin.H{"items": cat.Entries()})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
