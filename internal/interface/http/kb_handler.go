package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/campusbot/internal/domain/faqflow"
	"github.com/yanqian/campusbot/internal/domain/kb"
	"github.com/yanqian/campusbot/internal/infra/catalog"
	apperrors "github.com/yanqian/campusbot/pkg/errors"
)

// KBHandler exposes knowledge base administration.
type KBHandler struct {
	svc         kb.Service
	flowSvc     faqflow.Service
	catalogPath string
}

// NewKBHandler constructs the admin KB handler.
func NewKBHandler(svc kb.Service, flowSvc faqflow.Service, catalogPath string) *KBHandler {
	return &KBHandler{svc: svc, flowSvc: flowSvc, catalogPath: catalogPath}
}

// UploadDocument accepts a multipart upload and enqueues ingestion.
func (h *KBHandler) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "file is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read upload", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "upload_failed", "failed to read file", err))
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = fileHeader.Filename
	}
	doc, err := h.svc.Upload(c.Request.Context(), title, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		abortWithError(c, kbHTTPError(err, "upload_failed"))
		return
	}
	c.JSON(http.StatusAccepted, doc)
}

// ListDocuments returns the knowledge base contents.
func (h *KBHandler) ListDocuments(c *gin.Context) {
	docs, err := h.svc.List(c.Request.Context())
	if err != nil {
		abortWithError(c, kbHTTPError(err, "fetch_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": docs})
}

// DeleteDocument removes a document and its chunks.
func (h *KBHandler) DeleteDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid document id", err))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, kbHTTPError(err, "delete_failed"))
		return
	}
	c.Status(http.StatusNoContent)
}

// Reindex re-enqueues changed documents; ?force=true re-embeds everything.
func (h *KBHandler) Reindex(c *gin.Context) {
	force := strings.EqualFold(c.Query("force"), "true") || c.Query("force") == "1"
	queued, err := h.svc.Reindex(c.Request.Context(), force)
	if err != nil {
		abortWithError(c, kbHTTPError(err, "reindex_failed"))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": queued})
}

// Progress reports ingestion counts by status.
func (h *KBHandler) Progress(c *gin.Context) {
	progress, err := h.svc.Progress(c.Request.Context())
	if err != nil {
		abortWithError(c, kbHTTPError(err, "fetch_failed"))
		return
	}
	c.JSON(http.StatusOK, progress)
}

// ReloadCatalog re-reads the FAQ catalog file and swaps it in.
func (h *KBHandler) ReloadCatalog(c *gin.Context) {
	cat, err := catalog.LoadFile(h.catalogPath)
	if err != nil {
		abortWithError(c, kbHTTPError(err, "catalog_reload_failed"))
		return
	}
	h.flowSvc.Reload(cat)
	c.JSON(http.StatusOK, gin.H{"entries": cat.Size()})
}

func kbHTTPError(err error, fallback string) *HTTPError {
	status := http.StatusInternalServerError
	code := fallback
	switch {
	case apperrors.IsCode(err, "invalid_input"):
		status = http.StatusBadRequest
		code = "invalid_request"
	case apperrors.IsCode(err, "not_found"):
		status = http.StatusNotFound
		code = "not_found"
	case apperrors.IsCode(err, "catalog_load"):
		status = http.StatusUnprocessableEntity
		code = "catalog_invalid"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}
