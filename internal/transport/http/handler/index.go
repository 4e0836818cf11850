package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gopherai-rag/internal/app"
	"gopherai-rag/internal/bootstrap"
	"gopherai-rag/internal/model"
	"gopherai-rag/internal/transport/http/response"
)

type IndexHandler struct {
	app *bootstrap.App
}

type CreateIndexJobRequest struct {
	DocumentPath string `json:"document_path"`
}

func NewIndexHandler(app *bootstrap.App) *IndexHandler {
	return &IndexHandler{app: app}
}

// CreateJob queues a rebuild of the index. An empty path means the configured
// document; any path must resolve inside paths.data_dir.
func (h *IndexHandler) CreateJob(c *gin.Context) {
	var req CreateIndexJobRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	path := strings.TrimSpace(req.DocumentPath)
	if path == "" {
		path = h.app.Config.Paths.Document
	}
	path, err := app.ConfineToDir(h.app.Config.Paths.DataDir, path)
	if err != nil {
		response.FromError(c, err)
		return
	}

	if h.app.Publisher == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, "index jobs need rabbitmq; set RABBITMQ_URL")
		return
	}

	job := model.IndexJob{
		ID:           uuid.NewString(),
		DocumentPath: path,
		RequestedAt:  time.Now().UTC(),
	}
	if err := h.app.Publisher.Publish(c.Request.Context(), job); err != nil {
		h.app.Logger.Error("publish index job failed", "err", err)
		response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, "publish index job failed")
		return
	}
	c.JSON(http.StatusAccepted, response.APIResponse{Code: response.CodeOK, Message: "queued", Data: job})
}
