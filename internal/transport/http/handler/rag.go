package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-rag/internal/bootstrap"
	"gopherai-rag/internal/transport/http/response"
)

type RAGHandler struct {
	app *bootstrap.App
}

type AskRequest struct {
	Query string `json:"query" binding:"required"`
}

func NewRAGHandler(app *bootstrap.App) *RAGHandler {
	return &RAGHandler{app: app}
}

func (h *RAGHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	answer, err := h.app.Engine.Ask(c.Request.Context(), req.Query)
	if err != nil {
		h.app.Logger.Warn("ask failed", "err", err)
		response.FromError(c, err)
		return
	}
	response.OK(c, answer)
}

func (h *RAGHandler) Info(c *gin.Context) {
	response.OK(c, h.app.Engine.Info())
}

func (h *RAGHandler) Reload(c *gin.Context) {
	if err := h.app.Engine.Reload(c.Request.Context()); err != nil {
		h.app.Logger.Warn("engine reload failed", "err", err)
		response.FromError(c, err)
		return
	}
	response.OK(c, h.app.Engine.Info())
}
