package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-rag/internal/app"
	"gopherai-rag/internal/bootstrap"
	"gopherai-rag/internal/model"
	"gopherai-rag/internal/pkg/jwtutil"
	"gopherai-rag/internal/ragerr"
	"gopherai-rag/internal/transport/http/middleware"
	"gopherai-rag/internal/transport/http/response"
	"gopherai-rag/internal/vectorindex"
)

type ChatHandler struct {
	app *bootstrap.App
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}

type SendMessageResponse struct {
	Messages []model.Turn      `json:"messages"`
	Sources  []vectorindex.Hit `json:"sources"`
	State    app.ShellState    `json:"state"`
}

func NewChatHandler(app *bootstrap.App) *ChatHandler {
	return &ChatHandler{app: app}
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	id, _ := h.app.Sessions.Create()
	token, err := jwtutil.GenerateToken(h.app.Config.Auth.JWTSecret, h.app.Config.JWTExpiration(), id)
	if err != nil {
		_ = h.app.Sessions.Delete(id)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "issue session token failed")
		return
	}
	response.OK(c, CreateSessionResponse{SessionID: id, Token: token})
}

// SendMessage runs one full turn. Engine failures are part of the transcript,
// so they still answer 200.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	shell, ok := h.shell(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if _, err := shell.Exchange(c.Request.Context(), req.Content); err != nil {
		switch {
		case errors.Is(err, ragerr.ErrInvalidInput):
			response.FromError(c, err)
			return
		case errors.Is(err, app.ErrShellState):
			response.Error(c, http.StatusConflict, response.CodeBadRequest, "a message is already being processed")
			return
		default:
			h.app.Logger.Warn("chat turn failed", "err", err)
		}
	}

	response.OK(c, SendMessageResponse{
		Messages: shell.Transcript(),
		Sources:  shell.LastSources(),
		State:    shell.State(),
	})
}

func (h *ChatHandler) Transcript(c *gin.Context) {
	shell, ok := h.shell(c)
	if !ok {
		return
	}
	response.OK(c, gin.H{
		"messages": shell.Transcript(),
		"state":    shell.State(),
	})
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
	id := c.GetString(middleware.ContextSessionIDKey)
	if err := h.app.Sessions.Delete(id); err != nil {
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		return
	}
	response.OK(c, gin.H{"deleted_session_id": id})
}

func (h *ChatHandler) shell(c *gin.Context) (*app.ChatShell, bool) {
	id := c.GetString(middleware.ContextSessionIDKey)
	shell, err := h.app.Sessions.Get(id)
	if err != nil {
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		return nil, false
	}
	return shell, true
}
