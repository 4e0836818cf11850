package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-rag/internal/ragerr"
)

const (
	CodeOK               = 0
	CodeBadRequest       = 40000
	CodeUnauthorized     = 40100
	CodeModelCredential  = 40101
	CodeForbidden        = 40300
	CodeSessionNotFound  = 40401
	CodeIndexNotFound    = 40402
	CodeEmbedderMismatch = 40901
	CodeDocumentRead     = 42201
	CodeInternalServer   = 50000
	CodeEmbedding        = 50201
	CodeGeneration       = 50202
	CodeUnavailable      = 50300
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Hint    string      `json:"hint,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// FromError maps a pipeline error onto a status, a code and a remediation hint.
func FromError(c *gin.Context, err error) {
	status, code := classify(err)
	c.JSON(status, APIResponse{
		Code:    code,
		Message: err.Error(),
		Hint:    ragerr.Remediation(err),
	})
}

func classify(err error) (int, int) {
	switch {
	case errors.Is(err, ragerr.ErrInvalidInput):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, ragerr.ErrAuthentication):
		return http.StatusUnauthorized, CodeModelCredential
	case errors.Is(err, ragerr.ErrIndexNotFound):
		return http.StatusNotFound, CodeIndexNotFound
	case errors.Is(err, ragerr.ErrEmbedderMismatch):
		return http.StatusConflict, CodeEmbedderMismatch
	case errors.Is(err, ragerr.ErrDocumentRead):
		return http.StatusUnprocessableEntity, CodeDocumentRead
	case errors.Is(err, ragerr.ErrEmbedding):
		return http.StatusBadGateway, CodeEmbedding
	case errors.Is(err, ragerr.ErrGeneration):
		return http.StatusBadGateway, CodeGeneration
	default:
		return http.StatusInternalServerError, CodeInternalServer
	}
}
