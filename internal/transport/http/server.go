package http

import (
	"path/filepath"

	"github.com/gin-gonic/gin"

	"gopherai-rag/internal/bootstrap"
	"gopherai-rag/internal/transport/http/handler"
	"gopherai-rag/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	ragHandler := handler.NewRAGHandler(app)
	chatHandler := handler.NewChatHandler(app)
	indexHandler := handler.NewIndexHandler(app)

	router.StaticFile("/", filepath.Join(app.Config.App.WebDir, "chat.html"))
	router.GET("/healthz", healthHandler.Check)

	v1 := router.Group("/api/v1")
	v1.GET("/info", ragHandler.Info)
	v1.POST("/ask", ragHandler.Ask)
	v1.POST("/chat/sessions", chatHandler.CreateSession)

	adminGroup := v1.Group("")
	adminGroup.Use(middleware.AuthAdmin(app.Config.Auth.AdminToken))
	adminGroup.POST("/engine/reload", ragHandler.Reload)
	adminGroup.POST("/index/jobs", indexHandler.CreateJob)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(middleware.AuthSession(app.Config.Auth.JWTSecret))
	chatGroup.POST("/messages", chatHandler.SendMessage)
	chatGroup.GET("/transcript", chatHandler.Transcript)
	chatGroup.DELETE("/sessions", chatHandler.DeleteSession)

	return router
}
