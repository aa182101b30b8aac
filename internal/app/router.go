package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/sheetgrader-backend/internal/server"
)

func wireRouter(handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthHandler:       handlers.Auth,
		AuthMiddleware:    middleware.Auth,
		EvaluationHandler: handlers.Evaluation,
		ScoreHandler:      handlers.Score,
		RecencyHandler:    handlers.Recency,
	})
}
