package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/sheetgrader-backend/internal/handlers"
	"github.com/yungbote/sheetgrader-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler       *handlers.AuthHandler
	AuthMiddleware    *middleware.AuthMiddleware
	EvaluationHandler *handlers.EvaluationHandler
	ScoreHandler      *handlers.ScoreHandler
	RecencyHandler    *handlers.RecencyHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/login/external", cfg.AuthHandler.LoginExternal)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Evaluation sessions
	protected.POST("/evaluations", cfg.EvaluationHandler.Start)
	protected.GET("/evaluations/:id", cfg.EvaluationHandler.Get)
	protected.POST("/evaluations/:id/identify", cfg.EvaluationHandler.Identify)
	protected.POST("/evaluations/:id/verify-course", cfg.EvaluationHandler.VerifyCourse)
	protected.POST("/evaluations/:id/sheet", cfg.EvaluationHandler.UploadSheet)
	protected.POST("/evaluations/:id/transcribe", cfg.EvaluationHandler.Transcribe)
	protected.POST("/evaluations/:id/review-ack", cfg.EvaluationHandler.AcknowledgeReview)
	protected.POST("/evaluations/:id/key", cfg.EvaluationHandler.ProvideKey)
	protected.POST("/evaluations/:id/grade", cfg.EvaluationHandler.Grade)
	protected.PUT("/evaluations/:id/items/:question", cfg.EvaluationHandler.OverrideItem)
	protected.POST("/evaluations/:id/next", cfg.EvaluationHandler.Next)
	protected.POST("/evaluations/:id/back", cfg.EvaluationHandler.Back)
	protected.POST("/evaluations/:id/submit", cfg.EvaluationHandler.Submit)
	protected.POST("/evaluations/:id/resolve", cfg.EvaluationHandler.Resolve)
	// Answer keys
	protected.GET("/answer-keys/recent", cfg.RecencyHandler.RecentKeys)
	// Scores
	protected.POST("/scores", cfg.ScoreHandler.Submit)
	protected.PUT("/scores", cfg.ScoreHandler.Update)
	protected.GET("/scores", cfg.ScoreHandler.Get)

	return router
}
