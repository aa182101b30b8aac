package app

import (
	"github.com/yungbote/sheetgrader-backend/internal/handlers"
	"github.com/yungbote/sheetgrader-backend/internal/logger"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Evaluation *handlers.EvaluationHandler
	Score      *handlers.ScoreHandler
	Recency    *handlers.RecencyHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:       handlers.NewAuthHandler(log, services.Auth),
		Evaluation: handlers.NewEvaluationHandler(log, services.Evaluation),
		Score:      handlers.NewScoreHandler(log, services.Score),
		Recency:    handlers.NewRecencyHandler(log, services.Recency),
	}
}
