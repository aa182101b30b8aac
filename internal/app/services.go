package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/services"
)

type Services struct {
	Auth services.AuthService

	Bucket      services.BucketService
	OpenAI      services.OpenAIClient
	Transcriber services.TranscriptionService
	Grader      services.GradingService

	Course  services.CourseService
	Score   services.ScoreService
	Recency services.RecencyCacheService

	Evaluation services.EvaluationService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	bucketService, err := services.NewBucketService(log)
	if err != nil {
		return Services{}, err
	}
	openaiClient, err := services.NewOpenAIClient(log)
	if err != nil {
		return Services{}, err
	}
	transcriber, err := services.NewVisionTranscriptionService(log)
	if err != nil {
		return Services{}, err
	}
	grader := services.NewGradingService(log, openaiClient, transcriber)

	authService := services.NewAuthService(db, log, reposet.Teacher, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	courseService := services.NewCourseService(db, log, reposet.Course)
	scoreService := services.NewScoreService(db, log, reposet.Score, reposet.Teacher, courseService)
	recencyService := services.NewRecencyCacheService(log, clients.Redis)

	evaluationService := services.NewEvaluationService(
		log,
		bucketService,
		transcriber,
		grader,
		courseService,
		scoreService,
		recencyService,
	)

	return Services{
		Auth:        authService,
		Bucket:      bucketService,
		OpenAI:      openaiClient,
		Transcriber: transcriber,
		Grader:      grader,
		Course:      courseService,
		Score:       scoreService,
		Recency:     recencyService,
		Evaluation:  evaluationService,
	}, nil
}
