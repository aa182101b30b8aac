package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/repos"
)

type Repos struct {
	Teacher repos.TeacherRepo
	Course  repos.CourseRepo
	Score   repos.ScoreRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Teacher: repos.NewTeacherRepo(db, log),
		Course:  repos.NewCourseRepo(db, log),
		Score:   repos.NewScoreRepo(db, log),
	}
}
