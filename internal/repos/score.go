package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/types"
)

// ScorePatch carries the mutable fields of a score row. Identity
// (student_id, course_id) is never part of a patch.
type ScorePatch struct {
	TotalMarks float64
	MaxMarks   float64
	Percentage float64
	Feedback   datatypes.JSON
	SheetURL   string
}

type ScoreRepo interface {
	Create(ctx context.Context, tx *gorm.DB, scores []*types.Score) ([]*types.Score, error)
	GetByStudentCourse(ctx context.Context, tx *gorm.DB, studentID string, courseID uuid.UUID) (*types.Score, error)
	UpdateMarks(ctx context.Context, tx *gorm.DB, scoreID uuid.UUID, patch ScorePatch) error
}

type scoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScoreRepo(db *gorm.DB, baseLog *logger.Logger) ScoreRepo {
	repoLog := baseLog.With("repo", "ScoreRepo")
	return &scoreRepo{db: db, log: repoLog}
}

func (sr *scoreRepo) Create(ctx context.Context, tx *gorm.DB, scores []*types.Score) ([]*types.Score, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if len(scores) == 0 {
		return []*types.Score{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

// GetByStudentCourse returns nil (no error) when the pair has no score yet.
func (sr *scoreRepo) GetByStudentCourse(ctx context.Context, tx *gorm.DB, studentID string, courseID uuid.UUID) (*types.Score, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var result types.Score
	err := transaction.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (sr *scoreRepo) UpdateMarks(ctx context.Context, tx *gorm.DB, scoreID uuid.UUID, patch ScorePatch) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Score{}).
		Where("id = ?", scoreID).
		Updates(map[string]interface{}{
			"total_marks": patch.TotalMarks,
			"max_marks":   patch.MaxMarks,
			"percentage":  patch.Percentage,
			"feedback":    patch.Feedback,
			"sheet_url":   patch.SheetURL,
		}).Error
}
