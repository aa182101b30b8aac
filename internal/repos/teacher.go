package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/types"
)

type TeacherRepo interface {
	Create(ctx context.Context, tx *gorm.DB, teachers []*types.Teacher) ([]*types.Teacher, error)
	GetByNaturalIDs(ctx context.Context, tx *gorm.DB, naturalIDs []string) ([]*types.Teacher, error)
	GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.Teacher, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	NaturalIDExists(ctx context.Context, tx *gorm.DB, naturalID string) (bool, error)
	AttachExternalIDRef(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID, ref string) error
}

type teacherRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTeacherRepo(db *gorm.DB, baseLog *logger.Logger) TeacherRepo {
	repoLog := baseLog.With("repo", "TeacherRepo")
	return &teacherRepo{db: db, log: repoLog}
}

func (tr *teacherRepo) Create(ctx context.Context, tx *gorm.DB, teachers []*types.Teacher) ([]*types.Teacher, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(teachers) == 0 {
		return []*types.Teacher{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&teachers).Error; err != nil {
		return nil, err
	}
	return teachers, nil
}

func (tr *teacherRepo) GetByNaturalIDs(ctx context.Context, tx *gorm.DB, naturalIDs []string) ([]*types.Teacher, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Teacher
	if len(naturalIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("natural_id IN ?", naturalIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *teacherRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.Teacher, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Teacher
	if len(emails) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("email IN ?", emails).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *teacherRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Teacher{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (tr *teacherRepo) NaturalIDExists(ctx context.Context, tx *gorm.DB, naturalID string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Teacher{}).
		Where("natural_id = ?", naturalID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (tr *teacherRepo) AttachExternalIDRef(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID, ref string) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	// Attach-once: only rows without a ref are eligible.
	return transaction.WithContext(ctx).
		Model(&types.Teacher{}).
		Where("id = ? AND (external_id_ref IS NULL OR external_id_ref = '')", teacherID).
		Update("external_id_ref", ref).Error
}
