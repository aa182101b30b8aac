package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/repos"
	"github.com/yungbote/sheetgrader-backend/internal/types"
)

// ErrCourseNotFound is returned when a course code resolves to nothing.
var ErrCourseNotFound = errors.New("course not found")

const (
	CourseCreated      = "created"
	CourseLinked       = "linked"
	CourseNameMismatch = "name_mismatch"
)

// CourseRegistration is the outcome of registerOrLink. On a name mismatch
// ExistingName carries the name already on record; nothing is created,
// renamed, or linked.
type CourseRegistration struct {
	Outcome      string        `json:"outcome"`
	Course       *types.Course `json:"course,omitempty"`
	ExistingName string        `json:"existing_name,omitempty"`
}

type CourseService interface {
	RegisterOrLink(ctx context.Context, code, name, teacherNaturalID string) (*CourseRegistration, error)
	GetByCode(ctx context.Context, code string) (*types.Course, error)
}

type courseService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo repos.CourseRepo
}

func NewCourseService(db *gorm.DB, baseLog *logger.Logger, courseRepo repos.CourseRepo) CourseService {
	serviceLog := baseLog.With("service", "CourseService")
	return &courseService{db: db, log: serviceLog, courseRepo: courseRepo}
}

func (cs *courseService) RegisterOrLink(ctx context.Context, code, name, teacherNaturalID string) (*CourseRegistration, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return nil, fmt.Errorf("course code and name required")
	}

	existing, err := cs.courseRepo.GetByCodes(ctx, nil, []string{code})
	if err != nil {
		return nil, fmt.Errorf("lookup course %q: %w", code, err)
	}
	if len(existing) > 0 && existing[0] != nil {
		course := existing[0]
		if course.Name != name {
			cs.log.Warn("Course name mismatch",
				"code", code,
				"supplied_name", name,
				"existing_name", course.Name,
				"teacher", teacherNaturalID,
			)
			return &CourseRegistration{
				Outcome:      CourseNameMismatch,
				ExistingName: course.Name,
			}, nil
		}
		return &CourseRegistration{Outcome: CourseLinked, Course: course}, nil
	}

	created, err := cs.courseRepo.Create(ctx, nil, []*types.Course{{Code: code, Name: name}})
	if err != nil {
		// Lost a creation race: re-read and re-evaluate against the winner.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			again, rErr := cs.courseRepo.GetByCodes(ctx, nil, []string{code})
			if rErr == nil && len(again) > 0 && again[0] != nil {
				if again[0].Name != name {
					return &CourseRegistration{Outcome: CourseNameMismatch, ExistingName: again[0].Name}, nil
				}
				return &CourseRegistration{Outcome: CourseLinked, Course: again[0]}, nil
			}
		}
		return nil, fmt.Errorf("create course %q: %w", code, err)
	}
	cs.log.Info("Course registered", "code", code, "teacher", teacherNaturalID)
	return &CourseRegistration{Outcome: CourseCreated, Course: created[0]}, nil
}

func (cs *courseService) GetByCode(ctx context.Context, code string) (*types.Course, error) {
	courses, err := cs.courseRepo.GetByCodes(ctx, nil, []string{strings.TrimSpace(code)})
	if err != nil {
		return nil, fmt.Errorf("lookup course %q: %w", code, err)
	}
	if len(courses) == 0 || courses[0] == nil {
		return nil, ErrCourseNotFound
	}
	return courses[0], nil
}
