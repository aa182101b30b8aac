package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/repos"
	"github.com/yungbote/sheetgrader-backend/internal/types"
)

var (
	// ErrTeacherNotFound is returned when the grading teacher id does not
	// resolve. It is checked on the insert path only: a conflict must be
	// reported even under an unresolved teacher id.
	ErrTeacherNotFound = errors.New("teacher not found")
	// ErrScoreNotFound is returned by Update when the pair has no score.
	ErrScoreNotFound = errors.New("score not found")
)

// Submission outcomes. A conflict is a first-class outcome, not an error:
// the caller must decide between re-evaluation and re-keying.
const (
	ScoreOutcomeCreated  = "created"
	ScoreOutcomeConflict = "conflict"
	ScoreOutcomeUpdated  = "updated"
)

// ScoreSubmission is the final snapshot of an evaluation.
type ScoreSubmission struct {
	StudentID               string               `json:"student_id"`
	CourseCode              string               `json:"course_code"`
	TotalMarks              float64              `json:"total_marks"`
	MaxMarks                float64              `json:"max_marks"`
	Percentage              float64              `json:"percentage"`
	Feedback                []types.FeedbackItem `json:"feedback"`
	SheetURL                string               `json:"sheet_url"`
	GradingTeacherNaturalID string               `json:"grading_teacher_natural_id"`
}

// ExistingMarks is what a conflict reveals about the persisted row.
type ExistingMarks struct {
	TotalMarks float64 `json:"total_marks"`
	MaxMarks   float64 `json:"max_marks"`
	Percentage float64 `json:"percentage"`
}

// SubmitResult is the tagged result of the reconciliation protocol.
type SubmitResult struct {
	Outcome  string         `json:"outcome"`
	Score    *types.Score   `json:"score,omitempty"`
	Existing *ExistingMarks `json:"existing,omitempty"`
}

// ScoreService is the reconciliation protocol over the score store: at most
// one authoritative score per (student, course) pair, with Update as the
// only mutation path.
type ScoreService interface {
	Submit(ctx context.Context, sub ScoreSubmission) (*SubmitResult, error)
	Update(ctx context.Context, sub ScoreSubmission) (*types.Score, error)
	Find(ctx context.Context, studentID, courseCode string) (*types.Score, error)
}

type scoreService struct {
	db          *gorm.DB
	log         *logger.Logger
	scoreRepo   repos.ScoreRepo
	teacherRepo repos.TeacherRepo
	courses     CourseService
}

func NewScoreService(
	db *gorm.DB,
	baseLog *logger.Logger,
	scoreRepo repos.ScoreRepo,
	teacherRepo repos.TeacherRepo,
	courses CourseService,
) ScoreService {
	serviceLog := baseLog.With("service", "ScoreService")
	return &scoreService{
		db:          db,
		log:         serviceLog,
		scoreRepo:   scoreRepo,
		teacherRepo: teacherRepo,
		courses:     courses,
	}
}

func (ss *scoreService) Submit(ctx context.Context, sub ScoreSubmission) (*SubmitResult, error) {
	if sub.StudentID == "" || sub.CourseCode == "" {
		return nil, fmt.Errorf("student id and course code required")
	}

	course, err := ss.courses.GetByCode(ctx, sub.CourseCode)
	if err != nil {
		return nil, err
	}

	existing, err := ss.scoreRepo.GetByStudentCourse(ctx, nil, sub.StudentID, course.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup score: %w", err)
	}
	if existing != nil {
		return conflictResult(existing), nil
	}

	teachers, err := ss.teacherRepo.GetByNaturalIDs(ctx, nil, []string{sub.GradingTeacherNaturalID})
	if err != nil {
		return nil, fmt.Errorf("lookup teacher: %w", err)
	}
	if len(teachers) == 0 || teachers[0] == nil {
		return nil, ErrTeacherNotFound
	}

	feedback, err := json.Marshal(sub.Feedback)
	if err != nil {
		return nil, fmt.Errorf("encode feedback: %w", err)
	}

	row := &types.Score{
		StudentID:               sub.StudentID,
		CourseID:                course.ID,
		TotalMarks:              sub.TotalMarks,
		MaxMarks:                sub.MaxMarks,
		Percentage:              sub.Percentage,
		Feedback:                datatypes.JSON(feedback),
		SheetURL:                sub.SheetURL,
		GradingTeacherNaturalID: sub.GradingTeacherNaturalID,
	}
	created, err := ss.scoreRepo.Create(ctx, nil, []*types.Score{row})
	if err != nil {
		// Lost the check-then-insert race: the unique constraint on
		// (student_id, course_id) held, so report the winner's row as a
		// conflict instead of failing.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			winner, rErr := ss.scoreRepo.GetByStudentCourse(ctx, nil, sub.StudentID, course.ID)
			if rErr == nil && winner != nil {
				return conflictResult(winner), nil
			}
		}
		return nil, fmt.Errorf("insert score: %w", err)
	}

	ss.log.Info("Score created",
		"student", sub.StudentID,
		"course", sub.CourseCode,
		"total", sub.TotalMarks,
		"max", sub.MaxMarks,
	)
	return &SubmitResult{Outcome: ScoreOutcomeCreated, Score: created[0]}, nil
}

func (ss *scoreService) Update(ctx context.Context, sub ScoreSubmission) (*types.Score, error) {
	if sub.StudentID == "" || sub.CourseCode == "" {
		return nil, fmt.Errorf("student id and course code required")
	}

	course, err := ss.courses.GetByCode(ctx, sub.CourseCode)
	if err != nil {
		return nil, err
	}

	existing, err := ss.scoreRepo.GetByStudentCourse(ctx, nil, sub.StudentID, course.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup score: %w", err)
	}
	if existing == nil {
		return nil, ErrScoreNotFound
	}

	feedback, err := json.Marshal(sub.Feedback)
	if err != nil {
		return nil, fmt.Errorf("encode feedback: %w", err)
	}

	patch := repos.ScorePatch{
		TotalMarks: sub.TotalMarks,
		MaxMarks:   sub.MaxMarks,
		Percentage: sub.Percentage,
		Feedback:   datatypes.JSON(feedback),
		SheetURL:   sub.SheetURL,
	}
	if err := ss.scoreRepo.UpdateMarks(ctx, nil, existing.ID, patch); err != nil {
		return nil, fmt.Errorf("update score: %w", err)
	}

	updated, err := ss.scoreRepo.GetByStudentCourse(ctx, nil, sub.StudentID, course.ID)
	if err != nil {
		return nil, fmt.Errorf("reload score: %w", err)
	}
	ss.log.Info("Score updated",
		"student", sub.StudentID,
		"course", sub.CourseCode,
		"total", sub.TotalMarks,
		"max", sub.MaxMarks,
	)
	return updated, nil
}

func (ss *scoreService) Find(ctx context.Context, studentID, courseCode string) (*types.Score, error) {
	course, err := ss.courses.GetByCode(ctx, courseCode)
	if err != nil {
		return nil, err
	}
	score, err := ss.scoreRepo.GetByStudentCourse(ctx, nil, studentID, course.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup score: %w", err)
	}
	if score == nil {
		return nil, ErrScoreNotFound
	}
	return score, nil
}

func conflictResult(existing *types.Score) *SubmitResult {
	return &SubmitResult{
		Outcome: ScoreOutcomeConflict,
		Existing: &ExistingMarks{
			TotalMarks: existing.TotalMarks,
			MaxMarks:   existing.MaxMarks,
			Percentage: existing.Percentage,
		},
	}
}
