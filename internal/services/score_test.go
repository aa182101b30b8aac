package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/sheetgrader-backend/internal/types"
)

type scoreFixture struct {
	svc      ScoreService
	scores   *fakeScoreRepo
	teachers *fakeTeacherRepo
	courses  *fakeCourseRepo
	course   *types.Course
}

func newScoreFixture(t *testing.T) *scoreFixture {
	t.Helper()
	log := newTestLogger(t)
	scores := &fakeScoreRepo{}
	teachers := &fakeTeacherRepo{}
	courses := newFakeCourseRepo()
	course := courses.seed("MATH101", "Algebra I")
	teachers.seed("t1", "t1@school.test")
	courseSvc := NewCourseService(nil, log, courses)
	return &scoreFixture{
		svc:      NewScoreService(nil, log, scores, teachers, courseSvc),
		scores:   scores,
		teachers: teachers,
		courses:  courses,
		course:   course,
	}
}

func submission(student string) ScoreSubmission {
	return ScoreSubmission{
		StudentID:               student,
		CourseCode:              "MATH101",
		TotalMarks:              6,
		MaxMarks:                9,
		Percentage:              66.67,
		Feedback:                []types.FeedbackItem{{Question: 1, Received: 2, Total: 3, Reason: "ok"}},
		SheetURL:                "https://cdn.test/sheets/s1.jpg",
		GradingTeacherNaturalID: "t1",
	}
}

func TestSubmitCreates(t *testing.T) {
	fx := newScoreFixture(t)

	result, err := fx.svc.Submit(context.Background(), submission("S1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Outcome != ScoreOutcomeCreated {
		t.Fatalf("outcome = %s, want %s", result.Outcome, ScoreOutcomeCreated)
	}
	if result.Score == nil || result.Score.TotalMarks != 6 || result.Score.MaxMarks != 9 {
		t.Fatalf("unexpected score: %+v", result.Score)
	}

	row, err := fx.scores.GetByStudentCourse(context.Background(), nil, "S1", fx.course.ID)
	if err != nil || row == nil {
		t.Fatalf("row not persisted: %v %v", row, err)
	}
	if row.Percentage != 66.67 || row.GradingTeacherNaturalID != "t1" {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestSubmitConflictSurfacesExistingMarks(t *testing.T) {
	fx := newScoreFixture(t)
	fx.scores.insert(&types.Score{
		StudentID:  "S1",
		CourseID:   fx.course.ID,
		TotalMarks: 7,
		MaxMarks:   10,
		Percentage: 70,
	})

	result, err := fx.svc.Submit(context.Background(), submission("S1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Outcome != ScoreOutcomeConflict {
		t.Fatalf("outcome = %s, want %s", result.Outcome, ScoreOutcomeConflict)
	}
	if result.Existing == nil ||
		result.Existing.TotalMarks != 7 ||
		result.Existing.MaxMarks != 10 ||
		result.Existing.Percentage != 70 {
		t.Fatalf("existing marks = %+v, want 7/10 (70%%)", result.Existing)
	}
}

func TestSubmitUnknownCourse(t *testing.T) {
	fx := newScoreFixture(t)
	sub := submission("S1")
	sub.CourseCode = "NOPE"
	if _, err := fx.svc.Submit(context.Background(), sub); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("err = %v, want ErrCourseNotFound", err)
	}
}

func TestSubmitUnknownTeacher(t *testing.T) {
	fx := newScoreFixture(t)
	sub := submission("S1")
	sub.GradingTeacherNaturalID = "ghost"
	if _, err := fx.svc.Submit(context.Background(), sub); !errors.Is(err, ErrTeacherNotFound) {
		t.Fatalf("err = %v, want ErrTeacherNotFound", err)
	}
}

// A conflict must be reported even when the grading teacher id would not
// resolve: the uniqueness check comes first.
func TestSubmitConflictBeforeTeacherCheck(t *testing.T) {
	fx := newScoreFixture(t)
	fx.scores.insert(&types.Score{
		StudentID:  "S1",
		CourseID:   fx.course.ID,
		TotalMarks: 7,
		MaxMarks:   10,
		Percentage: 70,
	})

	sub := submission("S1")
	sub.GradingTeacherNaturalID = "ghost"
	result, err := fx.svc.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Outcome != ScoreOutcomeConflict {
		t.Fatalf("outcome = %s, want %s", result.Outcome, ScoreOutcomeConflict)
	}
}

// Losing the check-then-insert race maps onto the same conflict outcome as
// finding the row up front.
func TestSubmitLostInsertRace(t *testing.T) {
	fx := newScoreFixture(t)
	fx.scores.createHook = func() {
		fx.scores.createHook = nil
		fx.scores.insert(&types.Score{
			StudentID:  "S1",
			CourseID:   fx.course.ID,
			TotalMarks: 5,
			MaxMarks:   10,
			Percentage: 50,
		})
	}

	result, err := fx.svc.Submit(context.Background(), submission("S1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Outcome != ScoreOutcomeConflict {
		t.Fatalf("outcome = %s, want %s", result.Outcome, ScoreOutcomeConflict)
	}
	if result.Existing == nil || result.Existing.TotalMarks != 5 {
		t.Fatalf("existing marks = %+v, want the winner's 5/10", result.Existing)
	}
}

func TestUpdateReplacesMarks(t *testing.T) {
	fx := newScoreFixture(t)
	fx.scores.insert(&types.Score{
		StudentID:  "S1",
		CourseID:   fx.course.ID,
		TotalMarks: 7,
		MaxMarks:   10,
		Percentage: 70,
	})

	updated, err := fx.svc.Update(context.Background(), submission("S1"))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.TotalMarks != 6 || updated.MaxMarks != 9 || updated.Percentage != 66.67 {
		t.Fatalf("updated = %+v, want 6/9 (66.67%%)", updated)
	}
	// Identity is untouched by an update.
	if updated.StudentID != "S1" || updated.CourseID != fx.course.ID {
		t.Fatalf("identity changed: %+v", updated)
	}
}

func TestUpdateRequiresExistingScore(t *testing.T) {
	fx := newScoreFixture(t)
	if _, err := fx.svc.Update(context.Background(), submission("S1")); !errors.Is(err, ErrScoreNotFound) {
		t.Fatalf("err = %v, want ErrScoreNotFound", err)
	}
}

// After re-keying to a different student the original row must survive and
// the new one be created alongside it.
func TestSubmitAfterRekeyLeavesWinnerIntact(t *testing.T) {
	fx := newScoreFixture(t)
	fx.scores.insert(&types.Score{
		StudentID:  "S1",
		CourseID:   fx.course.ID,
		TotalMarks: 7,
		MaxMarks:   10,
		Percentage: 70,
	})

	result, err := fx.svc.Submit(context.Background(), submission("S2"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Outcome != ScoreOutcomeCreated {
		t.Fatalf("outcome = %s, want %s", result.Outcome, ScoreOutcomeCreated)
	}

	original, _ := fx.scores.GetByStudentCourse(context.Background(), nil, "S1", fx.course.ID)
	if original == nil || original.TotalMarks != 7 {
		t.Fatalf("original row mutated: %+v", original)
	}
}

func TestFind(t *testing.T) {
	fx := newScoreFixture(t)
	fx.scores.insert(&types.Score{
		StudentID:  "S1",
		CourseID:   fx.course.ID,
		TotalMarks: 7,
		MaxMarks:   10,
		Percentage: 70,
	})

	score, err := fx.svc.Find(context.Background(), "S1", "MATH101")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if score.TotalMarks != 7 {
		t.Fatalf("score = %+v, want 7/10", score)
	}

	if _, err := fx.svc.Find(context.Background(), "S9", "MATH101"); !errors.Is(err, ErrScoreNotFound) {
		t.Fatalf("err = %v, want ErrScoreNotFound", err)
	}
}
