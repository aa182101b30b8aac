package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/repos"
	"github.com/yungbote/sheetgrader-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// ---- repo fakes ----

type fakeCourseRepo struct {
	mu     sync.Mutex
	byCode map[string]*types.Course
	// createHook runs at the top of Create, before the duplicate check.
	createHook func()
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{byCode: make(map[string]*types.Course)}
}

func (f *fakeCourseRepo) Create(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.Course, error) {
	if f.createHook != nil {
		f.createHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range courses {
		if _, ok := f.byCode[c.Code]; ok {
			return nil, gorm.ErrDuplicatedKey
		}
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		cp := *c
		f.byCode[c.Code] = &cp
	}
	return courses, nil
}

func (f *fakeCourseRepo) GetByCodes(ctx context.Context, tx *gorm.DB, codes []string) ([]*types.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Course
	for _, code := range codes {
		if c, ok := f.byCode[code]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeCourseRepo) seed(code, name string) *types.Course {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &types.Course{ID: uuid.New(), Code: code, Name: name}
	f.byCode[code] = c
	return c
}

type fakeTeacherRepo struct {
	mu       sync.Mutex
	teachers []*types.Teacher
}

func (f *fakeTeacherRepo) seed(naturalID, email string) *types.Teacher {
	f.mu.Lock()
	defer f.mu.Unlock()
	tc := &types.Teacher{ID: uuid.New(), NaturalID: naturalID, Email: email}
	f.teachers = append(f.teachers, tc)
	return tc
}

func (f *fakeTeacherRepo) Create(ctx context.Context, tx *gorm.DB, teachers []*types.Teacher) ([]*types.Teacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tc := range teachers {
		if tc.ID == uuid.Nil {
			tc.ID = uuid.New()
		}
		cp := *tc
		f.teachers = append(f.teachers, &cp)
	}
	return teachers, nil
}

func (f *fakeTeacherRepo) GetByNaturalIDs(ctx context.Context, tx *gorm.DB, naturalIDs []string) ([]*types.Teacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Teacher
	for _, id := range naturalIDs {
		for _, tc := range f.teachers {
			if tc.NaturalID == id {
				cp := *tc
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

func (f *fakeTeacherRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.Teacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Teacher
	for _, email := range emails {
		for _, tc := range f.teachers {
			if tc.Email == email {
				cp := *tc
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

func (f *fakeTeacherRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	found, err := f.GetByEmails(ctx, tx, []string{email})
	return len(found) > 0, err
}

func (f *fakeTeacherRepo) NaturalIDExists(ctx context.Context, tx *gorm.DB, naturalID string) (bool, error) {
	found, err := f.GetByNaturalIDs(ctx, tx, []string{naturalID})
	return len(found) > 0, err
}

func (f *fakeTeacherRepo) AttachExternalIDRef(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tc := range f.teachers {
		if tc.ID == teacherID && tc.ExternalIDRef == "" {
			tc.ExternalIDRef = ref
		}
	}
	return nil
}

type fakeScoreRepo struct {
	mu   sync.Mutex
	rows []*types.Score
	// createHook runs at the top of Create, before the duplicate check, so
	// tests can slip a winning row in between check and insert.
	createHook func()
}

func (f *fakeScoreRepo) insert(row *types.Score) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.rows = append(f.rows, row)
}

func (f *fakeScoreRepo) Create(ctx context.Context, tx *gorm.DB, scores []*types.Score) ([]*types.Score, error) {
	if f.createHook != nil {
		f.createHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range scores {
		for _, existing := range f.rows {
			if existing.StudentID == s.StudentID && existing.CourseID == s.CourseID {
				return nil, gorm.ErrDuplicatedKey
			}
		}
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		cp := *s
		f.rows = append(f.rows, &cp)
	}
	return scores, nil
}

func (f *fakeScoreRepo) GetByStudentCourse(ctx context.Context, tx *gorm.DB, studentID string, courseID uuid.UUID) (*types.Score, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.StudentID == studentID && s.CourseID == courseID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeScoreRepo) UpdateMarks(ctx context.Context, tx *gorm.DB, scoreID uuid.UUID, patch repos.ScorePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.ID == scoreID {
			s.TotalMarks = patch.TotalMarks
			s.MaxMarks = patch.MaxMarks
			s.Percentage = patch.Percentage
			s.Feedback = patch.Feedback
			s.SheetURL = patch.SheetURL
			return nil
		}
	}
	return fmt.Errorf("no score %s", scoreID)
}

// ---- service fakes for the pipeline ----

type fakeBucket struct {
	mu      sync.Mutex
	uploads []string
	err     error
}

func (f *fakeBucket) UploadFile(ctx context.Context, key string, file io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, key)
	return "https://cdn.test/" + key, nil
}

func (f *fakeBucket) DeleteFile(ctx context.Context, key string) error { return nil }
func (f *fakeBucket) GetPublicURL(key string) string                   { return "https://cdn.test/" + key }

type fakeTranscriber struct {
	items []types.TranscribedItem
	text  string
	err   error
	calls int
	// hook runs in the middle of Transcribe, while the session is busy.
	hook func()
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, sheetURL string) ([]types.TranscribedItem, error) {
	f.calls++
	if f.hook != nil {
		f.hook()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func (f *fakeTranscriber) ExtractText(ctx context.Context, sheetURL string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeTranscriber) Close() error { return nil }

type fakeGrader struct {
	key        []types.AnswerKeyItem
	keyErr     error
	parseCalls int

	feedback   []types.FeedbackItem
	gradeErr   error
	gradeCalls int
}

func (f *fakeGrader) ParseKey(ctx context.Context, keyURL string) ([]types.AnswerKeyItem, error) {
	f.parseCalls++
	if f.keyErr != nil {
		return nil, f.keyErr
	}
	return f.key, nil
}

func (f *fakeGrader) Grade(ctx context.Context, answers []types.TranscribedItem, key []types.AnswerKeyItem) ([]types.FeedbackItem, error) {
	f.gradeCalls++
	if f.gradeErr != nil {
		return nil, f.gradeErr
	}
	out := make([]types.FeedbackItem, len(f.feedback))
	copy(out, f.feedback)
	return out, nil
}

type fakeCourses struct {
	registration *CourseRegistration
	regErr       error
	course       *types.Course
}

func (f *fakeCourses) RegisterOrLink(ctx context.Context, code, name, teacherNaturalID string) (*CourseRegistration, error) {
	if f.regErr != nil {
		return nil, f.regErr
	}
	return f.registration, nil
}

func (f *fakeCourses) GetByCode(ctx context.Context, code string) (*types.Course, error) {
	if f.course == nil {
		return nil, ErrCourseNotFound
	}
	return f.course, nil
}

type fakeScores struct {
	mu          sync.Mutex
	results     []*SubmitResult
	submitErr   error
	submissions []ScoreSubmission

	updated   *types.Score
	updateErr error
}

func (f *fakeScores) Submit(ctx context.Context, sub ScoreSubmission) (*SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, sub)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	if len(f.results) == 0 {
		return &SubmitResult{Outcome: ScoreOutcomeCreated, Score: &types.Score{}}, nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r, nil
}

func (f *fakeScores) Update(ctx context.Context, sub ScoreSubmission) (*types.Score, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, sub)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updated == nil {
		return &types.Score{}, nil
	}
	return f.updated, nil
}

func (f *fakeScores) Find(ctx context.Context, studentID, courseCode string) (*types.Score, error) {
	return nil, ErrScoreNotFound
}

type fakeRecency struct {
	mu       sync.Mutex
	recorded []string
	err      error
}

func (f *fakeRecency) Record(ctx context.Context, teacherNaturalID, keyURL string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, keyURL)
	return nil
}

func (f *fakeRecency) Recent(ctx context.Context, teacherNaturalID string) ([]RecentKey, error) {
	return nil, nil
}
