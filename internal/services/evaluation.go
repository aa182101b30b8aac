package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/types"
)

// EvaluationStage is one ordered step of the grading pipeline. Each stage is
// bound to at most one external call, and the pointer never moves past a
// stage whose call failed.
type EvaluationStage string

const (
	StageIdentify     EvaluationStage = "identify"
	StageVerifyCourse EvaluationStage = "verify_course"
	StageUploadSheet  EvaluationStage = "upload_sheet"
	StageTranscribe   EvaluationStage = "transcribe"
	StageAnswerKey    EvaluationStage = "answer_key"
	StageGrade        EvaluationStage = "grade"
	StagePersist      EvaluationStage = "persist"
	StageDone         EvaluationStage = "done"
)

var stageOrder = []EvaluationStage{
	StageIdentify,
	StageVerifyCourse,
	StageUploadSheet,
	StageTranscribe,
	StageAnswerKey,
	StageGrade,
	StagePersist,
	StageDone,
}

func stageIndex(stage EvaluationStage) int {
	for i, s := range stageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

var (
	ErrSessionNotFound = errors.New("evaluation session not found")
	ErrWrongStage      = errors.New("action not available at current stage")
	ErrStageBusy       = errors.New("a call for this session is already in flight")
	ErrValidation      = errors.New("invalid input")
	ErrNotReviewed     = errors.New("transcription has not been acknowledged")
	ErrStaleResult     = errors.New("stage result discarded, session has moved on")
	ErrNoConflict      = errors.New("no conflict pending resolution")
)

// NameMismatch carries both names of a blocked course registration so the
// operator can resolve it out of band.
type NameMismatch struct {
	Code         string `json:"code"`
	SuppliedName string `json:"supplied_name"`
	ExistingName string `json:"existing_name"`
}

// PersistState is the persist stage's last reconciliation outcome.
type PersistState struct {
	Outcome  string         `json:"outcome"`
	Existing *ExistingMarks `json:"existing,omitempty"`
	Score    *types.Score   `json:"score,omitempty"`
}

type evaluationSession struct {
	id               uuid.UUID
	teacherID        uuid.UUID
	teacherNaturalID string

	stage EvaluationStage
	// epoch invalidates in-flight call results after back-navigation or a
	// stage-1 rerun: a result applied against an older epoch is discarded.
	epoch uint64
	busy  bool

	studentID  string
	courseCode string
	courseName string

	course       *types.Course
	nameMismatch *NameMismatch

	sheetURL string

	transcription []types.TranscribedItem
	reviewed      bool

	keyURL    string
	answerKey []types.AnswerKeyItem

	feedback   []types.FeedbackItem
	totalMarks float64
	maxMarks   float64
	percentage float64

	persist *PersistState

	stageError string

	mu sync.Mutex
}

// EvaluationView is the read model handed to HTTP callers.
type EvaluationView struct {
	ID            uuid.UUID               `json:"id"`
	Stage         EvaluationStage         `json:"stage"`
	StudentID     string                  `json:"student_id,omitempty"`
	CourseCode    string                  `json:"course_code,omitempty"`
	CourseName    string                  `json:"course_name,omitempty"`
	Course        *types.Course           `json:"course,omitempty"`
	NameMismatch  *NameMismatch           `json:"name_mismatch,omitempty"`
	SheetURL      string                  `json:"sheet_url,omitempty"`
	Transcription []types.TranscribedItem `json:"transcription,omitempty"`
	Reviewed      bool                    `json:"reviewed"`
	KeyURL        string                  `json:"key_url,omitempty"`
	AnswerKey     []types.AnswerKeyItem   `json:"answer_key,omitempty"`
	Feedback      []types.FeedbackItem    `json:"feedback,omitempty"`
	TotalMarks    float64                 `json:"total_marks"`
	MaxMarks      float64                 `json:"max_marks"`
	Percentage    float64                 `json:"percentage"`
	Persist       *PersistState           `json:"persist,omitempty"`
	StageError    string                  `json:"stage_error,omitempty"`
}

// EvaluationService drives graders through the staged pipeline. Sessions are
// in-process wizard state: one grader, one sheet, strictly ordered stages
// with all intermediate artifacts retained.
type EvaluationService interface {
	Start(ctx context.Context, teacherID uuid.UUID, teacherNaturalID string) *EvaluationView
	Get(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error)
	Identify(ctx context.Context, id, teacherID uuid.UUID, studentID, courseCode, courseName string) (*EvaluationView, error)
	VerifyCourse(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error)
	UploadSheet(ctx context.Context, id, teacherID uuid.UUID, filename string, file io.Reader) (*EvaluationView, error)
	Transcribe(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error)
	AcknowledgeReview(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error)
	UploadKey(ctx context.Context, id, teacherID uuid.UUID, filename string, file io.Reader) (*EvaluationView, error)
	ReuseKey(ctx context.Context, id, teacherID uuid.UUID, keyURL string) (*EvaluationView, error)
	Grade(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error)
	OverrideItem(ctx context.Context, id, teacherID uuid.UUID, question int, received, total float64) (*EvaluationView, error)
	Next(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error)
	Back(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error)
	Submit(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error)
	Resolve(ctx context.Context, id, teacherID uuid.UUID, action, newStudentID string) (*EvaluationView, error)
}

type evaluationService struct {
	log         *logger.Logger
	bucket      BucketService
	transcriber TranscriptionService
	grader      GradingService
	courses     CourseService
	scores      ScoreService
	recency     RecencyCacheService

	mu       sync.RWMutex
	sessions map[uuid.UUID]*evaluationSession
}

func NewEvaluationService(
	baseLog *logger.Logger,
	bucket BucketService,
	transcriber TranscriptionService,
	grader GradingService,
	courses CourseService,
	scores ScoreService,
	recency RecencyCacheService,
) EvaluationService {
	serviceLog := baseLog.With("service", "EvaluationService")
	return &evaluationService{
		log:         serviceLog,
		bucket:      bucket,
		transcriber: transcriber,
		grader:      grader,
		courses:     courses,
		scores:      scores,
		recency:     recency,
		sessions:    make(map[uuid.UUID]*evaluationSession),
	}
}

func (es *evaluationService) Start(ctx context.Context, teacherID uuid.UUID, teacherNaturalID string) *EvaluationView {
	s := &evaluationSession{
		id:               uuid.New(),
		teacherID:        teacherID,
		teacherNaturalID: teacherNaturalID,
		stage:            StageIdentify,
	}
	es.mu.Lock()
	es.sessions[s.id] = s
	es.mu.Unlock()
	es.log.Info("Evaluation session started", "session", s.id, "teacher", teacherNaturalID)

	s.mu.Lock()
	defer s.mu.Unlock()
	return viewOf(s)
}

func (es *evaluationService) session(id, teacherID uuid.UUID) (*evaluationSession, error) {
	es.mu.RLock()
	s, ok := es.sessions[id]
	es.mu.RUnlock()
	if !ok || s.teacherID != teacherID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (es *evaluationService) Get(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error) {
	s, err := es.session(id, teacherID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return viewOf(s), nil
}

// Identify collects the submission identity. Re-running it (after back)
// overwrites the identity and invalidates any in-flight call.
func (es *evaluationService) Identify(ctx context.Context, id, teacherID uuid.UUID, studentID, courseCode, courseName string) (*EvaluationView, error) {
	s, err := es.session(id, teacherID)
	if err != nil {
		return nil, err
	}

	studentID = strings.TrimSpace(studentID)
	courseCode = strings.TrimSpace(courseCode)
	courseName = strings.TrimSpace(courseName)
	if studentID == "" || courseCode == "" || courseName == "" {
		return nil, fmt.Errorf("%w: student id, course code and course name are all required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageIdentify {
		return nil, ErrWrongStage
	}
	if s.busy {
		return nil, ErrStageBusy
	}
	s.studentID = studentID
	s.courseCode = courseCode
	s.courseName = courseName
	s.course = nil
	s.nameMismatch = nil
	s.persist = nil
	s.stageError = ""
	s.epoch++
	s.stage = StageVerifyCourse
	return viewOf(s), nil
}

// beginCall gates a stage's single external call: correct stage, no other
// call in flight. It returns the epoch the result must be applied against.
func (s *evaluationSession) beginCall(stage EvaluationStage) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != stage {
		return 0, ErrWrongStage
	}
	if s.busy {
		return 0, ErrStageBusy
	}
	s.busy = true
	return s.epoch, nil
}

// beginKeyCall additionally enforces the manual review gate: the answer-key
// stage is locked until the grader has acknowledged the transcription.
func (s *evaluationSession) beginKeyCall() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageAnswerKey {
		return 0, ErrWrongStage
	}
	if s.busy {
		return 0, ErrStageBusy
	}
	if !s.reviewed {
		return 0, ErrNotReviewed
	}
	s.busy = true
	return s.epoch, nil
}

// endCall releases the busy flag and reports whether the result is still
// current. Stale results are discarded, never applied.
func (s *evaluationSession) endCall(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	return s.epoch == epoch
}

func (es *evaluationService) VerifyCourse(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error) {
	s, err := es.session(id, teacherID)
	if err != nil {
		return nil, err
	}
	epoch, err := s.beginCall(StageVerifyCourse)
	if err != nil {
		return nil, err
	}

	reg, callErr := es.courses.RegisterOrLink(ctx, s.courseCode, s.courseName, s.teacherNaturalID)

	if !s.endCall(epoch) {
		return nil, ErrStaleResult
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if callErr != nil {
		s.stageError = fmt.Sprintf("course verification failed: %v", callErr)
		return viewOf(s), nil
	}
	switch reg.Outcome {
	case CourseNameMismatch:
		// Blocked: both names surfaced, pointer unmoved, resolution is
		// out of band.
		s.nameMismatch = &NameMismatch{
			Code:         s.courseCode,
			SuppliedName: s.courseName,
			ExistingName: reg.ExistingName,
		}
		s.stageError = fmt.Sprintf("course %q is already registered as %q", s.courseCode, reg.ExistingName)
	default:
		s.course = reg.Course
		s.nameMismatch = nil
		s.stageError = ""
		s.stage = StageUploadSheet
	}
	return viewOf(s), nil
}

func (es *evaluationService) UploadSheet(ctx context.Context, id, teacherID uuid.UUID, filename string, file io.Reader) (*EvaluationView, error) {
	s, err := es.session(id, teacherID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("%w: sheet file required", ErrValidation)
	}
	epoch, err := s.beginCall(StageUploadSheet)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("sheets/%s/%s%s", s.id, uuid.New(), path.Ext(filename))
	url, callErr := es.bucket.UploadFile(ctx, key, file)

	if !s.endCall(epoch) {
		return nil, ErrStaleResult
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if callErr != nil {
		s.stageError = fmt.Sprintf("sheet upload failed: %v", callErr)
		return viewOf(s), nil
	}
	s.sheetURL = url
	s.stageError = ""
	s.stage = StageTranscribe
	return viewOf(s), nil
}

// Transcribe runs OCR over the uploaded sheet. Re-posting while at this
// stage is the explicit "retry transcription" action; it re-runs only this
// stage and resets the review acknowledgment.
func (es *evaluationService) Transcribe(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error) {
	s, err := es.session(id, teacherID)
	if err != nil {
		return nil, err
	}
	epoch, err := s.beginCall(StageTranscribe)
	if err != nil {
		return nil, err
	}

	items, callErr := es.transcriber.Transcribe(ctx, s.sheetURL)

	if !s.endCall(epoch) {
		return nil, ErrStaleResult
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if callErr != nil {
		s.stageError = fmt.Sprintf("transcription failed: %v", callErr)
		return viewOf(s), nil
	}
	s.transcription = items
	s.reviewed = false
	s.stageError = ""
	// The pointer stays here: advancing is gated on the grader's explicit
	// review acknowledgment, not on the OCR call succeeding.
	return viewOf(s), nil
}

func (es *evaluationService) AcknowledgeReview(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error) {
	s, err := es.session(id, teacherID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageTranscribe {
		return nil, ErrWrongStage
	}
	if s.busy {
		return nil, ErrStageBusy
	}
	if len(s.transcription) == 0 {
		return nil, fmt.Errorf("%w: nothing transcribed yet", ErrValidation)
	}
	s.reviewed = true
	s.stageError = ""
	s.stage = StageAnswerKey
	return viewOf(s), nil
}

func (es *evaluationService) UploadKey(ctx context.Context, id, teacherID uuid.UUID, filename string, file io.Reader) (*EvaluationView, error) {
	s, err := es.session(id, teacherID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("%w: key file required", ErrValidation)
	}
	epoch, err := s.beginKeyCall()
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("keys/%s/%s%s", s.teacherNaturalID, uuid.New(), path.Ext(filename))
	url, callErr := es.bucket.UploadFile(ctx, key, file)
	var parsed []types.AnswerKeyItem
	if callErr == nil {
		parsed, callErr = es.grader.ParseKey(ctx, url)
	}

	if !s.endCall(epoch) {
		return nil, ErrStaleResult
	}
	return es.applyKeyResult(ctx, s, url, parsed, callErr)
}

// ReuseKey takes a reference previously surfaced by the recency cache
// instead of a fresh upload, then parses it the same way.
func (es *evaluationService) ReuseKey(ctx context.Context, id, teacherID uuid.UUID, keyURL string) (*EvaluationView, error) {
	s, err := es.session(id, teacherID)
	if err != nil {
		return nil, err
	}
	keyURL = strings.TrimSpace(keyURL)
	if keyURL == "" {
		return nil, fmt.Errorf("%w: key url required", ErrValidation)
	}
	epoch, err := s.beginKeyCall()
	if err != nil {
		return nil, err
	}

	parsed, callErr := es.grader.ParseKey(ctx, keyURL)

	if !s.endCall(epoch) {
		return nil, ErrStaleResult
	}
	return es.applyKeyResult(ctx, s, keyURL, parsed, callErr)
}

func (es *evaluationService) applyKeyResult(ctx context.Context, s *evaluationSession, keyURL string, parsed []types.AnswerKeyItem, callErr error) (*EvaluationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if callErr != nil {
		s.stageError = fmt.Sprintf("answer key failed: %v", callErr)
		return viewOf(s), nil
	}
	s.keyURL = keyURL
	s.answerKey = parsed
	s.stageError = ""
	s.stage = StageGrade

	// Write-through on every successful key upload or reuse. The cache is
	// advisory: a write failure is logged, never surfaced as a stage
	// failure.
	if err := es.recency.Record(ctx, s.teacherNaturalID, keyURL); err != nil {
		es.log.Warn("Recency cache write failed", "teacher", s.teacherNaturalID, "key", keyURL, "error", err)
	}
	return viewOf(s), nil
}

func (es *evaluationService) Grade(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error) {
	s, err := es.session(id, teacherID)
	if err != nil {
		return nil, err
	}
	epoch, err := s.beginCall(StageGrade)
	if err != nil {
		return nil, err
	}

	feedback, callErr := es.grader.Grade(ctx, s.transcription, s.answerKey)

	if !s.endCall(epoch) {
		return nil, ErrStaleResult
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if callErr != nil {
		s.stageError = fmt.Sprintf("grading failed: %v", callErr)
		return viewOf(s), nil
	}
	s.feedback = feedback
	// The aggregate is always recomputed from per-item marks; any total the
	// grading service reports is ignored.
	s.totalMarks, s.maxMarks, s.percentage = ComputeAggregate(s.feedback)
	s.stageError = ""
	s.stage = StagePersist
	return viewOf(s), nil
}

// OverrideItem lets the grader adjust one item's marks, e.g. a diagram
// question the grading service cannot assess. The aggregate is recomputed
// from the full item list.
func (es *evaluationService) OverrideItem(ctx context.Context, id, teacherID uuid.UUID, question int, received, total float64) (*EvaluationView, error) {
	s, err := es.session(id, teacherID)
	if err != nil {
		return nil, err
	}
	if total <= 0 || received < 0 || received > total {
		return nil, fmt.Errorf("%w: override marks out of range", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StagePersist {
		return nil, ErrWrongStage
	}
	if s.busy {
		return nil, ErrStageBusy
	}
	found := false
	for i := range s.feedback {
		if s.feedback[i].Question == question {
			s.feedback[i].Received = received
			s.feedback[i].Total = total
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: no graded item for question %d", ErrValidation, question)
	}
	s.totalMarks, s.maxMarks, s.percentage = ComputeAggregate(s.feedback)
	return viewOf(s), nil
}

// Next moves the pointer forward without re-running anything, provided the
// current stage's artifact already exists from a previous visit.
func (es *evaluationService) Next(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error) {
	s, err := es.session(id, teacherID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return nil, ErrStageBusy
	}
	ok := false
	switch s.stage {
	case StageIdentify:
		ok = s.studentID != "" && s.courseCode != "" && s.courseName != ""
	case StageVerifyCourse:
		ok = s.course != nil
	case StageUploadSheet:
		ok = s.sheetURL != ""
	case StageTranscribe:
		ok = len(s.transcription) > 0 && s.reviewed
	case StageAnswerKey:
		ok = len(s.answerKey) > 0
	case StageGrade:
		ok = len(s.feedback) > 0
	}
	if !ok {
		return nil, fmt.Errorf("%w: stage %s is not complete", ErrValidation, s.stage)
	}
	s.stage = stageOrder[stageIndex(s.stage)+1]
	s.stageError = ""
	return viewOf(s), nil
}

// Back moves the pointer one stage down. Later-stage artifacts are kept so
// returning forward recomputes nothing; any in-flight call's result is
// invalidated.
func (es *evaluationService) Back(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error) {
	s, err := es.session(id, teacherID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage == StageIdentify || s.stage == StageDone {
		return nil, ErrWrongStage
	}
	s.stage = stageOrder[stageIndex(s.stage)-1]
	s.stageError = ""
	s.epoch++
	return viewOf(s), nil
}

func (es *evaluationService) Submit(ctx context.Context, id, teacherID uuid.UUID) (*EvaluationView, error) {
	s, err := es.session(id, teacherID)
	if err != nil {
		return nil, err
	}
	epoch, err := s.beginCall(StagePersist)
	if err != nil {
		return nil, err
	}

	result, callErr := es.scores.Submit(ctx, es.snapshot(s))

	if !s.endCall(epoch) {
		return nil, ErrStaleResult
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if callErr != nil {
		s.stageError = fmt.Sprintf("persisting score failed: %v", callErr)
		return viewOf(s), nil
	}
	s.persist = &PersistState{Outcome: result.Outcome, Existing: result.Existing, Score: result.Score}
	s.stageError = ""
	if result.Outcome == ScoreOutcomeCreated {
		s.stage = StageDone
	}
	return viewOf(s), nil
}

// Resolve settles a pending conflict: "update" treats the submission as a
// deliberate re-evaluation; "rekey" retries under a corrected student id
// with a fresh uniqueness check.
func (es *evaluationService) Resolve(ctx context.Context, id, teacherID uuid.UUID, action, newStudentID string) (*EvaluationView, error) {
	s, err := es.session(id, teacherID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.persist == nil || s.persist.Outcome != ScoreOutcomeConflict {
		s.mu.Unlock()
		return nil, ErrNoConflict
	}
	if action == "rekey" {
		newStudentID = strings.TrimSpace(newStudentID)
		if newStudentID == "" {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: replacement student id required", ErrValidation)
		}
		s.studentID = newStudentID
		s.persist = nil
	}
	s.mu.Unlock()

	switch action {
	case "rekey":
		return es.Submit(ctx, id, teacherID)
	case "update":
		epoch, err := s.beginCall(StagePersist)
		if err != nil {
			return nil, err
		}

		updated, callErr := es.scores.Update(ctx, es.snapshot(s))

		if !s.endCall(epoch) {
			return nil, ErrStaleResult
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if callErr != nil {
			s.stageError = fmt.Sprintf("updating score failed: %v", callErr)
			return viewOf(s), nil
		}
		s.persist = &PersistState{Outcome: ScoreOutcomeUpdated, Score: updated}
		s.stageError = ""
		s.stage = StageDone
		return viewOf(s), nil
	default:
		return nil, fmt.Errorf("%w: unknown resolution %q", ErrValidation, action)
	}
}

func (es *evaluationService) snapshot(s *evaluationSession) ScoreSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	feedback := make([]types.FeedbackItem, len(s.feedback))
	copy(feedback, s.feedback)
	return ScoreSubmission{
		StudentID:               s.studentID,
		CourseCode:              s.courseCode,
		TotalMarks:              s.totalMarks,
		MaxMarks:                s.maxMarks,
		Percentage:              s.percentage,
		Feedback:                feedback,
		SheetURL:                s.sheetURL,
		GradingTeacherNaturalID: s.teacherNaturalID,
	}
}

// viewOf must be called with the session lock held.
func viewOf(s *evaluationSession) *EvaluationView {
	v := &EvaluationView{
		ID:           s.id,
		Stage:        s.stage,
		StudentID:    s.studentID,
		CourseCode:   s.courseCode,
		CourseName:   s.courseName,
		Course:       s.course,
		NameMismatch: s.nameMismatch,
		SheetURL:     s.sheetURL,
		Reviewed:     s.reviewed,
		KeyURL:       s.keyURL,
		TotalMarks:   s.totalMarks,
		MaxMarks:     s.maxMarks,
		Percentage:   s.percentage,
		Persist:      s.persist,
		StageError:   s.stageError,
	}
	v.Transcription = append(v.Transcription, s.transcription...)
	v.AnswerKey = append(v.AnswerKey, s.answerKey...)
	v.Feedback = append(v.Feedback, s.feedback...)
	return v
}
