package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/requestdata"
	"github.com/yungbote/sheetgrader-backend/internal/services"
)

type EvaluationHandler struct {
	log         *logger.Logger
	evaluations services.EvaluationService
}

func NewEvaluationHandler(log *logger.Logger, evaluations services.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{
		log:         log.With("handler", "EvaluationHandler"),
		evaluations: evaluations,
	}
}

func (h *EvaluationHandler) caller(c *gin.Context) (*requestdata.RequestData, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TeacherID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return nil, false
	}
	return rd, true
}

func (h *EvaluationHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *EvaluationHandler) Start(c *gin.Context) {
	rd, ok := h.caller(c)
	if !ok {
		return
	}
	view := h.evaluations.Start(c.Request.Context(), rd.TeacherID, rd.TeacherNaturalID)
	RespondOK(c, gin.H{"evaluation": view})
}

func (h *EvaluationHandler) Get(c *gin.Context) {
	rd, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.evaluations.Get(c.Request.Context(), id, rd.TeacherID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"evaluation": view})
}

func (h *EvaluationHandler) Identify(c *gin.Context) {
	rd, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var body struct {
		StudentID  string `json:"student_id"`
		CourseCode string `json:"course_code"`
		CourseName string `json:"course_name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	view, err := h.evaluations.Identify(c.Request.Context(), id, rd.TeacherID, body.StudentID, body.CourseCode, body.CourseName)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"evaluation": view})
}

func (h *EvaluationHandler) VerifyCourse(c *gin.Context) {
	rd, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.evaluations.VerifyCourse(c.Request.Context(), id, rd.TeacherID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if view.NameMismatch != nil {
		c.JSON(http.StatusConflict, gin.H{"evaluation": view})
		return
	}
	RespondOK(c, gin.H{"evaluation": view})
}

func (h *EvaluationHandler) UploadSheet(c *gin.Context) {
	rd, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer file.Close()

	view, err := h.evaluations.UploadSheet(c.Request.Context(), id, rd.TeacherID, fileHeader.Filename, file)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"evaluation": view})
}

func (h *EvaluationHandler) Transcribe(c *gin.Context) {
	rd, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.evaluations.Transcribe(c.Request.Context(), id, rd.TeacherID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"evaluation": view})
}

func (h *EvaluationHandler) AcknowledgeReview(c *gin.Context) {
	rd, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.evaluations.AcknowledgeReview(c.Request.Context(), id, rd.TeacherID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"evaluation": view})
}

// ProvideKey accepts either a multipart upload (field "file") or a JSON body
// with a key_url selected from the recent-keys list.
func (h *EvaluationHandler) ProvideKey(c *gin.Context) {
	rd, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	if fileHeader, err := c.FormFile("file"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "unreadable_file", err)
			return
		}
		defer file.Close()
		view, err := h.evaluations.UploadKey(c.Request.Context(), id, rd.TeacherID, fileHeader.Filename, file)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		RespondOK(c, gin.H{"evaluation": view})
		return
	}

	var body struct {
		KeyURL string `json:"key_url"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	view, err := h.evaluations.ReuseKey(c.Request.Context(), id, rd.TeacherID, body.KeyURL)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"evaluation": view})
}

func (h *EvaluationHandler) Grade(c *gin.Context) {
	rd, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.evaluations.Grade(c.Request.Context(), id, rd.TeacherID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"evaluation": view})
}

func (h *EvaluationHandler) OverrideItem(c *gin.Context) {
	rd, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	question, err := strconv.Atoi(c.Param("question"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_question", err)
		return
	}
	var body struct {
		Received float64 `json:"received"`
		Total    float64 `json:"total"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	view, err := h.evaluations.OverrideItem(c.Request.Context(), id, rd.TeacherID, question, body.Received, body.Total)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"evaluation": view})
}

func (h *EvaluationHandler) Next(c *gin.Context) {
	rd, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.evaluations.Next(c.Request.Context(), id, rd.TeacherID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"evaluation": view})
}

func (h *EvaluationHandler) Back(c *gin.Context) {
	rd, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.evaluations.Back(c.Request.Context(), id, rd.TeacherID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"evaluation": view})
}

func (h *EvaluationHandler) Submit(c *gin.Context) {
	rd, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.evaluations.Submit(c.Request.Context(), id, rd.TeacherID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if view.Persist != nil && view.Persist.Outcome == services.ScoreOutcomeConflict {
		c.JSON(http.StatusConflict, gin.H{"evaluation": view})
		return
	}
	RespondOK(c, gin.H{"evaluation": view})
}

func (h *EvaluationHandler) Resolve(c *gin.Context) {
	rd, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var body struct {
		Action    string `json:"action"`
		StudentID string `json:"student_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	view, err := h.evaluations.Resolve(c.Request.Context(), id, rd.TeacherID, body.Action, body.StudentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if view.Persist != nil && view.Persist.Outcome == services.ScoreOutcomeConflict {
		c.JSON(http.StatusConflict, gin.H{"evaluation": view})
		return
	}
	RespondOK(c, gin.H{"evaluation": view})
}
