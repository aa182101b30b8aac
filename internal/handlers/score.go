package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/requestdata"
	"github.com/yungbote/sheetgrader-backend/internal/services"
	"github.com/yungbote/sheetgrader-backend/internal/types"
)

type ScoreHandler struct {
	log    *logger.Logger
	scores services.ScoreService
}

func NewScoreHandler(log *logger.Logger, scores services.ScoreService) *ScoreHandler {
	return &ScoreHandler{
		log:    log.With("handler", "ScoreHandler"),
		scores: scores,
	}
}

type scoreBody struct {
	StudentID  string               `json:"student_id"`
	CourseCode string               `json:"course_code"`
	TotalMarks float64              `json:"total_marks"`
	MaxMarks   float64              `json:"max_marks"`
	Percentage float64              `json:"percentage"`
	Feedback   []types.FeedbackItem `json:"feedback"`
	SheetURL   string               `json:"sheet_url"`
}

func (h *ScoreHandler) submission(c *gin.Context) (services.ScoreSubmission, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TeacherID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return services.ScoreSubmission{}, false
	}
	var body scoreBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return services.ScoreSubmission{}, false
	}
	return services.ScoreSubmission{
		StudentID:               body.StudentID,
		CourseCode:              body.CourseCode,
		TotalMarks:              body.TotalMarks,
		MaxMarks:                body.MaxMarks,
		Percentage:              body.Percentage,
		Feedback:                body.Feedback,
		SheetURL:                body.SheetURL,
		GradingTeacherNaturalID: rd.TeacherNaturalID,
	}, true
}

func (h *ScoreHandler) Submit(c *gin.Context) {
	sub, ok := h.submission(c)
	if !ok {
		return
	}
	result, err := h.scores.Submit(c.Request.Context(), sub)
	if err != nil {
		h.log.Error("Submit score failed", "error", err, "student", sub.StudentID, "course", sub.CourseCode)
		respondServiceError(c, err)
		return
	}
	if result.Outcome == services.ScoreOutcomeConflict {
		c.JSON(http.StatusConflict, gin.H{"result": result})
		return
	}
	RespondOK(c, gin.H{"result": result})
}

func (h *ScoreHandler) Update(c *gin.Context) {
	sub, ok := h.submission(c)
	if !ok {
		return
	}
	score, err := h.scores.Update(c.Request.Context(), sub)
	if err != nil {
		h.log.Error("Update score failed", "error", err, "student", sub.StudentID, "course", sub.CourseCode)
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"score": score})
}

func (h *ScoreHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TeacherID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	studentID := c.Query("student_id")
	courseCode := c.Query("course_code")
	if studentID == "" || courseCode == "" {
		RespondError(c, http.StatusBadRequest, "missing_query", nil)
		return
	}
	score, err := h.scores.Find(c.Request.Context(), studentID, courseCode)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"score": score})
}
