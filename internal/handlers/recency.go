package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/requestdata"
	"github.com/yungbote/sheetgrader-backend/internal/services"
)

type RecencyHandler struct {
	log     *logger.Logger
	recency services.RecencyCacheService
}

func NewRecencyHandler(log *logger.Logger, recency services.RecencyCacheService) *RecencyHandler {
	return &RecencyHandler{
		log:     log.With("handler", "RecencyHandler"),
		recency: recency,
	}
}

func (h *RecencyHandler) RecentKeys(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TeacherID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	keys, err := h.recency.Recent(c.Request.Context(), rd.TeacherNaturalID)
	if err != nil {
		h.log.Error("Recent keys lookup failed", "error", err, "teacher", rd.TeacherNaturalID)
		RespondError(c, http.StatusInternalServerError, "recent_keys_failed", err)
		return
	}
	RespondOK(c, gin.H{"recent_keys": keys})
}
