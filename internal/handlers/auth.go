package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		log:         log.With("handler", "AuthHandler"),
		authService: authService,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var body struct {
		NaturalID string `json:"natural_id"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	teacher, err := h.authService.Register(c.Request.Context(), body.NaturalID, body.Email, body.Password)
	if err != nil {
		h.log.Error("Register failed", "error", err)
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"teacher": teacher})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	token, teacher, err := h.authService.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"access_token": token, "teacher": teacher})
}

func (h *AuthHandler) LoginExternal(c *gin.Context) {
	var body struct {
		Email       string `json:"email"`
		ExternalRef string `json:"external_ref"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	token, teacher, err := h.authService.LoginExternal(c.Request.Context(), body.Email, body.ExternalRef)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"access_token": token, "teacher": teacher})
}
