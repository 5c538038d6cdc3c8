package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suryatejathodupunuri/LangCentrix/internal/services"
	"go.uber.org/zap"
)

// AdminHandler covers the signup approval queue. Only admins reach these
// routes.
type AdminHandler struct {
	users  *services.UserService
	logger *zap.Logger
}

func NewAdminHandler(users *services.UserService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		users:  users,
		logger: logger.With(zap.String("handler", "admin")),
	}
}

func (h *AdminHandler) ListSignupRequests(c *gin.Context) {
	requests, err := h.users.ListSignupRequests(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

type signupDecisionRequest struct {
	ID uint `json:"id" binding:"required"`
}

func (h *AdminHandler) ApproveSignup(c *gin.Context) {
	var req signupDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request ID is required"})
		return
	}

	user, err := h.users.ApproveSignup(c.Request.Context(), req.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Signup request approved",
		zap.Uint("requestID", req.ID),
		zap.String("email", user.Email))

	c.JSON(http.StatusOK, gin.H{"message": "Signup approved", "user": user})
}

func (h *AdminHandler) RejectSignup(c *gin.Context) {
	var req signupDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request ID is required"})
		return
	}

	if err := h.users.RejectSignup(c.Request.Context(), req.ID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Signup request rejected", zap.Uint("requestID", req.ID))

	c.JSON(http.StatusOK, gin.H{"message": "Signup rejected"})
}
