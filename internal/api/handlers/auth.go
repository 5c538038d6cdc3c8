package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suryatejathodupunuri/LangCentrix/internal/api/middleware"
	"github.com/suryatejathodupunuri/LangCentrix/internal/authz"
	"github.com/suryatejathodupunuri/LangCentrix/internal/services"
	"go.uber.org/zap"
)

type AuthHandler struct {
	users    *services.UserService
	sessions *services.SessionService
	logger   *zap.Logger
}

func NewAuthHandler(users *services.UserService, sessions *services.SessionService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		logger:   logger.With(zap.String("handler", "auth")),
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, err := ah.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		ah.logger.Warn("Login failed", zap.String("email", req.Email))
		respondError(c, ah.logger, err)
		return
	}

	token := ah.sessions.Create(user.ID, c.ClientIP(), c.Request.UserAgent())
	c.SetCookie(middleware.SessionCookie, token, int(ah.sessions.TTL().Seconds()), "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
		"resources": authz.Resources(user.Role),
	})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookie); err == nil {
		ah.sessions.Destroy(token)
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup files a pending request; an admin approves or rejects it later.
func (ah *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email, and password are required"})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid email address"})
		return
	}

	request, err := ah.users.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, ah.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Signup request submitted, awaiting approval",
		"request": gin.H{
			"id":    request.ID,
			"name":  request.Name,
			"email": request.Email,
		},
	})
}
