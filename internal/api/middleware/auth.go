package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suryatejathodupunuri/LangCentrix/internal/authz"
	"github.com/suryatejathodupunuri/LangCentrix/internal/db/models"
	"github.com/suryatejathodupunuri/LangCentrix/internal/services"
	"gorm.io/gorm"
)

const SessionCookie = "session_token"

type AuthMiddleware struct {
	sessions *services.SessionService
	db       *gorm.DB
}

func NewAuthMiddleware(sessions *services.SessionService, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		db:       db,
	}
}

// RequireAuth resolves the session cookie to a live user and stores the
// identity on the context. An expired session or a vanished user yields 401.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionToken, err := c.Cookie(SessionCookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		userID, valid := am.sessions.Validate(sessionToken)
		if !valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var user models.User
		if err := am.db.First(&user, userID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account deactivated"})
			return
		}

		c.Set("userID", user.ID)
		c.Set("userEmail", user.Email)
		c.Set("userName", user.Name)
		c.Set("role", user.Role)
		c.Next()
	}
}

// RequireResource gates a route on the role policy. Every mutating route is
// gated here; client-side hiding is never relied on.
func (am *AuthMiddleware) RequireResource(resource authz.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.MustGet("role").(models.UserRole)
		if !ok || !authz.CanAccess(role, resource) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}
