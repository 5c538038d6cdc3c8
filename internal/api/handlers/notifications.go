package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suryatejathodupunuri/LangCentrix/internal/notify"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notify *notify.Queue
	logger *zap.Logger
}

func NewNotificationHandler(notifyQueue *notify.Queue, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notify: notifyQueue,
		logger: logger.With(zap.String("handler", "notification")),
	}
}

// Drain returns and clears the caller's pending notices.
func (h *NotificationHandler) Drain(c *gin.Context) {
	notices := h.notify.Drain(c.GetString("userEmail"))
	if notices == nil {
		notices = []notify.Notice{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notices})
}
