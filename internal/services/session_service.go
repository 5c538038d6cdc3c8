package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/suryatejathodupunuri/LangCentrix/pkg/metrics"
	"go.uber.org/zap"
)

type SessionData struct {
	UserID    uint
	ExpiresAt time.Time
	IPAddress string
	UserAgent string
}

type sessionStore struct {
	sessions map[string]SessionData
	mutex    sync.RWMutex
}

// SessionService issues opaque session tokens and keeps them in process
// memory. A session expires after the configured TTL and is then swept by the
// background cleanup loop.
type SessionService struct {
	store    *sessionStore
	ttl      time.Duration
	logger   *zap.Logger
	metrics  *metrics.MetricsCollector
	stopChan chan struct{}
}

func NewSessionService(ttl time.Duration, logger *zap.Logger, metricsCollector *metrics.MetricsCollector) *SessionService {
	ss := &SessionService{
		store: &sessionStore{
			sessions: make(map[string]SessionData),
		},
		ttl:      ttl,
		logger:   logger.With(zap.String("service", "session_service")),
		metrics:  metricsCollector,
		stopChan: make(chan struct{}),
	}

	go ss.startBackgroundCleanup(context.Background())

	return ss
}

func (ss *SessionService) startBackgroundCleanup(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ss.stopChan:
			return
		case <-ticker.C:
			ss.cleanupExpiredSessions()
		}
	}
}

func (ss *SessionService) cleanupExpiredSessions() {
	ss.store.mutex.Lock()
	defer ss.store.mutex.Unlock()

	now := time.Now()
	for token, session := range ss.store.sessions {
		if now.After(session.ExpiresAt) {
			delete(ss.store.sessions, token)
			ss.metrics.IncrementCounter("sessions.expired", nil)
		}
	}
}

func (ss *SessionService) Create(userID uint, ipAddress, userAgent string) string {
	token := uuid.New().String()
	ss.store.mutex.Lock()
	ss.store.sessions[token] = SessionData{
		UserID:    userID,
		ExpiresAt: time.Now().Add(ss.ttl),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	ss.store.mutex.Unlock()

	ss.metrics.IncrementCounter("sessions.created", nil)
	ss.logger.Info("Created new session",
		zap.Uint("user_id", userID),
		zap.String("token", token[:8]+"..."),
		zap.String("ip_address", ipAddress),
	)
	return token
}

func (ss *SessionService) Validate(token string) (uint, bool) {
	ss.store.mutex.RLock()
	sd, exists := ss.store.sessions[token]
	ss.store.mutex.RUnlock()
	if !exists || time.Now().After(sd.ExpiresAt) {
		return 0, false
	}
	return sd.UserID, true
}

func (ss *SessionService) Destroy(token string) {
	ss.store.mutex.Lock()
	delete(ss.store.sessions, token)
	ss.store.mutex.Unlock()
}

// TTL reports the configured session lifetime, used for cookie expiry.
func (ss *SessionService) TTL() time.Duration {
	return ss.ttl
}

func (ss *SessionService) Close() {
	close(ss.stopChan)
}
