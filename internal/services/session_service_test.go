package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/suryatejathodupunuri/LangCentrix/pkg/metrics"
	"go.uber.org/zap"
)

func TestSessionLifecycle(t *testing.T) {
	svc := NewSessionService(time.Hour, zap.NewNop(), metrics.NewMetricsCollector())
	defer svc.Close()

	token := svc.Create(42, "127.0.0.1", "test-agent")
	assert.NotEmpty(t, token)

	userID, ok := svc.Validate(token)
	assert.True(t, ok)
	assert.EqualValues(t, 42, userID)

	svc.Destroy(token)
	_, ok = svc.Validate(token)
	assert.False(t, ok)
}

func TestSessionExpiry(t *testing.T) {
	svc := NewSessionService(10*time.Millisecond, zap.NewNop(), metrics.NewMetricsCollector())
	defer svc.Close()

	token := svc.Create(7, "127.0.0.1", "test-agent")

	_, ok := svc.Validate(token)
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = svc.Validate(token)
	assert.False(t, ok)
}

func TestSessionTokensAreUnique(t *testing.T) {
	svc := NewSessionService(time.Hour, zap.NewNop(), metrics.NewMetricsCollector())
	defer svc.Close()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := svc.Create(uint(i), "127.0.0.1", "test-agent")
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestValidateUnknownToken(t *testing.T) {
	svc := NewSessionService(time.Hour, zap.NewNop(), metrics.NewMetricsCollector())
	defer svc.Close()

	_, ok := svc.Validate("not-a-real-token")
	assert.False(t, ok)
}
