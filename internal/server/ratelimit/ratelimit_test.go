package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_AllowsWithinLimit(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, Limit: 5, Window: time.Minute})
	defer l.Stop()

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("client-1"), "request %d should pass", i)
	}
	assert.False(t, l.Allow("client-1"), "sixth request exceeds the burst")
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, Limit: 1, Window: time.Minute})
	defer l.Stop()

	assert.True(t, l.Allow("client-1"))
	assert.False(t, l.Allow("client-1"))
	assert.True(t, l.Allow("client-2"))
}

func TestLimiter_DisabledAllowsEverything(t *testing.T) {
	l := NewLimiter(Config{Enabled: false, Limit: 1, Window: time.Minute})
	defer l.Stop()

	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("client-1"))
	}
}

func TestLimiter_Refills(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, Limit: 2, Window: 100 * time.Millisecond})
	defer l.Stop()

	assert.True(t, l.Allow("client-1"))
	assert.True(t, l.Allow("client-1"))
	assert.False(t, l.Allow("client-1"))

	time.Sleep(120 * time.Millisecond)
	assert.True(t, l.Allow("client-1"), "tokens refill over the window")
}
