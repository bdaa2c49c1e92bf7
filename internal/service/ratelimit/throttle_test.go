package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalThrottle_CooldownBetweenDeliveries(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	th := NewSignalThrottle(30*time.Minute, 5)
	th.now = func() time.Time { return now }

	require.True(t, th.Allow("XAUUSD"))
	assert.False(t, th.Allow("XAUUSD"), "second delivery inside the cooldown")

	now = now.Add(29 * time.Minute)
	assert.False(t, th.Allow("XAUUSD"))

	now = now.Add(time.Minute)
	assert.True(t, th.Allow("XAUUSD"), "cooldown elapsed")
}

func TestSignalThrottle_DailyCap(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC)
	th := NewSignalThrottle(0, 3)
	th.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		require.True(t, th.Allow("XAUUSD"), "delivery %d within the cap", i+1)
		now = now.Add(time.Hour)
	}
	assert.False(t, th.Allow("XAUUSD"), "cap reached")
	assert.Equal(t, 3, th.SentToday("XAUUSD"))

	now = time.Date(2024, 3, 2, 0, 5, 0, 0, time.UTC)
	assert.True(t, th.Allow("XAUUSD"), "new UTC day resets the counter")
	assert.Equal(t, 1, th.SentToday("XAUUSD"))
}

func TestSignalThrottle_SymbolsAreIndependent(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	th := NewSignalThrottle(30*time.Minute, 5)
	th.now = func() time.Time { return now }

	require.True(t, th.Allow("XAUUSD"))
	assert.True(t, th.Allow("EURUSD"), "cooldown is per symbol")
}

func TestSignalThrottle_UnknownSymbolHasNoHistory(t *testing.T) {
	th := NewSignalThrottle(time.Minute, 5)
	assert.Equal(t, 0, th.SentToday("XAUUSD"))
}

func TestLimiter_ConsumesCapacity(t *testing.T) {
	l := New()

	assert.True(t, l.Allow("marketdata", 2, 0))
	assert.True(t, l.Allow("marketdata", 2, 0))
	assert.False(t, l.Allow("marketdata", 2, 0), "bucket drained with no refill")
	assert.True(t, l.Allow("other", 2, 0), "keys hold separate buckets")
}
