package ratelimit

import (
	"sync"
	"time"
)

type symbolWindow struct {
	lastSent time.Time
	day      time.Time // UTC midnight of the day being counted
	sent     int
}

// SignalThrottle gates signal delivery per symbol: a cooldown between
// consecutive deliveries and a hard cap per UTC day. Allow consumes a
// slot, so callers must invoke it only when they are about to deliver.
type SignalThrottle struct {
	mu        sync.Mutex
	cooldown  time.Duration
	maxPerDay int
	now       func() time.Time
	m         map[string]*symbolWindow
}

func NewSignalThrottle(cooldown time.Duration, maxPerDay int) *SignalThrottle {
	return &SignalThrottle{
		cooldown:  cooldown,
		maxPerDay: maxPerDay,
		now:       time.Now,
		m:         make(map[string]*symbolWindow),
	}
}

// Allow reports whether a signal for symbol may be delivered now and,
// if so, records the delivery.
func (t *SignalThrottle) Allow(symbol string) bool {
	now := t.now().UTC()
	today := now.Truncate(24 * time.Hour)

	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.m[symbol]
	if !ok {
		w = &symbolWindow{day: today}
		t.m[symbol] = w
	}
	if !w.day.Equal(today) {
		w.day = today
		w.sent = 0
	}
	if t.maxPerDay > 0 && w.sent >= t.maxPerDay {
		return false
	}
	if t.cooldown > 0 && !w.lastSent.IsZero() && now.Sub(w.lastSent) < t.cooldown {
		return false
	}
	w.lastSent = now
	w.sent++
	return true
}

// SentToday returns the count of deliveries recorded for symbol today.
func (t *SignalThrottle) SentToday(symbol string) int {
	now := t.now().UTC()
	today := now.Truncate(24 * time.Hour)

	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.m[symbol]
	if !ok || !w.day.Equal(today) {
		return 0
	}
	return w.sent
}
