package services

import (
	"math"
	"sync"
	"time"
)

const ThrottleCooldownCapSeconds = 30

type throttleEntry struct {
	failCount     int
	cooldownUntil time.Time
}

// LoginThrottle slows down repeated failed logins per Telegram user. After the
// n-th consecutive failure the user waits min(30, 2^n) seconds.
type LoginThrottle struct {
	mu      sync.Mutex
	entries map[int64]throttleEntry
	now     func() time.Time
}

func NewLoginThrottle() *LoginThrottle {
	return &LoginThrottle{entries: make(map[int64]throttleEntry), now: time.Now}
}

// WaitSeconds returns how many seconds the user must wait before trying again (0 if no cooldown).
func (t *LoginThrottle) WaitSeconds(tgUserID int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[tgUserID]
	if !ok || e.cooldownUntil.IsZero() {
		return 0
	}
	now := t.now()
	if now.Before(e.cooldownUntil) {
		return int(e.cooldownUntil.Sub(now).Seconds()) + 1 // round up
	}
	return 0
}

// RecordFailed increments the fail count and starts the cooldown.
func (t *LoginThrottle) RecordFailed(tgUserID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entries[tgUserID]
	e.failCount++
	e.cooldownUntil = t.now().Add(time.Duration(CooldownSecondsForFailCount(e.failCount)) * time.Second)
	t.entries[tgUserID] = e
}

// RecordSuccess resets the user's fail count and cooldown.
func (t *LoginThrottle) RecordSuccess(tgUserID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, tgUserID)
}

// CooldownSecondsForFailCount returns min(30, 2^failCount).
func CooldownSecondsForFailCount(failCount int) int {
	// 2^5 already exceeds the cap; larger exponents overflow int
	if failCount >= 5 {
		return ThrottleCooldownCapSeconds
	}
	s := int(math.Pow(2, float64(failCount)))
	if s > ThrottleCooldownCapSeconds {
		return ThrottleCooldownCapSeconds
	}
	return s
}
