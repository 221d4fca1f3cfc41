package services

import (
	"testing"
	"time"
)

func TestCooldownSecondsForFailCount(t *testing.T) {
	tests := []struct {
		failCount int
		want      int
	}{
		{0, 1},   // 2^0=1
		{1, 2},   // 2^1=2
		{2, 4},   // 2^2=4
		{3, 8},   // 2^3=8
		{4, 16},  // 2^4=16
		{5, 30},  // 2^5=32 -> cap 30
		{6, 30},  // 2^6=64 -> cap 30
		{10, 30}, // cap 30
		{63, 30},
		{64, 30},
		{1000, 30},
	}
	for _, tt := range tests {
		got := CooldownSecondsForFailCount(tt.failCount)
		if got != tt.want {
			t.Errorf("CooldownSecondsForFailCount(%d) = %d, want %d", tt.failCount, got, tt.want)
		}
	}
}

func TestLoginThrottle(t *testing.T) {
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	th := NewLoginThrottle()
	th.now = func() time.Time { return clock }
	const userID int64 = 42

	// 1) No attempts yet
	if wait := th.WaitSeconds(userID); wait != 0 {
		t.Errorf("fresh user: wait = %d, want 0", wait)
	}

	// 2) Failed attempt sets a 2s cooldown
	th.RecordFailed(userID)
	if wait := th.WaitSeconds(userID); wait <= 0 || wait > 3 {
		t.Errorf("after one fail: wait = %d, want 1..3", wait)
	}

	// 3) Cooldown grows with consecutive failures and stays capped
	for i := 0; i < 8; i++ {
		th.RecordFailed(userID)
	}
	if wait := th.WaitSeconds(userID); wait > ThrottleCooldownCapSeconds+1 {
		t.Errorf("cooldown wait %d exceeds cap %d", wait, ThrottleCooldownCapSeconds)
	}

	// 4) After the cooldown expires the user may try again
	clock = clock.Add(31 * time.Second)
	if wait := th.WaitSeconds(userID); wait != 0 {
		t.Errorf("after cooldown expired: wait = %d, want 0", wait)
	}

	// 5) Success resets everything
	th.RecordFailed(userID)
	th.RecordSuccess(userID)
	if wait := th.WaitSeconds(userID); wait != 0 {
		t.Errorf("after success: wait = %d, want 0", wait)
	}

	// Long runs of failures stay throttled
	for i := 0; i < 100; i++ {
		th.RecordFailed(userID)
	}
	if wait := th.WaitSeconds(userID); wait < ThrottleCooldownCapSeconds {
		t.Errorf("after 100 fails: wait = %d, want at least %d", wait, ThrottleCooldownCapSeconds)
	}
	th.RecordSuccess(userID)

	// Users are throttled independently
	th.RecordFailed(userID)
	if wait := th.WaitSeconds(userID + 1); wait != 0 {
		t.Errorf("other user: wait = %d, want 0", wait)
	}
}
