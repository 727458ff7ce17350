package quiz

import (
	"sync"
	"time"
)

// TimerToken is a one-shot cancellable timer. The callback runs at most
// once; Cancel after the callback started is a no-op.
type TimerToken struct {
	mu    sync.Mutex
	timer *time.Timer
	done  bool
}

// Arm schedules fn to run after d on its own goroutine.
func Arm(d time.Duration, fn func()) *TimerToken {
	t := &TimerToken{}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.done {
			t.mu.Unlock()
			return
		}
		t.done = true
		t.mu.Unlock()
		fn()
	})
	return t
}

// Cancel stops the pending callback and reports whether it was still
// pending. Safe on nil tokens and after firing.
func (t *TimerToken) Cancel() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.timer.Stop()
	return true
}
