package battle

import (
	"fmt"
	"time"

	"quiz-battle-service/internal/domain"
)

// CooldownTimer counts down from a duration as it is ticked. It is used for
// the per-question answer timer, the skill cooldown and the skill's active
// window. The zero value is a stopped timer.
type CooldownTimer struct {
	duration  time.Duration
	remaining time.Duration
	running   bool
	ticked    bool
}

// Start resets the timer to d and starts it.
func (t *CooldownTimer) Start(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("start timer with %s: %w", d, domain.ErrInvalidDuration)
	}
	t.duration = d
	t.remaining = d
	t.running = true
	t.ticked = false
	return nil
}

// Tick advances a running timer by dt. It returns true on the tick that brings
// the timer to zero and never again until the next Start.
func (t *CooldownTimer) Tick(dt time.Duration) bool {
	if !t.running {
		return false
	}
	if dt < 0 {
		dt = 0
	}
	t.ticked = true
	t.remaining -= dt
	if t.remaining > 0 {
		return false
	}
	t.remaining = 0
	t.running = false
	return true
}

// Stop halts the timer without signaling expiry.
func (t *CooldownTimer) Stop() {
	t.running = false
}

// Expired reports whether the timer ran down to zero.
func (t *CooldownTimer) Expired() bool {
	return t.remaining == 0 && t.ticked
}

func (t *CooldownTimer) Running() bool { return t.running }

func (t *CooldownTimer) Remaining() time.Duration { return t.remaining }

func (t *CooldownTimer) Duration() time.Duration { return t.duration }
