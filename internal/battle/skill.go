package battle

import (
	"fmt"
	"time"

	"quiz-battle-service/internal/domain"
)

// SkillState tracks the player's damage-boost skill. The skill stays active for
// a short window after activation and cannot be reactivated until the cooldown,
// which starts at the same moment, runs out.
type SkillState struct {
	activeDuration time.Duration
	cooldownLength time.Duration

	active   bool
	window   CooldownTimer
	cooldown CooldownTimer
}

func NewSkillState(active, cooldown time.Duration) (*SkillState, error) {
	if active <= 0 {
		return nil, fmt.Errorf("skill active duration %s: %w", active, domain.ErrInvalidDuration)
	}
	if cooldown <= 0 {
		return nil, fmt.Errorf("skill cooldown %s: %w", cooldown, domain.ErrInvalidDuration)
	}
	return &SkillState{activeDuration: active, cooldownLength: cooldown}, nil
}

// Activate turns the skill on and starts its cooldown.
func (s *SkillState) Activate() error {
	if s.cooldown.Running() {
		return domain.ErrOnCooldown
	}
	// Durations were validated in NewSkillState.
	_ = s.window.Start(s.activeDuration)
	_ = s.cooldown.Start(s.cooldownLength)
	s.active = true
	return nil
}

// Tick advances the cooldown and the active window.
func (s *SkillState) Tick(dt time.Duration) {
	s.cooldown.Tick(dt)
	if s.window.Tick(dt) {
		s.active = false
	}
}

func (s *SkillState) Ready() bool { return !s.cooldown.Running() }

func (s *SkillState) Active() bool { return s.active }

func (s *SkillState) CooldownRemaining() time.Duration {
	if !s.cooldown.Running() {
		return 0
	}
	return s.cooldown.Remaining()
}
