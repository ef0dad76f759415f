package battle

import (
	"fmt"

	"quiz-battle-service/internal/domain"
)

// HealthPool tracks one combatant's health. Current stays within [0, max].
type HealthPool struct {
	current int
	max     int
}

// NewHealthPool returns a full pool.
func NewHealthPool(max int) (*HealthPool, error) {
	if max <= 0 {
		return nil, fmt.Errorf("max health %d: %w", max, domain.ErrInvalidHealth)
	}
	return &HealthPool{current: max, max: max}, nil
}

// ApplyDamage lowers current health, flooring at zero, and reports whether the
// pool is depleted afterwards. Negative amounts are treated as zero.
func (h *HealthPool) ApplyDamage(amount int) bool {
	if amount < 0 {
		amount = 0
	}
	h.current -= amount
	if h.current < 0 {
		h.current = 0
	}
	return h.current == 0
}

func (h *HealthPool) Depleted() bool { return h.current == 0 }

func (h *HealthPool) Current() int { return h.current }

func (h *HealthPool) Max() int { return h.max }
