package battle

import "quiz-battle-service/internal/domain"

// Resolver turns a verdict into a combat exchange. Hit or miss is rolled
// independently of correctness: a correct answer only decides who attacks.
type Resolver struct {
	hitChance       float64
	minDamage       int
	maxDamage       int
	skillMultiplier int
	rnd             RandomSource
}

// NewResolver expects cfg to be defaulted and validated.
func NewResolver(cfg Config, rnd RandomSource) *Resolver {
	return &Resolver{
		hitChance:       cfg.HitChance,
		minDamage:       cfg.MinDamage,
		maxDamage:       cfg.MaxDamage,
		skillMultiplier: cfg.SkillMultiplier,
		rnd:             rnd,
	}
}

// Resolve rolls the exchange for one round and applies damage to the defender.
// TimedOut resolves like Incorrect. skillActive only boosts player attacks.
func (r *Resolver) Resolve(verdict domain.Verdict, skillActive bool, player, opponent *HealthPool) domain.RoundOutcome {
	outcome := domain.RoundOutcome{Verdict: verdict}

	attacker, defender := domain.SideOpponent, player
	outcome.Defender = domain.SidePlayer
	if verdict == domain.VerdictCorrect {
		attacker, defender = domain.SidePlayer, opponent
		outcome.Defender = domain.SideOpponent
	}

	outcome.Hit = r.rnd.Float64() <= r.hitChance
	if !outcome.Hit {
		// The defender evades; presentation plays the dodge.
		outcome.Fatal = defender.Depleted()
		return outcome
	}

	damage := r.rnd.IntRange(r.minDamage, r.maxDamage)
	if skillActive && attacker == domain.SidePlayer {
		damage *= r.skillMultiplier
		outcome.SkillBoosted = true
	}
	outcome.Damage = damage
	outcome.Fatal = defender.ApplyDamage(damage)
	return outcome
}
