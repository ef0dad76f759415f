package battle

import (
	"fmt"
	"time"

	"quiz-battle-service/internal/domain"
)

// Defaults applied to zero-valued Config fields.
const (
	DefaultHitChance         = 0.5
	DefaultMinDamage         = 10
	DefaultMaxDamage         = 15
	DefaultSkillMultiplier   = 2
	DefaultSkillActive       = 3 * time.Second
	DefaultSkillCooldown     = 30 * time.Second
	DefaultSuddenDeathWindow = 3
	DefaultSuddenDeathDamage = 10
	DefaultHealth            = 100
	DefaultPassThreshold     = 0.7

	// The skill window keeps running during the feedback hold, so a skill
	// activated before an answer has DefaultSkillActive-DefaultFeedbackDuration
	// left when the next round opens.
	DefaultFeedbackDuration = 2 * time.Second
)

// Config tunes a battle. Zero values fall back to the defaults above; use the
// Disable* flags to turn off sudden death or the feedback hold explicitly.
type Config struct {
	Mode                domain.Mode
	PerQuestionDuration time.Duration
	HitChance           float64
	MinDamage           int
	MaxDamage           int
	SkillMultiplier     int
	SkillActiveDuration time.Duration
	SkillCooldown       time.Duration
	SuddenDeathWindow   int
	SuddenDeathDamage   int
	PlayerHealth        int
	OpponentHealth      int
	PassThreshold       float64
	FeedbackDuration    time.Duration

	DisableSuddenDeath bool
	DisableFeedback    bool
}

// QuestionDuration is the answer timer length for a presentation mode.
func QuestionDuration(mode domain.Mode) time.Duration {
	switch mode {
	case domain.ModeSwipe:
		return 10 * time.Second
	case domain.ModeChoice:
		return 15 * time.Second
	default:
		return 30 * time.Second
	}
}

// WithDefaults returns a copy of c with every unset field filled in.
func (c Config) WithDefaults() Config {
	if c.Mode == "" {
		c.Mode = domain.ModeJumble
	}
	if c.PerQuestionDuration == 0 {
		c.PerQuestionDuration = QuestionDuration(c.Mode)
	}
	if c.HitChance == 0 {
		c.HitChance = DefaultHitChance
	}
	if c.MinDamage == 0 && c.MaxDamage == 0 {
		c.MinDamage, c.MaxDamage = DefaultMinDamage, DefaultMaxDamage
	}
	if c.SkillMultiplier == 0 {
		c.SkillMultiplier = DefaultSkillMultiplier
	}
	if c.SkillActiveDuration == 0 {
		c.SkillActiveDuration = DefaultSkillActive
	}
	if c.SkillCooldown == 0 {
		c.SkillCooldown = DefaultSkillCooldown
	}
	if c.DisableSuddenDeath {
		c.SuddenDeathWindow, c.SuddenDeathDamage = 0, 0
	} else {
		if c.SuddenDeathWindow == 0 {
			c.SuddenDeathWindow = DefaultSuddenDeathWindow
		}
		if c.SuddenDeathDamage == 0 {
			c.SuddenDeathDamage = DefaultSuddenDeathDamage
		}
	}
	if c.PlayerHealth == 0 {
		c.PlayerHealth = DefaultHealth
	}
	if c.OpponentHealth == 0 {
		c.OpponentHealth = DefaultHealth
	}
	if c.PassThreshold == 0 {
		c.PassThreshold = DefaultPassThreshold
	}
	if c.DisableFeedback {
		c.FeedbackDuration = 0
	} else if c.FeedbackDuration == 0 {
		c.FeedbackDuration = DefaultFeedbackDuration
	}
	return c
}

// Validate checks a config that already went through WithDefaults.
func (c Config) Validate() error {
	if c.PerQuestionDuration <= 0 {
		return fmt.Errorf("per-question duration %s: %w", c.PerQuestionDuration, domain.ErrInvalidDuration)
	}
	if c.SkillActiveDuration <= 0 {
		return fmt.Errorf("skill active duration %s: %w", c.SkillActiveDuration, domain.ErrInvalidDuration)
	}
	if c.SkillCooldown <= 0 {
		return fmt.Errorf("skill cooldown %s: %w", c.SkillCooldown, domain.ErrInvalidDuration)
	}
	if c.FeedbackDuration < 0 {
		return fmt.Errorf("feedback duration %s: %w", c.FeedbackDuration, domain.ErrInvalidDuration)
	}
	if c.HitChance <= 0 || c.HitChance > 1 {
		return fmt.Errorf("hit chance %v: %w", c.HitChance, domain.ErrInvalidHitChance)
	}
	if c.MinDamage < 0 || c.MaxDamage < c.MinDamage {
		return fmt.Errorf("damage [%d,%d]: %w", c.MinDamage, c.MaxDamage, domain.ErrInvalidDamageRange)
	}
	if c.PlayerHealth <= 0 || c.OpponentHealth <= 0 {
		return fmt.Errorf("health %d/%d: %w", c.PlayerHealth, c.OpponentHealth, domain.ErrInvalidHealth)
	}
	if c.SkillMultiplier < 1 {
		return fmt.Errorf("skill multiplier %d: %w", c.SkillMultiplier, domain.ErrInvalidConfig)
	}
	if c.SuddenDeathWindow < 0 || c.SuddenDeathDamage < 0 {
		return fmt.Errorf("sudden death window %d damage %d: %w", c.SuddenDeathWindow, c.SuddenDeathDamage, domain.ErrInvalidConfig)
	}
	if c.PassThreshold < 0 || c.PassThreshold > 1 {
		return fmt.Errorf("pass threshold %v: %w", c.PassThreshold, domain.ErrInvalidConfig)
	}
	return nil
}
