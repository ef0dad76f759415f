package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"quiz-battle-service/internal/battle"
	"quiz-battle-service/internal/domain"
)

type Config struct {
	Server struct {
		Port         string `yaml:"port" env:"PORT"`
		TickInterval string `yaml:"tickInterval" env:"TICK_INTERVAL"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
		TTL      string `yaml:"ttl" env:"REDIS_TTL"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"POSTGRES_URL"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl" env:"QUIZ_TTL"`
		Dir string `yaml:"dir" env:"QUIZ_DIR"`
	} `yaml:"quiz"`
	Battle Battle `yaml:"battle"`
}

// Battle mirrors battle.Config with YAML-friendly types. Omitted fields keep
// the engine defaults.
type Battle struct {
	Mode                string  `yaml:"mode" env:"BATTLE_MODE"`
	PerQuestionDuration string  `yaml:"perQuestionDuration" env:"BATTLE_PER_QUESTION_DURATION"`
	HitChance           float64 `yaml:"hitChance" env:"BATTLE_HIT_CHANCE"`
	DamageRange         []int   `yaml:"damageRange" env:"BATTLE_DAMAGE_RANGE" envSeparator:","`
	SkillMultiplier     int     `yaml:"skillMultiplier" env:"BATTLE_SKILL_MULTIPLIER"`
	SkillActiveDuration string  `yaml:"skillActiveDuration" env:"BATTLE_SKILL_ACTIVE_DURATION"`
	SkillCooldown       string  `yaml:"skillCooldownDuration" env:"BATTLE_SKILL_COOLDOWN"`
	SuddenDeathWindow   *int    `yaml:"suddenDeathWindow" env:"BATTLE_SUDDEN_DEATH_WINDOW"`
	SuddenDeathDamage   int     `yaml:"suddenDeathDamage" env:"BATTLE_SUDDEN_DEATH_DAMAGE"`
	PlayerHealth        int     `yaml:"playerHealth" env:"BATTLE_PLAYER_HEALTH"`
	OpponentHealth      int     `yaml:"opponentHealth" env:"BATTLE_OPPONENT_HEALTH"`
	PassThreshold       float64 `yaml:"passThreshold" env:"BATTLE_PASS_THRESHOLD"`
	FeedbackDuration    string  `yaml:"feedbackDuration" env:"BATTLE_FEEDBACK_DURATION"`
}

// Load reads YAML config from path, then applies environment overrides.
// A missing file is not an error; env and defaults still apply.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	case !os.IsNotExist(err):
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Engine converts the battle section into an engine config. Unset fields stay
// zero so per-quiz mode overrides still pick their own question timer; the
// defaulted result is validated up front.
func (b Battle) Engine() (battle.Config, error) {
	cfg := battle.Config{
		Mode:              domain.Mode(b.Mode),
		HitChance:         b.HitChance,
		SkillMultiplier:   b.SkillMultiplier,
		SuddenDeathDamage: b.SuddenDeathDamage,
		PlayerHealth:      b.PlayerHealth,
		OpponentHealth:    b.OpponentHealth,
		PassThreshold:     b.PassThreshold,
	}
	switch len(b.DamageRange) {
	case 0:
	case 2:
		cfg.MinDamage, cfg.MaxDamage = b.DamageRange[0], b.DamageRange[1]
	default:
		return battle.Config{}, fmt.Errorf("damageRange needs [min, max], got %v: %w", b.DamageRange, domain.ErrInvalidDamageRange)
	}
	if b.SuddenDeathWindow != nil {
		if *b.SuddenDeathWindow == 0 {
			cfg.DisableSuddenDeath = true
		}
		cfg.SuddenDeathWindow = *b.SuddenDeathWindow
	}

	durations := []struct {
		name         string
		raw          string
		target       *time.Duration
		zeroDisables bool
	}{
		{"perQuestionDuration", b.PerQuestionDuration, &cfg.PerQuestionDuration, false},
		{"skillActiveDuration", b.SkillActiveDuration, &cfg.SkillActiveDuration, false},
		{"skillCooldownDuration", b.SkillCooldown, &cfg.SkillCooldown, false},
		{"feedbackDuration", b.FeedbackDuration, &cfg.FeedbackDuration, true},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil || parsed < 0 || (parsed == 0 && !d.zeroDisables) {
			return battle.Config{}, fmt.Errorf("%s %q: %w", d.name, d.raw, domain.ErrInvalidDuration)
		}
		if parsed == 0 {
			cfg.DisableFeedback = true
		}
		*d.target = parsed
	}

	if err := cfg.WithDefaults().Validate(); err != nil {
		return battle.Config{}, err
	}
	return cfg, nil
}
