package domain

import "errors"

var (
	// ErrInvalidDuration is returned when a timer is configured with a non-positive duration.
	ErrInvalidDuration = errors.New("duration must be positive")
	// ErrOnCooldown is returned when the skill is activated before its cooldown elapsed.
	ErrOnCooldown = errors.New("skill is on cooldown")
	// ErrEmptyQuestionSet is returned when a round is requested from a set with no questions.
	ErrEmptyQuestionSet = errors.New("question set is empty")
	// ErrQuestionOutOfRange indicates a round index past the end of the question set.
	ErrQuestionOutOfRange = errors.New("question index out of range")
	// ErrInvalidHealth indicates a health pool with a non-positive maximum.
	ErrInvalidHealth = errors.New("max health must be positive")
	// ErrInvalidHitChance indicates a hit chance outside (0, 1].
	ErrInvalidHitChance = errors.New("hit chance must be in (0, 1]")
	// ErrInvalidDamageRange indicates a negative or inverted damage range.
	ErrInvalidDamageRange = errors.New("invalid damage range")
	// ErrInvalidConfig covers the remaining malformed battle settings.
	ErrInvalidConfig = errors.New("invalid battle config")
	// ErrSessionFinished is returned for actions on a battle that already ended.
	ErrSessionFinished = errors.New("battle session finished")

	// ErrBattleNotFound is returned when a hosted battle does not exist.
	ErrBattleNotFound = errors.New("battle not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
)
