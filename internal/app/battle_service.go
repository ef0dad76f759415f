package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"quiz-battle-service/internal/battle"
	"quiz-battle-service/internal/domain"
)

// BattleRepository abstracts where hosted battles are kept (in-memory, Redis-marked, etc).
type BattleRepository interface {
	Put(b *Battle)
	Get(battleID string) (*Battle, bool)
	Delete(battleID string)
	All() []*Battle
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// BattleService hosts quiz battles and is their single tick driver.
type BattleService struct {
	battles BattleRepository
	quizzes QuizRepository
	cfg     battle.Config
	now     func() time.Time
	newID   func() string
	source  func() (battle.RandomSource, error)
}

// ServiceOption customizes a BattleService.
type ServiceOption func(*BattleService)

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *BattleService) { s.now = now }
}

func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *BattleService) { s.newID = newID }
}

// WithRandomSources sets the factory used to seed each new battle.
func WithRandomSources(source func() (battle.RandomSource, error)) ServiceOption {
	return func(s *BattleService) { s.source = source }
}

func NewBattleService(battles BattleRepository, quizzes QuizRepository, cfg battle.Config, opts ...ServiceOption) *BattleService {
	s := &BattleService{
		battles: battles,
		quizzes: quizzes,
		cfg:     cfg,
		now:     time.Now,
		newID:   uuid.NewString,
		source:  battle.NewSource,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads a quiz and opens a new battle on its first question.
func (s *BattleService) Start(ctx context.Context, quizID, playerID string) (string, domain.Snapshot, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return "", domain.Snapshot{}, err
	}

	cfg := s.cfg
	if quiz.Mode != "" {
		cfg.Mode = quiz.Mode
	}
	rnd, err := s.source()
	if err != nil {
		return "", domain.Snapshot{}, err
	}

	id := s.newID()
	b, err := newBattleWithClock(id, quizID, playerID, quiz.Questions, cfg, s.now, battle.WithRandomSource(rnd))
	if err != nil {
		return "", domain.Snapshot{}, err
	}
	s.battles.Put(b)
	log.Printf("battle %s started: quiz=%s player=%s questions=%d", id, quizID, playerID, len(quiz.Questions))
	return id, b.snapshot(), nil
}

// Tick advances a single battle by dt.
func (s *BattleService) Tick(_ context.Context, battleID string, dt time.Duration) (domain.Phase, error) {
	b, ok := s.battles.Get(battleID)
	if !ok {
		return domain.PhaseNotStarted, domain.ErrBattleNotFound
	}
	return b.tick(dt), nil
}

// TickAll advances every unfinished battle by dt.
func (s *BattleService) TickAll(dt time.Duration) {
	for _, b := range s.battles.All() {
		b.tick(dt)
	}
}

// Run drives all battles every interval until ctx is done, passing the
// measured elapsed time to each tick.
func (s *BattleService) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := s.now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := s.now()
			s.TickAll(now.Sub(last))
			last = now
		}
	}
}

// SubmitAnswer resolves the open round of a battle with a typed answer.
// accepted is false when the round already has a verdict.
func (s *BattleService) SubmitAnswer(_ context.Context, battleID, text string) (outcome domain.RoundOutcome, accepted bool, err error) {
	b, ok := s.battles.Get(battleID)
	if !ok {
		return domain.RoundOutcome{}, false, domain.ErrBattleNotFound
	}
	outcome, accepted = b.submitAnswer(text)
	return outcome, accepted, nil
}

// SubmitVerdict resolves the open round with a verdict judged by the client.
func (s *BattleService) SubmitVerdict(_ context.Context, battleID string, correct bool) (domain.RoundOutcome, bool, error) {
	b, ok := s.battles.Get(battleID)
	if !ok {
		return domain.RoundOutcome{}, false, domain.ErrBattleNotFound
	}
	verdict := domain.VerdictIncorrect
	if correct {
		verdict = domain.VerdictCorrect
	}
	outcome, accepted := b.submitVerdict(verdict)
	return outcome, accepted, nil
}

// ActivateSkill triggers the player's skill.
func (s *BattleService) ActivateSkill(_ context.Context, battleID string) error {
	b, ok := s.battles.Get(battleID)
	if !ok {
		return domain.ErrBattleNotFound
	}
	return b.activateSkill()
}

// State returns the current snapshot of a battle.
func (s *BattleService) State(_ context.Context, battleID string) (domain.Snapshot, error) {
	b, ok := s.battles.Get(battleID)
	if !ok {
		return domain.Snapshot{}, domain.ErrBattleNotFound
	}
	return b.snapshot(), nil
}

// Result returns the final result once the battle finished.
func (s *BattleService) Result(_ context.Context, battleID string) (domain.Result, bool, error) {
	b, ok := s.battles.Get(battleID)
	if !ok {
		return domain.Result{}, false, domain.ErrBattleNotFound
	}
	result, done := b.result()
	return result, done, nil
}

// Subscribe returns a channel that receives battle events.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *BattleService) Subscribe(_ context.Context, battleID string) (<-chan domain.Event, func(), error) {
	b, ok := s.battles.Get(battleID)
	if !ok {
		return nil, nil, domain.ErrBattleNotFound
	}
	ch, cancel := b.subscribe()
	return ch, cancel, nil
}

// End tears a battle down. Open rounds are abandoned.
func (s *BattleService) End(_ context.Context, battleID string) {
	b, ok := s.battles.Get(battleID)
	if !ok {
		return
	}
	s.battles.Delete(battleID)
	b.close()
}
