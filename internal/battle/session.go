package battle

import (
	"errors"
	"time"

	"quiz-battle-service/internal/domain"
)

// Listener reacts to battle signals. Callbacks run after the call that
// produced them has finished its transitions, so State is consistent.
type Listener interface {
	OnRoundOutcome(outcome domain.RoundOutcome)
	OnSuddenDeath(damageEach int)
	OnSessionFinished(reason domain.FinishReason, score int)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	RoundOutcome    func(domain.RoundOutcome)
	SuddenDeath     func(damageEach int)
	SessionFinished func(reason domain.FinishReason, score int)
}

func (f ListenerFuncs) OnRoundOutcome(outcome domain.RoundOutcome) {
	if f.RoundOutcome != nil {
		f.RoundOutcome(outcome)
	}
}

func (f ListenerFuncs) OnSuddenDeath(damageEach int) {
	if f.SuddenDeath != nil {
		f.SuddenDeath(damageEach)
	}
}

func (f ListenerFuncs) OnSessionFinished(reason domain.FinishReason, score int) {
	if f.SessionFinished != nil {
		f.SessionFinished(reason, score)
	}
}

// Option customizes a Session.
type Option func(*Session)

// WithRandomSource replaces the crypto-seeded default source.
func WithRandomSource(rnd RandomSource) Option {
	return func(s *Session) { s.rnd = rnd }
}

func WithListener(l Listener) Option {
	return func(s *Session) { s.listener = l }
}

// Session owns one battle: the question set, both health pools, the skill and
// the score, plus the round controller that drives them. It is not safe for
// concurrent use; a single driver calls Tick and input arrives between ticks.
type Session struct {
	cfg       Config
	questions *QuestionSet
	player    *HealthPool
	opponent  *HealthPool
	skill     *SkillState
	score     Score
	rounds    *RoundController
	rnd       RandomSource
	listener  Listener
	pending   []func(Listener)
}

// Start builds a session and opens its first round. Config errors are
// returned; an empty question set yields a session that is already finished
// as exhausted.
func Start(questions []domain.Question, cfg Config, opts ...Option) (*Session, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	player, err := NewHealthPool(cfg.PlayerHealth)
	if err != nil {
		return nil, err
	}
	opponent, err := NewHealthPool(cfg.OpponentHealth)
	if err != nil {
		return nil, err
	}
	skill, err := NewSkillState(cfg.SkillActiveDuration, cfg.SkillCooldown)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:       cfg,
		questions: NewQuestionSet(questions),
		player:    player,
		opponent:  opponent,
		skill:     skill,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		if s.rnd, err = NewSource(); err != nil {
			return nil, err
		}
	}

	s.rounds = newRoundController(cfg, roundDeps{
		questions: s.questions,
		resolver:  NewResolver(cfg, s.rnd),
		skill:     s.skill,
		player:    s.player,
		opponent:  s.opponent,
		score:     &s.score,
		notify:    s,
	})
	if err := s.rounds.BeginRound(0); err != nil && !errors.Is(err, domain.ErrEmptyQuestionSet) {
		return nil, err
	}
	s.flush()
	return s, nil
}

// Tick advances the skill and the round state machine by dt.
func (s *Session) Tick(dt time.Duration) domain.Phase {
	if s.done() {
		return domain.PhaseFinished
	}
	s.skill.Tick(dt)
	phase := s.rounds.Tick(dt)
	s.flush()
	return phase
}

// SubmitAnswer resolves the open round with a free-text answer. ok is false
// when the round already has a verdict or no round is open.
func (s *Session) SubmitAnswer(text string) (outcome domain.RoundOutcome, ok bool) {
	outcome, ok = s.rounds.Submit(text)
	s.flush()
	return outcome, ok
}

// SubmitVerdict resolves the open round with an externally judged verdict.
func (s *Session) SubmitVerdict(verdict domain.Verdict) (outcome domain.RoundOutcome, ok bool) {
	outcome, ok = s.rounds.SubmitVerdict(verdict)
	s.flush()
	return outcome, ok
}

// ActivateSkill turns on the player's damage boost.
func (s *Session) ActivateSkill() error {
	if s.done() {
		return domain.ErrSessionFinished
	}
	return s.skill.Activate()
}

// State returns a snapshot for rendering.
func (s *Session) State() domain.Snapshot {
	snap := domain.Snapshot{
		Phase:                  s.rounds.Phase(),
		FinishReason:           s.rounds.Reason(),
		Score:                  s.score.Value(),
		PlayerHealth:           s.player.Current(),
		PlayerMaxHealth:        s.player.Max(),
		OpponentHealth:         s.opponent.Current(),
		OpponentMaxHealth:      s.opponent.Max(),
		CurrentQuestionIndex:   s.rounds.Index(),
		TotalQuestions:         s.questions.Len(),
		TimeRemaining:          s.rounds.TimeRemaining(),
		SkillActive:            s.skill.Active(),
		SkillReady:             s.skill.Ready(),
		SkillCooldownRemaining: s.skill.CooldownRemaining(),
	}
	if s.questions.Len() > 0 {
		snap.Prompt = s.rounds.Question().Prompt
	}
	return snap
}

// Result reports the final outcome once the battle has finished.
func (s *Session) Result() (domain.Result, bool) {
	if !s.done() {
		return domain.Result{}, false
	}
	return s.result(), true
}

func (s *Session) result() domain.Result {
	total := s.questions.Len()
	score := s.score.Value()
	passed := total > 0 && float64(score)/float64(total) >= s.cfg.PassThreshold
	return domain.Result{
		Reason: s.rounds.Reason(),
		Score:  score,
		Total:  total,
		Passed: passed,
	}
}

func (s *Session) Config() Config { return s.cfg }

func (s *Session) done() bool {
	return s.rounds.Phase() == domain.PhaseFinished
}

func (s *Session) roundOutcome(outcome domain.RoundOutcome) {
	s.pending = append(s.pending, func(l Listener) { l.OnRoundOutcome(outcome) })
}

func (s *Session) suddenDeath(damageEach int) {
	s.pending = append(s.pending, func(l Listener) { l.OnSuddenDeath(damageEach) })
}

func (s *Session) finished(reason domain.FinishReason) {
	score := s.score.Value()
	s.pending = append(s.pending, func(l Listener) { l.OnSessionFinished(reason, score) })
}

// flush delivers queued signals. Signals raised by listener callbacks are
// delivered in the same pass.
func (s *Session) flush() {
	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		if s.listener != nil {
			next(s.listener)
		}
	}
}
