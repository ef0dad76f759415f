package app

import (
	"log"
	"sync"
	"time"

	"quiz-battle-service/internal/battle"
	"quiz-battle-service/internal/domain"
)

// Battle is a hosted battle session. The engine session is single-threaded, so
// every call into it goes through mu.
type Battle struct {
	id        string
	quizID    string
	playerID  string
	createdAt time.Time
	now       func() time.Time

	mu          sync.Mutex
	session     *battle.Session
	subscribers map[chan domain.Event]struct{}
	closed      bool
}

// NewBattle is exported for infrastructure layers and tests that need to seed battles.
func NewBattle(id, quizID, playerID string, questions []domain.Question, cfg battle.Config, opts ...battle.Option) (*Battle, error) {
	return newBattleWithClock(id, quizID, playerID, questions, cfg, time.Now, opts...)
}

func newBattleWithClock(id, quizID, playerID string, questions []domain.Question, cfg battle.Config, now func() time.Time, opts ...battle.Option) (*Battle, error) {
	b := &Battle{
		id:          id,
		quizID:      quizID,
		playerID:    playerID,
		createdAt:   now(),
		now:         now,
		subscribers: make(map[chan domain.Event]struct{}),
	}
	listener := battle.ListenerFuncs{
		RoundOutcome:    b.onRoundOutcome,
		SuddenDeath:     b.onSuddenDeath,
		SessionFinished: b.onSessionFinished,
	}
	opts = append(opts, battle.WithListener(listener))

	b.mu.Lock()
	defer b.mu.Unlock()
	session, err := battle.Start(questions, cfg, opts...)
	if err != nil {
		return nil, err
	}
	b.session = session
	return b, nil
}

func (b *Battle) ID() string { return b.id }

func (b *Battle) QuizID() string { return b.quizID }

func (b *Battle) PlayerID() string { return b.playerID }

func (b *Battle) CreatedAt() time.Time { return b.createdAt }

// Finished reports whether the battle reached a terminal phase.
func (b *Battle) Finished() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session.State().Phase == domain.PhaseFinished
}

func (b *Battle) tick(dt time.Duration) domain.Phase {
	b.mu.Lock()
	defer b.mu.Unlock()

	before := b.session.State()
	phase := b.session.Tick(dt)
	after := b.session.State()
	if before.Phase != after.Phase || before.CurrentQuestionIndex != after.CurrentQuestionIndex || before.SkillActive != after.SkillActive {
		b.broadcastLocked(domain.Event{Type: domain.EventState, State: &after})
	}
	return phase
}

func (b *Battle) submitAnswer(text string) (domain.RoundOutcome, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	outcome, ok := b.session.SubmitAnswer(text)
	if ok {
		b.broadcastStateLocked()
	}
	return outcome, ok
}

func (b *Battle) submitVerdict(verdict domain.Verdict) (domain.RoundOutcome, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	outcome, ok := b.session.SubmitVerdict(verdict)
	if ok {
		b.broadcastStateLocked()
	}
	return outcome, ok
}

func (b *Battle) activateSkill() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.session.ActivateSkill(); err != nil {
		return err
	}
	b.broadcastStateLocked()
	return nil
}

func (b *Battle) snapshot() domain.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session.State()
}

func (b *Battle) result() (domain.Result, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session.Result()
}

// subscribe returns a channel of battle events primed with the current state.
func (b *Battle) subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	b.mu.Lock()
	state := b.session.State()
	ch <- b.stampLocked(domain.Event{Type: domain.EventState, State: &state})
	if b.closed {
		close(ch)
		b.mu.Unlock()
		return ch, func() {}
	}
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// close ends every subscription. The battle itself is simply dropped.
func (b *Battle) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
}

// Listener callbacks run inside session calls, which already hold mu.

func (b *Battle) onRoundOutcome(outcome domain.RoundOutcome) {
	b.broadcastLocked(domain.Event{Type: domain.EventRoundOutcome, Outcome: &outcome})
}

func (b *Battle) onSuddenDeath(damageEach int) {
	b.broadcastLocked(domain.Event{Type: domain.EventSuddenDeath, DamageEach: damageEach})
}

func (b *Battle) onSessionFinished(reason domain.FinishReason, score int) {
	log.Printf("battle %s finished: reason=%s score=%d", b.id, reason, score)
	// session is still nil when an empty quiz finishes inside battle.Start.
	result := domain.Result{Reason: reason, Score: score}
	if b.session != nil {
		result, _ = b.session.Result()
	}
	b.broadcastLocked(domain.Event{Type: domain.EventFinished, Result: &result})
}

func (b *Battle) broadcastStateLocked() {
	state := b.session.State()
	b.broadcastLocked(domain.Event{Type: domain.EventState, State: &state})
}

func (b *Battle) broadcastLocked(event domain.Event) {
	event = b.stampLocked(event)
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Drop the oldest queued event so a slow client never blocks the driver.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

func (b *Battle) stampLocked(event domain.Event) domain.Event {
	event.BattleID = b.id
	event.OccurredAt = b.now()
	return event
}
