package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/battle"
	"quiz-battle-service/internal/domain"
	"quiz-battle-service/internal/infra/memory"
)

func TestStartUsesQuizModeAndStreamsEvents(t *testing.T) {
	service := newService(t, battle.Config{FeedbackDuration: time.Second})
	ctx := context.Background()

	id, state, err := service.Start(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if id != "battle-1" {
		t.Fatalf("expected battle-1, got %s", id)
	}
	if state.Phase != domain.PhaseInRound || state.TimeRemaining != 10*time.Second || state.Prompt != "What is 2 + 2?" {
		t.Fatalf("unexpected initial state %+v", state)
	}

	events, cancel, err := service.Subscribe(ctx, id)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	if first := <-events; first.Type != domain.EventState || first.BattleID != id {
		t.Fatalf("expected primed state event, got %+v", first)
	}

	outcome, accepted, err := service.SubmitAnswer(ctx, id, "4")
	if err != nil || !accepted {
		t.Fatalf("submit: accepted=%v err=%v", accepted, err)
	}
	if outcome.Verdict != domain.VerdictCorrect || outcome.Defender != domain.SideOpponent || outcome.Damage != 10 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	// The feedback hold swallows a repeated answer.
	if _, again, _ := service.SubmitAnswer(ctx, id, "4"); again {
		t.Fatalf("expected duplicate submission rejected")
	}

	got := drain(events)
	if len(got) != 2 || got[0].Type != domain.EventRoundOutcome || got[1].Type != domain.EventState {
		t.Fatalf("unexpected events %+v", got)
	}
	if held := got[1].State; held.Phase != domain.PhaseTransitioning || held.CurrentQuestionIndex != 0 || held.OpponentHealth != 90 {
		t.Fatalf("expected feedback hold on first question, got %+v", held)
	}

	if _, err := service.Tick(ctx, id, time.Second); err != nil {
		t.Fatalf("tick: %v", err)
	}
	got = drain(events)
	if len(got) != 1 || got[0].Type != domain.EventState {
		t.Fatalf("expected one state event after the hold, got %+v", got)
	}
	if next := got[0].State; next.Phase != domain.PhaseInRound || next.CurrentQuestionIndex != 1 || next.Prompt != "What is 3 + 3?" {
		t.Fatalf("expected second question open, got %+v", next)
	}
}

func TestTickAllTimesOutAndFinishes(t *testing.T) {
	service := newService(t, battle.Config{})
	ctx := context.Background()

	id, _, err := service.Start(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	events, cancel, _ := service.Subscribe(ctx, id)
	defer cancel()
	<-events

	service.TickAll(10 * time.Second)
	service.TickAll(10 * time.Second)

	result, done, err := service.Result(ctx, id)
	if err != nil || !done {
		t.Fatalf("expected finished battle, done=%v err=%v", done, err)
	}
	if result.Reason != domain.FinishExhausted || result.Score != 0 || result.Passed {
		t.Fatalf("unexpected result %+v", result)
	}

	var outcomes, finished int
	for _, e := range drain(events) {
		switch e.Type {
		case domain.EventRoundOutcome:
			if e.Outcome.Verdict != domain.VerdictTimedOut {
				t.Fatalf("expected timeout verdict, got %s", e.Outcome.Verdict)
			}
			outcomes++
		case domain.EventFinished:
			finished++
		}
	}
	if outcomes != 2 || finished != 1 {
		t.Fatalf("expected 2 timeouts and 1 finish, got %d and %d", outcomes, finished)
	}

	if err := service.ActivateSkill(ctx, id); !errors.Is(err, domain.ErrSessionFinished) {
		t.Fatalf("expected session finished, got %v", err)
	}
}

func TestVerdictAndSkill(t *testing.T) {
	service := newService(t, battle.Config{})
	ctx := context.Background()
	id, _, _ := service.Start(ctx, "quiz-1", "u1")

	if err := service.ActivateSkill(ctx, id); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := service.ActivateSkill(ctx, id); !errors.Is(err, domain.ErrOnCooldown) {
		t.Fatalf("expected cooldown, got %v", err)
	}
	outcome, accepted, err := service.SubmitVerdict(ctx, id, true)
	if err != nil || !accepted {
		t.Fatalf("verdict: accepted=%v err=%v", accepted, err)
	}
	if !outcome.SkillBoosted || outcome.Damage != 20 {
		t.Fatalf("expected boosted hit, got %+v", outcome)
	}

	state, err := service.State(ctx, id)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.OpponentHealth != 80 || state.Score != 1 || state.SkillReady {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestUnknownBattleAndQuiz(t *testing.T) {
	service := newService(t, battle.Config{})
	ctx := context.Background()

	if _, _, err := service.Start(ctx, "missing", "u1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	if _, _, err := service.SubmitAnswer(ctx, "nope", "4"); !errors.Is(err, domain.ErrBattleNotFound) {
		t.Fatalf("expected battle not found, got %v", err)
	}
	if _, err := service.Tick(ctx, "nope", time.Second); !errors.Is(err, domain.ErrBattleNotFound) {
		t.Fatalf("expected battle not found, got %v", err)
	}
	if _, _, err := service.Subscribe(ctx, "nope"); !errors.Is(err, domain.ErrBattleNotFound) {
		t.Fatalf("expected battle not found, got %v", err)
	}
}

func TestEndClosesSubscriptions(t *testing.T) {
	service := newService(t, battle.Config{})
	ctx := context.Background()
	id, _, _ := service.Start(ctx, "quiz-1", "u1")

	events, cancel, err := service.Subscribe(ctx, id)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	service.End(ctx, id)
	for range events {
	}
	if _, err := service.State(ctx, id); !errors.Is(err, domain.ErrBattleNotFound) {
		t.Fatalf("expected battle removed, got %v", err)
	}
}

func TestEmptyQuizFinishesImmediately(t *testing.T) {
	service := newService(t, battle.Config{})
	ctx := context.Background()

	id, state, err := service.Start(ctx, "empty", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if state.Phase != domain.PhaseFinished || state.FinishReason != domain.FinishExhausted {
		t.Fatalf("expected exhausted battle, got %+v", state)
	}
	result, done, _ := service.Result(ctx, id)
	if !done || result.Total != 0 || result.Passed {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunDrivesBattles(t *testing.T) {
	service := newService(t, battle.Config{PerQuestionDuration: 20 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	id, _, err := service.Start(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	events, unsubscribe, _ := service.Subscribe(ctx, id)
	defer unsubscribe()

	go func() { _ = service.Run(ctx, 5*time.Millisecond) }()

	for {
		select {
		case e := <-events:
			if e.Type == domain.EventFinished {
				if e.Result.Reason != domain.FinishExhausted {
					t.Fatalf("unexpected result %+v", e.Result)
				}
				return
			}
		case <-ctx.Done():
			t.Fatalf("battle did not finish while running")
		}
	}
}

func newService(t *testing.T, cfg battle.Config) *app.BattleService {
	t.Helper()
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {
			ID:   "quiz-1",
			Mode: domain.ModeSwipe,
			Questions: []domain.Question{
				{Prompt: "What is 2 + 2?", CorrectAnswer: "4"},
				{Prompt: "What is 3 + 3?", CorrectAnswer: "6"},
			},
		},
		"empty": {ID: "empty"},
	}), time.Minute)

	cfg.HitChance = 1
	cfg.MinDamage, cfg.MaxDamage = 10, 10
	if cfg.FeedbackDuration == 0 {
		cfg.DisableFeedback = true
	}
	cfg.DisableSuddenDeath = true

	ids := 0
	return app.NewBattleService(memory.NewBattleStore(), quizzes, cfg,
		app.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("battle-%d", ids)
		}),
		app.WithRandomSources(func() (battle.RandomSource, error) {
			return battle.NewSeededSource(7), nil
		}),
	)
}

func drain(events <-chan domain.Event) []domain.Event {
	var got []domain.Event
	for {
		select {
		case e := <-events:
			got = append(got, e)
		default:
			return got
		}
	}
}
