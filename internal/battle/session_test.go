package battle

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"quiz-battle-service/internal/domain"
)

type recorder struct {
	outcomes    []domain.RoundOutcome
	suddenDeath []int
	finished    []domain.FinishReason
	finalScore  int
}

func (r *recorder) listener() Listener {
	return ListenerFuncs{
		RoundOutcome: func(o domain.RoundOutcome) { r.outcomes = append(r.outcomes, o) },
		SuddenDeath:  func(d int) { r.suddenDeath = append(r.suddenDeath, d) },
		SessionFinished: func(reason domain.FinishReason, score int) {
			r.finished = append(r.finished, reason)
			r.finalScore = score
		},
	}
}

func singleQuestion() []domain.Question {
	return []domain.Question{{Prompt: "2+2", CorrectAnswer: "4", Feedback: "Two pairs make four."}}
}

func numberedQuestions(n int) []domain.Question {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			Prompt:        fmt.Sprintf("%d+1", i),
			CorrectAnswer: fmt.Sprintf("%d", i+1),
		}
	}
	return questions
}

func alwaysHit() Config {
	return Config{HitChance: 1, MinDamage: 10, MaxDamage: 10, DisableFeedback: true, DisableSuddenDeath: true}
}

func startSession(t *testing.T, questions []domain.Question, cfg Config, rnd RandomSource, rec *recorder) *Session {
	t.Helper()
	s, err := Start(questions, cfg, WithRandomSource(rnd), WithListener(rec.listener()))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func TestCorrectAnswerDamagesOpponent(t *testing.T) {
	rec := &recorder{}
	s := startSession(t, singleQuestion(), alwaysHit(), fixedSource{damage: 10}, rec)

	outcome, ok := s.SubmitAnswer("4")
	if !ok {
		t.Fatalf("expected submission accepted")
	}
	if outcome.Verdict != domain.VerdictCorrect || !outcome.Hit || outcome.Damage != 10 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	state := s.State()
	if state.OpponentHealth != 90 || state.PlayerHealth != 100 || state.Score != 1 {
		t.Fatalf("unexpected state %+v", state)
	}
	if state.Phase != domain.PhaseFinished || state.FinishReason != domain.FinishExhausted {
		t.Fatalf("expected finished exhausted, got %s/%s", state.Phase, state.FinishReason)
	}
	if len(rec.finished) != 1 || rec.finalScore != 1 {
		t.Fatalf("expected one finish signal with score 1, got %v score=%d", rec.finished, rec.finalScore)
	}
	result, ok := s.Result()
	if !ok || !result.Passed || result.Total != 1 {
		t.Fatalf("unexpected result %+v ok=%v", result, ok)
	}
}

func TestWrongAnswerDamagesPlayer(t *testing.T) {
	rec := &recorder{}
	s := startSession(t, singleQuestion(), alwaysHit(), fixedSource{damage: 10}, rec)

	outcome, _ := s.SubmitAnswer("5")
	if outcome.Verdict != domain.VerdictIncorrect || outcome.Defender != domain.SidePlayer {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	state := s.State()
	if state.PlayerHealth != 90 || state.OpponentHealth != 100 || state.Score != 0 {
		t.Fatalf("unexpected state %+v", state)
	}
	if state.FinishReason != domain.FinishExhausted {
		t.Fatalf("expected exhausted, got %s", state.FinishReason)
	}
	if result, _ := s.Result(); result.Passed {
		t.Fatalf("zero score must not pass")
	}
}

func TestAnswerComparisonIgnoresCaseAndSpace(t *testing.T) {
	rec := &recorder{}
	questions := []domain.Question{{Prompt: "Capital of France", CorrectAnswer: "Paris"}}
	s := startSession(t, questions, alwaysHit(), fixedSource{damage: 10}, rec)

	if outcome, _ := s.SubmitAnswer("  pARIS \n"); outcome.Verdict != domain.VerdictCorrect {
		t.Fatalf("expected correct verdict, got %s", outcome.Verdict)
	}
}

func TestEmptyAnswerIsIncorrect(t *testing.T) {
	rec := &recorder{}
	questions := []domain.Question{{Prompt: "Say nothing", CorrectAnswer: ""}}
	s := startSession(t, questions, alwaysHit(), fixedSource{damage: 10}, rec)

	if outcome, _ := s.SubmitAnswer("   "); outcome.Verdict != domain.VerdictIncorrect {
		t.Fatalf("expected incorrect verdict, got %s", outcome.Verdict)
	}
}

func TestRoundTimesOut(t *testing.T) {
	rec := &recorder{}
	cfg := alwaysHit()
	cfg.PerQuestionDuration = 5 * time.Second
	s := startSession(t, singleQuestion(), cfg, fixedSource{damage: 10}, rec)

	for i := 0; i < 4; i++ {
		if phase := s.Tick(time.Second); phase != domain.PhaseInRound {
			t.Fatalf("tick %d: expected open round, got %s", i, phase)
		}
	}
	if s.State().TimeRemaining != time.Second {
		t.Fatalf("expected 1s left, got %s", s.State().TimeRemaining)
	}
	if phase := s.Tick(1500 * time.Millisecond); phase != domain.PhaseFinished {
		t.Fatalf("expected finished after timeout, got %s", phase)
	}

	if len(rec.outcomes) != 1 {
		t.Fatalf("expected exactly one outcome, got %d", len(rec.outcomes))
	}
	outcome := rec.outcomes[0]
	if outcome.Verdict != domain.VerdictTimedOut || outcome.Defender != domain.SidePlayer || outcome.Damage != 10 {
		t.Fatalf("unexpected timeout outcome %+v", outcome)
	}
	if _, ok := s.SubmitAnswer("4"); ok {
		t.Fatalf("submission after timeout must be ignored")
	}
}

func TestOneVerdictPerRound(t *testing.T) {
	rec := &recorder{}
	cfg := Config{HitChance: 1, MinDamage: 10, MaxDamage: 10, FeedbackDuration: 2 * time.Second, DisableSuddenDeath: true}
	s := startSession(t, numberedQuestions(2), cfg, fixedSource{damage: 10}, rec)

	if _, ok := s.SubmitAnswer("1"); !ok {
		t.Fatalf("first submission rejected")
	}
	if _, ok := s.SubmitAnswer("1"); ok {
		t.Fatalf("duplicate submission accepted")
	}
	if _, ok := s.SubmitVerdict(domain.VerdictCorrect); ok {
		t.Fatalf("duplicate verdict accepted")
	}
	if s.State().Phase != domain.PhaseTransitioning {
		t.Fatalf("expected feedback hold, got %s", s.State().Phase)
	}

	s.Tick(time.Second)
	if s.State().CurrentQuestionIndex != 0 {
		t.Fatalf("advanced before feedback finished")
	}
	s.Tick(time.Second)
	state := s.State()
	if state.Phase != domain.PhaseInRound || state.CurrentQuestionIndex != 1 || state.Prompt != "1+1" {
		t.Fatalf("expected second round, got %+v", state)
	}
	if len(rec.outcomes) != 1 || state.Score != 1 || state.OpponentHealth != 90 {
		t.Fatalf("expected a single resolution, outcomes=%d state=%+v", len(rec.outcomes), state)
	}
}

func TestSuddenDeathHitsBothPoolsInFinalRounds(t *testing.T) {
	rec := &recorder{}
	cfg := Config{HitChance: 0.5, PlayerHealth: 1000, OpponentHealth: 1000, DisableFeedback: true}
	s := startSession(t, numberedQuestions(10), cfg, fixedSource{roll: 0.9}, rec)

	for i := 0; i < 10; i++ {
		state := s.State()
		wantPhase := domain.PhaseInRound
		if i >= 7 {
			wantPhase = domain.PhaseSuddenDeath
		}
		if state.CurrentQuestionIndex != i || state.Phase != wantPhase {
			t.Fatalf("round %d: got index %d phase %s", i, state.CurrentQuestionIndex, state.Phase)
		}
		// alternate right and wrong answers; every roll misses
		answer := "wrong"
		if i%2 == 0 {
			answer = fmt.Sprintf("%d", i+1)
		}
		s.SubmitAnswer(answer)
	}

	if len(rec.suddenDeath) != 3 {
		t.Fatalf("expected 3 sudden death rounds, got %d", len(rec.suddenDeath))
	}
	state := s.State()
	if state.PlayerHealth != 970 || state.OpponentHealth != 970 {
		t.Fatalf("expected 30 chip damage each, got %d/%d", state.PlayerHealth, state.OpponentHealth)
	}
	if state.FinishReason != domain.FinishExhausted || state.Score != 5 {
		t.Fatalf("unexpected end state %+v", state)
	}
}

func TestSuddenDeathDefeatTakesPriority(t *testing.T) {
	rec := &recorder{}
	cfg := Config{HitChance: 0.5, OpponentHealth: 10, DisableFeedback: true}
	s := startSession(t, numberedQuestions(5), cfg, fixedSource{roll: 0.9}, rec)

	s.SubmitAnswer("1")
	s.SubmitAnswer("2")
	if s.State().Phase != domain.PhaseSuddenDeath {
		t.Fatalf("expected sudden death round, got %s", s.State().Phase)
	}
	s.SubmitAnswer("nope")

	state := s.State()
	if state.Phase != domain.PhaseFinished || state.FinishReason != domain.FinishOpponentDefeated {
		t.Fatalf("expected opponent defeated, got %s/%s", state.Phase, state.FinishReason)
	}
	if state.OpponentHealth != 0 || state.PlayerHealth != 90 {
		t.Fatalf("unexpected health %d/%d", state.PlayerHealth, state.OpponentHealth)
	}
	if state.CurrentQuestionIndex != 2 {
		t.Fatalf("battle should end on round 2, got %d", state.CurrentQuestionIndex)
	}
}

func TestPlayerDefeatWinsTie(t *testing.T) {
	rec := &recorder{}
	cfg := Config{HitChance: 0.5, PlayerHealth: 10, OpponentHealth: 10, DisableFeedback: true}
	s := startSession(t, numberedQuestions(3), cfg, fixedSource{roll: 0.9}, rec)

	s.SubmitAnswer("1")
	if reason := s.State().FinishReason; reason != domain.FinishPlayerDefeated {
		t.Fatalf("expected player defeated on a double knockout, got %s", reason)
	}
}

func TestSkillBoostsNextHit(t *testing.T) {
	rec := &recorder{}
	cfg := alwaysHit()
	cfg.PerQuestionDuration = time.Minute
	s := startSession(t, numberedQuestions(3), cfg, fixedSource{damage: 10}, rec)

	if err := s.ActivateSkill(); err != nil {
		t.Fatalf("activate: %v", err)
	}
	outcome, _ := s.SubmitAnswer("1")
	if outcome.Damage != 20 || !outcome.SkillBoosted {
		t.Fatalf("expected boosted 20 damage, got %+v", outcome)
	}
	if s.State().OpponentHealth != 80 {
		t.Fatalf("expected opponent at 80, got %d", s.State().OpponentHealth)
	}

	if err := s.ActivateSkill(); !errors.Is(err, domain.ErrOnCooldown) {
		t.Fatalf("expected cooldown refusal, got %v", err)
	}
	s.Tick(3 * time.Second)
	if s.State().SkillActive {
		t.Fatalf("skill should have expired")
	}
	outcome, _ = s.SubmitAnswer("2")
	if outcome.Damage != 10 {
		t.Fatalf("expected unboosted damage, got %d", outcome.Damage)
	}

	s.Tick(27 * time.Second)
	if !s.State().SkillReady {
		t.Fatalf("expected skill ready after cooldown")
	}
	if err := s.ActivateSkill(); err != nil {
		t.Fatalf("expected reactivation, got %v", err)
	}
}

func TestSkillWindowRunsThroughFeedbackHold(t *testing.T) {
	rec := &recorder{}
	cfg := alwaysHit()
	cfg.DisableFeedback = false
	cfg.FeedbackDuration = 2 * time.Second
	cfg.PerQuestionDuration = time.Minute
	s := startSession(t, numberedQuestions(3), cfg, fixedSource{damage: 10}, rec)

	if err := s.ActivateSkill(); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if outcome, _ := s.SubmitAnswer("1"); outcome.Damage != 20 {
		t.Fatalf("expected boosted hit, got %+v", outcome)
	}

	s.Tick(2 * time.Second)
	state := s.State()
	if state.Phase != domain.PhaseInRound || state.CurrentQuestionIndex != 1 || !state.SkillActive {
		t.Fatalf("expected second round with skill still active, got %+v", state)
	}

	s.Tick(time.Second)
	if s.State().SkillActive {
		t.Fatalf("expected skill to wear off 3s after activation")
	}
	if outcome, _ := s.SubmitAnswer("2"); outcome.Damage != 10 || outcome.SkillBoosted {
		t.Fatalf("expected unboosted hit, got %+v", outcome)
	}
}

func TestEmptyQuestionSetFinishesImmediately(t *testing.T) {
	rec := &recorder{}
	s := startSession(t, nil, Config{}, fixedSource{}, rec)

	state := s.State()
	if state.Phase != domain.PhaseFinished || state.FinishReason != domain.FinishExhausted {
		t.Fatalf("expected exhausted, got %s/%s", state.Phase, state.FinishReason)
	}
	if len(rec.finished) != 1 {
		t.Fatalf("expected finish signal")
	}
	if _, ok := s.SubmitAnswer("x"); ok {
		t.Fatalf("no round to answer")
	}
	if err := s.ActivateSkill(); !errors.Is(err, domain.ErrSessionFinished) {
		t.Fatalf("expected finished error, got %v", err)
	}
}

func TestBeginRoundOnEmptySet(t *testing.T) {
	rec := &recorder{}
	s := startSession(t, nil, Config{}, fixedSource{}, rec)
	rc := newRoundController(s.cfg, roundDeps{
		questions: NewQuestionSet(nil),
		resolver:  NewResolver(s.cfg, fixedSource{}),
		skill:     s.skill,
		player:    s.player,
		opponent:  s.opponent,
		score:     &Score{},
		notify:    s,
	})
	if err := rc.BeginRound(0); !errors.Is(err, domain.ErrEmptyQuestionSet) {
		t.Fatalf("expected empty set error, got %v", err)
	}
	if rc.Phase() != domain.PhaseFinished || rc.Reason() != domain.FinishExhausted {
		t.Fatalf("expected controller finished as exhausted")
	}
}

func TestInvalidConfigIsFatal(t *testing.T) {
	_, err := Start(singleQuestion(), Config{PerQuestionDuration: -time.Second})
	if !errors.Is(err, domain.ErrInvalidDuration) {
		t.Fatalf("expected invalid duration, got %v", err)
	}
	_, err = Start(singleQuestion(), Config{HitChance: 1.5})
	if !errors.Is(err, domain.ErrInvalidHitChance) {
		t.Fatalf("expected invalid hit chance, got %v", err)
	}
	_, err = Start(singleQuestion(), Config{MinDamage: 20, MaxDamage: 10})
	if !errors.Is(err, domain.ErrInvalidDamageRange) {
		t.Fatalf("expected invalid damage range, got %v", err)
	}
}

func TestListenerSeesSettledState(t *testing.T) {
	var s *Session
	var seen []domain.Phase
	listener := ListenerFuncs{
		RoundOutcome: func(domain.RoundOutcome) { seen = append(seen, s.State().Phase) },
	}
	var err error
	s, err = Start(numberedQuestions(2), Config{HitChance: 1, DisableFeedback: true, DisableSuddenDeath: true},
		WithRandomSource(fixedSource{damage: 10}), WithListener(listener))
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	s.SubmitAnswer("1")
	if len(seen) != 1 || seen[0] != domain.PhaseInRound {
		t.Fatalf("listener should observe the next round, saw %v", seen)
	}
}

func TestModeSelectsAnswerTime(t *testing.T) {
	s, err := Start(singleQuestion(), Config{Mode: domain.ModeSwipe}, WithRandomSource(fixedSource{}))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.State().TimeRemaining != 10*time.Second {
		t.Fatalf("expected swipe timer, got %s", s.State().TimeRemaining)
	}
	s, _ = Start(singleQuestion(), Config{}, WithRandomSource(fixedSource{}))
	if s.State().TimeRemaining != 30*time.Second {
		t.Fatalf("expected jumble timer, got %s", s.State().TimeRemaining)
	}
}
