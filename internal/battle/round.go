package battle

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"quiz-battle-service/internal/domain"
)

// Score counts correct answers. It only ever goes up.
type Score struct {
	correct int
}

func (s *Score) Increment() { s.correct++ }

func (s *Score) Value() int { return s.correct }

// notifier receives the controller's outbound signals.
type notifier interface {
	roundOutcome(domain.RoundOutcome)
	suddenDeath(damageEach int)
	finished(reason domain.FinishReason)
}

// RoundController runs the question rounds of one battle. It references the
// health pools, skill and score owned by the Session and mutates them only
// through their own operations.
type RoundController struct {
	questions *QuestionSet
	resolver  *Resolver
	skill     *SkillState
	player    *HealthPool
	opponent  *HealthPool
	score     *Score
	notify    notifier

	roundDuration     time.Duration
	feedbackDuration  time.Duration
	suddenDeathWindow int
	suddenDeathDamage int

	phase    domain.Phase
	reason   domain.FinishReason
	index    int
	question domain.Question
	answered bool
	timer    CooldownTimer
	feedback CooldownTimer
}

type roundDeps struct {
	questions *QuestionSet
	resolver  *Resolver
	skill     *SkillState
	player    *HealthPool
	opponent  *HealthPool
	score     *Score
	notify    notifier
}

func newRoundController(cfg Config, deps roundDeps) *RoundController {
	return &RoundController{
		questions:         deps.questions,
		resolver:          deps.resolver,
		skill:             deps.skill,
		player:            deps.player,
		opponent:          deps.opponent,
		score:             deps.score,
		notify:            deps.notify,
		roundDuration:     cfg.PerQuestionDuration,
		feedbackDuration:  cfg.FeedbackDuration,
		suddenDeathWindow: cfg.SuddenDeathWindow,
		suddenDeathDamage: cfg.SuddenDeathDamage,
		phase:             domain.PhaseNotStarted,
	}
}

// BeginRound presents the question at index and restarts the answer timer.
// An empty question set finishes the battle as exhausted.
func (rc *RoundController) BeginRound(index int) error {
	if rc.phase == domain.PhaseFinished {
		return domain.ErrSessionFinished
	}
	q, err := rc.questions.At(index)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuestionSet) {
			rc.finish(domain.FinishExhausted)
		}
		return err
	}
	if err := rc.timer.Start(rc.roundDuration); err != nil {
		return err
	}
	rc.feedback.Stop()
	rc.index = index
	rc.question = q
	rc.answered = false
	if rc.inSuddenDeath(index) {
		rc.phase = domain.PhaseSuddenDeath
	} else {
		rc.phase = domain.PhaseInRound
	}
	return nil
}

// Submit judges a free-text answer. It returns false when the round already
// has a verdict or no round is open.
func (rc *RoundController) Submit(candidate string) (domain.RoundOutcome, bool) {
	if !rc.phase.Answering() || rc.answered {
		return domain.RoundOutcome{}, false
	}
	verdict := domain.VerdictIncorrect
	if matchesAnswer(candidate, rc.question.CorrectAnswer) {
		verdict = domain.VerdictCorrect
	}
	return rc.resolve(verdict), true
}

// SubmitVerdict resolves the round with a verdict judged by the presentation
// layer (swipe cards, multiple choice).
func (rc *RoundController) SubmitVerdict(verdict domain.Verdict) (domain.RoundOutcome, bool) {
	if !rc.phase.Answering() || rc.answered {
		return domain.RoundOutcome{}, false
	}
	switch verdict {
	case domain.VerdictCorrect, domain.VerdictTimedOut:
	default:
		verdict = domain.VerdictIncorrect
	}
	return rc.resolve(verdict), true
}

// Tick runs the answer timer, then any pending round transition.
func (rc *RoundController) Tick(dt time.Duration) domain.Phase {
	switch {
	case rc.phase.Answering():
		if rc.timer.Tick(dt) && !rc.answered {
			rc.resolve(domain.VerdictTimedOut)
		}
	case rc.phase == domain.PhaseTransitioning:
		if rc.feedback.Tick(dt) {
			rc.advance()
		}
	}
	return rc.phase
}

func (rc *RoundController) resolve(verdict domain.Verdict) domain.RoundOutcome {
	rc.answered = true
	rc.timer.Stop()
	rc.phase = domain.PhaseAwaitingResolution

	outcome := rc.resolver.Resolve(verdict, rc.skill.Active(), rc.player, rc.opponent)
	outcome.QuestionIndex = rc.index
	outcome.Feedback = rc.question.Feedback
	if verdict == domain.VerdictCorrect {
		rc.score.Increment()
	}
	rc.notify.roundOutcome(outcome)

	rc.transition()
	return outcome
}

func (rc *RoundController) transition() {
	rc.phase = domain.PhaseTransitioning

	if rc.inSuddenDeath(rc.index) && rc.suddenDeathDamage > 0 {
		rc.player.ApplyDamage(rc.suddenDeathDamage)
		rc.opponent.ApplyDamage(rc.suddenDeathDamage)
		rc.notify.suddenDeath(rc.suddenDeathDamage)
	}

	switch {
	case rc.player.Depleted():
		rc.finish(domain.FinishPlayerDefeated)
		return
	case rc.opponent.Depleted():
		rc.finish(domain.FinishOpponentDefeated)
		return
	case rc.index+1 >= rc.questions.Len():
		rc.finish(domain.FinishExhausted)
		return
	}

	if rc.feedbackDuration > 0 {
		_ = rc.feedback.Start(rc.feedbackDuration)
		return
	}
	rc.advance()
}

func (rc *RoundController) advance() {
	if err := rc.BeginRound(rc.index + 1); err != nil {
		rc.finish(domain.FinishExhausted)
	}
}

func (rc *RoundController) finish(reason domain.FinishReason) {
	if rc.phase == domain.PhaseFinished {
		return
	}
	rc.timer.Stop()
	rc.feedback.Stop()
	rc.phase = domain.PhaseFinished
	rc.reason = reason
	rc.notify.finished(reason)
}

func (rc *RoundController) inSuddenDeath(index int) bool {
	return rc.suddenDeathWindow > 0 && index >= rc.questions.Len()-rc.suddenDeathWindow
}

func (rc *RoundController) Phase() domain.Phase { return rc.phase }

func (rc *RoundController) Reason() domain.FinishReason { return rc.reason }

func (rc *RoundController) Index() int { return rc.index }

func (rc *RoundController) Question() domain.Question { return rc.question }

// TimeRemaining is the answer time left in the open round.
func (rc *RoundController) TimeRemaining() time.Duration {
	if !rc.phase.Answering() {
		return 0
	}
	return rc.timer.Remaining()
}

// matchesAnswer compares answers ignoring surrounding space, case and Unicode
// composition. An empty candidate never matches.
func matchesAnswer(candidate, expected string) bool {
	c := normalizeAnswer(candidate)
	if c == "" {
		return false
	}
	return c == normalizeAnswer(expected)
}

func normalizeAnswer(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	return cases.Fold().String(s)
}
