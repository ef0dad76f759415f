package domain

import "time"

// Question is a single prompt with its expected answer and the feedback shown after it resolves.
type Question struct {
	Prompt        string `json:"prompt" yaml:"prompt"`
	CorrectAnswer string `json:"correctAnswer" yaml:"answer"`
	Feedback      string `json:"feedback" yaml:"feedback"`
}

// Mode is the presentation style a quiz is played in. It only affects the answer timer length.
type Mode string

const (
	ModeJumble Mode = "jumble"
	ModeSwipe  Mode = "swipe"
	ModeChoice Mode = "choice"
)

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID        string     `json:"id" yaml:"id"`
	Mode      Mode       `json:"mode,omitempty" yaml:"mode"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Verdict classifies a round's answer.
type Verdict int

const (
	VerdictCorrect Verdict = iota + 1
	VerdictIncorrect
	VerdictTimedOut
)

func (v Verdict) String() string {
	switch v {
	case VerdictCorrect:
		return "correct"
	case VerdictIncorrect:
		return "incorrect"
	case VerdictTimedOut:
		return "timedOut"
	default:
		return "unknown"
	}
}

func (v Verdict) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// Side identifies a combatant.
type Side int

const (
	SidePlayer Side = iota + 1
	SideOpponent
)

func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideOpponent:
		return "opponent"
	default:
		return "unknown"
	}
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Phase is the round state machine position.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInRound
	PhaseAwaitingResolution
	PhaseTransitioning
	PhaseSuddenDeath
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "notStarted"
	case PhaseInRound:
		return "inRound"
	case PhaseAwaitingResolution:
		return "awaitingResolution"
	case PhaseTransitioning:
		return "transitioning"
	case PhaseSuddenDeath:
		return "suddenDeath"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Answering reports whether the phase accepts a verdict.
func (p Phase) Answering() bool {
	return p == PhaseInRound || p == PhaseSuddenDeath
}

// FinishReason explains why a battle ended.
type FinishReason int

const (
	FinishNone FinishReason = iota
	FinishExhausted
	FinishPlayerDefeated
	FinishOpponentDefeated
)

func (r FinishReason) String() string {
	switch r {
	case FinishNone:
		return ""
	case FinishExhausted:
		return "exhausted"
	case FinishPlayerDefeated:
		return "playerDefeated"
	case FinishOpponentDefeated:
		return "opponentDefeated"
	default:
		return "unknown"
	}
}

func (r FinishReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// RoundOutcome is produced once per round and handed to the presentation layer.
type RoundOutcome struct {
	QuestionIndex int     `json:"questionIndex"`
	Verdict       Verdict `json:"verdict"`
	Hit           bool    `json:"hit"`
	Damage        int     `json:"damage"`
	Defender      Side    `json:"defender"`
	Fatal         bool    `json:"fatal"`
	SkillBoosted  bool    `json:"skillBoosted"`
	Feedback      string  `json:"feedback"`
}

// Snapshot is a read-only view of a battle for rendering.
type Snapshot struct {
	Phase                  Phase         `json:"phase"`
	FinishReason           FinishReason  `json:"finishReason,omitempty"`
	Score                  int           `json:"score"`
	PlayerHealth           int           `json:"playerHealth"`
	PlayerMaxHealth        int           `json:"playerMaxHealth"`
	OpponentHealth         int           `json:"opponentHealth"`
	OpponentMaxHealth      int           `json:"opponentMaxHealth"`
	CurrentQuestionIndex   int           `json:"currentQuestionIndex"`
	TotalQuestions         int           `json:"totalQuestions"`
	Prompt                 string        `json:"prompt"`
	TimeRemaining          time.Duration `json:"timeRemaining"`
	SkillActive            bool          `json:"skillActive"`
	SkillReady             bool          `json:"skillReady"`
	SkillCooldownRemaining time.Duration `json:"skillCooldownRemaining"`
}

// Result summarizes a finished battle.
type Result struct {
	Reason FinishReason `json:"reason"`
	Score  int          `json:"score"`
	Total  int          `json:"total"`
	Passed bool         `json:"passed"`
}

// EventType tags battle events streamed to subscribers.
type EventType string

const (
	EventRoundOutcome EventType = "roundOutcome"
	EventSuddenDeath  EventType = "suddenDeath"
	EventFinished     EventType = "finished"
	EventState        EventType = "state"
)

// Event is a single battle notification. Only the field matching Type is set.
type Event struct {
	BattleID   string        `json:"battleId"`
	Type       EventType     `json:"type"`
	Outcome    *RoundOutcome `json:"outcome,omitempty"`
	DamageEach int           `json:"damageEach,omitempty"`
	Result     *Result       `json:"result,omitempty"`
	State      *Snapshot     `json:"state,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}
