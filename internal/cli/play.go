package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quiz-battle-service/internal/battle"
	"quiz-battle-service/internal/config"
	"quiz-battle-service/internal/domain"
	"quiz-battle-service/internal/infra/file"
)

const skillCommand = "!skill"

// NewPlayCmd runs a single battle in the terminal. Each input line is an
// answer; "!skill" activates the damage boost.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play <quiz.yaml>",
		Short: "Play a quiz battle in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			engineCfg, err := cfg.Battle.Engine()
			if err != nil {
				return err
			}
			quiz, err := file.ReadQuiz(args[0])
			if err != nil {
				return err
			}
			if quiz.Mode != "" {
				engineCfg.Mode = quiz.Mode
			}
			rnd, err := battle.NewSource()
			if err != nil {
				return err
			}
			_, err = playBattle(cmd.Context(), quiz.Questions, engineCfg, rnd, cmd.InOrStdin(), cmd.OutOrStdout(), 100*time.Millisecond)
			return err
		},
	}
}

// playBattle drives a session from line input until it finishes, the input
// runs out, or ctx is canceled. Answers that arrive while no round is open are
// held back and submitted in order once the next round starts.
func playBattle(ctx context.Context, questions []domain.Question, cfg battle.Config, rnd battle.RandomSource, in io.Reader, out io.Writer, interval time.Duration) (domain.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	listener := battle.ListenerFuncs{
		RoundOutcome: func(o domain.RoundOutcome) {
			printOutcome(out, o)
		},
		SuddenDeath: func(damageEach int) {
			fmt.Fprintf(out, "Sudden death! Both sides lose %d HP.\n", damageEach)
		},
	}
	session, err := battle.Start(questions, cfg, battle.WithRandomSource(rnd), battle.WithListener(listener))
	if err != nil {
		return domain.Result{}, err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()
	shown := -1
	// Lines typed during the feedback hold wait here for the next round.
	var queued []string
	inputClosed := false

	for {
		state := session.State()
		if state.Phase == domain.PhaseFinished {
			result, _ := session.Result()
			fmt.Fprintf(out, "Battle over (%s): %d/%d correct, passed=%t\n", result.Reason, result.Score, result.Total, result.Passed)
			return result, nil
		}
		if state.Phase.Answering() && state.CurrentQuestionIndex != shown {
			shown = state.CurrentQuestionIndex
			printPrompt(out, state)
		}

		if len(queued) > 0 && (queued[0] == skillCommand || state.Phase.Answering()) {
			line := queued[0]
			queued = queued[1:]
			if line == skillCommand {
				if err := session.ActivateSkill(); err != nil {
					fmt.Fprintf(out, "Skill unavailable: %v\n", err)
				} else {
					fmt.Fprintln(out, "Skill activated!")
				}
				continue
			}
			session.SubmitAnswer(line)
			continue
		}
		if inputClosed && len(queued) == 0 {
			fmt.Fprintln(out, "Input closed, battle abandoned.")
			return domain.Result{}, io.ErrUnexpectedEOF
		}

		select {
		case <-ctx.Done():
			return domain.Result{}, ctx.Err()
		case now := <-ticker.C:
			session.Tick(now.Sub(last))
			last = now
		case line, ok := <-lines:
			if !ok {
				inputClosed = true
				lines = nil
				continue
			}
			queued = append(queued, strings.TrimSpace(line))
		}
	}
}

func printPrompt(out io.Writer, s domain.Snapshot) {
	fmt.Fprintf(out, "[%d/%d] You %d/%d HP | Opponent %d/%d HP | %s\n",
		s.CurrentQuestionIndex+1, s.TotalQuestions,
		s.PlayerHealth, s.PlayerMaxHealth, s.OpponentHealth, s.OpponentMaxHealth, s.Phase)
	fmt.Fprintf(out, "%s (%s)\n> ", s.Prompt, s.TimeRemaining.Round(time.Second))
}

func printOutcome(out io.Writer, o domain.RoundOutcome) {
	switch {
	case o.Verdict == domain.VerdictTimedOut:
		fmt.Fprint(out, "Time's up! ")
	case o.Verdict == domain.VerdictCorrect:
		fmt.Fprint(out, "Correct! ")
	default:
		fmt.Fprint(out, "Wrong! ")
	}
	attacker := "You"
	if o.Defender == domain.SidePlayer {
		attacker = "The opponent"
	}
	if o.Hit {
		fmt.Fprintf(out, "%s hit for %d damage", attacker, o.Damage)
		if o.SkillBoosted {
			fmt.Fprint(out, " (boosted)")
		}
		if o.Fatal {
			fmt.Fprint(out, ". Knockout")
		}
		fmt.Fprintln(out, ".")
	} else {
		fmt.Fprintf(out, "%s missed.\n", attacker)
	}
	if o.Feedback != "" {
		fmt.Fprintln(out, o.Feedback)
	}
}
