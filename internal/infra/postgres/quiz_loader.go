package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-battle-service/internal/domain"
)

// QuizLoader loads quiz questions stored as JSONB in Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		mode string
		raw  []byte
	)
	err := l.pool.QueryRow(ctx, `SELECT mode, questions FROM quizzes WHERE id=$1`, quizID).Scan(&mode, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz questions: %w", err)
	}
	return domain.Quiz{ID: quizID, Mode: domain.Mode(mode), Questions: questions}, nil
}

// SaveQuiz inserts or replaces a quiz.
func (l *QuizLoader) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("marshal quiz questions: %w", err)
	}
	mode := quiz.Mode
	if mode == "" {
		mode = domain.ModeJumble
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO quizzes (id, mode, questions) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (id) DO UPDATE SET mode=EXCLUDED.mode, questions=EXCLUDED.questions`,
		quiz.ID, string(mode), string(data))
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}
