package battle

import (
	"fmt"

	"quiz-battle-service/internal/domain"
)

// QuestionSet is an immutable, ordered sequence of questions.
type QuestionSet struct {
	questions []domain.Question
}

func NewQuestionSet(questions []domain.Question) *QuestionSet {
	copied := make([]domain.Question, len(questions))
	copy(copied, questions)
	return &QuestionSet{questions: copied}
}

func (s *QuestionSet) Len() int { return len(s.questions) }

// At returns the question at index i.
func (s *QuestionSet) At(i int) (domain.Question, error) {
	if len(s.questions) == 0 {
		return domain.Question{}, domain.ErrEmptyQuestionSet
	}
	if i < 0 || i >= len(s.questions) {
		return domain.Question{}, fmt.Errorf("question %d of %d: %w", i, len(s.questions), domain.ErrQuestionOutOfRange)
	}
	return s.questions[i], nil
}
