package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"quiz-battle-service/internal/domain"
)

// QuizLoader reads quizzes from YAML files named {quizID}.yaml in a directory.
//
//	id: arithmetic
//	mode: jumble
//	questions:
//	  - prompt: "2 + 2"
//	    answer: "4"
//	    feedback: "Two pairs make four."
type QuizLoader struct {
	dir string
}

func NewQuizLoader(dir string) *QuizLoader {
	return &QuizLoader{dir: dir}
}

func (l *QuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quizID == "" || quizID != filepath.Base(quizID) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz, err := ReadQuiz(filepath.Join(l.dir, quizID+".yaml"))
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.ID == "" {
		quiz.ID = quizID
	}
	return quiz, nil
}

// ReadQuiz parses a single quiz file.
func ReadQuiz(path string) (domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, fmt.Errorf("read quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := yaml.Unmarshal(data, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz %s: %w", path, err)
	}
	return quiz, nil
}
