package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-battle-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store (Postgres, YAML files, ...).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository caches question sets in Redis and falls back to a loader on cache miss.
// Questions are stored in order as: RPUSH quiz:{quizID}:questions {question JSON}
// The mode is stored as:             SET   quiz:{quizID}:mode {mode}
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.fromCache(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.fromCache(ctx, quizID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		// best-effort cache fill
		_ = r.store(ctx, quizID, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizRepository) fromCache(ctx context.Context, quizID string) (domain.Quiz, bool) {
	raw, err := r.client.LRange(ctx, r.questionsKey(quizID), 0, -1).Result()
	if err != nil || len(raw) == 0 {
		return domain.Quiz{}, false
	}
	questions := make([]domain.Question, 0, len(raw))
	for _, item := range raw {
		var q domain.Question
		if err := json.Unmarshal([]byte(item), &q); err != nil {
			return domain.Quiz{}, false
		}
		questions = append(questions, q)
	}
	mode, _ := r.client.Get(ctx, r.modeKey(quizID)).Result()
	return domain.Quiz{ID: quizID, Mode: domain.Mode(mode), Questions: questions}, true
}

func (r *QuizRepository) store(ctx context.Context, quizID string, quiz domain.Quiz) error {
	if len(quiz.Questions) == 0 {
		return nil
	}
	items := make([]interface{}, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("marshal question: %w", err)
		}
		items = append(items, string(data))
	}

	ttl := r.ttlWithJitter()
	questionsKey := r.questionsKey(quizID)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, questionsKey)
	pipe.RPush(ctx, questionsKey, items...)
	pipe.Set(ctx, r.modeKey(quizID), string(quiz.Mode), ttl)
	if ttl > 0 {
		pipe.Expire(ctx, questionsKey, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *QuizRepository) questionsKey(quizID string) string {
	return "quiz:" + quizID + ":questions"
}

func (r *QuizRepository) modeKey(quizID string) string {
	return "quiz:" + quizID + ":mode"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
