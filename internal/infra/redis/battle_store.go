package redis

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-battle-service/internal/app"
)

// BattleStore is a Redis-aware implementation of app.BattleRepository.
// Notes:
//   - Battles are driven in-process, so the engine sessions stay in a local map.
//   - Redis holds a liveness marker per battle (value: quiz ID) so other
//     instances and operators can see which battles are running where.
type BattleStore struct {
	client  *redis.Client
	ttl     time.Duration
	mu      sync.RWMutex
	battles map[string]*app.Battle
}

func NewBattleStore(client *redis.Client, ttl time.Duration) *BattleStore {
	return &BattleStore{
		client:  client,
		ttl:     ttl,
		battles: make(map[string]*app.Battle),
	}
}

// Put and Delete update the map under the lock and talk to Redis after
// releasing it, so a slow Redis never stalls Get/All and the tick loop.
func (s *BattleStore) Put(b *app.Battle) {
	s.mu.Lock()
	s.battles[b.ID()] = b
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(b.ID()), b.QuizID(), s.ttl).Err()
}

func (s *BattleStore) Get(battleID string) (*app.Battle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.battles[battleID]
	return b, ok
}

func (s *BattleStore) Delete(battleID string) {
	s.mu.Lock()
	_, ok := s.battles[battleID]
	delete(s.battles, battleID)
	s.mu.Unlock()
	if !ok {
		return
	}
	_ = s.client.Del(context.Background(), s.key(battleID)).Err()
}

func (s *BattleStore) All() []*app.Battle {
	s.mu.RLock()
	battles := make([]*app.Battle, 0, len(s.battles))
	for _, b := range s.battles {
		battles = append(battles, b)
	}
	s.mu.RUnlock()

	sort.Slice(battles, func(i, j int) bool {
		return battles[i].CreatedAt().Before(battles[j].CreatedAt())
	})
	return battles
}

// Touch refreshes the liveness marker of every unfinished battle.
func (s *BattleStore) Touch(ctx context.Context) error {
	pipe := s.client.Pipeline()
	for _, b := range s.All() {
		if b.Finished() {
			continue
		}
		pipe.Expire(ctx, s.key(b.ID()), s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *BattleStore) key(battleID string) string {
	return "battle:live:" + battleID
}
