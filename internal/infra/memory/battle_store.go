package memory

import (
	"sort"
	"sync"

	"quiz-battle-service/internal/app"
)

// BattleStore is an in-memory implementation of app.BattleRepository.
type BattleStore struct {
	mu      sync.RWMutex
	battles map[string]*app.Battle
}

func NewBattleStore() *BattleStore {
	return &BattleStore{
		battles: make(map[string]*app.Battle),
	}
}

func (s *BattleStore) Put(b *app.Battle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.battles[b.ID()] = b
}

func (s *BattleStore) Get(battleID string) (*app.Battle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.battles[battleID]
	return b, ok
}

func (s *BattleStore) Delete(battleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.battles, battleID)
}

// All returns the hosted battles, oldest first, so ticks run in a stable order.
func (s *BattleStore) All() []*app.Battle {
	s.mu.RLock()
	battles := make([]*app.Battle, 0, len(s.battles))
	for _, b := range s.battles {
		battles = append(battles, b)
	}
	s.mu.RUnlock()

	sort.Slice(battles, func(i, j int) bool {
		if !battles[i].CreatedAt().Equal(battles[j].CreatedAt()) {
			return battles[i].CreatedAt().Before(battles[j].CreatedAt())
		}
		return battles[i].ID() < battles[j].ID()
	})
	return battles
}
