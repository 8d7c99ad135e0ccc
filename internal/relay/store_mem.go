package relay

import (
	"context"
	"sync"
)

type memStore struct {
	mu    sync.Mutex
	rooms map[string]map[string]struct{} // roomID -> set(participant)
}

func NewMemoryStore() Store {
	return &memStore{rooms: make(map[string]map[string]struct{})}
}

func (m *memStore) Add(ctx context.Context, roomID, participant string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[roomID]; !ok {
		m.rooms[roomID] = make(map[string]struct{})
	}
	m.rooms[roomID][participant] = struct{}{}
	return nil
}

func (m *memStore) Remove(ctx context.Context, roomID, participant string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rooms[roomID]
	if !ok {
		return nil
	}
	delete(s, participant)
	// 与 Redis 行为对齐：空集合删除
	if len(s) == 0 {
		delete(m.rooms, roomID)
	}
	return nil
}

func (m *memStore) Count(ctx context.Context, roomID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rooms[roomID])), nil
}
