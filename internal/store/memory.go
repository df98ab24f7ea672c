package store

import (
	"context"
	"sync"

	"github.com/Olyame/tg-meditation/internal/domain"
)

// MemoryRepo keeps subscriptions in process memory only; they are lost on
// restart.
type MemoryRepo struct {
	mu   sync.Mutex
	subs map[int64]*domain.Clock
}

func NewMemory() *MemoryRepo {
	return &MemoryRepo{subs: make(map[int64]*domain.Clock)}
}

func (r *MemoryRepo) Load(_ context.Context) ([]domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return snapshot(r.subs), nil
}

func (r *MemoryRepo) Upsert(_ context.Context, s domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[s.ChatID] = copyClock(s.Time)
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, chatID)
	return nil
}

func (r *MemoryRepo) Close() error { return nil }

func snapshot(m map[int64]*domain.Clock) []domain.Subscription {
	out := make([]domain.Subscription, 0, len(m))
	for id, c := range m {
		out = append(out, domain.Subscription{ChatID: id, Time: copyClock(c)})
	}
	return out
}

func copyClock(c *domain.Clock) *domain.Clock {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}
