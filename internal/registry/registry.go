// Package registry holds the set of subscribed chats and their optional
// reminder time overrides.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Olyame/tg-meditation/internal/domain"
	"github.com/Olyame/tg-meditation/internal/store"
)

// ErrNotSubscribed is returned by SetTime for a chat that has not subscribed.
var ErrNotSubscribed = errors.New("not subscribed")

// Registry is the process-wide subscription state. Every mutation is
// written through to the backing repo before memory changes, so a failed
// write leaves the Registry untouched.
type Registry struct {
	def  domain.Clock
	repo store.Repo

	mu   sync.RWMutex
	subs map[int64]*domain.Clock
}

// New returns an empty Registry backed by repo.
func New(repo store.Repo, def domain.Clock) *Registry {
	return &Registry{def: def, repo: repo, subs: make(map[int64]*domain.Clock)}
}

// Load builds a Registry from whatever repo currently holds.
func Load(ctx context.Context, repo store.Repo, def domain.Clock) (*Registry, error) {
	r := New(repo, def)
	subs, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load subscribers: %w", err)
	}
	for _, s := range subs {
		r.subs[s.ChatID] = cloneClock(s.Time)
	}
	return r, nil
}

// Default is the reminder time for chats without an override.
func (r *Registry) Default() domain.Clock { return r.def }

// Subscribe adds chatID. It reports false if chatID was already subscribed.
func (r *Registry) Subscribe(ctx context.Context, chatID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[chatID]; ok {
		return false, nil
	}
	if err := r.repo.Upsert(ctx, domain.Subscription{ChatID: chatID}); err != nil {
		return false, fmt.Errorf("subscribe %d: %w", chatID, err)
	}
	r.subs[chatID] = nil
	return true, nil
}

// Unsubscribe removes chatID and its override. It reports false if chatID
// was not subscribed.
func (r *Registry) Unsubscribe(ctx context.Context, chatID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[chatID]; !ok {
		return false, nil
	}
	if err := r.repo.Delete(ctx, chatID); err != nil {
		return false, fmt.Errorf("unsubscribe %d: %w", chatID, err)
	}
	delete(r.subs, chatID)
	return true, nil
}

// SetTime replaces chatID's override with hour:minute.
func (r *Registry) SetTime(ctx context.Context, chatID int64, hour, minute int) error {
	c, err := domain.NewClock(hour, minute)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[chatID]; !ok {
		return ErrNotSubscribed
	}
	if err := r.repo.Upsert(ctx, domain.Subscription{ChatID: chatID, Time: &c}); err != nil {
		return fmt.Errorf("set time %d: %w", chatID, err)
	}
	r.subs[chatID] = &c
	return nil
}

// ClearTime drops chatID's override, if any.
func (r *Registry) ClearTime(ctx context.Context, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.subs[chatID]
	if !ok || c == nil {
		return nil
	}
	if err := r.repo.Upsert(ctx, domain.Subscription{ChatID: chatID}); err != nil {
		return fmt.Errorf("clear time %d: %w", chatID, err)
	}
	r.subs[chatID] = nil
	return nil
}

func (r *Registry) IsSubscribed(chatID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subs[chatID]
	return ok
}

// Override returns chatID's own time, if it set one.
func (r *Registry) Override(chatID int64) (domain.Clock, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := r.subs[chatID]
	if c == nil {
		return domain.Clock{}, false
	}
	return *c, true
}

// EffectiveTime returns chatID's override or the default.
func (r *Registry) EffectiveTime(chatID int64) domain.Clock {
	if c, ok := r.Override(chatID); ok {
		return c
	}
	return r.def
}

// AllSubscribers returns the subscribed chat IDs in no particular order.
func (r *Registry) AllSubscribers() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int64, 0, len(r.subs))
	for id := range r.subs {
		out = append(out, id)
	}
	return out
}

// Snapshot copies the full state. Later mutations do not affect it.
func (r *Registry) Snapshot() []domain.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Subscription, 0, len(r.subs))
	for id, c := range r.subs {
		out = append(out, domain.Subscription{ChatID: id, Time: cloneClock(c)})
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

func cloneClock(c *domain.Clock) *domain.Clock {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}
