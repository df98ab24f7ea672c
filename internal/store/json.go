package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Olyame/tg-meditation/internal/domain"
)

const jsonVersion = 1

// JSONRepo keeps subscriptions in a single JSON file that is rewritten
// atomically on every mutation.
//
// Layout:
//
//	{"version":1,"subscribers":[{"chat_id":42,"time":{"hour":9,"minute":20}}]}
//
// Unknown fields are ignored. A bare array of chat IDs ([1,2,3]) is
// accepted on load as subscribers without overrides.
type JSONRepo struct {
	path string

	mu   sync.Mutex
	subs map[int64]*domain.Clock
}

// OpenJSON reads path if it exists. A missing file is an empty store.
func OpenJSON(path string) (*JSONRepo, error) {
	if path == "" {
		return nil, errors.New("json store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	subs, err := readJSONFile(path)
	if err != nil {
		return nil, fmt.Errorf("json store: %w", err)
	}
	return &JSONRepo{path: path, subs: subs}, nil
}

func readJSONFile(path string) (map[int64]*domain.Clock, error) {
	subs := make(map[int64]*domain.Clock)
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return subs, nil
	}
	if err != nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return subs, nil
	}

	if b[0] == '[' {
		var ids []int64
		if err := json.Unmarshal(b, &ids); err != nil {
			return nil, fmt.Errorf("decode legacy list: %w", err)
		}
		for _, id := range ids {
			subs[id] = nil
		}
		return subs, nil
	}

	var f jsonFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	for _, s := range f.Subscribers {
		if s.Time == nil {
			subs[s.ChatID] = nil
			continue
		}
		c, err := domain.NewClock(s.Time.Hour, s.Time.Minute)
		if err != nil {
			return nil, fmt.Errorf("chat %d: %w", s.ChatID, err)
		}
		subs[s.ChatID] = &c
	}
	return subs, nil
}

func (r *JSONRepo) Load(_ context.Context) ([]domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return snapshot(r.subs), nil
}

func (r *JSONRepo) Upsert(_ context.Context, s domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, existed := r.subs[s.ChatID]
	r.subs[s.ChatID] = copyClock(s.Time)
	if err := r.flushLocked(); err != nil {
		if existed {
			r.subs[s.ChatID] = prev
		} else {
			delete(r.subs, s.ChatID)
		}
		return err
	}
	return nil
}

func (r *JSONRepo) Delete(_ context.Context, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, existed := r.subs[chatID]
	if !existed {
		return nil
	}
	delete(r.subs, chatID)
	if err := r.flushLocked(); err != nil {
		r.subs[chatID] = prev
		return err
	}
	return nil
}

func (r *JSONRepo) Close() error { return nil }

// flushLocked writes the whole set to a temp file and renames it over path.
func (r *JSONRepo) flushLocked() error {
	f := jsonFile{Version: jsonVersion, Subscribers: make([]jsonSubscriber, 0, len(r.subs))}
	for id, c := range r.subs {
		s := jsonSubscriber{ChatID: id}
		if c != nil {
			s.Time = &jsonClock{Hour: c.Hour, Minute: c.Minute}
		}
		f.Subscribers = append(f.Subscribers, s)
	}
	sort.Slice(f.Subscribers, func(i, j int) bool { return f.Subscribers[i].ChatID < f.Subscribers[j].ChatID })

	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
