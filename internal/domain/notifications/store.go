package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"leaveportal/internal/platform/kv"
)

// Store keeps every inbox in one JSON array under key. When perUser is
// positive each inbox holds at most perUser notifications, oldest dropped
// first.
type Store struct {
	kv      kv.Store
	key     string
	perUser int
	mu      sync.Mutex
}

func NewStore(backend kv.Store, key string, perUser int) *Store {
	return &Store{kv: backend, key: key, perUser: perUser}
}

func (s *Store) Append(ctx context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	all = append(all, n)
	if s.perUser > 0 {
		all = trimInbox(all, n.UserCode, s.perUser)
	}
	return s.save(ctx, all)
}

// trimInbox drops the oldest entries of userCode beyond limit, keeping every
// other inbox untouched.
func trimInbox(all []Notification, userCode string, limit int) []Notification {
	count := 0
	for _, n := range all {
		if n.UserCode == userCode {
			count++
		}
	}
	drop := count - limit
	if drop <= 0 {
		return all
	}
	kept := all[:0]
	for _, n := range all {
		if n.UserCode == userCode && drop > 0 {
			drop--
			continue
		}
		kept = append(kept, n)
	}
	return kept
}

func (s *Store) ListFor(ctx context.Context, userCode string) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := []Notification{}
	for _, n := range all {
		if n.UserCode == userCode {
			out = append(out, n)
		}
	}
	return out, nil
}

// MarkRead only touches notifications owned by userCode. An already read
// notification keeps its first ReadAt.
func (s *Store) MarkRead(ctx context.Context, userCode, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range all {
		if all[i].ID != id || all[i].UserCode != userCode {
			continue
		}
		if all[i].ReadAt != nil {
			return true, nil
		}
		all[i].ReadAt = &at
		return true, s.save(ctx, all)
	}
	return false, nil
}

func (s *Store) load(ctx context.Context) ([]Notification, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read notifications: %w", err)
	}
	if !ok {
		return []Notification{}, nil
	}
	var all []Notification
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return all, nil
}

func (s *Store) save(ctx context.Context, all []Notification) error {
	raw, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("encode notifications: %w", err)
	}
	return s.kv.Set(ctx, s.key, raw)
}
