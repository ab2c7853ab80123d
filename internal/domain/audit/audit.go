// Package audit keeps an append-only trail of leave and user mutations in the
// shared kv store.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"leaveportal/internal/platform/kv"
)

const (
	ActionLeaveSubmit  = "leave.submit"
	ActionLeaveApprove = "leave.approve"
	ActionLeaveReject  = "leave.reject"
	ActionUserCreate   = "user.create"

	EntityLeaveRequest = "leave_request"
	EntityUser         = "user"
)

type Event struct {
	ID         string          `json:"id"`
	Actor      string          `json:"actor"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId,omitempty"`
	IP         string          `json:"ip,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	Actor      string
}

func (f Filter) matches(evt Event) bool {
	if f.Action != "" && evt.Action != f.Action {
		return false
	}
	if f.EntityType != "" && evt.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && evt.EntityID != f.EntityID {
		return false
	}
	if f.Actor != "" && evt.Actor != f.Actor {
		return false
	}
	return true
}

// Service stores the trail as one JSON array. When retention is positive
// only the newest retention events are kept.
type Service struct {
	kv        kv.Store
	key       string
	retention int
	now       func() time.Time
	mu        sync.Mutex
}

func New(backend kv.Store, key string, retention int) *Service {
	return &Service{kv: backend, key: key, retention: retention, now: time.Now}
}

// Entry describes one mutation. Before and After are marshalled as-is.
type Entry struct {
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	IP         string
	Before     any
	After      any
}

// Record appends an event. A nil Service records nothing.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if s == nil {
		return nil
	}
	evt := Event{
		ID:         uuid.NewString(),
		Actor:      entry.Actor,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		RequestID:  entry.RequestID,
		IP:         entry.IP,
		CreatedAt:  s.now().UTC(),
	}
	var err error
	if evt.Before, err = marshalOptional(entry.Before); err != nil {
		return err
	}
	if evt.After, err = marshalOptional(entry.After); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load(ctx)
	if err != nil {
		return err
	}
	events = append(events, evt)
	if s.retention > 0 && len(events) > s.retention {
		events = events[len(events)-s.retention:]
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode audit trail: %w", err)
	}
	return s.kv.Set(ctx, s.key, raw)
}

// List returns matching events newest first together with the match count.
// includeDetails=false strips the before and after snapshots.
func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, int, error) {
	s.mu.Lock()
	events, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, 0, err
	}

	matched := make([]Event, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		evt := events[i]
		if !filter.matches(evt) {
			continue
		}
		if !includeDetails {
			evt.Before, evt.After = nil, nil
		}
		matched = append(matched, evt)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if offset >= total {
		return []Event{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

func (s *Service) load(ctx context.Context) ([]Event, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read audit trail: %w", err)
	}
	if !ok {
		return []Event{}, nil
	}
	var events []Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("decode audit trail: %w", err)
	}
	return events, nil
}

func marshalOptional(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode audit snapshot: %w", err)
	}
	return raw, nil
}
