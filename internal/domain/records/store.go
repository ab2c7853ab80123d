// Package records keeps the user and leave collections as whole JSON
// documents in a kv.Store, one key per collection.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"leaveportal/internal/domain/core"
	"leaveportal/internal/domain/leave"
	"leaveportal/internal/platform/kv"
)

const DefaultKeyPrefix = "knockturn_"

const (
	usersKey   = "users"
	leavesKey  = "leaves"
	SessionKey = "current_session"
)

// ErrMalformed wraps any failure to decode a persisted collection.
var ErrMalformed = errors.New("malformed persisted collection")

// Store serializes read-modify-write within the process. Separate processes
// sharing one backend still race and the last write wins.
type Store struct {
	kv     kv.Store
	prefix string
	now    func() time.Time
	seed   Seed
	mu     sync.Mutex
}

type Option func(*Store)

func WithSeed(seed Seed) Option {
	if seed.Users == nil {
		seed.Users = []core.User{}
	}
	if seed.Leaves == nil {
		seed.Leaves = []leave.LeaveRequest{}
	}
	return func(s *Store) { s.seed = seed }
}

func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:     backend,
		prefix: DefaultKeyPrefix,
		now:    time.Now,
		seed:   DefaultSeed(true),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the full storage key for a collection name.
func (s *Store) Key(name string) string {
	return s.prefix + name
}

func (s *Store) KV() kv.Store {
	return s.kv
}

func (s *Store) LoadUsers(ctx context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadUsers(ctx)
}

func (s *Store) AddUser(ctx context.Context, user core.User) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUser(ctx, user, false)
}

// AddUserUnique is AddUser with a case-insensitive code check made under the
// same lock as the write.
func (s *Store) AddUserUnique(ctx context.Context, user core.User) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUser(ctx, user, true)
}

func (s *Store) addUser(ctx context.Context, user core.User, unique bool) ([]core.User, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	if unique {
		for _, u := range users {
			if strings.EqualFold(u.Code, user.Code) {
				return nil, core.ErrDuplicateCode
			}
		}
	}
	users = append(users, user)
	if err := s.put(ctx, usersKey, users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) LoadLeaveRequests(ctx context.Context) ([]leave.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLeaves(ctx)
}

// AppendLeaveRequest does no dedup; a colliding id is stored as a second entry.
func (s *Store) AppendLeaveRequest(ctx context.Context, req leave.LeaveRequest) ([]leave.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests, err := s.loadLeaves(ctx)
	if err != nil {
		return nil, err
	}
	requests = append(requests, req)
	if err := s.put(ctx, leavesKey, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// SetLeaveStatus updates the first request with id. When none matches the
// collection is returned as stored and nothing is written.
func (s *Store) SetLeaveStatus(ctx context.Context, id string, status leave.Status, actorLabel, reason string) ([]leave.LeaveRequest, bool, error) {
	change, err := s.SetLeaveStatusIf(ctx, id, status, actorLabel, reason, nil)
	if err != nil {
		return nil, false, err
	}
	return change.Requests, change.Found, nil
}

// SetLeaveStatusIf is SetLeaveStatus gated by guard. A guard error is returned
// as-is with Found and Previous filled in and nothing written.
func (s *Store) SetLeaveStatusIf(ctx context.Context, id string, status leave.Status, actorLabel, reason string, guard func(prev leave.LeaveRequest) error) (leave.StatusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var change leave.StatusChange
	requests, err := s.loadLeaves(ctx)
	if err != nil {
		return change, err
	}
	idx := -1
	for i := range requests {
		if requests[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		change.Requests = requests
		return change, nil
	}
	change.Found = true
	change.Previous = requests[idx]
	if guard != nil {
		if err := guard(change.Previous); err != nil {
			return change, err
		}
	}

	updated := requests[idx]
	updated.Status = status
	updated.ActionBy = actorLabel
	updated.ReasonForAction = reason
	updated.ActionDate = leave.Today(s.now())
	requests[idx] = updated

	if err := s.put(ctx, leavesKey, requests); err != nil {
		return change, err
	}
	change.Requests = requests
	return change, nil
}

func (s *Store) loadUsers(ctx context.Context) ([]core.User, error) {
	var users []core.User
	if err := s.loadOrSeed(ctx, usersKey, &users, s.seed.Users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []core.User{}
	}
	return users, nil
}

func (s *Store) loadLeaves(ctx context.Context) ([]leave.LeaveRequest, error) {
	var requests []leave.LeaveRequest
	if err := s.loadOrSeed(ctx, leavesKey, &requests, s.seed.Leaves); err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []leave.LeaveRequest{}
	}
	return requests, nil
}

// loadOrSeed decodes the collection under name into dst. An absent key is
// initialised from seed, persisted, then decoded like any stored value.
func (s *Store) loadOrSeed(ctx context.Context, name string, dst any, seed any) error {
	raw, ok, err := s.kv.Get(ctx, s.Key(name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if !ok {
		raw, err = encode(seed)
		if err != nil {
			return err
		}
		if err := s.kv.Set(ctx, s.Key(name), raw); err != nil {
			return fmt.Errorf("seed %s: %w", name, err)
		}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, name string, value any) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.Key(name), raw); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func encode(value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return raw, nil
}
