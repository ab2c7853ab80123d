package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leaveportal/internal/platform/kv"
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

// IdempotencyStore remembers the response to a mutation under the caller's
// Idempotency-Key so a retried submit does not create a second request.
// Entries older than ttl are treated as absent and removed on the next
// lookup; a zero ttl keeps them forever.
type IdempotencyStore struct {
	kv     kv.Store
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

type idempotencyEntry struct {
	RequestHash string          `json:"requestHash"`
	Response    json.RawMessage `json:"response"`
	ExpiresAt   time.Time       `json:"expiresAt,omitempty"`
}

func NewIdempotencyStore(backend kv.Store, prefix string, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{kv: backend, prefix: prefix, ttl: ttl, now: time.Now}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *IdempotencyStore) key(actor, endpoint, key string) string {
	return fmt.Sprintf("%sidempotency:%s:%s:%s", s.prefix, actor, endpoint, key)
}

func (s *IdempotencyStore) Check(ctx context.Context, actor, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	if s == nil || s.kv == nil {
		return nil, false, nil
	}
	storageKey := s.key(actor, endpoint, key)
	raw, ok, err := s.kv.Get(ctx, storageKey)
	if err != nil || !ok {
		return nil, false, err
	}
	var entry idempotencyEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, err
	}
	if !entry.ExpiresAt.IsZero() && !s.now().Before(entry.ExpiresAt) {
		return nil, false, s.kv.Delete(ctx, storageKey)
	}
	if entry.RequestHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return entry.Response, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, actor, endpoint, key, requestHash string, response json.RawMessage) error {
	if s == nil || s.kv == nil {
		return nil
	}
	if _, found, err := s.Check(ctx, actor, endpoint, key, requestHash); err != nil || found {
		return err
	}
	entry := idempotencyEntry{RequestHash: requestHash, Response: response}
	if s.ttl > 0 {
		entry.ExpiresAt = s.now().Add(s.ttl).UTC()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key(actor, endpoint, key), raw)
}
