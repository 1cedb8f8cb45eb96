package valkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/perimap/internal/core/domain"
	"github.com/samirrijal/perimap/internal/pkg/metrics"
)

const (
	storeName     = "valkey"
	sessionPrefix = "perimap:session:"
	maxTxRetries  = 5
)

var errTxAborted = errors.New("valkey: transaction aborted by concurrent write")

// SessionStore implements ports.SessionStore on Valkey. Sessions are JSON
// values with a sliding TTL so that nothing outlives an idle session.
type SessionStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewSessionStore wraps cache as a session store.
func NewSessionStore(cache *Cache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: cache, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionPrefix + id
}

func encodeSession(s *domain.Session) ([]byte, error) {
	return json.Marshal(s)
}

func decodeSession(data []byte) (*domain.Session, error) {
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (s *SessionStore) Create(ctx context.Context, sess *domain.Session) error {
	metrics.SessionStoreOps.WithLabelValues(storeName, "create").Inc()
	data, err := encodeSession(sess)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, sessionKey(sess.ID), data, s.ttl)
}

// Get reads the session and slides its TTL.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	metrics.SessionStoreOps.WithLabelValues(storeName, "get").Inc()
	c := s.cache.client
	data, err := c.Do(ctx, c.B().Getex().Key(sessionKey(id)).Ex(s.ttl).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		metrics.CacheMisses.WithLabelValues(storeName).Inc()
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return decodeSession(data)
}

// Update is an optimistic WATCH/MULTI/EXEC transaction, retried when
// another writer touched the session in between.
func (s *SessionStore) Update(ctx context.Context, id string, fn func(sess *domain.Session) error) (*domain.Session, error) {
	metrics.SessionStoreOps.WithLabelValues(storeName, "update").Inc()
	key := sessionKey(id)

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		var out *domain.Session
		err := s.cache.client.Dedicated(func(c valkey.DedicatedClient) error {
			if err := c.Do(ctx, c.B().Watch().Key(key).Build()).Error(); err != nil {
				return err
			}
			data, err := c.Do(ctx, c.B().Get().Key(key).Build()).AsBytes()
			if valkey.IsValkeyNil(err) {
				_ = c.Do(ctx, c.B().Unwatch().Build()).Error()
				return domain.ErrSessionNotFound
			}
			if err != nil {
				return err
			}
			sess, err := decodeSession(data)
			if err != nil {
				return err
			}
			if err := fn(sess); err != nil {
				_ = c.Do(ctx, c.B().Unwatch().Build()).Error()
				return err
			}
			next, err := encodeSession(sess)
			if err != nil {
				return err
			}

			resps := c.DoMulti(ctx,
				c.B().Multi().Build(),
				c.B().Set().Key(key).Value(valkey.BinaryString(next)).Ex(s.ttl).Build(),
				c.B().Exec().Build(),
			)
			if err := resps[len(resps)-1].Error(); err != nil {
				if valkey.IsValkeyNil(err) {
					return errTxAborted
				}
				return err
			}
			out = sess
			return nil
		})
		if errors.Is(err, errTxAborted) {
			continue
		}
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				metrics.CacheMisses.WithLabelValues(storeName).Inc()
			}
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("update session %s: %w", id, errTxAborted)
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	metrics.SessionStoreOps.WithLabelValues(storeName, "delete").Inc()
	ok, err := s.cache.Delete(ctx, sessionKey(id))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Count scans the session keyspace.
func (s *SessionStore) Count(ctx context.Context) (int, error) {
	c := s.cache.client
	var cursor uint64
	n := 0
	for {
		entry, err := c.Do(ctx, c.B().Scan().Cursor(cursor).Match(sessionPrefix+"*").Count(500).Build()).AsScanEntry()
		if err != nil {
			return 0, fmt.Errorf("scan sessions: %w", err)
		}
		n += len(entry.Elements)
		cursor = entry.Cursor
		if cursor == 0 {
			return n, nil
		}
	}
}
