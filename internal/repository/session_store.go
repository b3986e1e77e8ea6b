package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"papertrail-server/internal/domain"
	"papertrail-server/internal/observability"

	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrJTIMismatch     = errors.New("refresh token jti does not match session")
)

// SessionStore holds session records in Redis under their session id, with the
// key TTL doubling as the session lifetime.
type SessionStore interface {
	Set(ctx context.Context, sessionID string, session *domain.Session, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	TTL(ctx context.Context, sessionID string) (time.Duration, error)
	Del(ctx context.Context, sessionID string) error
	// Rotate atomically replaces the session's refresh jti, failing when the
	// stored jti differs from expectedJTI. The remaining TTL carries over
	// unchanged so rotation never extends the session's absolute expiry.
	Rotate(ctx context.Context, sessionID, expectedJTI, newJTI string, now time.Time) (*domain.Session, error)
}

// rotateScript is the compare-and-swap for refresh rotation. Doing the jti
// check and the overwrite in one script closes the window where two concurrent
// refreshes with the same still-valid jti would both pass a client-side check
// and silently clobber each other's tokens.
var rotateScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return 'missing'
end
local session = cjson.decode(raw)
if session.refreshTokenJti ~= ARGV[1] then
  return 'mismatch'
end
local ttl = redis.call('TTL', KEYS[1])
if ttl <= 0 then
  return 'expired'
end
session.refreshTokenJti = ARGV[2]
session.updatedAt = ARGV[3]
redis.call('SET', KEYS[1], cjson.encode(session), 'EX', ttl)
return 'ok'
`)

type RedisSessionStore struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// NewSessionStore wraps client with a per-call timeout so a slow Redis fails
// the request instead of hanging it.
func NewSessionStore(client redis.UniversalClient, prefix string, timeout time.Duration) *RedisSessionStore {
	if prefix == "" {
		prefix = "session"
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &RedisSessionStore{client: client, prefix: prefix, timeout: timeout}
}

func (s *RedisSessionStore) Set(ctx context.Context, sessionID string, session *domain.Session, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), payload, ttl).Err(); err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "set", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "session", "set", "success")
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	raw, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err == redis.Nil {
		observability.RecordRepositoryOperation(ctx, "session", "get", "not_found")
		return nil, ErrSessionNotFound
	}
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "get", "error")
		return nil, err
	}
	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "get", "error")
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	observability.RecordRepositoryOperation(ctx, "session", "get", "success")
	return &session, nil
}

func (s *RedisSessionStore) TTL(ctx context.Context, sessionID string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ttl, err := s.client.TTL(ctx, s.key(sessionID)).Result()
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "ttl", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(ctx, "session", "ttl", "success")
	return ttl, nil
}

func (s *RedisSessionStore) Del(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "del", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "session", "del", "success")
	return nil
}

func (s *RedisSessionStore) Rotate(ctx context.Context, sessionID, expectedJTI, newJTI string, now time.Time) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := rotateScript.Run(ctx, s.client,
		[]string{s.key(sessionID)},
		expectedJTI, newJTI, now.UTC().Format(time.RFC3339Nano),
	).Text()
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "rotate", "error")
		return nil, err
	}
	switch res {
	case "ok":
		observability.RecordRepositoryOperation(ctx, "session", "rotate", "success")
	case "missing":
		observability.RecordRepositoryOperation(ctx, "session", "rotate", "not_found")
		return nil, ErrSessionNotFound
	case "mismatch":
		observability.RecordRepositoryOperation(ctx, "session", "rotate", "conflict")
		return nil, ErrJTIMismatch
	case "expired":
		observability.RecordRepositoryOperation(ctx, "session", "rotate", "expired")
		return nil, ErrSessionExpired
	default:
		observability.RecordRepositoryOperation(ctx, "session", "rotate", "error")
		return nil, fmt.Errorf("unexpected rotate result %q", res)
	}
	return s.Get(ctx, sessionID)
}

func (s *RedisSessionStore) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, sessionID)
}
