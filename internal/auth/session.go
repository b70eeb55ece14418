package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Role tags a session as clinic staff or patient. It is attached to the
// request context once at authentication instead of being re-derived inside
// each operation.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Session is the server-side record behind an opaque session token.
type Session struct {
	Token     string    `json:"-"`
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ErrNoSession is returned when a token does not resolve to a live session.
var ErrNoSession = errors.New("session not found")

// Store keeps sessions in redis keyed by token.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store with the given TTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if client == nil {
		panic("auth: redis client required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Create issues a new session for the user and persists it.
func (s *Store) Create(ctx context.Context, userID uuid.UUID, role Role) (*Session, error) {
	sess := &Session{
		Token:     NewToken(),
		UserID:    userID,
		Role:      role,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("auth: marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.Token), payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("auth: store session: %w", err)
	}
	return sess, nil
}

// Get resolves a token to its session. Missing or expired tokens yield
// ErrNoSession.
func (s *Store) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	payload, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("auth: load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("auth: unmarshal session: %w", err)
	}
	sess.Token = token
	return &sess, nil
}

// Delete destroys the session. Deleting an unknown token is a no-op.
func (s *Store) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

// NewToken returns a 32-character random token.
func NewToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}
