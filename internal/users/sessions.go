package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/oldgoods/thriftstore/internal/redisx"
)

var ErrNoSession = errors.New("invalid or expired session")

// Session is the server-issued identity that replaces the storefront's old
// localStorage userId. Opaque token, state in Redis, revocable.
type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

type SessionStore struct {
	Redis *redis.Client
	TTL   time.Duration
}

func (s *SessionStore) Issue(ctx context.Context, u *User) (*Session, error) {
	sess := &Session{
		Token:    uuid.NewString(),
		UserID:   u.ID,
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf(redisx.KeySession, sess.Token)
	if err := s.Redis.Set(ctx, key, b, s.TTL).Err(); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionStore) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	key := fmt.Sprintf(redisx.KeySession, token)
	b, err := s.Redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	} else if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, ErrNoSession
	}
	// sliding expiry
	_ = s.Redis.Expire(ctx, key, s.TTL).Err()
	return &sess, nil
}

func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	return s.Redis.Del(ctx, fmt.Sprintf(redisx.KeySession, token)).Err()
}
