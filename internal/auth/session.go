package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rolegate/rolegate/internal/shared"
)

// SessionStore persists at most one live session per user.
type SessionStore interface {
	// Create rotates the token of the user's existing session or inserts a new one.
	Create(ctx context.Context, userID, token string) (*Session, error)
	FindByToken(ctx context.Context, token string) (*Session, error)
	FindByUser(ctx context.Context, userID string) (*Session, error)
	FindByID(ctx context.Context, id string) (*Session, error)
	// UpdateFields reports whether a record was modified. A missing id is not an error.
	UpdateFields(ctx context.Context, id string, upd SessionUpdate) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

const (
	fieldID        = "id"
	fieldUserID    = "user_id"
	fieldToken     = "token"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

// RedisSessionStore keeps sessions as hashes with secondary indexes by user
// and by token. Lookups that miss return (nil, nil).
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisSessionStore constructs a store using keys under prefix.
func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = "session"
	}
	return &RedisSessionStore{client: client, prefix: prefix, now: time.Now}
}

// Create implements SessionStore. Concurrent first logins race on SETNX of the
// user index; the loser falls through to rotation, so only one record exists.
// Concurrent rotations are last-writer-wins.
func (s *RedisSessionStore) Create(ctx context.Context, userID, token string) (*Session, error) {
	existingID, err := s.client.Get(ctx, s.userKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, shared.StorageFault("auth: session create", err)
	}
	if errors.Is(err, redis.Nil) {
		id := uuid.NewString()
		won, err := s.client.SetNX(ctx, s.userKey(userID), id, 0).Result()
		if err != nil {
			return nil, shared.StorageFault("auth: session create", err)
		}
		if won {
			return s.insert(ctx, id, userID, token)
		}
		existingID, err = s.client.Get(ctx, s.userKey(userID)).Result()
		if err != nil {
			return nil, shared.StorageFault("auth: session create", err)
		}
	}
	return s.rotate(ctx, existingID, userID, token)
}

func (s *RedisSessionStore) insert(ctx context.Context, id, userID, token string) (*Session, error) {
	now := s.now().UTC()
	sess := &Session{ID: id, UserID: userID, Token: token, CreatedAt: now, UpdatedAt: now}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.recordKey(id), encodeSession(sess))
		pipe.Set(ctx, s.tokenKey(token), id, 0)
		pipe.Set(ctx, s.userKey(userID), id, 0)
		return nil
	})
	if err != nil {
		return nil, shared.StorageFault("auth: session insert", err)
	}
	return sess, nil
}

func (s *RedisSessionStore) rotate(ctx context.Context, id, userID, token string) (*Session, error) {
	sess, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		// Index without a record: recreate the record under the indexed id.
		return s.insert(ctx, id, userID, token)
	}
	oldToken := sess.Token
	sess.Token = token
	sess.UpdatedAt = s.now().UTC()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.recordKey(id), fieldToken, sess.Token, fieldUpdatedAt, formatTime(sess.UpdatedAt))
		if oldToken != "" && oldToken != token {
			pipe.Del(ctx, s.tokenKey(oldToken))
		}
		pipe.Set(ctx, s.tokenKey(token), id, 0)
		return nil
	})
	if err != nil {
		return nil, shared.StorageFault("auth: session rotate", err)
	}
	return sess, nil
}

// FindByToken implements SessionStore.
func (s *RedisSessionStore) FindByToken(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := s.viaIndex(ctx, s.tokenKey(token))
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.Token != token {
		return nil, nil
	}
	return sess, nil
}

// FindByUser implements SessionStore.
func (s *RedisSessionStore) FindByUser(ctx context.Context, userID string) (*Session, error) {
	sess, err := s.viaIndex(ctx, s.userKey(userID))
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, nil
	}
	return sess, nil
}

// FindByID implements SessionStore.
func (s *RedisSessionStore) FindByID(ctx context.Context, id string) (*Session, error) {
	values, err := s.client.HGetAll(ctx, s.recordKey(id)).Result()
	if err != nil {
		return nil, shared.StorageFault("auth: session find", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return decodeSession(values)
}

// UpdateFields implements SessionStore.
func (s *RedisSessionStore) UpdateFields(ctx context.Context, id string, upd SessionUpdate) (bool, error) {
	sess, err := s.FindByID(ctx, id)
	if err != nil || sess == nil {
		return false, err
	}
	changes := make([]any, 0, 6)
	tokenChanged := upd.Token != nil && *upd.Token != sess.Token
	userChanged := upd.UserID != nil && *upd.UserID != sess.UserID
	if !tokenChanged && !userChanged {
		return false, nil
	}
	if tokenChanged {
		changes = append(changes, fieldToken, *upd.Token)
	}
	if userChanged {
		changes = append(changes, fieldUserID, *upd.UserID)
	}
	changes = append(changes, fieldUpdatedAt, formatTime(s.now().UTC()))

	// A user keeps at most one session, so the target user's current one is dropped.
	var displaced *Session
	if userChanged {
		displaced, err = s.FindByUser(ctx, *upd.UserID)
		if err != nil {
			return false, err
		}
		if displaced != nil && displaced.ID == id {
			displaced = nil
		}
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if displaced != nil {
			pipe.Del(ctx, s.recordKey(displaced.ID), s.tokenKey(displaced.Token))
		}
		pipe.HSet(ctx, s.recordKey(id), changes...)
		if tokenChanged {
			pipe.Del(ctx, s.tokenKey(sess.Token))
			pipe.Set(ctx, s.tokenKey(*upd.Token), id, 0)
		}
		if userChanged {
			pipe.Del(ctx, s.userKey(sess.UserID))
			pipe.Set(ctx, s.userKey(*upd.UserID), id, 0)
		}
		return nil
	})
	if err != nil {
		return false, shared.StorageFault("auth: session update", err)
	}
	return true, nil
}

// Delete removes a session and its indexes.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) (bool, error) {
	sess, err := s.FindByID(ctx, id)
	if err != nil || sess == nil {
		return false, err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.recordKey(id), s.tokenKey(sess.Token))
		pipe.Del(ctx, s.userKey(sess.UserID))
		return nil
	})
	if err != nil {
		return false, shared.StorageFault("auth: session delete", err)
	}
	return true, nil
}

// Each calls fn for every stored session until fn returns an error.
func (s *RedisSessionStore) Each(ctx context.Context, fn func(Session) error) error {
	iter := s.client.Scan(ctx, 0, s.recordKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		values, err := s.client.HGetAll(ctx, iter.Val()).Result()
		if err != nil {
			return shared.StorageFault("auth: session scan", err)
		}
		if len(values) == 0 {
			continue
		}
		sess, err := decodeSession(values)
		if err != nil {
			return err
		}
		if err := fn(*sess); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return shared.StorageFault("auth: session scan", err)
	}
	return nil
}

func (s *RedisSessionStore) viaIndex(ctx context.Context, key string) (*Session, error) {
	id, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, shared.StorageFault("auth: session index", err)
	}
	return s.FindByID(ctx, id)
}

func (s *RedisSessionStore) recordKey(id string) string {
	return s.prefix + ":id:" + id
}

func (s *RedisSessionStore) userKey(userID string) string {
	return s.prefix + ":user:" + userID
}

func (s *RedisSessionStore) tokenKey(token string) string {
	return s.prefix + ":token:" + token
}

func encodeSession(sess *Session) map[string]any {
	return map[string]any{
		fieldID:        sess.ID,
		fieldUserID:    sess.UserID,
		fieldToken:     sess.Token,
		fieldCreatedAt: formatTime(sess.CreatedAt),
		fieldUpdatedAt: formatTime(sess.UpdatedAt),
	}
}

func decodeSession(values map[string]string) (*Session, error) {
	created, err := time.Parse(time.RFC3339Nano, values[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("auth: decode session %q: %w", values[fieldID], err)
	}
	updated, err := time.Parse(time.RFC3339Nano, values[fieldUpdatedAt])
	if err != nil {
		return nil, fmt.Errorf("auth: decode session %q: %w", values[fieldID], err)
	}
	return &Session{
		ID:        values[fieldID],
		UserID:    values[fieldUserID],
		Token:     values[fieldToken],
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

var _ SessionStore = (*RedisSessionStore)(nil)
