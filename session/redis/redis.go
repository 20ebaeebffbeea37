// Package redis provides a core.SessionStore backed by Redis. Each session
// is a hash holding its header, credentials and latest result; the history
// is a list so appends are O(1) and never rewrite earlier entries.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/llmbridge/core"
)

const (
	fieldHeader      = "header"
	fieldCredentials = "credentials"
	fieldLatest      = "latest"
)

// Config describes the Redis connection.
type Config struct {
	Address  string
	Password string
	DB       int
	// Prefix namespaces every key. Defaults to "llmbridge".
	Prefix string
}

// Store is a Redis backed session store.
type Store struct {
	client *redis.Client
	prefix string
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address must not be empty")
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "llmbridge"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Store{client: client, prefix: prefix}, nil
}

// Close closes the underlying client.
func (s *Store) Close() error { return s.client.Close() }

func (s *Store) indexKey() string { return s.prefix + ":sessions" }
func (s *Store) sessionKey(id string) string { return s.prefix + ":session:" + id }
func (s *Store) messagesKey(id string) string { return s.prefix + ":session:" + id + ":messages" }

// Create implements core.SessionStore.
func (s *Store) Create(ctx context.Context, sess *core.Session) error {
	header, err := json.Marshal(sess.Header())
	if err != nil {
		return fmt.Errorf("redis: encode session: %w", err)
	}
	creds, err := json.Marshal(sess.Credentials)
	if err != nil {
		return fmt.Errorf("redis: encode credentials: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.sessionKey(sess.ID), s.messagesKey(sess.ID))
	pipe.HSet(ctx, s.sessionKey(sess.ID), fieldHeader, header, fieldCredentials, creds)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(sess.CreatedAt.UnixNano()), Member: sess.ID})
	for _, r := range sess.Messages {
		raw, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("redis: encode result: %w", err)
		}
		pipe.RPush(ctx, s.messagesKey(sess.ID), raw)
		pipe.HSet(ctx, s.sessionKey(sess.ID), fieldLatest, raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: create session: %w", err)
	}
	return nil
}

// Get implements core.SessionStore.
func (s *Store) Get(ctx context.Context, id string) (*core.Session, error) {
	fields, err := s.client.HGetAll(ctx, s.sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: load session: %w", err)
	}
	header, ok := fields[fieldHeader]
	if !ok {
		return nil, core.ErrSessionNotFound
	}

	var sess core.Session
	if err := json.Unmarshal([]byte(header), &sess); err != nil {
		return nil, fmt.Errorf("redis: decode session: %w", err)
	}
	sess.Credentials = map[core.Provider]string{}
	if raw := fields[fieldCredentials]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &sess.Credentials); err != nil {
			return nil, fmt.Errorf("redis: decode credentials: %w", err)
		}
	}
	if raw := fields[fieldLatest]; raw != "" {
		var r core.ExtractionResult
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("redis: decode latest: %w", err)
		}
		sess.Latest = &r
	}

	items, err := s.client.LRange(ctx, s.messagesKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: load messages: %w", err)
	}
	sess.Messages = make([]core.ExtractionResult, 0, len(items))
	for _, raw := range items {
		var r core.ExtractionResult
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("redis: decode message: %w", err)
		}
		sess.Messages = append(sess.Messages, r)
	}

	return &sess, nil
}

// List implements core.SessionStore. Ties on created_at are broken
// lexicographically by id, matching ZRANGE semantics.
func (s *Store) List(ctx context.Context, limit int) ([]*core.Session, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list sessions: %w", err)
	}

	out := make([]*core.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if errors.Is(err, core.ErrSessionNotFound) {
			continue // expired or deleted behind our back
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}

// AppendResult implements core.SessionStore.
func (s *Store) AppendResult(ctx context.Context, id string, r core.ExtractionResult) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("redis: encode result: %w", err)
	}

	key := s.sessionKey(id)
	err = retryOnTxFailure(maxAppendAttempts, func() error {
		return s.client.Watch(ctx, func(tx *redis.Tx) error {
			exists, err := tx.HExists(ctx, key, fieldHeader).Result()
			if err != nil {
				return err
			}
			if !exists {
				return core.ErrSessionNotFound
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.RPush(ctx, s.messagesKey(id), raw)
				pipe.HSet(ctx, key, fieldLatest, raw)
				return nil
			})
			return err
		}, key)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrSessionNotFound):
		return err
	default:
		return fmt.Errorf("redis: append result: %w", err)
	}
}

// maxAppendAttempts bounds optimistic retries when the session hash keeps
// changing under WATCH.
const maxAppendAttempts = 10

// retryOnTxFailure runs fn until it returns something other than
// redis.TxFailedErr or attempts are exhausted. The history list is
// append-only so a plain retry is safe.
func retryOnTxFailure(attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}
