package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultFileName    = "session.json"
	defaultRedisPrefix = "matchmate:session:"
)

// FileStore keeps the session as a small JSON object on disk.
type FileStore struct {
	Path string
}

// DefaultPath returns the session file location inside the user config dir.
func DefaultPath(app string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, app, defaultFileName), nil
}

func (f *FileStore) Load(context.Context) (Session, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, err
	}
	if len(data) == 0 {
		return Session{}, nil
	}

	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return Session{}, fmt.Errorf("parse session file %s: %w", f.Path, err)
	}

	return Session{Username: values[KeyUser], Token: values[KeyToken]}, nil
}

func (f *FileStore) Save(_ context.Context, s Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(map[string]string{
		KeyToken: s.Token,
		KeyUser:  s.Username,
	}, "", "  ")
	if err != nil {
		return err
	}

	// The file holds a bearer token.
	return os.WriteFile(f.Path, data, 0o600)
}

func (f *FileStore) Clear(context.Context) error {
	err := os.Remove(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// RedisStore keeps the session in Redis so several terminals can share it.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(name string) string {
	return r.prefix + name
}

func (r *RedisStore) Load(ctx context.Context) (Session, error) {
	values, err := r.client.MGet(ctx, r.key(KeyUser), r.key(KeyToken)).Result()
	if err != nil {
		return Session{}, fmt.Errorf("redis mget: %w", err)
	}

	var s Session
	if v, ok := values[0].(string); ok {
		s.Username = v
	}
	if v, ok := values[1].(string); ok {
		s.Token = v
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	expireAt, err := s.ExpiresAt()
	if err != nil {
		expireAt = time.Time{}
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(KeyUser), s.Username, 0)
		pipe.Set(ctx, r.key(KeyToken), s.Token, 0)
		if !expireAt.IsZero() {
			pipe.ExpireAt(ctx, r.key(KeyUser), expireAt)
			pipe.ExpireAt(ctx, r.key(KeyToken), expireAt)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key(KeyUser), r.key(KeyToken)).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}
