package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// DocumentStorage holds one JSON document per storage key. Load returns
// (nil, nil) when the key has never been written. Concurrent writers to the
// same key are last-write-wins, not reconciled.
type DocumentStorage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, doc []byte) error
}

// FileStorage keeps each document as <dir>/<key>.json.
type FileStorage struct {
	Dir string
}

func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{Dir: dir}
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.Dir, key+".json")
}

func (s *FileStorage) Load(ctx context.Context, key string) ([]byte, error) {
	doc, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *FileStorage) Save(ctx context.Context, key string, doc []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path(key), doc, 0o600)
}

// RedisStorage keeps each document under its key in Redis, for setups where
// session history should follow the user across machines.
type RedisStorage struct {
	rdb *redis.Client
}

func NewRedisStorage(addr, password string, db int) *RedisStorage {
	return &RedisStorage{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	doc, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *RedisStorage) Save(ctx context.Context, key string, doc []byte) error {
	return s.rdb.Set(ctx, key, doc, 0).Err()
}

func (s *RedisStorage) Close() error { return s.rdb.Close() }
