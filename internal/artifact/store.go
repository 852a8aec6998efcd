package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/happyhackingspace/hamspam/pipeline"
	"github.com/redis/go-redis/v9"
)

// Store keeps artifact bytes under a name.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
}

// Save encodes m with meta and stores it under name.
func Save(ctx context.Context, s Store, name string, m *pipeline.Model, meta Meta) error {
	data, err := Marshal(m, meta)
	if err != nil {
		return err
	}
	if err := s.Put(ctx, name, data); err != nil {
		return fmt.Errorf("artifact: put %s: %w", name, err)
	}
	return nil
}

// Load fetches and decodes the artifact stored under name.
func Load(ctx context.Context, s Store, name string) (*pipeline.Model, Meta, error) {
	data, err := s.Get(ctx, name)
	if err != nil {
		return nil, Meta{}, err
	}
	m, meta, err := Unmarshal(data)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("%s: %w", name, err)
	}
	return m, meta, nil
}

// FileStore keeps artifacts as files. Names are paths relative to Dir; an
// empty Dir uses names as given.
type FileStore struct {
	Dir string
}

func (s FileStore) path(name string) string {
	if s.Dir == "" {
		return name
	}
	return filepath.Join(s.Dir, name)
}

// Put writes data atomically through a temporary file in the same directory.
func (s FileStore) Put(_ context.Context, name string, data []byte) error {
	path := s.path(name)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Get reads the file stored under name.
func (s FileStore) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path(name))
	}
	return data, err
}

// RedisStore keeps artifacts as Redis string values.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to the Redis server at url (redis://host:port/db)
// and checks the connection. Keys are prefix+name; a zero ttl never expires.
func NewRedisStore(ctx context.Context, url, prefix string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("artifact: invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("artifact: redis connection failed: %w", err)
	}
	return NewRedisStoreFromClient(client, prefix, ttl), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Put stores data under prefix+name.
func (s *RedisStore) Put(ctx context.Context, name string, data []byte) error {
	return s.client.Set(ctx, s.prefix+name, data, s.ttl).Err()
}

// Get returns the value under prefix+name.
func (s *RedisStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: redis key %s", ErrNotFound, s.prefix+name)
	}
	return data, err
}

// Delete removes the value under prefix+name.
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	return s.client.Del(ctx, s.prefix+name).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
