package bans

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-redis/redis/v9"
	"github.com/sasha-s/go-deadlock"
	"github.com/sauerbraten/jsonfile"
)

var ErrMissing = fmt.Errorf("ban list missing")

type Store interface {
	Load(ctx context.Context) ([]Ban, error)
	Save(ctx context.Context, bans []Ban) error
}

// FSStore keeps the ban list in a JSON file. The file may contain // line
// comments so operators can annotate it by hand.
type FSStore string

func (f FSStore) Load(ctx context.Context) ([]Ban, error) {
	path := string(f)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrMissing
	}

	var bans []Ban
	if err := jsonfile.ParseFile(path, &bans); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}
	return bans, nil
}

func (f FSStore) Save(ctx context.Context, bans []Ban) error {
	path := string(f)
	data, err := json.MarshalIndent(bans, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0644); err != nil {
		return err
	}
	return os.Rename(temp, path)
}

type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    key,
	}
}

func (r *RedisStore) Load(ctx context.Context) ([]Ban, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()

	if err == redis.Nil {
		return nil, ErrMissing
	}

	if err != nil {
		return nil, err
	}

	var bans []Ban
	if err := json.Unmarshal(data, &bans); err != nil {
		return nil, fmt.Errorf("could not decode bans: %w", err)
	}
	return bans, nil
}

func (r *RedisStore) Save(ctx context.Context, bans []Ban) error {
	data, err := json.Marshal(bans)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, data, 0).Err()
}

// MemoryStore is used when persistence is disabled.
type MemoryStore struct {
	bans  []Ban
	mutex deadlock.Mutex
}

func (m *MemoryStore) Load(ctx context.Context) ([]Ban, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.bans == nil {
		return nil, ErrMissing
	}
	return append([]Ban(nil), m.bans...), nil
}

func (m *MemoryStore) Save(ctx context.Context, bans []Ban) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.bans = append([]Ban{}, bans...)
	return nil
}

var _ Store = (*FSStore)(nil)
var _ Store = (*RedisStore)(nil)
var _ Store = (*MemoryStore)(nil)
