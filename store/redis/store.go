// Package redis implements store.Store on Redis.
//
// Each record is a plain string key; each collection keeps a sorted set of
// its member keys scored by a monotonically increasing sequence, which gives
// Scan its insertion order. Commit runs as a single Lua script, so a batch is
// applied atomically with respect to other clients.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/vesting/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

const defaultNamespace = "vesting"

var commitScript = redis.NewScript(`
local n = (#KEYS - 1) / 2
for i = 1, n do
  local dataKey = KEYS[2*i]
  local indexKey = KEYS[2*i+1]
  local op = ARGV[3*i-2]
  local member = ARGV[3*i-1]
  if op == "D" then
    redis.call("DEL", dataKey)
    redis.call("ZREM", indexKey, member)
  else
    redis.call("SET", dataKey, ARGV[3*i])
    if not redis.call("ZSCORE", indexKey, member) then
      redis.call("ZADD", indexKey, redis.call("INCR", KEYS[1]), member)
    end
  end
end
return n
`)

// Option configures a Store.
type Option func(*Store)

// WithNamespace prefixes every Redis key with ns.
func WithNamespace(ns string) Option {
	return func(s *Store) { s.ns = ns }
}

type Store struct {
	client redis.UniversalClient
	ns     string
}

// New wraps an existing client. The Store owns the client and closes it on Close.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, ns: defaultNamespace}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to the server at addr.
func Open(addr, password string, db int, opts ...Option) *Store {
	return New(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), opts...)
}

func (s *Store) dataKey(key string) string  { return s.ns + ":kv:" + key }
func (s *Store) indexKey(coll string) string { return s.ns + ":idx:" + coll }
func (s *Store) seqKey() string              { return s.ns + ":seq" }

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.dataKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vesting/redis: get %s: %w", key, err)
	}
	return val, nil
}

func (s *Store) Scan(ctx context.Context, prefix string, offset, limit int) ([]store.Entry, error) {
	members, err := s.client.ZRange(ctx, s.indexKey(store.Collection(prefix)), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("vesting/redis: scan %s: %w", prefix, err)
	}

	matched := members[:0]
	for _, m := range members {
		if strings.HasPrefix(m, prefix) {
			matched = append(matched, m)
		}
	}
	start, end := store.Page(len(matched), offset, limit)
	matched = matched[start:end]
	if len(matched) == 0 {
		return []store.Entry{}, nil
	}

	keys := make([]string, len(matched))
	for i, m := range matched {
		keys[i] = s.dataKey(m)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("vesting/redis: scan %s: %w", prefix, err)
	}

	result := make([]store.Entry, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// removed between ZRANGE and MGET
			continue
		}
		result = append(result, store.Entry{Key: matched[i], Value: []byte(str)})
	}
	return result, nil
}

func (s *Store) Commit(ctx context.Context, b *store.Batch) error {
	ops := b.Ops()
	if len(ops) == 0 {
		return nil
	}

	keys := make([]string, 0, 1+2*len(ops))
	args := make([]interface{}, 0, 3*len(ops))
	keys = append(keys, s.seqKey())
	for _, op := range ops {
		keys = append(keys, s.dataKey(op.Key), s.indexKey(store.Collection(op.Key)))
		if op.Delete {
			args = append(args, "D", op.Key, "")
		} else {
			args = append(args, "P", op.Key, op.Value)
		}
	}

	if err := commitScript.Run(ctx, s.client, keys, args...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("vesting/redis: commit %d ops: %w", len(ops), err)
	}
	return nil
}

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
