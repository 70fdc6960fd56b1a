package collab

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/seating-plan/internal/model"
)

// RedisLockStore shares locks between server instances.  Each lock is a
// hash {client, acquired_ms, expires_ms} with a matching PEXPIRE; every
// plan keeps a set of locked tables so List does not need SCAN.  Expiry
// decisions compare against the caller's clock, the key TTL only
// reclaims memory.
type RedisLockStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisLockStore returns a store using keys under prefix (default
// "seating").
func NewRedisLockStore(rdb *redis.Client, prefix string) *RedisLockStore {
	if prefix == "" {
		prefix = "seating"
	}
	return &RedisLockStore{rdb: rdb, prefix: prefix}
}

func (s *RedisLockStore) lockKey(plan string, table model.ID) string {
	return fmt.Sprintf("%s:plan:%s:lock:%s", s.prefix, plan, table)
}

func (s *RedisLockStore) indexKey(plan string) string {
	return fmt.Sprintf("%s:plan:%s:locks", s.prefix, plan)
}

var acquireScript = redis.NewScript(`
	local key = KEYS[1]
	local index = KEYS[2]
	local client = ARGV[1]
	local now_ms = tonumber(ARGV[2])
	local ttl_ms = tonumber(ARGV[3])
	local table_id = ARGV[4]

	local state = redis.call('HMGET', key, 'client', 'acquired_ms', 'expires_ms')
	local holder = state[1]
	local acquired = tonumber(state[2])
	local expires = tonumber(state[3])

	local live = holder and expires ~= nil and expires > now_ms
	if live and holder ~= client then
		return { 0, holder, acquired, expires }
	end
	if not live or acquired == nil then
		acquired = now_ms
	end

	local new_expires = now_ms + ttl_ms
	redis.call('HSET', key, 'client', client, 'acquired_ms', acquired, 'expires_ms', new_expires)
	redis.call('PEXPIRE', key, ttl_ms)
	redis.call('SADD', index, table_id)

	return { 1, client, acquired, new_expires }
`)

var releaseScript = redis.NewScript(`
	local holder = redis.call('HGET', KEYS[1], 'client')
	if holder == ARGV[1] then
		redis.call('DEL', KEYS[1])
		redis.call('SREM', KEYS[2], ARGV[2])
		return 1
	end
	return 0
`)

func (s *RedisLockStore) Acquire(ctx context.Context, plan string, table model.ID, client string, ttl time.Duration, now time.Time) (model.Lock, bool, error) {
	args := []interface{}{client, now.UnixMilli(), ttl.Milliseconds(), table.String()}
	vals, err := acquireScript.Run(ctx, s.rdb, []string{s.lockKey(plan, table), s.indexKey(plan)}, args...).Result()
	if err != nil {
		return model.Lock{}, false, fmt.Errorf("acquire lock %s: %w", table, err)
	}
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 4 {
		return model.Lock{}, false, fmt.Errorf("acquire lock %s: unexpected script result %#v", table, vals)
	}
	l := model.Lock{
		TableID:    table,
		ClientID:   fmt.Sprint(arr[1]),
		AcquiredAt: time.UnixMilli(asInt64(arr[2])).UTC(),
		ExpiresAt:  time.UnixMilli(asInt64(arr[3])).UTC(),
	}
	return l, asInt64(arr[0]) == 1, nil
}

func (s *RedisLockStore) Release(ctx context.Context, plan string, table model.ID, client string) (bool, error) {
	n, err := releaseScript.Run(ctx, s.rdb, []string{s.lockKey(plan, table), s.indexKey(plan)}, client, table.String()).Int64()
	if err != nil {
		return false, fmt.Errorf("release lock %s: %w", table, err)
	}
	return n == 1, nil
}

func (s *RedisLockStore) Held(ctx context.Context, plan, client string, now time.Time) ([]model.Lock, error) {
	all, err := s.List(ctx, plan, now)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, l := range all {
		if l.ClientID == client {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *RedisLockStore) List(ctx context.Context, plan string, now time.Time) ([]model.Lock, error) {
	ids, err := s.rdb.SMembers(ctx, s.indexKey(plan)).Result()
	if err != nil {
		return nil, fmt.Errorf("list locks: %w", err)
	}
	out := make([]model.Lock, 0, len(ids))
	var stale []interface{}
	for _, raw := range ids {
		table := model.NormalizeID(raw)
		vals, err := s.rdb.HMGet(ctx, s.lockKey(plan, table), "client", "acquired_ms", "expires_ms").Result()
		if err != nil {
			return nil, fmt.Errorf("read lock %s: %w", raw, err)
		}
		l, ok := lockFromHash(table, vals)
		if !ok || l.Expired(now) {
			stale = append(stale, raw)
			continue
		}
		out = append(out, l)
	}
	if len(stale) > 0 {
		// best effort; a concurrent acquire re-adds the member
		_ = s.rdb.SRem(ctx, s.indexKey(plan), stale...).Err()
	}
	sortLocks(out)
	return out, nil
}

func (s *RedisLockStore) Put(ctx context.Context, plan string, l model.Lock) error {
	ttl := time.Until(l.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	key := s.lockKey(plan, l.TableID)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, "client", l.ClientID, "acquired_ms", l.AcquiredAt.UnixMilli(), "expires_ms", l.ExpiresAt.UnixMilli())
	pipe.PExpire(ctx, key, ttl)
	pipe.SAdd(ctx, s.indexKey(plan), l.TableID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put lock %s: %w", l.TableID, err)
	}
	return nil
}

func lockFromHash(table model.ID, vals []interface{}) (model.Lock, bool) {
	if len(vals) != 3 || vals[0] == nil || vals[2] == nil {
		return model.Lock{}, false
	}
	return model.Lock{
		TableID:    table,
		ClientID:   fmt.Sprint(vals[0]),
		AcquiredAt: time.UnixMilli(asInt64(vals[1])).UTC(),
		ExpiresAt:  time.UnixMilli(asInt64(vals[2])).UTC(),
	}, true
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	case float64:
		return int64(t)
	default:
		n, _ := strconv.ParseInt(fmt.Sprint(v), 10, 64)
		return n
	}
}
