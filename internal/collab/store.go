// Package collab implements the multi-client side of editing: advisory
// table locks with lazy expiry, the collaborator roster and the per-client
// lock-event mailbox.  Locks live in a LockStore so several server
// instances can share them through Redis.
package collab

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/seating-plan/internal/model"
)

// LockStore holds the advisory locks of every plan.  Implementations must
// treat a lock whose ExpiresAt is not after now as absent.
type LockStore interface {
	// Acquire grants or renews the lock on table for client.  When
	// another client holds a live lock, that lock is returned with
	// granted=false.
	Acquire(ctx context.Context, plan string, table model.ID, client string, ttl time.Duration, now time.Time) (lock model.Lock, granted bool, err error)
	// Release drops the lock if client holds it.
	Release(ctx context.Context, plan string, table model.ID, client string) (bool, error)
	// Held lists the live locks of client.
	Held(ctx context.Context, plan, client string, now time.Time) ([]model.Lock, error)
	// List returns every live lock of the plan ordered by table.
	List(ctx context.Context, plan string, now time.Time) ([]model.Lock, error)
	// Put stores a lock observed from another instance as is.
	Put(ctx context.Context, plan string, lock model.Lock) error
}

// MemoryLockStore keeps locks in process.  It is the default for a single
// instance and the reference behaviour for RedisLockStore.
type MemoryLockStore struct {
	mu    sync.Mutex
	locks map[string]map[model.ID]model.Lock
}

// NewMemoryLockStore returns an empty store.
func NewMemoryLockStore() *MemoryLockStore {
	return &MemoryLockStore{locks: make(map[string]map[model.ID]model.Lock)}
}

func (s *MemoryLockStore) plan(plan string) map[model.ID]model.Lock {
	m, ok := s.locks[plan]
	if !ok {
		m = make(map[model.ID]model.Lock)
		s.locks[plan] = m
	}
	return m
}

func (s *MemoryLockStore) Acquire(_ context.Context, plan string, table model.ID, client string, ttl time.Duration, now time.Time) (model.Lock, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.plan(plan)
	cur, ok := m[table]
	if ok && !cur.Expired(now) && cur.ClientID != client {
		return cur, false, nil
	}
	l := model.Lock{TableID: table, ClientID: client, AcquiredAt: now, ExpiresAt: now.Add(ttl)}
	if ok && !cur.Expired(now) {
		l.AcquiredAt = cur.AcquiredAt
	}
	m[table] = l
	return l, true, nil
}

func (s *MemoryLockStore) Release(_ context.Context, plan string, table model.ID, client string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.plan(plan)
	if cur, ok := m[table]; ok && cur.ClientID == client {
		delete(m, table)
		return true, nil
	}
	return false, nil
}

func (s *MemoryLockStore) Held(ctx context.Context, plan, client string, now time.Time) ([]model.Lock, error) {
	all, _ := s.List(ctx, plan, now)
	out := all[:0]
	for _, l := range all {
		if l.ClientID == client {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *MemoryLockStore) List(_ context.Context, plan string, now time.Time) ([]model.Lock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.plan(plan)
	out := make([]model.Lock, 0, len(m))
	for id, l := range m {
		if l.Expired(now) {
			delete(m, id)
			continue
		}
		out = append(out, l)
	}
	sortLocks(out)
	return out, nil
}

func (s *MemoryLockStore) Put(_ context.Context, plan string, l model.Lock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan(plan)[l.TableID] = l
	return nil
}

func sortLocks(ls []model.Lock) {
	sort.Slice(ls, func(i, j int) bool { return ls[i].TableID.Less(ls[j].TableID) })
}
