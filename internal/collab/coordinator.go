package collab

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/iliyamo/seating-plan/internal/model"
)

// DefaultLockTTL is used when no TTL is configured.
const DefaultLockTTL = 30 * time.Second

// storeTimeout bounds a single lock store round trip.
const storeTimeout = 2 * time.Second

// Emitter receives the collaboration events produced locally.
type Emitter func(model.CollabEvent)

// Coordinator tracks the advisory locks, roster and lock-event mailboxes
// of one plan.  Lock denial is an outcome, not an error: every method
// that asks for a lock reports false and leaves a LockEvent for the
// caller instead.
type Coordinator struct {
	plan   string
	store  LockStore
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger

	mu      sync.Mutex
	events  map[string]model.LockEvent
	roster  map[string]model.Collaborator
	emit    Emitter
	idleFor time.Duration
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithClock injects the time source used for expiry decisions.
func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

// WithTTL sets the lock lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Coordinator) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithEmitter registers the sink for outgoing events.
func WithEmitter(e Emitter) Option { return func(c *Coordinator) { c.emit = e } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(c *Coordinator) { c.logger = l } }

// NewCoordinator returns a coordinator for plan backed by store.
func NewCoordinator(plan string, store LockStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		plan:    plan,
		store:   store,
		ttl:     DefaultLockTTL,
		now:     time.Now,
		logger:  log.Default(),
		events:  make(map[string]model.LockEvent),
		roster:  make(map[string]model.Collaborator),
		idleFor: 2 * time.Minute,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// TTL returns the configured lock lifetime.
func (c *Coordinator) TTL() time.Duration { return c.ttl }

// EnsureTableLock grants or renews the lock on table for client and
// reports whether the caller holds it.  The returned lock is the current
// lock of the table; on denial it names the holder.  A failing store
// denies the request and leaves an "unavailable" event.
func (c *Coordinator) EnsureTableLock(ctx context.Context, client string, table model.ID) (model.Lock, bool) {
	now := c.now()
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	l, granted, err := c.store.Acquire(ctx, c.plan, table, client, c.ttl, now)
	if err != nil {
		c.logger.Warn("lock store unavailable", "plan", c.plan, "table", table, "client", client, "err", err)
		c.setEvent(client, model.LockEvent{
			Kind:     model.LockUnavailable,
			TableID:  table,
			ClientID: client,
			Message:  "locking is unavailable, try again",
			At:       now,
		})
		return model.Lock{}, false
	}
	if !granted {
		c.setEvent(client, model.LockEvent{
			Kind:     model.LockDenied,
			TableID:  table,
			ClientID: client,
			HolderID: l.ClientID,
			Message:  fmt.Sprintf("table %s is being edited by %s", table, l.ClientID),
			At:       now,
		})
		c.send(model.CollabEvent{Kind: model.EventLockDenied, ClientID: client, TableID: table, HolderID: l.ClientID, At: now})
		return l, false
	}
	// only announce fresh grants, renewals happen on every edit
	if l.ExpiresAt.Sub(l.AcquiredAt) == c.ttl {
		c.send(model.CollabEvent{Kind: model.EventLockAcquired, ClientID: client, TableID: table, Lock: &l, At: now})
	}
	c.touch(client, now)
	return l, true
}

// ReleaseTableLock drops client's lock on table.
func (c *Coordinator) ReleaseTableLock(ctx context.Context, client string, table model.ID) bool {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	ok, err := c.store.Release(ctx, c.plan, table, client)
	if err != nil {
		c.logger.Warn("release lock failed", "plan", c.plan, "table", table, "client", client, "err", err)
		return false
	}
	if ok {
		c.send(model.CollabEvent{Kind: model.EventLockReleased, ClientID: client, TableID: table, At: c.now()})
	}
	return ok
}

// ReleaseTableLocksExcept releases every lock client holds except the
// one on keep (zero keeps nothing).  It returns the released tables.
func (c *Coordinator) ReleaseTableLocksExcept(ctx context.Context, client string, keep model.ID) []model.ID {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	held, err := c.store.Held(ctx, c.plan, client, c.now())
	if err != nil {
		c.logger.Warn("list held locks failed", "plan", c.plan, "client", client, "err", err)
		return nil
	}
	released := []model.ID{}
	for _, l := range held {
		if l.TableID == keep {
			continue
		}
		ok, err := c.store.Release(ctx, c.plan, l.TableID, client)
		if err != nil {
			c.logger.Warn("release lock failed", "plan", c.plan, "table", l.TableID, "client", client, "err", err)
			continue
		}
		if ok {
			released = append(released, l.TableID)
			c.send(model.CollabEvent{Kind: model.EventLockReleased, ClientID: client, TableID: l.TableID, At: c.now()})
		}
	}
	return released
}

// Locks lists the live locks of the plan.
func (c *Coordinator) Locks(ctx context.Context) []model.Lock {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	ls, err := c.store.List(ctx, c.plan, c.now())
	if err != nil {
		c.logger.Warn("list locks failed", "plan", c.plan, "err", err)
		return []model.Lock{}
	}
	return ls
}

// LockOf returns the live lock on table, if any.
func (c *Coordinator) LockOf(ctx context.Context, table model.ID) (model.Lock, bool) {
	for _, l := range c.Locks(ctx) {
		if l.TableID == table {
			return l, true
		}
	}
	return model.Lock{}, false
}

// LockEvent peeks at the latest lock event of client.
func (c *Coordinator) LockEvent(client string) (model.LockEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev, ok := c.events[client]
	return ev, ok
}

// ConsumeLockEvent returns and clears the latest lock event of client.
func (c *Coordinator) ConsumeLockEvent(client string) (model.LockEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev, ok := c.events[client]
	delete(c.events, client)
	return ev, ok
}

// setEvent overwrites the single-slot mailbox of client.
func (c *Coordinator) setEvent(client string, ev model.LockEvent) {
	c.mu.Lock()
	c.events[client] = ev
	c.mu.Unlock()
}

// ApplyPresence merges a roster update.
func (c *Coordinator) ApplyPresence(client string, status model.PresenceStatus, at time.Time) {
	if client == "" || !status.Valid() {
		return
	}
	if at.IsZero() {
		at = c.now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.roster[client]; ok && cur.LastSeen.After(at) {
		return
	}
	c.roster[client] = model.Collaborator{ClientID: client, Status: status, LastSeen: at}
}

// Join marks client online and announces it.
func (c *Coordinator) Join(client string) {
	now := c.now()
	c.ApplyPresence(client, model.PresenceOnline, now)
	c.send(model.CollabEvent{Kind: model.EventPresence, ClientID: client, Status: model.PresenceOnline, At: now})
}

// Leave marks client offline, drops its locks and announces it.
func (c *Coordinator) Leave(ctx context.Context, client string) {
	now := c.now()
	c.ReleaseTableLocksExcept(ctx, client, model.ID{})
	c.ApplyPresence(client, model.PresenceOffline, now)
	c.send(model.CollabEvent{Kind: model.EventPresence, ClientID: client, Status: model.PresenceOffline, At: now})
}

// SetStatus records an explicit status change from client.
func (c *Coordinator) SetStatus(client string, status model.PresenceStatus) {
	now := c.now()
	c.ApplyPresence(client, status, now)
	c.send(model.CollabEvent{Kind: model.EventPresence, ClientID: client, Status: status, At: now})
}

func (c *Coordinator) touch(client string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.roster[client]
	if ok && cur.Status == model.PresenceOffline {
		return
	}
	c.roster[client] = model.Collaborator{ClientID: client, Status: model.PresenceOnline, LastSeen: at}
}

// Collaborators lists the roster without self, ordered by client id.
// Online clients not heard from for a while are reported idle.
func (c *Coordinator) Collaborators(self string) []model.Collaborator {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Collaborator, 0, len(c.roster))
	for id, col := range c.roster {
		if id == self || col.Status == model.PresenceOffline {
			continue
		}
		if col.Status == model.PresenceOnline && now.Sub(col.LastSeen) > c.idleFor {
			col.Status = model.PresenceIdle
		}
		out = append(out, col)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out
}

// CollaborationStatus summarizes the roster seen by self.
func (c *Coordinator) CollaborationStatus(ctx context.Context, self string) model.CollaborationStatus {
	st := model.CollaborationStatus{Connected: true, Locks: len(c.Locks(ctx))}
	for _, col := range c.Collaborators(self) {
		switch col.Status {
		case model.PresenceOnline:
			st.Online++
		case model.PresenceIdle:
			st.Idle++
		}
	}
	return st
}

// ApplyRemote folds an event produced by another instance into local
// state.  Layout replacement is handled by the engine.
func (c *Coordinator) ApplyRemote(ctx context.Context, ev model.CollabEvent) {
	switch ev.Kind {
	case model.EventPresence:
		c.ApplyPresence(ev.ClientID, ev.Status, ev.At)
	case model.EventLockAcquired:
		if ev.Lock == nil {
			return
		}
		if err := c.store.Put(ctx, c.plan, *ev.Lock); err != nil {
			c.logger.Warn("mirror remote lock failed", "plan", c.plan, "table", ev.TableID, "err", err)
		}
		c.ApplyPresence(ev.ClientID, model.PresenceOnline, ev.At)
	case model.EventLockReleased:
		if _, err := c.store.Release(ctx, c.plan, ev.TableID, ev.ClientID); err != nil {
			c.logger.Warn("mirror remote release failed", "plan", c.plan, "table", ev.TableID, "err", err)
		}
	case model.EventLockDenied:
		c.mu.Lock()
		_, local := c.roster[ev.ClientID]
		c.mu.Unlock()
		if local {
			c.setEvent(ev.ClientID, model.LockEvent{
				Kind:     model.LockDenied,
				TableID:  ev.TableID,
				ClientID: ev.ClientID,
				HolderID: ev.HolderID,
				Message:  fmt.Sprintf("table %s is being edited by %s", ev.TableID, ev.HolderID),
				At:       ev.At,
			})
		}
	}
}

func (c *Coordinator) send(ev model.CollabEvent) {
	c.mu.Lock()
	emit := c.emit
	c.mu.Unlock()
	if emit == nil {
		return
	}
	ev.PlanID = c.plan
	emit(ev)
}

// SetEmitter replaces the outgoing event sink.
func (c *Coordinator) SetEmitter(e Emitter) {
	c.mu.Lock()
	c.emit = e
	c.mu.Unlock()
}
