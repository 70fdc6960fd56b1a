package engine

import (
	"context"
	"time"

	"github.com/iliyamo/seating-plan/internal/metrics"
	"github.com/iliyamo/seating-plan/internal/model"
)

// lockTables takes or renews client's lock on every table in ids.  An
// anonymous client (internal callers) skips locking.  Callers hold e.mu.
func (e *Engine) lockTables(ctx context.Context, client string, ids []model.ID) error {
	if client == "" {
		return nil
	}
	seen := make(map[model.ID]struct{}, len(ids))
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		holder, ok := e.coord.EnsureTableLock(ctx, client, id)
		if !ok {
			if holder.ClientID == "" {
				metrics.ObserveLock("unavailable")
				return model.Errorf(model.CodeLockHeld, "table", id, "locking is unavailable")
			}
			metrics.ObserveLock("denied")
			return model.Errorf(model.CodeLockHeld, "table", id, "table %s is being edited by %s", id, holder.ClientID)
		}
		metrics.ObserveLock("granted")
	}
	return nil
}

// checkForeignLocks refuses a whole-tab replacement while another client
// holds a lock on a table of any of the given layouts.  Callers hold
// e.mu.
func (e *Engine) checkForeignLocks(ctx context.Context, client string, layouts ...*model.Layout) error {
	locks := e.coord.Locks(ctx)
	if len(locks) == 0 {
		return nil
	}
	for _, lk := range locks {
		if lk.ClientID == client {
			continue
		}
		for _, l := range layouts {
			if l == nil {
				continue
			}
			if _, ok := l.Table(lk.TableID); ok {
				return model.Errorf(model.CodeLockHeld, "table", lk.TableID, "table %s is being edited by %s", lk.TableID, lk.ClientID)
			}
		}
	}
	return nil
}

// EnsureTableLock grants or renews client's advisory lock on table.  A
// denial is reported as false together with the holder's lock; the
// client's lock event mailbox explains it.
func (e *Engine) EnsureTableLock(ctx context.Context, client string, table model.ID) (model.Lock, bool) {
	l, ok := e.coord.EnsureTableLock(ctx, client, table)
	switch {
	case ok:
		metrics.ObserveLock("granted")
	case l.ClientID == "":
		metrics.ObserveLock("unavailable")
	default:
		metrics.ObserveLock("denied")
	}
	return l, ok
}

// ReleaseTableLock drops client's lock on table.
func (e *Engine) ReleaseTableLock(ctx context.Context, client string, table model.ID) bool {
	return e.coord.ReleaseTableLock(ctx, client, table)
}

// ReleaseTableLocksExcept drops all of client's locks except the one on
// keep, as used when the client switches to editing another table.
func (e *Engine) ReleaseTableLocksExcept(ctx context.Context, client string, keep model.ID) []model.ID {
	return e.coord.ReleaseTableLocksExcept(ctx, client, keep)
}

// Locks lists the live locks of the plan.
func (e *Engine) Locks(ctx context.Context) []model.Lock { return e.coord.Locks(ctx) }

// LockTTL returns the advisory lock lifetime.
func (e *Engine) LockTTL() time.Duration { return e.coord.TTL() }

// LockEvent peeks at client's latest lock notice.
func (e *Engine) LockEvent(client string) (model.LockEvent, bool) { return e.coord.LockEvent(client) }

// ConsumeLockEvent returns and clears client's latest lock notice.
func (e *Engine) ConsumeLockEvent(client string) (model.LockEvent, bool) {
	return e.coord.ConsumeLockEvent(client)
}

// Join marks client online.
func (e *Engine) Join(client string) { e.coord.Join(client) }

// Leave marks client offline and releases its locks.
func (e *Engine) Leave(ctx context.Context, client string) { e.coord.Leave(ctx, client) }

// SetStatus records an explicit presence status for client.
func (e *Engine) SetStatus(client string, status model.PresenceStatus) error {
	if !status.Valid() {
		return model.Errorf(model.CodeInvalidInput, "presence", model.ID{}, "unknown status %q", status)
	}
	e.coord.SetStatus(client, status)
	return nil
}

// Collaborators lists the other clients connected to the plan.
func (e *Engine) Collaborators(self string) []model.Collaborator { return e.coord.Collaborators(self) }

// CollaborationStatus summarizes the roster seen by self.
func (e *Engine) CollaborationStatus(ctx context.Context, self string) model.CollaborationStatus {
	return e.coord.CollaborationStatus(ctx, self)
}
