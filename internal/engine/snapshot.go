package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/seating-plan/internal/metrics"
	"github.com/iliyamo/seating-plan/internal/model"
)

// SaveSnapshot stores a named checkpoint of tab.
func (e *Engine) SaveSnapshot(ctx context.Context, tab model.Tab, name string) (model.SnapshotInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.SnapshotInfo{}, model.Errorf(model.CodeInvalidInput, "snapshot", model.ID{}, "name is required")
	}
	e.mu.Lock()
	tab, err := e.resolve(tab)
	if err != nil {
		e.mu.Unlock()
		return model.SnapshotInfo{}, err
	}
	st := e.tabs[tab]
	s := model.Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		Tab:       tab,
		Layout:    st.layout.Clone(),
		HallSize:  st.hall,
		CreatedAt: e.now().UTC(),
	}
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := e.store.SaveSnapshot(ctx, e.plan, s); err != nil {
		return model.SnapshotInfo{}, fmt.Errorf("save snapshot: %w", err)
	}
	e.logger.Info("snapshot saved", "tab", tab, "id", s.ID, "name", name)
	return s.Info(), nil
}

// ListSnapshots lists the checkpoints of tab, newest first.
func (e *Engine) ListSnapshots(ctx context.Context, tab model.Tab) ([]model.SnapshotInfo, error) {
	e.mu.Lock()
	tab, err := e.resolve(tab)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	list, err := e.store.ListSnapshots(ctx, e.plan, tab)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return list, nil
}

// LoadSnapshot fetches a checkpoint with its payload.
func (e *Engine) LoadSnapshot(ctx context.Context, id string) (model.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	s, err := e.store.LoadSnapshot(ctx, e.plan, id)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	return s, nil
}

// RestoreSnapshot replaces the snapshot's tab with the checkpoint.  The
// restore is an ordinary history step and can be undone.
func (e *Engine) RestoreSnapshot(ctx context.Context, client, id string) (res Result, err error) {
	started := time.Now()
	defer func() { metrics.ObserveMutation("restore_snapshot", err, started) }()

	s, err := e.LoadSnapshot(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if s.Layout == nil {
		s.Layout = model.NewLayout()
	}
	if err = s.Layout.Check(); err != nil {
		return Result{}, err
	}
	tab, err := model.ParseTab(string(s.Tab))
	if err != nil {
		return Result{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err = e.checkForeignLocks(ctx, client, e.tabs[tab].layout, s.Layout); err != nil {
		return Result{}, err
	}
	if s.HallSize.Width > 0 && s.HallSize.Height > 0 {
		e.tabs[tab].hall = s.HallSize
	}
	e.commit(ctx, tab, s.Layout.Clone(), true)
	e.logger.Info("snapshot restored", "tab", tab, "id", id, "client", client)
	return e.result(tab), nil
}

// DeleteSnapshot removes a checkpoint.
func (e *Engine) DeleteSnapshot(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := e.store.DeleteSnapshot(ctx, e.plan, id); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	return nil
}
