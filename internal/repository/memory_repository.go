package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/seating-plan/internal/model"
)

type layoutKey struct {
	plan string
	tab  model.Tab
}

type snapshotKey struct {
	plan string
	id   string
}

type layoutDoc struct {
	layout *model.Layout
	hall   model.HallSize
}

// MemoryPlanRepo keeps plans in process memory.  It backs tests and the
// STORE_DRIVER=memory mode; contents are lost on restart.
type MemoryPlanRepo struct {
	mu        sync.Mutex
	layouts   map[layoutKey]layoutDoc
	snapshots map[snapshotKey]model.Snapshot
	saves     int
}

// NewMemoryPlanRepo returns an empty repository.
func NewMemoryPlanRepo() *MemoryPlanRepo {
	return &MemoryPlanRepo{
		layouts:   make(map[layoutKey]layoutDoc),
		snapshots: make(map[snapshotKey]model.Snapshot),
	}
}

// Load returns a copy of the stored layout or ErrNotFound.
func (r *MemoryPlanRepo) Load(_ context.Context, plan string, tab model.Tab) (*model.Layout, model.HallSize, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.layouts[layoutKey{plan, tab}]
	if !ok {
		return nil, model.HallSize{}, ErrNotFound
	}
	return doc.layout.Clone(), doc.hall, nil
}

// Save stores a copy of l.
func (r *MemoryPlanRepo) Save(_ context.Context, plan string, tab model.Tab, l *model.Layout, hall model.HallSize) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts[layoutKey{plan, tab}] = layoutDoc{layout: l.Clone(), hall: hall}
	r.saves++
	return nil
}

// Saves counts Save calls.
func (r *MemoryPlanRepo) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// ListSnapshots lists the snapshots of a tab, newest first.
func (r *MemoryPlanRepo) ListSnapshots(_ context.Context, plan string, tab model.Tab) ([]model.SnapshotInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.SnapshotInfo{}
	for key, s := range r.snapshots {
		if key.plan == plan && s.Tab == tab {
			out = append(out, s.Info())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SaveSnapshot stores a copy of s; a taken id yields ErrConflict.
func (r *MemoryPlanRepo) SaveSnapshot(_ context.Context, plan string, s model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.snapshots {
		if key.id == s.ID {
			return ErrConflict
		}
	}
	s.Layout = s.Layout.Clone()
	r.snapshots[snapshotKey{plan, s.ID}] = s
	return nil
}

// LoadSnapshot returns a copy of a snapshot or ErrNotFound.
func (r *MemoryPlanRepo) LoadSnapshot(_ context.Context, plan, id string) (model.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.snapshots[snapshotKey{plan, id}]
	if !ok {
		return model.Snapshot{}, ErrNotFound
	}
	s.Layout = s.Layout.Clone()
	return s, nil
}

// DeleteSnapshot removes a snapshot or returns ErrNotFound.
func (r *MemoryPlanRepo) DeleteSnapshot(_ context.Context, plan, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := snapshotKey{plan, id}
	if _, ok := r.snapshots[key]; !ok {
		return ErrNotFound
	}
	delete(r.snapshots, key)
	return nil
}
