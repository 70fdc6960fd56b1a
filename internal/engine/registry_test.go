package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seating-plan/internal/collab"
	"github.com/iliyamo/seating-plan/internal/logging"
	"github.com/iliyamo/seating-plan/internal/model"
	"github.com/iliyamo/seating-plan/internal/repository"
)

// loopRelay delivers every published event to the registries of all
// instances, the way a fanout exchange would.
type loopRelay struct {
	mu    sync.Mutex
	peers []*Registry
	sent  []model.CollabEvent
}

func (r *loopRelay) Publish(ctx context.Context, ev model.CollabEvent) error {
	r.mu.Lock()
	r.sent = append(r.sent, ev)
	peers := append([]*Registry(nil), r.peers...)
	r.mu.Unlock()
	for _, p := range peers {
		if err := p.ApplyRemote(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func newInstance(origin string, store Store, relay Relay) *Registry {
	cfg := DefaultConfig()
	cfg.Origin = origin
	return NewRegistry(cfg, Deps{
		Store:  store,
		Locks:  collab.NewMemoryLockStore(),
		Relay:  relay,
		Hub:    collab.NewHub(),
		Logger: logging.Discard(),
	})
}

func TestRegistryGet(t *testing.T) {
	ctx := context.Background()
	r := newInstance("a", repository.NewMemoryPlanRepo(), nil)

	_, err := r.Get(ctx, "../etc")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	var wg sync.WaitGroup
	got := make([]*Engine, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := r.Get(ctx, "wedding-2025")
			assert.NoError(t, err)
			got[i] = e
		}(i)
	}
	wg.Wait()
	for _, e := range got {
		assert.Same(t, got[0], e)
	}
	assert.Equal(t, []string{"wedding-2025"}, r.Plans())
	assert.Equal(t, "wedding-2025", got[0].Plan())
}

func TestRemoteReplicas(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryPlanRepo()
	relay := &loopRelay{}
	a := newInstance("a", store, relay)
	b := newInstance("b", store, relay)
	relay.peers = []*Registry{a, b}

	ea, err := a.Get(ctx, "p1")
	require.NoError(t, err)
	eb, err := b.Get(ctx, "p1")
	require.NoError(t, err)

	res, err := ea.AddTable(ctx, "alice", model.TabBanquet, model.Table{X: 300, Y: 300, Width: 120, Shape: model.ShapeRound, Capacity: 8}, true)
	require.NoError(t, err)

	// b replaced its tab with a's state and recorded it
	st, err := eb.State(model.TabBanquet)
	require.NoError(t, err)
	assert.Equal(t, res.Layout, st.Layout)
	assert.True(t, st.CanUndo)

	// a lock taken through a is mirrored on b
	_, ok := ea.EnsureTableLock(ctx, "alice", model.IntID(1))
	require.True(t, ok)
	_, ok = eb.EnsureTableLock(ctx, "bob", model.IntID(1))
	assert.False(t, ok)
	cols := eb.Collaborators("bob")
	require.Len(t, cols, 1)
	assert.Equal(t, "alice", cols[0].ClientID)
	assert.Equal(t, model.PresenceOnline, cols[0].Status)

	// bob's denial reaches a's mailbox only if bob is known there
	a.ApplyRemote(ctx, model.CollabEvent{Kind: model.EventPresence, Origin: "b", PlanID: "p1", ClientID: "bob", Status: model.PresenceOnline})
	_, ok = eb.EnsureTableLock(ctx, "bob", model.IntID(1))
	assert.False(t, ok)
	ev, ok := ea.LockEvent("bob")
	require.True(t, ok)
	assert.Equal(t, "alice", ev.HolderID)

	assert.Len(t, ea.ReleaseTableLocksExcept(ctx, "alice", model.ID{}), 1)
	_, ok = eb.EnsureTableLock(ctx, "bob", model.IntID(1))
	assert.True(t, ok)

	// own events and unknown plans are ignored
	require.NoError(t, a.ApplyRemote(ctx, model.CollabEvent{Kind: model.EventLayoutReplaced, Origin: "a", PlanID: "p1"}))
	require.NoError(t, a.ApplyRemote(ctx, model.CollabEvent{Kind: model.EventLayoutReplaced, Origin: "b", PlanID: "nope"}))
	err = a.ApplyRemote(ctx, model.CollabEvent{Kind: model.EventLayoutReplaced, Origin: "b", PlanID: "p1", Tab: model.TabBanquet})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	relay.mu.Lock()
	defer relay.mu.Unlock()
	for _, ev := range relay.sent {
		assert.Equal(t, "p1", ev.PlanID)
		assert.NotEmpty(t, ev.Origin)
	}
}
