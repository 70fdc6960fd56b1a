package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seating-plan/internal/assign"
	"github.com/iliyamo/seating-plan/internal/collab"
	"github.com/iliyamo/seating-plan/internal/layout"
	"github.com/iliyamo/seating-plan/internal/logging"
	"github.com/iliyamo/seating-plan/internal/model"
	"github.com/iliyamo/seating-plan/internal/repository"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	e     *Engine
	store *repository.MemoryPlanRepo
	clk   *clock
	hub   *collab.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: repository.NewMemoryPlanRepo(), clk: newClock(), hub: collab.NewHub()}
	e, err := Open(context.Background(), "p1", DefaultConfig(), f.deps())
	require.NoError(t, err)
	f.e = e
	return f
}

func (f *fixture) deps() Deps {
	return Deps{Store: f.store, Hub: f.hub, Logger: logging.Discard(), Now: f.clk.Now}
}

var banquetExample = layout.BanquetParams{Rows: 2, Cols: 3, Seats: 8, GapX: 140, GapY: 160, StartX: 120, StartY: 160}

// withBanquet generates and applies the 2x3 example on the banquet tab.
func (f *fixture) withBanquet(t *testing.T) Result {
	t.Helper()
	_, err := f.e.GenerateBanquetLayout(model.TabBanquet, banquetExample)
	require.NoError(t, err)
	res, err := f.e.ApplyBanquetTables(context.Background(), "", model.TabBanquet)
	require.NoError(t, err)
	return res
}

func guestsN(n int) []model.Guest {
	out := make([]model.Guest, n)
	for i := range out {
		out[i] = model.Guest{ID: model.IntID(int64(i + 1))}
	}
	return out
}

func TestGenerateSeatGrid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := layout.SeatGridParams{Rows: 5, Cols: 6, Spacing: 40, StartX: 100, StartY: 80, SeatsPerRow: 3}

	first, err := f.e.GenerateSeatGrid(ctx, "alice", model.TabCeremony, p)
	require.NoError(t, err)
	require.Len(t, first.Layout.Seats, 30)
	s := first.Layout.Seats[0]
	assert.Equal(t, model.IntID(1), s.ID)
	assert.Equal(t, 100.0, s.X)
	assert.Equal(t, 80.0, s.Y)
	assert.True(t, s.Enabled)
	assert.True(t, s.GuestID.IsZero())

	second, err := f.e.GenerateSeatGrid(ctx, "alice", model.TabCeremony, p)
	require.NoError(t, err)
	assert.Equal(t, first.Layout, second.Layout)
	assert.True(t, second.CanUndo)

	// the banquet tab is untouched
	banquet, err := f.e.State(model.TabBanquet)
	require.NoError(t, err)
	assert.Empty(t, banquet.Layout.Seats)
}

func TestGeneratorInputErrorsLeaveStateUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.e.GenerateSeatGrid(ctx, "alice", model.TabCeremony, layout.SeatGridParams{Rows: 0, Cols: 6, Spacing: 40})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = f.e.GenerateBanquetLayout(model.TabBanquet, layout.BanquetParams{Rows: 2, Cols: 2, GapX: -1, GapY: 10})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	st, err := f.e.State(model.TabCeremony)
	require.NoError(t, err)
	assert.Empty(t, st.Layout.Seats)
	assert.False(t, st.CanUndo)
	_, ok := f.e.Preview(model.TabBanquet)
	assert.False(t, ok)
	assert.Equal(t, 0, f.store.Saves())
}

func TestBanquetPreviewIsSideEffectFree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gen, err := f.e.GenerateBanquetLayout(model.TabBanquet, banquetExample)
	require.NoError(t, err)
	require.Len(t, gen.Tables, 6)
	assert.Equal(t, model.IntID(1), gen.Tables[0].ID)
	assert.Equal(t, 120.0, gen.Tables[0].X)
	assert.Equal(t, 160.0, gen.Tables[0].Y)
	assert.True(t, gen.Tables[0].Enabled())
	for _, tb := range gen.Tables {
		assert.Greater(t, tb.Seats, 0)
	}

	st, err := f.e.State(model.TabBanquet)
	require.NoError(t, err)
	assert.Empty(t, st.Layout.Tables)
	assert.True(t, st.HasPreview)

	assert.True(t, f.e.ClearBanquetLayout(model.TabBanquet))
	assert.False(t, f.e.ClearBanquetLayout(model.TabBanquet))
	_, err = f.e.ApplyBanquetTables(ctx, "alice", model.TabBanquet)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.e.GenerateTemplate(model.TabBanquet, layout.TemplateCircular, layout.TemplateParams{Tables: 6, Spacing: 200, StartX: 900, StartY: 200})
	require.NoError(t, err)
	res, err := f.e.ApplyBanquetTables(ctx, "alice", model.TabBanquet)
	require.NoError(t, err)
	assert.Len(t, res.Layout.Tables, 6)
	assert.Len(t, res.Layout.Seats, 6*layout.DefaultSeatsPerTable)
	assert.False(t, res.HasPreview)
}

func TestUndoRedo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var states []*model.Layout
	for i := 0; i < 3; i++ {
		res, err := f.e.AddArea(ctx, "alice", "", model.Area{Kind: model.AreaZone, Geometry: model.Geometry{X: float64(i * 100), Y: 10, Width: 50, Height: 50}})
		require.NoError(t, err)
		assert.True(t, res.CanUndo)
		assert.False(t, res.CanRedo)
		states = append(states, res.Layout)
	}
	assert.Equal(t, model.IntID(3), states[2].Areas[2].ID)

	res, err := f.e.Undo(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, states[1], res.Layout)
	assert.True(t, res.CanRedo)

	res, err = f.e.Redo(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, states[2], res.Layout)

	for i := 0; i < 3; i++ {
		res, err = f.e.Undo(ctx, "alice", "")
		require.NoError(t, err)
	}
	assert.False(t, res.CanUndo)
	assert.Empty(t, res.Layout.Areas)
	_, err = f.e.Undo(ctx, "alice", "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	// a new mutation prunes the redo branch
	_, err = f.e.AddArea(ctx, "alice", "", model.Area{Kind: model.AreaBar, Geometry: model.Geometry{Width: 5, Height: 5}})
	require.NoError(t, err)
	st, _ := f.e.State("")
	assert.False(t, st.CanRedo)
}

func TestTableLocksGuardMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.withBanquet(t)
	one := model.IntID(1)

	_, err := f.e.MoveTable(ctx, "alice", model.TabBanquet, one, 120, 700)
	require.NoError(t, err)

	_, err = f.e.MoveTable(ctx, "bob", model.TabBanquet, one, 120, 900)
	assert.ErrorIs(t, err, model.ErrLockHeld)
	ev, ok := f.e.ConsumeLockEvent("bob")
	require.True(t, ok)
	assert.Equal(t, model.LockDenied, ev.Kind)
	assert.Equal(t, "alice", ev.HolderID)

	// the denied move did not happen
	st, _ := f.e.State(model.TabBanquet)
	tb, _ := st.Layout.Table(one)
	assert.Equal(t, 700.0, tb.Y)

	// other tables stay editable
	_, err = f.e.RotateTable(ctx, "bob", model.TabBanquet, model.IntID(2), 45)
	require.NoError(t, err)

	// whole-tab replacements wait for other editors
	_, err = f.e.GenerateBanquetLayout(model.TabBanquet, banquetExample)
	require.NoError(t, err)
	_, err = f.e.ApplyBanquetTables(ctx, "alice", model.TabBanquet)
	assert.ErrorIs(t, err, model.ErrLockHeld)
	_, err = f.e.Undo(ctx, "alice", model.TabBanquet)
	assert.ErrorIs(t, err, model.ErrLockHeld)

	assert.Equal(t, []model.ID{one}, f.e.ReleaseTableLocksExcept(ctx, "alice", model.ID{}))
	_, err = f.e.MoveTable(ctx, "bob", model.TabBanquet, one, 120, 900)
	require.NoError(t, err)
}

func TestLocksExpire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.withBanquet(t)

	_, ok := f.e.EnsureTableLock(ctx, "alice", model.IntID(3))
	require.True(t, ok)
	_, ok = f.e.EnsureTableLock(ctx, "bob", model.IntID(3))
	assert.False(t, ok)

	f.clk.Advance(f.e.LockTTL() + time.Second)
	_, ok = f.e.EnsureTableLock(ctx, "bob", model.IntID(3))
	assert.True(t, ok)
}

func TestGeometryLockStillAllowsAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.withBanquet(t)
	one := model.IntID(1)

	_, err := f.e.SetTableLocked(ctx, "alice", model.TabBanquet, one, true)
	require.NoError(t, err)
	_, err = f.e.ResizeTable(ctx, "alice", model.TabBanquet, one, 200, 200)
	assert.ErrorIs(t, err, model.ErrTableLocked)

	seat := res.Layout.SeatsOf(one)[0].ID
	_, err = f.e.AssignGuest(ctx, "alice", model.TabBanquet, seat, model.NormalizeID("g1"))
	require.NoError(t, err)
	other := res.Layout.SeatsOf(model.IntID(2))[0].ID
	_, err = f.e.AssignGuest(ctx, "alice", model.TabBanquet, other, model.NormalizeID("g1"))
	assert.ErrorIs(t, err, model.ErrAlreadySeated)
}

func TestDeleteTableNeverDangles(t *testing.T) {
	for _, release := range []model.SeatRelease{model.DeleteSeats, model.OrphanSeats} {
		f := newFixture(t)
		ctx := context.Background()
		res := f.withBanquet(t)
		one := model.IntID(1)
		seat := res.Layout.SeatsOf(one)[0].ID
		_, err := f.e.AssignGuest(ctx, "alice", model.TabBanquet, seat, model.IntID(99))
		require.NoError(t, err)

		res, err = f.e.DeleteTable(ctx, "alice", model.TabBanquet, one, release)
		require.NoError(t, err)
		for _, s := range res.Layout.Seats {
			assert.NotEqual(t, one, s.TableID)
		}
		_, seated := res.Layout.SeatOfGuest(model.IntID(99))
		assert.False(t, seated)
		for _, c := range res.Conflicts {
			assert.NotEqual(t, model.ConflictDanglingSeat, c.Type)
		}
		if release == model.OrphanSeats {
			assert.Len(t, res.Layout.Seats, 48)
		} else {
			assert.Len(t, res.Layout.Seats, 40)
		}
		_, err = f.e.DeleteTable(ctx, "alice", model.TabBanquet, one, release)
		assert.ErrorIs(t, err, model.ErrNotFound)
	}
}

func TestAutoAssignGuests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.withBanquet(t)

	proposed, err := f.e.AutoAssignGuests(ctx, "carol", model.TabBanquet, guestsN(50), AssignOptions{})
	require.NoError(t, err)
	assert.False(t, proposed.Committed)
	assert.Len(t, proposed.Assignments, 48)
	st, _ := f.e.State(model.TabBanquet)
	assert.Equal(t, 0, st.Layout.Occupancy(model.IntID(1)))

	rep, err := f.e.AutoAssignGuests(ctx, "carol", model.TabBanquet, guestsN(50), AssignOptions{Commit: true})
	require.NoError(t, err)
	require.True(t, rep.Committed)
	require.NotNil(t, rep.State)
	require.Len(t, rep.Unassigned, 2)
	for _, u := range rep.Unassigned {
		assert.Equal(t, "capacity", string(u.Reason))
	}
	l := rep.State.Layout
	seen := map[model.ID]bool{}
	for _, s := range l.Seats {
		if s.GuestID.IsZero() {
			continue
		}
		assert.False(t, seen[s.GuestID], "guest %s seated twice", s.GuestID)
		seen[s.GuestID] = true
	}
	for _, tb := range l.Tables {
		assert.LessOrEqual(t, l.Occupancy(tb.ID), tb.Capacity)
	}
	assert.True(t, rep.State.CanUndo)
}

func TestPartialWeightsKeepIncompatibleApart(t *testing.T) {
	f := newFixture(t)
	f.withBanquet(t)
	guests := guestsN(2)
	for i := range guests {
		guests[i].PartyID = "fam"
	}
	guests[0].IncompatibleWith = []model.ID{guests[1].ID}

	party := 5.0
	rep, err := f.e.AutoAssignGuests(context.Background(), "", model.TabBanquet, guests,
		AssignOptions{Weights: &assign.WeightOverrides{Party: &party}})
	require.NoError(t, err)
	require.Len(t, rep.Assignments, 2)
	assert.NotEqual(t, rep.Assignments[0].TableID, rep.Assignments[1].TableID)

	sopts := f.e.solverOptions(AssignOptions{Weights: &assign.WeightOverrides{Party: &party}})
	assert.Equal(t, 5.0, sopts.Weights.Party)
	assert.Equal(t, assign.DefaultWeights().Incompatible, sopts.Weights.Incompatible)
}

func TestBlockingConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.withBanquet(t)

	// a table on top of table 1
	_, err := f.e.AddTable(ctx, "alice", model.TabBanquet, model.Table{X: 130, Y: 160, Width: 100, Shape: model.ShapeRound, Capacity: 4}, false)
	require.NoError(t, err)
	rep, err := f.e.Conflicts(model.TabBanquet)
	require.NoError(t, err)
	assert.True(t, rep.Blocking())

	out, err := f.e.AutoAssignGuests(ctx, "alice", model.TabBanquet, guestsN(4), AssignOptions{Commit: true})
	assert.ErrorIs(t, err, model.ErrBlocked)
	assert.False(t, out.Committed)
	assert.Len(t, out.Assignments, 4)
	_, err = f.e.Export(model.TabBanquet, nil)
	assert.ErrorIs(t, err, model.ErrBlocked)

	// conflicts are still computed with validations off, but stop blocking
	f.e.SetValidationsEnabled(false)
	rep, _ = f.e.Conflicts(model.TabBanquet)
	assert.NotEmpty(t, rep.Conflicts)
	assert.False(t, rep.Blocking())
	_, err = f.e.Export(model.TabBanquet, nil)
	require.NoError(t, err)
}

func TestAddTableWithSeats(t *testing.T) {
	f := newFixture(t)
	res, err := f.e.AddTable(context.Background(), "alice", model.TabBanquet,
		model.Table{X: 500, Y: 500, Width: 180, Height: 90, Shape: model.ShapeRectangle, Capacity: 6, Label: "Family"}, true)
	require.NoError(t, err)
	require.Len(t, res.Layout.Tables, 1)
	assert.Equal(t, model.IntID(1), res.Layout.Tables[0].ID)
	assert.Equal(t, 6, res.Layout.Tables[0].Seats)
	assert.Len(t, res.Layout.SeatsOf(model.IntID(1)), 6)
}

func TestAddedTableTakesGuests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.e.AddTable(ctx, "", model.TabBanquet,
		model.Table{X: 300, Y: 300, Width: 100, Shape: model.ShapeRound, Capacity: 4}, true)
	require.NoError(t, err)

	rep, err := f.e.AutoAssignGuests(ctx, "", model.TabBanquet, guestsN(2), AssignOptions{Commit: true})
	require.NoError(t, err)
	assert.Empty(t, rep.Unassigned)
	require.Len(t, rep.Assignments, 2)
	for _, a := range rep.Assignments {
		assert.Equal(t, model.IntID(1), a.TableID)
	}
	require.NotNil(t, rep.State)
	assert.Equal(t, 2, rep.State.Layout.Occupancy(model.IntID(1)))
}

func TestExportModel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.withBanquet(t)
	seat := res.Layout.SeatsOf(model.IntID(2))[1]
	_, err := f.e.AssignGuest(ctx, "alice", model.TabBanquet, seat.ID, model.NormalizeID("g-1"))
	require.NoError(t, err)
	_, err = f.e.SetSeatEnabled(ctx, "alice", model.TabBanquet, res.Layout.Seats[0].ID, false)
	require.NoError(t, err)

	out, err := f.e.Export(model.TabBanquet, map[model.ID]string{model.NormalizeID("g-1"): "Ada"})
	require.NoError(t, err)
	assert.Len(t, out.Tables, 6)
	assert.Equal(t, model.DefaultHallSize, out.HallSize)
	require.Len(t, out.Roster, 1)
	assert.Equal(t, RosterEntry{
		TableID: model.IntID(2), TableLabel: "Table 2", SeatID: seat.ID, SeatLabel: seat.Label,
		GuestID: model.NormalizeID("g-1"), GuestName: "Ada",
	}, out.Roster[0])
	counts := map[string]int{}
	for _, le := range out.Legend {
		counts[le.Key] = le.Count
	}
	assert.Equal(t, 46, counts["seat_free"])
	assert.Equal(t, 1, counts["seat_occupied"])
	assert.Equal(t, 1, counts["seat_disabled"])
	assert.Equal(t, 6, counts["table_round"])
}

func TestSnapshotsRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	saved := f.withBanquet(t)

	info, err := f.e.SaveSnapshot(ctx, model.TabBanquet, "  before cleanup ")
	require.NoError(t, err)
	assert.Equal(t, "before cleanup", info.Name)
	_, err = f.e.SaveSnapshot(ctx, model.TabBanquet, " ")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = f.e.DeleteTable(ctx, "alice", model.TabBanquet, model.IntID(1), model.DeleteSeats)
	require.NoError(t, err)
	_, err = f.e.MoveTable(ctx, "alice", model.TabBanquet, model.IntID(2), 260, 400)
	require.NoError(t, err)

	list, err := f.e.ListSnapshots(ctx, model.TabBanquet)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, info.ID, list[0].ID)

	// restoring is refused while alice edits a table of the tab
	_, err = f.e.RestoreSnapshot(ctx, "bob", info.ID)
	assert.ErrorIs(t, err, model.ErrLockHeld)
	f.e.ReleaseTableLocksExcept(ctx, "alice", model.ID{})

	res, err := f.e.RestoreSnapshot(ctx, "bob", info.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Layout, res.Layout)
	assert.True(t, res.CanUndo)

	require.NoError(t, f.e.DeleteSnapshot(ctx, info.ID))
	_, err = f.e.RestoreSnapshot(ctx, "bob", info.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStateSurvivesReopen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.withBanquet(t)
	_, err := f.e.SetHallSize(ctx, model.TabBanquet, model.HallSize{Width: 1000, Height: 800})
	require.NoError(t, err)
	want, _ := f.e.State(model.TabBanquet)

	again, err := Open(ctx, "p1", DefaultConfig(), f.deps())
	require.NoError(t, err)
	got, err := again.State(model.TabBanquet)
	require.NoError(t, err)
	assert.Equal(t, want.Layout, got.Layout)
	assert.Equal(t, want.HallSize, got.HallSize)
	// history starts over from the loaded baseline
	assert.False(t, got.CanUndo)

	_, err = f.e.SetHallSize(ctx, model.TabBanquet, model.HallSize{Width: 0, Height: 5})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestTabs(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, model.TabCeremony, f.e.ActiveTab())
	_, err := f.e.SetActiveTab("garden")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	res, err := f.e.SetActiveTab(model.TabBanquet)
	require.NoError(t, err)
	assert.Equal(t, model.TabBanquet, res.Tab)

	_, err = f.e.AddArea(context.Background(), "alice", "", model.Area{Kind: model.AreaDanceFloor, Geometry: model.Geometry{X: 900, Y: 600, Width: 300, Height: 300}})
	require.NoError(t, err)
	banquet, _ := f.e.State(model.TabBanquet)
	ceremony, _ := f.e.State(model.TabCeremony)
	assert.Len(t, banquet.Layout.Areas, 1)
	assert.Empty(t, ceremony.Layout.Areas)
}

func TestSuggestTablesForGuest(t *testing.T) {
	f := newFixture(t)
	f.withBanquet(t)
	_, err := f.e.SuggestTablesForGuest(model.TabBanquet, model.Guest{}, nil, AssignOptions{}, 3)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	sug, err := f.e.SuggestTablesForGuest(model.TabBanquet, model.Guest{ID: model.IntID(1)}, nil, AssignOptions{}, 3)
	require.NoError(t, err)
	assert.Len(t, sug, 3)
	st, _ := f.e.State(model.TabBanquet)
	_, seated := st.Layout.SeatOfGuest(model.IntID(1))
	assert.False(t, seated)
}

func TestMutationsAreAnnounced(t *testing.T) {
	f := newFixture(t)
	sub := f.hub.Subscribe("p1", 16)
	defer sub.Close()

	_, err := f.e.AddArea(context.Background(), "alice", model.TabCeremony, model.Area{Kind: model.AreaStage, Geometry: model.Geometry{Width: 10, Height: 10}})
	require.NoError(t, err)
	ev := <-sub.C
	assert.Equal(t, model.EventLayoutReplaced, ev.Kind)
	assert.Equal(t, model.TabCeremony, ev.Tab)
	require.NotNil(t, ev.Layout)
	assert.Len(t, ev.Layout.Areas, 1)
}
