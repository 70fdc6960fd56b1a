package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seating-plan/internal/database"
	"github.com/iliyamo/seating-plan/internal/model"
)

type planStore interface {
	Load(ctx context.Context, plan string, tab model.Tab) (*model.Layout, model.HallSize, error)
	Save(ctx context.Context, plan string, tab model.Tab, l *model.Layout, hall model.HallSize) error
	ListSnapshots(ctx context.Context, plan string, tab model.Tab) ([]model.SnapshotInfo, error)
	SaveSnapshot(ctx context.Context, plan string, s model.Snapshot) error
	LoadSnapshot(ctx context.Context, plan, id string) (model.Snapshot, error)
	DeleteSnapshot(ctx context.Context, plan, id string) error
}

func sqliteRepo(t *testing.T) *PlanRepo {
	t.Helper()
	db, err := database.Open(database.SQLite, filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	r, err := NewPlanRepo(db, database.SQLite)
	require.NoError(t, err)
	require.NoError(t, r.Migrate(context.Background()))
	// migrations are idempotent
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func repos(t *testing.T) map[string]func() planStore {
	return map[string]func() planStore{
		"memory": func() planStore { return NewMemoryPlanRepo() },
		"sqlite": func() planStore { return sqliteRepo(t) },
	}
}

func sampleLayout() *model.Layout {
	l := model.NewLayout()
	l.Tables = append(l.Tables, model.Table{
		ID: model.IntID(1), X: 100, Y: 100, Width: 120, Height: 120,
		Shape: model.ShapeRound, Capacity: 8, Seats: 8, Tags: []string{"vegan"},
	})
	l.Seats = append(l.Seats,
		model.Seat{ID: model.IntID(1), X: 100, Y: 20, Enabled: true, TableID: model.IntID(1), GuestID: model.NormalizeID("g-7")},
		model.Seat{ID: model.NormalizeID("extra"), X: 10, Y: 10, Enabled: false},
	)
	l.Areas = append(l.Areas, model.Area{ID: model.IntID(1), Kind: model.AreaBar, Geometry: model.Geometry{X: 5, Y: 5, Width: 10, Height: 10}})
	return l
}

func TestLayoutRoundTrip(t *testing.T) {
	for name, mk := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := mk()

			_, _, err := r.Load(ctx, "p1", model.TabBanquet)
			assert.ErrorIs(t, err, ErrNotFound)

			hall := model.HallSize{Width: 900, Height: 600}
			require.NoError(t, r.Save(ctx, "p1", model.TabBanquet, sampleLayout(), hall))
			got, gotHall, err := r.Load(ctx, "p1", model.TabBanquet)
			require.NoError(t, err)
			assert.Equal(t, sampleLayout(), got)
			assert.Equal(t, hall, gotHall)

			// whole document replacement
			require.NoError(t, r.Save(ctx, "p1", model.TabBanquet, model.NewLayout(), hall))
			got, _, err = r.Load(ctx, "p1", model.TabBanquet)
			require.NoError(t, err)
			assert.Empty(t, got.Tables)
			assert.NotNil(t, got.Seats)

			// tabs and plans are independent
			_, _, err = r.Load(ctx, "p1", model.TabCeremony)
			assert.ErrorIs(t, err, ErrNotFound)
			_, _, err = r.Load(ctx, "p2", model.TabBanquet)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSnapshots(t *testing.T) {
	for name, mk := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := mk()
			base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
			older := model.Snapshot{ID: "a", Name: "first", Tab: model.TabBanquet, Layout: sampleLayout(), HallSize: model.DefaultHallSize, CreatedAt: base}
			newer := model.Snapshot{ID: "b", Name: "second", Tab: model.TabBanquet, Layout: model.NewLayout(), HallSize: model.DefaultHallSize, CreatedAt: base.Add(time.Minute)}
			other := model.Snapshot{ID: "c", Name: "rows", Tab: model.TabCeremony, Layout: model.NewLayout(), HallSize: model.DefaultHallSize, CreatedAt: base}
			for _, s := range []model.Snapshot{older, newer, other} {
				require.NoError(t, r.SaveSnapshot(ctx, "p1", s))
			}
			assert.ErrorIs(t, r.SaveSnapshot(ctx, "p1", older), ErrConflict)

			list, err := r.ListSnapshots(ctx, "p1", model.TabBanquet)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "b", list[0].ID)
			assert.Equal(t, older.Info(), list[1])

			got, err := r.LoadSnapshot(ctx, "p1", "a")
			require.NoError(t, err)
			assert.Equal(t, older, got)

			_, err = r.LoadSnapshot(ctx, "p2", "a")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, r.DeleteSnapshot(ctx, "p1", "a"))
			assert.ErrorIs(t, r.DeleteSnapshot(ctx, "p1", "a"), ErrNotFound)
			list, err = r.ListSnapshots(ctx, "p1", model.TabBanquet)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestPositionalPlaceholders(t *testing.T) {
	r := &PlanRepo{d: dialects["postgres"]}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", r.q("SELECT a FROM t WHERE x = ? AND y = ?"))
	r = &PlanRepo{d: dialects["mysql"]}
	assert.Equal(t, "x = ?", r.q("x = ?"))

	_, err := NewPlanRepo(nil, "oracle")
	assert.Error(t, err)
}
