package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seating-plan/internal/model"
)

func TestRowLabels(t *testing.T) {
	cases := map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB", 701: "ZZ", 702: "AAA"}
	for i, want := range cases {
		assert.Equal(t, want, RowLabel(i))
		got, ok := RowIndex(want)
		require.True(t, ok)
		assert.Equal(t, i, got)
	}
	assert.Equal(t, "", RowLabel(-1))
	_, ok := RowIndex("A1")
	assert.False(t, ok)
}

func TestParseSeatLabel(t *testing.T) {
	row, col, ok := ParseSeatLabel(SeatLabel(27, 11))
	require.True(t, ok)
	assert.Equal(t, 27, row)
	assert.Equal(t, 11, col)

	for _, bad := range []string{"", "12", "C", "C0", "C-1", "T4-2", "Ä1"} {
		_, _, ok := ParseSeatLabel(bad)
		assert.False(t, ok, bad)
	}
}

func TestSeatGridExample(t *testing.T) {
	seats, err := SeatGrid(SeatGridParams{Rows: 5, Cols: 6, Spacing: 40, StartX: 100, StartY: 80, SeatsPerRow: 3})
	require.NoError(t, err)
	require.Len(t, seats, 30)

	first := seats[0]
	assert.Equal(t, model.IntID(1), first.ID)
	assert.Equal(t, 100.0, first.X)
	assert.Equal(t, 80.0, first.Y)
	assert.True(t, first.Enabled)
	assert.True(t, first.GuestID.IsZero())
	assert.Equal(t, "A1", first.Label)

	// fourth seat starts the second section after a one-spacing aisle
	assert.Equal(t, 100.0+4*40, seats[3].X)
	assert.Equal(t, "E6", seats[29].Label)
}

func TestSeatGridProperties(t *testing.T) {
	for rows := 1; rows <= 4; rows++ {
		for cols := 1; cols <= 5; cols++ {
			p := SeatGridParams{Rows: rows, Cols: cols, Spacing: 35, StartX: 12.5, StartY: 7}
			seats, err := SeatGrid(p)
			require.NoError(t, err)
			require.Len(t, seats, rows*cols)
			assert.Equal(t, 12.5, seats[0].X)
			assert.Equal(t, 7.0, seats[0].Y)
			for i, s := range seats {
				assert.Equal(t, model.IntID(int64(i+1)), s.ID)
				assert.True(t, s.Enabled)
				assert.True(t, s.GuestID.IsZero())
				assert.True(t, s.TableID.IsZero())
			}
			again, err := SeatGrid(p)
			require.NoError(t, err)
			assert.Equal(t, seats, again)
		}
	}
}

func TestSeatGridRejectsBadInput(t *testing.T) {
	bad := []SeatGridParams{
		{Rows: 0, Cols: 3, Spacing: 10},
		{Rows: 3, Cols: -1, Spacing: 10},
		{Rows: 3, Cols: 3, Spacing: 0},
		{Rows: 3, Cols: 3, Spacing: 10, SeatsPerRow: -2},
	}
	for _, p := range bad {
		_, err := SeatGrid(p)
		assert.ErrorIs(t, err, model.ErrInvalidInput, "%+v", p)
	}
}

func TestBanquetExample(t *testing.T) {
	l, err := Banquet(BanquetParams{Rows: 2, Cols: 3, Seats: 8, GapX: 140, GapY: 160, StartX: 120, StartY: 160})
	require.NoError(t, err)
	require.Len(t, l.Tables, 6)

	first := l.Tables[0]
	assert.Equal(t, model.IntID(1), first.ID)
	assert.Equal(t, 120.0, first.X)
	assert.Equal(t, 160.0, first.Y)
	assert.True(t, first.Enabled())
	assert.Equal(t, 8, first.Seats)
	assert.Equal(t, 8, first.Capacity)

	assert.Equal(t, 120.0+2*140, l.Tables[2].X)
	assert.Equal(t, 160.0+160, l.Tables[3].Y)

	require.Len(t, l.Seats, 48)
	for _, tb := range l.Tables {
		assert.Len(t, l.SeatsOf(tb.ID), 8)
	}
	assert.Equal(t, "T1-1", l.Seats[0].Label)
	// first chair of a round table sits straight above it
	assert.Equal(t, 120.0, l.Seats[0].X)
	assert.Equal(t, 160.0-80, l.Seats[0].Y)
}

func TestBanquetDefaultsSeatCount(t *testing.T) {
	l, err := Banquet(BanquetParams{Rows: 1, Cols: 2, Seats: 0, GapX: 200, GapY: 200, Shape: model.ShapeRectangle})
	require.NoError(t, err)
	for _, tb := range l.Tables {
		assert.Equal(t, DefaultSeatsPerTable, tb.Seats)
		assert.Greater(t, tb.Capacity, 0)
	}
	assert.NoError(t, l.Check())
}

func TestBanquetIdempotent(t *testing.T) {
	p := BanquetParams{Rows: 3, Cols: 2, Seats: 6, GapX: 150, GapY: 150, StartX: 10, StartY: 20}
	a, err := Banquet(p)
	require.NoError(t, err)
	b, err := Banquet(p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBanquetRejectsBadInput(t *testing.T) {
	_, err := Banquet(BanquetParams{Rows: 1, Cols: 1, GapX: 0, GapY: 10})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = Banquet(BanquetParams{Rows: 1, Cols: 1, GapX: 10, GapY: 10, Shape: "oval"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestTemplatesStartAtOrigin(t *testing.T) {
	for _, info := range Templates() {
		for _, n := range []int{1, 3, 4, 7, 12} {
			l, err := Generate(info.Name, TemplateParams{Tables: n, Seats: 6, Spacing: 200, StartX: 300, StartY: 150})
			require.NoError(t, err, info.Name)
			require.Len(t, l.Tables, n, "%s/%d", info.Name, n)
			assert.Equal(t, 300.0, l.Tables[0].X, "%s/%d", info.Name, n)
			assert.Equal(t, 150.0, l.Tables[0].Y, "%s/%d", info.Name, n)
			require.NoError(t, l.Check())

			seen := map[[2]float64]bool{}
			for i, tb := range l.Tables {
				assert.Equal(t, model.IntID(int64(i+1)), tb.ID)
				assert.Greater(t, tb.Seats, 0)
				key := [2]float64{tb.X, tb.Y}
				assert.False(t, seen[key], "%s/%d stacked tables at %v", info.Name, n, key)
				seen[key] = true
			}
		}
	}
}

func TestImperialHeadTable(t *testing.T) {
	l, err := Generate(TemplateImperial, TemplateParams{Tables: 5, Seats: 8, Spacing: 250})
	require.NoError(t, err)
	head := l.Tables[0]
	assert.Equal(t, model.ShapeRectangle, head.Shape)
	assert.Equal(t, 16, head.Capacity)
	assert.Len(t, l.SeatsOf(head.ID), 16)
	assert.Len(t, l.Seats, 16+4*8)
	assert.Equal(t, model.IntID(1), l.Seats[0].ID)
	assert.Equal(t, model.IntID(int64(len(l.Seats))), l.Seats[len(l.Seats)-1].ID)
}

func TestGenerateUnknownTemplate(t *testing.T) {
	_, err := Generate("spiral", TemplateParams{Tables: 2, Spacing: 10})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
