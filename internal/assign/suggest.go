package assign

import (
	"sort"

	"github.com/iliyamo/seating-plan/internal/model"
)

// Suggestion is a candidate target for one guest.  TableID is zero for a
// row of free-standing seats.
type Suggestion struct {
	TableID model.ID `json:"tableId"`
	SeatID  model.ID `json:"seatId"`
	Label   string   `json:"label"`
	Score   float64  `json:"score"`
	Free    int      `json:"free"`
}

// SuggestTables ranks every target that could take guest right now,
// without changing l.  guests gives the context needed for party and
// incompatibility scoring and may include guest itself.
func SuggestTables(l *model.Layout, guest model.Guest, guests []model.Guest, opts Options, limit int) []Suggestion {
	ctx := make([]model.Guest, 0, len(guests)+1)
	for _, g := range guests {
		if g.ID != guest.ID {
			ctx = append(ctx, g)
		}
	}
	ctx = append(ctx, guest)
	s := newSolver(l, ctx, opts, Rules{})
	g := s.guest(guest.ID)

	type ranked struct {
		Suggestion
		order int
	}
	var out []ranked
	for _, t := range s.targets {
		if !s.fits(t, []model.ID{guest.ID}) {
			continue
		}
		var seatID model.ID
		if k := s.pickSeat(t, g); k >= 0 {
			seatID = s.l.Seats[t.seats[k]].ID
		}
		out = append(out, ranked{
			Suggestion: Suggestion{TableID: t.id(), SeatID: seatID, Label: t.name(), Score: s.score(t, g), Free: t.room},
			order:      t.order,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].order < out[j].order
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	res := make([]Suggestion, len(out))
	for i, r := range out {
		res[i] = r.Suggestion
	}
	return res
}
