// Package assign places guests on seats.  The solver is a deterministic
// greedy pass: guests are grouped (party or explicit keep-together
// group), groups are handled largest first and each group goes to the
// best scoring table that can take all of it, falling back to seating
// members one by one.  Hard rules are never traded against score.
package assign

import (
	"fmt"
	"math"
	"sort"

	"github.com/iliyamo/seating-plan/internal/model"
)

// Weights tune the soft constraints.  Declared incompatibilities are
// always a hard rule; Incompatible additionally pushes incompatible
// guests towards tables far apart from each other.
type Weights struct {
	Party         float64 `json:"party" yaml:"party"`
	Incompatible  float64 `json:"incompatible" yaml:"incompatible"`
	Dietary       float64 `json:"dietary" yaml:"dietary"`
	Accessibility float64 `json:"accessibility" yaml:"accessibility"`
	Proximity     float64 `json:"proximity" yaml:"proximity"`
}

// DefaultWeights favour keeping parties together over everything else.
func DefaultWeights() Weights {
	return Weights{Party: 10, Incompatible: 1, Dietary: 3, Accessibility: 5, Proximity: 1}
}

// WeightOverrides replace single weights.  Unset fields keep the value of
// whatever they are applied to.
type WeightOverrides struct {
	Party         *float64 `json:"party,omitempty" yaml:"party"`
	Incompatible  *float64 `json:"incompatible,omitempty" yaml:"incompatible"`
	Dietary       *float64 `json:"dietary,omitempty" yaml:"dietary"`
	Accessibility *float64 `json:"accessibility,omitempty" yaml:"accessibility"`
	Proximity     *float64 `json:"proximity,omitempty" yaml:"proximity"`
}

// Apply returns w with the set overrides written over it.  A nil o
// returns w unchanged.
func (o *WeightOverrides) Apply(w Weights) Weights {
	if o == nil {
		return w
	}
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&w.Party, o.Party)
	set(&w.Incompatible, o.Incompatible)
	set(&w.Dietary, o.Dietary)
	set(&w.Accessibility, o.Accessibility)
	set(&w.Proximity, o.Proximity)
	return w
}

// Over layers o over base field by field.
func (o *WeightOverrides) Over(base *WeightOverrides) *WeightOverrides {
	if o == nil && base == nil {
		return nil
	}
	out := WeightOverrides{}
	for _, src := range []*WeightOverrides{base, o} {
		if src == nil {
			continue
		}
		pick := func(dst **float64, v *float64) {
			if v != nil {
				x := *v
				*dst = &x
			}
		}
		pick(&out.Party, src.Party)
		pick(&out.Incompatible, src.Incompatible)
		pick(&out.Dietary, src.Dietary)
		pick(&out.Accessibility, src.Accessibility)
		pick(&out.Proximity, src.Proximity)
	}
	return &out
}

// Options configure one solver run.
type Options struct {
	Weights Weights `json:"weights"`
	// AllowLocked lets the solver seat guests at locked tables.
	AllowLocked bool `json:"allowLocked"`
}

// Reason explains why a guest was not placed.
type Reason string

const (
	ReasonCapacity          Reason = "capacity"
	ReasonIncompatible      Reason = "incompatible"
	ReasonAlreadySeated     Reason = "already_seated"
	ReasonDuplicate         Reason = "duplicate_guest"
	ReasonPinnedUnavailable Reason = "pinned_unavailable"
)

// Assignment is one committed placement.
type Assignment struct {
	GuestID model.ID `json:"guestId"`
	SeatID  model.ID `json:"seatId"`
	TableID model.ID `json:"tableId"`
	Score   float64  `json:"score"`
}

// Unplaced is a guest the solver could not or would not seat.
type Unplaced struct {
	GuestID model.ID `json:"guestId"`
	Reason  Reason   `json:"reason"`
	Detail  string   `json:"detail"`
}

// Result carries the new layout and what happened to every guest.
type Result struct {
	Assignments []Assignment  `json:"assignments"`
	Unassigned  []Unplaced    `json:"unassigned"`
	Layout      *model.Layout `json:"-"`
}

// AutoAssign seats guests into a copy of l using opts.
func AutoAssign(l *model.Layout, guests []model.Guest, opts Options) Result {
	return newSolver(l, guests, opts, Rules{}).run()
}

// target is a table, or a row of free-standing ceremony seats acting as
// one.
type target struct {
	table     *model.Table
	order     int
	x, y      float64
	room      int
	seats     []int // indices into layout.Seats, free and enabled
	occupants []model.ID
}

func (t *target) id() model.ID {
	if t.table == nil {
		return model.ID{}
	}
	return t.table.ID
}

func (t *target) name() string {
	if t.table == nil {
		return fmt.Sprintf("row at y=%g", t.y)
	}
	return "table " + t.table.ID.String()
}

type solver struct {
	l       *model.Layout
	guests  []model.Guest
	byID    map[model.ID]*model.Guest
	opts    Options
	rules   Rules
	targets []*target
	apart   map[[2]model.ID]bool
	areas   map[model.ID]model.Geometry
	res     Result
}

func newSolver(l *model.Layout, guests []model.Guest, opts Options, rules Rules) *solver {
	s := &solver{
		l:     l.Clone(),
		byID:  make(map[model.ID]*model.Guest, len(guests)),
		opts:  opts,
		rules: rules,
		apart: make(map[[2]model.ID]bool),
		areas: make(map[model.ID]model.Geometry),
		res:   Result{Assignments: []Assignment{}, Unassigned: []Unplaced{}},
	}
	for _, a := range s.l.Areas {
		s.areas[a.ID] = a.Geometry
	}
	for _, pair := range rules.Apart {
		if len(pair) == 2 {
			s.apart[pairKey(pair[0], pair[1])] = true
		}
	}
	s.buildTargets()
	for _, g := range guests {
		if g.ID.IsZero() {
			continue
		}
		if _, dup := s.byID[g.ID]; dup {
			s.unplaced(g.ID, ReasonDuplicate, "guest listed more than once")
			continue
		}
		s.guests = append(s.guests, g)
		s.byID[g.ID] = &s.guests[len(s.guests)-1]
	}
	// pointers into s.guests stay valid only once appends are done
	for i := range s.guests {
		s.byID[s.guests[i].ID] = &s.guests[i]
	}
	return s
}

func pairKey(a, b model.ID) [2]model.ID {
	if b.Less(a) {
		a, b = b, a
	}
	return [2]model.ID{a, b}
}

func sortedTables(l *model.Layout) []int {
	idx := make([]int, len(l.Tables))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return l.Tables[idx[a]].ID.Less(l.Tables[idx[b]].ID) })
	return idx
}

func (s *solver) buildTargets() {
	for _, ti := range sortedTables(s.l) {
		t := &s.l.Tables[ti]
		tg := &target{table: t, order: len(s.targets), x: t.X, y: t.Y, room: t.Capacity - s.l.Occupancy(t.ID)}
		for i, seat := range s.l.Seats {
			if seat.TableID != t.ID || !seat.Enabled {
				continue
			}
			if seat.GuestID.IsZero() {
				tg.seats = append(tg.seats, i)
			} else {
				tg.occupants = append(tg.occupants, seat.GuestID)
			}
		}
		s.targets = append(s.targets, tg)
	}
	// free-standing seats form one pseudo table per row
	rows := make(map[float64]*target)
	var ys []float64
	for i, seat := range s.l.Seats {
		if !seat.TableID.IsZero() || !seat.Enabled {
			continue
		}
		tg, ok := rows[seat.Y]
		if !ok {
			tg = &target{y: seat.Y}
			rows[seat.Y] = tg
			ys = append(ys, seat.Y)
		}
		if seat.GuestID.IsZero() {
			tg.seats = append(tg.seats, i)
			tg.x += seat.X
		} else {
			tg.occupants = append(tg.occupants, seat.GuestID)
		}
	}
	sort.Float64s(ys)
	for _, y := range ys {
		tg := rows[y]
		tg.room = len(tg.seats)
		if tg.room > 0 {
			tg.x /= float64(tg.room)
		}
		tg.order = len(s.targets)
		s.targets = append(s.targets, tg)
	}
}

func (s *solver) unplaced(g model.ID, r Reason, detail string) {
	s.res.Unassigned = append(s.res.Unassigned, Unplaced{GuestID: g, Reason: r, Detail: detail})
}

// usable reports whether t may receive guests at all.
func (s *solver) usable(t *target) bool {
	if t.table == nil {
		return true
	}
	if !t.table.Enabled() {
		return false
	}
	return s.opts.AllowLocked || !t.table.Locked
}

func (s *solver) incompatible(a, b model.ID) bool {
	if s.apart[pairKey(a, b)] {
		return true
	}
	if g, ok := s.byID[a]; ok && containsID(g.IncompatibleWith, b) {
		return true
	}
	if g, ok := s.byID[b]; ok && containsID(g.IncompatibleWith, a) {
		return true
	}
	return false
}

func containsID(ids []model.ID, id model.ID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// fits reports whether all of members can sit at t together with its
// current occupants.
func (s *solver) fits(t *target, members []model.ID) bool {
	if !s.usable(t) || t.room < len(members) || len(t.seats) < len(members) {
		return false
	}
	for i, m := range members {
		for _, o := range t.occupants {
			if s.incompatible(m, o) {
				return false
			}
		}
		for _, other := range members[i+1:] {
			if s.incompatible(m, other) {
				return false
			}
		}
	}
	return true
}

// score rates a single guest at t.
func (s *solver) score(t *target, g *model.Guest) float64 {
	w := s.opts.Weights
	var sc float64
	if g.PartyID != "" {
		for _, o := range t.occupants {
			if og, ok := s.byID[o]; ok && og.PartyID == g.PartyID {
				sc += w.Party
			}
		}
	}
	if g.Dietary != "" && t.table != nil && t.table.HasTag(g.Dietary) {
		sc += w.Dietary
	}
	if g.Accessibility && s.hasAccessibleSeat(t) {
		sc += w.Accessibility
	}
	if geo, ok := s.areas[g.PreferredArea]; ok && !g.PreferredArea.IsZero() {
		d := math.Hypot(t.x-geo.X, t.y-geo.Y)
		sc += w.Proximity / (1 + d/100)
	}
	if w.Incompatible != 0 {
		for _, o := range s.targets {
			if o == t {
				continue
			}
			for _, id := range o.occupants {
				if s.incompatible(g.ID, id) {
					d := math.Hypot(t.x-o.x, t.y-o.y)
					sc -= w.Incompatible / (1 + d/100)
				}
			}
		}
	}
	return sc
}

func (s *solver) hasAccessibleSeat(t *target) bool {
	for _, i := range t.seats {
		if s.l.Seats[i].Accessible {
			return true
		}
	}
	return false
}

func (s *solver) guest(id model.ID) *model.Guest {
	if g, ok := s.byID[id]; ok {
		return g
	}
	return &model.Guest{ID: id}
}

// pickSeat returns the position in t.seats of the seat g should take, or
// -1.  Accessible seats go to guests who need them and are kept back from
// everyone else while other seats remain.
func (s *solver) pickSeat(t *target, g *model.Guest) int {
	pick := -1
	for k, i := range t.seats {
		if pick < 0 {
			pick = k
			continue
		}
		acc := s.l.Seats[i].Accessible
		cur := s.l.Seats[t.seats[pick]].Accessible
		if acc != cur && acc == g.Accessibility {
			pick = k
		}
	}
	return pick
}

// seat puts g on the best free seat of t.
func (s *solver) seat(t *target, g *model.Guest, sc float64) error {
	pick := s.pickSeat(t, g)
	if pick < 0 {
		return model.Errorf(model.CodeCapacity, "table", t.id(), "no free seat")
	}
	seat := &s.l.Seats[t.seats[pick]]
	if err := s.l.AssignGuest(seat.ID, g.ID); err != nil {
		return err
	}
	t.seats = append(t.seats[:pick], t.seats[pick+1:]...)
	t.room--
	t.occupants = append(t.occupants, g.ID)
	s.res.Assignments = append(s.res.Assignments, Assignment{GuestID: g.ID, SeatID: seat.ID, TableID: seat.TableID, Score: sc})
	return nil
}

// groups partitions the pending guests.  Keep-together groups and
// parties are merged when they share a member.
func (s *solver) groups(pending []model.ID) [][]model.ID {
	parent := make(map[model.ID]model.ID, len(pending))
	var find func(model.ID) model.ID
	find = func(x model.ID) model.ID {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b model.ID) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}
	for _, id := range pending {
		parent[id] = id
	}
	byParty := make(map[string]model.ID)
	for _, id := range pending {
		p := s.guest(id).PartyID
		if p == "" {
			continue
		}
		if first, ok := byParty[p]; ok {
			union(first, id)
		} else {
			byParty[p] = id
		}
	}
	for _, grp := range s.rules.Together {
		var first model.ID
		for _, id := range grp {
			if _, ok := parent[id]; !ok {
				continue
			}
			if first.IsZero() {
				first = id
				continue
			}
			union(first, id)
		}
	}
	index := make(map[model.ID]int)
	var out [][]model.ID
	for _, id := range pending {
		r := find(id)
		i, ok := index[r]
		if !ok {
			i = len(out)
			index[r] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], id)
	}
	sort.SliceStable(out, func(a, b int) bool { return len(out[a]) > len(out[b]) })
	return out
}

func (s *solver) run() Result {
	var pending []model.ID
	for _, g := range s.guests {
		if seat, ok := s.l.SeatOfGuest(g.ID); ok {
			s.unplaced(g.ID, ReasonAlreadySeated, "already on seat "+seat.ID.String())
			continue
		}
		pending = append(pending, g.ID)
	}
	pending = s.placePinned(pending)
	for _, grp := range s.groups(pending) {
		s.placeGroup(grp)
	}
	s.res.Layout = s.l
	return s.res
}

func (s *solver) placePinned(pending []model.ID) []model.ID {
	if len(s.rules.Pinned) == 0 {
		return pending
	}
	rest := pending[:0:0]
	for _, id := range pending {
		tableID, ok := s.rules.Pinned[id]
		if !ok {
			rest = append(rest, id)
			continue
		}
		var tg *target
		for _, t := range s.targets {
			if t.table != nil && t.table.ID == tableID {
				tg = t
				break
			}
		}
		if tg == nil || !s.fits(tg, []model.ID{id}) {
			s.unplaced(id, ReasonPinnedUnavailable, "table "+tableID.String()+" cannot take this guest")
			continue
		}
		g := s.guest(id)
		if err := s.seat(tg, g, s.score(tg, g)); err != nil {
			s.unplaced(id, ReasonPinnedUnavailable, err.Error())
		}
	}
	return rest
}

func (s *solver) placeGroup(members []model.ID) {
	if len(members) > 1 {
		var best *target
		bestScore := math.Inf(-1)
		for _, t := range s.targets {
			if !s.fits(t, members) {
				continue
			}
			var sc float64
			for _, m := range members {
				sc += s.score(t, s.guest(m))
			}
			if sc > bestScore {
				best, bestScore = t, sc
			}
		}
		if best != nil {
			for _, m := range members {
				g := s.guest(m)
				if err := s.seat(best, g, s.score(best, g)); err != nil {
					s.unplaced(m, ReasonCapacity, err.Error())
				}
			}
			return
		}
	}
	for _, m := range members {
		s.placeOne(s.guest(m))
	}
}

func (s *solver) placeOne(g *model.Guest) {
	var best *target
	bestScore := math.Inf(-1)
	blocked := false
	for _, t := range s.targets {
		if !s.usable(t) || t.room < 1 || len(t.seats) == 0 {
			continue
		}
		if !s.fits(t, []model.ID{g.ID}) {
			blocked = true
			continue
		}
		if sc := s.score(t, g); sc > bestScore {
			best, bestScore = t, sc
		}
	}
	switch {
	case best != nil:
		if err := s.seat(best, g, bestScore); err != nil {
			s.unplaced(g.ID, ReasonCapacity, err.Error())
		}
	case blocked:
		s.unplaced(g.ID, ReasonIncompatible, "every table with room seats an incompatible guest")
	default:
		s.unplaced(g.ID, ReasonCapacity, "no table has a free seat")
	}
}
