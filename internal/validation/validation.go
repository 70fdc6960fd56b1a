// Package validation derives the conflict list of a layout.  It always
// recomputes from scratch so the result depends only on the layout and
// the options, never on the mutation that produced it.
package validation

import (
	"fmt"
	"math"
	"sort"

	"github.com/iliyamo/seating-plan/internal/model"
)

// Options tune the detector.
type Options struct {
	// MinAisle is the smallest allowed gap between neighbouring table
	// edges.  Zero disables the aisle rule.
	MinAisle float64
	// Hall is the canvas; entities outside it are flagged.  A zero size
	// disables the bounds rule.
	Hall model.HallSize
	// Enabled mirrors the validationsEnabled toggle.  Conflicts are
	// computed either way; only blocking is affected.
	Enabled bool
}

// Report is the outcome of one validation pass.
type Report struct {
	Conflicts []model.Conflict `json:"conflicts"`
	Enabled   bool             `json:"enabled"`
}

// Blocking reports whether the report should stop export or the
// confirmation of an auto-assignment.
func (r Report) Blocking() bool {
	if !r.Enabled {
		return false
	}
	for _, c := range r.Conflicts {
		if c.Severity == model.SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of conflicts per type.
func (r Report) Count() map[model.ConflictType]int {
	out := make(map[model.ConflictType]int)
	for _, c := range r.Conflicts {
		out[c.Type]++
	}
	return out
}

// Validate runs every rule over l.
func Validate(l *model.Layout, opts Options) Report {
	var cs []model.Conflict
	cs = append(cs, tableGeometry(l, opts.MinAisle)...)
	cs = append(cs, capacity(l)...)
	cs = append(cs, seats(l)...)
	cs = append(cs, bounds(l, opts.Hall)...)
	sortConflicts(cs)
	if cs == nil {
		cs = []model.Conflict{}
	}
	return Report{Conflicts: cs, Enabled: opts.Enabled}
}

// tableGeometry checks every pair of tables once: overlapping footprints
// are errors, footprints closer than minAisle are warnings.
func tableGeometry(l *model.Layout, minAisle float64) []model.Conflict {
	var out []model.Conflict
	boxes := make([]box, len(l.Tables))
	for i, t := range l.Tables {
		boxes[i] = boundingBox(t.Geometry())
	}
	for i := 0; i < len(l.Tables); i++ {
		for j := i + 1; j < len(l.Tables); j++ {
			a, b := l.Tables[i], l.Tables[j]
			gap := boxes[i].gap(boxes[j])
			ids := orderedPair(a.ID, b.ID)
			switch {
			case gap < 0:
				out = append(out, model.Conflict{
					Type:      model.ConflictOverlap,
					Severity:  model.SeverityError,
					EntityIDs: ids,
					Message:   fmt.Sprintf("tables %s and %s overlap", ids[0], ids[1]),
				})
			case minAisle > 0 && gap < minAisle:
				out = append(out, model.Conflict{
					Type:      model.ConflictAisle,
					Severity:  model.SeverityWarning,
					EntityIDs: ids,
					Message:   fmt.Sprintf("aisle between tables %s and %s is %.0f, minimum is %.0f", ids[0], ids[1], gap, minAisle),
				})
			}
		}
	}
	return out
}

func capacity(l *model.Layout) []model.Conflict {
	var out []model.Conflict
	for _, t := range l.Tables {
		if occ := l.Occupancy(t.ID); occ > t.Capacity {
			out = append(out, model.Conflict{
				Type:      model.ConflictCapacity,
				Severity:  model.SeverityError,
				EntityIDs: []model.ID{t.ID},
				Message:   fmt.Sprintf("table %s seats %d guests but holds %d", t.ID, occ, t.Capacity),
			})
		}
		if t.Seats > t.Capacity {
			out = append(out, model.Conflict{
				Type:      model.ConflictSeatSlots,
				Severity:  model.SeverityWarning,
				EntityIDs: []model.ID{t.ID},
				Message:   fmt.Sprintf("table %s has %d seat slots for a capacity of %d", t.ID, t.Seats, t.Capacity),
			})
		}
	}
	return out
}

func seats(l *model.Layout) []model.Conflict {
	var out []model.Conflict
	tables := make(map[model.ID]struct{}, len(l.Tables))
	for _, t := range l.Tables {
		tables[t.ID] = struct{}{}
	}
	byGuest := make(map[model.ID][]model.ID)
	var guests []model.ID
	for _, s := range l.Seats {
		if !s.TableID.IsZero() {
			if _, ok := tables[s.TableID]; !ok {
				out = append(out, model.Conflict{
					Type:      model.ConflictDanglingSeat,
					Severity:  model.SeverityError,
					EntityIDs: []model.ID{s.ID},
					Message:   fmt.Sprintf("seat %s references missing table %s", s.ID, s.TableID),
				})
			}
		}
		if s.GuestID.IsZero() {
			continue
		}
		if !s.Enabled {
			out = append(out, model.Conflict{
				Type:      model.ConflictDisabledSeat,
				Severity:  model.SeverityWarning,
				EntityIDs: []model.ID{s.ID},
				Message:   fmt.Sprintf("disabled seat %s still holds guest %s", s.ID, s.GuestID),
			})
			continue
		}
		if _, seen := byGuest[s.GuestID]; !seen {
			guests = append(guests, s.GuestID)
		}
		byGuest[s.GuestID] = append(byGuest[s.GuestID], s.ID)
	}
	for _, g := range guests {
		ids := byGuest[g]
		if len(ids) < 2 {
			continue
		}
		sortIDs(ids)
		out = append(out, model.Conflict{
			Type:      model.ConflictDuplicateGuest,
			Severity:  model.SeverityError,
			EntityIDs: ids,
			Message:   fmt.Sprintf("guest %s is seated %d times", g, len(ids)),
		})
	}
	return out
}

func bounds(l *model.Layout, hall model.HallSize) []model.Conflict {
	if hall.Width <= 0 || hall.Height <= 0 {
		return nil
	}
	hallBox := box{minX: 0, minY: 0, maxX: hall.Width, maxY: hall.Height}
	var out []model.Conflict
	flag := func(kind string, id model.ID) {
		out = append(out, model.Conflict{
			Type:      model.ConflictOutOfBounds,
			Severity:  model.SeverityWarning,
			EntityIDs: []model.ID{id},
			Message:   fmt.Sprintf("%s %s lies outside the %gx%g hall", kind, id, hall.Width, hall.Height),
		})
	}
	for _, t := range l.Tables {
		if !hallBox.contains(boundingBox(t.Geometry())) {
			flag("table", t.ID)
		}
	}
	for _, s := range l.Seats {
		if s.X < 0 || s.Y < 0 || s.X > hall.Width || s.Y > hall.Height {
			flag("seat", s.ID)
		}
	}
	return out
}

// box is an axis-aligned bounding box.
type box struct{ minX, minY, maxX, maxY float64 }

// boundingBox returns the axis-aligned box enclosing a rotated rectangle.
func boundingBox(g model.Geometry) box {
	sin, cos := math.Sincos(g.Rotation * math.Pi / 180)
	hw := (math.Abs(g.Width*cos) + math.Abs(g.Height*sin)) / 2
	hh := (math.Abs(g.Width*sin) + math.Abs(g.Height*cos)) / 2
	return box{minX: g.X - hw, minY: g.Y - hh, maxX: g.X + hw, maxY: g.Y + hh}
}

// gap is the clearance between two boxes: negative when they overlap,
// zero when they touch.
func (b box) gap(o box) float64 {
	dx := math.Max(o.minX-b.maxX, b.minX-o.maxX)
	dy := math.Max(o.minY-b.maxY, b.minY-o.maxY)
	if dx < 0 && dy < 0 {
		return math.Max(dx, dy)
	}
	switch {
	case dx >= 0 && dy >= 0:
		return math.Hypot(dx, dy)
	case dx >= 0:
		return dx
	default:
		return dy
	}
}

func (b box) contains(o box) bool {
	return o.minX >= b.minX && o.minY >= b.minY && o.maxX <= b.maxX && o.maxY <= b.maxY
}

func orderedPair(a, b model.ID) []model.ID {
	if b.Less(a) {
		return []model.ID{b, a}
	}
	return []model.ID{a, b}
}

func sortIDs(ids []model.ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
}

var severityRank = map[model.Severity]int{model.SeverityError: 0, model.SeverityWarning: 1}

// sortConflicts orders by severity, type, then entity ids.
func sortConflicts(cs []model.Conflict) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if severityRank[a.Severity] != severityRank[b.Severity] {
			return severityRank[a.Severity] < severityRank[b.Severity]
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		for k := 0; k < len(a.EntityIDs) && k < len(b.EntityIDs); k++ {
			if a.EntityIDs[k] != b.EntityIDs[k] {
				return a.EntityIDs[k].Less(b.EntityIDs[k])
			}
		}
		return len(a.EntityIDs) < len(b.EntityIDs)
	})
}
