package engine

import (
	"sort"

	"github.com/iliyamo/seating-plan/internal/layout"
	"github.com/iliyamo/seating-plan/internal/model"
)

// LegendEntry is one key of the rendered legend.
type LegendEntry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// RosterEntry is one assigned seat, in table then seat order, for table
// renderers such as CSV.
type RosterEntry struct {
	TableID    model.ID `json:"tableId"`
	TableLabel string   `json:"tableLabel"`
	SeatID     model.ID `json:"seatId"`
	SeatLabel  string   `json:"seatLabel"`
	GuestID    model.ID `json:"guestId"`
	GuestName  string   `json:"guestName,omitempty"`
}

// ExportModel is everything an external renderer needs.  The engine
// never produces file bytes itself.
type ExportModel struct {
	Plan     string         `json:"plan"`
	Tab      model.Tab      `json:"tab"`
	Areas    []model.Area   `json:"areas"`
	Tables   []model.Table  `json:"tables"`
	Seats    []model.Seat   `json:"seats"`
	HallSize model.HallSize `json:"hallSize"`
	Legend   []LegendEntry  `json:"legend"`
	Roster   []RosterEntry  `json:"roster"`
}

// Export builds the export model of tab.  names optionally maps guest
// ids to display names.  Export is refused with ErrBlocked while the tab
// has blocking conflicts.
func (e *Engine) Export(tab model.Tab, names map[model.ID]string) (ExportModel, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tab, err := e.resolve(tab)
	if err != nil {
		return ExportModel{}, err
	}
	st := e.tabs[tab]
	if st.report.Blocking() {
		return ExportModel{}, model.Errorf(model.CodeBlocked, "layout", model.ID{}, "resolve %d blocking conflicts before exporting", countErrors(st.report))
	}
	l := st.layout.Clone()
	return ExportModel{
		Plan:     e.plan,
		Tab:      tab,
		Areas:    l.Areas,
		Tables:   l.Tables,
		Seats:    l.Seats,
		HallSize: st.hall,
		Legend:   legend(l),
		Roster:   roster(l, names),
	}, nil
}

func legend(l *model.Layout) []LegendEntry {
	var free, taken, disabled, accessible int
	for _, s := range l.Seats {
		switch {
		case !s.Enabled:
			disabled++
		case s.Occupied():
			taken++
		default:
			free++
		}
		if s.Accessible {
			accessible++
		}
	}
	var round, rect, locked int
	for _, t := range l.Tables {
		if t.Shape == model.ShapeRound {
			round++
		} else {
			rect++
		}
		if t.Locked {
			locked++
		}
	}
	out := []LegendEntry{
		{Key: "seat_free", Label: "Free seat", Count: free},
		{Key: "seat_occupied", Label: "Assigned seat", Count: taken},
		{Key: "seat_disabled", Label: "Disabled seat", Count: disabled},
		{Key: "seat_accessible", Label: "Accessible seat", Count: accessible},
		{Key: "table_round", Label: "Round table", Count: round},
		{Key: "table_rectangle", Label: "Rectangular table", Count: rect},
		{Key: "table_locked", Label: "Locked table", Count: locked},
	}
	kinds := make(map[model.AreaKind]int)
	for _, a := range l.Areas {
		kinds[a.Kind]++
	}
	keys := make([]string, 0, len(kinds))
	for k := range kinds {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, LegendEntry{Key: "area_" + k, Label: areaLabels[model.AreaKind(k)], Count: kinds[model.AreaKind(k)]})
	}
	return out
}

var areaLabels = map[model.AreaKind]string{
	model.AreaDanceFloor: "Dance floor",
	model.AreaBar:        "Bar",
	model.AreaBuffer:     "Buffer zone",
	model.AreaStage:      "Stage",
	model.AreaZone:       "Zone",
}

func roster(l *model.Layout, names map[model.ID]string) []RosterEntry {
	labels := make(map[model.ID]string, len(l.Tables))
	for _, t := range l.Tables {
		label := t.Label
		if label == "" {
			label = "Table " + t.ID.String()
		}
		labels[t.ID] = label
	}
	out := []RosterEntry{}
	for _, s := range l.Seats {
		if !s.Occupied() {
			continue
		}
		out = append(out, RosterEntry{
			TableID:    s.TableID,
			TableLabel: labels[s.TableID],
			SeatID:     s.ID,
			SeatLabel:  s.Label,
			GuestID:    s.GuestID,
			GuestName:  names[s.GuestID],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TableID != out[j].TableID {
			return out[i].TableID.Less(out[j].TableID)
		}
		// ceremony rows read A1, A2 .. A10 rather than in id order
		ri, ci, oki := layout.ParseSeatLabel(out[i].SeatLabel)
		rj, cj, okj := layout.ParseSeatLabel(out[j].SeatLabel)
		if oki && okj && (ri != rj || ci != cj) {
			if ri != rj {
				return ri < rj
			}
			return ci < cj
		}
		return out[i].SeatID.Less(out[j].SeatID)
	})
	return out
}
