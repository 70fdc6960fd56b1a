package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/seating-plan/internal/model"
)

func TestRosterOrdersCeremonySeatsByLabel(t *testing.T) {
	l := &model.Layout{Seats: []model.Seat{
		{ID: model.IntID(1), Enabled: true, Label: "B1", GuestID: model.IntID(11)},
		{ID: model.IntID(2), Enabled: true, Label: "A10", GuestID: model.IntID(12)},
		{ID: model.IntID(3), Enabled: true, Label: "A2", GuestID: model.IntID(13)},
		{ID: model.IntID(4), Enabled: true, Label: "A1"},
	}}

	got := roster(l, nil)
	labels := make([]string, len(got))
	for i, r := range got {
		labels[i] = r.SeatLabel
	}
	assert.Equal(t, []string{"A2", "A10", "B1"}, labels)
}
