package collab

import (
	"sync"

	"github.com/iliyamo/seating-plan/internal/model"
)

// Hub fans collaboration events out to live subscribers of a plan.  A
// slow subscriber loses events rather than stalling the publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub { return &Hub{subs: make(map[string]map[*Subscription]struct{})} }

// Subscription is a live feed of one plan's events.
type Subscription struct {
	C    <-chan model.CollabEvent
	ch   chan model.CollabEvent
	plan string
	hub  *Hub
	once sync.Once
}

// Subscribe opens a feed with room for buf pending events.
func (h *Hub) Subscribe(plan string, buf int) *Subscription {
	if buf <= 0 {
		buf = 32
	}
	ch := make(chan model.CollabEvent, buf)
	s := &Subscription{C: ch, ch: ch, plan: plan, hub: h}
	h.mu.Lock()
	if h.subs[plan] == nil {
		h.subs[plan] = make(map[*Subscription]struct{})
	}
	h.subs[plan][s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Close detaches the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs[s.plan], s)
		if len(s.hub.subs[s.plan]) == 0 {
			delete(s.hub.subs, s.plan)
		}
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

// Publish delivers ev to every subscriber of ev.PlanID.
func (h *Hub) Publish(ev model.CollabEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[ev.PlanID] {
		select {
		case s.ch <- ev:
		default:
		}
	}
}

// Subscribers counts the live feeds of plan.
func (h *Hub) Subscribers(plan string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[plan])
}
