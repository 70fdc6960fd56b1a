// Package history keeps a bounded, linear undo/redo stack per tab.  Each
// entry is a deep copy of the full layout; the first entry of a stack is
// the baseline and cannot itself be undone.
package history

import (
	"sync"
	"time"

	"github.com/iliyamo/seating-plan/internal/model"
)

// DefaultLimit bounds a stack when no limit is configured.
const DefaultLimit = 50

type stack struct {
	entries []model.HistoryEntry
	cursor  int
}

// Manager owns one stack per tab.
type Manager struct {
	mu     sync.Mutex
	limit  int
	stacks map[model.Tab]*stack
	now    func() time.Time
}

// NewManager returns a manager keeping at most limit entries per tab.
// Zero selects DefaultLimit; other values below 2 are raised to 2, the
// smallest stack that can undo anything.
func NewManager(limit int) *Manager {
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 2:
		limit = 2
	}
	return &Manager{limit: limit, stacks: make(map[model.Tab]*stack), now: time.Now}
}

func (m *Manager) stack(tab model.Tab) *stack {
	s, ok := m.stacks[tab]
	if !ok {
		s = &stack{cursor: -1}
		m.stacks[tab] = s
	}
	return s
}

// Push records l as the newest state of tab.  Entries after the cursor
// are discarded first and the oldest entry is dropped once the stack is
// over its limit.
func (m *Manager) Push(tab model.Tab, l *model.Layout) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stack(tab)
	s.entries = append(s.entries[:s.cursor+1], model.HistoryEntry{Tab: tab, Layout: l.Clone(), Timestamp: m.now().UTC()})
	if over := len(s.entries) - m.limit; over > 0 {
		s.entries = append([]model.HistoryEntry(nil), s.entries[over:]...)
	}
	s.cursor = len(s.entries) - 1
}

// Reset replaces the stack of tab with a single baseline entry.
func (m *Manager) Reset(tab model.Tab, l *model.Layout) {
	m.mu.Lock()
	s := m.stack(tab)
	s.entries, s.cursor = nil, -1
	m.mu.Unlock()
	m.Push(tab, l)
}

// Undo moves the cursor back and returns a copy of the state it now
// points at.  ok is false when there is nothing to undo.
func (m *Manager) Undo(tab model.Tab) (l *model.Layout, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stack(tab)
	if s.cursor <= 0 {
		return nil, false
	}
	s.cursor--
	return s.entries[s.cursor].Layout.Clone(), true
}

// Redo moves the cursor forward and returns a copy of the state it now
// points at.  ok is false when there is nothing to redo.
func (m *Manager) Redo(tab model.Tab) (l *model.Layout, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stack(tab)
	if s.cursor >= len(s.entries)-1 {
		return nil, false
	}
	s.cursor++
	return s.entries[s.cursor].Layout.Clone(), true
}

// CanUndo reports cursor > 0.
func (m *Manager) CanUndo(tab model.Tab) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stack(tab).cursor > 0
}

// CanRedo reports cursor < len-1.
func (m *Manager) CanRedo(tab model.Tab) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stack(tab)
	return s.cursor < len(s.entries)-1
}

// Len returns the number of entries held for tab.
func (m *Manager) Len(tab model.Tab) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stack(tab).entries)
}
