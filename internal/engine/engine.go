// Package engine is the single mutator surface of a seating plan.  Every
// mutation takes the advisory locks of the tables it touches, applies the
// change to a copy of the tab, validates the result, records it in the
// undo history, persists it and announces it to other instances.  An
// operation that fails leaves the live layout untouched.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/iliyamo/seating-plan/internal/assign"
	"github.com/iliyamo/seating-plan/internal/collab"
	"github.com/iliyamo/seating-plan/internal/history"
	"github.com/iliyamo/seating-plan/internal/metrics"
	"github.com/iliyamo/seating-plan/internal/model"
	"github.com/iliyamo/seating-plan/internal/repository"
	"github.com/iliyamo/seating-plan/internal/validation"
)

const (
	// storeTimeout bounds one persistence round trip.
	storeTimeout = 5 * time.Second
	// relayTimeout bounds one publish to the real-time channel.
	relayTimeout = 2 * time.Second
)

// Store is the persistence collaborator.  Load returns
// repository.ErrNotFound for a tab that was never saved.
type Store interface {
	Load(ctx context.Context, plan string, tab model.Tab) (*model.Layout, model.HallSize, error)
	Save(ctx context.Context, plan string, tab model.Tab, l *model.Layout, hall model.HallSize) error
	ListSnapshots(ctx context.Context, plan string, tab model.Tab) ([]model.SnapshotInfo, error)
	SaveSnapshot(ctx context.Context, plan string, s model.Snapshot) error
	LoadSnapshot(ctx context.Context, plan, id string) (model.Snapshot, error)
	DeleteSnapshot(ctx context.Context, plan, id string) error
}

// Relay forwards collaboration events to the other engine instances.
type Relay interface {
	Publish(ctx context.Context, ev model.CollabEvent) error
}

// Config holds the tunables shared by every engine of a process.
type Config struct {
	HistoryLimit       int
	LockTTL            time.Duration
	MinAisle           float64
	Hall               model.HallSize
	ValidationsEnabled bool
	Weights            assign.Weights
	// Rules are merged under every rules-based auto-assignment.
	Rules assign.Rules
	// Origin identifies this process on the relay.
	Origin string
}

// DefaultConfig returns the built-in tunables.
func DefaultConfig() Config {
	return Config{
		HistoryLimit:       history.DefaultLimit,
		LockTTL:            collab.DefaultLockTTL,
		MinAisle:           60,
		Hall:               model.DefaultHallSize,
		ValidationsEnabled: true,
		Weights:            assign.DefaultWeights(),
	}
}

// Deps are the collaborators of an engine.  Only Store is required.
type Deps struct {
	Store  Store
	Locks  collab.LockStore
	Relay  Relay
	Hub    *collab.Hub
	Logger *log.Logger
	Now    func() time.Time
}

type tabState struct {
	layout  *model.Layout
	hall    model.HallSize
	preview *model.Layout
	report  validation.Report
}

// Engine owns the two tabs of one plan.
type Engine struct {
	plan    string
	cfg     Config
	store   Store
	relay   Relay
	hub     *collab.Hub
	logger  *log.Logger
	now     func() time.Time
	coord   *collab.Coordinator
	history *history.Manager

	mu          sync.Mutex
	active      model.Tab
	validations bool
	tabs        map[model.Tab]*tabState
}

// Result is the state of a tab after an operation.
type Result struct {
	Plan               string           `json:"plan"`
	Tab                model.Tab        `json:"tab"`
	Layout             *model.Layout    `json:"layout"`
	HallSize           model.HallSize   `json:"hallSize"`
	Conflicts          []model.Conflict `json:"conflicts"`
	Blocking           bool             `json:"blocking"`
	ValidationsEnabled bool             `json:"validationsEnabled"`
	CanUndo            bool             `json:"canUndo"`
	CanRedo            bool             `json:"canRedo"`
	HasPreview         bool             `json:"hasPreview"`
}

// Open loads both tabs of plan from the store.  A tab that was never
// saved starts empty with the configured hall size.
func Open(ctx context.Context, plan string, cfg Config, deps Deps) (*Engine, error) {
	if deps.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	if deps.Locks == nil {
		deps.Locks = collab.NewMemoryLockStore()
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.Hall.Width <= 0 || cfg.Hall.Height <= 0 {
		cfg.Hall = model.DefaultHallSize
	}
	e := &Engine{
		plan:        plan,
		cfg:         cfg,
		store:       deps.Store,
		relay:       deps.Relay,
		hub:         deps.Hub,
		logger:      deps.Logger.With("plan", plan),
		now:         deps.Now,
		history:     history.NewManager(cfg.HistoryLimit),
		active:      model.TabCeremony,
		validations: cfg.ValidationsEnabled,
		tabs:        make(map[model.Tab]*tabState, len(model.Tabs)),
	}
	e.coord = collab.NewCoordinator(plan, deps.Locks,
		collab.WithClock(deps.Now),
		collab.WithTTL(cfg.LockTTL),
		collab.WithLogger(e.logger),
		collab.WithEmitter(e.emit),
	)
	for _, tab := range model.Tabs {
		l, hall, err := e.load(ctx, tab)
		if err != nil {
			return nil, err
		}
		st := &tabState{layout: l, hall: hall}
		st.report = validation.Validate(l, e.validationOptions(hall))
		e.tabs[tab] = st
		e.history.Reset(tab, l)
		e.observe(tab, st)
	}
	return e, nil
}

func (e *Engine) load(ctx context.Context, tab model.Tab) (*model.Layout, model.HallSize, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	l, hall, err := e.store.Load(ctx, e.plan, tab)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewLayout(), e.cfg.Hall, nil
	}
	if err != nil {
		return nil, model.HallSize{}, fmt.Errorf("load %s/%s: %w", e.plan, tab, err)
	}
	if err := l.Check(); err != nil {
		return nil, model.HallSize{}, fmt.Errorf("load %s/%s: %w", e.plan, tab, err)
	}
	if hall.Width <= 0 || hall.Height <= 0 {
		hall = e.cfg.Hall
	}
	return l, hall, nil
}

// Plan returns the plan id.
func (e *Engine) Plan() string { return e.plan }

// ActiveTab returns the tab operations default to.
func (e *Engine) ActiveTab() model.Tab {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// SetActiveTab switches the default tab.  The other tab keeps its state
// and history.
func (e *Engine) SetActiveTab(tab model.Tab) (Result, error) {
	if _, err := model.ParseTab(string(tab)); err != nil {
		return Result{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = tab
	return e.result(tab), nil
}

// State returns the current state of tab; the empty tab means the active
// one.
func (e *Engine) State(tab model.Tab) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tab, err := e.resolve(tab)
	if err != nil {
		return Result{}, err
	}
	return e.result(tab), nil
}

// Conflicts returns the validation report of tab.
func (e *Engine) Conflicts(tab model.Tab) (validation.Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tab, err := e.resolve(tab)
	if err != nil {
		return validation.Report{}, err
	}
	return e.tabs[tab].report, nil
}

// ValidationsEnabled reports the global validation toggle.
func (e *Engine) ValidationsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validations
}

// SetValidationsEnabled flips the global toggle.  Conflicts keep being
// computed; only whether they block changes.
func (e *Engine) SetValidationsEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.validations = enabled
	for tab, st := range e.tabs {
		st.report = validation.Validate(st.layout, e.validationOptions(st.hall))
		e.observe(tab, st)
	}
}

// SetHallSize resizes the canvas of tab.  The hall is not part of the
// undo history.
func (e *Engine) SetHallSize(ctx context.Context, tab model.Tab, hall model.HallSize) (Result, error) {
	started := time.Now()
	if hall.Width <= 0 || hall.Height <= 0 {
		err := model.Errorf(model.CodeInvalidInput, "hall", model.ID{}, "width and height must be positive")
		metrics.ObserveMutation("set_hall", err, started)
		return Result{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	tab, err := e.resolve(tab)
	if err != nil {
		return Result{}, err
	}
	st := e.tabs[tab]
	st.hall = hall
	st.report = validation.Validate(st.layout, e.validationOptions(hall))
	e.persist(ctx, tab, st)
	e.announce(tab, st)
	e.observe(tab, st)
	metrics.ObserveMutation("set_hall", nil, started)
	return e.result(tab), nil
}

// mutate runs apply against a copy of tab and commits it.  tables lists
// the existing tables the change touches; their locks are taken for
// client first.
func (e *Engine) mutate(ctx context.Context, op, client string, tab model.Tab, tables func(l *model.Layout) []model.ID, apply func(l *model.Layout) error) (res Result, err error) {
	started := time.Now()
	defer func() { metrics.ObserveMutation(op, err, started) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	tab, err = e.resolve(tab)
	if err != nil {
		return Result{}, err
	}
	st := e.tabs[tab]
	if tables != nil {
		if err = e.lockTables(ctx, client, tables(st.layout)); err != nil {
			return Result{}, err
		}
	}
	next := st.layout.Clone()
	if err = apply(next); err != nil {
		e.logger.Warn("mutation rejected", "tab", tab, "op", op, "client", client, "err", err)
		return Result{}, err
	}
	e.commit(ctx, tab, next, true)
	return e.result(tab), nil
}

// replace swaps in a whole new layout for tab.  It is refused while any
// other client holds a lock on a table of the current or the new layout.
func (e *Engine) replace(ctx context.Context, op, client string, tab model.Tab, next *model.Layout) (err error) {
	started := time.Now()
	defer func() { metrics.ObserveMutation(op, err, started) }()
	if err = e.checkForeignLocks(ctx, client, e.tabs[tab].layout, next); err != nil {
		return err
	}
	e.commit(ctx, tab, next, true)
	return nil
}

// commit installs next as the live layout of tab and runs the after
// mutation pipeline.  Callers hold e.mu.
func (e *Engine) commit(ctx context.Context, tab model.Tab, next *model.Layout, push bool) {
	st := e.tabs[tab]
	st.layout = next
	st.report = validation.Validate(next, e.validationOptions(st.hall))
	if push {
		e.history.Push(tab, next)
	}
	e.persist(ctx, tab, st)
	e.announce(tab, st)
	e.observe(tab, st)
}

// persist writes tab through to the store.  Failures are logged: the
// in-memory state stays authoritative and the next commit retries.
func (e *Engine) persist(ctx context.Context, tab model.Tab, st *tabState) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := e.store.Save(ctx, e.plan, tab, st.layout, st.hall); err != nil {
		e.logger.Error("persist layout failed", "tab", tab, "err", err)
	}
}

// announce publishes the new state of tab as a whole-state replacement.
func (e *Engine) announce(tab model.Tab, st *tabState) {
	hall := st.hall
	e.emit(model.CollabEvent{
		Kind:     model.EventLayoutReplaced,
		PlanID:   e.plan,
		Tab:      tab,
		Layout:   st.layout.Clone(),
		HallSize: &hall,
		At:       e.now().UTC(),
	})
}

// emit fans an event out to local subscribers and the relay.
func (e *Engine) emit(ev model.CollabEvent) {
	ev.Origin = e.cfg.Origin
	ev.PlanID = e.plan
	if e.hub != nil {
		e.hub.Publish(ev)
	}
	if e.relay == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
	defer cancel()
	if err := e.relay.Publish(ctx, ev); err != nil {
		e.logger.Warn("relay publish failed", "kind", ev.Kind, "err", err)
		return
	}
	metrics.ObserveRelay("out", string(ev.Kind))
}

func (e *Engine) observe(tab model.Tab, st *tabState) {
	counts := make(map[string]int)
	for typ, n := range st.report.Count() {
		counts[string(typ)] = n
	}
	metrics.SetConflicts(e.plan, string(tab), counts, conflictTypes)
	metrics.SetHistoryDepth(e.plan, string(tab), e.history.Len(tab))
}

var conflictTypes = []string{
	string(model.ConflictOverlap),
	string(model.ConflictCapacity),
	string(model.ConflictSeatSlots),
	string(model.ConflictAisle),
	string(model.ConflictDanglingSeat),
	string(model.ConflictDuplicateGuest),
	string(model.ConflictDisabledSeat),
	string(model.ConflictOutOfBounds),
}

func (e *Engine) validationOptions(hall model.HallSize) validation.Options {
	return validation.Options{MinAisle: e.cfg.MinAisle, Hall: hall, Enabled: e.validations}
}

// resolve maps the empty tab to the active one.  Callers hold e.mu.
func (e *Engine) resolve(tab model.Tab) (model.Tab, error) {
	if tab == "" {
		return e.active, nil
	}
	return model.ParseTab(string(tab))
}

// result snapshots tab for the caller.  Callers hold e.mu.
func (e *Engine) result(tab model.Tab) Result {
	st := e.tabs[tab]
	return Result{
		Plan:               e.plan,
		Tab:                tab,
		Layout:             st.layout.Clone(),
		HallSize:           st.hall,
		Conflicts:          append([]model.Conflict{}, st.report.Conflicts...),
		Blocking:           st.report.Blocking(),
		ValidationsEnabled: e.validations,
		CanUndo:            e.history.CanUndo(tab),
		CanRedo:            e.history.CanRedo(tab),
		HasPreview:         st.preview != nil,
	}
}
