package engine

import (
	"context"
	"regexp"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/seating-plan/internal/metrics"
	"github.com/iliyamo/seating-plan/internal/model"
)

var planIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// ValidPlanID reports whether id may name a plan.
func ValidPlanID(id string) bool { return planIDPattern.MatchString(id) }

// Registry hosts the engines of many plans.  Engines are opened lazily on
// first use and kept for the life of the process.
type Registry struct {
	cfg  Config
	deps Deps

	mu      sync.RWMutex
	engines map[string]*Engine
	loading singleflight.Group
}

// NewRegistry returns an empty registry.
func NewRegistry(cfg Config, deps Deps) *Registry {
	return &Registry{cfg: cfg, deps: deps, engines: make(map[string]*Engine)}
}

// Get returns the engine of plan, opening it from the store when needed.
// Concurrent first requests share one load.
func (r *Registry) Get(ctx context.Context, plan string) (*Engine, error) {
	if !ValidPlanID(plan) {
		return nil, model.Errorf(model.CodeInvalidInput, "plan", model.ID{}, "invalid plan id %q", plan)
	}
	if e, ok := r.lookup(plan); ok {
		return e, nil
	}
	v, err, _ := r.loading.Do(plan, func() (interface{}, error) {
		if e, ok := r.lookup(plan); ok {
			return e, nil
		}
		e, err := Open(context.WithoutCancel(ctx), plan, r.cfg, r.deps)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.engines[plan] = e
		r.mu.Unlock()
		if r.deps.Logger != nil {
			r.deps.Logger.Info("plan opened", "plan", plan)
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Engine), nil
}

func (r *Registry) lookup(plan string) (*Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[plan]
	return e, ok
}

// Plans lists the open plans.
func (r *Registry) Plans() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.engines))
	for id := range r.engines {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Origin returns the relay origin of this process.
func (r *Registry) Origin() string { return r.cfg.Origin }

// ApplyRemote routes an event received from the relay to its plan.
// Events from this process and events for plans that are not open here
// are dropped; a plan opened later loads the persisted state anyway.
func (r *Registry) ApplyRemote(ctx context.Context, ev model.CollabEvent) error {
	if ev.Origin != "" && ev.Origin == r.cfg.Origin {
		return nil
	}
	e, ok := r.lookup(ev.PlanID)
	if !ok {
		return nil
	}
	metrics.ObserveRelay("in", string(ev.Kind))
	return e.ApplyRemote(ctx, ev)
}
