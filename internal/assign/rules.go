package assign

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/seating-plan/internal/model"
)

// Rules extend Options with explicit seating constraints.
//
//	weights:        # optional, each named weight overrides the caller's
//	  party: 10
//	together:       # seat each group at one table when possible
//	  - [12, 13, 14]
//	apart:          # never at the same table
//	  - [3, 8]
//	pinned:         # guest -> table
//	  21: 4
//	allowLocked: false
type Rules struct {
	Weights     *WeightOverrides      `json:"weights,omitempty" yaml:"weights"`
	Together    [][]model.ID          `json:"together,omitempty" yaml:"together"`
	Apart       [][]model.ID          `json:"apart,omitempty" yaml:"apart"`
	Pinned      map[model.ID]model.ID `json:"pinned,omitempty" yaml:"pinned"`
	AllowLocked bool                  `json:"allowLocked,omitempty" yaml:"allowLocked"`
}

// Validate checks the structural shape of the rules.
func (r Rules) Validate() error {
	for i, pair := range r.Apart {
		if len(pair) != 2 {
			return model.Errorf(model.CodeInvalidInput, "rules", model.ID{}, "apart[%d] must name exactly two guests", i)
		}
		if pair[0] == pair[1] {
			return model.Errorf(model.CodeInvalidInput, "rules", pair[0], "apart[%d] names the same guest twice", i)
		}
	}
	for g, t := range r.Pinned {
		if g.IsZero() || t.IsZero() {
			return model.Errorf(model.CodeInvalidInput, "rules", g, "pinned entries need a guest and a table")
		}
	}
	return nil
}

// ParseRules decodes a YAML (or JSON, which is YAML) rules document.
func ParseRules(data []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parse rules: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

// LoadRules reads and parses a rules file.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules %s: %w", path, err)
	}
	return ParseRules(data)
}

// Merge layers r over base.  Weights named in r win over those in base,
// constraint lists are concatenated and pins in r win.
func (r Rules) Merge(base Rules) Rules {
	out := base
	out.Weights = r.Weights.Over(base.Weights)
	out.Together = append(append([][]model.ID(nil), base.Together...), r.Together...)
	out.Apart = append(append([][]model.ID(nil), base.Apart...), r.Apart...)
	if len(base.Pinned)+len(r.Pinned) > 0 {
		out.Pinned = make(map[model.ID]model.ID, len(base.Pinned)+len(r.Pinned))
		for k, v := range base.Pinned {
			out.Pinned[k] = v
		}
		for k, v := range r.Pinned {
			out.Pinned[k] = v
		}
	}
	out.AllowLocked = base.AllowLocked || r.AllowLocked
	return out
}

// AutoAssignRules runs the solver with explicit rules on top of opts.
func AutoAssignRules(l *model.Layout, guests []model.Guest, rules Rules, opts Options) (Result, error) {
	if err := rules.Validate(); err != nil {
		return Result{}, err
	}
	opts.Weights = rules.Weights.Apply(opts.Weights)
	opts.AllowLocked = opts.AllowLocked || rules.AllowLocked
	return newSolver(l, guests, opts, rules).run(), nil
}
