package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/iliyamo/seating-plan/internal/assign"
	"github.com/iliyamo/seating-plan/internal/engine"
	"github.com/iliyamo/seating-plan/internal/model"
)

// EngineConfig holds the plan engine tunables.
type EngineConfig struct {
	HistoryLimit       int           `env:"HISTORY_LIMIT"       envDefault:"50"`
	LockTTL            time.Duration `env:"LOCK_TTL"            envDefault:"30s"`
	MinAisle           float64       `env:"MIN_AISLE"           envDefault:"60"`
	HallWidth          float64       `env:"HALL_WIDTH"          envDefault:"1800"`
	HallHeight         float64       `env:"HALL_HEIGHT"         envDefault:"1200"`
	ValidationsEnabled bool          `env:"VALIDATIONS_ENABLED" envDefault:"true"`
	RulesFile          string        `env:"ASSIGN_RULES_FILE"`

	PartyWeight         float64 `env:"WEIGHT_PARTY"         envDefault:"10"`
	IncompatibleWeight  float64 `env:"WEIGHT_INCOMPATIBLE"  envDefault:"1"`
	DietaryWeight       float64 `env:"WEIGHT_DIETARY"       envDefault:"3"`
	AccessibilityWeight float64 `env:"WEIGHT_ACCESSIBILITY" envDefault:"5"`
	ProximityWeight     float64 `env:"WEIGHT_PROXIMITY"     envDefault:"1"`
}

// LoadEngineConfig parses the engine variables from the process
// environment.
func LoadEngineConfig() (EngineConfig, error) {
	return parseEngineConfig(env.Options{})
}

func parseEngineConfig(opts env.Options) (EngineConfig, error) {
	var cfg EngineConfig
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return EngineConfig{}, fmt.Errorf("parse engine env: %w", err)
	}
	if cfg.HistoryLimit < 2 {
		return EngineConfig{}, fmt.Errorf("HISTORY_LIMIT must be at least 2, got %d", cfg.HistoryLimit)
	}
	if cfg.LockTTL <= 0 {
		return EngineConfig{}, fmt.Errorf("LOCK_TTL must be positive, got %s", cfg.LockTTL)
	}
	if cfg.HallWidth <= 0 || cfg.HallHeight <= 0 {
		return EngineConfig{}, fmt.Errorf("hall size must be positive, got %gx%g", cfg.HallWidth, cfg.HallHeight)
	}
	return cfg, nil
}

// Engine converts the settings into an engine.Config, loading the rules
// file when one is named.  origin identifies this instance on the relay.
func (c EngineConfig) Engine(origin string) (engine.Config, error) {
	out := engine.DefaultConfig()
	out.HistoryLimit = c.HistoryLimit
	out.LockTTL = c.LockTTL
	out.MinAisle = c.MinAisle
	out.Hall = model.HallSize{Width: c.HallWidth, Height: c.HallHeight}
	out.ValidationsEnabled = c.ValidationsEnabled
	out.Weights = assign.Weights{
		Party:         c.PartyWeight,
		Incompatible:  c.IncompatibleWeight,
		Dietary:       c.DietaryWeight,
		Accessibility: c.AccessibilityWeight,
		Proximity:     c.ProximityWeight,
	}
	out.Origin = origin
	if c.RulesFile != "" {
		rules, err := assign.LoadRules(c.RulesFile)
		if err != nil {
			return engine.Config{}, err
		}
		out.Rules = rules
	}
	return out, nil
}
