package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seating-plan/internal/model"
)

func TestEngineConfigDefaults(t *testing.T) {
	cfg, err := parseEngineConfig(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.True(t, cfg.ValidationsEnabled)

	ec, err := cfg.Engine("node-a")
	require.NoError(t, err)
	assert.Equal(t, model.HallSize{Width: 1800, Height: 1200}, ec.Hall)
	assert.Equal(t, 60.0, ec.MinAisle)
	assert.Equal(t, 10.0, ec.Weights.Party)
	assert.Equal(t, "node-a", ec.Origin)
}

func TestEngineConfigOverrides(t *testing.T) {
	rules := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte("apart:\n  - [3, 8]\npinned:\n  21: 4\n"), 0o600))

	cfg, err := parseEngineConfig(env.Options{Environment: map[string]string{
		"HISTORY_LIMIT":       "5",
		"LOCK_TTL":            "1m",
		"VALIDATIONS_ENABLED": "false",
		"WEIGHT_PARTY":        "2.5",
		"ASSIGN_RULES_FILE":   rules,
	}})
	require.NoError(t, err)
	ec, err := cfg.Engine("")
	require.NoError(t, err)
	assert.Equal(t, 5, ec.HistoryLimit)
	assert.Equal(t, time.Minute, ec.LockTTL)
	assert.False(t, ec.ValidationsEnabled)
	assert.Equal(t, 2.5, ec.Weights.Party)
	assert.Len(t, ec.Rules.Apart, 1)
	assert.Len(t, ec.Rules.Pinned, 1)
}

func TestEngineConfigRejectsBadValues(t *testing.T) {
	for name, vars := range map[string]map[string]string{
		"history": {"HISTORY_LIMIT": "0"},
		"no undo": {"HISTORY_LIMIT": "1"},
		"ttl":     {"LOCK_TTL": "0s"},
		"hall":    {"HALL_WIDTH": "-1"},
		"parse":   {"LOCK_TTL": "soon"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseEngineConfig(env.Options{Environment: vars})
			assert.Error(t, err)
		})
	}

	cfg, err := parseEngineConfig(env.Options{Environment: map[string]string{"ASSIGN_RULES_FILE": "/does/not/exist.yaml"}})
	require.NoError(t, err)
	_, err = cfg.Engine("")
	assert.Error(t, err)
}

func TestRateLimitClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoad(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "sqlite")
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, "seating.collab", cfg.Exchange)
}
