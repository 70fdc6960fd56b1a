package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/seating-plan/internal/model"
)

// dialect captures the SQL differences between the supported databases.
type dialect struct {
	name       string
	schema     []string
	upsert     string
	positional bool // $1, $2 placeholders instead of ?
}

var dialects = map[string]dialect{
	"mysql": {
		name: "mysql",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS layouts (
				plan_id    VARCHAR(64) NOT NULL,
				tab        VARCHAR(16) NOT NULL,
				payload    LONGTEXT    NOT NULL,
				hall       TEXT        NOT NULL,
				updated_ms BIGINT      NOT NULL,
				PRIMARY KEY (plan_id, tab)
			)`,
			`CREATE TABLE IF NOT EXISTS layout_snapshots (
				id         VARCHAR(36)  NOT NULL PRIMARY KEY,
				plan_id    VARCHAR(64)  NOT NULL,
				tab        VARCHAR(16)  NOT NULL,
				name       VARCHAR(255) NOT NULL,
				payload    LONGTEXT     NOT NULL,
				hall       TEXT         NOT NULL,
				created_ms BIGINT       NOT NULL,
				INDEX idx_snapshots_plan_tab (plan_id, tab, created_ms)
			)`,
		},
		upsert: `INSERT INTO layouts (plan_id, tab, payload, hall, updated_ms) VALUES (?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE payload = VALUES(payload), hall = VALUES(hall), updated_ms = VALUES(updated_ms)`,
	},
	"sqlite": {
		name:   "sqlite",
		schema: portableSchema,
		upsert: portableUpsert,
	},
	"postgres": {
		name:       "postgres",
		schema:     portableSchema,
		upsert:     portableUpsert,
		positional: true,
	},
}

var portableSchema = []string{
	`CREATE TABLE IF NOT EXISTS layouts (
		plan_id    VARCHAR(64) NOT NULL,
		tab        VARCHAR(16) NOT NULL,
		payload    TEXT        NOT NULL,
		hall       TEXT        NOT NULL,
		updated_ms BIGINT      NOT NULL,
		PRIMARY KEY (plan_id, tab)
	)`,
	`CREATE TABLE IF NOT EXISTS layout_snapshots (
		id         VARCHAR(36)  NOT NULL PRIMARY KEY,
		plan_id    VARCHAR(64)  NOT NULL,
		tab        VARCHAR(16)  NOT NULL,
		name       VARCHAR(255) NOT NULL,
		payload    TEXT         NOT NULL,
		hall       TEXT         NOT NULL,
		created_ms BIGINT       NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_plan_tab ON layout_snapshots (plan_id, tab, created_ms)`,
}

const portableUpsert = `INSERT INTO layouts (plan_id, tab, payload, hall, updated_ms) VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (plan_id, tab) DO UPDATE SET payload = excluded.payload, hall = excluded.hall, updated_ms = excluded.updated_ms`

// PlanRepo stores layout documents and snapshots in a SQL database.  The
// layout of a tab is one JSON document replaced as a whole on every save,
// so concurrent writers resolve as last write wins.
type PlanRepo struct {
	db  *sql.DB
	d   dialect
	now func() time.Time
}

// NewPlanRepo constructs a PlanRepo for the given dialect (mysql, sqlite
// or postgres).
func NewPlanRepo(db *sql.DB, dialectName string) (*PlanRepo, error) {
	d, ok := dialects[dialectName]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect %q", dialectName)
	}
	return &PlanRepo{db: db, d: d, now: time.Now}, nil
}

// Migrate creates the tables when they do not exist yet.
func (r *PlanRepo) Migrate(ctx context.Context) error {
	for _, stmt := range r.d.schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", r.d.name, err)
		}
	}
	return nil
}

// q rewrites ? placeholders for dialects that number them.
func (r *PlanRepo) q(query string) string {
	if !r.d.positional {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Load returns the layout document of a tab, or ErrNotFound.
func (r *PlanRepo) Load(ctx context.Context, plan string, tab model.Tab) (*model.Layout, model.HallSize, error) {
	var payload, hall string
	err := r.db.QueryRowContext(ctx, r.q(`SELECT payload, hall FROM layouts WHERE plan_id = ? AND tab = ?`), plan, string(tab)).
		Scan(&payload, &hall)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.HallSize{}, ErrNotFound
		}
		return nil, model.HallSize{}, err
	}
	return decode(payload, hall)
}

// Save replaces the layout document of a tab.
func (r *PlanRepo) Save(ctx context.Context, plan string, tab model.Tab, l *model.Layout, hall model.HallSize) error {
	payload, hallJSON, err := encode(l, hall)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.q(r.d.upsert), plan, string(tab), payload, hallJSON, r.now().UnixMilli())
	return err
}

// ListSnapshots lists the snapshots of a tab, newest first.
func (r *PlanRepo) ListSnapshots(ctx context.Context, plan string, tab model.Tab) ([]model.SnapshotInfo, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT id, name, tab, created_ms FROM layout_snapshots
		WHERE plan_id = ? AND tab = ? ORDER BY created_ms DESC, id`), plan, string(tab))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.SnapshotInfo{}
	for rows.Next() {
		var (
			info model.SnapshotInfo
			t    string
			ms   int64
		)
		if err := rows.Scan(&info.ID, &info.Name, &t, &ms); err != nil {
			return nil, err
		}
		info.Tab = model.Tab(t)
		info.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}

// SaveSnapshot inserts a snapshot.  An id that is already taken yields
// ErrConflict.
func (r *PlanRepo) SaveSnapshot(ctx context.Context, plan string, s model.Snapshot) error {
	payload, hallJSON, err := encode(s.Layout, s.HallSize)
	if err != nil {
		return err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, r.q(`SELECT COUNT(*) FROM layout_snapshots WHERE id = ?`), s.ID).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	_, err = r.db.ExecContext(ctx, r.q(`INSERT INTO layout_snapshots (id, plan_id, tab, name, payload, hall, created_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`), s.ID, plan, string(s.Tab), s.Name, payload, hallJSON, s.CreatedAt.UnixMilli())
	return err
}

// LoadSnapshot fetches a snapshot with its payload, or ErrNotFound.
func (r *PlanRepo) LoadSnapshot(ctx context.Context, plan, id string) (model.Snapshot, error) {
	var (
		s             model.Snapshot
		t             string
		payload, hall string
		ms            int64
	)
	err := r.db.QueryRowContext(ctx, r.q(`SELECT id, name, tab, payload, hall, created_ms FROM layout_snapshots
		WHERE plan_id = ? AND id = ?`), plan, id).Scan(&s.ID, &s.Name, &t, &payload, &hall, &ms)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Snapshot{}, ErrNotFound
		}
		return model.Snapshot{}, err
	}
	s.Tab = model.Tab(t)
	s.CreatedAt = time.UnixMilli(ms).UTC()
	s.Layout, s.HallSize, err = decode(payload, hall)
	if err != nil {
		return model.Snapshot{}, err
	}
	return s, nil
}

// DeleteSnapshot removes a snapshot, or returns ErrNotFound.
func (r *PlanRepo) DeleteSnapshot(ctx context.Context, plan, id string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM layout_snapshots WHERE plan_id = ? AND id = ?`), plan, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func encode(l *model.Layout, hall model.HallSize) (string, string, error) {
	if l == nil {
		l = model.NewLayout()
	}
	payload, err := json.Marshal(l)
	if err != nil {
		return "", "", fmt.Errorf("encode layout: %w", err)
	}
	h, err := json.Marshal(hall)
	if err != nil {
		return "", "", fmt.Errorf("encode hall: %w", err)
	}
	return string(payload), string(h), nil
}

func decode(payload, hall string) (*model.Layout, model.HallSize, error) {
	l := model.NewLayout()
	if err := json.Unmarshal([]byte(payload), l); err != nil {
		return nil, model.HallSize{}, fmt.Errorf("decode layout: %w", err)
	}
	// documents written before a kind existed decode to nil slices
	if l.Areas == nil {
		l.Areas = []model.Area{}
	}
	if l.Tables == nil {
		l.Tables = []model.Table{}
	}
	if l.Seats == nil {
		l.Seats = []model.Seat{}
	}
	var h model.HallSize
	if err := json.Unmarshal([]byte(hall), &h); err != nil {
		return nil, model.HallSize{}, fmt.Errorf("decode hall: %w", err)
	}
	return l, h, nil
}
