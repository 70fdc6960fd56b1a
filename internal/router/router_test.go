package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seating-plan/internal/collab"
	"github.com/iliyamo/seating-plan/internal/config"
	"github.com/iliyamo/seating-plan/internal/engine"
	"github.com/iliyamo/seating-plan/internal/handler"
	"github.com/iliyamo/seating-plan/internal/logging"
	"github.com/iliyamo/seating-plan/internal/middleware"
	"github.com/iliyamo/seating-plan/internal/model"
	"github.com/iliyamo/seating-plan/internal/repository"
	"github.com/iliyamo/seating-plan/internal/utils"
)

const secret = "test-secret"

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	hub := collab.NewHub()
	reg := engine.NewRegistry(engine.DefaultConfig(), engine.Deps{
		Store:  repository.NewMemoryPlanRepo(),
		Locks:  collab.NewMemoryLockStore(),
		Hub:    hub,
		Logger: logging.Discard(),
	})
	e := echo.New()
	e.Validator = handler.NewValidator()
	RegisterRoutes(e)
	RegisterTemplates(e, middleware.NewRedisCache(config.CacheConfig{}, nil))
	RegisterDevToken(e, handler.DevToken(secret, time.Hour, logging.Discard()))
	RegisterPlans(e, handler.NewPlanHandler(reg, hub, logging.Discard()), secret,
		middleware.NewTokenBucket(config.RateLimitConfig{}, nil))
	return e
}

func token(t *testing.T, client, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, client, role, time.Hour)
	require.NoError(t, err)
	return tok.Token
}

func do(t *testing.T, e *echo.Echo, method, path, tok, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) engine.Result {
	t.Helper()
	var res engine.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func TestPublicRoutes(t *testing.T) {
	e := newServer(t)

	rec := do(t, e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(t, e, http.MethodGet, "/v1/templates", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "imperial")

	rec = do(t, e, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/dev/token", "", `{"clientId":"alice","role":"editor"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var tok utils.AccessToken
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	rec = do(t, e, http.MethodGet, "/v1/plans/p1/state", tok.Token, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/dev/token", "", `{"clientId":"alice","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlanAccess(t *testing.T) {
	e := newServer(t)

	rec := do(t, e, http.MethodGet, "/v1/plans/p1/state", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	viewer := token(t, "vic", "viewer")
	rec = do(t, e, http.MethodGet, "/v1/plans/p1/state", viewer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeResult(t, rec)
	assert.Equal(t, "p1", res.Plan)
	assert.Equal(t, model.TabCeremony, res.Tab)

	rec = do(t, e, http.MethodPost, "/v1/plans/p1/tables", viewer, `{"x":1,"y":1}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, e, http.MethodGet, "/v1/plans/p1/state", token(t, "mallory", "guest"), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, e, http.MethodGet, "/v1/plans/-bad/state", viewer, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
}

func TestTableEditingWithLocks(t *testing.T) {
	e := newServer(t)
	alice := token(t, "alice", "editor")
	bob := token(t, "bob", "owner")
	const base = "/v1/plans/wedding/"

	rec := do(t, e, http.MethodPost, base+"tables?tab=banquet", alice,
		`{"x":300,"y":300,"width":120,"height":120,"shape":"round","capacity":8,"withSeats":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decodeResult(t, rec)
	assert.Equal(t, model.TabBanquet, res.Tab)
	require.Len(t, res.Layout.Tables, 1)
	assert.True(t, res.Layout.Tables[0].Enabled())
	assert.Len(t, res.Layout.Seats, 8)
	assert.True(t, res.CanUndo)

	rec = do(t, e, http.MethodPost, base+"locks/1", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var lock model.Lock
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lock))
	assert.Equal(t, "alice", lock.ClientID)

	rec = do(t, e, http.MethodPost, base+"locks/1", bob, "")
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Contains(t, rec.Body.String(), "LOCK_HELD")

	rec = do(t, e, http.MethodGet, base+"locks/event", bob, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"holderId":"alice"`)
	rec = do(t, e, http.MethodDelete, base+"locks/event", bob, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, e, http.MethodGet, base+"locks/event", bob, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodPost, base+"tables/1/move?tab=banquet", bob, `{"x":500,"y":500}`)
	assert.Equal(t, http.StatusLocked, rec.Code)

	rec = do(t, e, http.MethodPost, base+"tables/1/move?tab=banquet", alice, `{"x":500,"y":500}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res = decodeResult(t, rec)
	assert.Equal(t, 500.0, res.Layout.Tables[0].X)

	rec = do(t, e, http.MethodPost, base+"tables/1/move?tab=banquet", alice, `{"x":500}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodDelete, base+"locks/1", alice, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, e, http.MethodDelete, base+"locks/1", alice, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodGet, base+"locks", bob, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"locks":[]`)

	rec = do(t, e, http.MethodPatch, base+"tables/1?tab=banquet", bob, `{"label":"Family"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res = decodeResult(t, rec)
	assert.Equal(t, "Family", res.Layout.Tables[0].Label)
	assert.True(t, res.Layout.Tables[0].Enabled())
	assert.Equal(t, 500.0, res.Layout.Tables[0].X)

	rec = do(t, e, http.MethodPost, base+"tables/99/move?tab=banquet", bob, `{"x":1,"y":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodPost, base+"history/undo?tab=banquet", bob, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeResult(t, rec)
	assert.Empty(t, res.Layout.Tables[0].Label)
	assert.True(t, res.CanRedo)
}

func TestSnapshotRoutes(t *testing.T) {
	e := newServer(t)
	owner := token(t, "olga", "owner")
	const base = "/v1/plans/gala/"

	rec := do(t, e, http.MethodPost, base+"snapshots?tab=banquet", owner, `{"name":"empty hall"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var info model.SnapshotInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "empty hall", info.Name)

	rec = do(t, e, http.MethodPost, base+"snapshots", owner, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodGet, base+"snapshots?tab=banquet", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), info.ID)

	rec = do(t, e, http.MethodDelete, base+"snapshots/"+info.ID, owner, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, e, http.MethodGet, base+"snapshots/"+info.ID, owner, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLiveStream(t *testing.T) {
	e := newServer(t)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/plans/live1/live?access_token=" + token(t, "vic", "viewer")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))

	// the client's own presence event may race the greeting
	var hello map[string]interface{}
	for hello["type"] != "hello" {
		hello = nil
		require.NoError(t, ws.ReadJSON(&hello))
	}
	assert.Equal(t, true, hello["readOnly"])

	rec := do(t, e, http.MethodPost, "/v1/plans/live1/areas?tab=banquet", token(t, "alice", "editor"),
		`{"kind":"stage","label":"Stage","geometry":{"x":200,"y":100,"width":200,"height":100}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for {
		var frame struct {
			Type  string             `json:"type"`
			Event *model.CollabEvent `json:"event"`
		}
		require.NoError(t, ws.ReadJSON(&frame))
		if frame.Type != "event" || frame.Event.Kind != model.EventLayoutReplaced {
			continue
		}
		assert.Equal(t, model.TabBanquet, frame.Event.Tab)
		require.Len(t, frame.Event.Layout.Areas, 1)
		break
	}

	require.NoError(t, ws.WriteJSON(map[string]string{"type": "bogus"}))
	for {
		var frame map[string]interface{}
		require.NoError(t, ws.ReadJSON(&frame))
		if frame["type"] == "error" {
			assert.Contains(t, frame["error"], "bogus")
			break
		}
	}
}
