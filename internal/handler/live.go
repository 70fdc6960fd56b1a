package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/middleware"
	"github.com/iliyamo/seating-plan/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 << 10,
	WriteBufferSize: 64 << 10,
	// tokens are checked before the upgrade; any origin may connect
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveRequest is a message from a live client.
//
//	{"type": "heartbeat"}
//	{"type": "status", "status": "idle"}
//	{"type": "release", "keep": 4}
type liveRequest struct {
	Type   string               `json:"type"`
	Status model.PresenceStatus `json:"status,omitempty"`
	Keep   model.ID             `json:"keep"`
}

// liveFrame is a message to a live client.
type liveFrame struct {
	Type          string                     `json:"type"`
	Event         *model.CollabEvent         `json:"event,omitempty"`
	Collaborators []model.Collaborator       `json:"collaborators,omitempty"`
	Status        *model.CollaborationStatus `json:"status,omitempty"`
	Released      []model.ID                 `json:"released,omitempty"`
	ReadOnly      bool                       `json:"readOnly,omitempty"`
	Error         string                     `json:"error,omitempty"`
}

// Live upgrades to a websocket that streams the plan's collaboration
// events.  Connecting joins the roster; disconnecting leaves it and
// releases the caller's table locks.
func (h *PlanHandler) Live(c echo.Context) error {
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	client := middleware.ClientID(c)
	if client == "" {
		return h.fail(c, model.Errorf(model.CodeInvalidInput, "client", model.ID{}, "missing client id"))
	}
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already answered the request
		h.Logger.Debug("live: upgrade failed", "err", err)
		return nil
	}
	defer ws.Close()

	ctx := context.WithoutCancel(c.Request().Context())
	sub := h.Hub.Subscribe(e.Plan(), 64)
	defer sub.Close()
	e.Join(client)
	defer e.Leave(ctx, client)
	h.Logger.Info("live: client joined", "plan", e.Plan(), "client", client)

	out := make(chan liveFrame, 8)
	done := make(chan struct{})
	defer close(done)
	go h.writeLoop(ws, sub.C, out, done)

	status := e.CollaborationStatus(ctx, client)
	send(out, done, liveFrame{
		Type:          "hello",
		Collaborators: e.Collaborators(client),
		Status:        &status,
		ReadOnly:      !middleware.CanEdit(c),
	})

	ws.SetReadLimit(64 << 10)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error { return ws.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		var req liveRequest
		if err := ws.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Logger.Warn("live: read failed", "client", client, "err", err)
			}
			h.Logger.Info("live: client left", "plan", e.Plan(), "client", client)
			return nil
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		switch req.Type {
		case "heartbeat":
			if err := e.SetStatus(client, model.PresenceOnline); err != nil {
				send(out, done, liveFrame{Type: "error", Error: err.Error()})
			}
		case "status":
			if err := e.SetStatus(client, req.Status); err != nil {
				send(out, done, liveFrame{Type: "error", Error: err.Error()})
			}
		case "release":
			released := e.ReleaseTableLocksExcept(ctx, client, req.Keep)
			send(out, done, liveFrame{Type: "released", Released: released})
		case "roster":
			st := e.CollaborationStatus(ctx, client)
			send(out, done, liveFrame{Type: "roster", Collaborators: e.Collaborators(client), Status: &st})
		default:
			send(out, done, liveFrame{Type: "error", Error: "unknown message type " + req.Type})
		}
	}
}

func send(out chan<- liveFrame, done <-chan struct{}, f liveFrame) {
	select {
	case out <- f:
	case <-done:
	}
}

// writeLoop owns all writes to ws.
func (h *PlanHandler) writeLoop(ws *websocket.Conn, events <-chan model.CollabEvent, out <-chan liveFrame, done <-chan struct{}) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	write := func(v interface{}) bool {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteJSON(v); err != nil {
			h.Logger.Debug("live: write failed", "err", err)
			_ = ws.Close()
			return false
		}
		return true
	}
	for {
		select {
		case <-done:
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !write(liveFrame{Type: "event", Event: &ev}) {
				return
			}
		case f := <-out:
			if !write(f) {
				return
			}
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = ws.Close()
				return
			}
		}
	}
}
