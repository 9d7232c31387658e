package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-investigations-api/session"
)

const writeWait = 10 * time.Second

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Events streams the authentication gate of one token over a websocket
type Events struct {
	Provider session.Provider
}

type gateMessage struct {
	State   string           `json:"state"`
	Session *session.Session `json:"session,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// SessionEventsHandler sends "unknown" first, then every state the gate
// settles in. The stream ends once the gate is unauthenticated or the
// client goes away.
func (e Events) SessionEventsHandler(w http.ResponseWriter, r *http.Request) {
	gate := session.NewGate(e.Provider, session.TokenFromRequest(r))
	defer gate.Close()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().With(err).Error("websocket upgrade error")
		return
	}
	defer conn.Close()

	// the client never sends anything; reading surfaces its close
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	state, changed := gate.Watch()
	if err := send(conn, gateMessage{State: state.String()}); err != nil {
		return
	}
	if err := gate.Open(r.Context()); err != nil {
		zap.S().With(err).Error("failed to check session")
		send(conn, gateMessage{State: state.String(), Error: err.Error()})
		closeStream(conn, websocket.CloseInternalServerErr, "session check failed")
		return
	}

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case <-changed:
		}
		state, changed = gate.Watch()
		if err := send(conn, gateMessage{State: state.String(), Session: gate.Session()}); err != nil {
			return
		}
		if state == session.Unauthenticated {
			closeStream(conn, websocket.CloseNormalClosure, state.String())
			return
		}
	}
}

func send(conn *websocket.Conn, msg gateMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		zap.S().Debugw("failed to write gate state", "error", err)
		return err
	}
	return nil
}

func closeStream(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
