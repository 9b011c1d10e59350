package admin

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/flowersdz/gallery-admin/internal/domain/auth"
	"github.com/flowersdz/gallery-admin/internal/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// ConfirmTimeout is how long a delete confirmation waits for an answer; no
	// answer declines.
	ConfirmTimeout = 60 * time.Second

	confirmAction = "confirm"
)

type confirmAnswer struct {
	OK bool `json:"ok"`
}

// Session is one live admin websocket: a controller whose view is the socket.
// Commands run on their own goroutine so a pending confirmation never blocks the
// reader.
type Session struct {
	hub        *Hub
	conn       *websocket.Conn
	hc         *Connection
	controller *Controller

	ctx    context.Context
	cancel context.CancelFunc

	confirmTimeout time.Duration

	mu      sync.Mutex
	pending map[string]chan bool
}

type sessionView struct {
	*EventView
	s *Session
}

func (v *sessionView) Confirm(ctx context.Context, message string) bool {
	return v.s.confirm(ctx, message)
}

// NewSession wires a controller to conn. resumed, when set, signs the session in.
func NewSession(ctx context.Context, app *App, hub *Hub, conn *websocket.Conn, host string, resumed *auth.Session) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		hub:            hub,
		conn:           conn,
		hc:             NewConnection(""),
		ctx:            ctx,
		cancel:         cancel,
		confirmTimeout: ConfirmTimeout,
		pending:        make(map[string]chan bool),
	}

	gateway := auth.NewGateway(app.Provider)
	gateway.OnAuthStateChange(func(id *auth.Identity) {
		uid := ""
		if id != nil {
			uid = id.UID
		}
		hub.Assign(s.hc, uid)
	})

	s.controller = NewController(app, gateway, &sessionView{EventView: NewEventView(s.emit), s: s}, host)
	if resumed != nil {
		s.controller.Resume(resumed)
	}
	return s
}

// Start registers the session and runs its reader and writer
func (s *Session) Start() {
	s.hub.Register(s.hc)
	go s.writer()

	if err := s.controller.Start(s.ctx); err != nil {
		logger.FromContext(s.ctx).Error().Err(err).Msg("Failed to start admin session")
		s.close()
		return
	}
	go s.reader()
}

func (s *Session) close() {
	s.cancel()
	s.controller.Close()
	s.hub.Unregister(s.hc)
}

func (s *Session) emit(e Event) {
	s.send(e)
}

func (s *Session) send(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.FromContext(s.ctx).Error().Err(err).Msg("Failed to marshal admin event")
		return
	}
	s.hub.Deliver(s.hc, data)
}

func (s *Session) confirm(ctx context.Context, message string) bool {
	id := uuid.NewString()
	ch := make(chan bool, 1)

	s.mu.Lock()
	s.pending[id] = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	s.emit(Event{Type: EventConfirm, ID: id, Data: Message{Message: message}})

	timer := time.NewTimer(s.confirmTimeout)
	defer timer.Stop()

	select {
	case ok := <-ch:
		return ok
	case <-ctx.Done():
		return false
	case <-timer.C:
		return false
	}
}

func (s *Session) answer(id string, ok bool) {
	s.mu.Lock()
	ch, found := s.pending[id]
	s.mu.Unlock()
	if !found {
		return
	}
	select {
	case ch <- ok:
	default:
	}
}

// handle runs one client command
func (s *Session) handle(raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return
	}

	if cmd.Action == confirmAction {
		var a confirmAnswer
		_ = json.Unmarshal(cmd.Payload, &a)
		s.answer(cmd.ID, a.OK)
		return
	}

	go func() {
		data, err := s.controller.Dispatch(s.ctx, cmd.Action, cmd.Payload)
		res := Result{Type: EventResult, ID: cmd.ID, Action: cmd.Action, OK: err == nil, Data: data}
		if err != nil {
			res.Data = nil
			res.Error = err.Error()
		}
		s.send(res)
	}()
}

func (s *Session) reader() {
	defer func() {
		s.close()
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.FromContext(s.ctx).Error().Err(err).Msg("WebSocket read error")
			}
			break
		}
		s.handle(message)
	}
}

func (s *Session) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.hc.Send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			// Send ping for heartbeat
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
