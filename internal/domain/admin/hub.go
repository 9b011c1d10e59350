package admin

import (
	"context"
	"encoding/json"
	"expvar"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const userEventsChannel = "admin:user_events"

const sendBuffer = 256

var (
	wsConnectionsGauge   = expvar.NewInt("admin_ws_connections")
	wsEventsSentTotal    = expvar.NewInt("admin_ws_events_sent_total")
	wsEventsDroppedTotal = expvar.NewInt("admin_ws_events_dropped_total")
)

type userEventMessage struct {
	UID              string          `json:"uid"`
	Payload          json.RawMessage `json:"payload"`
	SenderInstanceID string          `json:"sender_instance_id"`
}

// Connection is one websocket session as the hub sees it. UID is empty until the
// session signs in.
type Connection struct {
	Send chan []byte
	uid  string
}

// NewConnection creates a connection for an operator, or anonymous when uid is empty
func NewConnection(uid string) *Connection {
	return &Connection{Send: make(chan []byte, sendBuffer), uid: uid}
}

// Hub tracks websocket sessions per operator and fans user events out to all of
// them, across instances through Redis Pub/Sub.
type Hub struct {
	// Local connections (this server instance only), keyed by uid
	connections map[string]map[*Connection]bool
	registered  map[*Connection]bool

	redis  *redis.Client
	pubsub *redis.PubSub

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	instanceID         string
	publishUserEventFn func(ctx context.Context, channel string, payload []byte) error
}

// NewHub creates a hub. A nil redisClient keeps events on this instance.
func NewHub(redisClient *redis.Client) *Hub {
	return NewHubWithInstanceID(redisClient, uuid.NewString())
}

// NewHubWithInstanceID creates a hub with an explicit instance identifier.
func NewHubWithInstanceID(redisClient *redis.Client, instanceID string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[string]map[*Connection]bool),
		registered:  make(map[*Connection]bool),
		redis:       redisClient,
		ctx:         ctx,
		cancel:      cancel,
		instanceID:  instanceID,
	}

	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, userEventsChannel)
		h.publishUserEventFn = func(ctx context.Context, channel string, payload []byte) error {
			return redisClient.Publish(ctx, channel, payload).Err()
		}
	}

	return h
}

// Run relays user events from other instances until Shutdown (call in goroutine)
func (h *Hub) Run() {
	if h.pubsub == nil {
		<-h.ctx.Done()
		return
	}
	h.runRedisSubscriber()
}

func (h *Hub) addLocked(conn *Connection) {
	if conn.uid == "" {
		return
	}
	if h.connections[conn.uid] == nil {
		h.connections[conn.uid] = make(map[*Connection]bool)
	}
	h.connections[conn.uid][conn] = true
}

func (h *Hub) removeLocked(conn *Connection) {
	if conns, ok := h.connections[conn.uid]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.connections, conn.uid)
		}
	}
}

// Register adds a connection. Events delivered after it returns are queued.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	h.registered[conn] = true
	h.addLocked(conn)
	uid := conn.uid
	h.mu.Unlock()

	wsConnectionsGauge.Add(1)
	log.Debug().Str("uid", uid).Msg("Admin session connected")
}

// Unregister removes a connection and closes its Send channel
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	uid := conn.uid
	if !h.registered[conn] {
		h.mu.Unlock()
		return
	}
	delete(h.registered, conn)
	h.removeLocked(conn)
	close(conn.Send)
	h.mu.Unlock()

	wsConnectionsGauge.Add(-1)
	log.Debug().Str("uid", uid).Msg("Admin session disconnected")
}

// Assign moves a connection to the operator that signed in on it; "" after sign-out.
func (h *Hub) Assign(conn *Connection, uid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn.uid == uid {
		return
	}
	if h.registered[conn] {
		h.removeLocked(conn)
		conn.uid = uid
		h.addLocked(conn)
		return
	}
	conn.uid = uid
}

// Deliver queues data on one connection, dropping it when the buffer is full.
func (h *Hub) Deliver(conn *Connection, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.registered[conn] {
		return
	}
	h.deliverLocked(conn, data)
}

func (h *Hub) deliverLocked(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
		wsEventsSentTotal.Add(1)
	default:
		// Buffer full, skip this message
		wsEventsDroppedTotal.Add(1)
		log.Warn().Str("uid", conn.uid).Msg("WebSocket send buffer full")
	}
}

// SendToUser sends payload to every session of uid on any instance
func (h *Hub) SendToUser(uid string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	h.sendLocalToUser(uid, data)
	return h.publishUserEvent(uid, data)
}

func (h *Hub) sendLocalToUser(uid string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections[uid] {
		h.deliverLocked(conn, data)
	}
}

func (h *Hub) publishUserEvent(uid string, data []byte) error {
	if h.publishUserEventFn == nil {
		return nil
	}

	payload, err := json.Marshal(userEventMessage{
		UID:              uid,
		Payload:          data,
		SenderInstanceID: h.instanceID,
	})
	if err != nil {
		return err
	}
	return h.publishUserEventFn(h.ctx, userEventsChannel, payload)
}

// runRedisSubscriber listens for user events from other instances
func (h *Hub) runRedisSubscriber() {
	ch := h.pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleUserEventPayload(msg.Payload)
		}
	}
}

func (h *Hub) handleUserEventPayload(payload string) {
	var event userEventMessage
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return
	}
	if event.SenderInstanceID == h.instanceID || event.UID == "" {
		return
	}
	h.sendLocalToUser(event.UID, []byte(event.Payload))
}

// ConnectionCount returns number of local connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.registered)
}

// UserConnectionCount returns number of local sessions signed in as uid
func (h *Hub) UserConnectionCount(uid string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[uid])
}

// Shutdown stops the hub
func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}

// HubView sends view events to every open session of one operator. It cannot ask
// for confirmation.
type HubView struct {
	*EventView
}

// NewHubView creates a view fanning out to uid's sessions
func NewHubView(hub *Hub, uid string) *HubView {
	return &HubView{EventView: NewEventView(func(e Event) {
		if err := hub.SendToUser(uid, e); err != nil {
			log.Error().Err(err).Str("uid", uid).Msg("Failed to publish admin event")
		}
	})}
}
