// Package streaming pushes signals and odds updates to WebSocket clients.
package streaming

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventType represents the type of streaming event.
type EventType string

const (
	EventTypeSignal    EventType = "signal"
	EventTypeOdds      EventType = "odds"
	EventTypeStatus    EventType = "status"
	EventTypeError     EventType = "error"
	EventTypeHeartbeat EventType = "heartbeat"
)

// EventTypes lists every type a client is subscribed to on connect.
var EventTypes = []EventType{EventTypeSignal, EventTypeOdds, EventTypeStatus, EventTypeError, EventTypeHeartbeat}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 1024
	sendBuffer     = 256
)

// Event is a streaming event sent to clients. FixtureID is zero for events
// that are not tied to a fixture.
type Event struct {
	Type      EventType `json:"type"`
	FixtureID int64     `json:"fixture_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Observer receives hub activity, typically a metrics collector.
type Observer interface {
	UpdateStreamClients(count int)
	RecordStreamMessage(msgType string)
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.log = l }
}

// WithObserver reports client counts and broadcasts to o.
func WithObserver(o Observer) Option {
	return func(h *Hub) { h.observer = o }
}

// WithHeartbeat sets the heartbeat interval.
func WithHeartbeat(d time.Duration) Option {
	return func(h *Hub) { h.heartbeat = d }
}

// WithAllowedOrigins restricts the WebSocket upgrade to the given origins.
// "*" or an empty list allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			if o == "*" {
				return
			}
			allowed[o] = true
		}
		if len(allowed) == 0 {
			return
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			return allowed[r.Header.Get("Origin")]
		}
	}
}

// Hub manages WebSocket connections and broadcasts events.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex

	upgrader  websocket.Upgrader
	heartbeat time.Duration
	log       *slog.Logger
	observer  Observer
}

// Client represents a WebSocket client connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// Subscription filters; an empty fixture set means every fixture.
	subMu         sync.RWMutex
	subscriptions map[EventType]bool
	fixtures      map[int64]bool
}

// NewHub creates a new streaming hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		heartbeat: 30 * time.Second,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub's event loop and returns when ctx is done. Remaining
// clients are disconnected on exit.
func (h *Hub) Run(ctx context.Context) {
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.observeClients(n)
			h.log.Info("ws client connected", "clients", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.observeClients(n)
			h.log.Info("ws client disconnected", "clients", n)

		case event := <-h.broadcast:
			h.broadcastEvent(event)

		case <-heartbeat.C:
			h.broadcastEvent(Event{
				Type:      EventTypeHeartbeat,
				Timestamp: time.Now(),
				Data:      map[string]any{"clients": h.ClientCount()},
			})
		}
	}
}

func (h *Hub) broadcastEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal event", "type", event.Type, "error", err)
		return
	}
	if h.observer != nil {
		h.observer.RecordStreamMessage(string(event.Type))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if !client.wants(event) {
			continue
		}

		select {
		case client.send <- data:
		default:
			// Slow client; drop it rather than block the loop.
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) observeClients(n int) {
	if h.observer != nil {
		h.observer.UpdateStreamClients(n)
	}
}

// Broadcast queues an event for all subscribed clients. It never blocks; the
// event is dropped when the queue is full.
func (h *Hub) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- event:
	default:
		h.log.Warn("broadcast queue full, dropping event", "type", event.Type)
	}
}

// BroadcastSignal broadcasts a computed signal.
func (h *Hub) BroadcastSignal(fixtureID int64, signal any) {
	h.Broadcast(Event{Type: EventTypeSignal, FixtureID: fixtureID, Data: signal})
}

// BroadcastOdds broadcasts a resolved odds summary.
func (h *Hub) BroadcastOdds(fixtureID int64, summary any) {
	h.Broadcast(Event{Type: EventTypeOdds, FixtureID: fixtureID, Data: summary})
}

// BroadcastStatus broadcasts a status update.
func (h *Hub) BroadcastStatus(status any) {
	h.Broadcast(Event{Type: EventTypeStatus, Data: status})
}

// BroadcastError broadcasts an error event.
func (h *Hub) BroadcastError(fixtureID int64, err error, source string) {
	h.Broadcast(Event{
		Type:      EventTypeError,
		FixtureID: fixtureID,
		Data: map[string]any{
			"error":  err.Error(),
			"source": source,
		},
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS handles WebSocket upgrade requests. A fixture query parameter may
// be repeated to filter from the start.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}

	client := newClient(h, conn)
	client.subscribeFixtures(parseFixtureIDs(r.URL.Query()["fixture"]))

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		hub:           h,
		conn:          conn,
		send:          make(chan []byte, sendBuffer),
		subscriptions: make(map[EventType]bool, len(EventTypes)),
		fixtures:      make(map[int64]bool),
	}
	for _, t := range EventTypes {
		c.subscriptions[t] = true
	}
	return c
}

// wants reports whether the client should receive event.
func (c *Client) wants(event Event) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	if !c.subscriptions[event.Type] {
		return false
	}
	if event.FixtureID == 0 || len(c.fixtures) == 0 {
		return true
	}
	return c.fixtures[event.FixtureID]
}

func (c *Client) subscribeFixtures(ids []int64) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, id := range ids {
		c.fixtures[id] = true
	}
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("ws read error", "error", err)
			}
			break
		}
		c.handleMessage(message)
	}
}

// clientMessage is a subscription request:
//
//	{"type":"subscribe","events":["signal"],"fixtures":[1035]}
type clientMessage struct {
	Type     string   `json:"type"`
	Events   []string `json:"events"`
	Fixtures []int64  `json:"fixtures"`
}

// handleMessage processes incoming client messages.
func (c *Client) handleMessage(message []byte) {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	c.subMu.Lock()
	defer c.subMu.Unlock()

	switch msg.Type {
	case "subscribe":
		for _, event := range msg.Events {
			c.subscriptions[EventType(event)] = true
		}
		for _, id := range msg.Fixtures {
			c.fixtures[id] = true
		}

	case "unsubscribe":
		for _, event := range msg.Events {
			delete(c.subscriptions, EventType(event))
		}
		for _, id := range msg.Fixtures {
			delete(c.fixtures, id)
		}
	}
}

// writePump writes messages to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func parseFixtureIDs(values []string) []int64 {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
