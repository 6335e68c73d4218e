// Package ws streams session and batch updates to browsers.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"whatsapp-relay/internal/session"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	EventSessionUpdate = "session_update"
	EventBatchUpdate   = "batch_update"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event is the frame sent to subscribers.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type subscriber struct {
	hub   *Hub
	conn  *websocket.Conn
	queue chan []byte
}

// Hub fans events out to connected subscribers. Publishing never blocks: when
// the hub is saturated or stopped the event is dropped. A new subscriber first
// receives the latest session status so it does not wait for the next change.
type Hub struct {
	publish chan []byte
	join    chan *subscriber
	leave   chan *subscriber
	stopped chan struct{}
	log     zerolog.Logger

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	lastSession []byte
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		publish:     make(chan []byte, 64),
		join:        make(chan *subscriber),
		leave:       make(chan *subscriber),
		stopped:     make(chan struct{}),
		log:         log.With().Str("component", "ws").Logger(),
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Run delivers events until ctx is done, then disconnects every subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer h.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-h.join:
			h.mu.Lock()
			h.subscribers[s] = struct{}{}
			if h.lastSession != nil {
				s.queue <- h.lastSession
			}
			n := len(h.subscribers)
			h.mu.Unlock()
			h.log.Debug().Int("subscribers", n).Msg("WebSocket client registered")
		case s := <-h.leave:
			h.drop(s)
			h.log.Debug().Msg("WebSocket client unregistered")
		case frame := <-h.publish:
			h.fanOut(frame)
		}
	}
}

func (h *Hub) stop() {
	close(h.stopped)
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subscribers {
		delete(h.subscribers, s)
		close(s.queue)
	}
}

func (h *Hub) drop(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		close(s.queue)
	}
}

// fanOut disconnects subscribers that cannot keep up.
func (h *Hub) fanOut(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subscribers {
		select {
		case s.queue <- frame:
		default:
			delete(h.subscribers, s)
			close(s.queue)
			h.log.Warn().Msg("Dropping slow WebSocket client")
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// BroadcastEvent queues one frame for every subscriber. The latest session
// update is also kept for replay to clients that join later.
func (h *Hub) BroadcastEvent(eventType string, data interface{}) {
	frame, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		h.log.Error().Err(err).Str("type", eventType).Msg("Error marshaling WS event")
		return
	}
	if eventType == EventSessionUpdate {
		h.mu.Lock()
		h.lastSession = frame
		h.mu.Unlock()
	}
	select {
	case h.publish <- frame:
	default:
		h.log.Warn().Str("type", eventType).Msg("WS publish queue full, dropping event")
	}
}

func (h *Hub) NotifySession(status session.Status) {
	h.BroadcastEvent(EventSessionUpdate, status)
}

func (h *Hub) NotifyBatch(progress interface{}) {
	h.BroadcastEvent(EventBatchUpdate, progress)
}

// ServeWs upgrades the request and subscribes the connection.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	s := &subscriber{hub: h, conn: conn, queue: make(chan []byte, 256)}
	select {
	case h.join <- s:
	case <-h.stopped:
		_ = conn.Close()
		return
	}

	go s.writeLoop()
	go s.readLoop()
}

// readLoop only watches for pongs and the close frame; clients never send data.
func (s *subscriber) readLoop() {
	defer func() {
		select {
		case s.hub.leave <- s:
		case <-s.hub.stopped:
		}
		_ = s.conn.Close()
	}()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *subscriber) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.queue:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
