package hub

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/nmanikumar5/Swappio-BE/internal/auth"
	"github.com/nmanikumar5/Swappio-BE/internal/chat"
	"github.com/nmanikumar5/Swappio-BE/internal/event"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	shardCount = 64 // tune: 16/64/128 depending on load
)

type inboundMessage struct {
	event  event.WsEvent
	client *Client
}

type clientBucket struct {
	sync.RWMutex
	rooms map[string]map[string]*Client
}

// Hub is the process-local presence registry: rooms keyed by user identity,
// one entry per live connection. It implements chat.PresenceRegistry for the
// dispatcher and owns the WebSocket upgrade path.
type Hub struct {
	shards     [shardCount]*clientBucket
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage

	dispatcher *chat.Dispatcher
	jwtSecret  string
	origins    map[string]struct{}
	logger     *zap.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(jwtSecret string, allowedOrigins []string, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make(chan inboundMessage, 4096), // buffer for burst handling
		jwtSecret:  jwtSecret,
		origins:    make(map[string]struct{}, len(allowedOrigins)),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}

	for _, o := range allowedOrigins {
		h.origins[o] = struct{}{}
	}

	for i := 0; i < shardCount; i++ {
		h.shards[i] = &clientBucket{
			rooms: make(map[string]map[string]*Client),
		}
	}

	// run manager loop
	go h.run()

	// start worker loop
	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in, ok := <-h.inbound:
					if !ok {
						return
					}

					h.handleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

// SetDispatcher wires the send state machine in after construction; the
// dispatcher needs the hub as its registry, so the two meet in the container.
func (h *Hub) SetDispatcher(d *chat.Dispatcher) {
	h.dispatcher = d
}

func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	if h.dispatcher == nil {
		h.logger.Error("no dispatcher wired, dropping event", zap.String("event", ev.Event))
		return
	}

	switch ev.Event {
	case event.EventSendMessage:
		var p event.SendMessagePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			h.logger.Warn("failed to unmarshal send payload", zap.Error(err))
			return
		}
		h.dispatcher.HandleSend(h.ctx, c.userID, p, c)
	case event.EventTyping:
		var p event.TypingPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return
		}
		h.dispatcher.Typing(c.userID, p)
	case event.EventStopTyping:
		var p event.TypingPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return
		}
		h.dispatcher.StopTyping(c.userID, p)
	case event.EventMarkRead:
		var p event.MarkReadPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return
		}
		h.dispatcher.MarkRead(h.ctx, c.userID, p)
	default:
		h.logger.Warn("unknown event type", zap.String("event", ev.Event))
	}
}

// Occupancy returns the number of live connections bound to the identity.
func (h *Hub) Occupancy(userID string) int {
	b := h.shards[getShard(userID)]
	b.RLock()
	defer b.RUnlock()
	return len(b.rooms[userID])
}

// Broadcast delivers an event to every live connection in the identity's
// room. Zero occupancy drops the event silently.
func (h *Hub) Broadcast(userID string, ev event.WsEvent) {
	b := h.shards[getShard(userID)]

	// collect clients while holding RLock
	b.RLock()
	room, ok := b.rooms[userID]
	if !ok || len(room) == 0 {
		b.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room))
	for _, c := range room {
		clients = append(clients, c)
	}
	b.RUnlock()

	// deliver to clients without holding lock
	for _, c := range clients {
		if c.SafeSend(ev, sendTimeout) {
			continue
		}

		// egress full -> apply policy
		h.logger.Warn("egress full",
			zap.String("client_id", c.ID),
			zap.String("user_id", userID),
		)
		if kickOnFull {
			// Unregister (safe async)
			h.unregister <- c
		}
	}
}

func getShard(userID string) uint32 {
	if userID == "" {
		return 0
	}

	h := sha1.Sum([]byte(userID))
	return binary.BigEndian.Uint32(h[:4]) % shardCount
}

func (h *Hub) addClient(c *Client) {
	b := h.shards[getShard(c.userID)]
	b.Lock()
	defer b.Unlock()

	room, ok := b.rooms[c.userID]
	if !ok {
		room = make(map[string]*Client)
		b.rooms[c.userID] = room
	}

	room[c.ID] = c
	h.logger.Debug("client joined room",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.userID),
	)
}

func (h *Hub) removeClient(c *Client) {
	b := h.shards[getShard(c.userID)]
	b.Lock()
	defer b.Unlock()

	if room, ok := b.rooms[c.userID]; ok {
		delete(room, c.ID)

		if len(room) == 0 {
			delete(b.rooms, c.userID)
		}

		c.Close()
		h.logger.Debug("client left room",
			zap.String("client_id", c.ID),
			zap.String("user_id", c.userID),
		)
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()

	// Close all client connections
	for _, shard := range h.shards {
		shard.RLock()
		for _, room := range shard.rooms {
			for _, client := range room {
				client.Close()
			}
		}
		shard.RUnlock()
	}

	close(h.inbound)
	h.wg.Wait()
}

func (h *Hub) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(h.origins) == 0 {
				return true
			}
			_, ok := h.origins[r.Header.Get("Origin")]
			return ok
		},
	}
}

// ServeWS authenticates the connection attempt, upgrades it, and joins the
// bound identity's room. No identity, no room.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.Authenticate(h.jwtSecret, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	up := h.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	RegisterClient(userID, conn, h)
}
