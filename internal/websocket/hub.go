package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"backend/internal/repository"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Heartbeat interval for version polling. Clients refetch the board only
	// when the version changes, at most once per heartbeat, which keeps a
	// busy post from turning every win into a request storm.
	versionHeartbeatInterval = 2 * time.Second
)

// Client represents a WebSocket client subscribed to one post's board
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	postID string
	send   chan []byte
}

// Hub tracks subscribers per post and broadcasts board-version changes.
// Versions live in Redis (bumped by every win insert); the hub polls them
// instead of fanning out on the write path.
type Hub struct {
	// Subscribers keyed by post identity
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	redisRepo *repository.RedisRepository

	mu sync.RWMutex

	// Last observed version per post, for change detection
	versions map[string]int64
}

// VersionUpdate is the heartbeat message pushed to subscribers
type VersionUpdate struct {
	Type    string `json:"type"`
	PostID  string `json:"postId"`
	Version int64  `json:"version"`
}

// NewHub creates a new WebSocket hub
func NewHub(redisRepo *repository.RedisRepository) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		redisRepo:  redisRepo,
		versions:   make(map[string]int64),
	}
}

// Run starts the WebSocket hub
func (h *Hub) Run(ctx context.Context) {
	log.Println("WebSocket hub started")

	versionTicker := time.NewTicker(versionHeartbeatInterval)
	defer versionTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.postID] == nil {
				h.clients[client.postID] = make(map[*Client]bool)
			}
			h.clients[client.postID][client] = true
			h.mu.Unlock()

			h.sendInitialVersion(ctx, client)

		case client := <-h.unregister:
			h.mu.Lock()
			if subscribers, ok := h.clients[client.postID]; ok {
				if _, ok := subscribers[client]; ok {
					delete(subscribers, client)
					close(client.send)
					if len(subscribers) == 0 {
						delete(h.clients, client.postID)
						delete(h.versions, client.postID)
					}
				}
			}
			h.mu.Unlock()

		case <-versionTicker.C:
			h.broadcastChangedVersions(ctx)

		case <-ctx.Done():
			log.Println("WebSocket hub shutting down")
			return
		}
	}
}

// broadcastChangedVersions polls the version counter of every post that has
// subscribers and pushes an update where it moved
func (h *Hub) broadcastChangedVersions(ctx context.Context) {
	h.mu.RLock()
	postIDs := make([]string, 0, len(h.clients))
	for postID := range h.clients {
		postIDs = append(postIDs, postID)
	}
	h.mu.RUnlock()

	for _, postID := range postIDs {
		version, err := h.redisRepo.LeaderboardVersion(ctx, postID)
		if err != nil {
			log.Printf("Failed to get board version for %s: %v", postID, err)
			continue
		}

		h.mu.Lock()
		changed := version != h.versions[postID]
		if changed {
			h.versions[postID] = version
		}
		h.mu.Unlock()

		if changed {
			h.broadcast(postID, version)
		}
	}
}

func (h *Hub) broadcast(postID string, version int64) {
	message, err := json.Marshal(VersionUpdate{
		Type:    "VERSION_UPDATE",
		PostID:  postID,
		Version: version,
	})
	if err != nil {
		log.Printf("Failed to marshal version update: %v", err)
		return
	}

	h.mu.RLock()
	for client := range h.clients[postID] {
		select {
		case client.send <- message:
		default:
			// Client's send buffer is full, skip this client
		}
	}
	h.mu.RUnlock()
}

// sendInitialVersion seeds a new subscriber with the current version so it
// can decide whether its cached board is stale
func (h *Hub) sendInitialVersion(ctx context.Context, client *Client) {
	version, err := h.redisRepo.LeaderboardVersion(ctx, client.postID)
	if err != nil {
		log.Printf("Failed to get initial version for %s: %v", client.postID, err)
		return
	}

	h.mu.Lock()
	if _, seen := h.versions[client.postID]; !seen {
		h.versions[client.postID] = version
	}
	h.mu.Unlock()

	message, err := json.Marshal(VersionUpdate{
		Type:    "VERSION_UPDATE",
		PostID:  client.postID,
		Version: version,
	})
	if err != nil {
		return
	}

	select {
	case client.send <- message:
	case <-time.After(2 * time.Second):
		log.Println("Timeout sending initial version - client may be slow")
	}
}

// GetClientCount returns the current number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, subscribers := range h.clients {
		count += len(subscribers)
	}
	return count
}

// readPump drains the connection until the client goes away. Subscribers
// never send meaningful messages; browser WebSockets handle keepalive at the
// protocol level.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket unexpected close: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))

		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		// Add queued messages to the current websocket message
		n := len(c.send)
		for i := 0; i < n; i++ {
			w.Write([]byte{'\n'})
			w.Write(<-c.send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}

	// The hub closed the channel
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ServeWS handles a WebSocket subscription to one post's board
func ServeWS(hub *Hub, conn *websocket.Conn, postID string) {
	client := &Client{
		hub:    hub,
		conn:   conn,
		postID: postID,
		send:   make(chan []byte, 256),
	}

	client.hub.register <- client

	go client.writePump()

	// Blocks until disconnect
	client.readPump()
}
