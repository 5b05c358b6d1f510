// Package ws pushes notification and content events to connected users over
// WebSocket.
package ws

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/metrics"
)

// Hub channel buffer sizes.
const (
	broadcastBuffer = 256
	registerBuffer  = 64
)

// Connection caps.
const (
	maxClients        = 1000
	maxClientsPerUser = 50
)

// scopedBroadcast is sent through the broadcast channel to the Run goroutine.
// Exactly one of userID or departmentID is set.
type scopedBroadcast struct {
	userID       string
	departmentID string
	contentID    string
	msg          []byte
}

func (b scopedBroadcast) matches(c *Client) bool {
	if b.userID != "" {
		return c.UserID == b.userID
	}

	return c.DepartmentID == b.departmentID && c.Watches(b.contentID)
}

// Hub manages active WebSocket clients and broadcasts messages.
// All client map mutations happen exclusively in the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	userCount  map[string]int
	register   chan *Client
	unregister chan *Client
	broadcast  chan scopedBroadcast
	shutdown   chan struct{} // signals Run to begin graceful drain
	done       chan struct{} // closed when Run has finished draining
	count      atomic.Int64
	seq        atomic.Uint64
	log        *logrus.Logger
	buffer     *EventBuffer
}

// NewHub creates a new Hub instance.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		userCount:  make(map[string]int),
		register:   make(chan *Client, registerBuffer),
		unregister: make(chan *Client, registerBuffer),
		broadcast:  make(chan scopedBroadcast, broadcastBuffer),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		log:        log,
		buffer:     NewEventBuffer(defaultBufferMaxLen, defaultBufferMaxAge),
	}
}

// drainTimeout is how long the hub waits for clients to flush after shutdown.
const drainTimeout = 3 * time.Second

// Run starts the hub event loop. It should be run as a goroutine.
// It exits when Shutdown is called or the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.buffer.Stop()

	for {
		select {
		case <-ctx.Done():
			h.drainClients()

			return
		case <-h.shutdown:
			h.drainClients()

			return

		case client := <-h.register:
			h.add(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
			}
			h.publishCount()
			h.log.WithField("total", len(h.clients)).Debug("client unregistered")

		case b := <-h.broadcast:
			for client := range h.clients {
				if !b.matches(client) {
					continue
				}
				select {
				case client.send <- b.msg:
				default:
					h.remove(client)
				}
			}
			h.publishCount()
		}
	}
}

func (h *Hub) add(client *Client) {
	if len(h.clients) >= maxClients {
		h.log.Warn("global connection limit reached, dropping client")
		client.closeSend()

		return
	}

	if h.userCount[client.UserID] >= maxClientsPerUser {
		h.log.WithField("user_id", client.UserID).Warn("per-user connection limit reached, dropping client")
		client.closeSend()

		return
	}

	h.clients[client] = true
	h.userCount[client.UserID]++
	h.publishCount()
	h.log.WithField("total", len(h.clients)).Debug("client registered")
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	client.closeSend()

	h.userCount[client.UserID]--
	if h.userCount[client.UserID] <= 0 {
		delete(h.userCount, client.UserID)
	}
}

func (h *Hub) publishCount() {
	h.count.Store(int64(len(h.clients)))
	metrics.WSConnections.Set(float64(len(h.clients)))
}

// maxBroadcastPayload is the maximum allowed event payload size (4 KB).
const maxBroadcastPayload = 4096

func (h *Hub) enqueue(b scopedBroadcast) {
	if len(b.msg) > maxBroadcastPayload {
		h.log.WithFields(logrus.Fields{
			"user_id":       b.userID,
			"department_id": b.departmentID,
			"payload_size":  len(b.msg),
			"max_size":      maxBroadcastPayload,
		}).Warn("dropping oversized broadcast payload")

		return
	}

	select {
	case h.broadcast <- b:
	default:
		h.log.Warn("broadcast channel full, dropping message")
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	default:
		h.log.Warn("register channel full, dropping client")
		c.closeSend()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	default:
		// Run loop already exited; client cleanup happened in Run shutdown.
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// BroadcastToUser assigns a sequence ID, buffers the event for replay and
// sends it to every connection of the given user.
func (h *Hub) BroadcastToUser(eventType, userID string, data json.RawMessage) {
	msg, ok := h.record(eventType, UserScope(userID), "", data)
	if ok {
		h.enqueue(scopedBroadcast{userID: userID, msg: msg})
	}
}

// BroadcastToDepartment sends an event to every connection whose user
// belongs to the given department and watches the event's content_id.
func (h *Hub) BroadcastToDepartment(eventType, departmentID string, data json.RawMessage) {
	contentID := contentIDOf(data)

	msg, ok := h.record(eventType, DepartmentScope(departmentID), contentID, data)
	if ok {
		h.enqueue(scopedBroadcast{departmentID: departmentID, contentID: contentID, msg: msg})
	}
}

func (h *Hub) record(eventType, scope, contentID string, data json.RawMessage) ([]byte, bool) {
	evt := Event{
		Type:      eventType,
		ID:        h.seq.Add(1),
		Scope:     scope,
		ContentID: contentID,
		Data:      data,
		Time:      time.Now(),
	}

	msg, err := json.Marshal(evt)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal event")

		return nil, false
	}

	h.buffer.Append(scope, &evt)

	return msg, true
}

// Shutdown initiates a graceful WebSocket drain: sends a shutdown frame to
// every connected client, waits for their write pumps to flush, then closes
// all connections. It blocks until drain is complete or the timeout expires.
func (h *Hub) Shutdown() {
	close(h.shutdown)
	<-h.done
}

// drainClients sends a close frame to every client and waits for buffers to flush.
func (h *Hub) drainClients() {
	if len(h.clients) == 0 {
		return
	}

	h.log.WithField("clients", len(h.clients)).Info("draining WebSocket clients")

	shutdownMsg := controlMessage(msgShutdown, "server shutting down")
	for client := range h.clients {
		select {
		case client.send <- shutdownMsg:
		default:
		}
	}

	deadline := time.After(drainTimeout)
	ticker := time.NewTicker(50 * time.Millisecond) //nolint:mnd // poll interval
	defer ticker.Stop()

	for !h.sendBuffersEmpty() {
		select {
		case <-deadline:
			h.log.Warn("WebSocket drain timeout, closing remaining clients")
			h.closeAll()

			return
		case <-ticker.C:
		}
	}

	h.closeAll()
}

func (h *Hub) sendBuffersEmpty() bool {
	for client := range h.clients {
		if len(client.send) > 0 {
			return false
		}
	}

	return true
}

func (h *Hub) closeAll() {
	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
	}

	h.userCount = make(map[string]int)
	h.publishCount()
}

// ReplayEvents sends buffered events since lastEventID to the client, merging
// the user's own scope with the department scope in ID order and applying
// the client's watch list. Returns false if the requested ID is too old.
func (h *Hub) ReplayEvents(client *Client, lastEventID uint64) bool {
	scopes := []string{UserScope(client.UserID), DepartmentScope(client.DepartmentID)}

	var events []Event

	for _, scope := range scopes {
		if lastEventID > 0 && !h.buffer.Complete(scope, lastEventID) {
			return false
		}

		events = append(events, h.buffer.Since(scope, lastEventID)...)
	}

	slices.SortFunc(events, func(a, b Event) int { return cmp.Compare(a.ID, b.ID) })

	for _, evt := range events {
		if evt.Scope != UserScope(client.UserID) && !client.Watches(evt.ContentID) {
			continue
		}

		msg, err := json.Marshal(evt)
		if err != nil {
			continue
		}
		select {
		case client.send <- msg:
		default:
			return true // channel full, stop replay
		}
	}

	return true
}
