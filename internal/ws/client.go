package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeTimeout     = 10 * time.Second
	readLimit        = 16 << 10 // room for a few hundred watched ids
	clientSendBuffer = 256
	maxWatchedIDs    = 500

	maxConnLifetime    = 4 * time.Hour
	revalidateInterval = 15 * time.Minute
	revalidateTimeout  = 10 * time.Second
	pingInterval       = 30 * time.Second
	pingTimeout        = 10 * time.Second
	maxMissedPongs     = 2
)

// KeyValidator re-checks that an API key still resolves to the same user.
type KeyValidator interface {
	ValidateAPIKey(ctx context.Context, apiKey string) (userID string, err error)
}

// watchSet is replaced wholesale, never mutated, so the hub can read it
// without locking. nil means "everything in the department".
type watchSet map[string]struct{}

// Client is one WebSocket connection of an authenticated user.
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	log          *logrus.Entry
	UserID       string
	DepartmentID string
	apiKey       string
	validator    KeyValidator
	watch        atomic.Pointer[watchSet]
	closeOnce    sync.Once
	connectedAt  time.Time
}

// NewClient creates a Client for an authenticated user's connection.
func NewClient(hub *Hub, conn *websocket.Conn, validator KeyValidator, apiKey, userID, departmentID string) *Client {
	return &Client{
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, clientSendBuffer),
		log:          hub.log.WithFields(logrus.Fields{"user_id": userID, "department_id": departmentID}),
		UserID:       userID,
		DepartmentID: departmentID,
		apiKey:       apiKey,
		validator:    validator,
		connectedAt:  time.Now(),
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// SetWatch limits department events to the given content ids. An empty
// list clears the filter.
func (c *Client) SetWatch(contentIDs []string) {
	if len(contentIDs) == 0 {
		c.watch.Store(nil)
		return
	}

	if len(contentIDs) > maxWatchedIDs {
		contentIDs = contentIDs[:maxWatchedIDs]
	}

	set := make(watchSet, len(contentIDs))
	for _, id := range contentIDs {
		set[id] = struct{}{}
	}

	c.watch.Store(&set)
}

// Watches reports whether department events about contentID reach c.
func (c *Client) Watches(contentID string) bool {
	set := c.watch.Load()
	if set == nil {
		return true
	}

	_, ok := (*set)[contentID]

	return ok
}

// ReadPump handles client messages until the connection closes, then
// unregisters the client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.CloseNow() //nolint:errcheck // teardown
	}()

	c.conn.SetReadLimit(readLimit)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				c.log.WithField("status", status).Debug("client disconnected")
			}

			return
		}

		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	var msg ClientMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	switch msg.Type {
	case msgWatch:
		c.SetWatch(msg.ContentIDs)
	case msgSubscribe:
		c.SetWatch(msg.ContentIDs)
		if !c.hub.ReplayEvents(c, msg.LastEventID) {
			c.trySend(controlMessage(msgReset, "requested events no longer available, perform full refresh"))
		}
	}
}

func (c *Client) trySend(msg []byte) {
	select {
	case c.send <- msg:
	default:
	}
}

// WritePump delivers queued messages and keeps the connection healthy:
// pings, periodic API key re-validation and a hard lifetime cap.
func (c *Client) WritePump(ctx context.Context) {
	defer c.conn.CloseNow() //nolint:errcheck // teardown

	lifetime := time.NewTimer(time.Until(c.connectedAt.Add(maxConnLifetime)))
	defer lifetime.Stop()

	revalidate := time.NewTicker(revalidateInterval)
	defer revalidate.Stop()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	missed := 0

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.write(ctx, msg); err != nil {
				c.log.WithError(err).Debug("write failed")
				return
			}

		case <-ping.C:
			if c.ping(ctx) {
				missed = 0
				continue
			}
			if missed++; missed >= maxMissedPongs {
				c.log.Debug("closing: missed pongs")
				return
			}

		case <-revalidate.C:
			if !c.stillAuthorized(ctx) {
				c.log.Info("closing websocket: api key no longer valid")
				c.conn.Close(websocket.StatusPolicyViolation, "authentication expired") //nolint:errcheck // best-effort
				return
			}

		case <-lifetime.C:
			c.log.Info("closing websocket: max connection lifetime reached")
			c.conn.Close(websocket.StatusNormalClosure, "max connection lifetime reached") //nolint:errcheck // best-effort
			return
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return c.conn.Write(ctx, websocket.MessageText, msg)
}

func (c *Client) ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	return c.conn.Ping(ctx) == nil
}

// stillAuthorized re-resolves the API key; a revoked key or one now owned
// by another user ends the stream.
func (c *Client) stillAuthorized(ctx context.Context) bool {
	if c.validator == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, revalidateTimeout)
	defer cancel()

	userID, err := c.validator.ValidateAPIKey(ctx, c.apiKey)

	return err == nil && userID == c.UserID
}
