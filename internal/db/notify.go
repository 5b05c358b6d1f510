package db

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/dbpool"
)

// EventsChannel is the LISTEN/NOTIFY channel stores publish committed
// notification and version events on.
const EventsChannel = "revisor_events"

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second

	// stableAfter is how long a subscription must survive before the
	// reconnect backoff starts over.
	stableAfter = time.Minute
)

// Broadcaster sends events to connected clients.
type Broadcaster interface {
	BroadcastToUser(eventType, userID string, data json.RawMessage)
	BroadcastToDepartment(eventType, departmentID string, data json.RawMessage)
}

// bridgeEvent is the routing part of a payload; the full payload is
// forwarded untouched.
type bridgeEvent struct {
	Type         string `json:"type"`
	UserID       string `json:"user_id,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
}

// NotifyBridge forwards events committed by any revisor instance to the
// WebSocket hub of this one. Notification events go to their recipient;
// version events go to the content's department.
type NotifyBridge struct {
	log  *logrus.Logger
	pool *dbpool.Pool
	hub  Broadcaster
}

func NewNotifyBridge(log *logrus.Logger, pool *dbpool.Pool, hub Broadcaster) *NotifyBridge {
	return &NotifyBridge{log: log, pool: pool, hub: hub}
}

// Start fails fast when the database is unreachable, then keeps a
// subscription alive in the background until ctx is done.
func (b *NotifyBridge) Start(ctx context.Context) error {
	if err := b.pool.Ping(ctx); err != nil {
		return fmt.Errorf("notify bridge: database not reachable: %w", err)
	}

	go b.run(ctx)

	return nil
}

func (b *NotifyBridge) run(ctx context.Context) {
	backoff := initialBackoff

	for ctx.Err() == nil {
		started := time.Now()

		err := b.subscribe(ctx)
		if ctx.Err() != nil {
			return
		}

		if time.Since(started) > stableAfter {
			backoff = initialBackoff
		}

		b.log.WithError(err).WithField("retry_in", backoff).Warn("notify bridge disconnected")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff = nextBackoff(backoff)
	}
}

// subscribe holds one connection in LISTEN until it breaks or ctx ends.
// WaitForNotification returns as soon as ctx is cancelled.
func (b *NotifyBridge) subscribe(ctx context.Context) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{EventsChannel}.Sanitize()); err != nil {
		return fmt.Errorf("executing LISTEN: %w", err)
	}

	b.log.WithField("channel", EventsChannel).Info("notify bridge listening")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("waiting for notification: %w", err)
		}

		b.handleNotification(n)
	}
}

func (b *NotifyBridge) handleNotification(n *pgconn.Notification) {
	var evt bridgeEvent
	if err := json.Unmarshal([]byte(n.Payload), &evt); err != nil || evt.Type == "" {
		b.log.WithField("pid", n.PID).Warn("dropping malformed event payload")
		return
	}

	raw := json.RawMessage(n.Payload)

	switch {
	case evt.UserID != "":
		b.hub.BroadcastToUser(evt.Type, evt.UserID, raw)
	case evt.DepartmentID != "":
		b.hub.BroadcastToDepartment(evt.Type, evt.DepartmentID, raw)
	default:
		b.log.WithField("type", evt.Type).Warn("dropping event without recipient")
	}
}

// nextBackoff doubles current up to maxBackoff and applies ±25% jitter so
// instances restarted together do not reconnect in lockstep.
func nextBackoff(current time.Duration) time.Duration {
	next := min(current*2, maxBackoff)

	return time.Duration(float64(next) * (0.75 + rand.Float64()*0.5)) //nolint:gosec // jitter only.
}
