// Package ws carries the relay's event protocol over WebSocket.
package ws

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

var _ contract.Connection = (*Connection)(nil)

// Connection is one live WebSocket client. Outbound frames go through a
// buffered channel drained by a single write pump, so Send never blocks.
type Connection struct {
	id           string
	conn         *websocket.Conn
	send         chan []byte
	ctx          context.Context
	cancel       context.CancelFunc
	closeOnce    sync.Once
	writeTimeout time.Duration
	log          *slog.Logger
}

func newConnection(parent context.Context, conn *websocket.Conn, bufferSize int, writeTimeout time.Duration, log *slog.Logger) *Connection {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(parent)
	return &Connection{
		id:           id,
		conn:         conn,
		send:         make(chan []byte, bufferSize),
		ctx:          ctx,
		cancel:       cancel,
		writeTimeout: writeTimeout,
		log:          log.With("connection_id", id),
	}
}

func (c *Connection) ID() string { return c.id }

// Send encodes e and queues it. It fails with ErrSendBufferFull when the
// client does not keep up and with ErrConnectionClosed after Close.
func (c *Connection) Send(e event.Event) error {
	if c.ctx.Err() != nil {
		return errors.ErrConnectionClosed
	}
	frame, err := event.Encode(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Name(), err)
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.ctx.Done():
		return errors.ErrConnectionClosed
	default:
		return errors.ErrSendBufferFull
	}
}

// writePump pumps queued frames to the socket until the connection is closed.
func (c *Connection) writePump() {
	for {
		select {
		case frame := <-c.send:
			ctx, cancel := context.WithTimeout(c.ctx, c.writeTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				c.log.Debug("Write failed", "error", err)
				c.Close(websocket.StatusInternalError, "write failed")
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// keepalive pings the client every interval and closes the connection when
// a pong does not come back within timeout.
func (c *Connection) keepalive(interval, timeout time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, timeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				c.log.Info("Ping failed, closing connection", "error", err)
				c.Close(websocket.StatusPolicyViolation, "ping timeout")
				return
			}
		}
	}
}

// Close stops both pumps and closes the socket. Only the first call has an effect.
func (c *Connection) Close(status websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.conn.Close(status, reason)
	})
}

// Done is closed once Close has been called.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}
