// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// outFrame is an encoded payload queued for delivery, tagged with the frame
// mode it must be written in. Chat broadcasts keep the mode of the inbound
// frame that triggered them.
type outFrame struct {
	payload []byte
	binary  bool
}

// Client represents one WebSocket connection in the chat system. The
// username field holds the claimed display name, empty until a login
// succeeds; it is read and written only by the hub goroutine. The closed
// flag is guarded by the hub's mutex.
type Client struct {
	ID             uuid.UUID
	conn           *websocket.Conn
	send           chan outFrame
	hub            *Hub
	addr           string
	username       string
	closed         bool
	limiter        *rate.Limiter
	maxMessageSize int64
}

// NewClient creates a Client for the given connection. The send channel is
// buffered so broadcasts do not block the hub on a slow peer; the message
// limiter and read limit come from the hub's configuration.
func NewClient(conn *websocket.Conn, hub *Hub, addr string) *Client {
	cfg := hub.cfg
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	limiter := rate.NewLimiter(
		rate.Every(cfg.RateLimitWindow/time.Duration(cfg.RateLimitBurst)),
		cfg.RateLimitBurst,
	)

	return &Client{
		ID:             uuid.New(),
		conn:           conn,
		send:           make(chan outFrame, 256),
		hub:            hub,
		addr:           addr,
		limiter:        limiter,
		maxMessageSize: cfg.MaxMessageSize,
	}
}

// Username returns the display name claimed by this client, or "" while the
// session is unauthenticated.
func (c *Client) Username() string {
	return c.username
}

// setupReadConnection configures read deadlines and the pong handler.
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Error setting initial read deadline for %s: %v", c.addr, err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Error setting read deadline in pong handler for %s: %v", c.addr, err)
		}
		return nil
	})
}

// handleReadError logs the read failure and reports whether the read loop
// should stop.
func (c *Client) handleReadError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, websocket.ErrReadLimit) {
		log.Printf("Frame from %s exceeded maximum size of %d bytes", c.addr, c.maxMessageSize)
		return true
	}

	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		log.Printf("Client %s disconnected: %v", c.addr, err)
		return true
	}

	if errors.Is(err, io.EOF) || isExpectedCloseError(err) {
		log.Printf("Client %s connection closed: %v", c.addr, err)
		return true
	}

	log.Printf("WebSocket read error from %s: %v", c.addr, err)
	return true
}

// checkRateLimit reports whether the inbound frame is within the client's
// message budget.
func (c *Client) checkRateLimit() bool {
	if c.limiter != nil && !c.limiter.Allow() {
		log.Printf("Rate limit exceeded for %s; discarding frame", c.addr)
		return false
	}
	return true
}

// processFrame decodes a raw frame and forwards the typed event to the hub.
// Malformed frames are logged and dropped without closing the connection.
func (c *Client) processFrame(raw []byte, binary bool) bool {
	event, err := DecodeClientEvent(raw)
	if err != nil {
		log.Printf("Dropping malformed frame from %s: %v", c.addr, err)
		return false
	}

	select {
	case c.hub.inbound <- inboundFrame{client: c, event: event, binary: binary}:
		return true
	case <-c.hub.ctx.Done():
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		// During shutdown the hub loop is gone, so don't wait on it.
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing connection in readPump: %v", err)
		}
	}()

	c.setupReadConnection()

	for {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if c.handleReadError(err) {
				break
			}
			continue
		}

		if !c.checkRateLimit() {
			continue
		}

		c.processFrame(raw, msgType == websocket.BinaryMessage)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Error setting write deadline for %s: %v", c.addr, err)
				return
			}

			if !ok {
				c.writeCloseMessage()
				return
			}

			// Every envelope goes out in its own frame so its binary/text
			// mode can match the inbound frame that produced it.
			msgType := websocket.TextMessage
			if frame.binary {
				msgType = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(msgType, frame.payload); err != nil {
				log.Printf("Error writing message to %s: %v", c.addr, err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Error setting write deadline for ping to %s: %v", c.addr, err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("Error writing ping message to %s: %v", c.addr, err)
				return
			}

		case <-c.hub.ctx.Done():
			return
		}
	}
}

// closeConnection closes the WebSocket connection, ignoring expected
// close-time errors.
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		log.Printf("Error closing connection in writePump: %v", err)
	}
}

// writeCloseMessage sends a close frame to the client.
func (c *Client) writeCloseMessage() {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing close message to %s: %v", c.addr, err)
		}
	}
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
