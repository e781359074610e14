// Package server coordinates client registration, login, message broadcast,
// and connection cleanup for the chat relay via the Hub type.
package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// inboundFrame is a decoded client event delivered to the hub loop, tagged
// with the binary/text mode of the frame it arrived in.
type inboundFrame struct {
	client *Client
	event  ClientEvent
	binary bool
}

// Hub owns all shared chat state: the username registry, the message
// history, and the set of connected clients. Every mutation happens on the
// single goroutine running Run, so logins, chat messages, and disconnects
// are processed in a strict serial order. The mutex guards the client map
// and the per-client closed flags.
type Hub struct {
	cfg        Config
	registry   *Registry
	history    *History
	sanitizer  *bluemonday.Policy
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub with an empty registry and history. The returned Hub
// is ready to manage WebSocket connections once Run is started.
func NewHub(cfg Config) *Hub {
	cfg.sanitize()
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		cfg:        cfg,
		registry:   NewRegistry(),
		history:    NewHistory(nil, nil),
		sanitizer:  bluemonday.StrictPolicy(),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame, 64),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main event loop, handling client registration,
// unregistration, logins, and message broadcasting. This method should be
// called in a separate goroutine as it runs until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				log.Printf("Received nil client registration; skipping")
				continue
			}
			h.addClient(client)

		case client := <-h.unregister:
			h.dropClient(client)

		case frame := <-h.inbound:
			h.handleFrame(frame)
		}
	}
}

// addClient tracks a new connection and starts its pumps. The session stays
// unauthenticated until a successful user-login frame.
func (h *Hub) addClient(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mutex.Unlock()
	log.Printf("Client %s connected from %s. Total clients: %d", client.ID, client.addr, clientCount)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// dropClient removes a connection, releases its claimed name, and notifies
// the remaining clients. A second drop of the same client is a no-op, so
// the name is released exactly once; sessions that never logged in produce
// no user-left broadcast.
func (h *Hub) dropClient(client *Client) {
	h.mutex.Lock()
	_, exists := h.clients[client]
	if exists {
		delete(h.clients, client)
		client.closed = true
	}
	clientCount := len(h.clients)
	h.mutex.Unlock()

	if !exists {
		return
	}
	close(client.send)

	username := client.username
	client.username = ""
	h.registry.Release(username)
	log.Printf("Client %s disconnected from %s. Total clients: %d", client.ID, client.addr, clientCount)

	if username == "" {
		return
	}

	payload, err := EncodeUserLeft(username)
	if err != nil {
		log.Printf("Error encoding user-left event: %v", err)
		return
	}
	h.broadcast(payload, false, nil)
}

// handleFrame dispatches one decoded inbound event.
func (h *Hub) handleFrame(frame inboundFrame) {
	switch frame.event.Header {
	case HeaderUserLogin:
		h.handleLogin(frame.client, frame.event.Username)
	case HeaderUserMessage:
		h.handleChatMessage(frame)
	default:
		log.Printf("Ignoring frame with unknown header %q from %s", frame.event.Header, frame.client.addr)
	}
}

// handleLogin claims the requested username. On success the joiner alone
// receives update-data with the user list and history snapshot taken at
// this instant, then every other client is told about the join. On a taken
// (or empty) name the joiner gets username-busy and may retry over the same
// connection.
func (h *Hub) handleLogin(client *Client, username string) {
	if !h.registry.TryClaim(username) {
		payload, err := EncodeUsernameBusy()
		if err != nil {
			log.Printf("Error encoding username-busy reply: %v", err)
			return
		}
		h.safeSend(client, outFrame{payload: payload})
		return
	}

	client.username = username

	update, err := EncodeUpdateData(username, h.registry.Usernames(), h.history.Snapshot())
	if err != nil {
		log.Printf("Error encoding update-data for %q: %v", username, err)
		client.username = ""
		h.registry.Release(username)
		return
	}
	if !h.safeSend(client, outFrame{payload: update}) {
		// Joiner is already gone; retract the claim silently, since the
		// join was never announced no user-left should follow either.
		client.username = ""
		h.registry.Release(username)
		h.dropClient(client)
		return
	}

	joined, err := EncodeUserJoined(username)
	if err != nil {
		log.Printf("Error encoding user-joined event: %v", err)
		return
	}
	h.broadcast(joined, false, client)
	log.Printf("User %q logged in from %s", username, client.addr)
}

// handleChatMessage appends the message to the history and relays it to
// every connected client, the sender included. The sender field is the
// client-asserted username from the frame, matching the relay's original
// behavior; the text is stripped of HTML first.
func (h *Hub) handleChatMessage(frame inboundFrame) {
	text := h.sanitizer.Sanitize(frame.event.Text)
	message := h.history.Append(frame.event.Username, text)

	payload, err := EncodeChatMessage(message)
	if err != nil {
		log.Printf("Error encoding chat message: %v", err)
		return
	}
	h.broadcast(payload, frame.binary, nil)
}

// broadcast queues payload for every tracked client except exclude. Clients
// whose buffers are full or that are already closed are dropped; one dead
// peer never aborts delivery to the rest.
func (h *Hub) broadcast(payload []byte, binary bool, exclude *Client) {
	clients := h.getClientSnapshot()

	var failed []*Client
	for _, client := range clients {
		if exclude != nil && client == exclude {
			continue
		}
		if !h.safeSend(client, outFrame{payload: payload, binary: binary}) {
			failed = append(failed, client)
		}
	}

	for _, client := range failed {
		log.Printf("Client %s removed due to failed send", client.ID)
		h.dropClient(client)
	}
}

// getClientSnapshot returns a thread-safe snapshot of all current clients.
func (h *Hub) getClientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// safeSend queues a frame for one client, reporting false when the client
// is unregistered, closed, or its buffer is full.
func (h *Hub) safeSend(client *Client, frame outFrame) bool {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in safeSend: %v", r)
		}
	}()

	// Hold the lock during the send so the channel cannot be closed between
	// the state check and the send.
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[client]
	if !exists || client.closed {
		return false
	}

	select {
	case client.send <- frame:
		return true
	default:
		return false
	}
}

// shutdownClients closes all active client connections.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	clients := h.getClientSnapshot()
	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				log.Printf("Error closing client connection from %s: %v", client.addr, err)
			}
		}
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all client
// goroutines to complete, or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
