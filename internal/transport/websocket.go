// SPDX-License-Identifier: MIT
package transport

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WebSocketTransport implements Transport by broadcasting each message
// as JSON to every connected WebSocket client. Additional HTTP handlers
// (e.g. a metrics endpoint) can be mounted on the same listener before
// Start.
type WebSocketTransport struct {
	addr      string
	log       zerolog.Logger
	upgrader  websocket.Upgrader
	mux       *http.ServeMux
	server    *http.Server
	broadcast chan any

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]bool
}

// NewWebSocketTransport creates a hub serving the /ws endpoint on addr.
// Call Start to begin listening.
func NewWebSocketTransport(addr string, log zerolog.Logger) *WebSocketTransport {
	wst := &WebSocketTransport{
		addr: addr,
		log:  log.With().Str("component", "websocket").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		mux:       http.NewServeMux(),
		broadcast: make(chan any, 256),
		clients:   make(map[*websocket.Conn]bool),
	}
	wst.mux.HandleFunc("/ws", wst.handleWebSocket)
	return wst
}

// Handle mounts an additional HTTP handler on the hub's listener. Must
// be called before Start.
func (wst *WebSocketTransport) Handle(pattern string, handler http.Handler) {
	wst.mux.Handle(pattern, handler)
}

// Start begins serving and broadcasting.
func (wst *WebSocketTransport) Start() {
	wst.server = &http.Server{Addr: wst.addr, Handler: wst.mux}

	go func() {
		wst.log.Info().Str("addr", wst.addr).Msg("listening")
		if err := wst.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			wst.log.Error().Err(err).Msg("server error")
		}
	}()

	go wst.handleBroadcasts()
}

// handleWebSocket upgrades HTTP connections and registers the client.
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wst.log.Warn().Err(err).Msg("upgrade failed")
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	wst.log.Info().Int("clients", total).Msg("client connected")

	// Watch for the client going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.clientsMu.Lock()
				delete(wst.clients, conn)
				total := len(wst.clients)
				wst.clientsMu.Unlock()
				conn.Close()
				wst.log.Info().Int("clients", total).Msg("client disconnected")
				return
			}
		}
	}()
}

// handleBroadcasts fans queued messages out to all connected clients.
func (wst *WebSocketTransport) handleBroadcasts() {
	for data := range wst.broadcast {
		wst.clientsMu.Lock()
		for client := range wst.clients {
			if err := client.WriteJSON(data); err != nil {
				wst.log.Warn().Err(err).Msg("dropping client")
				client.Close()
				delete(wst.clients, client)
			}
		}
		wst.clientsMu.Unlock()
	}
}

// Send queues data for broadcast. When the queue is full the message is
// dropped rather than blocking the caller.
func (wst *WebSocketTransport) Send(data any) error {
	select {
	case wst.broadcast <- data:
	default:
		// Queue full. Capture must not wait on slow consumers.
	}
	return nil
}

// Close disconnects all clients and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	wst.clientsMu.Lock()
	for client := range wst.clients {
		client.Close()
	}
	wst.clients = make(map[*websocket.Conn]bool)
	wst.clientsMu.Unlock()

	if wst.server != nil {
		return wst.server.Close()
	}
	return nil
}

var _ Transport = (*WebSocketTransport)(nil)
