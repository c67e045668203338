package transport

import (
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"sightread/internal/log"
)

// WebSocketPublisher broadcasts trainer events as JSON to every
// connected WebSocket client. The browser staff view subscribes here.
type WebSocketPublisher struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan any
	server    *http.Server
	listener  net.Listener
}

// NewWebSocketPublisher starts a WebSocket server on addr and returns
// the publisher. Clients connect to ws://<addr>/ws.
func NewWebSocketPublisher(addr string) (*WebSocketPublisher, error) {
	wsp := &WebSocketPublisher{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local tool; any origin may subscribe.
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 256),
	}

	if err := wsp.start(); err != nil {
		return nil, err
	}
	return wsp, nil
}

// Addr returns the bound listen address, useful when addr requested an
// ephemeral port.
func (wsp *WebSocketPublisher) Addr() string {
	if wsp.listener == nil {
		return wsp.addr
	}
	return wsp.listener.Addr().String()
}

// start binds the listener and launches the server and broadcast
// goroutines.
func (wsp *WebSocketPublisher) start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsp.handleWebSocket)

	listener, err := net.Listen("tcp", wsp.addr)
	if err != nil {
		return err
	}
	wsp.listener = listener
	wsp.server = &http.Server{Handler: mux}

	go func() {
		log.Infof("transport: WebSocket server listening on %s", wsp.Addr())
		if err := wsp.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Errorf("transport: WebSocket server error: %v", err)
		}
	}()

	go wsp.handleBroadcasts()
	return nil
}

// handleWebSocket upgrades HTTP connections to WebSocket
func (wsp *WebSocketPublisher) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsp.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("transport: WebSocket upgrade error: %v", err)
		return
	}

	wsp.clientsMu.Lock()
	wsp.clients[conn] = true
	total := len(wsp.clients)
	wsp.clientsMu.Unlock()
	log.Infof("transport: client connected, total: %d", total)

	// Handle disconnect
	go func() {
		_, _, err := conn.ReadMessage()
		if err != nil {
			wsp.clientsMu.Lock()
			delete(wsp.clients, conn)
			total := len(wsp.clients)
			wsp.clientsMu.Unlock()
			conn.Close()
			log.Infof("transport: client disconnected, total: %d", total)
		}
	}()
}

// handleBroadcasts sends queued events to all connected clients.
func (wsp *WebSocketPublisher) handleBroadcasts() {
	for event := range wsp.broadcast {
		wsp.clientsMu.Lock()
		for client := range wsp.clients {
			if err := client.WriteJSON(event); err != nil {
				log.Warnf("transport: send to client failed: %v", err)
				client.Close()
				delete(wsp.clients, client)
			}
		}
		wsp.clientsMu.Unlock()
	}
}

// Publish queues event for broadcast. A full queue drops the event
// rather than blocking the trainer.
func (wsp *WebSocketPublisher) Publish(event any) error {
	select {
	case wsp.broadcast <- event:
	default:
		// Channel full, drop event
	}
	return nil
}

// Close shuts down the WebSocket server and disconnects all clients.
func (wsp *WebSocketPublisher) Close() error {
	wsp.clientsMu.Lock()
	for client := range wsp.clients {
		client.Close()
	}
	wsp.clients = make(map[*websocket.Conn]bool)
	wsp.clientsMu.Unlock()

	if wsp.server != nil {
		return wsp.server.Close()
	}
	return nil
}

// Ensure WebSocketPublisher satisfies the interface
var _ Publisher = (*WebSocketPublisher)(nil)
