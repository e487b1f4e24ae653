package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/material-ledger/internal/model"
	"github.com/vyrodovalexey/material-ledger/internal/store"
)

// WebSocket configuration constants.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

var wsClients = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "ledger",
	Name:      "websocket_clients",
	Help:      "Number of connected WebSocket clients",
})

// client is one WebSocket subscriber. send is never closed; the pumps stop
// when ctx is canceled.
type client struct {
	conn   *websocket.Conn
	addr   string
	send   chan model.WebSocketMessage
	ctx    context.Context
	cancel context.CancelFunc
}

// WebSocketHandler pushes the ledger state to connected clients: the full
// state on connect, then the new state after every mutation.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	ledger   store.Watcher
	logger   *zap.Logger
	mu       sync.Mutex
	clients  map[*client]struct{}
}

// NewWebSocketHandler creates a new WebSocketHandler instance.
func NewWebSocketHandler(ledger store.Watcher, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(_ *http.Request) bool {
				return true // origins are restricted by the CORS middleware
			},
		},
		ledger:  ledger,
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// RegisterRoutes registers the WebSocket routes with the router.
func (h *WebSocketHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.HandleWebSocket).Methods(http.MethodGet)
}

// HandleWebSocket handles WebSocket connection requests.
//
//nolint:contextcheck // the connection outlives the upgrade request
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &client{
		conn:   conn,
		addr:   conn.RemoteAddr().String(),
		send:   make(chan model.WebSocketMessage, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	wsClients.Inc()

	unwatch := h.ledger.Watch(
		h.enqueue(c, model.WSMessageTypeSnapshot),
		h.enqueue(c, model.WSMessageTypeChanged),
	)

	h.logger.Info("websocket client connected", zap.String("remote_addr", c.addr))

	go h.writePump(c)
	go h.readPump(c, unwatch)
}

// enqueue returns a ledger callback that queues a message for c. It runs
// under the ledger lock, so it never blocks: a client whose buffer is full
// is disconnected.
func (h *WebSocketHandler) enqueue(c *client, msgType string) store.ChangeFunc {
	return func(snap model.Snapshot) {
		if c.ctx.Err() != nil {
			return
		}
		msg := model.NewLedgerMessage(msgType, snap, model.Summarize(snap.Materials))
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("websocket client too slow, disconnecting", zap.String("remote_addr", c.addr))
			c.cancel()
		}
	}
}

// readPump drains the connection so pongs and close frames are processed.
func (h *WebSocketHandler) readPump(c *client, unwatch func()) {
	defer func() {
		unwatch()
		c.cancel()
		h.removeClient(c)
		if err := c.conn.Close(); err != nil {
			h.logger.Debug("error closing connection", zap.Error(err))
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Error("failed to set read deadline", zap.Error(err))
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		h.logger.Debug("ignoring client message", zap.ByteString("message", message))
	}
}

// writePump is the only writer of data frames on the connection.
func (h *WebSocketHandler) writePump(c *client) {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			h.sendCloseMessage(c.conn)
			return
		case msg := <-c.send:
			if err := h.writeMessage(c.conn, msg); err != nil {
				h.logger.Debug("failed to send ledger state", zap.Error(err))
				c.cancel()
				return
			}
		case <-pingTicker.C:
			if err := h.sendPing(c.conn); err != nil {
				h.logger.Debug("failed to send ping", zap.Error(err))
				c.cancel()
				return
			}
		}
	}
}

func (h *WebSocketHandler) writeMessage(conn *websocket.Conn, msg model.WebSocketMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// sendPing sends a ping message to the connection.
func (h *WebSocketHandler) sendPing(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.PingMessage, nil)
}

// sendCloseMessage sends a close message to the connection.
func (h *WebSocketHandler) sendCloseMessage(conn *websocket.Conn) {
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutting down")
	if err := conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeWait)); err != nil {
		h.logger.Debug("failed to send close message", zap.Error(err))
	}
}

// removeClient removes a client from the clients map.
func (h *WebSocketHandler) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[c]; exists {
		delete(h.clients, c)
		wsClients.Dec()
		h.logger.Info("websocket client disconnected", zap.String("remote_addr", c.addr))
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHandler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAllConnections closes all active WebSocket connections.
func (h *WebSocketHandler) CloseAllConnections() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	// Canceling makes each writePump send a close frame.
	for _, c := range clients {
		c.cancel()
	}

	time.Sleep(100 * time.Millisecond)

	for _, c := range clients {
		if err := c.conn.Close(); err != nil {
			h.logger.Debug("error closing connection", zap.Error(err))
		}
		h.removeClient(c)
	}

	h.logger.Info("all websocket connections closed")
}
