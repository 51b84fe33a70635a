package service

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Peer represents one live WebSocket connection.
type Peer struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	mu     sync.Mutex
	closed bool
}

// enqueue queues data for the write pump. The peer mutex covers both the
// closed check and the channel send: a fan-out goroutine holding a stale
// peer pointer must never send on a channel closeSend already closed.
func (p *Peer) enqueue(data []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.Send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound channel exactly once.
func (p *Peer) closeSend() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.Send)
	}
}

// ConnHub tracks live connections by id and delivers outbound events.
// Delivery is best-effort: events to unknown or slow peers are dropped.
type ConnHub struct {
	mu         sync.RWMutex
	peers      map[string]*Peer
	upgrader   websocket.Upgrader
	maxMsgSize int64
	log        *zap.Logger
}

// NewConnHub creates a connection hub.
func NewConnHub(readBufferSize, writeBufferSize int, maxMessageSize int64, log *zap.Logger) *ConnHub {
	return &ConnHub{
		peers:      make(map[string]*Peer),
		maxMsgSize: maxMessageSize,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			// Allow all origins for dev; in prod set CheckOrigin.
		},
	}
}

// Register adds a connection under connID and returns the peer and a cleanup
// function that unregisters it.
func (h *ConnHub) Register(connID string, conn *websocket.Conn) (*Peer, func()) {
	if h.maxMsgSize > 0 {
		conn.SetReadLimit(h.maxMsgSize)
	}
	p := &Peer{
		ID:   connID,
		Conn: conn,
		Send: make(chan []byte, 256),
	}
	h.mu.Lock()
	h.peers[connID] = p
	h.mu.Unlock()

	h.log.Info("connection registered", zap.String("conn_id", connID))

	cleanup := func() {
		h.unregister(p)
	}
	return p, cleanup
}

func (h *ConnHub) unregister(p *Peer) {
	h.mu.Lock()
	if cur, ok := h.peers[p.ID]; ok && cur == p {
		delete(h.peers, p.ID)
	}
	h.mu.Unlock()
	p.closeSend()
	h.log.Info("connection unregistered", zap.String("conn_id", p.ID))
}

// IsConnected reports whether connID has a live peer.
func (h *ConnHub) IsConnected(connID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.peers[connID]
	return ok
}

// Send marshals event and queues it for connID. Returns false when the peer
// is gone or its buffer is full.
func (h *ConnHub) Send(connID string, event any) bool {
	h.mu.RLock()
	p, ok := h.peers[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal event", zap.Error(err))
		return false
	}
	if !p.enqueue(data) {
		h.log.Warn("peer closing or send buffer full, dropping event", zap.String("conn_id", connID))
		return false
	}
	return true
}

// Upgrader returns the WebSocket upgrader for HTTP handlers.
func (h *ConnHub) Upgrader() *websocket.Upgrader {
	return &h.upgrader
}

// PeerCount returns the number of live connections.
func (h *ConnHub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}
