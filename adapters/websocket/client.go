package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/satriahrh/confidant/utils/log"
	"go.uber.org/zap"
)

// ClientKind separates end-user chat connections from operator alert feeds.
type ClientKind string

const (
	ChatClient     ClientKind = "chat"
	OperatorClient ClientKind = "operator"
)

type Client struct {
	conn      *websocket.Conn
	kind      ClientKind
	sessionID string
	send      chan []byte
	inbox     chan []byte
	onMessage func(ctx context.Context, raw []byte)
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closed    bool
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 8 * 1024 * 1024 // room for a base64 image
	sendBuffer     = 256
	inboxBuffer    = 16
)

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, kind ClientKind, sessionID, remoteAddr string) *Client {
	ctx := log.WithSession(context.Background(), sessionID)
	ctx = log.WithRemoteAddr(ctx, remoteAddr)
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:      conn,
		kind:      kind,
		sessionID: sessionID,
		send:      make(chan []byte, sendBuffer),
		inbox:     make(chan []byte, inboxBuffer),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// OnMessage sets the handler for incoming frames. Frames are handled one at a
// time, in arrival order, off the read loop.
func (c *Client) OnMessage(fn func(ctx context.Context, raw []byte)) {
	c.onMessage = fn
}

func (c *Client) Run() {
	c.setupHandlers()

	go c.readPump()
	go c.writePump()
	go c.dispatch()
}

func (c *Client) setupHandlers() {
	c.conn.SetCloseHandler(func(code int, text string) error {
		log.WithCtx(c.ctx).Debug("WebSocket connection closed", zap.Int("code", code), zap.String("text", text))
		c.Close()
		return nil
	})

	c.conn.SetPongHandler(func(appData string) error {
		log.WithCtx(c.ctx).Debug("Received pong from client", zap.String("appData", appData))
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// Close gracefully closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancel()

	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Client) Context() context.Context {
	return c.ctx
}

func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) Kind() ClientKind {
	return c.kind
}

// readPump handles incoming WebSocket messages
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.WithCtx(c.ctx).Error("WebSocket error", zap.Error(err))
			}
			return
		}

		if c.onMessage == nil {
			log.WithCtx(c.ctx).Debug("Ignoring message", zap.String("kind", string(c.kind)), zap.Int("size", len(message)))
			continue
		}

		select {
		case c.inbox <- message:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) dispatch() {
	for {
		select {
		case raw := <-c.inbox:
			c.onMessage(c.ctx, raw)
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump handles outgoing WebSocket messages and keepalive pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithCtx(c.ctx).Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.WithCtx(c.ctx).Error("Failed to send ping", zap.Error(err))
				return
			}
			log.WithCtx(c.ctx).Debug("Ping sent")

		case <-c.ctx.Done():
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// SendMessage queues a frame for the client. A client that cannot keep up is
// disconnected.
func (c *Client) SendMessage(message []byte) error {
	if c.IsClosed() {
		return websocket.ErrCloseSent
	}

	select {
	case c.send <- message:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.Close()
		return websocket.ErrCloseSent
	}
}
