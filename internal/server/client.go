package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"homestead/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	sendBuffer     = 256
)

var errConnClosed = errors.New("connection closed")

// HandleFunc processes one inbound message.
type HandleFunc func(ctx context.Context, c *Client, msg *protocol.Message)

// Client represents a connected websocket client.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan *protocol.Message
	log  *zap.Logger

	mu       sync.Mutex
	gameID   string
	playerID string
}

// NewClient creates a new client.
func NewClient(hub *Hub, conn *websocket.Conn, log *zap.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:   id,
		hub:  hub,
		conn: conn,
		send: make(chan *protocol.Message, sendBuffer),
		log:  log.With(zap.String("client", id)),
	}
}

// ID returns the connection id.
func (c *Client) ID() string { return c.id }

// GameID returns the joined game, or "".
func (c *Client) GameID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameID
}

// PlayerID returns the seat the client plays, or "".
func (c *Client) PlayerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

func (c *Client) bind(gameID, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameID, c.playerID = gameID, playerID
}

// Send queues a message. A client that cannot keep up is disconnected.
func (c *Client) Send(msg *protocol.Message) {
	select {
	case c.send <- msg:
	default:
		c.log.Warn("send buffer full, closing connection")
		go c.conn.Close(websocket.StatusPolicyViolation, "client too slow")
	}
}

// Serve pumps messages until the connection or ctx closes. Inbound messages
// are handled one at a time in arrival order.
func (c *Client) Serve(ctx context.Context, handle HandleFunc) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readPump(ctx, handle) })
	g.Go(func() error { return c.writePump(ctx) })

	err := g.Wait()
	c.conn.CloseNow()
	if errors.Is(err, errConnClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *Client) readPump(ctx context.Context, handle HandleFunc) error {
	c.conn.SetReadLimit(maxMessageSize)
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return errConnClosed
			}
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.Send(mustMessage(protocol.TypeError, "", protocol.ErrorPayload{
				Code:    protocol.ErrCodeBadRequest,
				Message: "invalid message: " + err.Error(),
			}))
			continue
		}
		handle(ctx, c, &msg)
	}
}

func (c *Client) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg := <-c.send:
			data, err := json.Marshal(msg)
			if err != nil {
				c.log.Error("failed to marshal message", zap.String("type", string(msg.Type)), zap.Error(err))
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err = c.conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return err
			}

		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}
