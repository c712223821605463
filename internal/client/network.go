// Package client implements a headless websocket client and a simple bot
// that plays through the server protocol.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"homestead/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	bufferSize = 64
)

// NetworkClient handles websocket communication with the server.
type NetworkClient struct {
	conn *websocket.Conn
	send chan *protocol.Message
	recv chan *protocol.Message
	done chan struct{}
	log  *zap.Logger

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

// WebSocketURL turns a server address into the /ws endpoint URL. Addresses
// that already carry a ws:// or wss:// scheme are used as given.
func WebSocketURL(addr string) string {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	addr = strings.TrimPrefix(addr, "http://")
	if strings.HasPrefix(addr, "https://") {
		return "wss://" + strings.TrimSuffix(strings.TrimPrefix(addr, "https://"), "/") + "/ws"
	}
	return "ws://" + strings.TrimSuffix(addr, "/") + "/ws"
}

// Dial connects to the server and starts the pumps.
func Dial(ctx context.Context, url string, log *zap.Logger) (*NetworkClient, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, url, nil)
	if err != nil {
		return nil, err
	}
	log.Debug("connected", zap.String("url", url))

	c := &NetworkClient{
		conn: conn,
		send: make(chan *protocol.Message, bufferSize),
		recv: make(chan *protocol.Message, bufferSize),
		done: make(chan struct{}),
		log:  log,
	}
	go c.readPump()
	go c.writePump()
	return c, nil
}

// Send queues a message and returns its id.
func (c *NetworkClient) Send(msgType protocol.MessageType, payload any) (string, error) {
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		return "", err
	}
	select {
	case c.send <- msg:
		return msg.ID, nil
	case <-c.done:
		return "", c.Err()
	}
}

// Recv returns the inbound message channel. It is closed when the
// connection ends.
func (c *NetworkClient) Recv() <-chan *protocol.Message {
	return c.recv
}

// Err returns the error that ended the connection, if any.
func (c *NetworkClient) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close closes the connection.
func (c *NetworkClient) Close() error {
	c.shutdown(nil)
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

func (c *NetworkClient) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *NetworkClient) readPump() {
	defer close(c.recv)
	c.conn.SetReadLimit(1 << 20)

	for {
		msgType, data, err := c.conn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				c.shutdown(nil)
			} else {
				c.log.Debug("read failed", zap.Error(err))
				c.shutdown(err)
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("failed to unmarshal message", zap.Error(err))
			continue
		}
		select {
		case c.recv <- &msg:
		case <-c.done:
			return
		}
	}
}

func (c *NetworkClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case msg := <-c.send:
			data, err := json.Marshal(msg)
			if err != nil {
				c.log.Error("failed to marshal message", zap.Error(err))
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err = c.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.shutdown(err)
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				c.shutdown(err)
				return
			}
		}
	}
}
