package broadcast

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Conn is a subscriber transport. Implementations must be safe for concurrent use.
type Conn interface {
	Send(data []byte) error
	Ping() error
	Close() error
	IsOpen() bool
}

type wsConn struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed atomic.Bool
}

func NewWSConn(conn *websocket.Conn) Conn {
	return &wsConn{conn: conn}
}

func (c *wsConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *wsConn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}

func (c *wsConn) IsOpen() bool {
	return !c.closed.Load()
}
