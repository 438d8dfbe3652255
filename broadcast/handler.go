package broadcast

import (
	"net/http"

	"github.com/gorilla/websocket"
)

const maxMessageSize = 512

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewHandler upgrades requests to WebSocket connections and registers them until the peer goes away.
func NewHandler(b *Broadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.logger.WithError(err).Warn("can't upgrade websocket connection")
			return
		}
		conn := NewWSConn(ws)
		sub := b.Register(conn)
		defer func() {
			b.Deregister(conn)
			_ = conn.Close()
		}()

		ws.SetReadLimit(maxMessageSize)
		ws.SetPongHandler(func(string) error {
			sub.MarkAlive()
			return nil
		})
		for {
			if _, _, err = ws.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					b.logger.WithError(err).Debug("websocket read error")
				}
				return
			}
		}
	}
}
