package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// sender delivers one protocol line per text frame. gorilla connections
// allow a single concurrent writer, hence the mutex.
type sender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (that *sender) Send(line string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}

	return that.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (that *sender) Close() error {
	return that.conn.Close()
}
