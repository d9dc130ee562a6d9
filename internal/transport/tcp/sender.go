package tcp

import (
	"net"
	"sync"
	"time"
)

const writeTimeout = 5 * time.Second

// sender frames outbound protocol lines with a trailing newline. Sends are
// serialized; a stalled peer fails the write deadline and gets pruned by
// the dispatcher.
type sender struct {
	mu   sync.Mutex
	conn net.Conn
}

func newSender(conn net.Conn) *sender {
	return &sender{conn: conn}
}

func (that *sender) Send(line string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}

	_, err := that.conn.Write([]byte(line + "\n"))

	return err
}

func (that *sender) Close() error {
	return that.conn.Close()
}
