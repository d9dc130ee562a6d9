// Package tcp is the primary transport: one persistent connection per
// client carrying newline-delimited protocol messages.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/gridhold/gridhold-backend/internal/entity"
	"github.com/gridhold/gridhold-backend/internal/protocol"
	"github.com/gridhold/gridhold-backend/internal/service"
)

type coordinator interface {
	Join(sender service.Sender) (*entity.Player, error)
	Leave(id int)
	SetName(id int, name string) error
	HoldStart(id, row, col int) error
	HoldEnd(id, row, col int, duration float64) error
	BoardSize() int
}

type Server struct {
	logger      *slog.Logger
	coordinator coordinator
	session     *service.Session
}

func New(logger *slog.Logger, coordinator coordinator, session *service.Session) *Server {
	return &Server{
		logger:      logger.With("component", "tcp-server"),
		coordinator: coordinator,
		session:     session,
	}
}

// Start accepts connections until the context is canceled or the game
// starts; once running, the roster is closed and the listener shuts down.
func (that *Server) Start(ctx context.Context, port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", port, err)
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-that.session.Started():
			that.logger.Info("game started, no longer accepting connections")
		}
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		go that.handleConn(conn)
	}
}

func (that *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	log := that.logger.With("remote", conn.RemoteAddr().String())

	player, err := that.coordinator.Join(newSender(conn))
	if err != nil {
		log.Info("connection rejected", "error", err)
		return
	}

	log.Info("client connected", "id", player.ID)
	defer that.coordinator.Leave(player.ID)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		that.dispatchLine(log, player.ID, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		log.Debug("connection read failed", "id", player.ID, "error", err)
	}

	log.Info("client disconnected", "id", player.ID)
}

// dispatchLine decodes and routes one inbound line. Malformed lines,
// out-of-range coordinates, and state conflicts are dropped without any
// response; the absence of a claim or void broadcast is the signal.
func (that *Server) dispatchLine(log *slog.Logger, id int, line string) {
	if line == "" {
		return
	}

	msg, err := protocol.ParseClientMessage(line)
	if err != nil {
		log.Debug("dropping message", "id", id, "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeName:
		if err := that.coordinator.SetName(id, msg.Name); err != nil {
			log.Debug("name rejected", "id", id, "error", err)
		}
	case protocol.TypeHoldStart:
		if !that.inBounds(msg.Row, msg.Col) {
			log.Debug("dropping out-of-bounds hold_start", "id", id, "row", msg.Row, "col", msg.Col)
			return
		}
		if err := that.coordinator.HoldStart(id, msg.Row, msg.Col); err != nil {
			log.Debug("hold_start ignored", "id", id, "error", err)
		}
	case protocol.TypeHoldEnd:
		if !that.inBounds(msg.Row, msg.Col) {
			log.Debug("dropping out-of-bounds hold_end", "id", id, "row", msg.Row, "col", msg.Col)
			return
		}
		if err := that.coordinator.HoldEnd(id, msg.Row, msg.Col, msg.Duration); err != nil {
			log.Debug("hold_end ignored", "id", id, "error", err)
		}
	}
}

func (that *Server) inBounds(row, col int) bool {
	size := that.coordinator.BoardSize()
	return row >= 0 && row < size && col >= 0 && col < size
}
