// Package websocket is the secondary transport for browser clients. Each
// text frame carries exactly one protocol line, identical to the TCP wire
// format.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

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
	upgrader    websocket.Upgrader
}

func New(logger *slog.Logger, coordinator coordinator, session *service.Session) *Server {
	return &Server{
		logger:      logger.With("component", "websocket-server"),
		coordinator: coordinator,
		session:     session,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.handleUpgrade)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("remote", r.RemoteAddr)

	if phase := that.session.Phase(); phase != service.PhaseWaiting && phase != service.PhaseCountdown {
		http.Error(w, "game already started", http.StatusConflict)
		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	player, err := that.coordinator.Join(&sender{conn: conn})
	if err != nil {
		log.Info("connection rejected", "error", err)
		return
	}

	log.Info("client connected", "id", player.ID)
	defer that.coordinator.Leave(player.ID)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			log.Debug("connection read failed", "id", player.ID, "error", err)
			break
		}

		that.dispatchLine(log, player.ID, string(payload))
	}

	log.Info("client disconnected", "id", player.ID)
}

func (that *Server) dispatchLine(log *slog.Logger, id int, line string) {
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
			return
		}
		if err := that.coordinator.HoldStart(id, msg.Row, msg.Col); err != nil {
			log.Debug("hold_start ignored", "id", id, "error", err)
		}
	case protocol.TypeHoldEnd:
		if !that.inBounds(msg.Row, msg.Col) {
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
