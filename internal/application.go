package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gridhold/gridhold-backend/internal/config"
	"github.com/gridhold/gridhold-backend/internal/repository"
	"github.com/gridhold/gridhold-backend/internal/repository/storage"
	"github.com/gridhold/gridhold-backend/internal/service"
	"github.com/gridhold/gridhold-backend/internal/transport/tcp"
	ws "github.com/gridhold/gridhold-backend/internal/transport/websocket"
	"github.com/gridhold/gridhold-backend/transport/rest"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	palette, err := conf.Game.ParsePalette()
	if err != nil {
		return fmt.Errorf("could not parse palette: %w", err)
	}

	var results repository.ResultRepository
	if addr := conf.Redis.GetRedisAddr(); addr != "" {
		client, clientErr := storage.New(ctx, addr)
		if clientErr != nil {
			return fmt.Errorf("could not connect to redis storage: %w", clientErr)
		}

		defer func() {
			if err = client.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		results = repository.NewResultRepository(client)
	} else {
		log.Info("redis not configured, match results will not be archived")
	}

	registry := service.NewRegistry(palette)
	session := service.NewSession()
	dispatcher := service.NewDispatcher(logger)
	coordinator := service.NewCoordinator(logger, conf.Game, session, registry, dispatcher, results)

	go dispatcher.Run(ctx)

	// once winners are announced, give clients a moment to render the
	// result, then shut the process down
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-session.Done():
		}

		grace := conf.Game.ShutdownGrace()
		log.Info("game won, shutting down", "grace", grace.String())
		time.Sleep(grace)
		cancel()
	}()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(conf.HTTPPort, coordinator); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run WebSocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.WebSocketPort)
		wsServer := ws.New(logger, coordinator, session)
		if wsErr := wsServer.Start(ctx, conf.WebSocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	// run TCP game server
	tcpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting TCP server", "port", conf.TCPPort)
		tcpServer := tcp.New(logger, coordinator, session)
		if tcpErr := tcpServer.Start(ctx, conf.TCPPort); tcpErr != nil {
			log.Error("TCP server error", "error", tcpErr)
			tcpErrCh <- tcpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case err = <-tcpErrCh:
		return fmt.Errorf("TCP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
