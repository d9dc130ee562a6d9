package rest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gridhold/gridhold-backend/internal/service"
)

// StatusProvider reports the live session snapshot.
type StatusProvider interface {
	Snapshot() service.Status
}

func Start(port string, provider StatusProvider) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", pingHandler)
	mux.HandleFunc("/status", newStatusHandler(provider))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
