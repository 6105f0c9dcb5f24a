package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ImanSamantaCoder/Video-calling-APP/internal/metrics"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/signaling"
)

// Configure the websocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024, // 64 KB
	WriteBufferSize: 64 * 1024, // 64 KB

	// Browser clients are served from anywhere; identities are not
	// authenticated either.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewMux registers the signaling routes for hub.
func NewMux(hub *signaling.Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", HealthCheck(hub))
	mux.Handle("GET /metrics", metrics.PrometheusHandler(hub.Metrics()))
	mux.HandleFunc("GET /ws", ServeWs(hub))
	return mux
}

// HealthCheck reports liveness together with the hub's current size.
func HealthCheck(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		conns, rooms, err := hub.Stats(ctx)
		if err != nil {
			http.Error(w, "Signaling hub is not running.", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Signaling server is healthy. connections=%d rooms=%d\n", conns, rooms)
	}
}

// ServeWs returns an http.HandlerFunc that handles websocket requests.
// It takes the hub as a dependency.
func ServeWs(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Debug("failed to upgrade connection", "err", err)
			return
		}

		client := hub.NewClient(conn)
		if !hub.Register(client) {
			conn.Close()
			return
		}

		// These goroutines own the client's lifecycle from here on.
		go client.WritePump()
		go client.ReadPump()
	}
}
