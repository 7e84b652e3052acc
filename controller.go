package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"psichat/internal/hub"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Controller struct {
	ctx    context.Context
	hub    *hub.Hub
	router *hub.Router
}

func NewController(ctx context.Context, h *hub.Hub, router *hub.Router) *Controller {
	return &Controller{
		ctx:    ctx,
		hub:    h,
		router: router,
	}
}

func (c *Controller) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("upgrade failed", "error", err)
		return
	}

	client := hub.NewClient(
		c.ctx,
		conn,
		c.router.Dispatch,
		c.router.Disconnect,
	)

	c.hub.Add(client)

	// Start goroutines for reading and writing
	go client.WritePump()
	go client.ReadPump()
}

func (c *Controller) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		slog.Error("failed to write health response", "error", err)
	}
}
