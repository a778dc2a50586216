package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cargoflow/tracking-system/internal/broadcast"
)

// WSHandler upgrades viewer connections and attaches them to the
// broadcast hub on the shared topic.
type WSHandler struct {
	hub      *broadcast.Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(hub *broadcast.Hub, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser viewers connect from arbitrary origins; session
			// identity is not a trust boundary here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Subscribe handles GET /ws.
//
// @Summary      Subscribe to the broadcast event stream
// @Tags         broadcast
// @Success      101
// @Router       /ws [get]
func (h *WSHandler) Subscribe(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the failure response.
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return nil
	}

	broadcast.ServeConn(h.hub, broadcast.TopicGlobal, conn, h.log)
	return nil
}
