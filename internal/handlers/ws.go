package handlers

import (
	"net/http"
	"strconv"

	"github.com/Mechmay/dinjure-online/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type WSHandler struct {
	hub *ws.Hub
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleGameWebSocket godoc
// @Summary      WebSocket for one game
// @Description  Receive change events for a single game; every event is a signal to refetch the game state
// @Tags         websocket
// @Param        id path int true "Game ID"
// @Router       /ws/games/{id} [get]
func (h *WSHandler) HandleGameWebSocket(c *gin.Context) {
	gameID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid game id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}

	gid := uint(gameID)
	h.hub.AddGameConnection(gid, conn)
	defer h.hub.RemoveGameConnection(gid, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// HandleLobbyWebSocket godoc
// @Summary      WebSocket for the lobby
// @Description  Receive change events for the whole sessions collection; refetch the lobby on every event
// @Tags         websocket
// @Router       /ws/lobby [get]
func (h *WSHandler) HandleLobbyWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}

	h.hub.AddLobbyConnection(conn)
	defer h.hub.RemoveLobbyConnection(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
