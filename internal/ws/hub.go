package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage is a refetch trigger, not a diff: delivery is at-least-once and
// payloads may be coalesced, so clients reload the full game or lobby state
// on every message.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type Hub struct {
	mu    sync.RWMutex
	games map[uint]map[*websocket.Conn]bool
	lobby map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		games: make(map[uint]map[*websocket.Conn]bool),
		lobby: make(map[*websocket.Conn]bool),
	}
}

func (h *Hub) AddGameConnection(gameID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.games[gameID] == nil {
		h.games[gameID] = make(map[*websocket.Conn]bool)
	}
	h.games[gameID][conn] = true
	log.Debug().Uint("game_id", gameID).Int("clients", len(h.games[gameID])).Msg("ws: client watching game")
}

func (h *Hub) RemoveGameConnection(gameID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.games[gameID]; ok {
		delete(conns, conn)
		conn.Close()
		if len(conns) == 0 {
			delete(h.games, gameID)
		}
		log.Debug().Uint("game_id", gameID).Msg("ws: client left game")
	}
}

func (h *Hub) AddLobbyConnection(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lobby[conn] = true
	log.Debug().Int("clients", len(h.lobby)).Msg("ws: client watching lobby")
}

func (h *Hub) RemoveLobbyConnection(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.lobby[conn] {
		delete(h.lobby, conn)
		conn.Close()
		log.Debug().Msg("ws: client left lobby")
	}
}

// BroadcastGame notifies every watcher of one game that its row or guess log
// changed.
func (h *Hub) BroadcastGame(gameID uint, message WSMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.send(h.games[gameID], message)
}

// BroadcastLobby notifies directory watchers that the sessions collection
// changed in some way.
func (h *Hub) BroadcastLobby(message WSMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.send(h.lobby, message)
}

// send drops writers that fail mid-broadcast; callers hold the write lock.
func (h *Hub) send(conns map[*websocket.Conn]bool, message WSMessage) {
	if len(conns) == 0 {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("ws: marshal error")
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Msg("ws: write error")
			conn.Close()
			delete(conns, conn)
		}
	}
}
