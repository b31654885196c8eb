package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Mechmay/dinjure-online/internal/game"
	"github.com/Mechmay/dinjure-online/internal/models"
	"github.com/Mechmay/dinjure-online/internal/services"
	"github.com/Mechmay/dinjure-online/internal/ws"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	gameService *services.GameService
	hub         *ws.Hub
}

func NewGameHandler(gameService *services.GameService, hub *ws.Hub) *GameHandler {
	return &GameHandler{gameService: gameService, hub: hub}
}

type CreateGameRequest struct {
	Numbers []int `json:"numbers,omitempty" example:"3,7,0,9"`
}

type JoinGameRequest struct {
	Numbers []int `json:"numbers,omitempty" example:"1,2,3,4"`
}

type NumbersRequest struct {
	Numbers []int `json:"numbers" binding:"required" example:"3,7,0,9"`
}

// Lobby godoc
// @Summary      Lobby view
// @Description  Joinable games, the caller's own games, and an in-progress game to resume
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} services.LobbyState
// @Router       /api/v1/games [get]
func (h *GameHandler) Lobby(c *gin.Context) {
	playerID := c.GetUint("player_id")

	lobby, err := h.gameService.Lobby(playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, lobby)
}

// CreateGame godoc
// @Summary      Create a game
// @Description  Open a new session waiting for an opponent; the secret may be set now or later
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateGameRequest true "Optional secret numbers"
// @Success      201 {object} GameSession
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/games [post]
func (h *GameHandler) CreateGame(c *gin.Context) {
	playerID := c.GetUint("player_id")

	// Body is optional: the secret may be deferred to SetNumbers.
	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Numbers = nil
	}

	var numbers game.Code
	if req.Numbers != nil {
		numbers = game.Code(req.Numbers)
	}

	session, err := h.gameService.CreateGame(playerID, numbers)
	if err != nil {
		c.JSON(gameErrorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}

	h.hub.BroadcastLobby(ws.WSMessage{Type: "game_created", Data: session.ID})

	c.JSON(http.StatusCreated, session)
}

// JoinGame godoc
// @Summary      Join a game
// @Description  Claim the open seat; exactly one of two concurrent joiners wins the race
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Param        request body JoinGameRequest true "Optional secret numbers"
// @Success      200 {object} GameSession
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/games/{id}/join [post]
func (h *GameHandler) JoinGame(c *gin.Context) {
	playerID := c.GetUint("player_id")
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}

	var req JoinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Numbers = nil
	}

	var numbers game.Code
	if req.Numbers != nil {
		numbers = game.Code(req.Numbers)
	}

	session, err := h.gameService.JoinGame(gameID, playerID, numbers)
	if err != nil {
		c.JSON(gameErrorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}

	h.hub.BroadcastGame(gameID, ws.WSMessage{Type: "game_updated"})
	h.hub.BroadcastLobby(ws.WSMessage{Type: "game_updated", Data: gameID})

	c.JSON(http.StatusOK, session)
}

// GetGame godoc
// @Summary      Get game state
// @Description  Session row plus the full guess log, newest first; opponent secrets are never returned
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      200 {object} services.GameState
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/games/{id} [get]
func (h *GameHandler) GetGame(c *gin.Context) {
	playerID := c.GetUint("player_id")
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}

	state, err := h.gameService.GetGame(gameID, playerID)
	if err != nil {
		c.JSON(gameErrorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, state)
}

// SetNumbers godoc
// @Summary      Set secret numbers
// @Description  Commit the caller's 4 distinct digits; immutable once set
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Param        request body NumbersRequest true "Secret numbers"
// @Success      200 {object} GameSession
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/games/{id}/numbers [post]
func (h *GameHandler) SetNumbers(c *gin.Context) {
	playerID := c.GetUint("player_id")
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}

	var req NumbersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	session, err := h.gameService.SetNumbers(gameID, playerID, game.Code(req.Numbers))
	if err != nil {
		c.JSON(gameErrorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}

	h.hub.BroadcastGame(gameID, ws.WSMessage{Type: "game_updated"})

	c.JSON(http.StatusOK, session)
}

// SubmitGuess godoc
// @Summary      Submit a guess
// @Description  Score the guess against the opponent's secret; 4 dead wins the game, otherwise the turn passes
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Param        request body NumbersRequest true "Guessed numbers"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/games/{id}/guess [post]
func (h *GameHandler) SubmitGuess(c *gin.Context) {
	playerID := c.GetUint("player_id")
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}

	var req NumbersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	guess, session, err := h.gameService.SubmitGuess(gameID, playerID, game.Code(req.Numbers))
	if err != nil {
		c.JSON(gameErrorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}

	h.hub.BroadcastGame(gameID, ws.WSMessage{Type: "guess_created"})
	if session.Status == models.StatusCompleted {
		h.hub.BroadcastLobby(ws.WSMessage{Type: "game_updated", Data: gameID})
	}

	c.JSON(http.StatusOK, gin.H{
		"guess": guess,
		"game":  session,
	})
}

// DeleteGame godoc
// @Summary      Delete a game
// @Description  Remove an abandoned session; creator only, and only while waiting for an opponent
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/games/{id} [delete]
func (h *GameHandler) DeleteGame(c *gin.Context) {
	playerID := c.GetUint("player_id")
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}

	if err := h.gameService.DeleteGame(gameID, playerID); err != nil {
		c.JSON(gameErrorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}

	h.hub.BroadcastLobby(ws.WSMessage{Type: "game_deleted", Data: gameID})

	c.JSON(http.StatusOK, MessageResponse{Message: "game deleted"})
}

func gameIDParam(c *gin.Context) (uint, bool) {
	gameID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid game id"})
		return 0, false
	}
	return uint(gameID), true
}

func gameErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrGameUnavailable),
		errors.Is(err, services.ErrGameNotDeletable):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotOwner),
		errors.Is(err, services.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, game.ErrInvalidCode),
		errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrGameAlreadyWon),
		errors.Is(err, game.ErrSecretAlreadySet),
		errors.Is(err, game.ErrSecretsNotSet):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
