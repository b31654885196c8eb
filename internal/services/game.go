package services

import (
	"errors"
	"fmt"

	"github.com/Mechmay/dinjure-online/internal/game"
	"github.com/Mechmay/dinjure-online/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrGameUnavailable  = errors.New("game is no longer available")
	ErrNotParticipant   = errors.New("player is not part of this game")
	ErrNotOwner         = errors.New("only the game creator can delete it")
	ErrGameNotDeletable = errors.New("game can only be deleted while waiting for an opponent")
)

type GameService struct {
	db *gorm.DB
}

func NewGameService(db *gorm.DB) *GameService {
	return &GameService{db: db}
}

// CreateGame opens a new session waiting for an opponent. The secret may be
// committed up front or deferred to SetNumbers.
func (s *GameService) CreateGame(playerID uint, numbers game.Code) (*models.GameSession, error) {
	session := models.GameSession{
		Player1ID:   playerID,
		CurrentTurn: playerID,
		Status:      models.StatusWaitingForPlayer,
	}
	if numbers != nil {
		if err := game.Validate(numbers); err != nil {
			return nil, err
		}
		session.Player1Number = numbers.String()
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return &session, nil
}

// JoinGame claims the second seat. The read is advisory only; the conditional
// update is what decides the race, so two concurrent joins leave exactly one
// winner and the loser gets ErrGameUnavailable.
func (s *GameService) JoinGame(gameID, playerID uint, numbers game.Code) (*models.GameSession, error) {
	var session models.GameSession
	if err := s.db.First(&session, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameUnavailable
		}
		return nil, fmt.Errorf("check game: %w", err)
	}
	if session.Status != models.StatusWaitingForPlayer {
		return nil, ErrGameUnavailable
	}

	updates := map[string]interface{}{
		"player2_id": playerID,
		"status":     models.StatusInProgress,
	}
	if numbers != nil {
		if err := game.Validate(numbers); err != nil {
			return nil, err
		}
		updates["player2_number"] = numbers.String()
	}

	res := s.db.Model(&models.GameSession{}).
		Where("id = ? AND status = ?", gameID, models.StatusWaitingForPlayer).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("join game: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrGameUnavailable
	}

	if err := s.db.First(&session, gameID).Error; err != nil {
		return nil, fmt.Errorf("reload game: %w", err)
	}
	return &session, nil
}

// SetNumbers commits the caller's secret. A secret, once set, never changes.
func (s *GameService) SetNumbers(gameID, playerID uint, numbers game.Code) (*models.GameSession, error) {
	if err := game.Validate(numbers); err != nil {
		return nil, err
	}

	var session models.GameSession
	if err := s.db.First(&session, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("load game: %w", err)
	}
	if !session.IsParticipant(playerID) {
		return nil, ErrNotParticipant
	}
	if session.Status == models.StatusCompleted {
		return nil, game.ErrGameAlreadyWon
	}

	column := "player1_number"
	current := session.Player1Number
	if session.Player2ID != nil && *session.Player2ID == playerID {
		column = "player2_number"
		current = session.Player2Number
	}
	if current != "" {
		return nil, game.ErrSecretAlreadySet
	}

	if err := s.db.Model(&session).Update(column, numbers.String()).Error; err != nil {
		return nil, fmt.Errorf("set numbers: %w", err)
	}

	if err := s.db.First(&session, gameID).Error; err != nil {
		return nil, fmt.Errorf("reload game: %w", err)
	}
	return &session, nil
}

// SubmitGuess runs the read-score-write sequence for one turn: load the
// session, score locally against the opponent's secret, append the guess, then
// either complete the game or pass the turn. Turn exclusivity is the only
// concurrency control on this path; the guess insert itself carries no
// store-side current_turn precondition.
func (s *GameService) SubmitGuess(gameID, playerID uint, numbers game.Code) (*models.Guess, *models.GameSession, error) {
	var session models.GameSession
	if err := s.db.First(&session, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrGameNotFound
		}
		return nil, nil, fmt.Errorf("load game: %w", err)
	}
	if !session.IsParticipant(playerID) {
		return nil, nil, ErrNotParticipant
	}
	if session.Status == models.StatusCompleted {
		return nil, nil, game.ErrGameAlreadyWon
	}
	if session.Status != models.StatusInProgress {
		return nil, nil, game.ErrSecretsNotSet
	}
	if session.CurrentTurn != playerID {
		return nil, nil, game.ErrNotYourTurn
	}
	if err := game.Validate(numbers); err != nil {
		return nil, nil, err
	}

	targetRaw := session.Player2Number
	if session.Player2ID != nil && *session.Player2ID == playerID {
		targetRaw = session.Player1Number
	}
	secret, err := game.Parse(targetRaw)
	if err != nil {
		return nil, nil, game.ErrSecretsNotSet
	}

	result := game.Score(secret, numbers)
	guess := models.Guess{
		GameID:   gameID,
		PlayerID: playerID,
		Numbers:  numbers.String(),
		Dead:     result.Dead,
		Injured:  result.Injured,
	}
	if err := s.db.Create(&guess).Error; err != nil {
		return nil, nil, fmt.Errorf("record guess: %w", err)
	}

	if result.Dead == game.CodeLength {
		res := s.db.Model(&models.GameSession{}).
			Where("id = ? AND status = ?", gameID, models.StatusInProgress).
			Updates(map[string]interface{}{
				"status":    models.StatusCompleted,
				"winner_id": playerID,
			})
		if res.Error != nil {
			// The guess row stays; the session still shows the same turn
			// holder, so the completion can be retried on the next refetch.
			log.Error().Err(res.Error).Uint("game_id", gameID).
				Msg("guess recorded but completing the game failed")
			return &guess, nil, fmt.Errorf("complete game: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return &guess, nil, game.ErrGameAlreadyWon
		}
	} else {
		err := s.db.Model(&models.GameSession{}).
			Where("id = ?", gameID).
			Update("current_turn", session.Opponent(playerID)).Error
		if err != nil {
			log.Error().Err(err).Uint("game_id", gameID).
				Msg("guess recorded but passing the turn failed")
			return &guess, nil, fmt.Errorf("pass turn: %w", err)
		}
	}

	if err := s.db.First(&session, gameID).Error; err != nil {
		return &guess, nil, fmt.Errorf("reload game: %w", err)
	}
	return &guess, &session, nil
}

// GetGame returns the full session view for one participant: the session row
// plus the complete guess log, newest first, each guess annotated with the
// seat it came from. Refetching is idempotent, so repeated change
// notifications are harmless.
func (s *GameService) GetGame(gameID, playerID uint) (*GameState, error) {
	var session models.GameSession
	if err := s.db.First(&session, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("load game: %w", err)
	}
	if !session.IsParticipant(playerID) {
		return nil, ErrNotParticipant
	}

	var guesses []models.Guess
	if err := s.db.Where("game_id = ?", gameID).
		Order("created_at DESC").
		Find(&guesses).Error; err != nil {
		return nil, fmt.Errorf("load guesses: %w", err)
	}

	myNumbers := session.Player1Number
	if session.Player2ID != nil && *session.Player2ID == playerID {
		myNumbers = session.Player2Number
	}

	state := &GameState{
		Game:         session,
		Guesses:      make([]GuessView, len(guesses)),
		MyNumbers:    myNumbers,
		MyTurn:       session.Status == models.StatusInProgress && session.CurrentTurn == playerID,
		NeedsNumbers: myNumbers == "",
	}
	for i, g := range guesses {
		seat := 2
		if g.PlayerID == session.Player1ID {
			seat = 1
		}
		state.Guesses[i] = GuessView{Guess: g, Seat: seat, Mine: g.PlayerID == playerID}
	}
	return state, nil
}

// ListAvailable returns joinable sessions created by other players.
func (s *GameService) ListAvailable(excludeOwnerID uint) ([]models.GameSession, error) {
	var sessions []models.GameSession
	err := s.db.Where("status = ? AND player1_id != ?", models.StatusWaitingForPlayer, excludeOwnerID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list available games: %w", err)
	}
	return sessions, nil
}

// ListMyGames returns every session the player sits in, newest first.
func (s *GameService) ListMyGames(playerID uint) ([]models.GameSession, error) {
	var sessions []models.GameSession
	err := s.db.Where("player1_id = ? OR player2_id = ?", playerID, playerID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list my games: %w", err)
	}
	return sessions, nil
}

// Lobby bundles the directory view and flags an in-progress game so the
// client can resume it directly.
func (s *GameService) Lobby(playerID uint) (*LobbyState, error) {
	myGames, err := s.ListMyGames(playerID)
	if err != nil {
		return nil, err
	}

	lobby := &LobbyState{MyGames: myGames}
	for _, g := range myGames {
		if g.Status == models.StatusInProgress {
			lobby.ActiveGameID = g.ID
			break
		}
	}

	available, err := s.ListAvailable(playerID)
	if err != nil {
		return nil, err
	}
	lobby.Available = available
	return lobby, nil
}

// DeleteGame removes an abandoned session. Only the creator may delete, and
// only while the session is still waiting for an opponent.
func (s *GameService) DeleteGame(gameID, playerID uint) error {
	var session models.GameSession
	if err := s.db.First(&session, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGameNotFound
		}
		return fmt.Errorf("load game: %w", err)
	}
	if session.Player1ID != playerID {
		return ErrNotOwner
	}
	if session.Status != models.StatusWaitingForPlayer {
		return ErrGameNotDeletable
	}

	res := s.db.Where("id = ? AND status = ?", gameID, models.StatusWaitingForPlayer).
		Delete(&models.GameSession{})
	if res.Error != nil {
		return fmt.Errorf("delete game: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrGameNotDeletable
	}
	return nil
}

type GuessView struct {
	models.Guess
	Seat int  `json:"seat"`
	Mine bool `json:"mine"`
}

type GameState struct {
	Game         models.GameSession `json:"game"`
	Guesses      []GuessView        `json:"guesses"`
	MyNumbers    string             `json:"my_numbers,omitempty"`
	MyTurn       bool               `json:"my_turn"`
	NeedsNumbers bool               `json:"needs_numbers"`
}

type LobbyState struct {
	Available    []models.GameSession `json:"available"`
	MyGames      []models.GameSession `json:"my_games"`
	ActiveGameID uint                 `json:"active_game_id,omitempty"`
}
