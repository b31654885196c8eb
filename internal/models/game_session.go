package models

import "time"

// GameSession is one match between two players. Secrets are stored as
// 4-digit strings ("3709"); the empty string means not set yet.
type GameSession struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Player1ID     uint      `gorm:"not null;index" json:"player1_id"`
	Player1       Player    `gorm:"foreignKey:Player1ID;constraint:OnDelete:CASCADE" json:"-"`
	Player2ID     *uint     `gorm:"index" json:"player2_id,omitempty"`
	Player1Number string    `gorm:"size:4" json:"-"`
	Player2Number string    `gorm:"size:4" json:"-"`
	CurrentTurn   uint      `gorm:"not null;default:0" json:"current_turn"`
	Status        string    `gorm:"size:20;not null;default:'waiting_for_player';index" json:"status"`
	WinnerID      *uint     `json:"winner_id,omitempty"`
	Guesses       []Guess   `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"guesses,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	StatusWaitingForPlayer = "waiting_for_player"
	StatusInProgress       = "in_progress"
	StatusCompleted        = "completed"
)

// IsParticipant reports whether playerID is one of the session's two seats.
func (g *GameSession) IsParticipant(playerID uint) bool {
	if g.Player1ID == playerID {
		return true
	}
	return g.Player2ID != nil && *g.Player2ID == playerID
}

// Opponent returns the other seat's player id, or 0 if the seat is empty.
func (g *GameSession) Opponent(playerID uint) uint {
	if g.Player1ID == playerID {
		if g.Player2ID == nil {
			return 0
		}
		return *g.Player2ID
	}
	return g.Player1ID
}
