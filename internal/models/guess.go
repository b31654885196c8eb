package models

import "time"

// Guess is append-only: rows are inserted when a turn is taken and never
// updated afterwards.
type Guess struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GameID    uint      `gorm:"not null;index:idx_guess_game_order" json:"game_id"`
	PlayerID  uint      `gorm:"not null" json:"player_id"`
	Numbers   string    `gorm:"size:4;not null" json:"numbers"`
	Dead      int       `gorm:"not null" json:"dead"`
	Injured   int       `gorm:"not null" json:"injured"`
	CreatedAt time.Time `gorm:"index:idx_guess_game_order" json:"created_at"`
}
