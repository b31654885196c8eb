package game

import "errors"

var (
	ErrInvalidCode      = errors.New("code must be 4 distinct digits between 0 and 9")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrGameAlreadyWon   = errors.New("game already won")
	ErrSecretAlreadySet = errors.New("secret already set")
	ErrSecretsNotSet    = errors.New("both players must set their numbers first")
)
