package game

import "math/rand"

type Phase string

const (
	PhaseSettingNumbers Phase = "setting_numbers"
	PhaseGuessing       Phase = "guessing"
	PhaseWon            Phase = "won"
)

// Local player seats.
const (
	Player1 = 1
	Player2 = 2
)

// GuessRecord is one scored guess in a local match, newest first in history.
type GuessRecord struct {
	Player  int    `json:"player"`
	Numbers Code   `json:"numbers"`
	Result  Result `json:"result"`
}

// Match is the in-memory engine for offline and vs-computer play. It is
// single-threaded: every operation completes before returning and the caller
// re-renders from State afterwards. Dropping the value is how a match exits;
// nothing is persisted.
type Match struct {
	phase      Phase
	secrets    [2]Code
	current    int
	winner     int
	guesses    []GuessRecord
	vsComputer bool
}

// State is the snapshot handed to the presentation layer.
type State struct {
	Phase       Phase         `json:"phase"`
	CurrentTurn int           `json:"current_turn"`
	Winner      int           `json:"winner,omitempty"`
	SettingSeat int           `json:"setting_seat,omitempty"`
	Guesses     []GuessRecord `json:"guesses"`
	VsComputer  bool          `json:"vs_computer"`
}

// NewMatch starts an offline match for two local players. Player 1 commits a
// secret first, then player 2, then player 1 guesses first.
func NewMatch() *Match {
	return &Match{phase: PhaseSettingNumbers, current: Player1}
}

// NewMatchVsComputer starts a match against a synthetic opponent. The
// computer's secret is drawn once up front and the human goes straight to
// guessing; the computer never guesses back, so the turn stays with seat 1.
func NewMatchVsComputer(rng *rand.Rand) *Match {
	m := &Match{phase: PhaseGuessing, current: Player1, vsComputer: true}
	m.secrets[1] = Random(rng)
	return m
}

// SetSecret records a player's hidden numbers. Secrets are immutable once
// set; when both seats have committed, the match moves to guessing with
// player 1 first.
func (m *Match) SetSecret(player int, code Code) error {
	if m.phase != PhaseSettingNumbers {
		if m.phase == PhaseWon {
			return ErrGameAlreadyWon
		}
		return ErrSecretAlreadySet
	}
	if player != m.current {
		return ErrNotYourTurn
	}
	if err := Validate(code); err != nil {
		return err
	}

	m.secrets[player-1] = append(Code(nil), code...)
	if player == Player1 {
		m.current = Player2
		return nil
	}
	m.phase = PhaseGuessing
	m.current = Player1
	return nil
}

// SubmitGuess scores the guess against the other seat's secret, appends it to
// the history and either ends the match (4 dead) or passes the turn.
func (m *Match) SubmitGuess(player int, code Code) (Result, error) {
	if m.phase == PhaseWon {
		return Result{}, ErrGameAlreadyWon
	}
	if m.phase != PhaseGuessing {
		return Result{}, ErrSecretsNotSet
	}
	if player != m.current {
		return Result{}, ErrNotYourTurn
	}
	if err := Validate(code); err != nil {
		return Result{}, err
	}

	secret := m.secrets[m.opponent(player)-1]
	res := Score(secret, code)
	m.guesses = append([]GuessRecord{{Player: player, Numbers: append(Code(nil), code...), Result: res}}, m.guesses...)

	if res.Dead == CodeLength {
		m.phase = PhaseWon
		m.winner = player
	} else if !m.vsComputer {
		m.current = m.opponent(player)
	}
	return res, nil
}

func (m *Match) opponent(player int) int {
	if player == Player1 {
		return Player2
	}
	return Player1
}

func (m *Match) State() State {
	st := State{
		Phase:       m.phase,
		CurrentTurn: m.current,
		Winner:      m.winner,
		Guesses:     append([]GuessRecord(nil), m.guesses...),
		VsComputer:  m.vsComputer,
	}
	if m.phase == PhaseSettingNumbers {
		st.SettingSeat = m.current
		st.CurrentTurn = 0
	}
	if m.phase == PhaseWon {
		st.CurrentTurn = 0
	}
	return st
}
